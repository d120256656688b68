package backend

import "testing"

func count(v float64) *LooseCount {
	c := LooseCount(v)
	return &c
}

func TestFormatChatReply(t *testing.T) {
	cases := []struct {
		name string
		in   ChatResult
		want string
	}{
		{"answer with sources", ChatResult{Answer: "X", Sources: SourceList{"a.pdf", "b.pdf"}}, "X\n\nSources: a.pdf, b.pdf"},
		{"answer with empty sources", ChatResult{Answer: "X", Sources: SourceList{}}, "X"},
		{"empty result", ChatResult{}, "No response."},
		{"sources without answer", ChatResult{Sources: SourceList{"c.md"}}, "No response.\n\nSources: c.md"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatChatReply(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestFormatUploadReply(t *testing.T) {
	cases := []struct {
		name string
		in   UploadResult
		want string
	}{
		{"indexed and files", UploadResult{Indexed: count(12), Files: count(2)}, `Uploaded "report.pdf". Indexed 12 chunks from 2 file(s).`},
		{"no fields", UploadResult{}, `Uploaded "report.pdf". Indexed 0 chunks from 1 file(s).`},
		{"saved fallback", UploadResult{Indexed: count(5), Saved: count(3)}, `Uploaded "report.pdf". Indexed 5 chunks from 3 file(s).`},
		{"files wins over saved", UploadResult{Files: count(4), Saved: count(1)}, `Uploaded "report.pdf". Indexed 0 chunks from 4 file(s).`},
		{"zero files is kept", UploadResult{Files: count(0)}, `Uploaded "report.pdf". Indexed 0 chunks from 0 file(s).`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatUploadReply("report.pdf", tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestFormatIngestReplyDefaults(t *testing.T) {
	if got := FormatIngestReply(UploadResult{}); got != "Re-indexed 0 chunks from 0 file(s)." {
		t.Fatalf("unexpected text %q", got)
	}
}
