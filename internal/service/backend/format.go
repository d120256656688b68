package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed user-visible texts.
const (
	NoResponseText   = "No response."
	ChatFailedText   = "Error contacting backend."
	UploadFailedText = "Upload failed."
	IngestFailedText = "Ingest failed."
)

// FormatChatReply composes the bot text for a chat answer.
func FormatChatReply(res ChatResult) string {
	text := string(res.Answer)
	if text == "" {
		text = NoResponseText
	}
	if len(res.Sources) > 0 {
		text += "\n\nSources: " + strings.Join(res.Sources, ", ")
	}
	return text
}

// FormatUploadReply composes the bot text for a completed upload of filename.
func FormatUploadReply(filename string, res UploadResult) string {
	return fmt.Sprintf("Uploaded \"%s\". Indexed %s chunks from %s file(s).",
		filename, formatCount(indexedCount(res)), formatCount(fileCount(res, 1)))
}

// FormatIngestReply composes the bot text for a folder re-index.
func FormatIngestReply(res UploadResult) string {
	return fmt.Sprintf("Re-indexed %s chunks from %s file(s).",
		formatCount(indexedCount(res)), formatCount(fileCount(res, 0)))
}

func indexedCount(res UploadResult) float64 {
	if res.Indexed == nil {
		return 0
	}
	return float64(*res.Indexed)
}

// fileCount prefers "files", then "saved", then def.
func fileCount(res UploadResult, def float64) float64 {
	switch {
	case res.Files != nil:
		return float64(*res.Files)
	case res.Saved != nil:
		return float64(*res.Saved)
	default:
		return def
	}
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
