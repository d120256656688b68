package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// ChatResult is the decoded answer of POST /chat. Both fields are optional.
type ChatResult struct {
	Answer  LooseString `json:"answer"`
	Sources SourceList  `json:"sources"`
}

// UploadResult is the decoded answer of POST /api/upload and POST /api/ingest.
// Pointer fields distinguish an absent count from zero; different backend
// versions report the file count as either "files" or "saved".
type UploadResult struct {
	Indexed *LooseCount `json:"indexed"`
	Files   *LooseCount `json:"files"`
	Saved   *LooseCount `json:"saved"`
}

// LooseCount accepts a JSON number or a numeric string. Any other value
// decodes to zero. A null leaves the enclosing pointer nil.
type LooseCount float64

func (c *LooseCount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			trimmed = strings.TrimSpace(s)
		}
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		n = 0
	}
	*c = LooseCount(n)
	return nil
}

// LooseString accepts any JSON scalar. Falsy values (null, false, 0, "")
// decode to the empty string; other numbers and true keep their JSON text.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	*s = LooseString(scalarText(data))
	return nil
}

// SourceList accepts a JSON array of identifiers. Anything that is not an
// array decodes to an empty list.
type SourceList []string

func (l *SourceList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	out := make(SourceList, 0, len(raw))
	for _, item := range raw {
		out = append(out, elementText(item))
	}
	*l = out
	return nil
}

func scalarText(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	switch trimmed {
	case "", "null", "false", `""`:
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
		return ""
	}
	var n float64
	if err := json.Unmarshal([]byte(trimmed), &n); err == nil && n == 0 {
		return ""
	}
	return trimmed
}

func elementText(data json.RawMessage) string {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		return s
	}
	return trimmed
}
