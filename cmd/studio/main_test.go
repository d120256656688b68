package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprintf(w, `{"answer":"you asked: %s","sources":["a.md"]}`, body.Query)
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"indexed":5,"files":1}`)
	})
	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"indexed":12,"files":3}`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command against backendURL and returns stdout.
func execute(t *testing.T, backendURL string, args ...string) (string, error) {
	t.Helper()
	// Registered so the values written by applyFlags are restored afterwards.
	t.Setenv("API_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "test.log"))
	t.Cleanup(func() { apiURL, logLevel, logFile, watchDir = "", "", "", "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--api-url", backendURL))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskPrintsTranscript(t *testing.T) {
	srv := fakeBackend(t)

	out, err := execute(t, srv.URL, "ask", "what", "is", "go")
	require.NoError(t, err)
	assert.Equal(t, "You: what is go\nBot: you asked: what is go\n\nSources: a.md\n", out)
}

func TestUploadPrintsSummary(t *testing.T) {
	srv := fakeBackend(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	out, err := execute(t, srv.URL, "upload", path)
	require.NoError(t, err)
	assert.Equal(t, "Uploaded \"notes.txt\". Indexed 5 chunks from 1 file(s).\n", out)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv := fakeBackend(t)

	_, err := execute(t, srv.URL, "upload", "image.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestIngestPrintsSummary(t *testing.T) {
	srv := fakeBackend(t)

	out, err := execute(t, srv.URL, "ingest")
	require.NoError(t, err)
	assert.Equal(t, "Re-indexed 12 chunks from 3 file(s).\n", out)
}

func TestPing(t *testing.T) {
	srv := fakeBackend(t)

	out, err := execute(t, srv.URL, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")
}

func TestAskReportsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := execute(t, srv.URL, "ask", "hi")
	require.Error(t, err)
	assert.Equal(t, "You: hi\nBot: Error contacting backend.\n", out)
}

func TestInvalidAPIURL(t *testing.T) {
	_, err := execute(t, "ftp://example.com", "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be http or https")
}
