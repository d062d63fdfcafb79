package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"medley/internal/config"
)

func newTestClient() *Client {
	cfg := config.Default()
	return NewClient(&cfg, nil)
}

func TestRewriteLocator(t *testing.T) {
	cases := map[string]string{
		"https://drive.google.com/open?id=abc123":        "https://drive.google.com/uc?export=download&id=abc123",
		"https://drive.google.com/file/d/xyz789/view":    "https://drive.google.com/uc?export=download&id=xyz789",
		"https://example.com/music/program.mp3":          "https://example.com/music/program.mp3",
		"https://drive.google.com/drive/folders/nothing": "https://drive.google.com/drive/folders/nothing",
	}
	for input, want := range cases {
		if got := RewriteLocator(input); got != want {
			t.Fatalf("RewriteLocator(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFetchUsesContentDispositionExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="My Program.WAV"`)
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	var gotExt string
	path, err := newTestClient().Fetch(context.Background(), server.URL+"/download", func(ext string) string {
		gotExt = ext
		return filepath.Join(dir, "3_key"+ext)
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotExt != ".wav" {
		t.Fatalf("extension = %q, want .wav", gotExt)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "audio-bytes" {
		t.Fatalf("unexpected file contents: %q err=%v", data, err)
	}
}

func TestFetchFallsBackToURLExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := newTestClient().Fetch(context.Background(), server.URL+"/song.mp3", func(ext string) string {
		if ext != ".mp3" {
			t.Fatalf("extension = %q, want .mp3", ext)
		}
		return filepath.Join(dir, "1_key"+ext)
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchNoExtensionFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	_, err := newTestClient().Fetch(context.Background(), server.URL+"/download", func(ext string) string {
		t.Fatal("name must not be called without an extension")
		return ""
	})
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient().Fetch(context.Background(), server.URL+"/song.mp3", func(ext string) string {
		return filepath.Join(t.TempDir(), "x"+ext)
	})
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("col1,col2\n"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "input.csv")
	if err := newTestClient().SaveTo(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "col1,col2\n" {
		t.Fatalf("unexpected snapshot: %q err=%v", data, err)
	}
}
