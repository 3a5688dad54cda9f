package util

import (
	"strings"
	"testing"
)

func TestToRunObjectKey(t *testing.T) {
	if got := ToRunObjectKey("run-1", "../../etc/summary.txt"); got != "runs/run-1/summary.txt" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestPrepareFileName(t *testing.T) {
	tests := []struct {
		name string
		fuo  *FileUploadOptions
		want string
	}{
		{"no options", nil, "summary.txt"},
		{"directory", &FileUploadOptions{DirectoryPath: "runs/1"}, "runs/1/summary.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prepareFileName("summary.txt", tt.fuo); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	got := prepareFileName("summary.txt", &FileUploadOptions{DirectoryPath: "runs/1", UniquePrefix: true})
	if !strings.HasPrefix(got, "runs/1/") || !strings.HasSuffix(got, "_summary.txt") {
		t.Errorf("expected unique prefixed name, got %q", got)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{"by extension", "a.pdf", nil, "application/pdf"},
		{"sniffed png", "blob", []byte("\x89PNG\r\n\x1a\n0000"), "image/png"},
		{"sniffed text", "blob", []byte("hello"), "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectContentType(tt.file, tt.data); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
