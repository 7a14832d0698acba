package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		path string
		want commonModels.DocType
	}{
		{"report.pdf", commonModels.PDF},
		{"REPORT.PDF", commonModels.PDF},
		{"notes.docx", commonModels.DOCX},
		{"notes.odt", commonModels.DOCX},
		{"notes.rtf", commonModels.DOCX},
		{"readme.txt", commonModels.TXT},
		{"readme.md", commonModels.MD},
		{"readme.markdown", commonModels.MD},
		{"archive.zip", commonModels.ERR},
		{"no-extension", commonModels.ERR},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectType(tt.path); got != tt.want {
				t.Errorf("DetectType(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtract_PlainText(t *testing.T) {
	t.Run("utf-8", func(t *testing.T) {
		path := writeFile(t, "doc.txt", []byte("hello world\nsecond line"))
		result, err := Extract(path, commonModels.TXT)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(result.Pages) != 1 {
			t.Fatalf("Expected 1 page, got %d", len(result.Pages))
		}
		if result.Pages[0].Content != "hello world\nsecond line" {
			t.Errorf("Content = %q", result.Pages[0].Content)
		}
		if result.Encoding != "utf-8" {
			t.Errorf("Encoding = %q, want utf-8", result.Encoding)
		}
	})

	t.Run("bom stripped", func(t *testing.T) {
		path := writeFile(t, "doc.txt", append([]byte{0xEF, 0xBB, 0xBF}, []byte("content")...))
		result, err := Extract(path, commonModels.TXT)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if result.Pages[0].Content != "content" {
			t.Errorf("BOM not stripped: %q", result.Pages[0].Content)
		}
	})

	t.Run("non-utf8 payload decoded", func(t *testing.T) {
		// "café" in latin-1
		path := writeFile(t, "doc.txt", []byte{'c', 'a', 'f', 0xE9})
		result, err := Extract(path, commonModels.TXT)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(result.Pages) != 1 {
			t.Fatalf("Expected 1 page, got %d", len(result.Pages))
		}
		if result.Pages[0].Content != "café" {
			t.Errorf("Content = %q, want café", result.Pages[0].Content)
		}
		if result.Encoding == "utf-8" {
			t.Errorf("Encoding should reflect the detected charset, got %q", result.Encoding)
		}
	})

	t.Run("empty file yields zero pages", func(t *testing.T) {
		path := writeFile(t, "doc.txt", nil)
		result, err := Extract(path, commonModels.TXT)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(result.Pages) != 0 {
			t.Errorf("Expected no pages, got %d", len(result.Pages))
		}
	})

	t.Run("whitespace only yields zero pages", func(t *testing.T) {
		path := writeFile(t, "doc.txt", []byte("  \n\t \n"))
		result, err := Extract(path, commonModels.TXT)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(result.Pages) != 0 {
			t.Errorf("Expected no pages, got %d", len(result.Pages))
		}
	})

	t.Run("markdown goes through the text path", func(t *testing.T) {
		path := writeFile(t, "doc.md", []byte("# Title\n\nBody text."))
		result, err := Extract(path, commonModels.MD)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(result.Pages) != 1 {
			t.Errorf("Expected 1 page, got %d", len(result.Pages))
		}
	})
}

func TestExtract_Errors(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		_, err := Extract("whatever.zip", commonModels.ERR)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Extract = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Extract(filepath.Join(t.TempDir(), "nope.txt"), commonModels.TXT)
		var corrupt *CorruptDocumentError
		if !errors.As(err, &corrupt) {
			t.Errorf("Extract = %v, want CorruptDocumentError", err)
		}
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		path := writeFile(t, "doc.pdf", []byte("this is not a pdf"))
		_, err := Extract(path, commonModels.PDF)
		var corrupt *CorruptDocumentError
		if !errors.As(err, &corrupt) {
			t.Errorf("Extract = %v, want CorruptDocumentError", err)
		}
	})
}
