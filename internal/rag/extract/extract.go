package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

// Extraction is read-only over its input file: no shared state is touched, so
// a failed ingestion can re-run it safely.

var logger = logger_i.NewLogger("Extract")

var ErrUnsupportedFormat = errors.New("unsupported document format")

// CorruptDocumentError reports a document whose container or encoding could
// not be parsed after best-effort detection.
type CorruptDocumentError struct {
	Filename string
	Err      error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt document %s: %v", e.Filename, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Err }

type Page struct {
	Number  int
	Content string
}

type Result struct {
	Pages    []Page
	Encoding string
}

// DetectType maps a filename extension to the declared document format.
func DetectType(path string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	case ".md", ".markdown":
		return commonModels.MD
	default:
		return commonModels.ERR
	}
}

// Extract converts the file at path into a linear text stream with page
// boundaries. Empty documents yield zero pages, not an error.
func Extract(path string, contentType commonModels.DocType) (Result, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractOffice(path)
	case commonModels.TXT, commonModels.MD:
		return extractPlainText(path)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
}
