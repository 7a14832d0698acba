package extract

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"golang.org/x/net/html/charset"
)

func extractPDF(path string) (Result, error) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening pdf file", "path", path, "error", err)
		return Result{}, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}

	var pages []Page
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// a single broken page does not fail the document
			logger.Warn("skipping unreadable pdf page", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Content: content})
	}
	return Result{Pages: pages, Encoding: "utf-8"}, nil
}

// File reads a .odt, .docx or .rtf container and returns the content as a
// single page; the container format carries no page boundaries we can trust.
func extractOffice(path string) (Result, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("failed extracting office document", "path", path, "error", err)
		return Result{}, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Result{Encoding: "utf-8"}, nil
	}
	return Result{
		Pages:    []Page{{Number: 1, Content: text}},
		Encoding: "utf-8",
	}, nil
}

func extractPlainText(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}
	if len(raw) == 0 {
		return Result{Encoding: "utf-8"}, nil
	}

	text, encName, err := decodeBestEffort(raw)
	if err != nil {
		return Result{}, &CorruptDocumentError{Filename: filepath.Base(path), Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Result{Encoding: encName}, nil
	}
	return Result{
		Pages:    []Page{{Number: 1, Content: text}},
		Encoding: encName,
	}, nil
}

// decodeBestEffort sniffs the encoding and converts the payload to UTF-8.
// The detected name is recorded on the Document by the ingestion pipeline.
func decodeBestEffort(raw []byte) (string, string, error) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})), "utf-8", nil
	}

	_, encName, _ := charset.DetermineEncoding(raw, "text/plain")
	r, err := charset.NewReader(bytes.NewReader(raw), "text/plain")
	if err != nil {
		return "", encName, err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", encName, err
	}
	if !utf8.Valid(decoded) {
		return "", encName, errors.New("undecodable text payload")
	}
	return string(decoded), encName, nil
}

// protectExtract guards against the pdf library hanging or panicking on
// malformed page streams.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", errors.New("panic during pdf page extraction")}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("timeout extracting pdf page")
	}
}
