// Package extract pulls plain text out of uploaded resumes.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// textExtensions are read as-is instead of parsed as PDF
var textExtensions = []string{".txt", ".md", ".markdown", ".text"}

// Extractor reads resume documents with size and length limits
type Extractor struct {
	maxChars int
	maxBytes int64
	logger   *errors.Logger
}

// New creates an extractor from the extract settings
func New(cfg config.ExtractConfig, logger *errors.Logger) *Extractor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Extractor{maxChars: cfg.MaxChars, maxBytes: cfg.MaxBytes, logger: logger}
}

// IsTextFile reports whether name has a plain text extension
func IsTextFile(name string) bool {
	return slices.Contains(textExtensions, strings.ToLower(filepath.Ext(name)))
}

// Text extracts the text of a PDF document of the given size
func (e *Extractor) Text(r io.ReaderAt, size int64) (string, error) {
	if err := e.checkSize(size); err != nil {
		return "", err
	}

	head := make([]byte, len(pdfMagic))
	if _, err := r.ReadAt(head, 0); err != nil || !bytes.Equal(head, pdfMagic) {
		return "", errors.NewIOError(errors.ErrCodeInvalidFormat, "document is not a PDF", err)
	}

	text, err := readPDF(r, size)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to extract PDF text", err)
	}
	return e.finish(text), nil
}

// Document extracts text from an upload named name, choosing the reader
// by extension
func (e *Extractor) Document(name string, r io.ReaderAt, size int64) (string, error) {
	if !IsTextFile(name) {
		return e.Text(r, size)
	}
	if err := e.checkSize(size); err != nil {
		return "", err
	}
	content, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read document: %s", name), err)
	}
	return e.finish(string(content)), nil
}

// File extracts text from the document at path
func (e *Extractor) File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", path), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			e.logger.Warn("Failed to close file", "filename", path, "error", err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot stat file: %s", path), err)
	}
	if info.IsDir() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	return e.Document(path, file, info.Size())
}

func (e *Extractor) checkSize(size int64) error {
	if e.maxBytes > 0 && size > e.maxBytes {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("document is %d bytes, limit is %d", size, e.maxBytes), nil)
	}
	return nil
}

// finish collapses whitespace and caps the text at maxChars runes
func (e *Extractor) finish(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if e.maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= e.maxChars {
		return text
	}
	return string(runes[:e.maxChars])
}

// readPDF returns the plain text of every page. The parser panics on some
// malformed files, so panics are turned into errors.
func readPDF(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
