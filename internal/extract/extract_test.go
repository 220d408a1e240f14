package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a one-page PDF showing text in Helvetica
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func newExtractor(maxChars int, maxBytes int64) *Extractor {
	return New(config.ExtractConfig{MaxChars: maxChars, MaxBytes: maxBytes}, nil)
}

func TestTextFromPDF(t *testing.T) {
	data := buildPDF("Identity engineer with Okta")
	text, err := newExtractor(4000, 0).Text(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Contains(t, text, "Okta")
}

func TestTextRejectsNonPDF(t *testing.T) {
	data := []byte("just some words")
	_, err := newExtractor(4000, 0).Text(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestTextMalformedPDF(t *testing.T) {
	data := []byte("%PDF-1.4\nthis is not really a pdf")
	_, err := newExtractor(4000, 0).Text(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestSizeLimit(t *testing.T) {
	data := buildPDF("Hello")
	_, err := newExtractor(4000, 10).Text(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeFileTooLarge, appErr.Code)
}

func TestDocumentTextFileIsCapped(t *testing.T) {
	body := strings.Repeat("go ", 50)
	text, err := newExtractor(10, 0).Document("cv.md", strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.Equal(t, "go go go g", text)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Ten years\n\nof IAM  "), 0o600))

	e := newExtractor(4000, 0)
	text, err := e.File(path)
	require.NoError(t, err)
	assert.Equal(t, "Ten years of IAM", text)

	_, err = e.File(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)

	_, err = e.File(dir)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile("CV.TXT"))
	assert.True(t, IsTextFile("notes.md"))
	assert.False(t, IsTextFile("cv.pdf"))
	assert.False(t, IsTextFile("cv"))
}
