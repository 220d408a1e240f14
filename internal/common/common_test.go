package common

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	text string
	err  error
}

func (f fakeReader) File(string) (string, error) { return f.text, f.err }

func TestLoadResume(t *testing.T) {
	logger := errors.NewNopLogger()

	assert.Equal(t, "", LoadResume(fakeReader{text: "unused"}, "", logger))
	assert.Equal(t, "cv text", LoadResume(fakeReader{text: "cv text"}, "cv.pdf", logger))
	assert.Equal(t, "", LoadResume(fakeReader{err: fmt.Errorf("bad pdf")}, "cv.pdf", logger))
}

func TestHandleOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plan.txt")
	oh := NewOutputHandler(errors.NewNopLogger())

	err := oh.HandleOutput(types.SearchPlan{KeywordVariants: []string{"SRE"}}, CommandConfig{
		OutputFile:   path,
		OutputFormat: "text",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Keywords:       SRE")
}

func TestHandleOutputBadFormat(t *testing.T) {
	oh := NewOutputHandler(errors.NewNopLogger())
	err := oh.HandleOutput(types.SearchPlan{}, CommandConfig{OutputFormat: "xml"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestValidateOutputFileRejectsDirectory(t *testing.T) {
	fp := NewFileProcessor(errors.NewNopLogger())
	assert.Error(t, fp.ValidateOutputFile(t.TempDir()))
	assert.NoError(t, fp.ValidateOutputFile(""))
}

func TestRunCommand(t *testing.T) {
	var buf bytes.Buffer
	var doneCalled bool

	report := types.SearchReport{Status: types.StatusNoCandidates, Message: "No listings found"}
	cfg := CommandConfig{OutputFormat: "text"}

	oh := NewOutputHandler(errors.NewNopLogger())
	oh.stdout = &buf
	require.NoError(t, oh.HandleOutput(report, cfg))
	assert.True(t, strings.Contains(buf.String(), "No listings found"))

	err := RunCommand(context.Background(), errors.NewNopLogger(), CommandConfig{
		OutputFile:   filepath.Join(t.TempDir(), "out.json"),
		OutputFormat: "json",
	}, func(context.Context) (types.SearchReport, error) {
		return report, nil
	}, func(r types.SearchReport) error {
		doneCalled = true
		assert.Equal(t, types.StatusNoCandidates, r.Status)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, doneCalled)

	err = RunCommand(context.Background(), errors.NewNopLogger(), cfg,
		func(context.Context) (types.SearchReport, error) {
			return types.SearchReport{}, fmt.Errorf("plan failed")
		}, nil)
	assert.EqualError(t, err, "plan failed")
}
