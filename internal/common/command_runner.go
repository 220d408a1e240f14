package common

import (
	"context"

	"hybridhunter/internal/errors"
)

// ResumeReader extracts resume text from a document path
type ResumeReader interface {
	File(path string) (string, error)
}

// LoadResume returns the text of the resume at path. A missing path gives
// empty text. A failed extraction is logged and also gives empty text, so
// a search can still run on intent alone.
func LoadResume(reader ResumeReader, path string, logger *errors.Logger) string {
	if path == "" {
		return ""
	}
	text, err := reader.File(path)
	if err != nil {
		logger.LogError(err, "Could not read resume, continuing without it", "file", path)
		return ""
	}
	logger.Debug("Resume loaded", "file", path, "chars", len([]rune(text)))
	return text
}

// OperationFunc is one command's unit of work
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs operation and writes its result with the configured
// format. The result is written even when done reports an error, so the
// user sees partial results.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	operation OperationFunc[Output],
	done func(Output) error,
) error {
	outputHandler := NewOutputHandler(logger)

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	if err := outputHandler.HandleOutput(result, cmdConfig); err != nil {
		return err
	}

	if done != nil {
		return done(result)
	}
	return nil
}
