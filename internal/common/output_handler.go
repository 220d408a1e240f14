package common

import (
	"fmt"
	"io"
	"os"

	"hybridhunter/internal/errors"
	"hybridhunter/internal/formatters"
)

// CommandConfig is where and how a command prints its result
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders a result through the formatter registry and sends it
// to a file or stdout.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
	stdout   io.Writer
}

func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		stdout:   os.Stdout,
	}
}

// HandleOutput checks the destination before formatting so a bad path fails
// without running the formatter
func (oh *OutputHandler) HandleOutput(data any, cmd CommandConfig) error {
	if err := oh.files.ValidateOutputFile(cmd.OutputFile); err != nil {
		return err
	}

	rendered, err := oh.registry.Format(data, cmd.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("cannot render %T as %s", data, cmd.OutputFormat), err)
	}

	if cmd.OutputFile == "" {
		_, err = io.WriteString(oh.stdout, rendered)
		return err
	}

	if err := oh.files.WriteFile(cmd.OutputFile, rendered); err != nil {
		return err
	}
	oh.logger.Info("Result saved", "file", cmd.OutputFile, "format", cmd.OutputFormat, "bytes", len(rendered))
	return nil
}
