package cli

import (
	"context"
	"strings"

	"hybridhunter/internal/common"
	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/pipeline"
	"hybridhunter/internal/ranking"
	"hybridhunter/internal/types"

	"github.com/spf13/cobra"
)

// searchFlags holds the flags shared by search and plan
type searchFlags struct {
	common.CommandConfig
	Intent     string
	ResumeFile string
	Email      string
	MinScore   int
	MaxResults int
	Inclusive  bool
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Plan, search, score and rank job listings",
	Long: `Run a full search: the intent (and resume, if given) is turned into a
search plan, every enabled source is queried, listings are deduplicated by
URL, scored against your profile and the best matches are reported.

With --email the matches are also sent as an HTML table with a Jobs.xlsx
attachment. A failed delivery still prints the results.`,
	Args:    cobra.NoArgs,
	PreRunE: prepareOutput(&searchOpts),
	RunE:    runSearch,
}

func init() {
	addIntentFlags(searchCmd, &searchOpts)
	searchCmd.Flags().StringVar(&searchOpts.Email, "email", "", "Send the matches to this address")
	searchCmd.Flags().IntVar(&searchOpts.MinScore, "min-score", 0, "Minimum match score, 0-100 (default from config)")
	searchCmd.Flags().IntVar(&searchOpts.MaxResults, "max-results", 0, "Maximum number of matches to report (default from config)")
	searchCmd.Flags().BoolVar(&searchOpts.Inclusive, "inclusive", false, "Keep listings scoring exactly the minimum")
}

// addIntentFlags registers the input and output flags both commands take
func addIntentFlags(cmd *cobra.Command, opts *searchFlags) {
	cmd.Flags().StringVarP(&opts.Intent, "intent", "i", "", "Free-text description of the job you want (required)")
	cmd.Flags().StringVarP(&opts.ResumeFile, "resume", "r", "", "Resume file, PDF or plain text")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = cmd.MarkFlagRequired("intent")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// prepareOutput applies the default format and rejects blank intents
func prepareOutput(opts *searchFlags) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if strings.TrimSpace(opts.Intent) == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest, "--intent must not be empty", nil)
		}
		if opts.OutputFormat == "" {
			opts.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(opts.OutputFormat, cfg.App.SupportedFormats)
	}
}

// criteriaFromFlags overrides the configured selection with the flags the
// user actually set
func criteriaFromFlags(cmd *cobra.Command, cfg *config.Config, opts searchFlags) *ranking.Criteria {
	flags := cmd.Flags()
	if !flags.Changed("min-score") && !flags.Changed("max-results") && !flags.Changed("inclusive") {
		return nil
	}
	c := ranking.CriteriaFromConfig(cfg)
	if flags.Changed("min-score") {
		c.MinScore = opts.MinScore
	}
	if flags.Changed("max-results") {
		c.MaxCount = opts.MaxResults
	}
	if flags.Changed("inclusive") {
		c.Inclusive = opts.Inclusive
	}
	return &c
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	destination := strings.TrimSpace(searchOpts.Email)
	if err := common.ValidateDestination(destination); err != nil {
		return err
	}
	criteria := criteriaFromFlags(cmd, cfg, searchOpts)
	if err := common.ValidateCriteria(criteria); err != nil {
		return err
	}

	om, shutdown, err := startObservability(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	components, err := pipeline.Build(cfg, logger, om.Metrics())
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	req := pipeline.Request{
		Intent:      searchOpts.Intent,
		ResumeText:  common.LoadResume(components.Extractor, searchOpts.ResumeFile, logger),
		Destination: destination,
		Criteria:    criteria,
	}

	logger.Info("Starting search",
		"intent_chars", len(req.Intent),
		"resume_chars", len(req.ResumeText),
		"delivery", req.Destination != "",
		"output_format", searchOpts.OutputFormat)

	operation := func(ctx context.Context) (types.SearchReport, error) {
		return components.Runner.Run(ctx, req), nil
	}

	return common.RunCommand(cmd.Context(), logger, searchOpts.CommandConfig, operation, searchExit)
}

// searchExit fails the command only when no plan could be made
func searchExit(report types.SearchReport) error {
	if report.Status != types.StatusPlanningFailed {
		return nil
	}
	if report.Err != nil {
		return report.Err
	}
	return errors.NewPlanningError(errors.ErrCodePlanFailed, report.Message, nil)
}
