package cli

import (
	"context"

	"hybridhunter/internal/ai"
	"hybridhunter/internal/common"
	"hybridhunter/internal/extract"
	"hybridhunter/internal/planner"
	"hybridhunter/internal/types"

	"github.com/spf13/cobra"
)

var planOpts searchFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the search plan for an intent without searching",
	Long: `Run only the planning step and print the keywords, locations and
remote preference a search would use. No listing source is queried.`,
	Args:    cobra.NoArgs,
	PreRunE: prepareOutput(&planOpts),
	RunE:    runPlan,
}

func init() {
	addIntentFlags(planCmd, &planOpts)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	plannerCfg := cfg.GetPlannerConfig()
	service, err := ai.NewService(&plannerCfg, "planner", logger)
	if err != nil {
		return err
	}
	defer func() { _ = service.Provider.Close() }()

	p := planner.New(service.Provider, cfg, logger)
	resume := common.LoadResume(extract.New(cfg.Extract, logger), planOpts.ResumeFile, logger)

	operation := func(ctx context.Context) (types.SearchPlan, error) {
		return p.Plan(ctx, planOpts.Intent, resume)
	}
	return common.RunCommand(cmd.Context(), logger, planOpts.CommandConfig, operation, nil)
}
