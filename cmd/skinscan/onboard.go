package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/config"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/questionnaire"
)

func newOnboardCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Answer the skin questionnaire before the first scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			flow, err := questionnaire.NewFlow(questionnaire.DefaultQuestions())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := questionnaire.RunConsole(flow, cmd.InOrStdin(), out); err != nil {
				if errors.Is(err, questionnaire.ErrAborted) {
					logger.Warn("Questionnaire aborted", "questionnaire_id", flow.ID())
				}
				return err
			}
			res, err := flow.Result()
			if err != nil {
				return err
			}
			dir, err := questionnaireDir(cfg)
			if err != nil {
				return err
			}
			p, err := questionnaire.Save(dir, res)
			if err != nil {
				return err
			}
			logger.Info("Questionnaire saved", "questionnaire_id", res.QuestionnaireID, "path", p)
			fmt.Fprintf(out, "\nSaved. Start your scan with:\n  skinscan submit --session %s --front <photo>\n", res.QuestionnaireID)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

// questionnaireDir sits next to the recovery directory.
func questionnaireDir(cfg *config.Config) (string, error) {
	dir, err := stateDir(cfg)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(filepath.Clean(dir)), "questionnaires"), nil
}
