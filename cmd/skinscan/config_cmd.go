package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/config"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := config.FileName + ".yaml"
			if len(args) == 1 {
				p = args[0]
			}
			if filepath.Ext(p) == "" {
				return fmt.Errorf("config path needs an extension (.yaml, .json or .toml): %s", p)
			}
			if err := config.WriteSample(p, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", p)
			return nil
		},
		SilenceUsage: true,
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			t := cfg.Timing()
			fmt.Fprintf(cmd.OutOrStdout(),
				"backend.url:       %s\nbackend.bucket:    %s\nbackend.function:  %s\nanalyzer:          %s\ngemini.model:      %s\nprogress:          steps %s-%s, creep %s, complete %s, frame %s\nstate_dir:         %s\nlog_level:         %s\n",
				cfg.Backend.URL, cfg.Backend.Bucket, cfg.Backend.Function, cfg.Analyzer, cfg.Gemini.Model,
				t.MinStep, t.MaxStep, t.CreepStep, t.CompleteDuration, t.FrameInterval,
				cfg.StateDir, cfg.LogLevel)
			return nil
		},
		SilenceUsage: true,
	}

	for _, sub := range []*cobra.Command{initCmd, showCmd} {
		sub.SetUsageTemplate(subcommandUsageTemplate)
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
