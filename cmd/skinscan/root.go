package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/cleanup"
	"github.com/oukeidos/skinscan/internal/version"
)

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "skinscan",
		Short: "Face-scan skin analysis client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(subcommandUsageTemplate)

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default ./skinscan.yaml or ~/.skinscan/skinscan.yaml)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&g.logFile, "log-file", "", "Path to save machine-readable JSONL logs (overrides config)")
	pf.BoolVar(&g.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newAboutCmd(),
		newSubmitCmd(g),
		newOnboardCmd(g),
		newSessionsCmd(g),
		newEnvCmd(),
		newServeMockCmd(g),
		newConfigCmd(g),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}

	return cmd
}
