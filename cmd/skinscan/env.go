package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/auth"
)

var (
	saveKey   = auth.SaveKey
	deleteKey = auth.DeleteKey
)

type envOptions struct {
	service string
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage backend and Gemini keys in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.service, "service", "", "Service to manage (backend or gemini; default all for status)")

	cmd.AddCommand(
		newEnvSetupCmd(&opts),
		newEnvDeleteCmd(&opts),
		newEnvStatusCmd(&opts),
	)
	return cmd
}

func newEnvSetupCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save a key to the keychain (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvSetup(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvDeleteCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a key from the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvDelete(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvStatusCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

// selectedServices returns the --service value, or every service when
// allowAll is set and the flag is empty.
func selectedServices(name string, allowAll bool) ([]auth.Service, error) {
	if strings.TrimSpace(name) == "" {
		if allowAll {
			return auth.Services, nil
		}
		return nil, fmt.Errorf("--service is required (backend or gemini)")
	}
	svc, err := auth.ParseService(name)
	if err != nil {
		return nil, err
	}
	return []auth.Service{svc}, nil
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	svcs, err := selectedServices(opts.service, false)
	if err != nil {
		return err
	}
	svc := svcs[0]
	key, err := promptForKey(fmt.Sprintf("%s key: ", displayName(svc)))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("a key is required for setup")
	}
	if err := saveKey(svc, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s key to keychain.\n", svc)
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	svcs, err := selectedServices(opts.service, false)
	if err != nil {
		return err
	}
	if err := deleteKey(svcs[0]); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s key from keychain.\n", svcs[0])
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	svcs, err := selectedServices(opts.service, true)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, svc := range svcs {
		switch {
		case getStatus(svc):
			fmt.Fprintf(out, "%s key: Found (source=Keychain)\n", svc)
		case envKeyPresent(svc):
			fmt.Fprintf(out, "%s key: Found (source=Environment Variable %s; disabled by default, use --allow-env)\n", svc, svc.EnvVar())
		default:
			fmt.Fprintf(out, "%s key: Not Found (keychain empty, %s not set)\n", svc, svc.EnvVar())
		}
	}
	return nil
}

func envKeyPresent(svc auth.Service) bool {
	key, ok := getEnvKey(svc)
	return ok && key != ""
}
