package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const disclaimer = `skinscan reports cosmetic observations from photos. It is not a medical
device and does not diagnose skin conditions. See a dermatologist for
anything that worries you.`

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and the disclaimer",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "skinscan: face-scan skin analysis client")
			fmt.Fprintln(out)
			fmt.Fprintln(out, disclaimer)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
