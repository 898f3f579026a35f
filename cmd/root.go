package cmd

import (
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericiooptions"
)

func NewRootCmd(streams genericiooptions.IOStreams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "peaceform",
		Short:         "Declarative, idempotent orchestration of Kubernetes resources and managed files.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})
	rootCmd.AddCommand(NewEnsureCmd(streams))
	rootCmd.AddCommand(NewCleanCmd(streams))
	rootCmd.AddCommand(NewStatusCmd(streams))
	rootCmd.AddCommand(NewDiffCmd(streams))
	rootCmd.AddCommand(NewExampleCmd(streams))
	return rootCmd
}
