package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the savile command tree. Run without a subcommand it
// behaves like row.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "savile <images-dir>",
		Short: "savile ✂️ - batch resize, optimise and reformat images",
		Long: "savile ✂️ walks a directory of images, reports which ones look oversized, " +
			"and rewrites the ones you pick in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], rowWorkflow)
		},
	}
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.AddCommand(
		newRowCmd(),
		newResizeCmd(),
		newOptimiseCmd(),
		newReformatCmd(),
		newProgressiveCmd(),
		newScanCmd(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(version string) int {
	if err := fang.Execute(
		context.Background(),
		NewRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		return 1
	}
	return 0
}
