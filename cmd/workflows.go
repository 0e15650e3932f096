package cmd

import (
	"github.com/spf13/cobra"

	"savile/internal/savile"
)

var (
	rowWorkflow         = (*savile.Engine).Row
	resizeWorkflow      = (*savile.Engine).Resize
	optimiseWorkflow    = (*savile.Engine).Optimise
	reformatWorkflow    = (*savile.Engine).Reformat
	progressiveWorkflow = (*savile.Engine).Progressivise
)

func newRowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "row <images-dir>",
		Short: "Report image sizes, then choose what to do with them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], rowWorkflow)
		},
	}
}

func newResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <images-dir>",
		Short: "Downscale images above a max width, or a queried set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], resizeWorkflow)
		},
	}
}

func newOptimiseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "optimise <images-dir>",
		Aliases: []string{"optimize"},
		Short:   "Re-encode queried images at a chosen quality",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], optimiseWorkflow)
		},
	}
}

func newReformatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reformat <images-dir>",
		Short: "Convert queried images to JPEG, PNG, WebP or AVIF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], reformatWorkflow)
		},
	}
}

func newProgressiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progressive <images-dir>",
		Short: "Convert JPEGs to progressive scans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], progressiveWorkflow)
		},
	}
}
