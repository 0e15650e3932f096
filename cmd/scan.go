package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"savile/internal/codec"
	"savile/internal/tui"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <images-dir>",
		Short: "Report image sizes, widths and metadata without modifying files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.log.Sync() //nolint:errcheck

			s.engine.ReportSizes()
			s.engine.ReportWidths()

			for i, img := range s.engine.Images() {
				if i > 0 {
					fmt.Fprintln(s.out)
				}
				stats, _ := img.Stats()
				fmt.Fprintf(s.out, "%s %s\n",
					scanFileStyle.Render(filepath.ToSlash(img.RelPath())),
					scanDimStyle.Render(tui.Dimensions(stats.Width, stats.SizeKB)),
				)
				if img.Format() == codec.JPEG {
					fmt.Fprintf(s.out, "  %s %s\n", scanCategoryStyle.Render("Progressive:"), scanValueStyle.Render(yesNo(stats.Progressive)))
				}
				if len(stats.Metadata) == 0 {
					continue
				}
				fmt.Fprintf(s.out, "  %s\n", scanCategoryStyle.Render("Metadata:"))
				for _, category := range stats.Metadata {
					fmt.Fprintf(s.out, "    %s %s\n", scanBulletStyle.Render("-"), scanValueStyle.Render(category))
				}
			}
			for _, skipped := range s.engine.Skipped() {
				fmt.Fprintf(s.out, "  %s %v\n", failStyle.Render("✗"), skipped)
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var (
	scanFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	scanValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	scanDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
	failStyle         = lipgloss.NewStyle().Foreground(tui.ColorDanger)
)
