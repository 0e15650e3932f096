package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"savile/internal/config"
	"savile/internal/imagefile"
	"savile/internal/logging"
	"savile/internal/prompt"
	"savile/internal/savile"
	"savile/internal/tui"
)

type workflow func(*savile.Engine, context.Context) ([]*imagefile.Image, error)

// session is what every command needs before it can touch images.
type session struct {
	log    *zap.Logger
	engine *savile.Engine
	out    io.Writer
}

func openSession(cmd *cobra.Command, dir string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	terminal := prompt.New()
	terminal.In = cmd.InOrStdin()
	terminal.Out = out

	opts := []savile.Option{
		savile.WithLogger(log),
		savile.WithConcurrency(cfg.Concurrency),
		savile.WithMinDuration(cfg.MinDuration),
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		opts = append(opts, savile.WithTracker(tui.ProgressTracker{Output: out}))
	}

	engine, err := savile.New(dir, terminal, opts...)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	if err := engine.Discover(cmd.Context()); err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &session{log: log, engine: engine, out: out}, nil
}

func runWorkflow(cmd *cobra.Command, dir string, run workflow) error {
	s, err := openSession(cmd, dir)
	if err != nil {
		return err
	}
	defer s.log.Sync() //nolint:errcheck

	if len(s.engine.Images()) == 0 {
		fmt.Fprintln(s.out, "No images to work with.")
		return nil
	}

	before := make(map[*imagefile.Image]imagefile.Stats, len(s.engine.Images()))
	for _, img := range s.engine.Images() {
		if stats, ok := img.Stats(); ok {
			before[img] = stats
		}
	}

	changed, err := run(s.engine, cmd.Context())
	if errors.Is(err, savile.ErrCancelled) {
		fmt.Fprintln(s.out, "Exiting Savile")
		return nil
	}

	if len(changed) > 0 {
		fmt.Fprintln(s.out, tui.RenderChanges(changeRows(s.engine.Root(), changed, before)))
	}
	if err != nil {
		return reportFailures(s.out, err)
	}
	fmt.Fprintf(s.out, "Done. %d image(s) updated.\n", len(changed))
	return nil
}

// reportFailures lists per-image batch failures and summarises them. Any
// other error is returned as is.
func reportFailures(out io.Writer, err error) error {
	failures := multierr.Errors(err)
	for _, failure := range failures {
		var imgErr *savile.ImageError
		if !errors.As(failure, &imgErr) {
			return err
		}
	}
	for _, failure := range failures {
		fmt.Fprintf(out, "  %s %v\n", failStyle.Render("✗"), failure)
	}
	return fmt.Errorf("%d image(s) failed", len(failures))
}

func changeRows(root string, changed []*imagefile.Image, before map[*imagefile.Image]imagefile.Stats) []tui.ChangeRow {
	rows := make([]tui.ChangeRow, 0, len(changed))
	for _, img := range changed {
		after, _ := img.Stats()
		prev := before[img]
		name := img.RelPath()
		if rel, err := filepath.Rel(root, img.Path()); err == nil {
			name = filepath.ToSlash(rel)
		}
		rows = append(rows, tui.ChangeRow{
			File:   name,
			Before: tui.Dimensions(prev.Width, prev.SizeKB),
			After:  tui.Dimensions(after.Width, after.SizeKB),
		})
	}
	return rows
}
