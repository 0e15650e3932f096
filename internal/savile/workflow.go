package savile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"savile/internal/codec"
	"savile/internal/imagefile"
	"savile/internal/match"
)

const queryExamples = `By filename:
- myPhoto.jpg
- folder/graphic-sm.jpg

With a wildcard:
- *.jpg
- folder/*
- graphic-*.jpg

With brace options:
- *.{jpg,png}`

// Row asks which workflow to run and runs it.
func (e *Engine) Row(ctx context.Context) ([]*imagefile.Image, error) {
	e.ReportSizes()

	choice, err := e.prompt.Select(ctx, "What would you like to do?", []Choice{
		{Value: "resize", Label: "Resize some images"},
		{Value: "optimise", Label: "Optimise some images"},
		{Value: "reformat", Label: "Reformat some images"},
		{Value: "progressive", Label: "Convert JPEGs to progressive images"},
	})
	if err != nil {
		return nil, err
	}

	switch choice {
	case "resize":
		return e.Resize(ctx)
	case "optimise":
		return e.Optimise(ctx)
	case "reformat":
		return e.Reformat(ctx)
	case "progressive":
		return e.Progressivise(ctx)
	default:
		return nil, fmt.Errorf("unknown choice %q", choice)
	}
}

// Resize selects images by max width or by query and downscales them.
func (e *Engine) Resize(ctx context.Context) ([]*imagefile.Image, error) {
	e.ReportWidths()

	mode, err := e.prompt.Select(ctx, "How do you want to resize your images?", []Choice{
		{Value: "max", Label: "Set a max width for all images and resize any above that max"},
		{Value: "query", Label: "Query for specific images and resize them"},
	})
	if err != nil {
		return nil, err
	}

	switch mode {
	case "max":
		return e.resizeByMaxWidth(ctx)
	case "query":
		return e.resizeByQuery(ctx)
	default:
		return nil, fmt.Errorf("unknown resize mode %q", mode)
	}
}

func (e *Engine) resizeByMaxWidth(ctx context.Context) ([]*imagefile.Image, error) {
	value, err := e.prompt.Text(ctx, TextPrompt{
		Message:     "What's the max pixel width you want to resize your images to?",
		Placeholder: "1200",
		Validate: func(v string) error {
			width, err := parseWidth(v)
			if err != nil {
				return err
			}
			if len(e.MatchWidth(width)) == 0 {
				return invalid("Found no images bigger than %dpx. Try a different width?", width)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	width, _ := parseWidth(value)
	selected := e.MatchWidth(width)
	e.prompt.Note(fmt.Sprintf("Images > %dpx", width), listWidths(selected))

	if err := e.confirm(ctx, fmt.Sprintf("Found %d images. Resize them now?", len(selected))); err != nil {
		return nil, err
	}
	return e.ResizeImages(ctx, selected, width)
}

func (e *Engine) resizeByQuery(ctx context.Context) ([]*imagefile.Image, error) {
	selected, err := e.queryImages(ctx)
	if err != nil {
		return nil, err
	}
	e.prompt.Note(fmt.Sprintf("Found %d images", len(selected)), listWidths(selected))

	value, err := e.prompt.Text(ctx, TextPrompt{
		Message:     "What's the max pixel width you want to resize your images to?",
		Placeholder: "1200",
		Validate: func(v string) error {
			_, err := parseWidth(v)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	width, _ := parseWidth(value)

	msg := fmt.Sprintf("OK, we'll resize these %d images to %dpx width. Proceed?", len(selected), width)
	if err := e.confirm(ctx, msg); err != nil {
		return nil, err
	}
	return e.ResizeImages(ctx, selected, width)
}

// Optimise selects images by query and re-encodes them at a quality.
func (e *Engine) Optimise(ctx context.Context) ([]*imagefile.Image, error) {
	selected, err := e.queryImages(ctx)
	if err != nil {
		return nil, err
	}
	e.prompt.Note(fmt.Sprintf("Found %d images", len(selected)), listSizes(selected))

	value, err := e.prompt.Text(ctx, TextPrompt{
		Message:     "What quality level should we optimise your images to, (lowest) 0 - 100 (highest)?",
		Placeholder: "85",
		Validate: func(v string) error {
			_, err := parseQuality(v)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	quality, _ := parseQuality(value)

	msg := fmt.Sprintf("OK, we'll optimise these %d images to %d%% quality. Proceed?", len(selected), quality)
	if err := e.confirm(ctx, msg); err != nil {
		return nil, err
	}
	return e.OptimiseImages(ctx, selected, quality)
}

// Reformat selects images by query and converts them to another format.
func (e *Engine) Reformat(ctx context.Context) ([]*imagefile.Image, error) {
	selected, err := e.queryImages(ctx)
	if err != nil {
		return nil, err
	}
	e.prompt.Note(fmt.Sprintf("Found %d images", len(selected)), listImages(selected, nil))

	value, err := e.prompt.Select(ctx, "What format do you want to convert these images to?", []Choice{
		{Value: string(codec.JPEG), Label: "JPEG"},
		{Value: string(codec.PNG), Label: "PNG"},
		{Value: string(codec.WebP), Label: "WebP"},
		{Value: string(codec.AVIF), Label: "AVIF"},
	})
	if err != nil {
		return nil, err
	}
	format := codec.FormatFromExt(value)
	if format == codec.Unknown {
		return nil, fmt.Errorf("unknown format %q", value)
	}

	msg := fmt.Sprintf("OK, we'll reformat these %d images to .%s images. Proceed?", len(selected), format)
	if err := e.confirm(ctx, msg); err != nil {
		return nil, err
	}
	return e.ReformatImages(ctx, selected, format)
}

// Progressivise converts all JPEGs, or a queried subset, to progressive
// scans.
func (e *Engine) Progressivise(ctx context.Context) ([]*imagefile.Image, error) {
	mode, err := e.prompt.Select(ctx, "How do you want to select which JPEGs to make progressive", []Choice{
		{Value: "all", Label: "Make all my JPEGs progressive"},
		{Value: "query", Label: "Query for specific JPEGs"},
	})
	if err != nil {
		return nil, err
	}

	var selected []*imagefile.Image
	switch mode {
	case "all":
		selected = e.JPEGs()
		if len(selected) == 0 {
			e.prompt.Info("No JPEG images found.")
			return nil, nil
		}
	case "query":
		for {
			queried, err := e.queryImages(ctx)
			if err != nil {
				return nil, err
			}
			if selected = jpegsOf(queried); len(selected) > 0 {
				break
			}
			e.prompt.Info("No JPEGs found with your query. Try again?")
		}
	default:
		return nil, fmt.Errorf("unknown progressive mode %q", mode)
	}

	e.prompt.Note("JPEG images", listSizes(selected))
	if err := e.confirm(ctx, fmt.Sprintf("Found %d JPEG images. Make them progressive now?", len(selected))); err != nil {
		return nil, err
	}
	return e.ProgressiviseImages(ctx, selected)
}

// queryImages asks for a query until it matches at least one image.
func (e *Engine) queryImages(ctx context.Context) ([]*imagefile.Image, error) {
	e.prompt.Note("Query examples", queryExamples)
	query, err := e.prompt.Text(ctx, TextPrompt{
		Message:     "Write a query to match the images you want to work with.",
		Placeholder: "*.jpg",
		Validate: func(v string) error {
			if strings.TrimSpace(v) == "" {
				return invalid("A query is required")
			}
			if !match.Valid(v) {
				return invalid("That query isn't a valid pattern. Check its braces and brackets?")
			}
			if len(e.MatchQuery(v)) == 0 {
				return invalid("Your query didn't match any images. Try another?")
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return e.MatchQuery(query), nil
}

// confirm turns a declined confirmation into ErrCancelled.
func (e *Engine) confirm(ctx context.Context, msg string) error {
	ok, err := e.prompt.Confirm(ctx, msg)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

func parseWidth(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, invalid("A value is required")
	}
	width, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid("Value must be a number")
	}
	if width <= 0 {
		return 0, invalid("Width must be greater than 0")
	}
	return width, nil
}

func parseQuality(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, invalid("A value is required")
	}
	quality, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid("Value must be a number")
	}
	if quality <= 0 || quality > 100 {
		return 0, invalid("Quality must be a number between 0 - 100")
	}
	return quality, nil
}
