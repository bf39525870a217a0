package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/pipegraph/pkg/errors"
)

// converter is the librsvg command used for raster and PDF output.
const converter = "rsvg-convert"

// FromSVG converts an SVG document to pdf or png. PNG output is rendered at
// scale times the SVG size; a non-positive scale means 1. The conversion is
// killed when ctx is cancelled.
func FromSVG(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error) {
	var args []string
	switch format {
	case FormatPDF:
		args = []string{"-f", "pdf"}
	case FormatPNG:
		if scale <= 0 {
			scale = 1
		}
		args = []string{"-f", "png", "-z", fmt.Sprintf("%.2f", scale)}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "cannot convert svg to %q", format)
	}

	if _, err := exec.LookPath(converter); err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s output requires librsvg (brew install librsvg, apt install librsvg2-bin)", format)
	}

	cmd := exec.CommandContext(ctx, converter, args...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", converter, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
