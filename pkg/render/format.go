package render

import (
	"slices"
	"strings"

	"github.com/matzehuels/pipegraph/pkg/errors"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatDOT, FormatPDF, FormatPNG}

// ParseFormat normalizes a format name. An empty name selects SVG.
func ParseFormat(name string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(name))
	if f == "" {
		return FormatSVG, nil
	}
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q (must be one of: svg, dot, pdf, png)", name)
	}
	return f, nil
}
