package group

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/pipegraph/pkg/errors"
)

const (
	MinNameLength = 2
	MaxNameLength = 50
)

// Validation messages shown to users as-is.
const (
	msgNameTooShort = "Group name must be at least 2 characters"
	msgNameTooLong  = "Group name must be at most 50 characters"
	msgNameExists   = "Group name already exists"
)

// Palette holds the colors assigned to new groups, in order. Once every
// entry is taken, new groups get a random light HSL color.
var Palette = []string{
	"#FFE4E1", // misty rose
	"#E0F7FA", // light cyan
	"#E8F5E9", // honeydew
	"#FFF3E0", // light orange
	"#F3E5F5", // lavender
	"#E3F2FD", // light blue
	"#FFFDE7", // light yellow
	"#FCE4EC", // light pink
}

var (
	hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	hslColor = regexp.MustCompile(`^hsl\(\s*\d{1,3}(\.\d+)?\s*,\s*\d{1,3}(\.\d+)?%\s*,\s*\d{1,3}(\.\d+)?%\s*\)$`)
)

// validateName checks a trimmed name against length limits and against the
// names of groups other than excludeID, ignoring case.
func validateName(name, excludeID string, groups map[string]Group) errors.Validation {
	switch n := utf8.RuneCountInString(name); {
	case n < MinNameLength:
		return errors.Invalid(msgNameTooShort)
	case n > MaxNameLength:
		return errors.Invalid(msgNameTooLong)
	}
	for id, g := range groups {
		if id != excludeID && strings.EqualFold(g.Name, name) {
			return errors.Invalid(msgNameExists)
		}
	}
	return errors.Ok()
}

// ValidateColor accepts #rgb, #rrggbb and hsl(h, s%, l%).
func ValidateColor(color string) error {
	if hexColor.MatchString(color) || hslColor.MatchString(color) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidColor, "invalid color %q (use #rrggbb or hsl(h, s%%, l%%))", color)
}

// nextColor returns the first palette entry no group uses, or a random light
// HSL color once the palette is exhausted.
func nextColor(groups map[string]Group, rng *rand.Rand) string {
	used := make(map[string]bool, len(groups))
	for _, g := range groups {
		used[strings.ToUpper(g.Color)] = true
	}
	for _, c := range Palette {
		if !used[strings.ToUpper(c)] {
			return c
		}
	}
	return fmt.Sprintf("hsl(%d, 70%%, 95%%)", rng.IntN(360))
}
