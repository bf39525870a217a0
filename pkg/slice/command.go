package slice

import (
	"fmt"
	"slices"
	"strings"
)

// Command renders opts as the command line of the pipeline runner, for
// example:
//
//	pipeline run --from-nodes=a,b --depth=2 --tags=pii --node-types=model_train
//
// Selection keeps the caller's order; tags and types are sorted. Group
// filters have no runner equivalent and are left out.
func Command(opts Options) string {
	parts := []string{"pipeline", "run"}

	if sel := dedupe(opts.Selection); len(sel) > 0 {
		mode, err := ParseMode(string(opts.Mode))
		if err != nil {
			mode = DefaultMode
		}
		switch mode {
		case ModeFrom:
			parts = append(parts, flag("from-nodes", sel))
		case ModeTo:
			parts = append(parts, flag("to-nodes", sel))
		case ModeAround:
			parts = append(parts, flag("around-nodes", sel))
		case ModeBetween:
			parts = append(parts, flag("from-nodes", sel[:1]))
			if len(sel) > 1 {
				parts = append(parts, flag("to-nodes", sel[1:]))
			}
		}
		if opts.Depth > 0 {
			parts = append(parts, fmt.Sprintf("--depth=%d", opts.Depth))
		}
	}

	if tags := dedupe(opts.Tags); len(tags) > 0 {
		slices.Sort(tags)
		parts = append(parts, flag("tags", tags))
	}
	if types := dedupe(opts.Types); len(types) > 0 {
		slices.Sort(types)
		parts = append(parts, flag("node-types", types))
	}
	return strings.Join(parts, " ")
}

func flag(name string, values []string) string {
	return "--" + name + "=" + strings.Join(values, ",")
}

func dedupe(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
