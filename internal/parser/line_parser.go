package parser

import (
	"regexp"
	"strings"
)

// ParsedLine represents a line description parsed from natural syntax
type ParsedLine struct {
	Desc    string
	Tracker string // tracker label picked with @label, empty if none
	Errors  []string
}

var trackerRegex = regexp.MustCompile(`(^|\s)@([\p{L}\p{N}_-]+)`)

// ParseLine extracts the tracker label from a line description
// Syntax: "Draft chapter two @Writing"
func ParseLine(input string) ParsedLine {
	result := ParsedLine{
		Errors: []string{},
	}

	// Extract tracker (@label)
	matches := trackerRegex.FindAllStringSubmatch(input, -1)
	if len(matches) > 0 {
		result.Tracker = matches[0][2]
		if len(matches) > 1 {
			result.Errors = append(result.Errors, "Only one @tracker is allowed, got "+
				joinLabels(matches))
		}
		// Remove from description
		input = trackerRegex.ReplaceAllString(input, " ")
	}

	// Clean up the description (remove extra spaces)
	result.Desc = strings.Join(strings.Fields(input), " ")

	return result
}

func joinLabels(matches [][]string) string {
	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, "@"+m[2])
	}
	return strings.Join(labels, ", ")
}
