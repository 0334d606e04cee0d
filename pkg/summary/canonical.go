package summary

import (
	"regexp"
	"strings"
)

// DefaultCoverageNote is the fixed single-source coverage disclaimer.
const DefaultCoverageNote = "This event is currently reported by a limited number of sources. Coverage may expand as more reports emerge."

const missingPlaceholder = "(missing)"

// sectionHeaders are the recognized section names, in canonical order.
// "Neutral Event Summary" is an accepted alias for "Event Summary".
var sectionHeaders = map[string]bool{
	"Event Title":           true,
	"Event Summary":         true,
	"Neutral Event Summary": true,
	"Lenses":                true,
	"Explanation":           true,
	"Coverage Note":         true,
}

// taggedLine is one classified line of oracle output. Tagging the stream
// up front keeps the header-with-no-content and duplicate-header edge
// cases in one place. Any "name: value" line is tagged as a header so
// aliases outside the canonical set (e.g. a bare "Title:") can still be
// looked up, but only recognized headers terminate a section.
type taggedLine struct {
	header     bool
	recognized bool
	name       string // header name, when header
	inline     string // inline value after the colon, when header
	text       string // the raw line
}

var headerLineRe = regexp.MustCompile(`^([^:]+):\s*(.*)$`)

func tagLines(raw string) []taggedLine {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	tagged := make([]taggedLine, len(lines))
	for i, line := range lines {
		tagged[i] = taggedLine{text: line}
		if m := headerLineRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			tagged[i].header = true
			tagged[i].recognized = sectionHeaders[name]
			tagged[i].name = name
			tagged[i].inline = strings.TrimSpace(m[2])
		}
	}
	return tagged
}

// extractSection returns the value of the first section matching any of
// the given names: the inline value when the header line carries one,
// otherwise all following lines up to the next recognized header.
func extractSection(lines []taggedLine, names ...string) (string, bool) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	start := -1
	for i, l := range lines {
		if l.header && wanted[l.name] {
			if l.inline != "" {
				return l.inline, true
			}
			start = i
			break
		}
	}
	if start == -1 {
		return "", false
	}

	var collected []string
	for _, l := range lines[start+1:] {
		if l.header && l.recognized {
			break
		}
		collected = append(collected, l.text)
	}

	value := strings.TrimSpace(strings.Join(collected, "\n"))
	return value, value != ""
}

type lensGroup struct {
	name    string
	sources []string
}

var (
	lensHeaderRe = regexp.MustCompile(`^-\s+(.+):\s*$`)
	lensSourceRe = regexp.MustCompile(`^\s{2,}-\s+(.+)$`)
)

// parseLensGroups reads the Lenses block into named groups. A source name
// is kept only the first time it appears anywhere in the section, which
// enforces at most one lens per source. Groups left empty are dropped.
func parseLensGroups(block string) []lensGroup {
	var groups []lensGroup
	var current *lensGroup
	seen := make(map[string]bool)

	for _, rawLine := range strings.Split(block, "\n") {
		line := strings.TrimRight(rawLine, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := lensHeaderRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				groups = append(groups, *current)
			}
			current = &lensGroup{name: strings.TrimSpace(m[1])}
			continue
		}

		if m := lensSourceRe.FindStringSubmatch(line); m != nil && current != nil {
			source := strings.TrimSpace(m[1])
			if source == "" || seen[source] {
				continue
			}
			seen[source] = true
			current.sources = append(current.sources, source)
		}
	}
	if current != nil {
		groups = append(groups, *current)
	}

	nonEmpty := groups[:0]
	for _, g := range groups {
		if len(g.sources) > 0 {
			nonEmpty = append(nonEmpty, g)
		}
	}
	return nonEmpty
}

func renderLensGroups(groups []lensGroup) string {
	var parts []string
	for _, g := range groups {
		lines := make([]string, 0, len(g.sources)+1)
		lines = append(lines, "- "+g.name+":")
		for _, s := range g.sources {
			lines = append(lines, "  - "+s)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func fallbackExplanation(sources []string, inferred Lens) string {
	if len(sources) < 2 {
		switch inferred {
		case LensPolicy:
			return "This report focuses on the official explanation emphasized in the available coverage."
		case LensEconomic:
			return "This report focuses on economic implications emphasized in the available coverage."
		}
		return "This report reflects the emphasis of a single available source."
	}
	return "This report groups sources by what they emphasize most when describing the event."
}

// Canonicalize turns free-form oracle output into the canonical summary
// document. The result always contains Event Title, Event Summary,
// Lenses, and Explanation sections in that order; a Coverage Note (the
// fixed literal, never oracle wording) appears exactly when the event
// has fewer than two distinct sources. inferred is consulted only for
// single-source events.
func Canonicalize(raw string, sources []string, inferred Lens) string {
	lines := tagLines(raw)

	title, ok := extractSection(lines, "Event Title", "Title")
	if !ok {
		title = missingPlaceholder
	}

	sum, ok := extractSection(lines, "Event Summary", "Neutral Event Summary")
	if !ok {
		sum = missingPlaceholder
	}

	lensesBlock, _ := extractSection(lines, "Lenses")
	groups := parseLensGroups(lensesBlock)
	if len(groups) == 0 && len(sources) == 1 {
		lens := inferred
		if lens == "" {
			lens = LensStraight
		}
		groups = []lensGroup{{name: string(lens), sources: sources[:1]}}
	}

	lenses := renderLensGroups(groups)
	if lenses == "" {
		if len(sources) > 0 {
			lenses = "- " + string(LensStraight) + ":\n  - " + sources[0]
		} else {
			lenses = missingPlaceholder
		}
	}

	explanation, ok := extractSection(lines, "Explanation")
	if !ok {
		explanation = fallbackExplanation(sources, inferred)
	}

	parts := []string{
		"Event Title:",
		title,
		"",
		"Event Summary:",
		sum,
		"",
		"Lenses:",
		lenses,
		"",
		"Explanation:",
		explanation,
	}

	if len(sources) < 2 {
		parts = append(parts, "", "Coverage Note:", DefaultCoverageNote)
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
