package types

import (
	"bufio"
	"strings"
)

// AcceptanceHeading introduces the checklist section of an issue body.
const AcceptanceHeading = "## Acceptance Criteria"

// Body is the parsed form of an issue's free-form markdown.
type Body struct {
	Description string      `json:"description"`
	Criteria    []Criterion `json:"criteria,omitempty"`
}

// Criterion is one checklist line (`- [ ]` or `- [x]`).
type Criterion struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ParseBody splits a markdown body into its description and checklist items.
// Checklist lines are recognized anywhere in the body; the description is the text
// before the first heading other than a leading `# Title` or `## Description`.
func ParseBody(body string) Body {
	var (
		parsed   Body
		desc     []string
		inDesc   = true
		scanner  = bufio.NewScanner(strings.NewReader(body))
		seenText bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if c, ok := parseCriterion(trimmed); ok {
			parsed.Criteria = append(parsed.Criteria, c)
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			heading := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			if heading == "description" || (!seenText && strings.HasPrefix(trimmed, "# ")) {
				continue
			}
			inDesc = false
			continue
		}

		if inDesc {
			if trimmed != "" {
				seenText = true
			}
			desc = append(desc, line)
		}
	}
	parsed.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return parsed
}

func parseCriterion(line string) (Criterion, bool) {
	for _, bullet := range []string{"- ", "* "} {
		if !strings.HasPrefix(line, bullet) {
			continue
		}
		rest := strings.TrimPrefix(line, bullet)
		switch {
		case strings.HasPrefix(rest, "[ ]"):
			return Criterion{Text: strings.TrimSpace(rest[3:])}, true
		case strings.HasPrefix(rest, "[x]"), strings.HasPrefix(rest, "[X]"):
			return Criterion{Text: strings.TrimSpace(rest[3:]), Done: true}, true
		}
	}
	return Criterion{}, false
}
