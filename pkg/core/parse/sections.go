package parse

import (
	"regexp"
	"strings"
)

// MainContent is the title used when no section headers are found.
const MainContent = "Main Content"

var (
	mdHeaderRe     = regexp.MustCompile(`^\s*#{1,6}\s+(.+?)\s*#*\s*$`)
	boldHeaderRe   = regexp.MustCompile(`^\s*(?:\*\*|__)([^*_]+?)(?:\*\*|__)\s*:?\s*$`)
	numberedHeadRe = regexp.MustCompile(`^\s*\d{1,2}[.)]\s+(?:\*\*)?([^*:]{2,60}?)(?:\*\*)?\s*:\s*$`)
	capsLabelRe    = regexp.MustCompile(`^\s*([A-Z][A-Z0-9 &/()'\-]{2,60}):\s*(.*)$`)
)

// Section is a titled slice of a response.
type Section struct {
	Title   string
	Content string
}

// ExtractSections splits text on markdown headers, whole-line bold text, numbered
// headers ending in a colon, and capitalised "LABEL:" lines. Text before the first
// header is dropped unless there are no headers at all, in which case the whole
// text becomes a single "Main Content" section.
func ExtractSections(text string) []Section {
	text = CleanResponse(text)

	var sections []Section
	var current *Section
	var body []string

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		title, rest, ok := sectionHeader(line)
		if !ok {
			body = append(body, line)
			continue
		}
		flush()
		current = &Section{Title: title}
		if rest != "" {
			body = append(body, rest)
		}
	}
	flush()

	if len(sections) == 0 {
		return []Section{{Title: MainContent, Content: text}}
	}
	return sections
}

// SectionMap indexes sections by title; the first section with a title wins.
func SectionMap(sections []Section) map[string]string {
	m := make(map[string]string, len(sections))
	for _, s := range sections {
		if _, ok := m[s.Title]; !ok {
			m[s.Title] = s.Content
		}
	}
	return m
}

func sectionHeader(line string) (title, rest string, ok bool) {
	if m := mdHeaderRe.FindStringSubmatch(line); m != nil {
		return PlainText(m[1]), "", true
	}
	if m := boldHeaderRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), "", true
	}
	if m := numberedHeadRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), "", true
	}
	if m := capsLabelRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// LabeledBlock returns the free text that follows the first header or "Label:" line
// matching one of labels (case-insensitive), up to the next header. Text on the
// label line after the colon is included. Returns "" when no label is found.
func LabeledBlock(text string, labels ...string) string {
	upper := make([]string, len(labels))
	for i, l := range labels {
		upper[i] = strings.ToUpper(l)
	}

	var out []string
	in := false
	for _, line := range strings.Split(CleanResponse(text), "\n") {
		if !in {
			if label, rest, ok := labelLine(line); ok && containsAny(strings.ToUpper(label), upper) {
				in = true
				if rest != "" {
					out = append(out, rest)
				}
			}
			continue
		}
		if _, isHeader := headerText(line); isHeader {
			if _, numbered := numberedItem(line); !numbered {
				break
			}
		}
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// labelLine splits "Label: rest" and also accepts bare header lines.
func labelLine(line string) (label, rest string, ok bool) {
	if _, numbered := numberedItem(line); numbered {
		return "", "", false
	}
	t := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
	if i := strings.Index(t, ":"); i > 0 && i <= 60 {
		label = strings.TrimSpace(strings.Trim(t[:i], "*_ "))
		rest = strings.TrimSpace(strings.Trim(t[i+1:], "*_ "))
		return label, rest, label != ""
	}
	if h, isHeader := headerText(line); isHeader {
		return h, "", true
	}
	return "", "", false
}
