package domain

import "strings"

// Snippet is the structured form of a free-text job card description.
type Snippet struct {
	Experience     string
	Qualifications []string
}

// ClassifySnippet splits description lines into an experience line and a skills list.
// The first non-empty line is the experience descriptor; the first line starting
// with "skills" followed by ':' carries comma-separated qualifications.
func ClassifySnippet(lines []string) Snippet {
	var kept []string
	for _, l := range lines {
		if l = clean(l); l != "" {
			kept = append(kept, l)
		}
	}

	s := Snippet{Experience: NotSpecified, Qualifications: []string{}}
	if len(kept) == 0 {
		return s
	}
	s.Experience = kept[0]

	for _, line := range kept {
		if !strings.HasPrefix(strings.ToLower(line), "skills") {
			continue
		}
		_, rest, ok := strings.Cut(line, ":")
		if !ok {
			break
		}
		for _, skill := range strings.Split(rest, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				s.Qualifications = append(s.Qualifications, skill)
			}
		}
		break
	}
	return s
}
