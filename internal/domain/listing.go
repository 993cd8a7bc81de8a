package domain

import (
	"errors"
	"strings"
)

const (
	// StipendUnknown is stored when a board does not publish pay.
	StipendUnknown = "check source site"
	NotSpecified   = "Not specified"
	Remote         = "Remote"
)

// ErrLayout marks a page whose structure no longer matches what a parser expects.
var ErrLayout = errors.New("unexpected page layout")

// Listing is one normalized job/internship posting as published to the store.
type Listing struct {
	Company        string   `json:"company"`
	Title          string   `json:"title"`
	RedirectLink   string   `json:"redirect_link"`
	Qualifications []string `json:"qualifications"`
	Location       string   `json:"location"`
	Duration       string   `json:"duration"`
	BasedJob       string   `json:"based_job"`
	Experience     string   `json:"experience"`
	Stipend        string   `json:"stipend"`
}

// Normalize returns a copy with collapsed whitespace and no empty fields.
// Missing values become NotSpecified, a missing stipend becomes StipendUnknown.
func (l Listing) Normalize() Listing {
	out := Listing{
		Company:      orDefault(l.Company, NotSpecified),
		Title:        orDefault(l.Title, NotSpecified),
		RedirectLink: strings.TrimSpace(l.RedirectLink),
		Location:     orDefault(l.Location, NotSpecified),
		Duration:     orDefault(l.Duration, NotSpecified),
		BasedJob:     orDefault(l.BasedJob, NotSpecified),
		Experience:   orDefault(l.Experience, NotSpecified),
		Stipend:      orDefault(l.Stipend, StipendUnknown),
	}

	out.Qualifications = make([]string, 0, len(l.Qualifications))
	for _, q := range l.Qualifications {
		if q = clean(q); q != "" {
			out.Qualifications = append(out.Qualifications, q)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s = clean(s); s == "" {
		return def
	}
	return s
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
