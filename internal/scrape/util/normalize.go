package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// CleanText folds compatibility characters (NBSP, full-width digits) and
// collapses runs of whitespace.
func CleanText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// FirstText returns the cleaned text of the first match of sel under s, or def
// when nothing matches or the text is empty.
func FirstText(s *goquery.Selection, sel, def string) string {
	if t := CleanText(s.Find(sel).First().Text()); t != "" {
		return t
	}
	return def
}

// Texts returns the cleaned, non-empty texts of every match of sel under s.
func Texts(s *goquery.Selection, sel string) []string {
	var out []string
	s.Find(sel).Each(func(_ int, n *goquery.Selection) {
		if t := CleanText(n.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Lines splits a block's text on newlines, like innerText of a multi-line
// element, dropping empty lines.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = CleanText(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// ItemTexts returns the texts of s's child elements, or its text lines when it
// has none. It approximates innerText split on newlines for list-like blocks.
func ItemTexts(s *goquery.Selection) []string {
	if kids := s.Children(); kids.Length() > 0 {
		var out []string
		kids.Each(func(_ int, k *goquery.Selection) {
			if t := CleanText(k.Text()); t != "" {
				out = append(out, t)
			}
		})
		return out
	}
	return Lines(s.Text())
}
