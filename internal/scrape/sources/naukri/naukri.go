package naukri

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"internlee-engine/internal/config"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/scrape"
	"internlee-engine/internal/scrape/util"
)

const (
	Name    = "naukri"
	BaseURL = "https://www.naukri.com"

	readySelector = "div.styles_jlc__main__VdwtF"
	tupleSelector = "div.srp-jobtuple-wrapper"
	cardSelector  = "div.cust-job-tuple.layout-wrapper"

	scheduleUnknown = "Schedule not listed"
)

func New(src config.Source, opts scrape.SiteOptions) *scrape.PageSource {
	return opts.Page(Name, src.URL, readySelector, scrape.ParseHTML(Parse))
}

// Parse extracts listings from a rendered search results page. Tuples
// without a title link are skipped.
func Parse(html string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("naukri parse html: %w", err)
	}

	list := doc.Find(readySelector)
	if list.Length() == 0 {
		return nil, fmt.Errorf("naukri: %w: %s not found", domain.ErrLayout, readySelector)
	}

	var out []domain.Listing
	list.Find(tupleSelector).Each(func(_ int, tuple *goquery.Selection) {
		card := tuple.Find(cardSelector).First()
		if card.Length() == 0 {
			return
		}
		anchor := card.Find("a.title").First()
		title := util.CleanText(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || strings.TrimSpace(href) == "" {
			return
		}

		quals := util.Texts(card, "div.tuple-tags-container li")
		if len(quals) == 0 {
			quals = util.Texts(card, "div.row5 li")
		}

		out = append(out, domain.Listing{
			Company:        util.FirstText(card, "span.comp-dtls-wrap a.comp-name", ""),
			Title:          title,
			RedirectLink:   util.Absolute(BaseURL, href),
			Qualifications: quals,
			Location:       util.FirstText(card, "span.loc-wrap span[title]", ""),
			Duration:       util.FirstText(card, "span.exp-wrap span[title]", ""),
			BasedJob:       util.FirstText(card, "span.job-post-day", scheduleUnknown),
			Experience:     strings.Join(util.Texts(card, "div.row4 li"), " | "),
			Stipend:        util.FirstText(card, "span.sal-wrap span[title]", domain.NotSpecified),
		}.Normalize())
	})
	return out, nil
}
