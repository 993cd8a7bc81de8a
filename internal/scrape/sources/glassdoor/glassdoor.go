package glassdoor

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
	Name    = "glassdoor"
	BaseURL = "https://www.glassdoor.co.in"

	readySelector = "div#left-column"
	cardSelector  = "li[data-test='jobListing']"

	ageUnknown = "Posting age NA"
)

func New(src config.Source, opts scrape.SiteOptions) *scrape.PageSource {
	return opts.Page(Name, src.URL, readySelector, scrape.ParseHTML(Parse))
}

func Parse(html string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("glassdoor parse html: %w", err)
	}

	col := doc.Find(readySelector)
	if col.Length() == 0 {
		return nil, fmt.Errorf("glassdoor: %w: %s not found", domain.ErrLayout, readySelector)
	}

	var out []domain.Listing
	col.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		anchor := card.Find("a.JobCard_jobTitle__GLyJ1").First()
		title := util.CleanText(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || strings.TrimSpace(href) == "" {
			return
		}

		snippet := domain.ClassifySnippet(util.Texts(card, "div.JobCard_jobDescriptionSnippet__l1tnl div"))

		out = append(out, domain.Listing{
			Company:        util.FirstText(card, "span.EmployerProfile_compactEmployerName__9MGcV", ""),
			Title:          title,
			RedirectLink:   util.Absolute(BaseURL, href),
			Qualifications: snippet.Qualifications,
			Location:       util.FirstText(card, "div[data-test='emp-location']", ""),
			BasedJob:       util.FirstText(card, "div.JobCard_listingAge__jJsuc", ageUnknown),
			Experience:     snippet.Experience,
			Stipend:        util.FirstText(card, "div[data-test='detailSalary']", ""),
		}.Normalize())
	})
	return out, nil
}
