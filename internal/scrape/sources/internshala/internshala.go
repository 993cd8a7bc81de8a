package internshala

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"internlee-engine/internal/config"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/scrape"
	"internlee-engine/internal/scrape/util"
)

const (
	Name    = "internshala"
	BaseURL = "https://internshala.com"

	readySelector = "div.individual_internship"
	popupSelector = "div.modal.subscription_alert.new.show"
	popupClose    = "#close_popup"
	listSelector  = "div.internship_list_container"
	cardSelector  = "div.container-fluid.individual_internship.view_detail_button.visibilityTrackerItem"
)

func New(src config.Source, opts scrape.SiteOptions) *scrape.PageSource {
	log := opts.Logger(Name)

	return opts.Page(Name, src.URL, readySelector, func(ctx context.Context, page *scrape.ReadyPage) ([]domain.Listing, error) {
		// The subscription modal sits over the list on first visit.
		if shown, err := page.Visible(ctx, popupSelector); err == nil && shown {
			if err := page.Click(ctx, popupClose, opts.Timeout); err != nil {
				log.Warn("dismiss subscription popup", "err", err)
			} else if err := page.WaitVisible(ctx, readySelector, opts.Timeout); err != nil {
				log.Warn("listings hidden after popup", "err", err)
			}
		}
		return scrape.ParseHTML(Parse)(ctx, page)
	})
}

// Parse extracts listings from a rendered search results page.
func Parse(html string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("internshala parse html: %w", err)
	}

	list := doc.Find(listSelector)
	if list.Length() == 0 {
		return nil, fmt.Errorf("internshala: %w: %s not found", domain.ErrLayout, listSelector)
	}

	var (
		out     []domain.Listing
		cardErr error
	)
	list.Find(cardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		l, err := parseCard(card)
		if err != nil {
			cardErr = fmt.Errorf("internshala card %d: %w", i, err)
			return false
		}
		out = append(out, l)
		return true
	})
	if cardErr != nil {
		return nil, cardErr
	}
	return out, nil
}

func parseCard(card *goquery.Selection) (domain.Listing, error) {
	href, ok := card.Attr("data-href")
	if !ok || strings.TrimSpace(href) == "" {
		return domain.Listing{}, fmt.Errorf("%w: card without data-href", domain.ErrLayout)
	}

	row := card.Find("div.detail-row-1")
	cells := row.Find("div")
	if cells.Length() < 3 {
		return domain.Listing{}, fmt.Errorf("%w: detail row has %d cells, want 3", domain.ErrLayout, cells.Length())
	}

	based := util.Texts(card, "div.detail-row-2 div.gray-labels div.status-li")
	if len(based) == 0 {
		return domain.Listing{}, fmt.Errorf("%w: no status labels", domain.ErrLayout)
	}

	return domain.Listing{
		Company:        util.FirstText(card, "p.company-name", ""),
		Title:          util.FirstText(card, "h3.job-internship-name", ""),
		RedirectLink:   util.Absolute(BaseURL, href),
		Qualifications: util.Texts(card, "div.job_skills div.skill_container div.job_skill"),
		Location:       util.CleanText(cells.Eq(0).Text()),
		Duration:       util.CleanText(cells.Eq(2).Text()),
		BasedJob:       based[0],
		Experience:     util.FirstText(card, "div.about_job", ""),
		Stipend:        util.FirstText(row, "span.stipend", ""),
	}.Normalize(), nil
}
