package unstop

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"internlee-engine/internal/config"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/logging"
	"internlee-engine/internal/scrape"
	"internlee-engine/internal/scrape/util"
)

const (
	Name    = "unstop"
	BaseURL = "https://unstop.com"

	readySelector    = "div.panel_container a"
	cardSelector     = "a.item.position-relative"
	nextSelector     = "li.right-arrow.num.arrow.waves_effect:not(.ng-star-inserted)"
	skeletonSelector = "app-global-skeleton"
	counterSelector  = "div.push-left.ng-star-inserted"
)

// "55 - 72 / 115"
var counterRe = regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*/\s*(\d+)`)

func New(src config.Source, opts scrape.SiteOptions) *scrape.PageSource {
	p := &paginator{maxPages: src.MaxPages, opts: opts, log: opts.Logger(Name)}
	return opts.Page(Name, src.URL, readySelector, p.extract)
}

type paginator struct {
	maxPages int
	opts     scrape.SiteOptions
	log      *logging.Logger
}

// extract walks result pages until the counter shows the last page or
// maxPages is reached. A failed page turn keeps what was collected so far.
func (p *paginator) extract(ctx context.Context, page *scrape.ReadyPage) ([]domain.Listing, error) {
	var all []domain.Listing
	for n := 1; ; n++ {
		html, err := page.HTML(ctx)
		if err != nil {
			return nil, fmt.Errorf("unstop read page %d: %w", n, err)
		}
		listings, err := Parse(html)
		if err != nil {
			return nil, fmt.Errorf("unstop page %d: %w", n, err)
		}
		all = append(all, listings...)
		p.log.Debug("page parsed", "page", n, "listings", len(listings), "total", len(all))

		if p.maxPages > 0 && n >= p.maxPages {
			break
		}
		if LastPage(html) {
			break
		}
		if err := p.next(ctx, page); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn("page turn failed, keeping collected listings", "page", n, "err", err)
			break
		}
	}
	return all, nil
}

func (p *paginator) next(ctx context.Context, page *scrape.ReadyPage) error {
	if err := page.Click(ctx, nextSelector, p.opts.Timeout); err != nil {
		return fmt.Errorf("click next: %w", err)
	}
	if err := page.WaitHidden(ctx, skeletonSelector, p.opts.Timeout); err != nil {
		return fmt.Errorf("wait skeleton hidden: %w", err)
	}
	if err := page.WaitVisible(ctx, readySelector, p.opts.Timeout); err != nil {
		return fmt.Errorf("wait cards: %w", err)
	}
	return nil
}

// LastPage reports whether the results counter says the current page ends
// at the total. A page without a counter is treated as the last one.
func LastPage(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	m := counterRe.FindStringSubmatch(util.CleanText(doc.Find(counterSelector).First().Text()))
	if m == nil {
		return true
	}
	return m[2] == m[3]
}

// Parse extracts listings from one rendered results page.
func Parse(html string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("unstop parse html: %w", err)
	}

	var (
		out     []domain.Listing
		cardErr error
	)
	doc.Find(cardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		href, ok := card.Attr("href")
		if !ok {
			return true
		}
		caption := card.Find("div.cptn")
		blocks := caption.Find("div")
		if blocks.Length() == 0 {
			return true
		}

		l, err := parseCard(href, caption, blocks)
		if err != nil {
			cardErr = fmt.Errorf("unstop card %d: %w", i, err)
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

func parseCard(href string, caption, blocks *goquery.Selection) (domain.Listing, error) {
	if blocks.Length() < 2 {
		return domain.Listing{}, fmt.Errorf("%w: caption has %d blocks, want 2", domain.ErrLayout, blocks.Length())
	}
	reqs := blocks.Eq(1).Find("div")
	if reqs.Length() < 2 {
		return domain.Listing{}, fmt.Errorf("%w: requirements have %d entries, want 2", domain.ErrLayout, reqs.Length())
	}

	location := domain.Remote
	if reqs.Length() == 3 {
		location = util.CleanText(reqs.Eq(2).Text())
	}

	var skills []string
	if bullets := caption.Find("div.center-bullet.ng-star-inserted"); bullets.Length() > 0 {
		skills = util.ItemTexts(bullets.First())
	}

	return domain.Listing{
		Company:        util.FirstText(caption, "p.single-wrap", ""),
		Title:          util.CleanText(ownText(blocks.Eq(0))),
		RedirectLink:   util.Absolute(BaseURL, href),
		Qualifications: skills,
		Location:       location,
		BasedJob:       util.CleanText(reqs.Eq(1).Text()),
		Experience:     util.CleanText(reqs.Eq(0).Text()),
	}.Normalize(), nil
}

// ownText is the text of s without the text of nested divs, which hold the
// requirement rows on cards where the title block wraps them.
func ownText(s *goquery.Selection) string {
	c := s.Clone()
	c.Find("div").Remove()
	return c.Text()
}
