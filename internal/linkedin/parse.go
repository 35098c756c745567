package linkedin

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Several alternatives per field; the guest markup changes from time to time.
const (
	cardSelector        = ".base-card, .job-search-card, .base-search-card"
	titleSelector       = ".base-search-card__title, .job-search-card__title, h3"
	companySelector     = ".base-search-card__subtitle, .job-search-card__subtitle, h4"
	locationSelector    = ".job-search-card__location, .base-search-card__metadata .job-search-card__location"
	dateSelector        = "time.job-search-card__listdate, time.job-search-card__listdate--new, time"
	linkSelector        = "a.base-card__full-link, a.base-search-card__full-link, a[href*='/jobs/view/'], a[href]"
	descriptionSelector = ".show-more-less-html__markup, .description__text, .jobs-description__content"
	criteriaSelector    = ".description__job-criteria-item"
)

var (
	errNoCards = errors.New("page has markup but no recognisable job cards")

	trailingID    = regexp.MustCompile(`(\d{6,})/?$`)
	relativeDate  = regexp.MustCompile(`(?i)(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago`)
	spaceRuns     = regexp.MustCompile(`\s+`)
	remoteHint    = regexp.MustCompile(`(?i)\bremote\b`)
	hybridHint    = regexp.MustCompile(`(?i)\bhybrid\b`)
	onsiteHint    = regexp.MustCompile(`(?i)\bon-?\s?site\b`)
	seniorityName = regexp.MustCompile(`(?i)seniority|experience level`)
)

// parseCards extracts the listing cards of one result page. An empty body or
// an empty document shell (as a browser renders it) yields no cards and no
// error; markup with content but without cards is errNoCards.
func (c *Client) parseCards(body string, tag WorkType) ([]*Listing, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	cards := doc.Find(cardSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		// Nested matches (.base-card inside .job-search-card) count once.
		return s.ParentsFiltered(cardSelector).Length() == 0
	})

	if cards.Length() == 0 {
		if blank(doc) {
			return nil, nil
		}
		return nil, errNoCards
	}

	listings := make([]*Listing, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		l := c.parseCard(card, tag)
		if l.Title == "" || l.Link == "" {
			c.logger.Debug("drop incomplete card", zap.String("title", l.Title), zap.String("link", l.Link))
			return
		}
		listings = append(listings, l)
	})

	return listings, nil
}

// blank reports whether the document has no visible text, scripts aside.
func blank(doc *goquery.Document) bool {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.TrimSpace(body.Text()) == ""
}

func (c *Client) parseCard(card *goquery.Selection, tag WorkType) *Listing {
	l := &Listing{
		Title:    text(card.Find(titleSelector).First()),
		Company:  text(card.Find(companySelector).First()),
		Location: text(card.Find(locationSelector).First()),
		WorkType: tag,
	}

	if href, ok := card.Find(linkSelector).First().Attr("href"); ok {
		l.Link = cleanLink(href)
	}

	date := card.Find(dateSelector).First()
	l.PostedText = text(date)
	if datetime, ok := date.Attr("datetime"); ok {
		if t, err := time.Parse(time.DateOnly, strings.TrimSpace(datetime)); err == nil {
			l.PostedAt = t
		}
	}
	if l.PostedAt.IsZero() && l.PostedText != "" {
		l.PostedAt = parseRelative(l.PostedText, c.now())
	}

	l.ID = listingID(card, l.Link)

	if l.WorkType == WorkTypeUnknown {
		l.WorkType = inferWorkType(l.Location + " " + l.Title)
	}

	return l
}

// parseDetail fills the description and requirement of l from its detail page.
func parseDetail(body string, l *Listing) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return err
	}

	description := doc.Find(descriptionSelector).First()
	if description.Length() == 0 {
		return errors.New("detail page has no description")
	}
	l.Description = text(description)

	doc.Find(criteriaSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if seniorityName.MatchString(text(item.Find("h3"))) {
			l.Requirement = text(item.Find("span"))
			return false
		}
		return true
	})

	if l.WorkType == WorkTypeUnknown {
		l.WorkType = inferWorkType(l.Description)
	}

	return nil
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s.Text(), " "))
}

// cleanLink drops tracking parameters from a card link.
func cleanLink(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return strings.TrimSpace(href)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// listingID prefers the numeric job id; otherwise it derives a stable id from the link.
func listingID(card *goquery.Selection, link string) string {
	for _, attr := range []string{"data-entity-urn", "data-job-id"} {
		if v, ok := card.Attr(attr); ok {
			if i := strings.LastIndex(v, ":"); i >= 0 {
				v = v[i+1:]
			}
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	if u, err := url.Parse(link); err == nil {
		if m := trailingID.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	}

	if link == "" {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

func parseRelative(s string, now time.Time) time.Time {
	m := relativeDate.FindStringSubmatch(s)
	if m == nil {
		if strings.Contains(strings.ToLower(s), "just now") || strings.Contains(strings.ToLower(s), "today") {
			return now.Truncate(24 * time.Hour)
		}
		return time.Time{}
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}
	}

	switch strings.ToLower(m[2]) {
	case "second":
		return now.Add(-time.Duration(n) * time.Second)
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	default:
		return now.AddDate(-n, 0, 0)
	}
}

func inferWorkType(s string) WorkType {
	switch {
	case remoteHint.MatchString(s):
		return WorkTypeRemote
	case hybridHint.MatchString(s):
		return WorkTypeHybrid
	case onsiteHint.MatchString(s):
		return WorkTypeOnsite
	default:
		return WorkTypeUnknown
	}
}
