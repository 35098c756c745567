package linkedin

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/utils"
)

const (
	SearchPath = "/seeMoreJobPostings/search"

	defaultCount = 25
)

var validate = validator.New()

type SearchParams struct {
	Keywords string `validate:"required"`
	Location string
	// Empty means any work type.
	WorkTypes []WorkType `validate:"dive,oneof=Remote Onsite Hybrid"`
	// Count caps the listings returned per work-type query.
	Count        int           `validate:"gte=0,lte=1000"`
	PostedWithin time.Duration `validate:"gte=0"`
}

func (p *SearchParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperrors.InvalidInput("search parameters", err)
	}
	return nil
}

// query is one request page. liparam is the query-string key used by buildParams.
type query struct {
	Keywords     string `liparam:"keywords"`
	Location     string `liparam:"location"`
	WorkType     string `liparam:"f_WT"`
	PostedWithin string `liparam:"f_TPR"`
	Start        int    `liparam:"start"`

	tag WorkType
}

func (p *SearchParams) queries() []query {
	base := query{
		Keywords: p.Keywords,
		Location: p.Location,
		tag:      WorkTypeUnknown,
	}
	if p.PostedWithin > 0 {
		base.PostedWithin = fmt.Sprintf("r%d", int(p.PostedWithin.Seconds()))
	}

	if len(p.WorkTypes) == 0 {
		return []query{base}
	}

	queries := make([]query, 0, len(p.WorkTypes))
	for _, wt := range p.WorkTypes {
		q := base
		q.WorkType = workTypeCodes[wt]
		q.tag = wt
		queries = append(queries, q)
	}
	return queries
}

// Search issues one query per requested work type and yields listings lazily,
// fetching the next page only when the consumer asks for more. Ranging over
// the sequence again repeats every query from the first page.
func (c *Client) Search(ctx context.Context, params *SearchParams) iter.Seq[*Listing] {
	return func(yield func(*Listing) bool) {
		count := params.Count
		if count == 0 {
			count = defaultCount
		}

		p := &pacer{client: c}
		for _, q := range params.queries() {
			if !c.runQuery(ctx, p, q, count, yield) {
				return
			}
		}
	}
}

// pacer spaces the fetches of one Search call: every fetch after the first
// waits the jittered delay, across queries and detail pages alike.
type pacer struct {
	client  *Client
	started bool
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}
	return p.client.sleep(ctx, utils.Jitter(p.client.delay, p.client.jitter))
}

// runQuery paginates one query. It returns false when iteration must stop
// entirely (consumer done or context cancelled).
func (c *Client) runQuery(ctx context.Context, p *pacer, q query, count int, yield func(*Listing) bool) bool {
	logger := c.logger.With(
		zap.String("keywords", q.Keywords),
		zap.String("work_type", string(q.tag)),
	)

	got, failures := 0, 0
	for page := 0; got < count; page++ {
		if err := p.wait(ctx); err != nil {
			return false
		}

		u := c.pageURL(q)
		body, err := c.fetch(ctx, u)
		if err == nil {
			var cards []*Listing
			cards, err = c.parseCards(body, q.tag)
			if err == nil && len(cards) == 0 {
				logger.Debug("no more cards", zap.Int("page", page), zap.Int("listings", got))
				return true
			}
			if err == nil {
				failures = 0
				q.Start += len(cards)

				for _, l := range cards {
					if c.fetchDescriptions {
						if !c.describe(ctx, p, logger, l) {
							return false
						}
					}
					got++
					if !yield(l) {
						return false
					}
					if got >= count {
						break
					}
				}
				continue
			}
		}

		if ctx.Err() != nil {
			return false
		}

		failures++
		logger.Warn("skip result page",
			zap.Int("page", page),
			zap.Int("start", q.Start),
			zap.String("url", u),
			zap.Int("consecutive_failures", failures),
			zap.Error(apperrors.Scrape(fmt.Sprintf("page %d", page), err)),
		)
		if failures >= c.maxFailures {
			logger.Warn("too many failed pages, query abandoned", zap.Int("listings", got))
			return true
		}
		q.Start += perPage
	}

	logger.Debug("requested count reached", zap.Int("listings", got))
	return true
}

// describe fetches the detail page of l. It returns false only when ctx is done.
func (c *Client) describe(ctx context.Context, p *pacer, logger *zap.Logger, l *Listing) bool {
	if err := p.wait(ctx); err != nil {
		return false
	}

	body, err := c.fetch(ctx, l.Link)
	if err == nil {
		err = parseDetail(body, l)
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		logger.Warn("listing details unavailable",
			zap.String("listing_id", l.ID),
			zap.Error(apperrors.Scrape(l.Link, err)),
		)
	}
	return true
}

func (c *Client) pageURL(q query) string {
	return fmt.Sprintf("%s%s?%s", c.APIURL, SearchPath, buildParams(&q).Encode())
}

func buildParams(params *query) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("liparam")
		if key == "" {
			continue
		}

		v := value.FieldByIndex(field.Index)
		switch field.Type.Kind() {
		case reflect.Slice:
			for i := 0; i < v.Len(); i++ {
				q.Add(key, fmt.Sprintf("%v", v.Index(i).Interface()))
			}
		case reflect.Int:
			if v.Int() != 0 {
				q.Set(key, strconv.FormatInt(v.Int(), 10))
			}
		default:
			if s := fmt.Sprintf("%v", v.Interface()); s != "" {
				q.Set(key, s)
			}
		}
	}

	return q
}
