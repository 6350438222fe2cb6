package diseasesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly"
)

const DefaultBaseURL = "https://disease.sh/v3/covid-19"

var (
	// ErrNetwork marks requests which could not complete or returned a non-2xx status.
	ErrNetwork = errors.New("network failure")
	// ErrParse marks bodies which are not valid JSON or lack expected fields.
	ErrParse = errors.New("parse failure")
)

type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
}

type Option func(*Client)

// WithTimeout bounds every request. Requests have no timeout by default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "coviddash",
		transport: http.DefaultTransport,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Global(ctx context.Context) (*Global, error) {
	var g Global
	if err := c.get(ctx, "/all", nil, &g); err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	g.normalize()
	return &g, nil
}

func (c *Client) Country(ctx context.Context, code string) (*Country, error) {
	var country Country
	if err := c.get(ctx, "/countries/"+url.PathEscape(code), nil, &country); err != nil {
		return nil, err
	}
	if err := country.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	country.normalize()
	return &country, nil
}

func (c *Client) GlobalHistory(ctx context.Context, days int) (*Timeline, error) {
	var t Timeline
	q := url.Values{"lastdays": []string{strconv.Itoa(days)}}
	if err := c.get(ctx, "/historical/all", q, &t); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	t.normalize()
	return &t, nil
}

func (c *Client) CountryHistory(ctx context.Context, code string, days int) (*CountryHistory, error) {
	var h CountryHistory
	q := url.Values{"lastdays": []string{strconv.Itoa(days)}}
	if err := c.get(ctx, "/historical/"+url.PathEscape(code), q, &h); err != nil {
		return nil, err
	}
	if err := h.Timeline.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	h.Timeline.normalize()
	return &h, nil
}

// Countries returns the country list ordered by the service on sortBy,
// truncated to the first limit entries. limit <= 0 keeps everything.
func (c *Client) Countries(ctx context.Context, sortBy string, limit int) ([]Country, error) {
	var countries []Country
	q := url.Values{}
	if sortBy != "" {
		q.Set("sort", sortBy)
	}
	if err := c.get(ctx, "/countries", q, &countries); err != nil {
		return nil, err
	}
	if limit > 0 && len(countries) > limit {
		countries = countries[:limit]
	}
	for i := range countries {
		if err := countries[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrParse, i, err)
		}
		countries[i].normalize()
	}
	return countries, nil
}

type ctxTransport struct {
	ctx context.Context
	rt  http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.rt.RoundTrip(req.WithContext(t.ctx))
}

func (c *Client) newCollector(ctx context.Context) *colly.Collector {
	col := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(c.userAgent),
	)
	col.WithTransport(ctxTransport{ctx: ctx, rt: c.transport})
	// colly defaults to a 10s client timeout; 0 means none
	col.SetRequestTimeout(c.timeout)
	return col
}

func (c *Client) get(ctx context.Context, resource string, q url.Values, out interface{}) error {
	addr := c.baseURL + resource
	if len(q) > 0 {
		addr = addr + "?" + q.Encode()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, addr, err)
	}

	var body []byte
	status := 0
	col := c.newCollector(ctx)
	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	logger.Debugw("requesting disease.sh",
		"url", addr)
	if err := col.Visit(addr); err != nil {
		logger.Errorw("disease.sh request failed",
			"url", addr,
			"status", status,
			"err", err)
		if status != 0 {
			return fmt.Errorf("%w: %s returned status %d", ErrNetwork, addr, status)
		}
		return fmt.Errorf("%w: %s: %w", ErrNetwork, addr, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		logger.Errorw("could not decode disease.sh response",
			"url", addr,
			"err", err)
		return fmt.Errorf("%w: %s: %w", ErrParse, addr, err)
	}
	return nil
}
