package tradingview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"MomentumPull/internal/domain/models"
	drepo "MomentumPull/internal/domain/repository"
	"MomentumPull/internal/service/ratelimit"
	apphttp "MomentumPull/pkg/http"

	"github.com/sony/gobreaker"
)

const DefaultBaseURL = "https://scanner.tradingview.com"

var (
	// ErrMalformedPayload means the scanner answered but the payload cannot be used.
	ErrMalformedPayload = errors.New("tradingview: malformed payload")
	// ErrSymbolNotFound means the scanner returned no row for the ticker.
	ErrSymbolNotFound = errors.New("tradingview: symbol not found")
)

// Client implements SignalProvider backed by the TradingView scanner API.
type Client struct {
	http    *apphttp.Client
	baseURL string
	host    string
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	clock   drepo.Clock
}

var _ drepo.SignalProvider = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *apphttp.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(cl *Client) { cl.limiter = l }
}

// WithBreaker trips after maxFailures consecutive transport failures and
// stays open for openTimeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(cl *Client) {
		cl.breaker = newBreaker(maxFailures, openTimeout)
	}
}

func WithClock(c drepo.Clock) Option {
	return func(cl *Client) {
		if c != nil {
			cl.clock = c
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		http:    apphttp.NewClient(apphttp.WithTimeout(10 * time.Second)),
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    u.Host,
		clock:   drepo.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newBreaker(maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	st := gobreaker.Settings{
		Name:    "tradingview",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// a bad row or a rejected request is the symbol's problem, not the upstream's
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, ErrMalformedPayload) || errors.Is(err, ErrSymbolNotFound) {
				return true
			}
			return !apphttp.IsTemporary(err)
		},
	}
	return gobreaker.NewCircuitBreaker(st)
}

type scanSymbols struct {
	Tickers []string `json:"tickers"`
	Query   struct {
		Types []string `json:"types"`
	} `json:"query"`
}

type scanRequest struct {
	Symbols scanSymbols `json:"symbols"`
	Columns []string    `json:"columns"`
}

type scanRow struct {
	S string     `json:"s"`
	D []*float64 `json:"d"`
}

type scanResponse struct {
	TotalCount int       `json:"totalCount"`
	Data       []scanRow `json:"data"`
}

// Analysis fetches the rating and price indicators for one symbol and timeframe.
func (c *Client) Analysis(ctx context.Context, req drepo.SignalRequest) (*models.Analysis, error) {
	cols, err := columns(req.Timeframe)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.host); err != nil {
			return nil, fmt.Errorf("tradingview rate limit: %w", err)
		}
	}

	ticker := strings.ToUpper(req.Exchange) + ":" + req.Symbol
	body := scanRequest{Columns: cols}
	body.Symbols.Tickers = []string{ticker}
	body.Symbols.Query.Types = []string{}

	do := func() (any, error) {
		var resp scanResponse
		err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
			Method: apphttp.MethodPost,
			URL:    fmt.Sprintf("%s/%s/scan", c.baseURL, strings.ToLower(req.Screener)),
			Body:   body,
		}, &resp)
		if err != nil {
			return nil, err
		}
		return c.toAnalysis(req, ticker, &resp)
	}

	var out any
	if c.breaker != nil {
		out, err = c.breaker.Execute(do)
	} else {
		out, err = do()
	}
	if err != nil {
		return nil, fmt.Errorf("tradingview %s %s: %w", ticker, req.Timeframe, err)
	}
	return out.(*models.Analysis), nil
}

func (c *Client) toAnalysis(req drepo.SignalRequest, ticker string, resp *scanResponse) (*models.Analysis, error) {
	var row *scanRow
	for i := range resp.Data {
		if strings.EqualFold(resp.Data[i].S, ticker) {
			row = &resp.Data[i]
			break
		}
	}
	if row == nil {
		return nil, ErrSymbolNotFound
	}
	if len(row.D) < 5 || row.D[0] == nil {
		return nil, ErrMalformedPayload
	}

	rec := *row.D[0]
	a := &models.Analysis{
		Symbol:         req.Symbol,
		Exchange:       req.Exchange,
		Screener:       req.Screener,
		Timeframe:      req.Timeframe,
		Recommendation: RecommendationFromValue(rec),
		RecommendAll:   rec,
		Indicators: models.Indicators{
			Close:  deref(row.D[1]),
			High:   deref(row.D[2]),
			Low:    deref(row.D[3]),
			Volume: deref(row.D[4]),
		},
		FetchedAt: c.clock.Now(),
	}
	return a, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
