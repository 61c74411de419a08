package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public Alpha Vantage endpoint.
const DefaultBaseURL = "https://www.alphavantage.co"

// Client fetches quotes from the Alpha Vantage GLOBAL_QUOTE endpoint.
// It is stateless: caching is the caller's responsibility, which keeps
// this layer trivially testable against a fake server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client from the application config.
func NewClient(cfg *infra.Config) *Client {
	baseURL := cfg.Provider.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.Provider.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.ProviderTimeout(),
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "alphavantage_client"),
	}
}

// globalQuoteEnvelope mirrors the provider response shape. The quote
// payload is kept loosely typed: the provider occasionally returns
// partial data or strings where numbers are expected, and all of that
// is coerced at this boundary.
type globalQuoteEnvelope struct {
	GlobalQuote  map[string]any `json:"Global Quote"`
	Note         string         `json:"Note"`
	Information  string         `json:"Information"`
	ErrorMessage string         `json:"Error Message"`
}

// FetchQuote requests the current quote for one symbol. Failures are
// typed domain.FetchError values; missing numeric fields in an
// otherwise valid response are coerced to zero, not treated as errors.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}

	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, symbol, err)
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.NewFetchError(domain.FetchRateLimited, symbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewFetchError(domain.FetchUnreachable, symbol, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, symbol, err)
	}

	var envelope globalQuoteEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, domain.NewFetchError(domain.FetchMalformed, symbol, err)
	}

	// The provider signals quota exhaustion with a 200 and a prose note.
	if envelope.Note != "" || strings.Contains(envelope.Information, "rate limit") {
		return nil, domain.NewFetchError(domain.FetchRateLimited, symbol, fmt.Errorf("provider note: %.80s", envelope.Note+envelope.Information))
	}
	if envelope.ErrorMessage != "" {
		return nil, domain.NewFetchError(domain.FetchNotFound, symbol, fmt.Errorf("provider error: %.80s", envelope.ErrorMessage))
	}
	if len(envelope.GlobalQuote) == 0 {
		// An empty "Global Quote" object is how unknown symbols come back.
		return nil, domain.NewFetchError(domain.FetchNotFound, symbol, nil)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		Price:         coerceDecimal(envelope.GlobalQuote["05. price"]),
		Change:        coerceDecimal(envelope.GlobalQuote["09. change"]),
		ChangePercent: coerceDecimal(envelope.GlobalQuote["10. change percent"]),
		Open:          coerceDecimal(envelope.GlobalQuote["02. open"]),
		High:          coerceDecimal(envelope.GlobalQuote["03. high"]),
		Low:           coerceDecimal(envelope.GlobalQuote["04. low"]),
		Volume:        coerceDecimal(envelope.GlobalQuote["06. volume"]).IntPart(),
		AsOf:          coerceDay(envelope.GlobalQuote["07. latest trading day"]),
	}

	c.logger.DebugContext(ctx, "quote fetched",
		slog.String("symbol", symbol),
		slog.String("price", quote.Price.String()),
	)

	return quote, nil
}

// coerceDecimal converts whatever the provider sent into a decimal,
// defaulting to zero. Trailing '%' on change-percent fields is handled
// here so the coercion lives at a single boundary.
func coerceDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// coerceDay parses the latest-trading-day field, falling back to now.
func coerceDay(v any) time.Time {
	if s, ok := v.(string); ok {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
