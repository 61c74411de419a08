package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
)

func newTestClient(serverURL string) *Client {
	cfg := &infra.Config{}
	cfg.Provider.BaseURL = serverURL
	cfg.Provider.APIKey = "test-key"
	cfg.Provider.TimeoutSec = 2
	return NewClient(cfg)
}

func TestClient_FetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("expected symbol AAPL, got %s", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Errorf("expected apikey test-key, got %s", got)
		}
		w.Write([]byte(`{"Global Quote": {
			"01. symbol": "AAPL",
			"02. open": "189.50",
			"03. high": "191.20",
			"04. low": "188.90",
			"05. price": "190.12",
			"06. volume": "52164321",
			"07. latest trading day": "2024-01-15",
			"09. change": "1.25",
			"10. change percent": "0.6618%"
		}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	quote, err := client.FetchQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", quote.Symbol)
	}
	if !quote.Price.Equal(decimal.NewFromFloat(190.12)) {
		t.Errorf("expected price 190.12, got %v", quote.Price)
	}
	if !quote.ChangePercent.Equal(decimal.NewFromFloat(0.6618)) {
		t.Errorf("percent sign should be stripped, got %v", quote.ChangePercent)
	}
	if quote.Volume != 52164321 {
		t.Errorf("expected volume 52164321, got %d", quote.Volume)
	}
	wantDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !quote.AsOf.Equal(wantDay) {
		t.Errorf("expected asOf %v, got %v", wantDay, quote.AsOf)
	}
}

func TestClient_FetchQuote_PartialData(t *testing.T) {
	// Missing and differently-typed numerics must coerce to zero, not fail.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {
			"01. symbol": "AAPL",
			"05. price": 190.12,
			"03. high": "not-a-number"
		}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	quote, err := client.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("partial data should not fail: %v", err)
	}

	if !quote.Price.Equal(decimal.NewFromFloat(190.12)) {
		t.Errorf("number-typed price should parse, got %v", quote.Price)
	}
	if !quote.High.IsZero() {
		t.Errorf("malformed high should coerce to zero, got %v", quote.High)
	}
	if !quote.Open.IsZero() || quote.Volume != 0 {
		t.Error("absent open/volume should coerce to zero")
	}
}

func TestClient_FetchQuote_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind domain.FetchKind
	}{
		{
			name: "rate limited via note",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
			},
			wantKind: domain.FetchRateLimited,
		},
		{
			name: "rate limited via status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind: domain.FetchRateLimited,
		},
		{
			name: "unknown symbol",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Global Quote": {}}`))
			},
			wantKind: domain.FetchNotFound,
		},
		{
			name: "error message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Error Message": "Invalid API call."}`))
			},
			wantKind: domain.FetchNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind: domain.FetchUnreachable,
		},
		{
			name: "garbled body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>maintenance</html>`))
			},
			wantKind: domain.FetchMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.FetchQuote(context.Background(), "AAPL")
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind := domain.FetchKindOf(err); kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

func TestClient_FetchQuote_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := newTestClient(server.URL)
	_, err := client.FetchQuote(context.Background(), "AAPL")
	if kind := domain.FetchKindOf(err); kind != domain.FetchUnreachable {
		t.Errorf("kind = %q, want %q", kind, domain.FetchUnreachable)
	}
	if !domain.IsRetriable(err) {
		t.Error("network failures should be retriable")
	}
}

func TestClient_FetchQuote_EmptySymbol(t *testing.T) {
	client := newTestClient("http://localhost:1")
	_, err := client.FetchQuote(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}
