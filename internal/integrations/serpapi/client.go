package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigolyusei/mynextflight/internal/domain"
)

const (
	defaultBaseURL  = "https://serpapi.com"
	defaultCurrency = "BRL"
	defaultLanguage = "pt"
	// oneWay is the Google Flights trip type for searches without a return date.
	oneWay = "2"
)

// TokenSource supplies the SerpAPI key. *paramstore.CachedToken satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// searchResponse is the subset of the Google Flights engine response we use.
type searchResponse struct {
	Error          string         `json:"error"`
	SearchMetadata searchMetadata `json:"search_metadata"`
	BestFlights    []flightOffer  `json:"best_flights"`
	OtherFlights   []flightOffer  `json:"other_flights"`
}

type searchMetadata struct {
	Status           string `json:"status"`
	GoogleFlightsURL string `json:"google_flights_url"`
}

type flightOffer struct {
	Price json.Number `json:"price"`
}

// HTTPStatusError captures non-2xx responses. The API key travels in the
// query string, so the URL is not kept.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("serpapi: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client queries the SerpAPI Google Flights engine for the cheapest fare.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     TokenSource
	currency   string
	language   string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLocale sets the currency prices are quoted in and the response language.
func WithLocale(currency, language string) Option {
	return func(c *Client) {
		if currency = strings.TrimSpace(currency); currency != "" {
			c.currency = currency
		}
		if language = strings.TrimSpace(language); language != "" {
			c.language = language
		}
	}
}

func NewClient(key TokenSource, opts ...Option) (*Client, error) {
	if key == nil {
		return nil, errors.New("serpapi: api key source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     key,
		currency:   defaultCurrency,
		language:   defaultLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func searchURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/search.json"
}

// Quote returns the cheapest fare for a one-way trip on date. It returns
// domain.ErrNoFares when the search produced no offers and a
// *domain.OracleError when SerpAPI reports an error in the body.
func (c *Client) Quote(ctx context.Context, origin, destination, date string) (domain.Fare, error) {
	key, err := c.apiKey.Token(ctx)
	if err != nil {
		return domain.Fare{}, fmt.Errorf("serpapi: resolve api key: %w", err)
	}

	q := url.Values{}
	q.Set("engine", "google_flights")
	q.Set("departure_id", origin)
	q.Set("arrival_id", destination)
	q.Set("outbound_date", date)
	q.Set("type", oneWay)
	q.Set("currency", c.currency)
	q.Set("hl", c.language)
	q.Set("api_key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL(c.baseURL)+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Fare{}, fmt.Errorf("serpapi: create request: %w", redact(err, key))
	}
	req.Header.Set("Accept", "application/json")

	raw, err := c.doJSONRequest(req)
	if err != nil {
		return domain.Fare{}, fmt.Errorf("serpapi: request failed: %w", redact(err, key))
	}

	var payload searchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Fare{}, fmt.Errorf("serpapi: decode response: %w", err)
	}
	return cheapestFare(payload)
}

// cheapestFare picks the first offer. Google Flights orders best_flights by
// its own ranking with the cheapest first; other_flights is only consulted
// when best_flights is absent.
func cheapestFare(payload searchResponse) (domain.Fare, error) {
	if payload.Error != "" {
		return domain.Fare{}, &domain.OracleError{Detail: payload.Error}
	}

	offers := payload.BestFlights
	if len(offers) == 0 {
		offers = payload.OtherFlights
	}
	if len(offers) == 0 {
		return domain.Fare{}, domain.ErrNoFares
	}

	if offers[0].Price == "" {
		return domain.Fare{}, errors.New("serpapi: cheapest offer has no price")
	}
	price, err := decimal.NewFromString(offers[0].Price.String())
	if err != nil {
		return domain.Fare{}, fmt.Errorf("serpapi: parse price %q: %w", offers[0].Price, err)
	}
	return domain.Fare{Price: price, Link: payload.SearchMetadata.GoogleFlightsURL}, nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, Body: string(buf)}
	}

	// Google Flights responses carry full itineraries; 8 MiB is generous.
	buf, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

// redact strips the API key from errors, which embed the request URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "<redacted>"))
}
