package creature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pokematch-server/matcherrors"
)

const (
	defaultBaseURL = "https://pokeapi.co/api/v2"
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 4 << 20
)

// pokemonResponse holds the subset of the PokeAPI /pokemon/{id} payload we consume.
type pokemonResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
}

// Client fetches creatures from the PokeAPI with rate limiting.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// NewClient creates a PokeAPI client. An empty baseURL uses the public API;
// ratePerSec <= 0 disables rate limiting.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(limit, 1),
		userAgent:   "PokeMatch/1.0",
	}
}

// Fetch retrieves the creature with the given identifier.
// Network errors, non-2xx statuses and malformed payloads all wrap
// matcherrors.ErrCreatureFetch.
func (c *Client) Fetch(ctx context.Context, id int) (Creature, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Creature{}, fmt.Errorf("%w: rate limiter: %w", matcherrors.ErrCreatureFetch, err)
	}

	url := fmt.Sprintf("%s/pokemon/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Creature{}, fmt.Errorf("%w: create request: %w", matcherrors.ErrCreatureFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Creature{}, fmt.Errorf("%w: get %s: %w", matcherrors.ErrCreatureFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Creature{}, fmt.Errorf("%w: get %s: status %d", matcherrors.ErrCreatureFetch, url, resp.StatusCode)
	}

	var body pokemonResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return Creature{}, fmt.Errorf("%w: decode %s: %w", matcherrors.ErrCreatureFetch, url, err)
	}
	if body.ID <= 0 || body.Name == "" {
		return Creature{}, fmt.Errorf("%w: %s: missing id or name", matcherrors.ErrCreatureFetch, url)
	}

	return Creature{
		ID:       body.ID,
		Name:     body.Name,
		ImageURL: body.Sprites.FrontDefault,
	}, nil
}
