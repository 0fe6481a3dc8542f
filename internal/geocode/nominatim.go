package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"merchant-recon/internal/reconcile/model"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "merchant-recon/1.0"
)

// Nominatim is a Locator backed by the Nominatim /reverse endpoint.
type Nominatim struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	retries     int
	backoff     time.Duration
	log         zerolog.Logger
}

type NominatimOption func(*Nominatim)

func WithHTTPClient(c *http.Client) NominatimOption {
	return func(n *Nominatim) { n.httpClient = c }
}

// WithRateLimit allows one request per interval. Zero disables limiting.
func WithRateLimit(interval time.Duration) NominatimOption {
	return func(n *Nominatim) {
		if interval <= 0 {
			n.rateLimiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		n.rateLimiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithRetries sets how many times a transient failure is retried and the
// base backoff between attempts.
func WithRetries(n int, backoff time.Duration) NominatimOption {
	return func(c *Nominatim) {
		c.retries = max(n, 0)
		c.backoff = backoff
	}
}

func WithLogger(l zerolog.Logger) NominatimOption {
	return func(n *Nominatim) { n.log = l }
}

func NewNominatim(baseURL, userAgent string, opts ...NominatimOption) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	n := &Nominatim{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 1), // public instance policy
		retries:     2,
		backoff:     500 * time.Millisecond,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Reverse resolves one coordinate pair. Unresolvable points return an error
// wrapping model.ErrGeocodeFailed.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	reqURL := fmt.Sprintf("%s/reverse?%s", n.baseURL, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, time.Duration(attempt)*n.backoff); err != nil {
				return nil, err
			}
		}
		if err := n.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		addr, retry, err := n.do(ctx, reqURL)
		if err == nil {
			return addr, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		n.log.Debug().Err(err).Int("attempt", attempt+1).Msg("nominatim retry")
	}
	return nil, lastErr
}

// do performs one request; retry reports whether the failure is transient.
func (n *Nominatim) do(ctx context.Context, reqURL string) (addr Address, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", model.ErrGeocodeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", model.ErrGeocodeFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", model.ErrGeocodeFailed, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: status %d", model.ErrGeocodeFailed, resp.StatusCode)
	}

	var rr reverseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, false, fmt.Errorf("%w: decode: %v", model.ErrGeocodeFailed, err)
	}
	if rr.Error != "" {
		return nil, false, fmt.Errorf("%w: %s", model.ErrGeocodeFailed, rr.Error)
	}
	if len(rr.Address) == 0 {
		return nil, false, fmt.Errorf("%w: empty address", model.ErrGeocodeFailed)
	}
	return Address(rr.Address), false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
