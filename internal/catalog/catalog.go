// Package catalog talks to the third-party product catalog API. Every call
// degrades to a fallback value instead of failing, so callers never see
// transport errors.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Houeta/buywise/internal/config"
	"github.com/Houeta/buywise/internal/extract"
	"github.com/Houeta/buywise/internal/models"
	"golang.org/x/time/rate"
)

// NoDataError is the error value of a details payload that came back without data.
const NoDataError = "No data"

// placeholderIDs are returned by SearchIDs whenever the API is unavailable.
var placeholderIDs = []string{"B0DEMO001", "B0DEMO002", "B0DEMO003", "B0DEMO004", "B0DEMO005"}

type Fetcher struct {
	log     *slog.Logger
	client  *http.Client
	cfg     config.Catalog
	limiter *rate.Limiter
}

// NewFetcher builds a Fetcher. A non-positive rate disables client-side limiting.
func NewFetcher(log *slog.Logger, cfg config.Catalog) *Fetcher {
	limit := rate.Limit(cfg.RatePerSec)
	if cfg.RatePerSec <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.Burst, 1)

	return &Fetcher{
		log:     log,
		client:  http.DefaultClient,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
	}
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status code error: [%d] %s", e.code, e.status)
}

// SearchIDs resolves a free-text query to external product ids, in API order.
func (f *Fetcher) SearchIDs(ctx context.Context, query string) []string {
	const opn = "catalog.SearchIDs"
	log := f.log.With("op", opn, "query", query)

	body, err := f.get(ctx, "search", url.Values{
		"query":   {query},
		"page":    {"1"},
		"country": {f.cfg.Country},
	})
	if err != nil {
		logFailure(ctx, log, err)
		log.WarnContext(ctx, "Catalog unavailable, returning placeholder ids")
		return append([]string(nil), placeholderIDs...)
	}

	var resp struct {
		Data *struct {
			Products []models.Document `json:"products"`
		} `json:"data"`
	}
	if err = json.Unmarshal(body, &resp); err != nil {
		log.ErrorContext(ctx, "Failed to decode search response", "error", err)
		return append([]string(nil), placeholderIDs...)
	}
	if resp.Data == nil || len(resp.Data.Products) == 0 {
		log.WarnContext(ctx, "No products found in search response")
		return []string{}
	}

	ids := make([]string, 0, len(resp.Data.Products))
	for _, p := range resp.Data.Products {
		if id := extract.String(p["asin"], ""); id != "" {
			ids = append(ids, id)
			log.DebugContext(ctx, "Search result", "id", id, "title", p["product_title"])
		}
	}
	log.InfoContext(ctx, "Search completed", "count", len(ids))

	return ids
}

// FetchDetails returns the normalized details record of one product. A
// payload without data yields a record with an "error" key; any transport
// or status failure yields the deterministic placeholder for id.
func (f *Fetcher) FetchDetails(ctx context.Context, id string) models.Document {
	const opn = "catalog.FetchDetails"
	log := f.log.With("op", opn, "id", id)

	body, err := f.get(ctx, "product-details", url.Values{
		"asin":    {id},
		"country": {f.cfg.Country},
	})
	if err != nil {
		logFailure(ctx, log, err)
		log.WarnContext(ctx, "Catalog unavailable, returning placeholder record")
		return Placeholder(id)
	}

	payload, err := models.ParseDocument(body)
	if err != nil {
		log.ErrorContext(ctx, "Failed to decode details response", "error", err)
		return Placeholder(id)
	}

	data, ok := payload.Object("data")
	if !ok {
		log.WarnContext(ctx, "No data field in details response")
		return models.Document{"error": NoDataError, "raw": payload}
	}

	details := Normalize(id, data)
	log.InfoContext(ctx, "Fetched product details",
		"title", details["title"], "brand", details["brand"], "price", details["price"])

	return details
}

// FetchReviews returns the top reviews of a product. It never fails: any
// problem yields an empty list.
func (f *Fetcher) FetchReviews(ctx context.Context, id string) []models.Document {
	const opn = "catalog.FetchReviews"
	log := f.log.With("op", opn, "id", id)

	body, err := f.get(ctx, "product-reviews", url.Values{
		"asin":                    {id},
		"country":                 {f.cfg.Country},
		"page":                    {"1"},
		"sort_by":                 {"TOP_REVIEWS"},
		"star_rating":             {"ALL"},
		"verified_purchases_only": {"false"},
		"images_or_videos_only":   {"false"},
		"current_format_only":     {"false"},
	})
	if err != nil {
		logFailure(ctx, log, err)
		return []models.Document{}
	}

	var resp struct {
		Data *struct {
			Reviews []models.Document `json:"reviews"`
		} `json:"data"`
	}
	if err = json.Unmarshal(body, &resp); err != nil {
		log.WarnContext(ctx, "Failed to decode reviews response", "error", err)
		return []models.Document{}
	}
	if resp.Data == nil || resp.Data.Reviews == nil {
		return []models.Document{}
	}

	log.DebugContext(ctx, "Fetched reviews", "count", len(resp.Data.Reviews))
	return resp.Data.Reviews
}

// Normalize maps the catalog's data object onto the details record the rest
// of the system reads.
func Normalize(id string, data models.Document) models.Document {
	title := extract.String(data["product_title"], "")

	details := models.Document{
		"asin":        id,
		"title":       title,
		"price":       extract.Price(data["product_price"]),
		"imageUrl":    extract.String(data["product_photo"], ""),
		"productUrl":  extract.String(data["product_url"], ""),
		"brand":       extract.Brand(title),
		"rating":      extract.Rating(data["product_star_rating"]),
		"reviewCount": extract.ReviewCount(data["product_num_ratings"]),
		"raw":         data,
	}
	if desc, ok := data["product_description"].(string); ok && desc != "" {
		details["description"] = extract.PlainText(desc)
	}

	return details
}

// Placeholder is the synthetic details record for id. It depends on id only,
// so repeated calls marshal to identical bytes.
func Placeholder(id string) models.Document {
	const (
		title = "Demo Product - "
		price = "₹999"
		image = "https://via.placeholder.com/300x300.png?text=Demo+Product"
	)
	link := "https://www.amazon.in/dp/" + id

	return models.Document{
		"asin":                id,
		"title":               title + id,
		"product_title":       title + id,
		"price":               price,
		"product_price":       price,
		"imageUrl":            image,
		"product_photo":       image,
		"productUrl":          link,
		"product_url":         link,
		"brand":               "Demo Brand",
		"rating":              4.5,
		"product_star_rating": "4.5",
		"reviewCount":         1234,
		"product_num_ratings": 1234,
		"description":         "This is a demo product for testing purposes when the catalog is unavailable.",
		"mock_data":           true,
	}
}

// get performs one rate-limited GET against the catalog and returns the body
// of a 200 response.
func (f *Fetcher) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	reqURL, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog URL %s: %w", f.cfg.BaseURL, err)
	}
	reqURL = reqURL.JoinPath(path)
	reqURL.RawQuery = query.Encode()

	if err = f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", reqURL.String(), err)
	}

	req.Header.Set("x-rapidapi-key", f.cfg.APIKey)
	req.Header.Set("x-rapidapi-host", f.cfg.APIHost)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GoHttpClient/1.0)")

	f.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL.Redacted())

	start := time.Now()
	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &statusError{code: res.StatusCode, status: res.Status}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	f.log.DebugContext(ctx, "Successfully received http response",
		"path", path, "status code", res.StatusCode, "duration", time.Since(start))

	return body, nil
}

// logFailure reports rate limiting, rejected credentials and transport
// failures under distinct messages.
func logFailure(ctx context.Context, log *slog.Logger, err error) {
	var se *statusError
	if !errors.As(err, &se) {
		log.ErrorContext(ctx, "Catalog request failed", "error", err)
		return
	}

	switch se.code {
	case http.StatusTooManyRequests:
		log.ErrorContext(ctx, "Catalog rate limit exceeded", "status", se.code)
	case http.StatusUnauthorized, http.StatusForbidden:
		log.ErrorContext(ctx, "Catalog rejected credentials, check the API key and subscription", "status", se.code)
	default:
		log.ErrorContext(ctx, "Catalog returned unexpected status", "status", se.code, "error", err)
	}
}
