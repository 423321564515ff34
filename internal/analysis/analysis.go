// Package analysis turns a raw catalog payload into a structured result,
// either through the external scoring collaborator or locally.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Houeta/buywise/internal/config"
	"github.com/Houeta/buywise/internal/extract"
	"github.com/Houeta/buywise/internal/models"
)

const (
	// ProcessingFailed is the error value of a result that could not be computed at all.
	ProcessingFailed = "PROCESSING_FAILED"

	UnknownProduct = "Unknown Product"
	NoImageURL     = "https://via.placeholder.com/400x400?text=No+Image"

	reasonDisabled    = "Product analysis completed using local processing. AI service is disabled."
	reasonUnavailable = "AI service unavailable. Using local processing with basic analysis."
)

var (
	errEmptyRaw      = errors.New("raw payload is empty")
	errEmptyResponse = errors.New("empty response body")
)

type Adapter struct {
	log    *slog.Logger
	client *http.Client
	cfg    config.Scorer
}

func NewAdapter(log *slog.Logger, cfg config.Scorer) *Adapter {
	return &Adapter{log: log, client: http.DefaultClient, cfg: cfg}
}

// Analyze returns the structured result for raw. The result always carries
// title, productName, brand, price, imageUrl, productUrl and raw, unless it
// is the {error: PROCESSING_FAILED, message} record.
func (a *Adapter) Analyze(ctx context.Context, raw models.Document) models.Document {
	const opn = "analysis.Analyze"
	log := a.log.With("op", opn)

	body, err := encode(raw)
	if err != nil {
		log.ErrorContext(ctx, "Local processing failed", "error", err)
		return failed(err)
	}

	if !a.cfg.Enabled {
		log.InfoContext(ctx, "Scorer disabled, using local processing")
		return backfill(local(raw, reasonDisabled, "AI_DISABLED"), raw)
	}

	result, err := a.score(ctx, body)
	if err != nil {
		log.WarnContext(ctx, "Scorer call failed, falling back to local processing", "error", err)
		return backfill(local(raw, reasonUnavailable, "AI_UNAVAILABLE"), raw)
	}

	log.InfoContext(ctx, "Scorer response received", "keys", len(result))
	return backfill(result, raw)
}

// score posts the payload to the collaborator and decodes its JSON object.
func (a *Adapter) score(ctx context.Context, body []byte) (models.Document, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", a.cfg.URL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", a.cfg.URL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, errEmptyResponse
	}

	return models.ParseDocument(payload)
}

// local is the deterministic result used when the collaborator is off or failing.
func local(raw models.Document, reason, status string) models.Document {
	title := titleOf(raw, UnknownProduct)

	price, ok := raw.First("price", "product_price")
	if !ok {
		price = "N/A"
	}

	return models.Document{
		"title":         title,
		"productName":   title,
		"brand":         extract.Brand(title),
		"price":         price,
		"overall_score": 0.75,
		"decision":      string(models.VerdictBuy),
		"reason":        reason,
		"pros":          "[]",
		"cons":          "[]",
		"raw":           raw,
		"aiInsights": map[string]any{
			"status":  status,
			"message": "Returned local structured data",
		},
	}
}

// backfill fills every required key that result lacks from raw.
func backfill(result, raw models.Document) models.Document {
	if !result.Has("title") {
		result["title"] = titleOf(raw, UnknownProduct)
	}
	if !result.Has("productName") {
		result["productName"] = titleOf(raw, UnknownProduct)
	}
	if !result.Has("brand") {
		result["brand"] = extract.Brand(titleOf(raw, ""))
	}
	if !result.Has("price") {
		price, ok := raw.First("price", "product_price")
		if !ok {
			price = 0.0
		}
		result["price"] = price
	}
	if extract.String(result["imageUrl"], "") == "" {
		result["imageUrl"] = extract.String(firstOf(raw, "imageUrl", "product_photo"), NoImageURL)
	}
	if !result.Has("productUrl") {
		result["productUrl"] = extract.String(firstOf(raw, "productUrl", "product_url"), "")
	}
	if !result.Has("raw") {
		result["raw"] = raw
	}

	return result
}

func titleOf(raw models.Document, fallback string) string {
	return extract.String(firstOf(raw, "title", "product_title"), fallback)
}

func firstOf(raw models.Document, keys ...string) any {
	v, _ := raw.First(keys...)
	return v
}

func encode(raw models.Document) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errEmptyRaw
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload: %w", err)
	}
	return body, nil
}

func failed(err error) models.Document {
	return models.Document{
		"error":   ProcessingFailed,
		"message": "Both scorer and local processing failed: " + err.Error(),
	}
}
