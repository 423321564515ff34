package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/buywise/internal/analysis"
	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"github.com/Houeta/buywise/internal/repository/sqlite"
)

var (
	ErrProductMismatch  = errors.New("analyzed product does not match the requested product")
	ErrFetchFailed      = errors.New("failed to fetch product details")
	ErrProcessingFailed = errors.New("failed to process product data")
	ErrNoResults        = errors.New("search returned no products")
)

// Fetcher is the catalog API as the pipeline sees it. Implementations never
// fail; they fall back to placeholder values instead.
type Fetcher interface {
	SearchIDs(ctx context.Context, query string) []string
	FetchDetails(ctx context.Context, id string) models.Document
	FetchReviews(ctx context.Context, id string) []models.Document
}

// Analyzer turns a raw payload into a structured result.
type Analyzer interface {
	Analyze(ctx context.Context, raw models.Document) models.Document
}

// Notifier is told about committed price changes.
type Notifier interface {
	NotifyPriceChange(ctx context.Context, change models.PriceChange) error
}

// Pipeline is an orchestrator that runs cache lookup, fetch, analysis and
// the transactional upsert of derived records.
type Pipeline struct {
	log      *slog.Logger
	store    sqlite.Store
	fetcher  Fetcher
	analyzer Analyzer
	notifier Notifier
	cacheTTL time.Duration
}

type Interface interface {
	// Analyze runs the full pipeline for one product and records an analysis.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)
	// SearchAndProcess resolves a query to its best match and upserts it.
	SearchAndProcess(ctx context.Context, query string) (*models.Product, error)
	// Search lists candidate products for a query without persisting anything.
	Search(ctx context.Context, query string) ([]Candidate, error)
	// Preview returns the structured result for a cached payload without persisting it.
	Preview(ctx context.Context, externalID string) (models.Document, error)
}

// New creates a Pipeline. notifier may be nil.
func New(
	log *slog.Logger,
	store sqlite.Store,
	fetcher Fetcher,
	analyzer Analyzer,
	notifier Notifier,
	cacheTTL time.Duration,
) *Pipeline {
	return &Pipeline{
		log:      log,
		store:    store,
		fetcher:  fetcher,
		analyzer: analyzer,
		notifier: notifier,
		cacheTTL: cacheTTL,
	}
}

type AnalyzeRequest struct {
	ProductID   string
	ProductName string
	UserID      *int64 // nil for anonymous callers
}

type AnalyzeResponse struct {
	ID           int64           `json:"id"`
	ProductID    string          `json:"productId"`
	Message      string          `json:"message"`
	OverallScore int             `json:"overallScore"`
	Verdict      models.Verdict  `json:"verdict"`
	Data         models.Document `json:"data"`
}

// Analyze performs the full analyze algorithm for req.ProductID.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	const opn = "pipeline.Analyze"
	log := p.log.With("op", opn, "product_id", req.ProductID)

	// 1. Raw payload from cache or catalog
	raw, err := p.rawPayload(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	// 2. Structured result
	structured := p.analyzer.Analyze(ctx, raw)
	if len(structured) == 0 {
		return nil, fmt.Errorf("%s: empty structured result: %w", opn, ErrProcessingFailed)
	}
	if structured["error"] == analysis.ProcessingFailed {
		return nil, fmt.Errorf("%s: %v: %w", opn, structured["message"], ErrProcessingFailed)
	}

	// 3. The collaborator must have analyzed the product that was asked for
	if echoed, ok := structured.Object("raw"); ok {
		if asin, _ := echoed["asin"].(string); asin != "" && asin != req.ProductID {
			log.WarnContext(ctx, "Product mismatch", "analyzed", asin)
			return nil, fmt.Errorf("%s: analyzed %s, requested %s: %w", opn, asin, req.ProductID, ErrProductMismatch)
		}
	}

	reviews := p.fetcher.FetchReviews(ctx, req.ProductID)

	// 4. Product, price and analysis commit together
	var (
		result models.AnalysisResult
		up     *upsert
	)
	err = p.store.WithTx(ctx, func(tx sqlite.Store) error {
		var txErr error
		up, txErr = upsertProduct(ctx, tx, req.ProductID, structured, reviews)
		if txErr != nil {
			return txErr
		}

		result = buildAnalysis(up.product, structured, req.UserID)
		return tx.InsertAnalysis(ctx, &result)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to persist analysis: %w", opn, err)
	}
	log.InfoContext(ctx, "Analysis stored",
		"analysis_id", result.ID, "score", result.TotalScore, "verdict", result.Verdict)

	p.notify(ctx, up.change)

	return &AnalyzeResponse{
		ID:           result.ID,
		ProductID:    up.product.ExternalID,
		Message:      "Analysis completed successfully",
		OverallScore: result.TotalScore,
		Verdict:      result.Verdict,
		Data:         structured,
	}, nil
}

// SearchAndProcess upserts the best match of query. No analysis row is written.
func (p *Pipeline) SearchAndProcess(ctx context.Context, query string) (*models.Product, error) {
	const opn = "pipeline.SearchAndProcess"
	log := p.log.With("op", opn, "query", query)

	ids := p.fetcher.SearchIDs(ctx, query)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: %w", opn, ErrNoResults)
	}
	id := ids[0]
	log.InfoContext(ctx, "Best match selected", "product_id", id, "candidates", len(ids))

	raw, err := p.rawPayload(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	reviews := p.fetcher.FetchReviews(ctx, id)

	var up *upsert
	err = p.store.WithTx(ctx, func(tx sqlite.Store) error {
		var txErr error
		up, txErr = upsertProduct(ctx, tx, id, raw, reviews)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to persist product: %w", opn, err)
	}

	p.notify(ctx, up.change)

	return up.product, nil
}

// Preview runs the analyzer over a valid cache entry and returns its output.
func (p *Pipeline) Preview(ctx context.Context, externalID string) (models.Document, error) {
	const opn = "pipeline.Preview"

	entry, err := p.store.GetCache(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return p.analyzer.Analyze(ctx, entry.Payload), nil
}

// rawPayload returns the cached payload for id, fetching and caching it on a miss.
func (p *Pipeline) rawPayload(ctx context.Context, id string) (models.Document, error) {
	log := p.log.With("op", "pipeline.rawPayload", "product_id", id)

	entry, err := p.store.GetCache(ctx, id)
	if err == nil {
		log.DebugContext(ctx, "Using cached payload")
		return entry.Payload, nil
	}
	if !errors.Is(err, repository.ErrCacheNotFound) {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	log.InfoContext(ctx, "No cached payload, fetching from catalog")
	details := p.fetcher.FetchDetails(ctx, id)
	if reason, failed := details["error"]; failed {
		return nil, fmt.Errorf("%v: %w", reason, ErrFetchFailed)
	}

	if err = p.store.PutCache(ctx, id, details, p.cacheTTL); err != nil {
		return nil, fmt.Errorf("failed to cache payload: %w", err)
	}

	return details, nil
}

func (p *Pipeline) notify(ctx context.Context, change *models.PriceChange) {
	if change == nil || p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyPriceChange(ctx, *change); err != nil {
		p.log.ErrorContext(ctx, "Failed to send price change notification",
			"op", "pipeline.notify", "product_id", change.ExternalID, "error", err)
	}
}
