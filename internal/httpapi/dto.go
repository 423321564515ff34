package httpapi

import (
	"encoding/json"
	"time"

	"github.com/Houeta/buywise/internal/analysis"
	"github.com/Houeta/buywise/internal/extract"
	"github.com/Houeta/buywise/internal/models"
)

const (
	defaultCategory  = "Electronics"
	defaultAISummary = "Analysis completed successfully."
)

type ProductDTO struct {
	ID            int64           `json:"id"`
	ProductID     string          `json:"productId"`
	Name          string          `json:"productName"`
	Brand         string          `json:"brand"`
	ImageURL      string          `json:"imageUrl"`
	Link          string          `json:"productLink"`
	LastPrice     *float64        `json:"lastPrice"`
	Specification models.Document `json:"specification"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func toProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		ProductID:     p.ExternalID,
		Name:          p.Name,
		Brand:         p.Brand,
		ImageURL:      p.ImageURL,
		Link:          p.Link,
		LastPrice:     p.LastPrice,
		Specification: p.Specification,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// CacheDTO carries the payload as a JSON string, the way clients store it.
type CacheDTO struct {
	ID        int64     `json:"id"`
	ProductID string    `json:"productId"`
	RawJSON   string    `json:"rawJson"`
	CachedAt  time.Time `json:"cachedAt"`
	ExpiryAt  time.Time `json:"expiryAt"`
}

func toCacheDTO(entry *models.RawCache) CacheDTO {
	raw, err := json.Marshal(entry.Payload)
	if err != nil || entry.Payload == nil {
		raw = []byte("{}")
	}
	return CacheDTO{
		ID:        entry.ID,
		ProductID: entry.ExternalID,
		RawJSON:   string(raw),
		CachedAt:  entry.CachedAt,
		ExpiryAt:  entry.ExpiryAt,
	}
}

type PriceDTO struct {
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recordedAt"`
}

func toPriceDTOs(history []models.PriceHistory) []PriceDTO {
	out := make([]PriceDTO, 0, len(history))
	for _, h := range history {
		out = append(out, PriceDTO{Price: h.Price, RecordedAt: h.RecordedAt})
	}
	return out
}

type AnalysisDTO struct {
	ID          int64          `json:"id"`
	ProductID   string         `json:"productId"`
	UserID      *int64         `json:"userId,omitempty"`
	TotalScore  int            `json:"totalScore"`
	Verdict     models.Verdict `json:"verdict"`
	Summary     string         `json:"summary"`
	Pros        []any          `json:"pros"`
	Cons        []any          `json:"cons"`
	KeyFeatures any            `json:"keyFeatures"`
	AnalyzedAt  time.Time      `json:"analyzedAt"`
}

func toAnalysisDTO(a *models.AnalysisResult, externalID string) AnalysisDTO {
	return AnalysisDTO{
		ID:          a.ID,
		ProductID:   externalID,
		UserID:      a.UserID,
		TotalScore:  a.TotalScore,
		Verdict:     a.Verdict,
		Summary:     a.Summary,
		Pros:        decodeList(a.Pros),
		Cons:        decodeList(a.Cons),
		KeyFeatures: decodeAny(a.KeyFeatures),
		AnalyzedAt:  a.AnalyzedAt,
	}
}

type DetailedProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
	Category string  `json:"category"`
}

type Insights struct {
	Positive []any `json:"positive"`
	Negative []any `json:"negative"`
}

// DetailedAnalysisDTO is the analysis page view. Scores are derived from the
// total, they are not stored.
type DetailedAnalysisDTO struct {
	Product      DetailedProduct       `json:"product"`
	OverallScore int                   `json:"overallScore"`
	Verdict      models.Verdict        `json:"verdict"`
	Scores       models.DetailedScores `json:"scores"`
	Insights     Insights              `json:"insights"`
	AISummary    string                `json:"aiSummary"`
}

func toDetailedDTO(a *models.AnalysisResult, p *models.Product) DetailedAnalysisDTO {
	product := DetailedProduct{
		ID:       p.ExternalID,
		Name:     orDefault(p.Name, analysis.UnknownProduct),
		Brand:    orDefault(p.Brand, extract.UnknownBrand),
		ImageURL: orDefault(p.ImageURL, analysis.NoImageURL),
		Category: defaultCategory,
	}
	if p.LastPrice != nil {
		product.Price = *p.LastPrice
	}

	return DetailedAnalysisDTO{
		Product:      product,
		OverallScore: a.TotalScore,
		Verdict:      a.Verdict,
		Scores:       models.NewDetailedScores(a.TotalScore),
		Insights: Insights{
			Positive: decodeList(a.Pros),
			Negative: decodeList(a.Cons),
		},
		AISummary: orDefault(a.Summary, defaultAISummary),
	}
}

// decodeList parses a stored JSON array. Anything else reads as empty.
func decodeList(s string) []any {
	var list []any
	if err := json.Unmarshal([]byte(s), &list); err != nil || list == nil {
		return []any{}
	}
	return list
}

// decodeAny parses stored JSON, falling back to the raw text.
func decodeAny(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
