package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/Houeta/buywise/internal/extract"
	"github.com/Houeta/buywise/internal/models"
)

const (
	defaultScore   = 75
	defaultSummary = "Product analysis completed"
)

// specKeys are the specification entries worth surfacing as key features.
var specKeys = []string{
	"RAM", "Storage", "Battery", "Display", "Screen Size",
	"Processor", "CPU", "Camera", "OS", "Operating System",
	"Weight", "Color", "Warranty", "Brand",
}

// buildAnalysis maps a structured result onto the row that gets persisted.
func buildAnalysis(product *models.Product, structured models.Document, userID *int64) models.AnalysisResult {
	score := defaultScore
	if f, ok := extract.Number(structured["overall_score"]); ok {
		score = int(f * 100)
	}

	return models.AnalysisResult{
		ProductID:   product.ID,
		UserID:      userID,
		TotalScore:  score,
		Verdict:     models.VerdictFromDecision(extract.String(structured["decision"], "")),
		Summary:     extract.String(structured["reason"], defaultSummary),
		Pros:        serializeList(structured, "pros", "Good product features", "Product features are satisfactory"),
		Cons:        serializeList(structured, "cons", "No major issues found", "Limited information available"),
		KeyFeatures: keyFeatures(product, structured),
	}
}

// serializeList renders a list-valued key as a JSON array. A present but
// empty or odd value gets whenEmpty, a missing key gets whenMissing.
func serializeList(structured models.Document, key, whenEmpty, whenMissing string) string {
	v, ok := structured[key]
	if !ok {
		return mustJSON([]string{whenMissing})
	}

	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			return mustJSON(t)
		}
	case []string:
		if len(t) > 0 {
			return mustJSON(t)
		}
	case string:
		if t != "" {
			return t
		}
	}
	return mustJSON([]string{whenEmpty})
}

// keyFeatures prefers the collaborator's map and otherwise derives one from
// the stored specification.
func keyFeatures(product *models.Product, structured models.Document) string {
	for _, key := range []string{"key_features", "keyFeatures"} {
		switch t := structured[key].(type) {
		case map[string]any:
			if len(t) > 0 {
				return mustJSON(t)
			}
		case models.Document:
			if len(t) > 0 {
				return mustJSON(t)
			}
		case string:
			if key == "key_features" && t != "" {
				return t
			}
		}
	}

	return mustJSON(deriveFeatures(product))
}

func deriveFeatures(product *models.Product) map[string]string {
	features := make(map[string]string)

	source := product.Specification
	if raw, ok := source.Object("raw"); ok {
		source = raw
	}
	for _, key := range specKeys {
		for _, candidate := range []string{key, strings.ToLower(key)} {
			if v, ok := source[candidate]; ok && v != nil {
				features[key] = extract.PlainText(extract.String(v, ""))
			}
		}
	}

	if product.Brand != "" {
		features["Brand"] = product.Brand
	}
	if product.LastPrice != nil {
		features["Price"] = "₹" + extract.String(*product.LastPrice, "")
	}

	if len(features) == 0 {
		features["Product"] = product.Name
		features["Brand"] = "N/A"
	}
	return features
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
