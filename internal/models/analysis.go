package models

import "time"

// Verdict is the two-valued recommendation stored with every analysis.
type Verdict string

const (
	VerdictBuy    Verdict = "BUY"
	VerdictNotBuy Verdict = "NOT_BUY"
)

// VerdictFromDecision maps a collaborator decision onto a Verdict by exact match.
func VerdictFromDecision(decision string) Verdict {
	if decision == string(VerdictBuy) {
		return VerdictBuy
	}
	return VerdictNotBuy
}

// AnalysisResult is a scored analysis of a product. Pros, Cons and KeyFeatures
// hold serialized JSON exactly as persisted.
type AnalysisResult struct {
	ID          int64
	ProductID   int64
	UserID      *int64
	TotalScore  int
	Verdict     Verdict
	Summary     string
	Pros        string
	Cons        string
	KeyFeatures string
	AnalyzedAt  time.Time
}

// DetailedScores are display sub-scores derived from the total score.
// They are a fixed offset transform, not an independent measurement.
type DetailedScores struct {
	Sentiment        int `json:"sentiment"`
	FeatureQuality   int `json:"featureQuality"`
	BrandReliability int `json:"brandReliability"`
	RatingReview     int `json:"ratingReview"`
	Consistency      int `json:"consistency"`
}

// NewDetailedScores derives the sub-scores for total.
func NewDetailedScores(total int) DetailedScores {
	return DetailedScores{
		Sentiment:        clampScore(total + 5),
		FeatureQuality:   clampScore(total - 3),
		BrandReliability: clampScore(total + 2),
		RatingReview:     clampScore(total - 5),
		Consistency:      clampScore(total + 1),
	}
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
