package models_test

import (
	"testing"
	"time"

	"github.com/Houeta/buywise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		doc, err := models.ParseDocument([]byte(`{"asin":"B01","price":12.5,"raw":{"brand":"X"}}`))
		require.NoError(t, err)
		assert.Equal(t, "B01", doc["asin"])
		assert.InDelta(t, 12.5, doc["price"], 0)

		raw, ok := doc.Object("raw")
		require.True(t, ok)
		assert.Equal(t, "X", raw["brand"])
	})

	t.Run("not_an_object", func(t *testing.T) {
		_, err := models.ParseDocument([]byte(`null`))
		require.ErrorIs(t, err, models.ErrNotAnObject)
	})

	t.Run("array", func(t *testing.T) {
		_, err := models.ParseDocument([]byte(`[1,2]`))
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := models.ParseDocument([]byte(`{`))
		require.ErrorContains(t, err, "failed to decode document")
	})
}

func TestDocument_ValueAndScan(t *testing.T) {
	var empty models.Document
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	doc := models.Document{"a": "b"}
	v, err = doc.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, v.(string))

	var scanned models.Document
	require.NoError(t, scanned.Scan([]byte(`{"a":"b"}`)))
	assert.Equal(t, doc, scanned)

	require.NoError(t, scanned.Scan(`{"c":1}`))
	assert.InDelta(t, 1.0, scanned["c"], 0)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	require.ErrorContains(t, scanned.Scan(42), "unsupported document source int")
}

func TestDocument_Accessors(t *testing.T) {
	doc := models.Document{
		"title":         nil,
		"product_title": "Phone",
		"nested":        map[string]any{"k": "v"},
		"flat":          "x",
	}

	assert.False(t, doc.Has("title"))
	assert.True(t, doc.Has("product_title"))
	assert.False(t, doc.Has("missing"))

	v, ok := doc.First("title", "product_title")
	require.True(t, ok)
	assert.Equal(t, "Phone", v)

	_, ok = doc.First("title", "missing")
	assert.False(t, ok)

	nested, ok := doc.Object("nested")
	require.True(t, ok)
	assert.Equal(t, "v", nested["k"])

	_, ok = doc.Object("flat")
	assert.False(t, ok)

	clone := doc.Clone()
	clone["extra"] = true
	assert.NotContains(t, doc, "extra")
}

func TestVerdictFromDecision(t *testing.T) {
	assert.Equal(t, models.VerdictBuy, models.VerdictFromDecision("BUY"))
	assert.Equal(t, models.VerdictNotBuy, models.VerdictFromDecision("buy"))
	assert.Equal(t, models.VerdictNotBuy, models.VerdictFromDecision(""))
	assert.Equal(t, models.VerdictNotBuy, models.VerdictFromDecision("SKIP"))
}

func TestNewDetailedScores(t *testing.T) {
	tests := []struct {
		total int
		want  models.DetailedScores
	}{
		{75, models.DetailedScores{Sentiment: 80, FeatureQuality: 72, BrandReliability: 77, RatingReview: 70, Consistency: 76}},
		{98, models.DetailedScores{Sentiment: 100, FeatureQuality: 95, BrandReliability: 100, RatingReview: 93, Consistency: 99}},
		{2, models.DetailedScores{Sentiment: 7, FeatureQuality: 0, BrandReliability: 4, RatingReview: 0, Consistency: 3}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, models.NewDetailedScores(tt.total), "total=%d", tt.total)
	}
}

func TestRawCache_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := models.RawCache{ExpiryAt: now}

	assert.True(t, entry.Expired(now), "expiry instant counts as expired")
	assert.True(t, entry.Expired(now.Add(time.Second)))
	assert.False(t, entry.Expired(now.Add(-time.Second)))
}

func TestPriceChange_Dropped(t *testing.T) {
	assert.True(t, models.PriceChange{Old: 20, New: 5}.Dropped())
	assert.False(t, models.PriceChange{Old: 10, New: 20}.Dropped())
	assert.False(t, models.PriceChange{Old: 10, New: 10}.Dropped())
}
