package extract_test

import (
	"encoding/json"
	"testing"

	"github.com/Houeta/buywise/internal/extract"
	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    any
		expected float64
	}{
		{name: "rupee with lakh grouping", input: "₹1,29,990", expected: 129990.0},
		{name: "plain number", input: 499.5, expected: 499.5},
		{name: "integer", input: 42, expected: 42},
		{name: "json number", input: json.Number("19.99"), expected: 19.99},
		{name: "decimal string", input: " $1,299.99 ", expected: 1299.99},
		{name: "nil", input: nil, expected: 0},
		{name: "free", input: "free", expected: 0},
		{name: "empty", input: "", expected: 0},
		{name: "two dots", input: "1.2.3", expected: 0},
		{name: "unexpected type", input: []string{"10"}, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.expected, extract.Price(tc.input), 1e-9)
		})
	}
}

func TestRating(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    any
		expected float64
	}{
		{name: "out of five", input: "4.5 out of 5", expected: 4.5},
		{name: "star text", input: "4.2 out of 5 stars", expected: 4.2},
		{name: "prefixed", input: "Rated 3.9 of 5", expected: 3.9},
		{name: "number", input: 4.0, expected: 4.0},
		{name: "string number", input: "4", expected: 4},
		{name: "garbage", input: "n/a", expected: 0},
		{name: "nil", input: nil, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.expected, extract.Rating(tc.input), 1e-9)
		})
	}
}

func TestReviewCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12345, extract.ReviewCount("12,345 ratings"))
	assert.Equal(t, 1234, extract.ReviewCount(1234.0))
	assert.Equal(t, 7, extract.ReviewCount(7))
	assert.Equal(t, 0, extract.ReviewCount("none"))
	assert.Equal(t, 0, extract.ReviewCount(nil))
	assert.Equal(t, 0, extract.ReviewCount(true))
}

func TestBrand(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"Apple iPhone 15 (128 GB) - Black": "Apple",
		"iphone 13":                        "Apple",
		"Samsung Galaxy S24 Ultra":         "Samsung",
		"OnePlus Nord CE4":                 "OnePlus",
		"vivo T3 5G":                       "Vivo",
		"OPPO A79":                         "Oppo",
		"Redmi Note 13 Pro":                "Xiaomi",
		"Xiaomi 14":                        "Xiaomi",
		"ASUS ROG Phone 8":                 "Asus",
		"realme narzo 70":                  "Realme",
		"Motorola Edge 50":                 "Motorola",
		"moto g84":                         "Motorola",
		"Test Phone":                       extract.UnknownBrand,
		"":                                 extract.UnknownBrand,
	}

	for title, expected := range testCases {
		assert.Equal(t, expected, extract.Brand(title), "title %q", title)
	}

	// Priority order decides when several keywords match.
	assert.Equal(t, "Apple", extract.Brand("Samsung case compatible with iPhone"))
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fallback", extract.String(nil, "fallback"))
	assert.Equal(t, "fallback", extract.String("", "fallback"))
	assert.Equal(t, "abc", extract.String("abc", "fallback"))
	assert.Equal(t, "19999", extract.String(19999.0, ""))
	assert.Equal(t, "true", extract.String(true, ""))
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain text", extract.PlainText("  plain text "))
	assert.Equal(t, "Big battery 5000 mAh", extract.PlainText("<ul><li>Big battery</li> <li>5000 mAh</li></ul>"))
	assert.Equal(t, "Fish & Chips", extract.PlainText("Fish &amp; Chips"))
}

func TestNumber(t *testing.T) {
	for _, input := range []any{7, int32(7), int64(7), float32(7), 7.0, json.Number("7")} {
		f, ok := extract.Number(input)
		assert.True(t, ok, "%T", input)
		assert.InDelta(t, 7.0, f, 0)
	}

	for _, input := range []any{nil, "7", true, json.Number("seven")} {
		_, ok := extract.Number(input)
		assert.False(t, ok, "%T", input)
	}
}
