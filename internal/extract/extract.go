// Package extract coerces loosely-typed catalog fields into typed values.
// Every function here is total: malformed input yields a default, never an error.
package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnknownBrand is returned by Brand when no keyword matches.
const UnknownBrand = "Unknown Brand"

var (
	nonPriceChars  = regexp.MustCompile(`[^0-9.,]`)
	nonRatingChars = regexp.MustCompile(`[^0-9.]`)
	nonDigitChars  = regexp.MustCompile(`[^0-9]`)
	leadingNumber  = regexp.MustCompile(`^\d*\.?\d+`)
)

// brandKeywords is checked in order, first hit wins.
var brandKeywords = []struct {
	brand    string
	keywords []string
}{
	{"Apple", []string{"iphone", "apple"}},
	{"Samsung", []string{"samsung"}},
	{"OnePlus", []string{"oneplus"}},
	{"Vivo", []string{"vivo"}},
	{"Oppo", []string{"oppo"}},
	{"Xiaomi", []string{"xiaomi", "redmi"}},
	{"Asus", []string{"asus"}},
	{"Realme", []string{"realme"}},
	{"Motorola", []string{"motorola", "moto"}},
}

// Price turns "₹1,29,990" or 129990 into 129990.0. Anything unparsable is 0.
func Price(v any) float64 {
	if f, ok := Number(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}

	s = nonPriceChars.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Rating turns "4.5 out of 5" into 4.5.
func Rating(v any) float64 {
	if f, ok := Number(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}

	// "4.5 out of 5" collapses to "4.55" once letters go, so clean per token.
	for _, token := range strings.Fields(s) {
		m := leadingNumber.FindString(nonRatingChars.ReplaceAllString(token, ""))
		if m == "" {
			continue
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// ReviewCount turns "12,345 ratings" into 12345.
func ReviewCount(v any) int {
	if f, ok := Number(v); ok {
		return int(f)
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(nonDigitChars.ReplaceAllString(s, ""))
	if err != nil {
		return 0
	}
	return n
}

// Brand guesses the manufacturer from a product title.
func Brand(title string) string {
	lower := strings.ToLower(title)
	if lower == "" {
		return UnknownBrand
	}
	for _, b := range brandKeywords {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.brand
			}
		}
	}
	return UnknownBrand
}

// String renders v as text, or fallback when v is nil or empty.
func String(v any, fallback string) string {
	switch t := v.(type) {
	case nil:
		return fallback
	case string:
		if t == "" {
			return fallback
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// PlainText strips markup from catalog fields that sometimes carry HTML.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Number reports the value of any Go or JSON numeric type.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
