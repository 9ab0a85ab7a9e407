package scans

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/franckalain/nutriscan/internal/models"
)

// Producers name the same field differently. Each list is the precedence
// order in which the spellings are probed.
var (
	productNameFields  = []string{"productName", "detected_name", "name", "product_name", "brand"}
	healthScoreFields  = []string{"healthScore", "health_score"}
	viewScoreFields    = []string{"healthScore", "health_score", "score"}
	detectedNameFields = []string{"detected_name", "detectedName"}
	imageURLFields     = []string{"imageUrl", "image_url"}
	scannedAtFields    = []string{"scanned_at", "scannedAt", "created_at", "createdAt", "timestamp", "updated_at", "updatedAt"}
)

// nutrientField pairs a canonical nutrient with the spellings producers use.
type nutrientField struct {
	key      string
	spelling []string
}

var nutrientFields = []nutrientField{
	{"calories", []string{"calories"}},
	{"sugar", []string{"sugar"}},
	{"protein", []string{"protein"}},
	{"fat", []string{"fat"}},
	{"carbs", []string{"carbs"}},
	{"sodium", []string{"sodium"}},
	{"fiber", []string{"fiber"}},
	{"servingSize", []string{"servingSize", "serving_size"}},
}

const unnamedProduct = "Unnamed Product"

// firstTruthy returns the first value among fields that is not falsy
// (missing, nil, "", 0, false), rendered as a string.
func firstTruthy(p models.ScanPayload, fields []string) (string, bool) {
	for _, f := range fields {
		switch v := p[f].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			if v != 0 && !math.IsNaN(v) {
				return strconv.FormatFloat(v, 'f', -1, 64), true
			}
		case int:
			if v != 0 {
				return strconv.Itoa(v), true
			}
		case bool:
			if v {
				return "true", true
			}
		}
	}
	return "", false
}

// firstDefined returns the first value among fields that is present and not
// nil. Falsy values such as 0 are kept.
func firstDefined(p models.ScanPayload, fields []string) (any, bool) {
	for _, f := range fields {
		if v, ok := p[f]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func optionalString(p models.ScanPayload, fields ...string) *string {
	s, ok := firstTruthy(p, fields)
	if !ok {
		return nil
	}
	return &s
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseNumber converts a JSON value to a finite float. Strings are read up to
// the first character that cannot belong to a number, so "12.5g" is 12.5.
func parseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(n))
		if m == "" {
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(m, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func optionalNumber(p models.ScanPayload, fields []string) *float64 {
	v, ok := firstDefined(p, fields)
	if !ok {
		return nil
	}
	f, ok := parseNumber(v)
	if !ok {
		return nil
	}
	return &f
}

// healthScore resolves the score with nullish precedence, defaulting to 0
func healthScore(p models.ScanPayload, fields []string) float64 {
	v, ok := firstDefined(p, fields)
	if !ok {
		return 0
	}
	f, _ := parseNumber(v)
	return f
}

// asArray keeps arrays as they are and turns anything else into an empty one
func asArray(v any) []any {
	switch a := v.(type) {
	case []any:
		return a
	case []string:
		out := make([]any, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out
	}
	return []any{}
}

func asObject(v any) map[string]any {
	switch o := v.(type) {
	case map[string]any:
		return o
	case models.ScanPayload:
		return o
	}
	return nil
}
