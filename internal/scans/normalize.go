package scans

import (
	"math"
	"time"

	"github.com/araddon/dateparse"
	"github.com/franckalain/nutriscan/internal/models"
)

// HealthyThreshold is the score from which a scan counts as a healthy choice
const HealthyThreshold = 70

// Normalize maps a stored or raw record into the view model. It is the only
// place that knows which spellings map to which display field; every consumer
// goes through it.
func Normalize(p models.ScanPayload, now time.Time) models.ScanView {
	name, ok := firstTruthy(p, productNameFields)
	if !ok {
		name = unnamedProduct
	}
	id, _ := firstTruthy(p, []string{"id"})
	brand, _ := firstTruthy(p, []string{"brand"})
	category, _ := firstTruthy(p, []string{"category"})
	imageURL, _ := firstTruthy(p, imageURLFields)
	source, ok := firstTruthy(p, []string{"source"})
	if !ok {
		source = "manual"
	}
	score := healthScore(p, viewScoreFields)

	v := models.ScanView{
		ID:          id,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Score:       score,
		Healthy:     score >= HealthyThreshold,
		Date:        scanDate(p, now),
		Ingredients: asArray(p["ingredients"]),
		Warnings:    asArray(p["warnings"]),
		ImageURL:    imageURL,
		Source:      source,
	}
	nutrients := map[string]**float64{
		"calories": &v.Calories,
		"sugar":    &v.Sugar,
		"protein":  &v.Protein,
		"fat":      &v.Fat,
		"carbs":    &v.Carbs,
		"sodium":   &v.Sodium,
		"fiber":    &v.Fiber,
	}
	for _, nf := range nutrientFields {
		if target, ok := nutrients[nf.key]; ok {
			*target = optionalNumber(p, nf.spelling)
		}
	}
	return v
}

// NormalizeRecords normalizes stored records, keeping their order
func NormalizeRecords(records []*models.ScanRecord, now time.Time) []models.ScanView {
	views := make([]models.ScanView, 0, len(records))
	for _, r := range records {
		views = append(views, Normalize(r.Payload(), now))
	}
	return views
}

// scanDate probes the timestamp spellings in order and returns the first one
// that parses. When none does the record is shown as scanned now.
func scanDate(p models.ScanPayload, now time.Time) time.Time {
	for _, f := range scannedAtFields {
		if t, ok := parseTime(p[f], now.Location()); ok {
			return t
		}
	}
	return now
}

func parseTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if t == "" {
			return time.Time{}, false
		}
		parsed, err := dateparse.ParseIn(t, loc)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case float64:
		// epoch milliseconds
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).In(loc), true
	}
	return time.Time{}, false
}
