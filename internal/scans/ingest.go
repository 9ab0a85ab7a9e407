package scans

import (
	"time"

	"github.com/franckalain/nutriscan/internal/apperr"
	"github.com/franckalain/nutriscan/internal/models"
)

// BuildRecord turns a producer payload into the canonical record that gets
// persisted. It fails only when userId is missing.
//
// The payload's own scan time is ignored: scannedAt and createdAt are both
// the ingestion instant.
func BuildRecord(p models.ScanPayload, id string, now time.Time) (*models.ScanRecord, error) {
	userID, ok := firstTruthy(p, []string{"userId"})
	if !ok {
		return nil, apperr.Validationf("userId is required")
	}

	name, ok := firstTruthy(p, productNameFields)
	if !ok {
		name = unnamedProduct
	}

	source, ok := firstTruthy(p, []string{"source"})
	if !ok {
		source = "manual"
	}

	rec := &models.ScanRecord{
		ID:           id,
		UserID:       userID,
		ProductName:  name,
		DetectedName: optionalString(p, detectedNameFields...),
		Brand:        optionalString(p, "brand"),
		Category:     optionalString(p, "category"),
		Barcode:      optionalString(p, "barcode"),
		HealthScore:  healthScore(p, healthScoreFields),
		Ingredients:  asArray(p["ingredients"]),
		Warnings:     asArray(p["warnings"]),
		Nutrition:    asObject(p["nutrition"]),
		ImageURL:     optionalString(p, imageURLFields...),
		Source:       source,
		ScannedAt:    now,
		CreatedAt:    now,
	}
	setNutrients(rec, p)
	return rec, nil
}

func setNutrients(rec *models.ScanRecord, p models.ScanPayload) {
	targets := map[string]**float64{
		"calories":    &rec.Calories,
		"sugar":       &rec.Sugar,
		"protein":     &rec.Protein,
		"fat":         &rec.Fat,
		"carbs":       &rec.Carbs,
		"sodium":      &rec.Sodium,
		"fiber":       &rec.Fiber,
		"servingSize": &rec.ServingSize,
	}
	for _, nf := range nutrientFields {
		*targets[nf.key] = optionalNumber(p, nf.spelling)
	}
}
