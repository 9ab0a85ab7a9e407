package scans

import (
	"testing"
	"time"

	"github.com/franckalain/nutriscan/internal/apperr"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ingestTime = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

func TestBuildRecord_RequiresUserID(t *testing.T) {
	for _, p := range []models.ScanPayload{
		{},
		{"userId": ""},
		{"userId": nil, "productName": "Oats"},
	} {
		rec, err := BuildRecord(p, "id-1", ingestTime)
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "userId")
	}
}

func TestBuildRecord_Defaults(t *testing.T) {
	rec, err := BuildRecord(models.ScanPayload{"userId": "u1"}, "id-1", ingestTime)
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "Unnamed Product", rec.ProductName)
	assert.Equal(t, "manual", rec.Source)
	assert.Zero(t, rec.HealthScore)
	assert.Nil(t, rec.DetectedName)
	assert.Nil(t, rec.Brand)
	assert.Nil(t, rec.Category)
	assert.Nil(t, rec.Barcode)
	assert.Nil(t, rec.ImageURL)
	assert.Nil(t, rec.Nutrition)
	assert.Equal(t, []any{}, rec.Ingredients)
	assert.Equal(t, []any{}, rec.Warnings)
	assert.Equal(t, ingestTime, rec.ScannedAt)
	assert.Equal(t, ingestTime, rec.CreatedAt)

	for name, v := range map[string]*float64{
		"calories": rec.Calories, "sugar": rec.Sugar, "protein": rec.Protein, "fat": rec.Fat,
		"carbs": rec.Carbs, "sodium": rec.Sodium, "fiber": rec.Fiber, "servingSize": rec.ServingSize,
	} {
		assert.Nil(t, v, "%s should be null when omitted", name)
	}
}

func TestBuildRecord_ProductNamePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		payload models.ScanPayload
		want    string
	}{
		{"explicit name wins", models.ScanPayload{"productName": "Oats", "detected_name": "X", "brand": "Y"}, "Oats"},
		{"detected name over brand", models.ScanPayload{"detected_name": "X", "brand": "Y"}, "X"},
		{"name over product_name", models.ScanPayload{"name": "N", "product_name": "P"}, "N"},
		{"product_name over brand", models.ScanPayload{"product_name": "P", "brand": "Y"}, "P"},
		{"brand last", models.ScanPayload{"brand": "Y"}, "Y"},
		{"empty string is skipped", models.ScanPayload{"productName": "", "detected_name": "X"}, "X"},
		{"zero is skipped", models.ScanPayload{"productName": 0.0, "brand": "Y"}, "Y"},
		{"nothing usable", models.ScanPayload{"productName": "", "brand": nil}, "Unnamed Product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.payload["userId"] = "u1"
			rec, err := BuildRecord(tt.payload, "id", ingestTime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.ProductName)
		})
	}
}

func TestBuildRecord_HealthScoreIsNullish(t *testing.T) {
	tests := []struct {
		name    string
		payload models.ScanPayload
		want    float64
	}{
		{"camel case", models.ScanPayload{"healthScore": 85.0}, 85},
		{"snake case", models.ScanPayload{"health_score": 40.0}, 40},
		{"explicit zero wins", models.ScanPayload{"healthScore": 0.0, "health_score": 90.0}, 0},
		{"null falls through", models.ScanPayload{"healthScore": nil, "health_score": 90.0}, 90},
		{"out of range kept", models.ScanPayload{"healthScore": 140.0}, 140},
		{"numeric string", models.ScanPayload{"healthScore": "72"}, 72},
		{"absent", models.ScanPayload{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.payload["userId"] = "u1"
			rec, err := BuildRecord(tt.payload, "id", ingestTime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.HealthScore)
		})
	}
}

func TestBuildRecord_NumericFields(t *testing.T) {
	rec, err := BuildRecord(models.ScanPayload{
		"userId":       "u1",
		"calories":     "250",
		"sugar":        12.5,
		"protein":      "8g",
		"fat":          0.0,
		"carbs":        "n/a",
		"sodium":       true,
		"fiber":        nil,
		"serving_size": "30",
	}, "id", ingestTime)
	require.NoError(t, err)

	require.NotNil(t, rec.Calories)
	assert.Equal(t, 250.0, *rec.Calories)
	require.NotNil(t, rec.Sugar)
	assert.Equal(t, 12.5, *rec.Sugar)
	require.NotNil(t, rec.Protein)
	assert.Equal(t, 8.0, *rec.Protein)
	require.NotNil(t, rec.Fat, "zero must stay distinct from absent")
	assert.Equal(t, 0.0, *rec.Fat)
	assert.Nil(t, rec.Carbs)
	assert.Nil(t, rec.Sodium)
	assert.Nil(t, rec.Fiber)
	require.NotNil(t, rec.ServingSize)
	assert.Equal(t, 30.0, *rec.ServingSize)
}

func TestBuildRecord_ArraysAreCoerced(t *testing.T) {
	rec, err := BuildRecord(models.ScanPayload{
		"userId":      "u1",
		"ingredients": "not an array",
		"warnings":    nil,
	}, "id", ingestTime)
	require.NoError(t, err)
	assert.Equal(t, []any{}, rec.Ingredients)
	assert.Equal(t, []any{}, rec.Warnings)

	rec, err = BuildRecord(models.ScanPayload{
		"userId":      "u1",
		"ingredients": []any{"oats", 3.0, nil},
		"warnings":    []any{"gluten"},
	}, "id", ingestTime)
	require.NoError(t, err)
	assert.Equal(t, []any{"oats", 3.0, nil}, rec.Ingredients)
	assert.Equal(t, []any{"gluten"}, rec.Warnings)
}

func TestBuildRecord_IgnoresClientScanTime(t *testing.T) {
	rec, err := BuildRecord(models.ScanPayload{
		"userId":    "u1",
		"scannedAt": "2020-01-01T10:00:00Z",
		"createdAt": "2020-01-01T10:00:00Z",
	}, "id", ingestTime)
	require.NoError(t, err)
	assert.Equal(t, ingestTime, rec.ScannedAt)
	assert.Equal(t, ingestTime, rec.CreatedAt)
}

func TestBuildRecord_OptionalStrings(t *testing.T) {
	rec, err := BuildRecord(models.ScanPayload{
		"userId":        "u1",
		"detected_name": "Granola",
		"brand":         "Acme",
		"category":      "",
		"barcode":       "4006381333931",
		"image_url":     "https://img.example/1.jpg",
		"nutrition":     map[string]any{"per": "100g"},
		"source":        "scanner",
	}, "id", ingestTime)
	require.NoError(t, err)

	require.NotNil(t, rec.DetectedName)
	assert.Equal(t, "Granola", *rec.DetectedName)
	require.NotNil(t, rec.Brand)
	assert.Equal(t, "Acme", *rec.Brand)
	assert.Nil(t, rec.Category)
	require.NotNil(t, rec.Barcode)
	assert.Equal(t, "4006381333931", *rec.Barcode)
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, "https://img.example/1.jpg", *rec.ImageURL)
	assert.Equal(t, map[string]any{"per": "100g"}, rec.Nutrition)
	assert.Equal(t, "scanner", rec.Source)
	assert.Equal(t, "Granola", rec.ProductName)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{12.0, 12, true},
		{"3.5", 3.5, true},
		{" 42 kcal", 42, true},
		{".5", 0.5, true},
		{"-2", -2, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"", 0, false},
		{"Infinity", 0, false},
		{nil, 0, false},
		{false, 0, false},
		{[]any{1.0}, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "parseNumber(%#v)", tt.in)
		assert.Equal(t, tt.want, got, "parseNumber(%#v)", tt.in)
	}
}
