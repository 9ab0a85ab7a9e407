package ml

import (
	"context"
	"fmt"

	"github.com/franckalain/nutriscan/internal/models"
)

// MockModel answers every image with the same product. It stands in for a
// real recognizer while the camera flow is developed.
type MockModel struct{}

// MockModelFactory implements ModelFactory for the mock scanner
type MockModelFactory struct{}

// NewMockModelFactory creates a new mock model factory
func NewMockModelFactory() *MockModelFactory {
	return &MockModelFactory{}
}

// CreateModel creates a new mock model instance
func (f *MockModelFactory) CreateModel() (Model, error) {
	return &MockModel{}, nil
}

// Load does nothing; the mock has no state
func (m *MockModel) Load(ctx context.Context) error {
	return nil
}

// ProcessImage returns the hardcoded scan result
func (m *MockModel) ProcessImage(ctx context.Context, imageData []byte) (models.ScanPayload, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return models.ScanPayload{
		"detected_name": "Organic Rolled Oats",
		"brand":         "Harvest Valley",
		"category":      "Breakfast Cereals",
		"barcode":       "0123456789012",
		"healthScore":   82.0,
		"calories":      150.0,
		"sugar":         1.0,
		"protein":       5.0,
		"fat":           2.5,
		"carbs":         27.0,
		"sodium":        0.0,
		"fiber":         4.0,
		"servingSize":   40.0,
		"ingredients":   []any{"whole grain rolled oats"},
		"warnings":      []any{"May contain traces of wheat"},
		"source":        "scanner",
	}, nil
}
