package models

import (
	"time"
)

// ScanPayload is a loosely-shaped scan as sent by a producer (manual entry,
// the mock scanner, the camera scanner). Field names vary by producer.
type ScanPayload map[string]any

// ScanRecord represents one persisted food-item observation
type ScanRecord struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	ProductName  string  `json:"productName"`
	DetectedName *string `json:"detectedName"`
	Brand        *string `json:"brand"`
	Category     *string `json:"category"`
	Barcode      *string `json:"barcode"`
	HealthScore  float64 `json:"healthScore"` // not range checked

	// Nutrition facts; nil means the producer did not supply a value
	Calories    *float64 `json:"calories"`
	Sugar       *float64 `json:"sugar"`
	Protein     *float64 `json:"protein"`
	Fat         *float64 `json:"fat"`
	Carbs       *float64 `json:"carbs"`
	Sodium      *float64 `json:"sodium"`
	Fiber       *float64 `json:"fiber"`
	ServingSize *float64 `json:"servingSize"`

	Ingredients []any          `json:"ingredients"`
	Warnings    []any          `json:"warnings"`
	Nutrition   map[string]any `json:"nutrition"`
	ImageURL    *string        `json:"imageUrl"`
	Source      string         `json:"source"` // "manual", "scanner", "camera"

	ScannedAt time.Time `json:"scannedAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Payload exposes the record under its canonical field names so it can be fed
// through the same normalizer as raw producer payloads.
func (r *ScanRecord) Payload() ScanPayload {
	p := ScanPayload{
		"id":          r.ID,
		"userId":      r.UserID,
		"productName": r.ProductName,
		"healthScore": r.HealthScore,
		"ingredients": r.Ingredients,
		"warnings":    r.Warnings,
		"source":      r.Source,
		"scannedAt":   r.ScannedAt,
		"createdAt":   r.CreatedAt,
	}
	for key, v := range map[string]*string{
		"detectedName": r.DetectedName,
		"brand":        r.Brand,
		"category":     r.Category,
		"barcode":      r.Barcode,
		"imageUrl":     r.ImageURL,
	} {
		if v != nil {
			p[key] = *v
		}
	}
	for key, v := range map[string]*float64{
		"calories":    r.Calories,
		"sugar":       r.Sugar,
		"protein":     r.Protein,
		"fat":         r.Fat,
		"carbs":       r.Carbs,
		"sodium":      r.Sodium,
		"fiber":       r.Fiber,
		"servingSize": r.ServingSize,
	} {
		if v != nil {
			p[key] = *v
		}
	}
	if r.Nutrition != nil {
		p["nutrition"] = r.Nutrition
	}
	return p
}

// ScanView is the display model every consumer (dashboard, history list,
// recent-scans widget) renders from.
type ScanView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Score       float64   `json:"score"`
	Healthy     bool      `json:"healthy"`
	Date        time.Time `json:"date"`
	Calories    *float64  `json:"calories"`
	Sugar       *float64  `json:"sugar"`
	Protein     *float64  `json:"protein"`
	Fat         *float64  `json:"fat"`
	Carbs       *float64  `json:"carbs"`
	Sodium      *float64  `json:"sodium"`
	Fiber       *float64  `json:"fiber"`
	Ingredients []any     `json:"ingredients"`
	Warnings    []any     `json:"warnings"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
}

// WeeklyBucket aggregates one calendar day of the trailing week
type WeeklyBucket struct {
	Day          string `json:"day"`  // weekday short name, e.g. "Mon"
	Date         string `json:"date"` // YYYY-MM-DD
	Count        int    `json:"count"`
	HealthyCount int    `json:"healthyCount"`
	AverageScore int    `json:"averageScore"`
}

// Summary holds the dashboard aggregates for one user
type Summary struct {
	TotalScans   int            `json:"totalScans"`
	AverageScore int            `json:"averageScore"`
	HealthyCount int            `json:"healthyCount"`
	SuccessRate  int            `json:"successRate"`
	Streak       int            `json:"streak"`
	Weekly       []WeeklyBucket `json:"weekly"`
	Recent       []ScanView     `json:"recent"`
}
