package database

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/franckalain/nutriscan/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB interface defines the methods our database should implement
type DB interface {
	SaveScan(ctx context.Context, rec *models.ScanRecord) error
	GetScan(ctx context.Context, id string) (*models.ScanRecord, error)
	ListScansByUser(ctx context.Context, userID string) ([]*models.ScanRecord, error)
	DeleteScanOwned(ctx context.Context, id, userID string) (bool, error)
	Close() error
}

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	slog.Debug("database schema initialized")
	return nil
}

const scanColumns = `
	id, user_id, product_name, detected_name, brand, category, barcode,
	health_score, calories, sugar, protein, fat, carbs, sodium, fiber, serving_size,
	ingredients, warnings, nutrition, image_url, source, scanned_at, created_at`

// SaveScan inserts a new scan record
func (s *SQLiteDB) SaveScan(ctx context.Context, rec *models.ScanRecord) error {
	ingredients, err := json.Marshal(nonNil(rec.Ingredients))
	if err != nil {
		return fmt.Errorf("error encoding ingredients: %w", err)
	}
	warnings, err := json.Marshal(nonNil(rec.Warnings))
	if err != nil {
		return fmt.Errorf("error encoding warnings: %w", err)
	}
	var nutrition any
	if rec.Nutrition != nil {
		b, err := json.Marshal(rec.Nutrition)
		if err != nil {
			return fmt.Errorf("error encoding nutrition: %w", err)
		}
		nutrition = string(b)
	}

	query := `INSERT INTO scans (` + scanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.ProductName,
		nullString(rec.DetectedName), nullString(rec.Brand), nullString(rec.Category), nullString(rec.Barcode),
		rec.HealthScore,
		nullFloat(rec.Calories), nullFloat(rec.Sugar), nullFloat(rec.Protein), nullFloat(rec.Fat),
		nullFloat(rec.Carbs), nullFloat(rec.Sodium), nullFloat(rec.Fiber), nullFloat(rec.ServingSize),
		string(ingredients), string(warnings), nutrition,
		nullString(rec.ImageURL), rec.Source,
		formatTime(rec.ScannedAt), formatTime(rec.CreatedAt),
	)
	return err
}

// GetScan retrieves a scan by id. A missing scan is (nil, nil).
func (s *SQLiteDB) GetScan(ctx context.Context, id string) (*models.ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListScansByUser returns every scan of a user, most recent scan first
func (s *SQLiteDB) ListScansByUser(ctx context.Context, userID string) ([]*models.ScanRecord, error) {
	query := `SELECT ` + scanColumns + `
		FROM scans
		WHERE user_id = ?
		ORDER BY scanned_at DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*models.ScanRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// DeleteScanOwned deletes a scan only if userID owns it. It reports whether a
// row was removed.
func (s *SQLiteDB) DeleteScanOwned(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ScanRecord, error) {
	var (
		rec                                              models.ScanRecord
		detectedName, brand, category, barcode, imageURL sql.NullString
		nutrition                                        sql.NullString
		calories, sugar, protein, fat, carbs, sodium     sql.NullFloat64
		fiber, servingSize                               sql.NullFloat64
		ingredients, warnings, scannedAt, createdAt      string
	)

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.ProductName, &detectedName, &brand, &category, &barcode,
		&rec.HealthScore, &calories, &sugar, &protein, &fat, &carbs, &sodium, &fiber, &servingSize,
		&ingredients, &warnings, &nutrition, &imageURL, &rec.Source, &scannedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.DetectedName = stringPtr(detectedName)
	rec.Brand = stringPtr(brand)
	rec.Category = stringPtr(category)
	rec.Barcode = stringPtr(barcode)
	rec.ImageURL = stringPtr(imageURL)

	rec.Calories = floatPtr(calories)
	rec.Sugar = floatPtr(sugar)
	rec.Protein = floatPtr(protein)
	rec.Fat = floatPtr(fat)
	rec.Carbs = floatPtr(carbs)
	rec.Sodium = floatPtr(sodium)
	rec.Fiber = floatPtr(fiber)
	rec.ServingSize = floatPtr(servingSize)

	if err := json.Unmarshal([]byte(ingredients), &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("error decoding ingredients of scan %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("error decoding warnings of scan %s: %w", rec.ID, err)
	}
	rec.Ingredients = nonNil(rec.Ingredients)
	rec.Warnings = nonNil(rec.Warnings)
	if nutrition.Valid {
		if err := json.Unmarshal([]byte(nutrition.String), &rec.Nutrition); err != nil {
			return nil, fmt.Errorf("error decoding nutrition of scan %s: %w", rec.ID, err)
		}
	}

	if rec.ScannedAt, err = time.Parse(timeLayout, scannedAt); err != nil {
		return nil, fmt.Errorf("error parsing scanned_at of scan %s: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("error parsing created_at of scan %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func nonNil(a []any) []any {
	if a == nil {
		return []any{}
	}
	return a
}
