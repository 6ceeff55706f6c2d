package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"egadget-storefront/internal/models"
)

const productColumns = `id, name, description, price, original_price, discount, rating, stock, sold,
	category, brand, sku, images, features, is_new, featured, trending, created_at`

// PostgresSource reads the catalogue from a products table. images and
// features are JSON arrays stored as text.
type PostgresSource struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Products(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			slog.Error("Error scanning product row", "error", err)
			continue
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during product row iteration: %w", err)
	}
	return products, nil
}

func (s *PostgresSource) Product(ctx context.Context, id string) (models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (models.Product, error) {
	var (
		p             models.Product
		description   sql.NullString
		originalPrice sql.NullFloat64
		brand, sku    sql.NullString
		images        sql.NullString
		features      sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Name, &description, &p.Price, &originalPrice, &p.Discount, &p.Rating, &p.Stock, &p.Sold,
		&p.Category, &brand, &sku, &images, &features, &p.IsNew, &p.Featured, &p.Trending, &p.CreatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}

	p.Description = description.String
	p.FullDescription = description.String
	p.OriginalPrice = originalPrice.Float64
	p.Brand = brand.String
	p.SKU = sku.String
	p.Images = decodeList(images)
	p.Features = decodeList(features)
	p.Reviews = []models.Review{}
	return p, nil
}

func decodeList(s sql.NullString) []string {
	out := []string{}
	if !s.Valid || s.String == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		slog.Warn("Ignoring malformed JSON list column", "error", err)
		return []string{}
	}
	return out
}
