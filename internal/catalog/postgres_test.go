package catalog

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "name", "description", "price", "original_price", "discount", "rating", "stock", "sold",
	"category", "brand", "sku", "images", "features", "is_new", "featured", "trending", "created_at",
}

func TestPostgresSource_Products(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("1", "TechPro UltraBook X5", "Ultrabook", 65999.0, 72999.0, 10.0, 4.8, 15, 120,
			"Laptops", "TechPro", "TP-UBX5", `["a.jpg","b.jpg"]`, `["12-core"]`, true, true, false, created).
		AddRow("3", "SoundWave Pro Buds", nil, 4499.0, nil, 0.0, 4.4, 3, 900,
			"Audio", nil, nil, nil, "not json", false, false, true, created)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY name ASC")).WillReturnRows(rows)

	products, err := NewPostgresSource(db).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "TechPro UltraBook X5", first.Name)
	assert.Equal(t, 72999.0, first.OriginalPrice)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, first.Images)
	assert.Equal(t, "a.jpg", first.FirstImage())
	assert.True(t, first.Featured)
	assert.Equal(t, created, first.CreatedAt)

	second := products[1]
	assert.Empty(t, second.Description)
	assert.Zero(t, second.OriginalPrice)
	assert.Empty(t, second.Brand)
	assert.Equal(t, []string{}, second.Images)
	assert.Equal(t, []string{}, second.Features)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_Product(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := NewPostgresSource(db)
	query := regexp.QuoteMeta("FROM products WHERE id = $1")

	mock.ExpectQuery(query).WithArgs("4").WillReturnRows(sqlmock.NewRows(columns).
		AddRow("4", "PixelView 27 Monitor", "4K", 18750.0, nil, 0.0, 4.5, 8, 40,
			"Monitors", "PixelView", "PV-27", `[]`, `[]`, false, true, false, time.Now()))
	p, err := src.Product(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, 18750.0, p.Price)

	mock.ExpectQuery(query).WithArgs("99").WillReturnError(sql.ErrNoRows)
	_, err = src.Product(context.Background(), "99")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(query).WithArgs("5").WillReturnError(sql.ErrConnDone)
	_, err = src.Product(context.Background(), "5")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
