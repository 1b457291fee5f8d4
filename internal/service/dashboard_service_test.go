package service

import (
	"bytes"
	"context"
	"testing"

	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDashboardStatsAndMovement(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	products := repository.NewProductRepo(db)
	svc := NewDashboardService(repository.NewStockMovementRepo(db), products)

	p := &model.Product{ProductName: "Lamp", SalePrice: 10, NumberInStock: 2}
	require.NoError(t, products.Create(ctx, p))
	_, err := products.AdjustStock(ctx, p.ID, 1, "admin")
	require.NoError(t, err)

	stats, err := svc.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalProducts)
	assert.InDelta(t, 30.0, stats.TotalValuation, 0.001)

	movement, err := svc.GetStockMovement(ctx, 0)
	require.NoError(t, err)
	require.Len(t, movement, 1)
	assert.Equal(t, 1, movement[0].Increments)
}

func TestExportProducts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	products := repository.NewProductRepo(db)
	svc := NewDashboardService(repository.NewStockMovementRepo(db), products)

	p := &model.Product{ProductName: "Lamp", Category: "Home", SalePrice: 10, NumberInStock: 2}
	p.SetImageURLs([]string{"https://img.example/a.jpg", "https://img.example/b.jpg"})
	require.NoError(t, products.Create(ctx, p))

	data, err := svc.ExportProducts(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Product Name", rows[0][1])
	assert.Equal(t, "Lamp", rows[1][1])
	assert.Equal(t, "Home", rows[1][4])
	assert.Equal(t, "https://img.example/a.jpg\nhttps://img.example/b.jpg", rows[1][9])
}
