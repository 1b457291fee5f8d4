package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-catalog-ws/internal/repository"

	"github.com/xuri/excelize/v2"
)

const DefaultMovementDays = 7

const exportSheet = "Products"

var exportHeader = []interface{}{
	"ID", "Product Name", "Original Price", "Sale Price", "Category", "Product Type",
	"Description", "Number In Stock", "Likes", "Images", "Created At",
}

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	ExportProducts(ctx context.Context) ([]byte, error)
}

type dashboardService struct {
	movementRepo repository.StockMovementRepository
	productRepo  repository.ProductRepository
}

func NewDashboardService(movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) DashboardService {
	return &dashboardService{movementRepo: movementRepo, productRepo: productRepo}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days < 1 {
		days = DefaultMovementDays
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movementRepo.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.movementRepo.GetDashboardStats(ctx)
}

// ExportProducts renders the catalog as an xlsx workbook, one product per row.
func (s *dashboardService) ExportProducts(ctx context.Context) ([]byte, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			p.ID.String(), p.ProductName, p.OriginalPrice, p.SalePrice, p.Category, p.ProductType,
			p.Description, p.NumberInStock, p.Likes, strings.Join(p.ImageURLs(), "\n"), p.CreatedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
