package repository

import (
	"context"
	"time"

	"go-catalog-ws/internal/model"

	"gorm.io/gorm"
)

type StockMovementRepository interface {
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// StockMovementData is one day of the stock chart
type StockMovementData struct {
	Date       string `json:"date"`
	Increments int    `json:"increments"`
	Decrements int    `json:"decrements"`
}

// DashboardStats summarises the catalog
type DashboardStats struct {
	TotalProducts  int64   `json:"total_products"`
	LowStockCount  int64   `json:"low_stock_count"`
	OutOfStock     int64   `json:"out_of_stock_count"`
	TotalValuation float64 `json:"total_valuation"`
	TotalLikes     int64   `json:"total_likes"`
}

const LowStockThreshold = 10

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db}
}

func (r *stockMovementRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	results := []StockMovementData{}

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) as increments,
			COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) as decrements
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		var date interface{}
		if err := rows.Scan(&date, &data.Increments, &data.Decrements); err != nil {
			return nil, err
		}
		data.Date = formatDate(date)
		results = append(results, data)
	}

	return results, rows.Err()
}

func formatDate(v interface{}) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006-01-02")
	case []byte:
		return string(d)
	case string:
		return d
	default:
		return ""
	}
}

func (r *stockMovementRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("number_in_stock < ?", LowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("number_in_stock <= 0").Count(&stats.OutOfStock).Error; err != nil {
		return nil, err
	}

	// Negative stock does not reduce valuation
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(CASE WHEN number_in_stock > 0 THEN number_in_stock * sale_price ELSE 0 END), 0)").
		Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(likes), 0)").Scan(&stats.TotalLikes).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
