package model

import "github.com/google/uuid"

// StockMovement records one +1/-1 adjustment of a product's stock.
type StockMovement struct {
	BaseModel
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Delta      int       `gorm:"not null" json:"delta"`
	StockAfter int       `gorm:"not null" json:"stock_after"`
}
