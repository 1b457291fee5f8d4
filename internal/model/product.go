package model

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	ProductName   string  `gorm:"type:varchar(255);not null;index" json:"product_name"`
	OriginalPrice float64 `gorm:"not null;default:0" json:"original_price"`
	SalePrice     float64 `gorm:"not null;default:0;index" json:"sale_price"`
	Category      string  `gorm:"type:varchar(100);index" json:"category"`
	ProductType   string  `gorm:"type:varchar(100);index" json:"product_type"`
	Description   string  `gorm:"type:text" json:"description"`
	NumberInStock int     `gorm:"not null;default:0" json:"number_in_stock"` // no floor, may go negative
	Likes         int     `gorm:"not null;default:0" json:"likes"`

	Images  []ProductImage `json:"-"`
	LikedBy []ProductLike  `json:"-"`
}

// ProductImage keeps the ordered image list of a product.
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position  int       `gorm:"not null" json:"-"`
	URL       string    `gorm:"type:text;not null" json:"url"`
}

// ProductLike is the single source of both Product.likedby and User.liked.
// The composite key makes a like unique per (product, user).
type ProductLike struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username  string    `gorm:"type:varchar(100);not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageURLs returns the image URLs in stored order.
func (p *Product) ImageURLs() []string {
	urls := make([]string, len(p.Images))
	for i, img := range p.Images {
		urls[i] = img.URL
	}
	return urls
}

// SetImageURLs replaces the image list, keeping the given order.
func (p *Product) SetImageURLs(urls []string) {
	p.Images = make([]ProductImage, len(urls))
	for i, u := range urls {
		p.Images[i] = ProductImage{ProductID: p.ID, Position: i, URL: u}
	}
}

type ProductResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductName   string    `json:"product_name"`
	OriginalPrice float64   `json:"original_price"`
	SalePrice     float64   `json:"sale_price"`
	Category      string    `json:"category"`
	ProductType   string    `json:"product_type"`
	Description   string    `json:"description"`
	NumberInStock int       `json:"number_in_stock"`
	ProductImages []string  `json:"product_images"`
	Likes         int       `json:"likes"`
	LikedBy       []string  `json:"likedby"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Product) ToResponse() ProductResponse {
	likedBy := make([]string, len(p.LikedBy))
	for i, l := range p.LikedBy {
		likedBy[i] = l.Username
	}

	return ProductResponse{
		ID:            p.ID,
		ProductName:   p.ProductName,
		OriginalPrice: p.OriginalPrice,
		SalePrice:     p.SalePrice,
		Category:      p.Category,
		ProductType:   p.ProductType,
		Description:   p.Description,
		NumberInStock: p.NumberInStock,
		ProductImages: p.ImageURLs(),
		Likes:         p.Likes,
		LikedBy:       likedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToProductResponses(products []Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = products[i].ToResponse()
	}
	return out
}
