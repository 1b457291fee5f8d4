package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-catalog-ws/internal/model"
	"go-catalog-ws/pkg/errs"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	Replace(ctx context.Context, product *model.Product) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, actor string) (*model.Product, error)
	List(ctx context.Context, params ListParams) ([]model.Product, int64, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	MostPopular(ctx context.Context, limit int) ([]model.Product, error)
	Search(ctx context.Context, term string, limit int) ([]model.Product, error)
	Distinct(ctx context.Context, column string) ([]string, error)
	Reel(ctx context.Context, limit int) ([]model.Product, error)
	Filter(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Like(ctx context.Context, productID, userID uuid.UUID, username string) (bool, error)
	Unlike(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// ListParams drives the paginated listing. SortField must be one of the
// sortable columns, anything else falls back to product_name.
type ListParams struct {
	Page      int
	PageSize  int
	SortField string
	Desc      bool
}

// ProductFilter composes equality filters on type/category and a sale price range.
type ProductFilter struct {
	ProductType string
	Category    string
	MinPrice    *float64
	MaxPrice    *float64
}

const DefaultSortField = "product_name"

var sortableColumns = map[string]bool{
	"product_name":    true,
	"original_price":  true,
	"sale_price":      true,
	"category":        true,
	"product_type":    true,
	"number_in_stock": true,
	"likes":           true,
	"created_at":      true,
	"updated_at":      true,
}

var distinctColumns = map[string]bool{
	"category":     true,
	"product_type": true,
}

// IsSortable reports whether a product listing can be ordered by field.
func IsSortable(field string) bool {
	return sortableColumns[field]
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func withImagesAndLikes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("LikedBy", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CreateProduct").Msg("")
		return err
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := withImagesAndLikes(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "FindProductByID").Msg("")
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "product_name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Replace overwrites every catalog field and the image list in one transaction.
func (r *productRepo) Replace(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
			"product_name":    product.ProductName,
			"original_price":  product.OriginalPrice,
			"sale_price":      product.SalePrice,
			"category":        product.Category,
			"product_type":    product.ProductType,
			"description":     product.Description,
			"number_in_stock": product.NumberInStock,
			"updated_by":      product.UpdatedBy,
		})
		if result.Error != nil {
			log.Ctx(ctx).Error().Err(result.Error).Str("component", "ReplaceProduct").Msg("")
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.ErrNotFound
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		for i := range product.Images {
			product.Images[i].ID = 0
			product.Images[i].ProductID = product.ID
			product.Images[i].Position = i
		}
		if len(product.Images) > 0 {
			if err := tx.Create(&product.Images).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AdjustStock applies delta with a native increment and records the movement.
func (r *productRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int, actor string) (*model.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
			"number_in_stock": gorm.Expr("number_in_stock + ?", delta),
			"updated_by":      actor,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.ErrNotFound
		}

		var stock []int
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Pluck("number_in_stock", &stock).Error; err != nil {
			return err
		}
		if len(stock) == 0 {
			return errs.ErrNotFound
		}

		movement := model.StockMovement{ProductID: id, Delta: delta, StockAfter: stock[0]}
		movement.CreatedBy = actor
		movement.UpdatedBy = actor
		return tx.Create(&movement).Error
	})
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			log.Ctx(ctx).Error().Err(err).Str("component", "AdjustStock").Msg("")
		}
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *productRepo) List(ctx context.Context, params ListParams) ([]model.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := params.SortField
	if !IsSortable(sortField) {
		sortField = DefaultSortField
	}

	var products []model.Product
	err := withImagesAndLikes(r.db.WithContext(ctx)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortField}, Desc: params.Desc}).
		Order("id ASC").
		Limit(params.PageSize).
		Offset(params.PageSize * (params.Page - 1)).
		Find(&products).Error
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ListProducts").Msg("")
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := withImagesAndLikes(r.db.WithContext(ctx)).Order("product_name ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) MostPopular(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := withImagesAndLikes(r.db.WithContext(ctx)).
		Order("likes DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// Search matches term case-insensitively as a substring of the name, type or category.
func (r *productRepo) Search(ctx context.Context, term string, limit int) ([]model.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var products []model.Product
	err := withImagesAndLikes(r.db.WithContext(ctx)).
		Where(`LOWER(product_name) LIKE ? ESCAPE '\' OR LOWER(product_type) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("created_at ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) Distinct(ctx context.Context, column string) ([]string, error) {
	if !distinctColumns[column] {
		return nil, fmt.Errorf("%w: cannot list distinct values of %q", errs.ErrClient, column)
	}

	var values []string
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	return values, err
}

func (r *productRepo) Reel(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := withImagesAndLikes(r.db.WithContext(ctx)).
		Order("created_at ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) Filter(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := withImagesAndLikes(r.db.WithContext(ctx))

	if filter.ProductType != "" {
		query = query.Where("product_type = ?", filter.ProductType)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("sale_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("sale_price <= ?", *filter.MaxPrice)
	}

	var products []model.Product
	if err := query.Order("created_at ASC").Find(&products).Error; err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "FilterProducts").Msg("")
		return nil, err
	}
	return products, nil
}

// Like inserts the (product, user) relation and bumps the counter in the same
// transaction. It reports false when the user had already liked the product.
func (r *productRepo) Like(ctx context.Context, productID, userID uuid.UUID, username string) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := productExists(tx, productID); err != nil {
			return err
		}

		like := model.ProductLike{ProductID: productID, UserID: userID, Username: username}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		changed = true
		return tx.Model(&model.Product{}).Where("id = ?", productID).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1)).Error
	})
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		log.Ctx(ctx).Error().Err(err).Str("component", "LikeProduct").Msg("")
	}
	return changed, err
}

// Unlike mirrors Like: it only decrements when a relation was removed.
func (r *productRepo) Unlike(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := productExists(tx, productID); err != nil {
			return err
		}

		result := tx.Where("product_id = ? AND user_id = ?", productID, userID).Delete(&model.ProductLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		changed = true
		return tx.Model(&model.Product{}).Where("id = ?", productID).
			UpdateColumn("likes", gorm.Expr("likes - ?", 1)).Error
	})
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		log.Ctx(ctx).Error().Err(err).Str("component", "UnlikeProduct").Msg("")
	}
	return changed, err
}

// Delete removes the product with its images, likes and stock history. A
// missing id is not an error: it returns (nil, nil).
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var deleted *model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		err := withImagesAndLikes(tx).First(&product, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for _, child := range []interface{}{&model.ProductImage{}, &model.ProductLike{}, &model.StockMovement{}} {
			if err := tx.Unscoped().Where("product_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Delete(&model.Product{}, "id = ?", id).Error; err != nil {
			return err
		}

		deleted = &product
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteProduct").Msg("")
		return nil, err
	}
	return deleted, nil
}

func productExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&model.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
