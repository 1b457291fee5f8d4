package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go-catalog-ws/internal/event"
	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/pkg/errs"
	"go-catalog-ws/pkg/media"
	"go-catalog-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	MostPopularLimit = 6
	SearchLimit      = 4
	ReelLimit        = 8
	DefaultPage      = 1
	DefaultPageSize  = 10
)

const (
	cacheKeyCategories   = "catalog:categories"
	cacheKeyProductTypes = "catalog:product-types"
	cacheKeyMostPopular  = "catalog:most-popular"
)

const (
	MessageLiked          = "Liked"
	MessageAlreadyLiked   = "Already liked"
	MessageUnliked        = "Unliked"
	MessageAlreadyUnliked = "Already unliked"
)

// Actor is the authenticated user behind a catalog mutation.
type Actor struct {
	UserID   uuid.UUID
	Username string
}

// ProductInput carries the catalog fields of a create or update form.
type ProductInput struct {
	ProductName   string   `form:"product_name" json:"product_name" validate:"required"`
	OriginalPrice *float64 `form:"original_price" json:"original_price" validate:"required"`
	SalePrice     *float64 `form:"sale_price" json:"sale_price" validate:"required"`
	Category      string   `form:"category" json:"category" validate:"required"`
	ProductType   string   `form:"product_type" json:"product_type" validate:"required"`
	Description   string   `form:"description" json:"description" validate:"required"`
	NumberInStock *int     `form:"number_in_stock" json:"number_in_stock" validate:"required"`
}

func (in *ProductInput) applyTo(p *model.Product) {
	p.ProductName = in.ProductName
	p.OriginalPrice = *in.OriginalPrice
	p.SalePrice = *in.SalePrice
	p.Category = in.Category
	p.ProductType = in.ProductType
	p.Description = in.Description
	p.NumberInStock = *in.NumberInStock
}

type ListQuery struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder string
}

type LikeResult struct {
	Message   string    `json:"message"`
	ProductID uuid.UUID `json:"product_id"`
	LikedBy   string    `json:"likedby"`
}

// Cache is the read-through store for slow-changing catalog lists.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type CatalogConfig struct {
	Folder   string
	CacheTTL time.Duration
}

type CatalogService interface {
	CreateProduct(ctx context.Context, input *ProductInput, imagePaths []string, actor Actor) (*model.ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input *ProductInput, imagePaths []string, actor Actor) (*model.ProductResponse, error)
	IncrementStock(ctx context.Context, id uuid.UUID, actor Actor) (*model.ProductResponse, error)
	DecrementStock(ctx context.Context, id uuid.UUID, actor Actor) (*model.ProductResponse, error)
	ListProducts(ctx context.Context, query ListQuery) ([]model.ProductResponse, int64, error)
	MostPopular(ctx context.Context) ([]model.ProductResponse, error)
	Search(ctx context.Context, term string) ([]model.ProductResponse, error)
	Categories(ctx context.Context) ([]string, error)
	ProductTypes(ctx context.Context) ([]string, error)
	Reel(ctx context.Context) ([]model.ProductResponse, error)
	FilterProducts(ctx context.Context, filter repository.ProductFilter) ([]model.ProductResponse, error)
	Like(ctx context.Context, productID uuid.UUID, actor Actor) (*LikeResult, error)
	Unlike(ctx context.Context, productID uuid.UUID, actor Actor) (*LikeResult, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) (*model.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.ProductResponse, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	uploader    media.Uploader
	publisher   event.Publisher
	cache       Cache
	cfg         CatalogConfig
}

// NewCatalogService wires the catalog. publisher and cache may be nil.
func NewCatalogService(productRepo repository.ProductRepository, uploader media.Uploader, publisher event.Publisher, cache Cache, cfg CatalogConfig) CatalogService {
	if cfg.Folder == "" {
		cfg.Folder = "Images"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &catalogService{
		productRepo: productRepo,
		uploader:    uploader,
		publisher:   publisher,
		cache:       cache,
		cfg:         cfg,
	}
}

func validateInput(input *ProductInput) error {
	if input == nil {
		return fmt.Errorf("%w: missing product fields", errs.ErrClient)
	}
	if verrs := validator.ValidateStruct(input); len(verrs) > 0 {
		first := verrs[0]
		return fmt.Errorf("%w: Validation failed: Field '%s' failed on tag '%s'", errs.ErrClient, first.FailedField, first.Tag)
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input *ProductInput, imagePaths []string, actor Actor) (*model.ProductResponse, error) {
	if len(imagePaths) == 0 {
		return nil, errs.ErrNoImages
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindByName(ctx, input.ProductName)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrDuplicateName
	}

	urls, err := s.uploadImages(ctx, imagePaths)
	if err != nil {
		return nil, err
	}

	product := &model.Product{}
	input.applyTo(product)
	product.SetImageURLs(urls)
	product.CreatedBy = actor.Username
	product.UpdatedBy = actor.Username

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.destroyImages(ctx, urls)
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate(ctx)
	s.publish(ctx, event.ActionProductCreated, product, actor, fmt.Sprintf("%s created product '%s'", actor.Username, product.ProductName))

	res := product.ToResponse()
	return &res, nil
}

// UpdateProduct replaces every field and the image set. Old remote images are
// only destroyed once the new ones are committed.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input *ProductInput, imagePaths []string, actor Actor) (*model.ProductResponse, error) {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(imagePaths) == 0 {
		return nil, errs.ErrNoImages
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.ProductName != existing.ProductName {
		other, err := s.productRepo.FindByName(ctx, input.ProductName)
		if err != nil && !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		if other != nil && other.ID != existing.ID {
			return nil, errs.ErrDuplicateName
		}
	}

	urls, err := s.uploadImages(ctx, imagePaths)
	if err != nil {
		return nil, err
	}

	oldURLs := existing.ImageURLs()
	input.applyTo(existing)
	existing.SetImageURLs(urls)
	existing.UpdatedBy = actor.Username

	if err := s.productRepo.Replace(ctx, existing); err != nil {
		s.destroyImages(ctx, urls)
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.destroyImages(ctx, oldURLs)

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, event.ActionProductUpdated, updated, actor, fmt.Sprintf("%s updated product '%s'", actor.Username, updated.ProductName))

	res := updated.ToResponse()
	return &res, nil
}

func (s *catalogService) IncrementStock(ctx context.Context, id uuid.UUID, actor Actor) (*model.ProductResponse, error) {
	return s.adjustStock(ctx, id, 1, actor)
}

func (s *catalogService) DecrementStock(ctx context.Context, id uuid.UUID, actor Actor) (*model.ProductResponse, error) {
	return s.adjustStock(ctx, id, -1, actor)
}

func (s *catalogService) adjustStock(ctx context.Context, id uuid.UUID, delta int, actor Actor) (*model.ProductResponse, error) {
	product, err := s.productRepo.AdjustStock(ctx, id, delta, actor.Username)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, event.ActionStockChanged, product, actor,
		fmt.Sprintf("%s changed stock of '%s' by %+d (now %d)", actor.Username, product.ProductName, delta, product.NumberInStock))

	res := product.ToResponse()
	return &res, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query ListQuery) ([]model.ProductResponse, int64, error) {
	params := repository.ListParams{
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortField: query.SortField,
		Desc:      query.SortOrder == "descend",
	}
	if params.Page < 1 {
		params.Page = DefaultPage
	}
	if params.PageSize < 1 {
		params.PageSize = DefaultPageSize
	}
	if !repository.IsSortable(params.SortField) {
		params.SortField = repository.DefaultSortField
	}

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return model.ToProductResponses(products), total, nil
}

func (s *catalogService) MostPopular(ctx context.Context) ([]model.ProductResponse, error) {
	var cached []model.ProductResponse
	if s.cacheGet(ctx, cacheKeyMostPopular, &cached) {
		return cached, nil
	}

	products, err := s.productRepo.MostPopular(ctx, MostPopularLimit)
	if err != nil {
		return nil, err
	}
	res := model.ToProductResponses(products)
	s.cacheSet(ctx, cacheKeyMostPopular, res)
	return res, nil
}

func (s *catalogService) Search(ctx context.Context, term string) ([]model.ProductResponse, error) {
	products, err := s.productRepo.Search(ctx, term, SearchLimit)
	if err != nil {
		return nil, err
	}
	return model.ToProductResponses(products), nil
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, cacheKeyCategories, "category")
}

func (s *catalogService) ProductTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, cacheKeyProductTypes, "product_type")
}

func (s *catalogService) distinct(ctx context.Context, key, column string) ([]string, error) {
	var cached []string
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	values, err := s.productRepo.Distinct(ctx, column)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, values)
	return values, nil
}

func (s *catalogService) Reel(ctx context.Context) ([]model.ProductResponse, error) {
	products, err := s.productRepo.Reel(ctx, ReelLimit)
	if err != nil {
		return nil, err
	}
	return model.ToProductResponses(products), nil
}

func (s *catalogService) FilterProducts(ctx context.Context, filter repository.ProductFilter) ([]model.ProductResponse, error) {
	products, err := s.productRepo.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return model.ToProductResponses(products), nil
}

func (s *catalogService) Like(ctx context.Context, productID uuid.UUID, actor Actor) (*LikeResult, error) {
	changed, err := s.productRepo.Like(ctx, productID, actor.UserID, actor.Username)
	if err != nil {
		return nil, err
	}

	result := &LikeResult{Message: MessageAlreadyLiked, ProductID: productID, LikedBy: actor.Username}
	if changed {
		result.Message = MessageLiked
		s.afterLikeChange(ctx, productID, event.ActionProductLiked, actor)
	}
	return result, nil
}

func (s *catalogService) Unlike(ctx context.Context, productID uuid.UUID, actor Actor) (*LikeResult, error) {
	changed, err := s.productRepo.Unlike(ctx, productID, actor.UserID)
	if err != nil {
		return nil, err
	}

	result := &LikeResult{Message: MessageAlreadyUnliked, ProductID: productID, LikedBy: actor.Username}
	if changed {
		result.Message = MessageUnliked
		s.afterLikeChange(ctx, productID, event.ActionProductUnliked, actor)
	}
	return result, nil
}

func (s *catalogService) afterLikeChange(ctx context.Context, productID uuid.UUID, action string, actor Actor) {
	s.invalidate(ctx)
	if s.publisher == nil {
		return
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "CatalogLikeEvent").Msg("")
		return
	}
	verb := "liked"
	if action == event.ActionProductUnliked {
		verb = "unliked"
	}
	s.publish(ctx, action, product, actor, fmt.Sprintf("%s %s '%s'", actor.Username, verb, product.ProductName))
}

// DeleteProduct returns nil when nothing matched id.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) (*model.ProductResponse, error) {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, nil
	}

	s.destroyImages(ctx, deleted.ImageURLs())
	s.invalidate(ctx)
	s.publish(ctx, event.ActionProductDeleted, deleted, actor, fmt.Sprintf("%s deleted product '%s'", actor.Username, deleted.ProductName))

	res := deleted.ToResponse()
	return &res, nil
}

// GetProduct returns nil when nothing matched id.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res := product.ToResponse()
	return &res, nil
}

// uploadImages uploads sequentially and removes each temp file once it is
// hosted. On failure the images uploaded so far are destroyed.
func (s *catalogService) uploadImages(ctx context.Context, paths []string) ([]string, error) {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		url, err := s.uploader.Upload(ctx, p, s.cfg.Folder)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "UploadProductImage").Str("path", p).Msg("")
			s.destroyImages(ctx, urls)
			return nil, fmt.Errorf("upload image: %w", err)
		}
		urls = append(urls, media.ApplyTransformation(url, media.ResizeTransformation))

		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Ctx(ctx).Warn().Err(err).Str("component", "RemoveTempImage").Str("path", p).Msg("")
		}
	}
	return urls, nil
}

func (s *catalogService) destroyImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.uploader.Destroy(ctx, url); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("component", "DestroyProductImage").Str("url", url).Msg("")
		}
	}
}

func (s *catalogService) publish(ctx context.Context, action string, product *model.Product, actor Actor, message string) {
	if s.publisher == nil {
		return
	}
	ev := event.NewProductEvent(action, product, actor.Username, message)
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, ev); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "PublishProductEvent").Str("action", action).Msg("")
		}
	}()
}

func (s *catalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	return err == nil && hit
}

func (s *catalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetJSON(ctx, key, value, s.cfg.CacheTTL)
}

func (s *catalogService) invalidate(ctx context.Context) {
	invalidateCatalogCache(ctx, s.cache)
}

// invalidateCatalogCache drops every cached catalog aggregate. Anything that
// changes products, likes or stock must call it.
func invalidateCatalogCache(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, cacheKeyCategories, cacheKeyProductTypes, cacheKeyMostPopular); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "CatalogCacheInvalidate").Msg("")
	}
}
