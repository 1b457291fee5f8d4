package handler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"go-catalog-ws/internal/middleware"
	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/internal/service"
	"go-catalog-ws/pkg/errs"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UploadField is the multipart field carrying product images.
const UploadField = "product_images"

// UploadPrefix marks temp files written for image uploads.
const UploadPrefix = "catalog-upload-"

type CatalogHandler struct {
	service   service.CatalogService
	uploadDir string
}

func NewCatalogHandler(s service.CatalogService, uploadDir string) *CatalogHandler {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &CatalogHandler{service: s, uploadDir: uploadDir}
}

// RegisterCatalogRoutes mounts the catalog under router. auth runs before
// every gated route.
func RegisterCatalogRoutes(router fiber.Router, h *CatalogHandler, auth fiber.Handler) {
	router.Post("/create", auth, middleware.RequirePrivilege(model.PrivilegeProductCreate), h.CreateProduct)
	router.Put("/update/:id", auth, middleware.RequirePrivilege(model.PrivilegeProductUpdate), h.UpdateProduct)
	router.Patch("/product-increment/:id", auth, middleware.RequirePrivilege(model.PrivilegeProductUpdate), h.IncrementStock)
	router.Patch("/product-decrement/:id", auth, middleware.RequirePrivilege(model.PrivilegeProductUpdate), h.DecrementStock)

	router.Get("/all", h.ListProducts)
	router.Get("/most-popular", h.MostPopular)
	router.Get("/search/:productName", h.Search)
	router.Get("/category", h.Categories)
	router.Get("/product-type", h.ProductTypes)
	router.Get("/reel", h.Reel)
	router.Get("/by", h.FilterProducts)
	router.Get("/single-product/:id", h.GetProduct)

	router.Patch("/:product_id/like", auth, middleware.RequirePrivilege(model.PrivilegeProductLike), h.Like)
	router.Patch("/:product_id/unlike", auth, middleware.RequirePrivilege(model.PrivilegeProductLike), h.Unlike)
	router.Delete("/:id", auth, middleware.RequirePrivilege(model.PrivilegeProductDelete), h.DeleteProduct)
}

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	rawID, _ := c.Locals(middleware.LocalUserID).(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return service.Actor{}, errs.ErrUnauthorized
	}
	username, _ := c.Locals(middleware.LocalUsername).(string)
	return service.Actor{UserID: userID, Username: username}, nil
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id '%s'", errs.ErrClient, c.Params(param))
	}
	return id, nil
}

// saveUploads writes every uploaded image to the upload dir. The returned
// cleanup removes whatever the service did not already consume.
func (h *CatalogHandler) saveUploads(c *fiber.Ctx) ([]string, func(), error) {
	var paths []string
	cleanup := func() {
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Ctx(c.UserContext()).Warn().Err(err).Str("component", "CleanupUpload").Str("path", p).Msg("")
			}
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, cleanup, nil
	}

	for _, fh := range form.File[UploadField] {
		path := filepath.Join(h.uploadDir, UploadPrefix+uuid.NewString()+filepath.Ext(fh.Filename))
		if err := c.SaveFile(fh, path); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("save upload: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, cleanup, nil
}

func parseProductInput(c *fiber.Ctx) (*service.ProductInput, error) {
	var input service.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrClient, err)
	}
	return &input, nil
}

// CreateProduct handles POST /create (multipart)
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, err := parseProductInput(c)
	if err != nil {
		return err
	}

	paths, cleanup, err := h.saveUploads(c)
	defer cleanup()
	if err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), input, paths, actor)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payload": product})
}

// UpdateProduct handles PUT /update/:id (multipart)
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	input, err := parseProductInput(c)
	if err != nil {
		return err
	}

	paths, cleanup, err := h.saveUploads(c)
	defer cleanup()
	if err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, input, paths, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": product, "message": "Success"})
}

func (h *CatalogHandler) IncrementStock(c *fiber.Ctx) error {
	return h.adjustStock(c, h.service.IncrementStock)
}

func (h *CatalogHandler) DecrementStock(c *fiber.Ctx) error {
	return h.adjustStock(c, h.service.DecrementStock)
}

type stockFunc func(ctx context.Context, id uuid.UUID, actor service.Actor) (*model.ProductResponse, error)

func (h *CatalogHandler) adjustStock(c *fiber.Ctx, adjust stockFunc) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	product, err := adjust(c.UserContext(), id, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": product})
}

// ListProducts handles GET /all?page&pageSize&sortField&sortOrder
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	query := service.ListQuery{
		Page:      c.QueryInt("page", service.DefaultPage),
		PageSize:  c.QueryInt("pageSize", service.DefaultPageSize),
		SortField: c.Query("sortField", repository.DefaultSortField),
		SortOrder: c.Query("sortOrder"),
	}

	products, total, err := h.service.ListProducts(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": products, "total": total})
}

func (h *CatalogHandler) MostPopular(c *fiber.Ctx) error {
	products, err := h.service.MostPopular(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": products})
}

// Search handles GET /search/:productName
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	term := c.Params("productName")
	if unescaped, err := url.PathUnescape(term); err == nil {
		term = unescaped
	}

	products, err := h.service.Search(c.UserContext(), term)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": products, "total": len(products)})
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	values, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": values})
}

func (h *CatalogHandler) ProductTypes(c *fiber.Ctx) error {
	values, err := h.service.ProductTypes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": values})
}

func (h *CatalogHandler) Reel(c *fiber.Ctx) error {
	products, err := h.service.Reel(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": products})
}

// FilterProducts handles GET /by?type&category&min_price&max_price. Every
// failure, bad prices included, answers 500.
func (h *CatalogHandler) FilterProducts(c *fiber.Ctx) error {
	internalError := func(err error) error {
		log.Ctx(c.UserContext()).Error().Err(err).Str("component", "FilterProducts").Msg("")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	filter := repository.ProductFilter{
		ProductType: c.Query("type"),
		Category:    c.Query("category"),
	}
	for param, dest := range map[string]**float64{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return internalError(err)
		}
		*dest = &v
	}

	products, err := h.service.FilterProducts(c.UserContext(), filter)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(fiber.Map{"payload": products})
}

func (h *CatalogHandler) Like(c *fiber.Ctx) error {
	return h.toggleLike(c, h.service.Like)
}

func (h *CatalogHandler) Unlike(c *fiber.Ctx) error {
	return h.toggleLike(c, h.service.Unlike)
}

type likeFunc func(ctx context.Context, productID uuid.UUID, actor service.Actor) (*service.LikeResult, error)

func (h *CatalogHandler) toggleLike(c *fiber.Ctx, toggle likeFunc) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "product_id")
	if err != nil {
		return err
	}

	result, err := toggle(c.UserContext(), id, actor)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"payload": result})
}

// DeleteProduct handles DELETE /:id. Unknown ids answer {payload: null}.
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.JSON(fiber.Map{"payload": nil})
	}

	deleted, err := h.service.DeleteProduct(c.UserContext(), id, actor)
	if err != nil {
		return err
	}
	if deleted == nil {
		return c.JSON(fiber.Map{"payload": nil})
	}
	return c.JSON(fiber.Map{"payload": deleted})
}

// GetProduct handles GET /single-product/:id. Unknown ids answer {payload: null}.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.JSON(fiber.Map{"payload": nil})
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	if product == nil {
		return c.JSON(fiber.Map{"payload": nil})
	}
	return c.JSON(fiber.Map{"payload": product})
}
