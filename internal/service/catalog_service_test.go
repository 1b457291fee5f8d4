package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-catalog-ws/internal/event"
	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/internal/testutil"
	"go-catalog-ws/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CatalogServiceSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	uploader  *fakeUploader
	publisher *recordingPublisher
	cache     *memoryCache
	svc       CatalogService
	admin     Actor
	tmpDir    string
}

func (s *CatalogServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.uploader = &fakeUploader{}
	s.publisher = &recordingPublisher{}
	s.cache = newMemoryCache()
	s.svc = NewCatalogService(repository.NewProductRepo(s.db), s.uploader, s.publisher, s.cache, CatalogConfig{})
	s.admin = Actor{UserID: uuid.New(), Username: "admin"}
	s.tmpDir = s.T().TempDir()
}

func (s *CatalogServiceSuite) tempImages(names ...string) []string {
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.tmpDir, n)
		s.Require().NoError(os.WriteFile(paths[i], []byte("img"), 0o600))
	}
	return paths
}

func input(name string) *ProductInput {
	original, sale, stock := 100.0, 80.0, 5
	return &ProductInput{
		ProductName:   name,
		OriginalPrice: &original,
		SalePrice:     &sale,
		Category:      "Audio",
		ProductType:   "Headphones",
		Description:   "Closed back",
		NumberInStock: &stock,
	}
}

func (s *CatalogServiceSuite) create(name string) *model.ProductResponse {
	p, err := s.svc.CreateProduct(s.ctx, input(name), s.tempImages(name+"-a.jpg", name+"-b.jpg"), s.admin)
	s.Require().NoError(err)
	return p
}

func (s *CatalogServiceSuite) createUser(username string) Actor {
	u := &model.User{Username: username, Email: username + "@example.com", Password: "x", IsActive: true}
	s.Require().NoError(s.db.Create(u).Error)
	return Actor{UserID: u.ID, Username: u.Username}
}

func (s *CatalogServiceSuite) TestCreateUploadsRewritesAndCleansUp() {
	paths := s.tempImages("one.jpg", "two.jpg")

	p, err := s.svc.CreateProduct(s.ctx, input("Studio Monitor"), paths, s.admin)
	s.Require().NoError(err)

	s.Equal("Studio Monitor", p.ProductName)
	s.Equal(80.0, p.SalePrice)
	s.Equal(5, p.NumberInStock)
	s.Equal([]string{
		"https://res.example.com/demo/image/upload/c_fit,h_500,w_500/v1/Images/one.jpg",
		"https://res.example.com/demo/image/upload/c_fit,h_500,w_500/v1/Images/two.jpg",
	}, p.ProductImages)
	for _, path := range paths {
		s.NoFileExists(path)
	}
	s.Eventually(func() bool {
		return len(s.publisher.actions()) == 1 && s.publisher.actions()[0] == event.ActionProductCreated
	}, time.Second, 10*time.Millisecond)
}

func (s *CatalogServiceSuite) TestCreateRequiresImages() {
	_, err := s.svc.CreateProduct(s.ctx, input("No Pictures"), nil, s.admin)
	s.ErrorIs(err, errs.ErrNoImages)
	s.Equal(400, errs.GetErrorStatusCode(err))
}

func (s *CatalogServiceSuite) TestCreateRejectsDuplicateName() {
	s.create("Speaker")
	_, err := s.svc.CreateProduct(s.ctx, input("Speaker"), s.tempImages("dup.jpg"), s.admin)
	s.ErrorIs(err, errs.ErrDuplicateName)
	s.Equal(409, errs.GetErrorStatusCode(err))
}

func (s *CatalogServiceSuite) TestCreateValidatesFields() {
	in := input("")
	_, err := s.svc.CreateProduct(s.ctx, in, s.tempImages("x.jpg"), s.admin)
	s.ErrorIs(err, errs.ErrClient)

	in = input("Missing Price")
	in.SalePrice = nil
	_, err = s.svc.CreateProduct(s.ctx, in, s.tempImages("y.jpg"), s.admin)
	s.ErrorIs(err, errs.ErrClient)
	s.Contains(err.Error(), "SalePrice")
}

func (s *CatalogServiceSuite) TestCreateUploadFailureDestroysEarlierUploads() {
	s.uploader.failOn = "bad.jpg"
	_, err := s.svc.CreateProduct(s.ctx, input("Broken"), s.tempImages("good.jpg", "bad.jpg"), s.admin)
	s.Require().Error(err)
	s.Len(s.uploader.destroyedURLs(), 1)

	var count int64
	s.db.Model(&model.Product{}).Count(&count)
	s.Zero(count)
}

func (s *CatalogServiceSuite) TestUpdateReplacesAndDestroysOldImages() {
	created := s.create("Turntable")

	in := input("Turntable MkII")
	*in.NumberInStock = 12
	updated, err := s.svc.UpdateProduct(s.ctx, created.ID, in, s.tempImages("new.jpg"), s.admin)
	s.Require().NoError(err)

	s.Equal("Turntable MkII", updated.ProductName)
	s.Equal(12, updated.NumberInStock)
	s.Equal([]string{"https://res.example.com/demo/image/upload/c_fit,h_500,w_500/v1/Images/new.jpg"}, updated.ProductImages)
	s.ElementsMatch(created.ProductImages, s.uploader.destroyedURLs())
}

func (s *CatalogServiceSuite) TestUpdateMissingProduct() {
	_, err := s.svc.UpdateProduct(s.ctx, uuid.New(), input("Ghost"), s.tempImages("g.jpg"), s.admin)
	s.ErrorIs(err, errs.ErrNotFound)
	s.Equal(404, errs.GetErrorStatusCode(err))
}

func (s *CatalogServiceSuite) TestUpdateRequiresImagesAndFields() {
	created := s.create("Amp")

	_, err := s.svc.UpdateProduct(s.ctx, created.ID, input("Amp"), nil, s.admin)
	s.ErrorIs(err, errs.ErrNoImages)

	in := input("Amp")
	in.Description = ""
	_, err = s.svc.UpdateProduct(s.ctx, created.ID, in, s.tempImages("a.jpg"), s.admin)
	s.ErrorIs(err, errs.ErrClient)

	got, err := s.svc.GetProduct(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Closed back", got.Description)
	s.Empty(s.uploader.destroyedURLs())
}

func (s *CatalogServiceSuite) TestUpdateRejectsNameOfAnotherProduct() {
	s.create("Mic")
	other := s.create("Stand")
	_, err := s.svc.UpdateProduct(s.ctx, other.ID, input("Mic"), s.tempImages("m.jpg"), s.admin)
	s.ErrorIs(err, errs.ErrDuplicateName)
}

func (s *CatalogServiceSuite) TestStockAdjustments() {
	created := s.create("Cable")

	p, err := s.svc.IncrementStock(s.ctx, created.ID, s.admin)
	s.Require().NoError(err)
	s.Equal(6, p.NumberInStock)

	for i := 0; i < 7; i++ {
		p, err = s.svc.DecrementStock(s.ctx, created.ID, s.admin)
		s.Require().NoError(err)
	}
	s.Equal(-1, p.NumberInStock)

	_, err = s.svc.IncrementStock(s.ctx, uuid.New(), s.admin)
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *CatalogServiceSuite) TestListDefaultsAndOrdering() {
	for _, n := range []string{"Charlie", "Alpha", "Bravo"} {
		s.create(n)
	}

	page, total, err := s.svc.ListProducts(s.ctx, ListQuery{Page: -1, PageSize: 0, SortField: "bogus"})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Equal("Alpha", page[0].ProductName)

	page, _, err = s.svc.ListProducts(s.ctx, ListQuery{Page: 1, PageSize: 2, SortField: "product_name", SortOrder: "descend"})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal("Charlie", page[0].ProductName)
	s.Equal("Bravo", page[1].ProductName)
}

func (s *CatalogServiceSuite) TestLikeAndUnlikeMessages() {
	p := s.create("Vinyl")
	jane := s.createUser("jane")

	res, err := s.svc.Like(s.ctx, p.ID, jane)
	s.Require().NoError(err)
	s.Equal(MessageLiked, res.Message)
	s.Equal(p.ID, res.ProductID)
	s.Equal("jane", res.LikedBy)

	res, err = s.svc.Like(s.ctx, p.ID, jane)
	s.Require().NoError(err)
	s.Equal(MessageAlreadyLiked, res.Message)

	got, err := s.svc.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Likes)
	s.Equal([]string{"jane"}, got.LikedBy)

	res, err = s.svc.Unlike(s.ctx, p.ID, jane)
	s.Require().NoError(err)
	s.Equal(MessageUnliked, res.Message)

	res, err = s.svc.Unlike(s.ctx, p.ID, jane)
	s.Require().NoError(err)
	s.Equal(MessageAlreadyUnliked, res.Message)

	_, err = s.svc.Like(s.ctx, uuid.New(), jane)
	s.ErrorIs(err, errs.ErrNotFound)

	s.Eventually(func() bool {
		actions := strings.Join(s.publisher.actions(), ",")
		return strings.Contains(actions, event.ActionProductLiked) && strings.Contains(actions, event.ActionProductUnliked)
	}, time.Second, 10*time.Millisecond)
}

func (s *CatalogServiceSuite) TestMostPopularIsCachedUntilAMutation() {
	p := s.create("Popular")
	s.create("Quiet")

	top, err := s.svc.MostPopular(s.ctx)
	s.Require().NoError(err)
	s.Len(top, 2)
	s.True(s.cache.has(cacheKeyMostPopular))

	_, err = s.svc.Like(s.ctx, p.ID, s.createUser("jane"))
	s.Require().NoError(err)
	s.False(s.cache.has(cacheKeyMostPopular))

	top, err = s.svc.MostPopular(s.ctx)
	s.Require().NoError(err)
	s.Equal("Popular", top[0].ProductName)
	s.Equal(1, top[0].Likes)
}

func (s *CatalogServiceSuite) TestCategoriesAndTypesUseCache() {
	s.create("Item")

	categories, err := s.svc.Categories(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Audio"}, categories)

	s.Require().NoError(s.cache.SetJSON(s.ctx, cacheKeyProductTypes, []string{"from-cache"}, time.Minute))
	types, err := s.svc.ProductTypes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"from-cache"}, types)
}

func (s *CatalogServiceSuite) TestSearchAndReelLimits() {
	for i := 0; i < 10; i++ {
		s.create("Headset " + string(rune('A'+i)))
	}

	found, err := s.svc.Search(s.ctx, "headset")
	s.Require().NoError(err)
	s.Len(found, SearchLimit)

	reel, err := s.svc.Reel(s.ctx)
	s.Require().NoError(err)
	s.Len(reel, ReelLimit)

	top, err := s.svc.MostPopular(s.ctx)
	s.Require().NoError(err)
	s.Len(top, MostPopularLimit)
}

func (s *CatalogServiceSuite) TestFilterProducts() {
	s.create("Budget")
	minPrice := 90.0
	found, err := s.svc.FilterProducts(s.ctx, repository.ProductFilter{MinPrice: &minPrice})
	s.Require().NoError(err)
	s.Empty(found)

	found, err = s.svc.FilterProducts(s.ctx, repository.ProductFilter{Category: "Audio"})
	s.Require().NoError(err)
	s.Len(found, 1)
}

func (s *CatalogServiceSuite) TestDeleteProduct() {
	p := s.create("Doomed")

	deleted, err := s.svc.DeleteProduct(s.ctx, p.ID, s.admin)
	s.Require().NoError(err)
	s.Require().NotNil(deleted)
	s.Equal("Doomed", deleted.ProductName)
	s.ElementsMatch(p.ProductImages, s.uploader.destroyedURLs())

	got, err := s.svc.GetProduct(s.ctx, p.ID)
	s.NoError(err)
	s.Nil(got)

	deleted, err = s.svc.DeleteProduct(s.ctx, p.ID, s.admin)
	s.NoError(err)
	s.Nil(deleted)
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}
