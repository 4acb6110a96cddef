package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

// ProductStore is the persistence contract for the product catalog.
type ProductStore interface {
	GetProductByID(ctx context.Context, id int) (*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	GetProducts(ctx context.Context) ([]*entity.Product, error)
	RestockProduct(ctx context.Context, id, quantity int) error
}

// CategoryStore is the persistence contract for product categories.
type CategoryStore interface {
	GetCategoryByID(ctx context.Context, id int) (*entity.Category, error)
	CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	GetCategories(ctx context.Context) ([]*entity.Category, error)
}

type ProductService struct {
	products   ProductStore
	categories CategoryStore
	rdb        *redis.Client
}

// NewProductService creates a new instance of ProductService. The redis
// client may be nil, which disables the stock cache.
func NewProductService(products ProductStore, categories CategoryStore, rdb *redis.Client) *ProductService {
	return &ProductService{products: products, categories: categories, rdb: rdb}
}

func validateProduct(product *entity.Product) error {
	if product.Name == "" {
		return &entity.ValidationError{Code: "name_required"}
	}
	if !product.Price.IsPositive() {
		return &entity.ValidationError{Code: "invalid_price"}
	}
	if product.StockQuantity < 0 {
		return &entity.ValidationError{Code: "invalid_stock"}
	}
	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if product.CategoryID != 0 {
		if _, err := s.categories.GetCategoryByID(ctx, product.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Str("name", product.Name).Msg("Error creating product")
		return nil, err
	}

	return created, nil
}

// UpdateProduct updates the catalog fields of a product. Stock is mutated
// only through order placement, cancellation and Restock, never here.
func (s *ProductService) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if _, err := s.products.GetProductByID(ctx, product.ID); err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now().UTC()

	updated, err := s.products.UpdateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Int("product_id", product.ID).Msg("Error updating product")
		return nil, err
	}

	s.invalidateCache(ctx, product.ID)

	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		logger.Error().Err(err).Int("product_id", id).Msg("Error deleting product")
		return err
	}

	s.invalidateCache(ctx, id)

	return nil
}

func (s *ProductService) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	return s.products.GetProductByID(ctx, id)
}

func (s *ProductService) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	return s.products.GetProducts(ctx)
}

// GetProductStock retrieves the stock for a product, reading through the
// cache when one is configured.
func (s *ProductService) GetProductStock(ctx context.Context, productID int) (int, error) {
	if s.rdb != nil {
		productCache, err := s.rdb.Get(ctx, productCacheKey(productID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Int("product_id", productID).Msg("Error reading product cache")
			return 0, err
		}

		if productCache != "" {
			var product entity.Product
			if err := json.Unmarshal([]byte(productCache), &product); err != nil {
				logger.Error().Err(err).Int("product_id", productID).Msg("Error unmarshalling cached product")
				return 0, err
			}
			return product.StockQuantity, nil
		}
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return 0, err
	}

	s.cacheProduct(ctx, product)

	return product.StockQuantity, nil
}

// Restock adds quantity units to a product's stock. This is the external
// restocking path; order placement is the only path that decrements.
func (s *ProductService) Restock(ctx context.Context, productID, quantity int) (*entity.Product, error) {
	if quantity <= 0 {
		return nil, &entity.ValidationError{Code: "invalid_quantity", ProductID: productID}
	}

	if err := s.products.RestockProduct(ctx, productID, quantity); err != nil {
		logger.Error().Err(err).Int("product_id", productID).Msg("Error restocking product")
		return nil, err
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.cacheProduct(ctx, product)

	return product, nil
}

func (s *ProductService) CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	if category.Name == "" {
		return nil, &entity.ValidationError{Code: "name_required"}
	}
	category.CreatedAt = time.Now().UTC()
	return s.categories.CreateCategory(ctx, category)
}

func (s *ProductService) UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	if category.Name == "" {
		return nil, &entity.ValidationError{Code: "name_required"}
	}
	if _, err := s.categories.GetCategoryByID(ctx, category.ID); err != nil {
		return nil, err
	}
	return s.categories.UpdateCategory(ctx, category)
}

func (s *ProductService) DeleteCategory(ctx context.Context, id int) error {
	return s.categories.DeleteCategory(ctx, id)
}

func (s *ProductService) GetCategoryByID(ctx context.Context, id int) (*entity.Category, error) {
	return s.categories.GetCategoryByID(ctx, id)
}

func (s *ProductService) GetCategories(ctx context.Context) ([]*entity.Category, error) {
	return s.categories.GetCategories(ctx)
}

func (s *ProductService) cacheProduct(ctx context.Context, product *entity.Product) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, productCacheKey(product.ID), data, time.Minute).Err(); err != nil {
		logger.Error().Err(err).Int("product_id", product.ID).Msg("Error caching product")
	}
}

func (s *ProductService) invalidateCache(ctx context.Context, productID int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, productCacheKey(productID)).Err(); err != nil {
		logger.Error().Err(err).Int("product_id", productID).Msg("Error invalidating product cache")
	}
}

func productCacheKey(productID int) string {
	return fmt.Sprintf("product:%d", productID)
}
