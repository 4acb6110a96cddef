package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	product := &entity.Product{}
	var categoryID sql.NullInt64
	query := `SELECT id, name, description, price, category_id, stock_quantity, created_at, updated_at FROM products WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price, &categoryID, &product.StockQuantity, &product.CreatedAt, &product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entity.NotFoundError{Resource: "product", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		product.CategoryID = int(categoryID.Int64)
	}

	return product, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `INSERT INTO products (name, description, price, category_id, stock_quantity, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, nullableID(product.CategoryID), product.StockQuantity, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	product.ID = int(id)
	return product, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `UPDATE products SET name = ?, description = ?, price = ?, category_id = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, nullableID(product.CategoryID), product.UpdatedAt, product.ID)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Resource: "product", ID: id}
	}
	return nil
}

func (r *ProductRepository) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	var products []*entity.Product

	query := `SELECT id, name, description, price, category_id, stock_quantity, created_at, updated_at FROM products ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		product := &entity.Product{}
		var categoryID sql.NullInt64
		err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &categoryID, &product.StockQuantity, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if categoryID.Valid {
			product.CategoryID = int(categoryID.Int64)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

// RestockProduct adds quantity units to the product's stock. Restocking is the
// only code path besides order cancellation that increases stock_quantity.
func (r *ProductRepository) RestockProduct(ctx context.Context, id, quantity int) error {
	query := `UPDATE products SET stock_quantity = stock_quantity + ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Resource: "product", ID: id}
	}
	return nil
}

func nullableID(id int) any {
	if id == 0 {
		return nil
	}
	return id
}

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db}
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id int) (*entity.Category, error) {
	category := &entity.Category{}
	query := `SELECT id, name, description, created_at FROM categories WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entity.NotFoundError{Resource: "category", ID: id}
	}
	if err != nil {
		return nil, err
	}

	return category, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	query := `INSERT INTO categories (name, description, created_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, category.Name, category.Description, category.CreatedAt)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	category.ID = int(id)
	return category, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	query := `UPDATE categories SET name = ?, description = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, category.Name, category.Description, category.ID)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int) error {
	query := `DELETE FROM categories WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Resource: "category", ID: id}
	}
	return nil
}

func (r *CategoryRepository) GetCategories(ctx context.Context) ([]*entity.Category, error) {
	var categories []*entity.Category

	query := `SELECT id, name, description, created_at FROM categories ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		category := &entity.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}
