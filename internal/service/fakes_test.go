package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

// fakeOrderStore mirrors the MySQL order repository's transactional
// semantics in memory: snapshot prices under the lock, validate every line,
// then decrement conditionally so stock never goes negative.
type fakeOrderStore struct {
	mu       sync.Mutex
	products map[int]*entity.ProductSnapshot
	orders   map[int]*entity.Order
	nextID   int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		products: make(map[int]*entity.ProductSnapshot),
		orders:   make(map[int]*entity.Order),
	}
}

func (f *fakeOrderStore) setProduct(id int, price string, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id] = &entity.ProductSnapshot{
		ProductID:     id,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

func (f *fakeOrderStore) setPrice(id int, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id].Price = decimal.RequireFromString(price)
}

func (f *fakeOrderStore) stock(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].StockQuantity
}

func (f *fakeOrderStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrderStore) PlaceOrder(ctx context.Context, userID int, lines []entity.ItemRequest) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshots := make(map[int]entity.ProductSnapshot, len(lines))
	for _, line := range lines {
		if p, ok := f.products[line.ProductID]; ok {
			snapshots[line.ProductID] = *p
		}
	}

	order, err := entity.NewPendingOrder(userID, lines, snapshots)
	if err != nil {
		return nil, err
	}

	for i, item := range order.Items {
		product := f.products[item.ProductID]
		if product.StockQuantity < item.Quantity {
			// restore decrements applied so far, like a rollback
			for j := 0; j < i; j++ {
				f.products[order.Items[j].ProductID].StockQuantity += order.Items[j].Quantity
			}
			return nil, &entity.ConflictError{Reason: "stock changed concurrently, retry the order"}
		}
		product.StockQuantity -= item.Quantity
	}

	f.nextID++
	order.ID = f.nextID
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	stored := *order
	stored.Items = append([]entity.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &stored

	return order, nil
}

func (f *fakeOrderStore) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.orders[id]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "order", ID: id}
	}

	order := *stored
	order.Items = append([]entity.OrderItem(nil), stored.Items...)
	return &order, nil
}

func (f *fakeOrderStore) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []*entity.Order
	for id := f.nextID; id > 0; id-- {
		if stored, ok := f.orders[id]; ok && stored.UserID == userID {
			order := *stored
			order.Items = append([]entity.OrderItem(nil), stored.Items...)
			orders = append(orders, &order)
		}
	}
	return orders, nil
}

func (f *fakeOrderStore) CancelOrder(ctx context.Context, id int) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.orders[id]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "order", ID: id}
	}
	if stored.Status != entity.OrderStatusPending {
		return nil, &entity.ConflictError{Reason: "only pending orders can be cancelled"}
	}

	stored.Status = entity.OrderStatusCancelled
	for _, item := range stored.Items {
		if product, ok := f.products[item.ProductID]; ok {
			product.StockQuantity += item.Quantity
		}
	}

	order := *stored
	order.Items = append([]entity.OrderItem(nil), stored.Items...)
	return &order, nil
}

// fakeUserStore keeps user accounts in memory with the repository's
// unique-email behavior.
type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[int]*entity.User
	byEmail map[string]*entity.User
	nextID  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[int]*entity.User),
		byEmail: make(map[string]*entity.User),
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byEmail[user.Email]; ok {
		return nil, &entity.ConflictError{Reason: "email already registered"}
	}

	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.byID[user.ID] = &stored
	f.byEmail[user.Email] = &stored
	return user, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byID[id]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "user", ID: id}
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byEmail[email]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "user"}
	}
	copied := *user
	return &copied, nil
}

// fakeProductStore and fakeCategoryStore back the catalog service tests.
type fakeProductStore struct {
	mu       sync.Mutex
	products map[int]*entity.Product
	nextID   int
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[int]*entity.Product)}
}

func (f *fakeProductStore) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "product", ID: id}
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProductStore) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	product.ID = f.nextID
	stored := *product
	f.products[product.ID] = &stored
	return product, nil
}

func (f *fakeProductStore) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.products[product.ID]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "product", ID: product.ID}
	}
	updated := *product
	updated.StockQuantity = stored.StockQuantity
	f.products[product.ID] = &updated
	return product, nil
}

func (f *fakeProductStore) DeleteProduct(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return &entity.NotFoundError{Resource: "product", ID: id}
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var products []*entity.Product
	for id := f.nextID; id > 0; id-- {
		if product, ok := f.products[id]; ok {
			copied := *product
			products = append(products, &copied)
		}
	}
	return products, nil
}

func (f *fakeProductStore) RestockProduct(ctx context.Context, id, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return &entity.NotFoundError{Resource: "product", ID: id}
	}
	product.StockQuantity += quantity
	return nil
}

type fakeCategoryStore struct {
	mu         sync.Mutex
	categories map[int]*entity.Category
	nextID     int
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: make(map[int]*entity.Category)}
}

func (f *fakeCategoryStore) GetCategoryByID(ctx context.Context, id int) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	category, ok := f.categories[id]
	if !ok {
		return nil, &entity.NotFoundError{Resource: "category", ID: id}
	}
	copied := *category
	return &copied, nil
}

func (f *fakeCategoryStore) CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	category.ID = f.nextID
	stored := *category
	f.categories[category.ID] = &stored
	return category, nil
}

func (f *fakeCategoryStore) UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.categories[category.ID]; !ok {
		return nil, &entity.NotFoundError{Resource: "category", ID: category.ID}
	}
	stored := *category
	f.categories[category.ID] = &stored
	return category, nil
}

func (f *fakeCategoryStore) DeleteCategory(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.categories[id]; !ok {
		return &entity.NotFoundError{Resource: "category", ID: id}
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryStore) GetCategories(ctx context.Context) ([]*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var categories []*entity.Category
	for id := 1; id <= f.nextID; id++ {
		if category, ok := f.categories[id]; ok {
			copied := *category
			categories = append(categories, &copied)
		}
	}
	return categories, nil
}
