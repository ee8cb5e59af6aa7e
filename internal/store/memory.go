package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"adminpanel/internal/models"
)

// NewMemory returns a Store backed by process memory. Values are copied
// through the BSON codec on the way in and out so callers never share state
// with the store, the same as with MongoDB.
func NewMemory() *Store {
	return &Store{
		Combinations: &MemoryCombinations{m: map[string]*models.VerifiedCombination{}},
		Orders: &MemoryOrders{
			m:       map[string]*models.Order{},
			mirrors: map[string]*models.CustomerOrder{},
		},
		Customers:    &MemoryCustomers{m: map[string]*models.Customer{}},
		Testimonials: &MemoryTestimonials{m: map[string]*models.Testimonial{}},
		Couriers:     &MemoryCouriers{m: map[string]*models.CourierIntegration{}},
		Users:        &MemoryUsers{m: map[string]*models.User{}},
		Health:       memoryPinger{},
	}
}

type memoryPinger struct{}

func (memoryPinger) Ping(context.Context) error { return nil }

func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

func paginate[T any](all []T, page, limit int64) []T {
	skip, limit := pageBounds(page, limit)
	total := int64(len(all))
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end]
}

type MemoryCombinations struct {
	mu sync.RWMutex
	m  map[string]*models.VerifiedCombination
}

func (r *MemoryCombinations) Get(_ context.Context, hash string) (*models.VerifiedCombination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.m[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(rec), nil
}

func (r *MemoryCombinations) Create(_ context.Context, rec *models.VerifiedCombination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[rec.Hash]; ok {
		return ErrConflict
	}
	r.m[rec.Hash] = clone(rec)
	return nil
}

func (r *MemoryCombinations) RecordUsage(_ context.Context, hash string, at time.Time) (*models.VerifiedCombination, error) {
	return r.mutate(hash, func(rec *models.VerifiedCombination) {
		rec.UsageCount++
		rec.LastUsedAt = models.NewTimestamp(at)
	})
}

func (r *MemoryCombinations) Update(_ context.Context, hash string, patch CombinationPatch, by string, at time.Time) (*models.VerifiedCombination, error) {
	return r.mutate(hash, func(rec *models.VerifiedCombination) {
		if patch.Weight != nil {
			rec.Weight = *patch.Weight
		}
		if patch.Dimensions != nil {
			rec.Dimensions = *patch.Dimensions
		}
		if patch.Notes != nil {
			rec.Notes = *patch.Notes
		}
		if patch.IsActive != nil {
			rec.IsActive = *patch.IsActive
		}
		rec.UpdatedBy = by
		rec.UpdatedAt = models.NewTimestamp(at)
	})
}

func (r *MemoryCombinations) Deactivate(_ context.Context, hash, by string, at time.Time) (*models.VerifiedCombination, error) {
	return r.mutate(hash, func(rec *models.VerifiedCombination) {
		rec.IsActive = false
		rec.UpdatedBy = by
		rec.UpdatedAt = models.NewTimestamp(at)
	})
}

func (r *MemoryCombinations) List(_ context.Context, filter CombinationFilter) ([]models.VerifiedCombination, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.VerifiedCombination, 0, len(r.m))
	for _, rec := range r.m {
		if filter.ActiveOnly && !rec.IsActive {
			continue
		}
		if filter.SKU != "" && !containsString(rec.ProductSKUs, filter.SKU) {
			continue
		}
		all = append(all, *clone(rec))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].UsageCount != all[j].UsageCount {
			return all[i].UsageCount > all[j].UsageCount
		}
		return all[i].VerifiedAt.After(all[j].VerifiedAt.Time)
	})
	return paginate(all, filter.Page, filter.Limit), int64(len(all)), nil
}

func (r *MemoryCombinations) mutate(hash string, fn func(*models.VerifiedCombination)) (*models.VerifiedCombination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.m[hash]
	if !ok {
		return nil, ErrNotFound
	}
	fn(rec)
	return clone(rec), nil
}

type MemoryOrders struct {
	mu      sync.RWMutex
	seq     int64
	m       map[string]*models.Order
	mirrors map[string]*models.CustomerOrder
}

func (r *MemoryOrders) NextOrderID(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return FormatOrderID(r.seq), nil
}

func (r *MemoryOrders) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[order.OrderID]; ok {
		return ErrConflict
	}
	r.m[order.OrderID] = clone(order)
	r.putMirror(order, order.UpdatedAt.Time)
	return nil
}

// Insert stores an order without touching its mirror. It exists to seed
// drift and legacy documents in tests.
func (r *MemoryOrders) Insert(order *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[order.OrderID] = clone(order)
}

func (r *MemoryOrders) Get(_ context.Context, orderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.m[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(order), nil
}

func (r *MemoryOrders) GetByPaymentReference(_ context.Context, razorpayOrderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.m {
		if order.PaymentInfo.RazorpayOrderID == razorpayOrderID {
			return clone(order), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryOrders) Save(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.m[order.OrderID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != order.Version {
		return ErrConflict
	}
	order.Version++
	r.m[order.OrderID] = clone(order)
	r.putMirror(order, order.UpdatedAt.Time)
	return nil
}

func (r *MemoryOrders) List(_ context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	all := make([]models.Order, 0, len(r.m))
	for _, order := range r.m {
		if filter.Status != "" && order.InternalStatus != filter.Status {
			continue
		}
		if filter.CustomerID != "" && order.CustomerInfo.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Source != "" && order.OrderSource != filter.Source {
			continue
		}
		total++
		if err := order.Validate(); err != nil {
			continue
		}
		all = append(all, *clone(order))
	}
	sortOrdersNewestFirst(all)
	return paginate(all, filter.Page, filter.Limit), total, nil
}

func (r *MemoryOrders) Scan(ctx context.Context, fn func(*models.Order) error) error {
	r.mu.RLock()
	ids := make([]string, 0, len(r.m))
	for id := range r.m {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	for _, id := range ids {
		order, err := r.Get(ctx, id)
		if err != nil {
			continue
		}
		if err := fn(order); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryOrders) GetMirror(_ context.Context, customerID, orderID string) (*models.CustomerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mirror, ok := r.mirrors[models.MirrorID(customerID, orderID)]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(mirror), nil
}

func (r *MemoryOrders) SaveMirror(_ context.Context, order *models.Order, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putMirror(order, at)
	return nil
}

func (r *MemoryOrders) ListMirror(_ context.Context, customerID string, page, limit int64) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	all := make([]models.Order, 0)
	for _, mirror := range r.mirrors {
		if mirror.CustomerID != customerID {
			continue
		}
		total++
		if err := mirror.Order.Validate(); err != nil {
			continue
		}
		all = append(all, clone(mirror).Order)
	}
	sortOrdersNewestFirst(all)
	return paginate(all, page, limit), total, nil
}

func (r *MemoryOrders) ReassignCustomer(_ context.Context, fromID, toID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0)
	for id, order := range r.m {
		if order.CustomerInfo.CustomerID == fromID {
			order.CustomerInfo.CustomerID = toID
			order.Version++
			ids = append(ids, id)
		}
	}
	for key, mirror := range r.mirrors {
		if mirror.CustomerID == fromID {
			delete(r.mirrors, key)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteMirror removes a mirror to simulate drift in tests.
func (r *MemoryOrders) DeleteMirror(customerID, orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mirrors, models.MirrorID(customerID, orderID))
}

func (r *MemoryOrders) putMirror(order *models.Order, at time.Time) {
	customerID := order.CustomerInfo.CustomerID
	if customerID == "" {
		return
	}
	id := models.MirrorID(customerID, order.OrderID)
	r.mirrors[id] = &models.CustomerOrder{
		ID:         id,
		CustomerID: customerID,
		OrderID:    order.OrderID,
		Order:      *clone(order),
		SyncedAt:   models.NewTimestamp(at),
	}
}

func sortOrdersNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt.Time) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt.Time)
		}
		return orders[i].OrderID > orders[j].OrderID
	})
}

type MemoryCustomers struct {
	mu sync.RWMutex
	m  map[string]*models.Customer
}

func (r *MemoryCustomers) Get(_ context.Context, id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(customer), nil
}

func (r *MemoryCustomers) GetByPhone(_ context.Context, phone string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, customer := range r.m {
		if customer.Phone == phone {
			return clone(customer), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryCustomers) Create(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[customer.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.m {
		if existing.Phone == customer.Phone {
			return ErrConflict
		}
	}
	r.m[customer.ID] = clone(customer)
	return nil
}

func (r *MemoryCustomers) List(_ context.Context, page, limit int64) ([]models.Customer, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]models.Customer, 0, len(r.m))
	for _, customer := range r.m {
		all = append(all, *clone(customer))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt.Time) {
			return all[i].CreatedAt.After(all[j].CreatedAt.Time)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *MemoryCustomers) SaveAddresses(_ context.Context, id string, addresses []models.Address, defaultAddress *models.Address, expectedVersion int64, at time.Time) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	if customer.Version != expectedVersion {
		return nil, ErrConflict
	}
	customer.Addresses = append([]models.Address(nil), addresses...)
	customer.DefaultAddress = nil
	if defaultAddress != nil {
		def := *defaultAddress
		customer.DefaultAddress = &def
	}
	customer.Version++
	customer.UpdatedAt = models.NewTimestamp(at)
	return clone(customer), nil
}

func (r *MemoryCustomers) RecordOrder(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.m[id]
	if !ok {
		return ErrNotFound
	}
	customer.Stats.OrderCount++
	customer.Stats.LastOrderAt = models.NewTimestamp(at)
	customer.UpdatedAt = models.NewTimestamp(at)
	return nil
}

func (r *MemoryCustomers) RecordDelivery(_ context.Context, id string, amount float64, at time.Time) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	customer.Stats.DeliveredCount++
	customer.Stats.TotalSpent += amount
	customer.LoyaltyTier = models.LoyaltyTierFor(customer.Stats.TotalSpent)
	customer.UpdatedAt = models.NewTimestamp(at)
	return clone(customer), nil
}

func (r *MemoryCustomers) ListLegacyKeyed(context.Context) ([]models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Customer, 0)
	for _, customer := range r.m {
		if customer.ID == customer.Phone {
			out = append(out, *clone(customer))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryCustomers) Rekey(_ context.Context, fromID, toID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.m[fromID]
	if !ok {
		return ErrNotFound
	}
	if _, taken := r.m[toID]; taken {
		return ErrConflict
	}
	delete(r.m, fromID)
	customer.ID = toID
	customer.Version++
	r.m[toID] = customer
	return nil
}

type MemoryTestimonials struct {
	mu sync.RWMutex
	m  map[string]*models.Testimonial
}

func (r *MemoryTestimonials) List(_ context.Context, activeOnly bool) ([]models.Testimonial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Testimonial, 0, len(r.m))
	for _, t := range r.m {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *clone(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out, nil
}

func (r *MemoryTestimonials) Get(_ context.Context, id string) (*models.Testimonial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t), nil
}

func (r *MemoryTestimonials) Create(_ context.Context, t *models.Testimonial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[t.ID]; ok {
		return ErrConflict
	}
	r.m[t.ID] = clone(t)
	return nil
}

func (r *MemoryTestimonials) Update(_ context.Context, t *models.Testimonial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[t.ID]; !ok {
		return ErrNotFound
	}
	r.m[t.ID] = clone(t)
	return nil
}

func (r *MemoryTestimonials) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return ErrNotFound
	}
	delete(r.m, id)
	return nil
}

type MemoryCouriers struct {
	mu sync.RWMutex
	m  map[string]*models.CourierIntegration
}

func (r *MemoryCouriers) Get(_ context.Context, courier string) (*models.CourierIntegration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	integration, ok := r.m[courier]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(integration), nil
}

func (r *MemoryCouriers) Upsert(_ context.Context, integration *models.CourierIntegration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[integration.Courier] = clone(integration)
	return nil
}

func (r *MemoryCouriers) List(context.Context) ([]models.CourierIntegration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CourierIntegration, 0, len(r.m))
	for _, integration := range r.m {
		out = append(out, *clone(integration))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Courier < out[j].Courier })
	return out, nil
}

type MemoryUsers struct {
	mu sync.RWMutex
	m  map[string]*models.User
}

// Put seeds an account.
func (r *MemoryUsers) Put(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[user.Email] = clone(user)
}

func (r *MemoryUsers) GetAdminByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.m[email]
	if !ok || user.Role != models.RoleAdmin {
		return nil, ErrNotFound
	}
	return clone(user), nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
