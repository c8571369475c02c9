// Package memory is the dev/demo Repository backed by maps. It seeds two
// outlets with an Indonesian coffee-shop catalog so the dashboard and report
// endpoints have data on first boot.
package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/store"
	"lapakpos/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	outlets          map[string]domain.Outlet
	outletOrder      []string
	products         map[string]domain.Product
	transactionsByID map[string]domain.Transaction
	transactionLog   []string
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_OWNER_PASSWORD, SEED_ADMIN_PASSWORD and
// SEED_CASHIER_PASSWORD; unset variables fall back to hardcoded dev defaults
// with a warning. These accounts are never used in production (the backend
// uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_OWNER_PASSWORD, SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"owner", ownerPwd, domain.RoleOwner},
		{"admin", adminPwd, domain.RoleAdmin},
		{"cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	outlets := []domain.Outlet{
		{ID: "out-pusat", Name: "Kedai Pusat", Address: "Jl. Merdeka No. 1, Jakarta", Status: domain.OutletStatusActive},
		{ID: "out-selatan", Name: "Cabang Selatan", Address: "Jl. Fatmawati No. 88, Jakarta", Status: domain.OutletStatusActive},
	}

	products := []domain.Product{
		{ID: "prd-kopisusu-p", OutletID: "out-pusat", Name: "Kopi Susu", Category: "Minuman", Price: 18000, Stock: 40},
		{ID: "prd-americano-p", OutletID: "out-pusat", Name: "Americano", Category: "Minuman", Price: 15000, Stock: 35},
		{ID: "prd-tehmanis-p", OutletID: "out-pusat", Name: "Teh Manis", Category: "Minuman", Price: 8000, Stock: 60},
		{ID: "prd-rotibakar-p", OutletID: "out-pusat", Name: "Roti Bakar Coklat", Category: "Makanan", Price: 22000, Stock: 20},
		{ID: "prd-nasgor-p", OutletID: "out-pusat", Name: "Nasi Goreng Spesial", Category: "Makanan", Price: 28000, Stock: 15},
		{ID: "prd-keripik-p", OutletID: "out-pusat", Name: "Keripik Singkong", Category: "Snack", Price: 12000, Stock: 3},
		{ID: "prd-kopisusu-s", OutletID: "out-selatan", Name: "Kopi Susu", Category: "Minuman", Price: 18000, Stock: 25},
		{ID: "prd-tehmanis-s", OutletID: "out-selatan", Name: "Teh Manis", Category: "Minuman", Price: 8000, Stock: 50},
		{ID: "prd-pisgor-s", OutletID: "out-selatan", Name: "Pisang Goreng", Category: "Makanan", Price: 14000, Stock: 18},
		{ID: "prd-coklat-s", OutletID: "out-selatan", Name: "Coklat Batang", Category: "Snack", Price: 9000, Stock: 4},
	}

	outletMap := make(map[string]domain.Outlet, len(outlets))
	order := make([]string, 0, len(outlets))
	for _, o := range outlets {
		outletMap[o.ID] = o
		order = append(order, o.ID)
	}
	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	return &Store{
		outlets:          outletMap,
		outletOrder:      order,
		products:         productMap,
		transactionsByID: make(map[string]domain.Transaction),
		transactionLog:   make([]string, 0, 256),
		auditLogs:        make([]domain.AuditLog, 0, 128),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListOutlets(_ context.Context) ([]domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outlets := make([]domain.Outlet, 0, len(s.outletOrder))
	for _, id := range s.outletOrder {
		outlets = append(outlets, s.outlets[id])
	}
	return outlets, nil
}

func (s *Store) GetOutletByID(_ context.Context, id string) (*domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outlet, exists := s.outlets[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOutlet := outlet
	return &copyOutlet, nil
}

func (s *Store) CreateOutlet(_ context.Context, outlet domain.Outlet) (*domain.Outlet, error) {
	if strings.TrimSpace(outlet.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if outlet.ID == "" {
		outlet.ID = xid.New("out")
	}
	if outlet.Status == "" {
		outlet.Status = domain.OutletStatusActive
	}
	if _, exists := s.outlets[outlet.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.outlets[outlet.ID] = outlet
	s.outletOrder = append(s.outletOrder, outlet.ID)
	created := outlet
	return &created, nil
}

func (s *Store) UpdateOutlet(_ context.Context, outlet domain.Outlet) (*domain.Outlet, error) {
	if strings.TrimSpace(outlet.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outlets[outlet.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.outlets[outlet.ID] = outlet
	updated := outlet
	return &updated, nil
}

// ListProducts returns products for one outlet, or every outlet when
// outletID is empty. Sorted by category then name for stable catalog pages.
func (s *Store) ListProducts(_ context.Context, outletID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if outletID != "" && p.OutletID != outletID {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			if a.Name == b.Name {
				return cmpString(a.ID, b.ID)
			}
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.OutletID == "" || strings.TrimSpace(product.Name) == "" || product.Price < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outlets[product.OutletID]; !exists {
		return nil, store.ErrNotFound
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.Price < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// AdjustStock applies a signed delta. A decrement that would push stock below
// zero fails with ErrInsufficientStock and leaves the row untouched.
func (s *Store) AdjustStock(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return store.ErrNotFound
	}
	next := product.Stock + delta
	if next < 0 {
		return store.ErrInsufficientStock
	}
	product.Stock = next
	s.products[id] = product
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.OutletID == "" || len(tx.Items) == 0 || tx.Total < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if _, exists := s.transactionsByID[tx.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	tx.Items = slices.Clone(tx.Items)
	s.transactionsByID[tx.ID] = tx
	s.transactionLog = append(s.transactionLog, tx.ID)
	created := tx
	return &created, nil
}

func (s *Store) FindTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactionsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	tx.Items = slices.Clone(tx.Items)
	return &tx, nil
}

// ListTransactions returns newest first. outletID filters when non-empty;
// limit <= 0 means no limit.
func (s *Store) ListTransactions(_ context.Context, outletID string, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactionLog))
	for i := len(s.transactionLog) - 1; i >= 0; i-- {
		tx := s.transactionsByID[s.transactionLog[i]]
		if outletID != "" && tx.OutletID != outletID {
			continue
		}
		tx.Items = slices.Clone(tx.Items)
		result = append(result, tx)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, outletID string, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, len(s.auditLogs))
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if outletID != "" && entry.OutletID != outletID {
			continue
		}
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username, password string) error {
	if password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
