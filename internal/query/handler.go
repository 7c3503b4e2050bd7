package query

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidPeriod = errors.New("start date must not be after end date")

type Handler struct {
	readStore store.ReadStoreInterface
	flights   singleflight.Group
	now       func() time.Time
	log       *logrus.Entry
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		readStore: readStore,
		now:       time.Now,
		log:       logging.New("query"),
	}
}

func get[T any](h *Handler, collection, id string) (*T, bool) {
	data, ok := h.readStore.Get(collection, id)
	if !ok {
		return nil, false
	}
	doc, ok := data.(*T)
	if !ok {
		h.log.WithField("collection", collection).Warnf("unexpected document type %T", data)
	}
	return doc, ok
}

func list[T any](h *Handler, collection string, keep func(*T) bool) []*T {
	items := h.readStore.GetAll(collection)
	out := make([]*T, 0, len(items))
	for _, item := range items {
		doc, ok := item.(*T)
		if !ok {
			continue
		}
		if keep == nil || keep(doc) {
			out = append(out, doc)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

// DayRange widens [start, end] to whole days, 00:00 on start through 23:59:59 on end.
func DayRange(start, end time.Time) (time.Time, time.Time, error) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), end.Location())
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return from, to, nil
}

// ============================================
// Categories and departments
// ============================================

type LookupFilter struct {
	Name string
}

func (h *Handler) GetLookup(collection, id string) (*readmodel.LookupReadModel, bool) {
	return get[readmodel.LookupReadModel](h, collection, id)
}

func (h *Handler) ListLookups(collection string, f LookupFilter, page PageRequest) Page[*readmodel.LookupReadModel] {
	items := list(h, collection, func(l *readmodel.LookupReadModel) bool {
		return f.Name == "" || containsFold(l.Name, f.Name)
	})
	sortByName(items, func(l *readmodel.LookupReadModel) string { return l.Name })
	return Paginate(items, page)
}

// ActiveLookups feeds the select boxes of the back office
func (h *Handler) ActiveLookups(collection string) []*readmodel.LookupReadModel {
	items := list(h, collection, func(l *readmodel.LookupReadModel) bool { return l.Active })
	sortByName(items, func(l *readmodel.LookupReadModel) string { return l.Name })
	return items
}

// FindLookupByName matches case-insensitively, ignoring surrounding blanks
func (h *Handler) FindLookupByName(collection, name string) (*readmodel.LookupReadModel, bool) {
	name = strings.TrimSpace(name)
	for _, l := range list[readmodel.LookupReadModel](h, collection, nil) {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return nil, false
}

// ============================================
// Suppliers
// ============================================

type SupplierFilter struct {
	Name string
}

func (h *Handler) GetSupplier(id string) (*readmodel.SupplierReadModel, bool) {
	return get[readmodel.SupplierReadModel](h, readmodel.CollectionSuppliers, id)
}

func (h *Handler) ListSuppliers(f SupplierFilter, page PageRequest) Page[*readmodel.SupplierReadModel] {
	items := list(h, readmodel.CollectionSuppliers, func(s *readmodel.SupplierReadModel) bool {
		return f.Name == "" || containsFold(s.Name, f.Name) || containsFold(s.ContactName, f.Name)
	})
	sortByName(items, func(s *readmodel.SupplierReadModel) string { return s.Name })
	return Paginate(items, page)
}

func (h *Handler) ActiveSuppliers() []*readmodel.SupplierReadModel {
	items := list(h, readmodel.CollectionSuppliers, func(s *readmodel.SupplierReadModel) bool { return s.Active })
	sortByName(items, func(s *readmodel.SupplierReadModel) string { return s.Name })
	return items
}

// FindSupplierByCNPJ expects digits only
func (h *Handler) FindSupplierByCNPJ(cnpj string) (*readmodel.SupplierReadModel, bool) {
	if cnpj == "" {
		return nil, false
	}
	for _, s := range list[readmodel.SupplierReadModel](h, readmodel.CollectionSuppliers, nil) {
		if s.CNPJ == cnpj {
			return s, true
		}
	}
	return nil, false
}

// ============================================
// Products
// ============================================

type ProductFilter struct {
	Name       string
	SKU        string
	CategoryID string
	Active     *bool
}

func (h *Handler) GetProduct(id string) (*readmodel.ProductReadModel, bool) {
	return get[readmodel.ProductReadModel](h, readmodel.CollectionProducts, id)
}

func (h *Handler) ListProducts(f ProductFilter, page PageRequest) Page[*readmodel.ProductReadModel] {
	items := list(h, readmodel.CollectionProducts, func(p *readmodel.ProductReadModel) bool {
		if f.Active != nil && p.Active != *f.Active {
			return false
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			return false
		}
		if f.SKU != "" && !containsFold(p.SKU, f.SKU) {
			return false
		}
		return f.Name == "" || containsFold(p.Name, f.Name)
	})
	sortByName(items, func(p *readmodel.ProductReadModel) string { return p.Name })
	return Paginate(items, page)
}

// ActiveProducts is the unpaginated list used by the POS and movement forms
func (h *Handler) ActiveProducts() []*readmodel.ProductReadModel {
	items := list(h, readmodel.CollectionProducts, func(p *readmodel.ProductReadModel) bool { return p.Active })
	sortByName(items, func(p *readmodel.ProductReadModel) string { return p.Name })
	return items
}

// FindProductByCode resolves a scanned code: exact barcode first, then SKU ignoring case.
func (h *Handler) FindProductByCode(code string) (*readmodel.ProductReadModel, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false
	}
	products := list[readmodel.ProductReadModel](h, readmodel.CollectionProducts, nil)
	for _, p := range products {
		if p.Barcode != "" && p.Barcode == code {
			return p, true
		}
	}
	for _, p := range products {
		if strings.EqualFold(p.SKU, code) {
			return p, true
		}
	}
	return nil, false
}

// FindProductBySKU ignores case
func (h *Handler) FindProductBySKU(sku string) (*readmodel.ProductReadModel, bool) {
	sku = strings.TrimSpace(sku)
	for _, p := range list[readmodel.ProductReadModel](h, readmodel.CollectionProducts, nil) {
		if strings.EqualFold(p.SKU, sku) {
			return p, true
		}
	}
	return nil, false
}

// LowStockProducts lists active products below their minimum, scarcest first
func (h *Handler) LowStockProducts() []*readmodel.ProductReadModel {
	items := list(h, readmodel.CollectionProducts, func(p *readmodel.ProductReadModel) bool {
		return p.Active && p.IsLowStock()
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].QuantityInStock-items[i].MinStock < items[j].QuantityInStock-items[j].MinStock
	})
	return items
}

// ============================================
// Stock movements
// ============================================

type MovementFilter struct {
	ProductID    string
	DepartmentID string
	Type         string
	Start        *time.Time
	End          *time.Time
}

// ListMovements returns the history newest first
func (h *Handler) ListMovements(f MovementFilter, page PageRequest) Page[*readmodel.MovementReadModel] {
	items := list(h, readmodel.CollectionMovements, func(m *readmodel.MovementReadModel) bool {
		switch {
		case f.ProductID != "" && m.ProductID != f.ProductID:
			return false
		case f.DepartmentID != "" && m.DepartmentID != f.DepartmentID:
			return false
		case f.Type != "" && !strings.EqualFold(m.Type, f.Type):
			return false
		case f.Start != nil && m.OccurredAt.Before(*f.Start):
			return false
		case f.End != nil && m.OccurredAt.After(*f.End):
			return false
		}
		return true
	})
	sortNewestFirst(items, func(m *readmodel.MovementReadModel) time.Time { return m.OccurredAt })
	return Paginate(items, page)
}

// ============================================
// POS cart
// ============================================

// GetCart returns the cashier's cart, empty when nothing was ever added
func (h *Handler) GetCart(cashierID string) *readmodel.CartReadModel {
	cartID := cart.GetCartID(cashierID)
	if c, ok := get[readmodel.CartReadModel](h, readmodel.CollectionCarts, cartID); ok {
		return c
	}
	return &readmodel.CartReadModel{
		ID:        cartID,
		CashierID: cashierID,
		Lines:     []readmodel.CartLineReadModel{},
		Total:     decimal.Zero,
	}
}

// ============================================
// Sales
// ============================================

type SaleFilter struct {
	Start     *time.Time
	End       *time.Time
	CashierID string
	Status    string
	// Search matches the sale id, the cashier name or any product name
	Search string
}

func (f SaleFilter) match(s *readmodel.SaleReadModel) bool {
	switch {
	case f.CashierID != "" && s.CashierID != f.CashierID:
		return false
	case f.Status != "" && !strings.EqualFold(s.Status, f.Status):
		return false
	case f.Start != nil && s.CreatedAt.Before(*f.Start):
		return false
	case f.End != nil && s.CreatedAt.After(*f.End):
		return false
	}
	if f.Search == "" {
		return true
	}
	if containsFold(s.ID, f.Search) || containsFold(s.CashierName, f.Search) {
		return true
	}
	for _, l := range s.Lines {
		if containsFold(l.ProductName, f.Search) {
			return true
		}
	}
	return false
}

func (h *Handler) GetSale(id string) (*readmodel.SaleReadModel, bool) {
	return get[readmodel.SaleReadModel](h, readmodel.CollectionSales, id)
}

// ListSales returns matching sales newest first
func (h *Handler) ListSales(f SaleFilter, page PageRequest) Page[*readmodel.SaleReadModel] {
	items := list(h, readmodel.CollectionSales, f.match)
	sortNewestFirst(items, func(s *readmodel.SaleReadModel) time.Time { return s.CreatedAt })
	return Paginate(items, page)
}

// SalesSummary totals completed sales matching f
type SalesSummary struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

func (h *Handler) SalesSummary(f SaleFilter) SalesSummary {
	f.Status = "COMPLETED"
	summary := SalesSummary{Revenue: decimal.Zero}
	for _, s := range list(h, readmodel.CollectionSales, f.match) {
		summary.Count++
		summary.Revenue = summary.Revenue.Add(s.TotalAmount)
	}
	return summary
}

// ============================================
// Users
// ============================================

func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, bool) {
	return get[readmodel.UserReadModel](h, readmodel.CollectionUsers, id)
}

// GetUserByLogin expects a normalized login
func (h *Handler) GetUserByLogin(login string) (*readmodel.UserReadModel, bool) {
	for _, u := range list[readmodel.UserReadModel](h, readmodel.CollectionUsers, nil) {
		if u.Login == login {
			return u, true
		}
	}
	return nil, false
}

// GetUserByEmail ignores case. An empty email never matches.
func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, false
	}
	for _, u := range list[readmodel.UserReadModel](h, readmodel.CollectionUsers, nil) {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return nil, false
}

func (h *Handler) ListUsers(page PageRequest) Page[*readmodel.UserReadModel] {
	items := list[readmodel.UserReadModel](h, readmodel.CollectionUsers, nil)
	sortByName(items, func(u *readmodel.UserReadModel) string { return u.Name })
	return Paginate(items, page)
}

func (h *Handler) CountUsers() int {
	return len(h.readStore.GetAll(readmodel.CollectionUsers))
}

// ActiveUsersWithRole is used to address notifications
func (h *Handler) ActiveUsersWithRole(role string) []*readmodel.UserReadModel {
	return list(h, readmodel.CollectionUsers, func(u *readmodel.UserReadModel) bool {
		return u.IsActive && u.Role == role
	})
}

func sortByName[T any](items []*T, name func(*T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}

func sortNewestFirst[T any](items []*T, at func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(items[i]).After(at(items[j]))
	})
}
