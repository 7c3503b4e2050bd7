package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/query"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/shopspring/decimal"
)

// SaleFilter narrows sale listings. Zero values are left out of the request.
type SaleFilter struct {
	Start  time.Time
	End    time.Time
	UserID string
	Status string
	Search string
	Page   query.PageRequest
}

func (f SaleFilter) values() url.Values {
	v := pageQuery(f.Page)
	if !f.Start.IsZero() {
		v.Set("start", f.Start.Format(time.DateOnly))
	}
	if !f.End.IsZero() {
		v.Set("end", f.End.Format(time.DateOnly))
	}
	for key, val := range map[string]string{"user_id": f.UserID, "status": f.Status, "search": f.Search} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

type Sales struct {
	c *Client
}

func NewSales(c *Client) *Sales {
	return &Sales{c: c}
}

func (s *Sales) Create(ctx context.Context, in command.RecordSale) Result[readmodel.SaleReadModel] {
	var out readmodel.SaleReadModel
	if err := s.c.do(ctx, http.MethodPost, "/api/sales", in, &out); err != nil {
		return failAll[readmodel.SaleReadModel](err)
	}
	return succeed(out)
}

func (s *Sales) List(ctx context.Context, f SaleFilter) Result[query.Page[readmodel.SaleReadModel]] {
	var out query.Page[readmodel.SaleReadModel]
	if err := s.c.do(ctx, http.MethodGet, "/api/sales?"+f.values().Encode(), nil, &out); err != nil {
		return fail[query.Page[readmodel.SaleReadModel]](err, "Erro ao carregar vendas")
	}
	return succeed(out)
}

func (s *Sales) Get(ctx context.Context, id string) Result[readmodel.SaleReadModel] {
	var out readmodel.SaleReadModel
	if err := s.c.do(ctx, http.MethodGet, "/api/sales/"+url.PathEscape(id), nil, &out); err != nil {
		return fail[readmodel.SaleReadModel](err, "Venda não encontrada")
	}
	return succeed(out)
}

// UpdateStatus cancels or refunds a sale.
func (s *Sales) UpdateStatus(ctx context.Context, id, status, reason string) Result[string] {
	body := map[string]string{"status": status, "reason": reason}
	var out struct {
		Status string `json:"status"`
	}
	if err := s.c.do(ctx, http.MethodPatch, "/api/sales/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return fail[string](err, "Erro ao atualizar status da venda")
	}
	return succeed(out.Status)
}

func (s *Sales) Revenue(ctx context.Context, f SaleFilter) Result[decimal.Decimal] {
	var out struct {
		Revenue decimal.Decimal `json:"revenue"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/sales/revenue?"+f.values().Encode(), nil, &out); err != nil {
		return fail[decimal.Decimal](err, "Erro ao calcular faturamento")
	}
	return succeed(out.Revenue)
}

func (s *Sales) Count(ctx context.Context, f SaleFilter) Result[int] {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/sales/count?"+f.values().Encode(), nil, &out); err != nil {
		return fail[int](err, "Erro ao contar vendas")
	}
	return succeed(out.Count)
}

// ============================================
// Stock movements
// ============================================

// MovementFilter narrows movement listings. Zero values are left out of the request.
type MovementFilter struct {
	ProductID    string
	DepartmentID string
	Type         string
	Start        time.Time
	End          time.Time
	Page         query.PageRequest
}

type Movements struct {
	c *Client
}

func NewMovements(c *Client) *Movements {
	return &Movements{c: c}
}

func (m *Movements) Record(ctx context.Context, in command.RecordMovement) Result[inventory.StockMoved] {
	var out inventory.StockMoved
	if err := m.c.do(ctx, http.MethodPost, "/api/stock-movements", in, &out); err != nil {
		return fail[inventory.StockMoved](err, "Erro ao salvar movimentação")
	}
	return succeed(out)
}

func (m *Movements) List(ctx context.Context, f MovementFilter) Result[query.Page[readmodel.MovementReadModel]] {
	v := pageQuery(f.Page)
	for key, val := range map[string]string{"product_id": f.ProductID, "department_id": f.DepartmentID, "type": f.Type} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if !f.Start.IsZero() {
		v.Set("start", f.Start.Format(time.DateOnly))
	}
	if !f.End.IsZero() {
		v.Set("end", f.End.Format(time.DateOnly))
	}

	var out query.Page[readmodel.MovementReadModel]
	if err := m.c.do(ctx, http.MethodGet, "/api/stock-movements?"+v.Encode(), nil, &out); err != nil {
		return fail[query.Page[readmodel.MovementReadModel]](err, "Erro ao carregar movimentações")
	}
	return succeed(out)
}
