package query

import (
	"context"
	"sort"
	"time"

	"github.com/example/retail-pos/internal/readmodel"
	"github.com/shopspring/decimal"
)

const recentMovementsLimit = 10

// Dashboard is the landing page summary
type Dashboard struct {
	TotalProducts   int                            `json:"total_products"`
	TotalStockValue decimal.Decimal                `json:"total_stock_value"`
	LowStockCount   int                            `json:"low_stock_count"`
	LowStockItems   []*readmodel.ProductReadModel  `json:"low_stock_items"`
	RecentMovements []*readmodel.MovementReadModel `json:"recent_movements"`
	SalesToday      SalesSummary                   `json:"sales_today"`
	GeneratedAt     time.Time                      `json:"generated_at"`
}

// Dashboard computes the summary. Concurrent callers share one computation.
func (h *Handler) Dashboard(ctx context.Context) (*Dashboard, error) {
	ch := h.flights.DoChan("dashboard", func() (any, error) {
		return h.buildDashboard(), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dashboard), nil
	}
}

func (h *Handler) buildDashboard() *Dashboard {
	now := h.now()
	d := &Dashboard{TotalStockValue: decimal.Zero, GeneratedAt: now}

	for _, p := range list(h, readmodel.CollectionProducts, func(p *readmodel.ProductReadModel) bool { return p.Active }) {
		d.TotalProducts++
		d.TotalStockValue = d.TotalStockValue.Add(p.StockValue())
	}

	d.LowStockItems = h.LowStockProducts()
	d.LowStockCount = len(d.LowStockItems)
	d.RecentMovements = h.ListMovements(MovementFilter{}, PageRequest{Size: recentMovementsLimit}).Content

	startOfDay, endOfDay, _ := DayRange(now, now)
	d.SalesToday = h.SalesSummary(SaleFilter{Start: &startOfDay, End: &endOfDay})

	return d
}

// DepartmentRef names a department in reports
type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DepartmentConsumption totals what one department requisitioned in a period
type DepartmentConsumption struct {
	Department         DepartmentRef   `json:"department"`
	TotalValueConsumed decimal.Decimal `json:"total_value_consumed"`
	ItemsConsumed      int             `json:"items_consumed"`
}

// DepartmentConsumption groups requisitions from the start day through the end day,
// largest value first.
func (h *Handler) DepartmentConsumption(start, end time.Time) ([]DepartmentConsumption, error) {
	from, to, err := DayRange(start, end)
	if err != nil {
		return nil, err
	}

	byDepartment := make(map[string]*DepartmentConsumption)
	movements := list(h, readmodel.CollectionMovements, func(m *readmodel.MovementReadModel) bool {
		return m.Type == "REQUISITION" && m.DepartmentID != "" &&
			!m.OccurredAt.Before(from) && !m.OccurredAt.After(to)
	})
	for _, m := range movements {
		row, ok := byDepartment[m.DepartmentID]
		if !ok {
			name := m.DepartmentName
			if current := h.departmentName(m.DepartmentID); current != "" {
				name = current
			}
			row = &DepartmentConsumption{
				Department:         DepartmentRef{ID: m.DepartmentID, Name: name},
				TotalValueConsumed: decimal.Zero,
			}
			byDepartment[m.DepartmentID] = row
		}
		qty := m.Delta
		if qty < 0 {
			qty = -qty
		}
		row.ItemsConsumed += qty
		row.TotalValueConsumed = row.TotalValueConsumed.Add(m.UnitCost.Mul(decimal.NewFromInt(int64(qty))))
	}

	out := make([]DepartmentConsumption, 0, len(byDepartment))
	for _, row := range byDepartment {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalValueConsumed.Cmp(out[j].TotalValueConsumed); c != 0 {
			return c > 0
		}
		return out[i].Department.Name < out[j].Department.Name
	})
	return out, nil
}

func (h *Handler) departmentName(id string) string {
	if d, ok := h.GetLookup(readmodel.CollectionDepartments, id); ok {
		return d.Name
	}
	return ""
}
