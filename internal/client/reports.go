package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/example/retail-pos/internal/query"
	"github.com/example/retail-pos/internal/readmodel"
)

// ConsumptionReport is the per-department requisition total for a day range.
type ConsumptionReport struct {
	Start       string                        `json:"start"`
	End         string                        `json:"end"`
	Departments []query.DepartmentConsumption `json:"departments"`
}

type Reports struct {
	c *Client
}

func NewReports(c *Client) *Reports {
	return &Reports{c: c}
}

func (r *Reports) Dashboard(ctx context.Context) Result[query.Dashboard] {
	var out query.Dashboard
	if err := r.c.do(ctx, http.MethodGet, "/api/reports/dashboard", nil, &out); err != nil {
		return fail[query.Dashboard](err, "Erro ao carregar painel")
	}
	return succeed(out)
}

func (r *Reports) DepartmentConsumption(ctx context.Context, start, end time.Time) Result[ConsumptionReport] {
	v := url.Values{}
	v.Set("start", start.Format(time.DateOnly))
	v.Set("end", end.Format(time.DateOnly))

	var out ConsumptionReport
	if err := r.c.do(ctx, http.MethodGet, "/api/reports/department-consumption?"+v.Encode(), nil, &out); err != nil {
		return fail[ConsumptionReport](err, "Erro ao gerar relatório")
	}
	return succeed(out)
}

func (r *Reports) LowStock(ctx context.Context) Result[[]readmodel.ProductReadModel] {
	var out []readmodel.ProductReadModel
	if err := r.c.do(ctx, http.MethodGet, "/api/reports/low-stock", nil, &out); err != nil {
		return fail[[]readmodel.ProductReadModel](err, "Erro ao carregar estoque baixo")
	}
	return succeed(out)
}
