package email

import (
	"html/template"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/domain/money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// LowStockAlert describes a product that fell below its minimum.
type LowStockAlert struct {
	ProductName string
	SKU         string
	Quantity    int
	MinStock    int
	Location    string
}

type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

type Receipt struct {
	SaleID        string
	CashierName   string
	PaymentMethod string
	Lines         []ReceiptLine
	Total         decimal.Decimal
	CompletedAt   time.Time
	Currency      currency.Unit
}

const layoutHead = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
`

const layoutFoot = `
	<p style="font-size: 12px; color: #999;">Mensagem automática do sistema de PDV.</p>
</body>
</html>`

var lowStockTmpl = template.Must(template.New("low-stock").Parse(layoutHead + `
	<h1 style="font-size: 22px; color: #c0392b;">Estoque baixo</h1>
	<p><strong>{{.ProductName}}</strong> (SKU {{.SKU}}) está com <strong>{{.Quantity}}</strong> unidade(s), abaixo do mínimo de {{.MinStock}}.</p>
	{{if .Location}}<p>Localização: {{.Location}}</p>{{end}}
	<p>Registre uma entrada de compra para repor o estoque.</p>
` + layoutFoot))

var receiptTmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(unit currency.Unit, amount decimal.Decimal) string {
		return money.New(amount, unit).String()
	},
	"datetime": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
}).Parse(layoutHead + `
	<h1 style="font-size: 22px;">Comprovante de venda</h1>
	<p>Venda <span style="font-family: monospace;">{{.SaleID}}</span> em {{datetime .CompletedAt}}<br>
	Operador: {{.CashierName}}<br>
	Pagamento: {{.PaymentMethod}}</p>
	<table style="width: 100%; border-collapse: collapse;">
		<thead>
			<tr style="background: #f8f9fa;">
				<th style="padding: 8px; text-align: left;">Produto</th>
				<th style="padding: 8px; text-align: center;">Qtd</th>
				<th style="padding: 8px; text-align: right;">Unitário</th>
				<th style="padding: 8px; text-align: right;">Subtotal</th>
			</tr>
		</thead>
		<tbody>
		{{- range .Lines}}
			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{money $.Currency .UnitPrice}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{money $.Currency .Total}}</td>
			</tr>
		{{- end}}
		</tbody>
	</table>
	<p style="text-align: right; font-size: 20px;"><strong>Total: {{money .Currency .Total}}</strong></p>
` + layoutFoot))

func renderLowStock(a LowStockAlert) (string, error) {
	var b strings.Builder
	if err := lowStockTmpl.Execute(&b, a); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderReceipt(r Receipt) (string, error) {
	var b strings.Builder
	if err := receiptTmpl.Execute(&b, r); err != nil {
		return "", err
	}
	return b.String(), nil
}
