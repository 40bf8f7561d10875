package printing

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucacel82/luccacell/internal/sales"
)

// ErrNoSales is returned when a cash closing is requested for a day
// without sales.
var ErrNoSales = errors.New("no sales recorded for the day")

// ClosingLine is one row of the cash closing table.
type ClosingLine struct {
	Product   string
	Quantity  int
	UnitValue decimal.Decimal
	Total     decimal.Decimal
}

// CashClosing is the end-of-day document.
type CashClosing struct {
	StoreName   string
	Day         time.Time
	GeneratedAt time.Time
	Lines       []ClosingLine
	Total       decimal.Decimal
}

// NewCashClosing builds the closing of day from its sales.
func NewCashClosing(storeName string, day time.Time, daySales []*sales.Sale, generatedAt time.Time) (*CashClosing, error) {
	if len(daySales) == 0 {
		return nil, ErrNoSales
	}
	c := &CashClosing{
		StoreName:   storeName,
		Day:         day,
		GeneratedAt: generatedAt,
		Lines:       make([]ClosingLine, 0, len(daySales)),
		Total:       decimal.Zero,
	}
	for _, s := range daySales {
		line := ClosingLine{
			Product:   s.ProductName,
			Quantity:  s.Quantity,
			UnitValue: s.UnitValue,
			Total:     s.LineTotal(),
		}
		c.Lines = append(c.Lines, line)
		c.Total = c.Total.Add(line.Total)
	}
	return c, nil
}

// FileName is the download name of the PDF.
func (c *CashClosing) FileName() string {
	return fmt.Sprintf("fechamento-caixa-%s.pdf", c.Day.Format("02-01-2006"))
}

// RenderHTML writes the document as a standalone A4 page.
func (c *CashClosing) RenderHTML(w io.Writer) error {
	return cashClosingTemplate.Execute(w, c)
}

var funcs = template.FuncMap{
	"brl":      Currency,
	"date":     Date,
	"datetime": DateTime,
}

var cashClosingTemplate = template.Must(template.New("cash-closing").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8"/>
<title>Fechamento de Caixa {{date .Day}}</title>
<style>
  @page { size: A4; margin: 20mm 15mm; }
  body { font-family: Helvetica, Arial, sans-serif; color: #222; font-size: 11px; }
  header { border-bottom: 2px solid #FFD700; padding-bottom: 8px; text-align: center; }
  .company { font-size: 22px; font-weight: bold; }
  .title { font-size: 16px; font-weight: bold; margin-top: 12px; }
  .summary { display: flex; justify-content: space-between; margin: 12px 0; }
  table { width: 100%; border-collapse: collapse; }
  th { background: #333; color: #fff; padding: 6px; text-align: left; }
  td { border-bottom: 1px solid #ddd; padding: 6px; }
  .center { text-align: center; }
  .right { text-align: right; }
  .grand-total { margin-top: 12px; text-align: right; font-size: 14px; font-weight: bold; }
  footer { margin-top: 24px; text-align: center; color: #777; font-size: 9px; }
</style>
</head>
<body>
<header>
  <div class="company">{{.StoreName}}</div>
  <div>Sistema de Gestão de Vendas</div>
  <div class="title">FECHAMENTO DE CAIXA</div>
  <div>{{date .Day}}</div>
</header>
<div class="summary">
  <div><strong>Total de Vendas:</strong> {{len .Lines}} itens</div>
  <div><strong>Gerado em:</strong> {{datetime .GeneratedAt}}</div>
</div>
<table>
  <thead>
    <tr><th>PRODUTO</th><th class="center">QTD</th><th class="right">VALOR UNIT.</th><th class="right">TOTAL</th></tr>
  </thead>
  <tbody>
  {{- range .Lines}}
    <tr><td>{{.Product}}</td><td class="center">{{.Quantity}}</td><td class="right">{{brl .UnitValue}}</td><td class="right"><strong>{{brl .Total}}</strong></td></tr>
  {{- end}}
  </tbody>
</table>
<div class="grand-total">TOTAL GERAL: {{brl .Total}}</div>
<footer>Relatório gerado automaticamente pelo Sistema {{.StoreName}}</footer>
</body>
</html>
`))
