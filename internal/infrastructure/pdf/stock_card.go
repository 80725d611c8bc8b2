// Package pdf genera la tarjeta de kardex (historial de movimientos) de un producto.
//
// Layout de la página A4 horizontal:
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre + SKU (+ código de barras)  │  Stock actual / Fecha  │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  TABLA: # | Fecha | Tipo | Motivo | Documento | Entrada | Salida |   │
//	│         Saldo | Costo unit. | Ubicación                              │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  RESUMEN: total entradas / salidas / saldo del ledger                │
//	└──────────────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// StockCardGenerator genera el kardex con Maroto v2.
type StockCardGenerator struct {
	now func() time.Time
}

// NewStockCardGenerator construye el generador.
func NewStockCardGenerator() *StockCardGenerator {
	return &StockCardGenerator{now: time.Now}
}

// GenerateStockCard genera el PDF del historial (en orden del ledger) y devuelve sus bytes.
func (g *StockCardGenerator) GenerateStockCard(
	_ context.Context,
	product *entity.Product,
	movements []*entity.StockMovement,
) ([]byte, error) {
	if product == nil {
		return nil, fmt.Errorf("pdf: producto requerido")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+product.SKU, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(product, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range movementRows(movements) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(product, movements))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(p *entity.Product, at time.Time) core.Row {
	left := col.New(8).Add(
		text.New(p.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		text.New("SKU: "+p.SKU, props.Text{Size: 9, Top: 9, Color: colorGray}),
	)
	if p.Barcode != "" {
		left = col.New(5).Add(
			text.New(p.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("SKU: "+p.SKU, props.Text{Size: 9, Top: 9, Color: colorGray}),
		)
		return row.New(20).Add(
			left,
			col.New(3).Add(code.NewBar(p.Barcode, props.Barcode{Percent: 80, Center: true})),
			stockCol(p, at),
		)
	}
	return row.New(20).Add(left, stockCol(p, at))
}

func stockCol(p *entity.Product, at time.Time) core.Col {
	return col.New(4).Add(
		text.New("KARDEX DE INVENTARIO", props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
		}),
		text.New("Stock actual: "+formatQty(p.CurrentStock), props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
		}),
		text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{
			Size: 8, Align: align.Right, Top: 14, Color: colorGray,
		}),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Fecha", 1, align.Left),
		h("Tipo / Motivo", 2, align.Left),
		h("Documento", 2, align.Left),
		h("Entrada", 1, align.Right),
		h("Salida", 1, align.Right),
		h("Saldo", 1, align.Right),
		h("Costo unit.", 1, align.Right),
		h("Ubicación", 2, align.Left),
	)
}

func movementRows(movements []*entity.StockMovement) []core.Row {
	result := make([]core.Row, 0, len(movements))
	for _, m := range movements {
		in, out := "", ""
		if d := m.Delta(); d > 0 {
			in = formatQty(d)
		} else if d < 0 {
			out = formatQty(-d)
		} else {
			in, out = formatQty(m.Quantity), formatQty(m.Quantity)
		}
		cost := ""
		if m.UnitCost != nil {
			cost = "$" + formatMoney(m.UnitCost.StringFixed(0))
		}
		balance := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if m.NewStock < 0 {
			balance.Color = colorRed
		}
		cell := props.Text{Size: 8, Top: 1, Left: 1}
		num := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}

		result = append(result, row.New(6).Add(
			col.New(1).Add(text.New(strconv.FormatInt(m.Seq, 10), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(m.MovementDate.Format("02/01/2006"), cell)),
			col.New(2).Add(text.New(string(m.Type)+" / "+string(m.Reason), cell)),
			col.New(2).Add(text.New(documentLabel(m.Reference), cell)),
			col.New(1).Add(text.New(in, num)),
			col.New(1).Add(text.New(out, num)),
			col.New(1).Add(text.New(formatQty(m.NewStock), balance)),
			col.New(1).Add(text.New(cost, num)),
			col.New(2).Add(text.New(locationLabel(m.Location), cell)),
		))
	}
	return result
}

func summaryRow(p *entity.Product, movements []*entity.StockMovement) core.Row {
	var ins, outs, ledger int64
	for _, m := range movements {
		d := m.Delta()
		ledger += d
		if d > 0 {
			ins += d
		} else {
			outs -= d
		}
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	status := "Saldo del ledger coincide con el stock actual"
	statusColor := colorGray
	if ledger != p.CurrentStock {
		status = "DIFERENCIA entre ledger y stock actual"
		statusColor = colorRed
	}
	return row.New(24).Add(
		col.New(6).Add(text.New(status, props.Text{Size: 8, Top: 2, Color: statusColor})),
		col.New(3).Add(
			label("Total entradas:"),
			label("Total salidas:"),
			label("Saldo ledger:"),
		),
		col.New(3).Add(
			value(formatQty(ins)),
			value(formatQty(outs)),
			value(formatQty(ledger)),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func documentLabel(ref *entity.Reference) string {
	if ref == nil {
		return "—"
	}
	doc := ref.Number
	if doc == "" {
		doc = ref.ID
	}
	if ref.Action != "" {
		return doc + " (" + ref.Action + ")"
	}
	return doc
}

func locationLabel(loc entity.MovementLocation) string {
	switch {
	case loc.From != "" && loc.To != "":
		return loc.From + " → " + loc.To
	case loc.To != "":
		return "→ " + loc.To
	case loc.From != "":
		return loc.From + " →"
	}
	return ""
}

// formatQty cantidades con separador de miles, conservando el signo.
func formatQty(n int64) string {
	if n < 0 {
		return "-" + formatMoney(strconv.FormatInt(-n, 10))
	}
	return formatMoney(strconv.FormatInt(n, 10))
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	neg := len(s) > 0 && s[0] == '-'
	if neg {
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	buf := make([]byte, 0, n+n/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
