// internal/pkg/pdf/layout.go
package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/domain/order"
)

// asciiSymbols replaces currency symbols the PDF fonts cannot draw
var asciiSymbols = map[string]string{
	"₹": "Rs. ",
}

// Invoice is everything printed on an invoice
type Invoice struct {
	Number        string          `json:"number"`
	OrderNumber   string          `json:"orderNumber"`
	Date          time.Time       `json:"date"`
	Company       CompanyInfo     `json:"company"`
	BillTo        []string        `json:"billTo"`
	ShipTo        []string        `json:"shipTo"`
	PaymentMethod string          `json:"paymentMethod"`
	Currency      string          `json:"currency"`
	Rows          []Row           `json:"rows"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Row is one invoice line
type Row struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// PageSpec describes the printable geometry in millimetres
type PageSpec struct {
	Height             float64 `json:"height"`
	Margin             float64 `json:"margin"`
	HeaderHeight       float64 `json:"headerHeight"`
	AddressBlockHeight float64 `json:"addressBlockHeight"`
	TableHeaderHeight  float64 `json:"tableHeaderHeight"`
	RowHeight          float64 `json:"rowHeight"`
	TotalsHeight       float64 `json:"totalsHeight"`
	FooterHeight       float64 `json:"footerHeight"`
}

// A4 is a portrait A4 page
var A4 = PageSpec{
	Height:             297,
	Margin:             15,
	HeaderHeight:       45,
	AddressBlockHeight: 40,
	TableHeaderHeight:  10,
	RowHeight:          9,
	TotalsHeight:       45,
	FooterHeight:       10,
}

// Page is one laid-out invoice page with money already formatted
type Page struct {
	Number    int         `json:"number"`
	Header    bool        `json:"header"`
	Addresses bool        `json:"addresses"`
	Rows      []PageRow   `json:"rows"`
	Totals    *PageTotals `json:"totals,omitempty"`
	Footer    string      `json:"footer"`
}

// PageRow is a formatted invoice line
type PageRow struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Amount      string `json:"amount"`
}

// PageTotals is the formatted totals block
type PageTotals struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// NewInvoice builds an invoice from a placed order
func NewInvoice(o *order.Order, company config.CompanyConfig) Invoice {
	rows := make([]Row, 0, len(o.Items))
	for _, item := range o.Items {
		rows = append(rows, Row{
			Description: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.LineTotal,
		})
	}

	addr := addressLines(o)
	return Invoice{
		Number:        "INV-" + o.OrderNumber,
		OrderNumber:   o.OrderNumber,
		Date:          o.CreatedAt,
		Company:       CompanyInfo(company),
		BillTo:        addr,
		ShipTo:        addr,
		PaymentMethod: string(o.PaymentMethod),
		Currency:      o.Currency,
		Rows:          rows,
		Subtotal:      o.Subtotal,
		Shipping:      o.Shipping,
		Tax:           o.Tax,
		Total:         o.Total,
	}
}

func addressLines(o *order.Order) []string {
	a := o.ShippingAddress
	candidates := []string{
		strings.TrimSpace(a.FirstName + " " + a.LastName),
		a.CompanyName,
		a.StreetAddress,
		strings.TrimSpace(a.State + " " + a.ZipCode),
		a.Country,
		a.Email,
		a.Phone,
	}
	lines := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// FormatMoney prints amount with the currency symbol, using ASCII where needed
func FormatMoney(code string, amount decimal.Decimal) string {
	symbol := currency.ParseCode(code).Symbol()
	if ascii, ok := asciiSymbols[symbol]; ok {
		symbol = ascii
	}
	return symbol + amount.StringFixed(2)
}

// Layout splits the invoice into pages. The first page carries the header and
// address blocks, rows fill each page in order, totals land on the last page
// and every page gets a "Page i of n" footer.
func Layout(inv Invoice, spec PageSpec) []Page {
	available := spec.Height - 2*spec.Margin - spec.FooterHeight

	pages := []Page{{Number: 1, Header: true, Addresses: true}}
	used := spec.HeaderHeight + spec.AddressBlockHeight + spec.TableHeaderHeight

	for i, row := range inv.Rows {
		current := &pages[len(pages)-1]
		// a page that cannot hold even one row still takes it
		if used+spec.RowHeight > available && len(current.Rows) > 0 {
			pages = append(pages, Page{Number: len(pages) + 1})
			used = spec.TableHeaderHeight
			current = &pages[len(pages)-1]
		}
		current.Rows = append(current.Rows, PageRow{
			Index:       i + 1,
			Description: row.Description,
			Quantity:    row.Quantity,
			UnitPrice:   FormatMoney(inv.Currency, row.UnitPrice),
			Amount:      FormatMoney(inv.Currency, row.Amount),
		})
		used += spec.RowHeight
	}

	if used+spec.TotalsHeight > available {
		pages = append(pages, Page{Number: len(pages) + 1})
	}
	pages[len(pages)-1].Totals = &PageTotals{
		Subtotal: FormatMoney(inv.Currency, inv.Subtotal),
		Shipping: FormatMoney(inv.Currency, inv.Shipping),
		Tax:      FormatMoney(inv.Currency, inv.Tax),
		Total:    FormatMoney(inv.Currency, inv.Total),
	}

	for i := range pages {
		pages[i].Footer = fmt.Sprintf("Page %d of %d", i+1, len(pages))
	}
	return pages
}
