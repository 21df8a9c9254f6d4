// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/order"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
	spec   PageSpec
	tmpl   *template.Template
}

// NewService creates a new PDF service laying out A4 pages
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		spec:   A4,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	Invoice     Invoice
	InvoiceDate string
	Pages       []Page
}

// Layout returns the invoice and its pages for an order
func (s *Service) Layout(o *order.Order) (Invoice, []Page) {
	inv := NewInvoice(o, s.config.Company)
	return inv, Layout(inv, s.spec)
}

// GenerateHTML renders the laid-out invoice, one block per page
func (s *Service) GenerateHTML(o *order.Order) (string, error) {
	inv, pages := s.Layout(o)
	data := InvoiceData{
		Invoice:     inv,
		InvoiceDate: inv.Date.Format("January 2, 2006"),
		Pages:       pages,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GenerateInvoice renders a PDF invoice for an order through wkhtmltopdf
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.GenerateHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(uint(s.spec.Margin))
	pdfg.MarginBottom.Set(uint(s.spec.Margin))

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.Invoice.Number}}</title>
<style>
  body { font-family: Arial, sans-serif; color: #333; margin: 0; }
  .page { page-break-after: always; position: relative; min-height: 250mm; }
  .page:last-child { page-break-after: auto; }
  .header { overflow: hidden; border-bottom: 2px solid #eee; padding-bottom: 12px; margin-bottom: 16px; }
  .company { float: left; }
  .meta { float: right; text-align: right; }
  .title { font-size: 26px; font-weight: bold; color: #2e7d32; }
  .addresses { overflow: hidden; margin-bottom: 16px; }
  .addresses div { float: left; width: 48%; }
  table.items { width: 100%; border-collapse: collapse; }
  table.items th, table.items td { border: 1px solid #ddd; padding: 6px; }
  table.items th { background-color: #f8f9fa; text-align: left; }
  .num { text-align: right; }
  .totals { width: 280px; margin-left: auto; margin-top: 16px; }
  .totals td { padding: 4px; }
  .grand { font-weight: bold; border-top: 2px solid #333; }
  .footer { position: absolute; bottom: 0; width: 100%; text-align: center; font-size: 11px; color: #666; }
</style>
</head>
<body>
{{$inv := .Invoice}}{{$date := .InvoiceDate}}
{{range .Pages}}<div class="page">
  {{if .Header}}<div class="header">
    <div class="company">
      <h2>{{$inv.Company.Name}}</h2>
      <p>{{$inv.Company.Address}}</p>
      <p>{{$inv.Company.Phone}} {{$inv.Company.Email}}</p>
      <p>{{$inv.Company.Website}}</p>
    </div>
    <div class="meta">
      <div class="title">INVOICE</div>
      <p>Invoice #: {{$inv.Number}}</p>
      <p>Order #: {{$inv.OrderNumber}}</p>
      <p>Date: {{$date}}</p>
      <p>Payment: {{$inv.PaymentMethod}}</p>
    </div>
  </div>{{end}}
  {{if .Addresses}}<div class="addresses">
    <div><strong>Bill To</strong><br>{{range $inv.BillTo}}{{.}}<br>{{end}}</div>
    <div><strong>Ship To</strong><br>{{range $inv.ShipTo}}{{.}}<br>{{end}}</div>
  </div>{{end}}
  {{if .Rows}}<table class="items">
    <tr><th>#</th><th>Item</th><th class="num">Qty</th><th class="num">Unit Price</th><th class="num">Amount</th></tr>
    {{range .Rows}}<tr><td>{{.Index}}</td><td>{{.Description}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Amount}}</td></tr>
    {{end}}
  </table>{{end}}
  {{with .Totals}}<table class="totals">
    <tr><td>Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
    <tr><td>Shipping</td><td class="num">{{.Shipping}}</td></tr>
    <tr><td>Tax</td><td class="num">{{.Tax}}</td></tr>
    <tr class="grand"><td>Total</td><td class="num">{{.Total}}</td></tr>
  </table>{{end}}
  <div class="footer">{{.Footer}}</div>
</div>
{{end}}
</body>
</html>`
