// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/domain/order"
)

const orderConfirmationTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #fff; padding: 20px; border-radius: 8px;">
    <h1 style="color: #2e7d32;">{{.SiteName}}</h1>
    <p>Hello {{.UserName}},</p>
    <p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><th align="left">Product</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
      {{range .Items}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.Total}}</td></tr>
      {{end}}
    </table>
    <p>Subtotal: {{.Subtotal}}<br>Shipping: {{.Shipping}}<br>Tax: {{.Tax}}<br><strong>Total: {{.Total}}</strong></p>
    <p>Payment method: {{.PaymentMethod}}</p>
    <p>Shipping to:<br>{{range .ShippingAddress}}{{.}}<br>{{end}}</p>
    <hr>
    <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}</p>
  </div>
</body>
</html>`

// EmailService renders and sends customer emails
type EmailService struct {
	config    *config.Config
	sender    Sender
	templates map[string]*template.Template
	logger    *logrus.Entry
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, sender Sender, logger *logrus.Entry) *EmailService {
	return &EmailService{
		config: cfg,
		sender: sender,
		templates: map[string]*template.Template{
			string(EmailTypeOrderConfirmation): template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
		},
		logger: logger,
	}
}

// Enabled reports whether a relay is configured
func (s *EmailService) Enabled() bool {
	return s.config.External.Email.SMTPHost != ""
}

// SendOrderConfirmation emails the shipping contact a summary of the order
func (s *EmailService) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	if !s.Enabled() {
		s.logger.WithField("order_number", o.OrderNumber).Debug("smtp not configured, skipping confirmation")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := s.orderConfirmationData(o)
	htmlContent, err := s.renderTemplate(string(EmailTypeOrderConfirmation), data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.sender.Send(&Email{
		To:          []string{o.ShippingAddress.Email},
		Subject:     fmt.Sprintf("Order Confirmation - %s", o.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
	})
}

func (s *EmailService) orderConfirmationData(o *order.Order) OrderConfirmationData {
	code := currency.ParseCode(o.Currency)
	money := func(d decimal.Decimal) string { return code.Symbol() + d.StringFixed(2) }

	addr := o.ShippingAddress
	name := strings.TrimSpace(addr.FirstName + " " + addr.LastName)

	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			Total:     money(item.LineTotal),
		})
	}

	lines := []string{name, addr.CompanyName, addr.StreetAddress, addr.State + " " + addr.ZipCode, addr.Country, addr.Phone}
	address := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			address = append(address, strings.TrimSpace(l))
		}
	}

	return OrderConfirmationData{
		EmailTemplateData: GetBaseTemplateData(s.config.External.Email.FromName, name, addr.Email),
		OrderNumber:       o.OrderNumber,
		OrderDate:         o.CreatedAt.Format("January 2, 2006"),
		PaymentMethod:     string(o.PaymentMethod),
		Items:             items,
		Subtotal:          money(o.Subtotal),
		Shipping:          money(o.Shipping),
		Tax:               money(o.Tax),
		Total:             money(o.Total),
		ShippingAddress:   address,
	}
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}
