// Package invoice renders the customer invoice from an order exactly as it
// was stored. Subtotal, shipping, tax and total are read back verbatim so the
// document always matches what the customer was charged at checkout.
package invoice

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

var tpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"naira": FormatNaira,
	"mul":   func(a, b int64) int64 { return a * b },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Order.OrderNumber}}</title>
<style>
body { font-family: Arial, sans-serif; color: #1f2430; margin: 40px; }
h1 { color: #e8a020; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { text-align: left; padding: 8px; border-bottom: 1px solid #e2e2e2; }
.totals td { border: none; padding: 4px 8px; }
.grand { font-weight: bold; font-size: 1.1em; }
.muted { color: #7a7f8a; }
</style>
</head>
<body>
<h1>LightHub</h1>
<p class="muted">Premium Lighting for Every Space</p>
<h2>Invoice</h2>
<p>
Order Number: <strong>{{.Order.OrderNumber}}</strong><br>
Tracking Number: {{.Order.TrackingNumber}}<br>
Date: {{.Order.CreatedAt.Format "Jan 2, 2006"}}<br>
Status: {{.Order.Status}}
</p>
<p>
<strong>Bill To</strong><br>
{{.Order.ShippingAddress.FirstName}} {{.Order.ShippingAddress.LastName}}<br>
{{.Order.ShippingAddress.Address}}<br>
{{.Order.ShippingAddress.City}}, {{.Order.ShippingAddress.State}} {{.Order.ShippingAddress.ZipCode}}<br>
{{.Order.ShippingAddress.Email}}
</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Amount</th></tr>
{{range .Order.Items}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{naira .Price}}</td><td>{{naira (mul .Price .Quantity)}}</td></tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td>{{naira .Order.Subtotal}}</td></tr>
{{if .Order.Discount}}
<tr><td>Discount ({{.Order.Discount.Code}})</td><td>-{{naira .Order.Discount.DiscountAmount}}</td></tr>
{{end}}
<tr><td>Shipping ({{.Order.ShippingMethod}})</td><td>{{naira .Order.Shipping}}</td></tr>
<tr><td>Tax (VAT 7.5%)</td><td>{{naira .Order.Tax}}</td></tr>
<tr class="grand"><td>Total</td><td>{{naira .Order.Total}}</td></tr>
</table>
<p class="muted">Thank you for shopping with LightHub.</p>
</body>
</html>`))

type data struct {
	Order *models.Order
}

// Render returns the invoice HTML for a stored order.
func Render(o *models.Order) ([]byte, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data{Order: o}); err != nil {
		return nil, errors.Wrap(err, "render invoice")
	}
	return buf.Bytes(), nil
}

// FormatNaira renders whole naira with thousands separators.
func FormatNaira(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s₦%s", sign, string(out))
}
