package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"market-admin/internal/models"
)

// RenderInvoicePDF lays out a single-page A4 invoice for an order.
func RenderInvoicePDF(o *models.Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Invoice", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Order %s  |  %s", o.OrderNumber, o.CreatedAt.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Name: "+o.CustomerName, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Email: "+o.CustomerEmail, "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Phone: "+o.CustomerPhone, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Payment: "+o.PaymentStatus, "RB", 1, "L", false, 0, "")
	if addr := formatAddress(o.ShippingAddress); addr != "" {
		pdf.MultiCell(190, 7, "Ship to: "+addr, "LRB", "L", false)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(100, 7, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, it := range o.Items {
		name := it.ProductName
		if len(name) > 55 {
			name = name[:52] + "..."
		}
		pdf.CellFormat(100, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, it.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, it.TotalPrice.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	summary := [][2]string{
		{"Subtotal", o.Subtotal.StringFixed(2)},
		{"Shipping", o.ShippingFee.StringFixed(2)},
		{"Total (" + o.Currency + ")", o.TotalAmount.StringFixed(2)},
	}
	if o.RefundedAmount.IsPositive() {
		summary = append(summary, [2]string{"Refunded", o.RefundedAmount.StringFixed(2)})
	}
	for _, row := range summary {
		pdf.CellFormat(155, 7, row[0], "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, row[1], "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var exportHeader = []string{
	"order_number", "created_at", "customer_name", "customer_email", "status",
	"payment_status", "items", "total_amount", "refunded_amount", "currency", "tracking_number",
}

// RenderOrdersCSV writes one row per order with a header line.
func RenderOrdersCSV(orders []*models.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if err := w.Write([]string{
			o.OrderNumber,
			o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			o.CustomerName,
			o.CustomerEmail,
			o.Status,
			o.PaymentStatus,
			fmt.Sprintf("%d", len(o.Items)),
			o.TotalAmount.StringFixed(2),
			o.RefundedAmount.StringFixed(2),
			o.Currency,
			o.TrackingNumber,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatAddress(addr map[string]interface{}) string {
	var parts []string
	for _, k := range []string{"address_line1", "address_line2", "city", "state", "postal_code", "country"} {
		if v, ok := addr[k].(string); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	return strings.Join(parts, ", ")
}
