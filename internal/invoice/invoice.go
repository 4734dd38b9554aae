// Package invoice renders a completed order record into a printable PDF
// document: brand header, bill-to block, line-item table, discount and total
// summary, and footer notices.
package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

// Brand palette used across the document.
var (
	heritageBrown = rgb{122, 59, 35}
	copper        = rgb{163, 86, 42}
	successGreen  = rgb{34, 139, 34}
)

type rgb struct{ r, g, b int }

// Renderer writes one PDF per invocation into Dir. Rendering is a stateless
// transform of the order record; the same record always produces the same
// document.
type Renderer struct {
	Dir string
}

// NewRenderer creates a Renderer writing into dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{Dir: dir}
}

// Render produces the invoice PDF for o and returns the written file path.
// The filename is derived from the order id. It fails when required customer
// or line-item fields are absent.
func (r *Renderer) Render(o order.Order) (string, error) {
	if err := validate(o); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create invoice directory")
	}

	original, discountAmt := pricingFallback(o)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Brand header band.
	setFill(pdf, heritageBrown)
	pdf.Rect(0, 0, 210, 40, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetXY(0, 12)
	pdf.CellFormat(210, 10, "VARAHA JEWELS", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(210, 6, "Crafting Heritage Since Generations", "", 1, "C", false, 0, "")

	setText(pdf, heritageBrown)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(0, 46)
	pdf.CellFormat(210, 10, "INVOICE", "", 1, "C", false, 0, "")

	// Invoice details box.
	setDraw(pdf, copper)
	pdf.SetLineWidth(0.5)
	pdf.Rect(15, 62, 180, 25, "D")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(20, 66)
	pdf.CellFormat(120, 5, fmt.Sprintf("Invoice No: %s", o.ID), "", 1, "L", false, 0, "")
	pdf.SetX(20)
	pdf.CellFormat(120, 5, fmt.Sprintf("Payment ID: %s", orNA(o.PaymentID)), "", 1, "L", false, 0, "")
	pdf.SetX(20)
	pdf.CellFormat(120, 5, fmt.Sprintf("Invoice Date: %s", o.CreatedAt.Format("02 Jan 2006")), "", 1, "L", false, 0, "")
	setText(pdf, successGreen)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(130, 70)
	pdf.CellFormat(60, 6, strings.ToUpper(string(o.Status)), "", 0, "R", false, 0, "")

	// Bill-to block.
	setText(pdf, heritageBrown)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(15, 93)
	pdf.CellFormat(90, 6, "BILL TO:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetX(15)
	pdf.CellFormat(90, 5, o.Customer.Name, "", 1, "L", false, 0, "")
	pdf.SetX(15)
	pdf.CellFormat(90, 5, o.Customer.Email, "", 1, "L", false, 0, "")
	pdf.SetX(15)
	pdf.CellFormat(90, 5, o.Customer.Contact, "", 1, "L", false, 0, "")
	if o.Customer.Address != "" {
		pdf.SetX(15)
		pdf.MultiCell(90, 5, o.Customer.Address, "", "L", false)
	}

	// Line-item table.
	pdf.SetY(pdf.GetY() + 8)
	lineItemTable(pdf, o, original)

	// Summary block.
	summaryY := pdf.GetY() + 10
	const summaryX, amountRight = 130.0, 60.0
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)

	row := func(label, value string, col *rgb) {
		if col != nil {
			setText(pdf, *col)
		} else {
			pdf.SetTextColor(80, 80, 80)
		}
		pdf.SetXY(summaryX, summaryY)
		pdf.CellFormat(30, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(amountRight-30, 5, value, "", 0, "R", false, 0, "")
		summaryY += 6
	}

	row("Subtotal:", rupees(original), nil)
	if o.Discount.CouponCode != "" {
		row(fmt.Sprintf("Discount (%s):", o.Discount.CouponCode), "-"+rupees(discountAmt), &successGreen)
	}
	row("Tax (Included):", rupees(decimal.Zero), nil)
	row("Shipping:", "FREE", &successGreen)

	setDraw(pdf, copper)
	pdf.SetLineWidth(0.3)
	pdf.Line(summaryX, summaryY, summaryX+amountRight, summaryY)
	summaryY += 4

	setText(pdf, heritageBrown)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(summaryX, summaryY)
	pdf.CellFormat(25, 7, "TOTAL:", "", 0, "L", false, 0, "")
	setText(pdf, copper)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(amountRight-25, 7, rupees(o.Amount), "", 0, "R", false, 0, "")
	summaryY += 10

	// Payment-received badge.
	setFill(pdf, successGreen)
	pdf.RoundedRect(summaryX, summaryY, 60, 8, 2, "1234", "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(summaryX, summaryY+1.5)
	pdf.CellFormat(60, 5, "PAYMENT RECEIVED", "", 0, "C", false, 0, "")

	// Notes.
	notesY := summaryY + 15
	setText(pdf, heritageBrown)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(15, notesY)
	pdf.CellFormat(180, 5, "Notes:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	for _, n := range []string{
		"- All products are BIS hallmarked and come with authenticity certificate",
		"- 30-day return policy applicable on all purchases",
		"- For any queries, contact us at support@varahajewels.com",
	} {
		pdf.SetX(15)
		pdf.CellFormat(180, 5, n, "", 1, "L", false, 0, "")
	}

	// Footer.
	setDraw(pdf, copper)
	pdf.SetLineWidth(0.3)
	pdf.Line(15, 275, 195, 275)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(0, 277)
	pdf.CellFormat(210, 5, "Thank you for choosing Varaha Jewels!", "", 1, "C", false, 0, "")
	pdf.CellFormat(210, 5, "www.varahajewels.com | +91-XXXXXXXXXX | support@varahajewels.com", "", 1, "C", false, 0, "")

	path := filepath.Join(r.Dir, fmt.Sprintf("Varaha_Invoice_%s.pdf", o.ID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", errors.Wrap(err, "write invoice pdf")
	}
	return path, nil
}

func lineItemTable(pdf *gofpdf.Fpdf, o order.Order, original decimal.Decimal) {
	widths := []float64{60, 40, 25, 30, 30}
	headers := []string{"Item", "Variant ID", "Quantity", "Unit Price", "Amount"}

	setFill(pdf, heritageBrown)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetX(15)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 9)

	writeRow := func(name, variant string, qty int, unit, amount decimal.Decimal) {
		pdf.SetX(15)
		pdf.CellFormat(widths[0], 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, variant, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, rupees(unit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, rupees(amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(o.Items) > 0 {
		for _, it := range o.Items {
			line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			writeRow(it.Name, it.VariantID, it.Quantity, it.UnitPrice, line)
		}
		return
	}
	writeRow(o.Product.Name, o.Product.VariantID, o.Product.Quantity, original, original)
}

// pricingFallback derives the original and discount amounts when the
// discount sub-object is partially absent: a final amount equal to the test
// price implies the reference original, otherwise original equals final.
func pricingFallback(o order.Order) (original, discount decimal.Decimal) {
	original = o.Discount.OriginalAmount
	discount = o.Discount.Amount
	if original.IsZero() {
		if o.Amount.Equal(decimal.NewFromInt(1)) {
			original = order.ReferencePrice
		} else {
			original = o.Amount
		}
	}
	if discount.IsZero() && o.Amount.Equal(decimal.NewFromInt(1)) {
		discount = order.ReferencePrice.Sub(decimal.NewFromInt(1))
	}
	return original, discount
}

func validate(o order.Order) error {
	switch {
	case o.Customer.Name == "", o.Customer.Email == "", o.Customer.Contact == "":
		return errors.New("invoice requires customer name, email, and contact")
	}
	if len(o.Items) == 0 {
		if o.Product.Name == "" || o.Product.VariantID == "" || o.Product.Quantity <= 0 {
			return errors.New("invoice requires product name, variant, and quantity")
		}
	}
	return nil
}

func rupees(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(0)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func setFill(pdf *gofpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *gofpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
