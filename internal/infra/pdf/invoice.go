package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type InvoiceItem struct {
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type InvoiceData struct {
	OrderID       string
	IssuedAt      time.Time
	CustomerName  string
	CustomerEmail string
	Street        string
	City          string
	PostalCode    string
	Country       string
	Items         []InvoiceItem
	ShippingCost  decimal.Decimal
	Total         decimal.Decimal
	Currency      string
	SellerName    string
}

/*
GenerateInvoice 產生訂單發票PDF
排版固定A4直式, 品項過多時gofpdf會自動換頁
*/
func GenerateInvoice(data InvoiceData) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, "Rechnung / Invoice")
	doc.Ln(14)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 5, fmt.Sprintf("Order: %s", data.OrderID))
	doc.Ln(5)
	doc.Cell(0, 5, fmt.Sprintf("Date: %s", data.IssuedAt.Format("2006-01-02")))
	doc.Ln(5)
	if data.SellerName != "" {
		doc.Cell(0, 5, fmt.Sprintf("Seller: %s", data.SellerName))
		doc.Ln(5)
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 10)
	doc.Cell(0, 5, "Bill to:")
	doc.Ln(5)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 5, data.CustomerName)
	doc.Ln(5)
	doc.Cell(0, 5, data.Street)
	doc.Ln(5)
	doc.Cell(0, 5, fmt.Sprintf("%s %s, %s", data.PostalCode, data.City, data.Country))
	doc.Ln(5)
	if data.CustomerEmail != "" {
		doc.Cell(0, 5, data.CustomerEmail)
		doc.Ln(5)
	}
	doc.Ln(6)

	// 品項表頭
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(235, 235, 235)
	doc.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	doc.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	doc.CellFormat(35, 8, "Unit price", "1", 0, "R", true, 0, "")
	doc.CellFormat(35, 8, "Subtotal", "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	currency := data.Currency
	if currency == "" {
		currency = "EUR"
	}
	for _, item := range data.Items {
		doc.CellFormat(90, 8, item.Title, "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		doc.CellFormat(35, 8, formatMoney(item.UnitPrice, currency), "1", 0, "R", false, 0, "")
		doc.CellFormat(35, 8, formatMoney(item.Subtotal, currency), "1", 1, "R", false, 0, "")
	}

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(145, 8, "Shipping", "1", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, formatMoney(data.ShippingCost, currency), "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(145, 8, "Total", "1", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, formatMoney(data.Total, currency), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMoney(v decimal.Decimal, currency string) string {
	return v.StringFixed(2) + " " + currency
}
