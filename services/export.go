package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/go-pdf/fpdf"
)

var exportHeader = []string{
	"Title", "Category", "Spray count", "Quantity", "Cost price", "Selling price", "Expiry date", "Tags",
}

func exportRow(p models.Product) []string {
	return []string{
		p.Title,
		p.Category,
		strconv.Itoa(p.SprayCount),
		strconv.Itoa(p.Quantity),
		strconv.FormatFloat(p.CostPrice, 'f', 2, 64),
		strconv.FormatFloat(p.SellingPrice, 'f', 2, 64),
		p.ExpiryDate.UTC().Format("2006-01-02"),
		strings.Join(p.Tags, ", "),
	}
}

// WriteProductsCSV writes a header row and one row per product.
func WriteProductsCSV(w io.Writer, products []models.Product) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write(exportRow(p)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var pdfColumnWidths = []float64{60, 38, 22, 20, 24, 26, 26, 61}

// WriteProductsPDF renders the products as a landscape A4 table.
func WriteProductsPDF(w io.Writer, shopName string, products []models.Product) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Products", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s: products (%d)", shopName, len(products))), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range exportHeader {
		pdf.CellFormat(pdfColumnWidths[i], 7, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, p := range products {
		for i, value := range exportRow(p) {
			pdf.CellFormat(pdfColumnWidths[i], 6, tr(truncate(value, 40)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}
