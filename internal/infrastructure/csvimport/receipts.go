// Package csvimport lee archivos de recepción de mercancía (exportados de Excel o del ERP
// del proveedor) y los convierte en entradas para StockEngine.Receive.
//
// Columnas reconocidas (el orden no importa, la cabecera sí):
//
//	sku, product_name, category, batch_id, quantity, min_stock_level, max_stock_level,
//	expiry_date, zone, aisle, rack, bin
//
// sku, product_name, batch_id y quantity son obligatorias.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

var requiredColumns = []string{"sku", "product_name", "batch_id", "quantity"}

// Receipt una fila del archivo.
type Receipt struct {
	Line          int
	SKU           string
	ProductName   string
	Category      string
	BatchID       string
	Quantity      int64
	MinStockLevel *int64
	MaxStockLevel *int64
	ExpiryDate    *time.Time
	Location      entity.Location
}

// Options formato del archivo.
type Options struct {
	Charset   string // "utf-8" (default) o "iso-8859-1"/"latin1"
	Separator rune   // 0 = detectar ',' o ';' desde la cabecera
}

// Decoder envuelve r según el charset. Excel en español suele exportar en ISO-8859-1.
func Decoder(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %s", charset)
	}
}

// ParseReceipts lee todas las filas. Se detiene en la primera fila inválida e indica su línea.
func ParseReceipts(r io.Reader, opts Options) ([]Receipt, error) {
	dec, err := Decoder(r, opts.Charset)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("leer archivo: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	sep := opts.Separator
	if sep == 0 {
		sep = detectSeparator(text)
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sep
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("el CSV debe tener cabecera y al menos una fila")
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	out := make([]Receipt, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if isBlank(rec) {
			continue
		}
		row, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("fila %d: %w", line, err)
		}
		row.Line = line
		out = append(out, row)
	}
	return out, nil
}

// ToReceiveInput arma la entrada del motor para una bodega concreta.
func (r Receipt) ToReceiveInput(companyID, warehouseID, userID string) inventory.ReceiveInput {
	return inventory.ReceiveInput{
		CompanyID:     companyID,
		SKU:           r.SKU,
		ProductName:   r.ProductName,
		Category:      r.Category,
		BatchID:       r.BatchID,
		WarehouseID:   warehouseID,
		Quantity:      r.Quantity,
		Location:      r.Location,
		MinStockLevel: r.MinStockLevel,
		MaxStockLevel: r.MaxStockLevel,
		ExpiryDate:    r.ExpiryDate,
		CreatedBy:     userID,
	}
}

func parseRow(rec []string, cols map[string]int) (Receipt, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	row := Receipt{
		SKU:         get("sku"),
		ProductName: get("product_name"),
		Category:    get("category"),
		BatchID:     get("batch_id"),
		Location: entity.Location{
			Zone:  get("zone"),
			Aisle: get("aisle"),
			Rack:  get("rack"),
			Bin:   get("bin"),
		},
	}
	if row.SKU == "" || row.ProductName == "" || row.BatchID == "" {
		return Receipt{}, fmt.Errorf("sku, product_name y batch_id son obligatorios")
	}

	qty, err := parseInt(get("quantity"))
	if err != nil || qty == nil || *qty <= 0 {
		return Receipt{}, fmt.Errorf("quantity inválida %q", get("quantity"))
	}
	row.Quantity = *qty

	if row.MinStockLevel, err = parseInt(get("min_stock_level")); err != nil {
		return Receipt{}, fmt.Errorf("min_stock_level: %w", err)
	}
	if row.MaxStockLevel, err = parseInt(get("max_stock_level")); err != nil {
		return Receipt{}, fmt.Errorf("max_stock_level: %w", err)
	}
	if v := get("expiry_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return Receipt{}, fmt.Errorf("expiry_date: %w", err)
		}
		row.ExpiryDate = &t
	}
	return row, nil
}

// parseInt acepta separador de miles con punto ("1.200"). Vacío → nil.
func parseInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ".", ""), 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q no reconocida (YYYY-MM-DD o DD/MM/YYYY)", s)
}

func detectSeparator(text string) rune {
	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
