package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"affiliate-catalog/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMissingCSVHeader = errors.New("csv header must include product_name")

// csvColumns is the export layout. Import accepts any subset in any order.
var csvColumns = []string{
	"id", "product_id", "product_name", "category", "subcategory", "item", "price",
	"original_price", "commission", "sales", "rating", "affiliate_url", "image_url",
	"video_url", "dikirim_dari", "toko", "stock_available", "is_featured",
	"featured_order", "clicks", "created_at",
}

// RowFailure reports a rejected CSV row. Row is 1-based and counts the header.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Imported int          `json:"imported"`
	Failed   int          `json:"failed"`
	Failures []RowFailure `json:"failures"`
}

// ImportCSV creates one product per data row. Bad rows are reported and
// skipped; good rows are kept.
func (s *productService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := index["product_name"]; !ok {
		return nil, ErrMissingCSVHeader
	}

	result := &ImportResult{Failures: []RowFailure{}}
	row := 1
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.fail(row, err)
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		np, err := productFromRecord(record, index)
		if err == nil {
			applyCreateDefaults(np)
			err = validateNewProduct(np)
		}
		if err == nil {
			_, err = s.repo.Insert(ctx, np)
			s.metrics.ObserveMutation("import", err)
		}
		if err != nil {
			result.fail(row, err)
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		s.invalidate(ctx)
	}
	s.logger.Info("CSV import finished",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (r *ImportResult) fail(row int, err error) {
	r.Failed++
	r.Failures = append(r.Failures, RowFailure{Row: row, Error: err.Error()})
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func productFromRecord(record []string, index map[string]int) (*domain.NewProduct, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(col string) *string {
		if v := get(col); v != "" {
			return &v
		}
		return nil
	}

	np := &domain.NewProduct{
		ProductCode:    optional("product_id"),
		ProductName:    get("product_name"),
		Category:       get("category"),
		Subcategory:    optional("subcategory"),
		Item:           optional("item"),
		AffiliateURL:   get("affiliate_url"),
		ImageURL:       get("image_url"),
		VideoURL:       optional("video_url"),
		ShippingOrigin: optional("dikirim_dari"),
		Store:          optional("toko"),
		StockAvailable: true,
	}

	rawPrice := get("price")
	if rawPrice == "" {
		return nil, fmt.Errorf("price: value is required")
	}
	var err error
	if np.Price, err = parseDecimal("price", rawPrice); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		col string
		dst *decimal.NullDecimal
	}{
		{"original_price", &np.OriginalPrice},
		{"commission", &np.Commission},
		{"rating", &np.Rating},
	} {
		if raw := get(f.col); raw != "" {
			d, err := parseDecimal(f.col, raw)
			if err != nil {
				return nil, err
			}
			*f.dst = decimal.NewNullDecimal(d)
		}
	}
	if raw := get("sales"); raw != "" {
		if np.Sales, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("sales: %q is not a whole number", raw)
		}
	}
	if raw := get("stock_available"); raw != "" {
		if np.StockAvailable, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("stock_available: %q is not a boolean", raw)
		}
	}
	if raw := get("is_featured"); raw != "" {
		if np.IsFeatured, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("is_featured: %q is not a boolean", raw)
		}
	}
	if raw := get("featured_order"); raw != "" {
		order, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("featured_order: %q is not a whole number", raw)
		}
		np.FeaturedOrder = &order
	}
	return np, nil
}

// parseDecimal accepts plain numbers and tolerates thousands separators
func parseDecimal(col, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", col, raw)
	}
	return d, nil
}

// ExportCSV writes products in the export layout
func (s *productService) ExportCSV(ctx context.Context, products []domain.Product, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range products {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(productRecord(&products[i])); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func productRecord(p *domain.Product) []string {
	str := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	nullDec := func(d decimal.NullDecimal) string {
		if !d.Valid {
			return ""
		}
		return d.Decimal.String()
	}
	order := ""
	if p.FeaturedOrder != nil {
		order = strconv.Itoa(*p.FeaturedOrder)
	}
	stock := ""
	if p.StockAvailable != nil {
		stock = strconv.FormatBool(*p.StockAvailable)
	}

	return []string{
		p.ID.String(),
		str(p.ProductCode),
		p.ProductName,
		p.Category,
		str(p.Subcategory),
		str(p.Item),
		p.Price.String(),
		nullDec(p.OriginalPrice),
		nullDec(p.Commission),
		strconv.Itoa(p.Sales),
		nullDec(p.Rating),
		p.AffiliateURL,
		p.ImageURL,
		str(p.VideoURL),
		str(p.ShippingOrigin),
		str(p.Store),
		stock,
		strconv.FormatBool(p.IsFeatured),
		order,
		strconv.FormatInt(p.Clicks, 10),
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
