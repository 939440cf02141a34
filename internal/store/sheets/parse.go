package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

var columns = []string{"id", "title", "price", "description", "category", "image", "sold", "dateOfSale"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTransactions converts a values matrix whose first row holds the column
// headers. Rows that fail to parse are skipped and counted.
func parseTransactions(values [][]interface{}) ([]core.Transaction, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	idx := make(map[string]int, len(columns))
	var missing []string
	for _, name := range columns {
		i := indexOf(headers, name)
		if i == -1 {
			missing = append(missing, name)
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]core.Transaction, 0, len(values)-1)
	skipped := 0
	for _, raw := range values[1:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		tx, err := parseRow(row, idx)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, skipped, nil
}

func parseRow(row []string, idx map[string]int) (core.Transaction, error) {
	get := func(name string) string { return safeGet(row, idx[name]) }

	id, err := strconv.ParseInt(get("id"), 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("id: %w", err)
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(get("price"), ",", "."))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("price: %w", err)
	}
	sold, err := parseBool(get("sold"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("sold: %w", err)
	}
	date, err := parseDate(get("dateOfSale"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("dateOfSale: %w", err)
	}
	return core.Transaction{
		ID:          id,
		Title:       get("title"),
		Price:       price,
		Description: get("description"),
		Category:    get("category"),
		Image:       get("image"),
		Sold:        sold,
		DateOfSale:  date,
	}, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "sold":
		return true, nil
	case "false", "no", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
