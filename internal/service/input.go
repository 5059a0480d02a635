package service

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"tailor-backend/internal/model"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// IDField is a numeric reference that arrives as a form value or as a JSON
// string or number. The empty string means "none".
type IDField string

func (f *IDField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = IDField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = IDField(n.String())
	return nil
}

// isJSONNull reports whether a decoded field was sent as an explicit null.
// Absent fields have a nil raw message.
func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// uint parses the field; ok is false when it is blank.
func (f IDField) uint(field string) (id uint, ok bool, err error) {
	raw := strings.TrimSpace(string(f))
	if raw == "" || raw == "null" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false, validationError("%s must be a positive integer", field)
	}
	return uint(n), true, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns nil for a blank value.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, validationError("%s must be a date in YYYY-MM-DD format", field)
	}
	d := truncateDay(t)
	return &d, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseAmount returns zero for a blank value and rejects negatives.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, validationError("%s must be a number", field)
	}
	if amount.IsNegative() {
		return decimal.Zero, validationError("%s cannot be negative", field)
	}
	return amount.Round(2), nil
}

// normalizeStatus maps user input onto a known suit status.
func normalizeStatus(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	for _, status := range model.SuitStatuses {
		if s == status {
			return status, true
		}
	}
	return "", false
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
