package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the "6 working day" target window. It is measured in
// raw calendar days, not business days.
const DefaultWindowDays = 6

const (
	DispositionWaitingFeedback  = "waiting feedback"
	DispositionFeedback         = "feedback"
	DispositionWaitRMA          = "wait rma"
	DispositionScrapSupplier    = "scrap supplier"
	DispositionReturnToSupplier = "return to supplier"
	DispositionSupplierReject   = "supplier reject"
	DispositionCancel           = "cancel"
)

const (
	StatusOpen    = "Open"
	StatusClosed  = "Closed"
	StatusPending = "Pending"
)

// Layouts accepted for record dates. Inputs without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses the date formats the upstream API and its forms produce.
// ok is false for empty or unrecognised input.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsWithinNDays reports whether at most n*24h elapsed between dateStr and
// now. Future dates count as within the window; unparseable dates never do.
func IsWithinNDays(dateStr string, n int, now time.Time) bool {
	t, ok := ParseDate(dateStr)
	if !ok {
		return false
	}
	return now.Sub(t) <= time.Duration(n)*24*time.Hour
}

// IsRmaNoNull reports whether no RMA number was entered. Null and absent
// values arrive here as "". The literal text "null" is a real value.
func IsRmaNoNull(rmaNo string) bool {
	return strings.TrimSpace(rmaNo) == ""
}

func dispositionIs(disposition string, want ...string) bool {
	d := strings.ToLower(disposition)
	for _, w := range want {
		if d == w {
			return true
		}
	}
	return false
}

func present(v string) bool {
	return v != ""
}

func parseAmount(v string) (decimal.Decimal, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
