package service

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sqcb_dashboard/backend/internal/models"
)

type Category string

const (
	CategoryNewComingNCM         Category = "newComingNCM"
	CategoryPendingInform        Category = "pendingInform"
	CategoryWaitingRMA           Category = "waitingRMA"
	CategoryReceivedRMAWaitingPO Category = "receivedRMAWaitingPO"
	CategoryWaitingRTV           Category = "waitingRTV"
	CategorySupplierReject       Category = "supplierReject"
	CategoryNewSQCB              Category = "newSQCB"
	CategoryReceivedRMA          Category = "receivedRMA"
	CategoryCompleted            Category = "completed"
)

type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
	ChartPie  ChartKind = "pie"
)

const (
	ColumnID          = "ID"
	ColumnDisposition = "DISPOSITION"
	ColumnModified    = "MODIFIED"
	ColumnRMANo       = "RMA_NO"
	ColumnSupplier    = "SUPPLIER"
	ColumnComment     = "COMMENT"
)

const (
	NoDateKey      = "NoDate"
	UnknownHandler = "Unknown"
)

type Point struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// FlatRow is the table projection of a record. Columns on the owning
// CategoryResult say which fields are shown.
type FlatRow struct {
	ID          string `json:"id"`
	Disposition string `json:"disposition"`
	Modified    string `json:"modified"`
	RMANo       string `json:"rma_no"`
	Supplier    string `json:"supplier"`
	Comment     string `json:"comment"`
}

type CategoryResult struct {
	Name        Category        `json:"name"`
	Title       string          `json:"title"`
	Chart       ChartKind       `json:"chart"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Records     []models.Record `json:"records"`
	ChartSeries []Point         `json:"chart_series"`
	Columns     []string        `json:"columns"`
	TableRows   []FlatRow       `json:"table_rows"`
}

type Overview struct {
	Counters      map[Category]int `json:"counters"`
	FeedbackDates []Point          `json:"feedback_dates"`
	Status        []Point          `json:"status"`
	Quantity      []Point          `json:"quantity"`
}

type AggregateResult struct {
	Now        time.Time                   `json:"now"`
	WindowDays int                         `json:"window_days"`
	Total      int                         `json:"total"`
	Overview   Overview                    `json:"overview"`
	Categories map[Category]CategoryResult `json:"categories"`
}

func (a AggregateResult) Category(name Category) (CategoryResult, bool) {
	c, ok := a.Categories[name]
	return c, ok
}

type categoryRule struct {
	name    Category
	title   string
	chart   ChartKind
	columns []string
	group   func([]models.Record) []Point
	match   func(r models.Record, within func(string) bool) bool
}

var categoryRules = []categoryRule{
	{
		name:    CategoryNewComingNCM,
		title:   "New Coming NCM",
		chart:   ChartLine,
		columns: []string{ColumnID, ColumnDisposition, ColumnModified, ColumnSupplier, ColumnComment},
		group:   GroupByModifiedDate,
		match: func(r models.Record, within func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionWaitingFeedback) && within(r.Modified)
		},
	},
	{
		name:    CategoryPendingInform,
		title:   "Pending Inform",
		chart:   ChartBar,
		columns: []string{ColumnID, ColumnDisposition, ColumnModified, ColumnSupplier, ColumnComment},
		group:   GroupByModifiedDate,
		match: func(r models.Record, within func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionWaitingFeedback) && !within(r.Modified)
		},
	},
	{
		name:    CategoryWaitingRMA,
		title:   "Waiting RMA",
		chart:   ChartPie,
		columns: []string{ColumnID, ColumnDisposition, ColumnRMANo, ColumnSupplier, ColumnComment},
		group:   GroupByHandler,
		match: func(r models.Record, _ func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionFeedback) && IsRmaNoNull(r.RMANo)
		},
	},
	{
		name:    CategoryReceivedRMAWaitingPO,
		title:   "Received RMA Waiting PO",
		chart:   ChartPie,
		columns: []string{ColumnID, ColumnDisposition, ColumnRMANo, ColumnSupplier, ColumnComment},
		group:   GroupByHandler,
		match: func(r models.Record, _ func(string) bool) bool {
			// status is compared case-sensitively here, unlike completed.
			return dispositionIs(r.Disposition, DispositionScrapSupplier) &&
				!IsRmaNoNull(r.RMANo) &&
				(r.Status == StatusOpen || r.Status == StatusPending)
		},
	},
	{
		name:    CategoryWaitingRTV,
		title:   "Waiting RTV",
		chart:   ChartPie,
		columns: []string{ColumnID, ColumnDisposition, ColumnRMANo, ColumnSupplier, ColumnComment},
		group:   GroupByHandler,
		match: func(r models.Record, _ func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionReturnToSupplier) && !IsRmaNoNull(r.RMANo)
		},
	},
	{
		name:    CategorySupplierReject,
		title:   "Supplier Reject",
		chart:   ChartBar,
		columns: []string{ColumnID, ColumnDisposition, ColumnSupplier, ColumnComment},
		group:   GroupByHandler,
		match: func(r models.Record, _ func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionSupplierReject)
		},
	},
	{
		name:    CategoryNewSQCB,
		title:   "New SQCB",
		chart:   ChartBar,
		columns: []string{ColumnID, ColumnDisposition, ColumnModified, ColumnSupplier, ColumnComment},
		group:   GroupByFeedbackDate,
		match: func(r models.Record, _ func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionWaitingFeedback)
		},
	},
	{
		name:    CategoryReceivedRMA,
		title:   "Received RMA",
		chart:   ChartBar,
		columns: []string{ColumnID, ColumnDisposition, ColumnRMANo, ColumnSupplier, ColumnComment},
		group:   GroupByFeedbackDate,
		match: func(r models.Record, _ func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionScrapSupplier, DispositionReturnToSupplier) &&
				present(r.RMANo) && !present(r.PONo) && !present(r.OBDNo)
		},
	},
	{
		name:    CategoryCompleted,
		title:   "Completed",
		chart:   ChartBar,
		columns: []string{ColumnID, ColumnDisposition, ColumnRMANo, ColumnSupplier, ColumnComment},
		group:   GroupByFeedbackDate,
		match: func(r models.Record, _ func(string) bool) bool {
			return dispositionIs(r.Disposition, DispositionScrapSupplier, DispositionReturnToSupplier) &&
				present(r.RMANo) && present(r.PONo) && present(r.OBDNo) &&
				strings.ToLower(r.Status) == "closed"
		},
	},
}

// Categories returns every category name in display order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryRules))
	for _, rule := range categoryRules {
		out = append(out, rule.name)
	}
	return out
}

// Classifier buckets records into dashboard categories. It holds no state
// between calls; the zero value uses DefaultWindowDays.
type Classifier struct {
	WindowDays int
}

func NewClassifier(windowDays int) Classifier {
	return Classifier{WindowDays: windowDays}
}

func (c Classifier) windowDays() int {
	if c.WindowDays <= 0 {
		return DefaultWindowDays
	}
	return c.WindowDays
}

// Classify uses the default window.
func Classify(records []models.Record, now time.Time) AggregateResult {
	return Classifier{}.Classify(records, now)
}

// Evaluate applies f and classifies what remains.
func (c Classifier) Evaluate(records []models.Record, f Filter, now time.Time) AggregateResult {
	return c.Classify(f.Apply(records), now)
}

func (c Classifier) Classify(records []models.Record, now time.Time) AggregateResult {
	days := c.windowDays()
	within := func(dateStr string) bool {
		return IsWithinNDays(dateStr, days, now)
	}

	result := AggregateResult{
		Now:        now,
		WindowDays: days,
		Total:      len(records),
		Categories: make(map[Category]CategoryResult, len(categoryRules)),
		Overview: Overview{
			Counters: make(map[Category]int, len(categoryRules)),
		},
	}

	for _, rule := range categoryRules {
		matched := make([]models.Record, 0)
		for _, r := range records {
			if rule.match(r, within) {
				matched = append(matched, r.Clone())
			}
		}
		result.Categories[rule.name] = CategoryResult{
			Name:        rule.name,
			Title:       rule.title,
			Chart:       rule.chart,
			Count:       len(matched),
			TotalAmount: sumAmounts(matched),
			Records:     matched,
			ChartSeries: rule.group(matched),
			Columns:     append([]string(nil), rule.columns...),
			TableRows:   ProjectRows(matched),
		}
		result.Overview.Counters[rule.name] = len(matched)
	}

	result.Overview.FeedbackDates = GroupByFeedbackDate(records)
	result.Overview.Status = statusSeries(records)
	result.Overview.Quantity = []Point{
		{Key: "New SQCB", Value: result.Overview.Counters[CategoryNewSQCB]},
		{Key: "Waiting RMA", Value: result.Overview.Counters[CategoryWaitingRMA]},
		{Key: "Received RMA", Value: result.Overview.Counters[CategoryReceivedRMA]},
	}
	return result
}

// GroupByFeedbackDate counts records per raw feedback_date value. Records
// without one are skipped.
func GroupByFeedbackDate(records []models.Record) []Point {
	counts := map[string]int{}
	for _, r := range records {
		if r.FeedbackDate != "" {
			counts[r.FeedbackDate]++
		}
	}
	return sortedPoints(counts)
}

// GroupByModifiedDate counts records per UTC calendar day of modified.
func GroupByModifiedDate(records []models.Record) []Point {
	counts := map[string]int{}
	for _, r := range records {
		key := NoDateKey
		if t, ok := ParseDate(r.Modified); ok {
			key = t.Format("2006-01-02")
		}
		counts[key]++
	}
	return sortedPoints(counts)
}

// GroupByHandler counts records per hd_incharge.
func GroupByHandler(records []models.Record) []Point {
	counts := map[string]int{}
	for _, r := range records {
		key := r.HDIncharge
		if key == "" {
			key = UnknownHandler
		}
		counts[key]++
	}
	return sortedPoints(counts)
}

func ProjectRows(records []models.Record) []FlatRow {
	rows := make([]FlatRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, FlatRow{
			ID:          r.SQCBID,
			Disposition: r.Disposition,
			Modified:    r.Modified,
			RMANo:       r.RMANo,
			Supplier:    r.SupplierName,
			Comment:     r.Comments,
		})
	}
	return rows
}

func statusSeries(records []models.Record) []Point {
	var open, closed int
	for _, r := range records {
		switch strings.ToLower(r.Status) {
		case "open":
			open++
		case "closed":
			closed++
		}
	}
	return []Point{{Key: StatusOpen, Value: open}, {Key: StatusClosed, Value: closed}}
}

func sumAmounts(records []models.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if d, ok := parseAmount(r.SQCBAmount); ok {
			total = total.Add(d)
		}
	}
	return total
}

func sortedPoints(counts map[string]int) []Point {
	out := make([]Point, 0, len(counts))
	for k, v := range counts {
		out = append(out, Point{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}
