package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/tabular"
)

const dateLayout = "2006-01-02"

// Header columns accepted in a record file.
var (
	ProductNameColumn          = tabular.Column{Name: "productName", Aliases: []string{"品名", "製品名"}}
	QuantityColumn             = tabular.Column{Name: "quantity", Aliases: []string{"出荷数", "数量"}}
	RevenueColumn              = tabular.Column{Name: "revenue", Aliases: []string{"salesAmount", "売上金額", "売上"}}
	UnitPriceColumn            = tabular.Column{Name: "unitPrice", Aliases: []string{"売上単価"}}
	MaterialCostColumn         = tabular.Column{Name: "materialCost", Aliases: []string{"材料費"}}
	MaterialCostTotalColumn    = tabular.Column{Name: "materialCostTotal", Aliases: []string{"材料費合計"}}
	OutsourcingCostColumn      = tabular.Column{Name: "outsourcingCost", Aliases: []string{"外注費", "外注費用"}}
	OutsourcingCostTotalColumn = tabular.Column{Name: "outsourcingCostTotal", Aliases: []string{"外注費合計"}}
	StartDateColumn            = tabular.Column{Name: "startDate", Aliases: []string{"purchaseDate", "生産開始日", "仕入日"}}
	EndDateColumn              = tabular.Column{Name: "endDate", Aliases: []string{"shipDate", "出荷日"}}
	OrderPlacedColumn          = tabular.Column{Name: "orderPlaced", Aliases: []string{"発注済"}}
	OrderDateColumn            = tabular.Column{Name: "orderDate", Aliases: []string{"発注日"}}
)

var recordShape = []tabular.Requirement{
	{ProductNameColumn},
	{QuantityColumn},
	{RevenueColumn, UnitPriceColumn},
	{MaterialCostColumn, MaterialCostTotalColumn},
	{OutsourcingCostColumn, OutsourcingCostTotalColumn},
	{StartDateColumn},
	{EndDateColumn},
}

// RowError reports a row whose values parsed but could not be computed,
// typically a *metrics.DateOrderError.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ImportResult holds the computed records of an import in file order and
// the rows that were excluded.
type ImportResult struct {
	Records []Record
	// Rejected holds *tabular.ParseError and *RowError values.
	Rejected []error
	// Unresolved lists product names with no master entry, once each.
	Unresolved []string
}

// Import reads records from t, resolving products against m. Nothing is
// appended; the caller decides what to do with the result.
func Import(t *tabular.Table, m *master.Master) (ImportResult, error) {
	if err := t.Require(recordShape...); err != nil {
		return ImportResult{}, err
	}

	// Without a revenue column the cost columns are per unit, like unitPrice.
	perUnit := !t.Has(RevenueColumn) && t.Has(UnitPriceColumn)

	idx := map[string]int{}
	for _, c := range []tabular.Column{
		ProductNameColumn, QuantityColumn, RevenueColumn, UnitPriceColumn,
		MaterialCostColumn, MaterialCostTotalColumn,
		OutsourcingCostColumn, OutsourcingCostTotalColumn,
		StartDateColumn, EndDateColumn, OrderPlacedColumn, OrderDateColumn,
	} {
		idx[c.Name] = t.Index(c)
	}

	var (
		result ImportResult
		missed = map[string]bool{}
	)
	for i := range t.Rows {
		r := rowReader{t: t, row: i, idx: idx}
		rec, err := r.record(m, perUnit)
		if err != nil {
			result.Rejected = append(result.Rejected, err)
			continue
		}
		if !rec.Resolved && !missed[rec.ProductName] {
			missed[rec.ProductName] = true
			result.Unresolved = append(result.Unresolved, rec.ProductName)
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

type rowReader struct {
	t   *tabular.Table
	row int
	idx map[string]int
	err *tabular.ParseError
}

func (r *rowReader) cell(c tabular.Column) string {
	return r.t.Cell(r.row, r.idx[c.Name])
}

func (r *rowReader) fail(c tabular.Column, err error) {
	if r.err == nil {
		r.err = &tabular.ParseError{Line: r.t.Line(r.row), Column: c.Name, Value: r.cell(c), Err: err}
	}
}

// amount returns nil for an empty or absent cell.
func (r *rowReader) amount(c tabular.Column) *float64 {
	v, err := tabular.ParseFloat(r.cell(c))
	if errors.Is(err, tabular.ErrEmptyCell) {
		return nil
	}
	if err != nil {
		r.fail(c, err)
		return nil
	}
	return &v
}

func (r *rowReader) date(c tabular.Column) time.Time {
	v, err := tabular.ParseDate(r.cell(c))
	if err != nil {
		r.fail(c, err)
	}
	return v
}

func (r *rowReader) record(m *master.Master, perUnit bool) (Record, error) {
	d := Draft{
		ProductName: r.cell(ProductNameColumn),
		Quantity:    1,
		Revenue:     r.amount(RevenueColumn),
		UnitPrice:   r.amount(UnitPriceColumn),
		StartDate:   r.date(StartDateColumn),
		EndDate:     r.date(EndDateColumn),
	}
	if d.ProductName == "" {
		r.fail(ProductNameColumn, master.ErrEmptyName)
	}
	if raw := r.cell(QuantityColumn); raw != "" {
		q, err := tabular.ParseInt(raw)
		if err != nil {
			r.fail(QuantityColumn, err)
		}
		d.Quantity = q
	}

	material, outsourcing := r.amount(MaterialCostColumn), r.amount(OutsourcingCostColumn)
	d.MaterialCostTotal = r.amount(MaterialCostTotalColumn)
	d.OutsourcingCostTotal = r.amount(OutsourcingCostTotalColumn)
	if perUnit {
		d.MaterialCost, d.OutsourcingCost = material, outsourcing
	} else {
		if d.MaterialCostTotal == nil {
			d.MaterialCostTotal = material
		}
		if d.OutsourcingCostTotal == nil {
			d.OutsourcingCostTotal = outsourcing
		}
	}

	placed, err := tabular.ParseBool(r.cell(OrderPlacedColumn))
	if err != nil {
		r.fail(OrderPlacedColumn, err)
	}
	var orderDate *time.Time
	if raw := r.cell(OrderDateColumn); raw != "" {
		v := r.date(OrderDateColumn)
		orderDate = &v
	}

	if r.err != nil {
		return Record{}, r.err
	}

	rec, err := Build(m, d)
	if err != nil {
		return Record{}, &RowError{Line: r.t.Line(r.row), Err: err}
	}
	rec.OrderPlaced = placed || orderDate != nil
	rec.OrderDate = orderDate
	return rec, nil
}

// ExportHeader is the column order of a record download. It is also a valid
// import header: revenue and the totals are read back verbatim.
var ExportHeader = []string{
	ProductNameColumn.Name,
	QuantityColumn.Name,
	UnitPriceColumn.Name,
	RevenueColumn.Name,
	MaterialCostTotalColumn.Name,
	OutsourcingCostTotalColumn.Name,
	StartDateColumn.Name,
	EndDateColumn.Name,
	"leadTimeDays",
	"throughput",
	"throughputPerLeadTime",
	"perUnitThroughput",
	"perUnitThroughputPerLeadTime",
	OrderPlacedColumn.Name,
	OrderDateColumn.Name,
}

// ExportRow renders r with full numeric precision.
func ExportRow(r Record) []string {
	return []string{
		r.ProductName,
		strconv.Itoa(r.Quantity),
		tabular.FormatFloat(r.UnitPrice),
		tabular.FormatFloat(r.Revenue),
		tabular.FormatFloat(r.MaterialCostTotal),
		tabular.FormatFloat(r.OutsourcingCostTotal),
		r.StartDate.Format(dateLayout),
		r.EndDate.Format(dateLayout),
		strconv.Itoa(r.LeadTimeDays),
		tabular.FormatFloat(r.Throughput),
		tabular.FormatFloat(r.ThroughputPerLeadTime),
		optionalFloat(r.PerUnitThroughput),
		optionalFloat(r.PerUnitThroughputPerLeadTime),
		strconv.FormatBool(r.OrderPlaced),
		optionalDate(r.OrderDate),
	}
}

// ExportRows renders every record.
func ExportRows(records []Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = ExportRow(r)
	}
	return rows
}

// Sheets returns the XLSX export of records: the record table and the
// per-product summary.
func Sheets(records []Record) []tabular.Sheet {
	recordRows := make([][]any, len(records))
	for i, r := range records {
		recordRows[i] = []any{
			r.ProductName, r.Quantity, r.UnitPrice, r.Revenue,
			r.MaterialCostTotal, r.OutsourcingCostTotal,
			r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout),
			r.LeadTimeDays, r.Throughput, r.ThroughputPerLeadTime,
			optionalCell(r.PerUnitThroughput), optionalCell(r.PerUnitThroughputPerLeadTime),
			r.OrderPlaced, optionalDate(r.OrderDate),
		}
	}

	summary := Aggregate(records)
	productRows := make([][]any, len(summary.Products))
	for i, p := range summary.Products {
		productRows[i] = []any{
			p.ProductName, p.Records, p.TotalQuantity,
			p.SumThroughput, p.MeanThroughput, p.MeanThroughputPerLeadTime, p.MeanLeadTimeDays,
			optionalCell(p.MeanPerUnitThroughput), optionalCell(p.MeanPerUnitThroughputPerLeadTime),
		}
	}

	return []tabular.Sheet{
		{Name: "records", Header: ExportHeader, Rows: recordRows, Widths: []float64{24}},
		{
			Name: "summary",
			Header: []string{
				"productName", "records", "totalQuantity",
				"sumThroughput", "meanThroughput", "meanThroughputPerLeadTime", "meanLeadTimeDays",
				"meanPerUnitThroughput", "meanPerUnitThroughputPerLeadTime",
			},
			Rows:   productRows,
			Widths: []float64{24},
		},
	}
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return tabular.FormatFloat(*v)
}

func optionalCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
