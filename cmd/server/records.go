package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/ledger"
	"github.com/Simplici0/tplt/internal/tabular"
)

const maxUploadSize = 10 << 20

type recordRow struct {
	Index   int
	Editing bool
	ledger.Record
}

type dashboardViewData struct {
	baseViewData
	Form         recordForm
	ProductNames []string
	Records      []recordRow
	Summary      ledger.Summary
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state := stateFrom(r)
	records := state.Ledger.Records()
	editing, isEditing := state.Ledger.Editing()

	data := dashboardViewData{
		baseViewData: flash(r),
		Form:         emptyRecordForm(s.now()),
		ProductNames: state.Master.Names(),
		Records:      make([]recordRow, len(records)),
		Summary:      ledger.Aggregate(records),
	}
	for i, rec := range records {
		data.Records[i] = recordRow{Index: i, Editing: isEditing && i == editing, Record: rec}
	}
	if isEditing {
		data.Form = recordFormFromDraft(editing, records[editing].Draft)
	}

	s.renderTemplate(w, "dashboard.html", data)
}

func (s *server) handleRecordCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	state := stateFrom(r)
	draft, err := parseDraftForm(r)
	if err != nil {
		redirectWith(w, r, "/", "error", err.Error())
		return
	}
	rec, err := ledger.Build(state.Master, draft)
	if err != nil {
		redirectWith(w, r, "/", "error", err.Error())
		return
	}

	state.Ledger.Append(rec)
	redirectWith(w, r, "/", "success", recordMessage("Record added", rec))
}

func (s *server) handleRecordUpdate(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		http.Error(w, "invalid record index", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	state := stateFrom(r)
	draft, err := parseDraftForm(r)
	if err != nil {
		redirectWith(w, r, "/", "error", err.Error())
		return
	}
	rec, err := ledger.Build(state.Master, draft)
	if err != nil {
		redirectWith(w, r, "/", "error", err.Error())
		return
	}

	if err := state.Ledger.UpdateEditing(index, rec); err != nil {
		s.recordError(w, r, err)
		return
	}
	redirectWith(w, r, "/", "success", recordMessage("Record updated", rec))
}

func (s *server) handleRecordEdit(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		http.Error(w, "invalid record index", http.StatusBadRequest)
		return
	}
	if err := stateFrom(r).Ledger.BeginEdit(index); err != nil {
		s.recordError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleRecordCancelEdit(w http.ResponseWriter, r *http.Request) {
	stateFrom(r).Ledger.CancelEdit()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleRecordDelete(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		http.Error(w, "invalid record index", http.StatusBadRequest)
		return
	}
	if err := stateFrom(r).Ledger.Remove(index); err != nil {
		s.recordError(w, r, err)
		return
	}
	redirectWith(w, r, "/", "success", "Record deleted")
}

func (s *server) handleRecordClear(w http.ResponseWriter, r *http.Request) {
	stateFrom(r).Ledger.Clear()
	redirectWith(w, r, "/", "success", "All records cleared")
}

func (s *server) handleRecordOrder(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		http.Error(w, "invalid record index", http.StatusBadRequest)
		return
	}
	if err := stateFrom(r).Ledger.MarkOrdered(index, s.now()); err != nil {
		s.recordError(w, r, err)
		return
	}
	redirectWith(w, r, "/", "success", "Order placed")
}

func (s *server) handleRecordImport(w http.ResponseWriter, r *http.Request) {
	table, ok := s.readUpload(w, r, "/")
	if !ok {
		return
	}

	state := stateFrom(r)
	result, err := ledger.Import(table, state.Master)
	if err != nil {
		redirectWith(w, r, "/", "error", err.Error())
		return
	}
	for _, rec := range result.Records {
		state.Ledger.Append(rec)
	}
	for _, rejected := range result.Rejected {
		s.logger.Debug("record row rejected", zap.Error(rejected))
	}

	msg := fmt.Sprintf("Imported %d records (%s)", len(result.Records), table.Encoding)
	if n := len(result.Rejected); n > 0 {
		msg += fmt.Sprintf("; %d rows rejected: %s", n, firstErrors(result.Rejected, 3))
	}
	if len(result.Unresolved) > 0 {
		msg += "; not in product master: " + strings.Join(result.Unresolved, ", ")
	}
	key := "success"
	if len(result.Records) == 0 {
		key = "error"
	}
	redirectWith(w, r, "/", key, msg)
}

func (s *server) handleRecordExportCSV(w http.ResponseWriter, r *http.Request) {
	records := stateFrom(r).Ledger.Records()

	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, ledger.ExportHeader, ledger.ExportRows(records)); err != nil {
		s.logger.Error("export records csv", zap.Error(err))
		http.Error(w, "failed to export records", http.StatusInternalServerError)
		return
	}
	sendAttachment(w, "records.csv", "text/csv; charset=utf-8", buf.Bytes())
}

func (s *server) handleRecordExportXLSX(w http.ResponseWriter, r *http.Request) {
	records := stateFrom(r).Ledger.Records()

	var buf bytes.Buffer
	if err := tabular.WriteXLSX(&buf, ledger.Sheets(records)...); err != nil {
		s.logger.Error("export records xlsx", zap.Error(err))
		http.Error(w, "failed to export records", http.StatusInternalServerError)
		return
	}
	sendAttachment(w, "records.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// recordError maps ledger errors to responses: unknown indexes are 404,
// anything else goes back to the dashboard as a message.
func (s *server) recordError(w http.ResponseWriter, r *http.Request, err error) {
	var idxErr *ledger.IndexError
	if errors.As(err, &idxErr) {
		http.NotFound(w, r)
		return
	}
	s.logger.Info("record action refused", zap.Error(err))
	redirectWith(w, r, "/", "error", err.Error())
}

func recordMessage(prefix string, rec ledger.Record) string {
	if rec.Resolved {
		return prefix
	}
	return fmt.Sprintf("%s; %s is not in the product master, its price and costs default to 0", prefix, rec.ProductName)
}

// readUpload parses the multipart "file" field. On failure it has already
// redirected to back.
func (s *server) readUpload(w http.ResponseWriter, r *http.Request, back string) (*tabular.Table, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		redirectWith(w, r, back, "error", "upload a file of at most 10 MB")
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		redirectWith(w, r, back, "error", "choose a file to import")
		return nil, false
	}
	defer file.Close()

	table, err := tabular.Read(file)
	if err != nil {
		redirectWith(w, r, back, "error", fmt.Sprintf("%s: %v", header.Filename, err))
		return nil, false
	}
	return table, true
}

func sendAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(body)
}

func firstErrors(errs []error, n int) string {
	msgs := make([]string, 0, n)
	for i, err := range errs {
		if i == n {
			msgs = append(msgs, "...")
			break
		}
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
