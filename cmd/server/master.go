package main

import (
	"bytes"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/tabular"
)

type masterViewData struct {
	baseViewData
	Entries []master.Entry
}

func (s *server) handleMasterList(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "master.html", masterViewData{
		baseViewData: flash(r),
		Entries:      stateFrom(r).Master.Entries(),
	})
}

func (s *server) handleMasterCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	entry, err := parseEntryForm(r)
	if err != nil {
		redirectWith(w, r, "/master", "error", err.Error())
		return
	}
	if err := stateFrom(r).Master.RegisterEntry(entry); err != nil {
		redirectWith(w, r, "/master", "error", err.Error())
		return
	}

	redirectWith(w, r, "/master", "success", fmt.Sprintf("%s saved", entry.Name))
}

func (s *server) handleMasterImport(w http.ResponseWriter, r *http.Request) {
	table, ok := s.readUpload(w, r, "/master")
	if !ok {
		return
	}

	mode, err := master.ParseMode(r.FormValue("mode"))
	if err != nil {
		redirectWith(w, r, "/master", "error", err.Error())
		return
	}

	result, err := stateFrom(r).Master.BulkLoad(table, mode)
	if err != nil {
		redirectWith(w, r, "/master", "error", err.Error())
		return
	}
	for _, skipped := range result.Skipped {
		s.logger.Debug("master row skipped", zap.Error(skipped))
	}

	msg := fmt.Sprintf("%s import: %d inserted, %d updated, %d removed",
		mode, result.Inserted, result.Updated, result.Removed)
	if n := len(result.Skipped); n > 0 {
		errs := make([]error, n)
		for i, e := range result.Skipped {
			errs[i] = e
		}
		msg += fmt.Sprintf("; %d rows skipped: %s", n, firstErrors(errs, 3))
	}
	redirectWith(w, r, "/master", "success", msg)
}

func (s *server) handleMasterExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, master.ExportHeader, stateFrom(r).Master.ExportRows()); err != nil {
		s.logger.Error("export master csv", zap.Error(err))
		http.Error(w, "failed to export product master", http.StatusInternalServerError)
		return
	}
	sendAttachment(w, "product-master.csv", "text/csv; charset=utf-8", buf.Bytes())
}
