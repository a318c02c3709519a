package api

import (
	"fmt"
	"net/http"
	"strconv"

	"medshop/m/internal/report"
)

func (h *Handler) exportReminders(w http.ResponseWriter, r *http.Request) {
	today := h.dashboard.Today()
	records, err := h.store.DueOn(r.Context(), today)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sendWorkbook(w, r, report.Reminders(records), "reminders-"+today.String()+".xlsx")
}

func (h *Handler) exportSearch(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.SearchByName(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sendWorkbook(w, r, report.SearchResults(records), "patients.xlsx")
}

func (h *Handler) sendWorkbook(w http.ResponseWriter, r *http.Request, table report.Table, filename string) {
	data, err := report.Workbook(table)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", report.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
