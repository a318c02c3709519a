package api

import (
	"net/http"
	"strings"

	"medshop/m/domain"
	"medshop/m/internal/report"
)

type patientResponse struct {
	domain.PatientRecord
	Summary string `json:"summary"`
}

type remindersResponse struct {
	Date     domain.Date       `json:"date"`
	Patients []patientResponse `json:"patients"`
}

func toPatientResponses(records []domain.PatientRecord) []patientResponse {
	out := make([]patientResponse, len(records))
	for i, rec := range records {
		if rec.Lines == nil {
			rec.Lines = []domain.PatientMedicineLine{}
		}
		out[i] = patientResponse{PatientRecord: rec, Summary: report.FormatMedicines(rec.Lines)}
	}
	return out
}

func (h *Handler) apiReminders(w http.ResponseWriter, r *http.Request) {
	day := h.dashboard.Today()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
			return
		}
		day = parsed
	}
	records, err := h.store.DueOn(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch reminders")
		return
	}
	respondJSON(w, http.StatusOK, remindersResponse{Date: day, Patients: toPatientResponses(records)})
}

func (h *Handler) apiPatients(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.SearchByName(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to search patients")
		return
	}
	respondJSON(w, http.StatusOK, toPatientResponses(records))
}

func (h *Handler) apiMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.store.ListMedicines(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list medicines")
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}
