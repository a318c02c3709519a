package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"medshop/m/domain"
	"medshop/m/internal/dashboard"
	"medshop/m/internal/registration"
	"medshop/m/internal/report"
)

type dashboardView struct {
	Summary *dashboard.Summary
	Table   report.Table
}

func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "dashboard", page{
		Title: "Medical Shop Dashboard",
		Nav:   "dashboard",
		Data:  dashboardView{Summary: summary, Table: report.Reminders(summary.Due)},
	})
}

type medicineOption struct {
	Name    string
	Checked bool
	Strips  string
}

// patientForm is the add-patient form as last submitted. A fresh form has
// nothing checked and one strip per medicine.
type patientForm struct {
	Name         string
	Mobile       string
	LastPurchase string
	Medicines    []medicineOption
}

const defaultStrips = "1"

var errPurchaseDate = errors.New("please enter the last purchase date as YYYY-MM-DD")

func (h *Handler) newPatientPage(w http.ResponseWriter, r *http.Request) {
	form, err := h.patientForm(r, nil)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	p := page{Title: "Add New Patient", Nav: "add", Data: form}
	if reminder, err := domain.ParseDate(r.URL.Query().Get("reminder")); err == nil {
		p.Flash = "Patient Added! Reminder set for: " + reminder.String()
	}
	h.render(w, http.StatusOK, "add_patient", p)
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "error", page{Title: "Something went wrong", Error: "invalid form submission"})
		return
	}
	form, err := h.patientForm(r, r.PostForm)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	sub, err := submissionFromForm(r.PostForm)
	if err != nil {
		// The date is only reported once the rest of the form is valid.
		if verr := registration.Validate(sub); verr != nil {
			err = verr
		}
		h.render(w, http.StatusUnprocessableEntity, "add_patient", page{Title: "Add New Patient", Nav: "add", Error: err.Error(), Data: form})
		return
	}

	res, err := h.workflow.Register(r.Context(), sub)
	if err != nil {
		var perr *registration.PersistenceError
		switch {
		case errors.Is(err, registration.ErrValidation):
			h.render(w, http.StatusUnprocessableEntity, "add_patient", page{Title: "Add New Patient", Nav: "add", Error: err.Error(), Data: form})
		case errors.As(err, &perr):
			h.render(w, http.StatusInternalServerError, "add_patient", page{Title: "Add New Patient", Nav: "add", Error: perr.Error(), Data: form})
		default:
			h.serverError(w, r, err)
		}
		return
	}

	h.logger.Info("patient added from dashboard",
		zap.Int64("patient_id", res.PatientID),
		zap.String("session", sessionID(r.Context())),
	)
	http.Redirect(w, r, "/patients/new?reminder="+url.QueryEscape(res.NextReminder.String()), http.StatusSeeOther)
}

// patientForm lists the catalog with the values from submitted, if any.
// Selected medicines missing from the catalog are kept at the end.
func (h *Handler) patientForm(r *http.Request, submitted url.Values) (patientForm, error) {
	names, err := h.store.ListMedicineNames(r.Context())
	if err != nil {
		return patientForm{}, err
	}
	form := patientForm{LastPurchase: h.dashboard.Today().String()}
	if submitted == nil {
		for _, name := range names {
			form.Medicines = append(form.Medicines, medicineOption{Name: name, Strips: defaultStrips})
		}
		return form, nil
	}

	form.Name = submitted.Get("name")
	form.Mobile = submitted.Get("mobile")
	form.LastPurchase = submitted.Get("last_purchase")

	checked := make(map[string]bool)
	for _, name := range submitted["medicine"] {
		checked[name] = true
	}
	option := func(name string) medicineOption {
		strips, ok := submitted["strips_"+name]
		opt := medicineOption{Name: name, Checked: checked[name], Strips: defaultStrips}
		if ok && len(strips) > 0 {
			opt.Strips = strips[0]
		}
		return opt
	}
	listed := make(map[string]bool, len(names))
	for _, name := range names {
		listed[name] = true
		form.Medicines = append(form.Medicines, option(name))
	}
	for _, name := range submitted["medicine"] {
		if !listed[name] && strings.TrimSpace(name) != "" {
			listed[name] = true
			form.Medicines = append(form.Medicines, option(name))
		}
	}
	return form, nil
}

// submissionFromForm reads the add-patient form. A blank strips field means
// no quantity was entered; anything that is not a number counts as 0.
func submissionFromForm(form url.Values) (registration.Submission, error) {
	sub := registration.Submission{
		Name:       form.Get("name"),
		Mobile:     form.Get("mobile"),
		Selected:   form["medicine"],
		Quantities: make(map[string]int),
	}
	for _, med := range sub.Selected {
		raw := strings.TrimSpace(form.Get("strips_" + med))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = 0
		}
		sub.Quantities[med] = n
	}
	if raw := strings.TrimSpace(form.Get("last_purchase")); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return sub, errPurchaseDate
		}
		sub.LastPurchase = d
	}
	return sub, nil
}

type searchView struct {
	Query    string
	Searched bool
	Table    report.Table
}

func (h *Handler) searchPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	view := searchView{Query: query, Searched: strings.TrimSpace(query) != ""}
	if view.Searched {
		records, err := h.store.SearchByName(r.Context(), query)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		view.Table = report.SearchResults(records)
	}
	h.render(w, http.StatusOK, "search", page{Title: "Search Patient", Nav: "search", Data: view})
}
