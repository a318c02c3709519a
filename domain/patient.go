package domain

type Patient struct {
	ID               int64  `db:"id" json:"id"`
	Name             string `db:"name" json:"name"`
	Mobile           string `db:"mobile" json:"mobile"`
	LastPurchaseDate Date   `db:"last_purchase_date" json:"last_purchase_date"`
	NextReminderDate Date   `db:"next_reminder_date" json:"next_reminder_date"`
}

// PatientMedicineLine records how many strips of a medicine a patient bought.
// MedicineName is free text and is not checked against the catalog table.
type PatientMedicineLine struct {
	ID           int64  `db:"id" json:"-"`
	PatientID    int64  `db:"patient_id" json:"-"`
	MedicineName string `db:"medicine_name" json:"medicine_name"`
	Strips       int    `db:"strips" json:"strips"`
}

// PatientRecord is a patient together with its line items in insertion order.
type PatientRecord struct {
	Patient
	Lines []PatientMedicineLine `json:"medicines"`
}
