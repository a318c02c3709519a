package registration

import (
	"errors"
	"strings"
)

// ErrValidation matches every error the user can fix by editing the form.
var ErrValidation = errors.New("invalid registration")

var (
	ErrMissingIdentity      error = &validationError{"please enter patient name and mobile number"}
	ErrNoMedicineSelected   error = &validationError{"please select at least one medicine"}
	ErrIncompleteQuantities error = &validationError{"please enter quantities for all selected medicines"}
	ErrInvalidStrips        error = &validationError{"number of strips must be at least 1"}
	ErrUnknownMedicine      error = &validationError{"medicine is not in the catalog"}
)

// validationError carries the message shown on the form as is.
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func (e *validationError) Is(target error) bool {
	return target == ErrValidation
}

// MedicineError names the medicines a validation error refers to.
type MedicineError struct {
	Err       error
	Medicines []string
}

func (e *MedicineError) Error() string {
	return e.Err.Error() + " (" + strings.Join(e.Medicines, ", ") + ")"
}

func (e *MedicineError) Unwrap() error {
	return e.Err
}

// PersistenceError reports that the registration transaction failed and was
// rolled back. The underlying driver error is kept verbatim.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "error occurred: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
