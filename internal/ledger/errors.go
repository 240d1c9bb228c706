package ledger

import "github.com/cockroachdb/errors"

var (
	// ErrDuplicateBillNumber is returned when a bill number is already taken.
	ErrDuplicateBillNumber = errors.New("duplicate bill number")

	// ErrInvalidBill is returned for drafts or imports that fail validation.
	ErrInvalidBill = errors.New("invalid bill")

	// ErrInvalidFilter is returned for malformed filter fields.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrUnknownCustomer is returned when a customer key is not registered.
	ErrUnknownCustomer = errors.New("unknown customer")
)

// invalid marks a formatted message as ErrInvalidBill.
func invalid(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidBill)
}
