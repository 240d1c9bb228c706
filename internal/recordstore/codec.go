package recordstore

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// encode validates v and serializes it to a JSON document.
func encode[T any](v T) (string, error) {
	if err := validateRecord(v); err != nil {
		return "", errors.Mark(errors.Wrap(err, "encode record"), ErrInvalidRecord)
	}
	doc, err := json.MarshalToString(v)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "encode record"), ErrInvalidRecord)
	}
	return doc, nil
}

// decode parses a JSON document and validates the result, so a document
// that was corrupted on disk never reaches the caller.
func decode[T any](doc string) (T, error) {
	var v T
	if err := json.UnmarshalFromString(doc, &v); err != nil {
		return v, errors.Mark(errors.Wrap(err, "decode record"), ErrInvalidRecord)
	}
	if err := validateRecord(v); err != nil {
		return v, errors.Mark(errors.Wrap(err, "decode record"), ErrInvalidRecord)
	}
	return v, nil
}

// validateRecord applies struct tag validation. Non-struct record types have
// no tags to check.
func validateRecord(v any) error {
	err := validate.Struct(v)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return err
}
