package patient

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterValidation("patient_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	return v
}

// jsonFieldName reports fields by their wire name so messages read
// "firstName is required" rather than "FirstName".
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

var validationMessages = map[string]string{
	"required":       "is required",
	"min":            "cannot be empty",
	"patient_status": "must be one of Inquiry, Onboarding, Active, Churned",
}

// validateStruct runs the struct tags on v and wraps any failure in
// ErrInvalid with one message per field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		if fe.Tag() == "patient_status" {
			msg = fmt.Sprintf("%q %s", fmt.Sprint(fe.Value()), msg)
		}
		msgs = append(msgs, fe.Field()+" "+msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ", "))
}
