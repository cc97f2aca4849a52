package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/photomarathon/pipeline/internal/exif"
)

// Echo compatible validator with proper tag semantics
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// `timestamp` accepts anything exif.ParseTimestamp understands
func validateTimestamp(fl validator.FieldLevel) bool {
	_, err := exif.ParseTimestamp(fl.Field().String())
	return err == nil
}

func Create() CustomValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"param", "json", "mapstructure"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	// only fails on a malformed tag name
	_ = validate.RegisterValidation("timestamp", validateTimestamp)

	return CustomValidator{validator: validate}
}
