// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/envision/ranking"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAndValidate parses the JSON body into v and checks its validate
// tags. Tag failures come back as a *ranking.ValidationError.
func DecodeAndValidate(r *http.Request, v any) error {
	if err := ParseJSONBody(r, v); err != nil {
		return err
	}
	return ValidateStruct("request", v)
}

// ValidateStruct checks v's validate tags.
func ValidateStruct(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := ranking.NewValidationError(entity)
	for _, fe := range fieldErrs {
		ve.AddError("%s", fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
