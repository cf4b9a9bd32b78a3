// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ErrInvalidSchema is returned when a model response does not match the
// expected shape.
var ErrInvalidSchema = errors.New("response does not match schema")

var validate = newValidator()

// newValidator adds notblank so whitespace-only text counts as missing.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	return v
}

// Theme is a recurring thread across the cohort's ideas.
type Theme struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
}

// IdeaImpact describes why a ranked idea matters.
type IdeaImpact struct {
	Rank    int    `json:"rank" validate:"min=1"`
	Content string `json:"content" validate:"required,notblank"`
	Impact  string `json:"impact" validate:"required,notblank"`
}

// CohortResult is the workshop-wide narrative.
type CohortResult struct {
	Summary         string       `json:"summary" validate:"required,notblank"`
	Themes          []Theme      `json:"themes" validate:"required,dive"`
	IdeaImpacts     []IdeaImpact `json:"ideaImpacts" validate:"required,dive"`
	Insights        []string     `json:"insights" validate:"required,dive,notblank"`
	Recommendations []string     `json:"recommendations" validate:"required,dive,notblank"`
}

// PersonalizedResult is one participant's narrative.
type PersonalizedResult struct {
	Summary         string   `json:"summary" validate:"required,notblank"`
	Contributions   []string `json:"contributions" validate:"required,dive,notblank"`
	Alignment       string   `json:"alignment" validate:"required,notblank"`
	Insights        []string `json:"insights" validate:"required,dive,notblank"`
	Recommendations []string `json:"recommendations" validate:"required,dive,notblank"`
}

// CategoryAssignment places the note listed at position Note into Category.
type CategoryAssignment struct {
	Note     int    `json:"note" validate:"min=1"`
	Category string `json:"category" validate:"required,notblank,max=100"`
}

// Categorization is the model's answer to a categorize request.
type Categorization struct {
	Assignments []CategoryAssignment `json:"assignments" validate:"required,dive"`
}

// ParseCohort decodes and validates a cohort response.
func ParseCohort(raw string) (CohortResult, error) {
	var out CohortResult
	return out, parse(raw, &out)
}

// ParsePersonalized decodes and validates a personalized response.
func ParsePersonalized(raw string) (PersonalizedResult, error) {
	var out PersonalizedResult
	return out, parse(raw, &out)
}

// ParseCategorization decodes and validates a categorization response.
func ParseCategorization(raw string) (Categorization, error) {
	var out Categorization
	return out, parse(raw, &out)
}

// parse rejects anything that is not a JSON object with every required
// field. Unknown fields are dropped.
func parse(raw string, dst any) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return nil
}
