package util

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"strings"

	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// credit: https://github.com/go-playground/validator/issues/559#issuecomment-976459959

type ApiError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]func(field, param string) string{
	"required":    func(f, _ string) string { return f + " is required" },
	"email":       func(_, _ string) string { return "Invalid email" },
	"numeric":     func(f, _ string) string { return f + " must be numeric" },
	"min":         func(f, p string) string { return fmt.Sprintf("%s must be at least %s characters", f, p) },
	"max":         func(f, p string) string { return fmt.Sprintf("%s must be at most %s characters", f, p) },
	"gt":          func(f, p string) string { return fmt.Sprintf("%s must be greater than %s", f, p) },
	"gte":         func(f, p string) string { return fmt.Sprintf("%s must be greater than or equal to %s", f, p) },
	"lte":         func(f, p string) string { return fmt.Sprintf("%s must be less than or equal to %s", f, p) },
	"oneof":       func(f, p string) string { return fmt.Sprintf("%s must be one of: %s", f, p) },
	"dive":        func(f, _ string) string { return f + " contains an invalid item" },
	"cmin":        func(f, p string) string { return fmt.Sprintf("%s must be at least %s non-whitespace characters", f, p) },
	"cmax":        func(f, p string) string { return fmt.Sprintf("%s must be at most %s non-whitespace characters", f, p) },
	"strNotEmpty": func(f, _ string) string { return f + " must not be empty or contain only whitespace charaters" },
}

func msgForTag(fe validator.FieldError, customField map[string]string) string {
	field := fe.Field()
	if custom, ok := customField[field]; ok {
		field = custom
	}

	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg(field, fe.Param())
	}

	log.Printf("Unknown tag: %v with error: %v", fe.Tag(), fe.Error())
	return fe.Error()
}

/*
GenerateErrorMessages turns err into the ApiError list sent in failed responses.

Validator errors produce one entry per failing field. Known upload and generation
sentinels are attributed to their request field. Anything else is reported under
fieldName, or "Unknown" when none is given.

Optional parameters:
  - map[string]string renames validator fields, e.g. {"Name": "name"}
  - string is the field used for errors that carry none
*/
func GenerateErrorMessages(err error, optionalParams ...interface{}) []ApiError {
	var customField map[string]string
	fieldName := "Unknown"

	for _, param := range optionalParams {
		switch v := param.(type) {
		case map[string]string:
			customField = v
		case string:
			if v != "" {
				fieldName = v
			}
		}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]ApiError, len(ve))
		for i, fe := range ve {
			field := fe.Field()
			if custom, ok := customField[field]; ok {
				field = custom
			}
			out[i] = ApiError{Field: field, Message: msgForTag(fe, customField)}
		}
		return out
	}

	if field, ok := fieldForError(err); ok {
		return []ApiError{{Field: field, Message: err.Error()}}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []ApiError{{Field: "Unknown", Message: "Record not found"}}
	}

	return []ApiError{{Field: fieldName, Message: err.Error()}}
}

// fieldForError maps upload and generation sentinels to the request field they belong to.
func fieldForError(err error) (string, bool) {
	switch {
	case errors.Is(err, autocert.ErrInvalidCSVExtension),
		errors.Is(err, autocert.ErrCSVTooLarge),
		errors.Is(err, autocert.ErrEmptyCSV):
		return "csvFile", true
	case errors.Is(err, autocert.ErrTemplateTooLarge),
		errors.Is(err, autocert.ErrUnsupportedTemplate),
		errors.Is(err, autocert.ErrPDFNoRaster),
		errors.Is(err, autocert.ErrInvalidTemplateBounds):
		return "templateFile", true
	case errors.Is(err, autocert.ErrNoTemplate):
		return "template", true
	case errors.Is(err, autocert.ErrNoFieldMappings):
		return "fields", true
	}
	return "", false
}

// trimmedString returns the field value without surrounding spaces; ok is false for non-string fields.
func trimmedString(fl validator.FieldLevel) (string, bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return "", false
	}
	return strings.TrimSpace(field.String()), true
}

// Usage: `binding:"strNotEmpty"`
func StrNotEmpty(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	return ok && s != ""
}

// compareTrimmedLen checks the trimmed length of a string field against the integer tag param.
func compareTrimmedLen(fl validator.FieldLevel, cmp func(length, limit int) bool) bool {
	s, ok := trimmedString(fl)
	if !ok {
		return false
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return cmp(len(s), limit)
}

// Usage: `binding:"cmin=3"`
func CustomMin(fl validator.FieldLevel) bool {
	return compareTrimmedLen(fl, func(length, limit int) bool { return length >= limit })
}

// Usage: `binding:"cmax=3"`
func CustomMax(fl validator.FieldLevel) bool {
	return compareTrimmedLen(fl, func(length, limit int) bool { return length <= limit })
}

// RegisterValidations adds the custom binding tags to v.
func RegisterValidations(v *validator.Validate) error {
	custom := map[string]validator.Func{
		"strNotEmpty": StrNotEmpty,
		"cmin":        CustomMin,
		"cmax":        CustomMax,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
