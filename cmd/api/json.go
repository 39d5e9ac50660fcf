package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var Validate *validator.Validate

var formDecoder = schema.NewDecoder()

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json/form name rather than the Go field name
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "schema"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	formDecoder.IgnoreUnknownKeys(true)
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// it parses body into Go struct.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 //1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(data)
}

// parseForm fills r.PostForm from an urlencoded or multipart body.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxBytes)
	}
	return r.ParseForm()
}

// readForm decodes an urlencoded or multipart body into dst with gorilla/schema.
func readForm(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if err := parseForm(w, r, maxBytes); err != nil {
		return err
	}
	return formDecoder.Decode(dst, r.PostForm)
}

// isDecodeError reports whether err came from gorilla/schema rather than
// from reading the body.
func isDecodeError(err error) bool {
	var decodeErrs schema.MultiError
	return errors.As(err, &decodeErrs)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

// writeValidationError answers 422 with one message per offending field.
func writeValidationError(w http.ResponseWriter, fields map[string]string) error {
	type envelope struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Status  int               `json:"status"`
		Errors  map[string]string `json:"errors"`
	}

	return writeJSON(w, http.StatusUnprocessableEntity, &envelope{
		Success: false,
		Message: "validation failed",
		Status:  http.StatusUnprocessableEntity,
		Errors:  fields,
	})
}

// fieldErrors flattens validator output into field -> message.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}

	var decodeErrs schema.MultiError
	if errors.As(err, &decodeErrs) {
		for field := range decodeErrs {
			out[field] = "is invalid"
		}
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "this field is required"
		case "max":
			out[fe.Field()] = "must be at most " + fe.Param() + " characters"
		case "min":
			out[fe.Field()] = "must be at least " + fe.Param()
		case "gte", "lte":
			out[fe.Field()] = "is out of range"
		case "email":
			out[fe.Field()] = "must be a valid email address"
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}
	return writeJSON(w, status, &envelope{Data: data})
}
