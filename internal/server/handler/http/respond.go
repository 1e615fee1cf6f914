package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var tagColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return tagColorRe.MatchString(fl.Field().String())
	})
	return v
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationError struct {
	msg    string
	fields []FieldError
}

func (e *validationError) Error() string { return e.msg }

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "tagcolor":
		return "Color must be a valid hex color"
	}
	return "is invalid (" + fe.Tag() + ")"
}

func fieldPath(fe validator.FieldError) string {
	// Namespace is "<struct>.<field>..."; drop the struct name.
	_, rest, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return rest
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "Invalid JSON body", err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return &apperr.Error{
		Kind: apperr.Validation,
		Msg:  "Validation failed",
		Err:  &validationError{msg: verrs.Error(), fields: fields},
	}
}

// pathID validates a UUID path parameter.
func pathID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &apperr.Error{
			Kind: apperr.Validation,
			Msg:  "Invalid params.",
			Err:  &validationError{msg: err.Error(), fields: []FieldError{{Field: "id", Message: "must be a valid UUID"}}},
		}
	}
	return id.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorWriter turns classified errors into JSON responses.
type ErrorWriter struct {
	// Dev adds error details to responses.
	Dev bool
	Log *zap.Logger
}

func statusOf(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest, "Validation failed"
	case apperr.InvalidCredentials:
		return http.StatusUnauthorized, "Invalid email or password"
	case apperr.Unauthenticated, apperr.TokenExpired, apperr.TokenInvalid:
		return http.StatusUnauthorized, "Unauthorized"
	case apperr.NotFound:
		return http.StatusNotFound, "Not found"
	case apperr.Conflict:
		return http.StatusConflict, "Conflict"
	case apperr.StorageUnavailable:
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case apperr.Internal:
		return http.StatusInternalServerError, "Internal server error"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func (e *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status, def := statusOf(kind)
	msg := def
	switch kind {
	case apperr.Unauthenticated, apperr.TokenExpired, apperr.TokenInvalid, apperr.Internal:
	default:
		msg = apperr.Message(err, def)
	}

	body := map[string]any{"error": msg}

	var verr *validationError
	if errors.As(err, &verr) {
		body["details"] = verr.fields
	} else if e != nil && e.Dev {
		body["details"] = err.Error()
	}

	if e != nil && e.Log != nil && status >= 500 {
		e.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}
