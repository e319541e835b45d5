package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	StatusCode int          `json:"statusCode"`
	Data       any          `json:"data,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

const (
	msgInternal      = "Internal server error"
	msgValidation    = "Validation failed"
	msgEmailTaken    = "Email is already registered."
	msgBadActivation = "Invalid token or email ID."
	msgUnauthorized  = "Unauthorized"
	msgNotFound      = "Resource not found."
	msgTooMany       = "Too many requests, please try again later."
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, StatusCode: status, Data: data})
}

func abort(c *gin.Context, status int, message string, fields []FieldError) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, StatusCode: status, Errors: fields})
}

// statusFor maps service errors onto HTTP statuses and client-safe messages.
// unauthorized overrides the generic 401 message.
func statusFor(err error, unauthorized string) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
		return http.StatusBadRequest, msg
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, msgEmailTaken
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, msgBadActivation
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		if unauthorized == "" {
			unauthorized = msgUnauthorized
		}
		return http.StatusUnauthorized, unauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrorTooManyRequests):
		return http.StatusTooManyRequests, msgTooMany
	}
	return http.StatusInternalServerError, msgInternal
}

func fail(c *gin.Context, err error, unauthorized string) {
	status, msg := statusFor(err, unauthorized)
	abort(c, status, msg, nil)
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json tag.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindingErrors converts a bind failure into field errors.
func bindingErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Path: "body", Message: "Malformed JSON body"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Path: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "len":
		return fe.Field() + " must be exactly " + fe.Param() + " characters"
	case "numeric":
		return fe.Field() + " must contain only digits"
	}
	return fe.Field() + " is invalid"
}
