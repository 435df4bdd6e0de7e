package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/interfaces/http/dto"
)

var setupValidatorOnce sync.Once

// ledgerTags are the binding tags the ledger adds to gin's validator
var ledgerTags = map[string]validator.Func{
	"due_op": func(fl validator.FieldLevel) bool {
		return ledger.DueOp(fl.Field().String()).IsValid()
	},
	"invoice_status": func(fl validator.FieldLevel) bool {
		return ledger.InvoiceStatus(fl.Field().String()).IsValid()
	},
}

// fixedMessages covers tags whose message does not depend on the field kind
var fixedMessages = map[string]string{
	"required":       "This field is required",
	"email":          "Invalid email format",
	"uuid":           "Invalid UUID format",
	"due_op":         "Must be one of: gt lt eq",
	"invoice_status": "Must be one of: due overdue paid",
}

// SetupValidator names fields after their json or form tag in validation
// details and registers the ledger tags. Later calls are no-ops.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		for tag, fn := range ledgerTags {
			_ = v.RegisterValidation(tag, fn)
		}
	})
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return ""
}

// FormatValidationErrors builds the 400 body for a failed bind. Validator
// errors become per-field details; anything else (malformed JSON, a
// non-numeric page) is reported as invalid input with its message.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidInput, "Invalid request: "+err.Error(), requestID)
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe), Tag: fe.Tag()})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return "Must be " + bound + " " + fe.Param() + " characters"
		case reflect.Slice:
			return "Must contain " + bound + " " + fe.Param() + " item(s)"
		}
		return "Must be " + bound + " " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value"
}
