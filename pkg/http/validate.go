package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationError describes one rejected request parameter.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

var (
	validate = newValidator()

	symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._:-]{0,31}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	// report the name the client actually sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.Split(f.Tag.Get(tag), ",")[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("symbols", validateSymbolList)
	return v
}

// validateSymbolList accepts an optional comma-separated list of
// ticker symbols such as "BTCUSDT.P,ETHUSDT.P".
func validateSymbolList(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !symbolPattern.MatchString(strings.ToUpper(s)) {
			return false
		}
	}
	return true
}

// ReadAndValidateRequest binds req from the request, fills defaults and
// validates it. A nil result means req is usable; otherwise the result is
// a []ValidationError ready for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: describe(fe),
				Param:   fe.Param(),
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_BIND", Message: msg}}
}

func describe(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", f, p)
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", f, p)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", f, strings.ReplaceAll(p, " ", ", "))
	case "symbols":
		return f + " must be a comma-separated list of symbols"
	default:
		return fmt.Sprintf("%s failed %s", f, fe.Tag())
	}
}
