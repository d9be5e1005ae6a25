package httpserver

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/freshcart/internal/service"
)

var (
	mobileRe  = regexp.MustCompile(`^[0-9]{10}$`)
	pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)
)

func validMobile(fl validator.FieldLevel) bool {
	return mobileRe.MatchString(fl.Field().String())
}

func validPincode(fl validator.FieldLevel) bool {
	return pincodeRe.MatchString(fl.Field().String())
}

// Validator adapts go-playground/validator to echo. Failures come back as *service.ValidationError
// keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("mobile", validMobile)
	_ = v.RegisterValidation("pincode", validPincode)
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &service.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		name := fieldName(fe)
		if _, seen := out.Fields[name]; !seen {
			out.Fields[name] = fieldMessage(fe)
		}
	}
	return out
}

// fieldName drops the struct name from the namespace: "RegisterRequest.mobile" becomes "mobile".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return f + " is required"
	case "mobile":
		return f + " must be 10 digits"
	case "pincode":
		return f + " must be 6 digits"
	case "email":
		return f + " must be a valid email address"
	case "uuid":
		return f + " must be a valid token"
	case "numeric":
		return f + " must contain digits only"
	case "len":
		return fmt.Sprintf("%s must be %s characters long", f, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	}
	return f + " is invalid"
}
