package tools

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

var setupValidator sync.Once

// useJSONNames makes field errors report json names.
func useJSONNames() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bind decodes raw into out and validates its binding tags. Any failure is a
// validation error.
func bind(raw []byte, out any) error {
	useJSONNames()
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := binding.JSON.BindBody(raw, out); err != nil {
		return fault.New(fault.KindValidation, describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid parameters: " + err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldPath(fe)+" "+fieldMessage(fe))
	}
	return "invalid parameters: " + strings.Join(msgs, "; ")
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a UUID"
	case "numeric":
		return "must be numeric"
	case "len":
		return sizeMessage(fe, "exactly")
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return sizeMessage(fe, "at least")
	case "max":
		return sizeMessage(fe, "at most")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}

// sizeMessage words a len/min/max bound for the field's kind.
func sizeMessage(fe validator.FieldError, bound string) string {
	switch fe.Kind() {
	case reflect.String:
		return "must be " + bound + " " + fe.Param() + " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "must have " + bound + " " + fe.Param() + " entries"
	default:
		return "must be " + bound + " " + fe.Param()
	}
}
