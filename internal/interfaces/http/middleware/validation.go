package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's binding validator report JSON (or form) field names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	}
}

// ValidationDetails converts binding errors into per-field details.
// It reports false for errors that are not validation failures.
func ValidationDetails(err error) ([]dto.ValidationDetail, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   fieldPath(fe),
			Message: validation.Message(fe),
		})
	}
	return details, true
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read "items[0].quantity" rather than "ReceivePurchaseOrderRequest.items[0].quantity"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
