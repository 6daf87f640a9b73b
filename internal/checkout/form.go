package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/arcay3dlabs/storefront/pkg/enums"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/types"
	"github.com/go-playground/validator/v10"
)

// Form is the checkout form as submitted by the shopper.
type Form struct {
	FullName      string              `json:"fullName" validate:"required"`
	Email         string              `json:"email" validate:"required,loose_email"`
	Phone         string              `json:"phone" validate:"required"`
	Address       string              `json:"address" validate:"required"`
	City          string              `json:"city" validate:"required"`
	State         string              `json:"state" validate:"required"`
	ZipCode       string              `json:"zipCode" validate:"required"`
	Country       string              `json:"country"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"payment_method"`
	Notes         string              `json:"notes"`
}

// ShippingAddress returns the address part of the form.
func (f Form) ShippingAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Street:  f.Address,
		City:    f.City,
		State:   f.State,
		ZipCode: f.ZipCode,
		Country: f.Country,
	}.Normalize()
}

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

var fieldMessages = map[string]map[string]string{
	"fullName":      {"required": "El nombre es requerido"},
	"email":         {"required": "El email es requerido", "loose_email": "Email inválido"},
	"phone":         {"required": "El teléfono es requerido"},
	"address":       {"required": "La dirección es requerida"},
	"city":          {"required": "La ciudad es requerida"},
	"state":         {"required": "El estado es requerido"},
	"zipCode":       {"required": "El código postal es requerido"},
	"paymentMethod": {"payment_method": "Método de pago inválido"},
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return enums.PaymentMethod(fl.Field().String()).IsValid()
	})
	return v
}

// ValidateForm trims the form, fills defaults and checks it. The error is a
// VALIDATION_ERROR whose details map each invalid field to a message.
func ValidateForm(form Form) (Form, error) {
	form = normalizeForm(form)
	if err := formValidator.Struct(form); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return form, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		details := map[string]string{}
		for _, fe := range errs {
			if _, seen := details[fe.Field()]; seen {
				continue
			}
			details[fe.Field()] = messageFor(fe)
		}
		return form, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return form, nil
}

func normalizeForm(form Form) Form {
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Address = strings.TrimSpace(form.Address)
	form.City = strings.TrimSpace(form.City)
	form.State = strings.TrimSpace(form.State)
	form.ZipCode = strings.TrimSpace(form.ZipCode)
	form.Country = strings.TrimSpace(form.Country)
	if form.Country == "" {
		form.Country = types.DefaultCountry
	}
	form.PaymentMethod = enums.NormalizePaymentMethod(string(form.PaymentMethod))
	form.Notes = strings.TrimSpace(form.Notes)
	return form
}

func messageFor(fe validator.FieldError) string {
	if byTag, ok := fieldMessages[fe.Field()]; ok {
		if msg, ok := byTag[fe.Tag()]; ok {
			return msg
		}
	}
	return "Campo inválido"
}
