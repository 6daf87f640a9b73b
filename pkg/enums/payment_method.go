package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is how the shopper intends to pay for a checkout.
type PaymentMethod string

const (
	PaymentMethodTransferencia PaymentMethod = "transferencia"
	PaymentMethodContraEntrega PaymentMethod = "contraentrega"
	PaymentMethodOtro          PaymentMethod = "otro"
)

// DefaultPaymentMethod applies when the checkout form leaves the field blank.
const DefaultPaymentMethod = PaymentMethodTransferencia

// Anything that is not a bank transfer is settled on delivery.
var paymentLabels = map[PaymentMethod]string{
	PaymentMethodTransferencia: "Transferencia Bancaria",
	PaymentMethodContraEntrega: "Pago Contra Entrega",
	PaymentMethodOtro:          "Pago Contra Entrega",
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	_, ok := paymentLabels[p]
	return ok
}

func (p PaymentMethod) IsBankTransfer() bool {
	return p == PaymentMethodTransferencia
}

// Label is the text shown to the shopper and the business.
func (p PaymentMethod) Label() string {
	if label, ok := paymentLabels[p]; ok {
		return label
	}
	return paymentLabels[PaymentMethodContraEntrega]
}

// NormalizePaymentMethod lowercases and trims raw input, filling the default
// when it is blank. The result may still be invalid.
func NormalizePaymentMethod(raw string) PaymentMethod {
	pm := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	if pm == "" {
		return DefaultPaymentMethod
	}
	return pm
}

// ParsePaymentMethod normalizes raw input and rejects unknown methods.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	pm := NormalizePaymentMethod(raw)
	if !pm.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", raw)
	}
	return pm, nil
}
