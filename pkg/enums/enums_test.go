package enums

import "testing"

func TestParseProductCategory(t *testing.T) {
	got, err := ParseProductCategory("Mecánico")
	if err != nil || got != ProductCategoryMecanico {
		t.Fatalf("expected Mecánico, got %q err=%v", got, err)
	}
	if _, err := ParseProductCategory("mecanico"); err == nil {
		t.Fatal("expected exact match only")
	}
	if len(ProductCategories()) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(ProductCategories()))
	}
}

func TestParseMaterial(t *testing.T) {
	if m, err := ParseMaterial("PETG"); err != nil || m != MaterialPETG {
		t.Fatalf("expected PETG, got %q err=%v", m, err)
	}
	if Material("Nylon").IsValid() {
		t.Fatal("Nylon should not be a known material")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if pm, err := ParsePaymentMethod("contraentrega"); err != nil || pm != PaymentMethodContraEntrega {
		t.Fatalf("expected contraentrega, got %q err=%v", pm, err)
	}
	if pm, err := ParsePaymentMethod("  Transferencia "); err != nil || pm != PaymentMethodTransferencia {
		t.Fatalf("expected normalized transferencia, got %q err=%v", pm, err)
	}
	if pm, err := ParsePaymentMethod(""); err != nil || pm != DefaultPaymentMethod {
		t.Fatalf("expected default for blank input, got %q err=%v", pm, err)
	}
	if _, err := ParsePaymentMethod("card"); err == nil {
		t.Fatal("expected card to be rejected")
	}
}

func TestPaymentMethodLabel(t *testing.T) {
	if got := PaymentMethodTransferencia.Label(); got != "Transferencia Bancaria" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := PaymentMethodOtro.Label(); got != "Pago Contra Entrega" {
		t.Fatalf("otro should render as cash on delivery, got %q", got)
	}
	if PaymentMethodOtro.IsBankTransfer() {
		t.Fatal("otro is not a bank transfer")
	}
}
