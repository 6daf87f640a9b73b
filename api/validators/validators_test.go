package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
)

type addItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2}`))
	var dest addItem
	err := DecodeJSONBody(req, &dest)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok || details["productId"] != "is required" {
		t.Fatalf("expected json field name in details, got %#v", pkgerrors.As(err).Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"p1","price":1}`))
	var dest addItem
	if err := DecodeJSONBody(req, &dest); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected unknown field to be rejected, got %v", err)
	}
}

func TestDecodeJSONIsLenient(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"p1","price":1}`))
	var dest addItem
	if err := DecodeJSON(req, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.ProductID != "p1" {
		t.Fatalf("unexpected decode %+v", dest)
	}
}

func TestDecodeRequiresBody(t *testing.T) {
	for _, body := range []string{"", "   "} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest addItem
		err := DecodeJSON(req, &dest)
		if err == nil || pkgerrors.As(err).Message() != "request body is required" {
			t.Fatalf("body %q: expected missing body error, got %v", body, err)
		}
	}
}

func TestParseOptionalPositiveInt(t *testing.T) {
	cases := []struct {
		query   string
		want    int
		present bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"limit=4", 4, true, false},
		{"limit=0", 0, false, true},
		{"limit=abc", 0, false, true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		got, err := ParseOptionalPositiveInt(req, "limit")
		if (err != nil) != tc.wantErr {
			t.Fatalf("%q: unexpected error %v", tc.query, err)
		}
		if (got != nil) != tc.present || (got != nil && *got != tc.want) {
			t.Fatalf("%q: unexpected value %v", tc.query, got)
		}
	}
}

func TestParseOptionalBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?featured=true", nil)
	got, err := ParseOptionalBool(req, "featured")
	if err != nil || got == nil || !*got {
		t.Fatalf("expected true, got %v %v", got, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?featured=maybe", nil)
	if _, err := ParseOptionalBool(req, "featured"); err == nil {
		t.Fatal("expected invalid bool to fail")
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"  Ana  ", 0, "Ana"},
		{"línea\x00 uno\nlínea dos", 0, "línea uno\nlínea dos"},
		{"acción", 4, "acci"},
		{"ñandú", 10, "ñandú"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in, tc.maxLen); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}
