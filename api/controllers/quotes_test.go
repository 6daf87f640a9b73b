package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arcay3dlabs/storefront/internal/quotes"
	"github.com/arcay3dlabs/storefront/internal/ventify"
)

type stubQuoteSubmitter struct {
	in       quotes.Input
	fileName string
	fileBody string
}

func (s *stubQuoteSubmitter) Submit(_ context.Context, in quotes.Input, file *quotes.Attachment) (*ventify.QuoteResult, error) {
	s.in = in
	if file != nil {
		s.fileName = file.Name
		b, _ := io.ReadAll(file.Body)
		s.fileBody = string(b)
	}
	return &ventify.QuoteResult{ID: "q1", Status: "pending"}, nil
}

func TestQuoteCreateJSON(t *testing.T) {
	svc := &stubQuoteSubmitter{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(`{"name":"Ana","email":"ana@example.com","description":"Pieza de repuesto","quantity":3}`))
	req.Header.Set("Content-Type", "application/json")
	QuoteCreate(svc, quotes.DefaultMaxAttachmentBytes, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.in.Name != "Ana" || svc.in.Quantity != 3 {
		t.Fatalf("unexpected input %+v", svc.in)
	}
}

func TestQuoteCreateMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", " Ana ")
	_ = mw.WriteField("email", "ana@example.com")
	_ = mw.WriteField("description", "Pieza de repuesto")
	_ = mw.WriteField("quantity", "2")
	part, _ := mw.CreateFormFile("file", "gear.stl")
	_, _ = part.Write([]byte("solid gear"))
	_ = mw.Close()

	svc := &stubQuoteSubmitter{}
	req := httptest.NewRequest(http.MethodPost, "/api/quotes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	QuoteCreate(svc, quotes.DefaultMaxAttachmentBytes, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.in.Name != "Ana" || svc.in.Quantity != 2 {
		t.Fatalf("unexpected input %+v", svc.in)
	}
	if svc.fileName != "gear.stl" || svc.fileBody != "solid gear" {
		t.Fatalf("unexpected attachment %q %q", svc.fileName, svc.fileBody)
	}
}

func TestQuoteCreateMultipartBadQuantity(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("quantity", "dos")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	QuoteCreate(&stubQuoteSubmitter{}, quotes.DefaultMaxAttachmentBytes, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
