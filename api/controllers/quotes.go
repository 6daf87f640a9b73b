package controllers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/arcay3dlabs/storefront/api/responses"
	"github.com/arcay3dlabs/storefront/api/validators"
	"github.com/arcay3dlabs/storefront/internal/quotes"
	"github.com/arcay3dlabs/storefront/internal/ventify"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
	maxFieldLen       = 1000
)

type QuoteSubmitter interface {
	Submit(ctx context.Context, in quotes.Input, file *quotes.Attachment) (*ventify.QuoteResult, error)
}

// QuoteCreate accepts a quote as JSON or as multipart/form-data with an
// optional "file" part.
func QuoteCreate(svc QuoteSubmitter, maxAttachmentBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		var (
			in   quotes.Input
			file *quotes.Attachment
			err  error
		)
		if mediaType == "multipart/form-data" {
			r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes+multipartOverhead)
			in, file, err = parseQuoteMultipart(r)
			if r.MultipartForm != nil {
				defer func() { _ = r.MultipartForm.RemoveAll() }()
			}
		} else {
			err = validators.DecodeJSON(r, &in)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if file != nil {
			if closer, ok := file.Body.(interface{ Close() error }); ok {
				defer func() { _ = closer.Close() }()
			}
		}

		result, err := svc.Submit(r.Context(), in, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func parseQuoteMultipart(r *http.Request) (quotes.Input, *quotes.Attachment, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return quotes.Input{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
				WithDetails(map[string]string{"file": "El tamaño máximo del archivo es 5MB."})
		}
		return quotes.Input{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	field := func(name string) string {
		return validators.SanitizeString(r.FormValue(name), maxFieldLen)
	}
	in := quotes.Input{
		Name:        field("name"),
		Email:       field("email"),
		Phone:       field("phone"),
		Description: field("description"),
		Material:    field("material"),
		Finish:      field("finish"),
	}
	if raw := field("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return quotes.Input{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"quantity": "La cantidad debe ser un número."})
		}
		in.Quantity = qty
	}

	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return quotes.Input{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attachment")
	}
	if strings.TrimSpace(header.Filename) == "" {
		_ = f.Close()
		return in, nil, nil
	}
	return in, &quotes.Attachment{Name: header.Filename, Size: header.Size, Body: f}, nil
}
