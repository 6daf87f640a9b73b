package quotes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arcay3dlabs/storefront/internal/ventify"
	"github.com/arcay3dlabs/storefront/pkg/enums"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
	"github.com/arcay3dlabs/storefront/pkg/storage/gcs"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultMaxAttachmentBytes matches the 5MB limit shown on the quote form.
	DefaultMaxAttachmentBytes int64 = 5_000_000
	objectPrefix                    = "quotes/"
)

var allowedExtensions = map[string]string{
	".stl": "model/stl",
	".obj": "model/obj",
}

// Input is a custom printing quote request.
type Input struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Description string `json:"description" validate:"required,min=10,max=500"`
	Material    string `json:"material" validate:"omitempty,material"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1"`
	Finish      string `json:"finish" validate:"omitempty,max=120"`
}

// Attachment is an optional 3D model file sent with the quote.
type Attachment struct {
	Name string
	Size int64
	Body io.Reader
}

type quoteCreator interface {
	CreateQuote(ctx context.Context, req ventify.QuoteRequest) (*ventify.QuoteResult, error)
}

type Service struct {
	quotes   quoteCreator
	uploader gcs.Uploader
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the quote service. uploader may be nil, in which case
// quotes with attachments are refused.
func NewService(quotes quoteCreator, uploader gcs.Uploader, maxBytes int64, logg *logger.Logger) (*Service, error) {
	if quotes == nil {
		return nil, fmt.Errorf("quote creator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	return &Service{quotes: quotes, uploader: uploader, maxBytes: maxBytes, logg: logg, now: time.Now}, nil
}

// Submit validates the quote, stores the attachment if any and forwards the
// quote to the platform.
func (s *Service) Submit(ctx context.Context, in Input, file *Attachment) (*ventify.QuoteResult, error) {
	in = normalize(in)
	if err := validate.Struct(in); err != nil {
		return nil, formatValidationErrors(err)
	}

	req := ventify.QuoteRequest{
		CustomerName: in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Material:     in.Material,
		Quantity:     in.Quantity,
		Finish:       in.Finish,
		Description:  in.Description,
	}

	if file != nil {
		name, fileURL, err := s.store(ctx, file)
		if err != nil {
			return nil, err
		}
		req.FileName = name
		req.FileURL = fileURL
	}

	result, err := s.quotes.CreateQuote(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "quote_id", result.ID), "quote.created")
	return result, nil
}

func (s *Service) store(ctx context.Context, file *Attachment) (string, string, error) {
	name := SanitizeFileName(file.Name)
	ext := strings.ToLower(path.Ext(name))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"file": "Solo se admiten formatos .stl y .obj."})
	}
	if file.Size > s.maxBytes {
		return "", "", tooLarge()
	}
	if s.uploader == nil {
		return "", "", pkgerrors.New(pkgerrors.CodeDependency, "attachment storage is not configured")
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read attachment")
	}
	if int64(len(data)) > s.maxBytes {
		return "", "", tooLarge()
	}

	object := objectPrefix + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + name
	fileURL, err := s.uploader.Upload(ctx, object, contentType, bytes.NewReader(data))
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "object", object), "quote.upload_failed", err)
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store attachment")
	}
	return name, fileURL, nil
}

func tooLarge() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"file": "El tamaño máximo del archivo es 5MB."})
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName drops any directory part and replaces characters outside
// [A-Za-z0-9._-] with underscores.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "attachment"
	}
	return name
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Description = strings.TrimSpace(in.Description)
	in.Material = strings.TrimSpace(in.Material)
	in.Finish = strings.TrimSpace(in.Finish)
	return in
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("material", func(fl validator.FieldLevel) bool {
		_, err := enums.ParseMaterial(fl.Field().String())
		return err == nil
	})
	return v
}

var messages = map[string]map[string]string{
	"name": {
		"required": "El nombre debe tener al menos 2 caracteres.",
		"min":      "El nombre debe tener al menos 2 caracteres.",
	},
	"email": {
		"required": "Por favor, introduce un email válido.",
		"email":    "Por favor, introduce un email válido.",
	},
	"description": {
		"required": "La descripción debe tener al menos 10 caracteres.",
		"min":      "La descripción debe tener al menos 10 caracteres.",
		"max":      "La descripción no puede exceder los 500 caracteres.",
	},
}

func formatValidationErrors(err error) *pkgerrors.Error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fe := range errs {
		msg := "Campo inválido"
		if byTag, ok := messages[fe.Field()]; ok {
			if m, ok := byTag[fe.Tag()]; ok {
				msg = m
			}
		}
		details[fe.Field()] = msg
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}
