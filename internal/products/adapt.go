package products

import (
	"strings"
	"time"
	"unicode"

	"github.com/arcay3dlabs/storefront/internal/ventify"
	"github.com/arcay3dlabs/storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultSize   = 10.0
	defaultWeight = 100.0
)

var materialByCategory = map[enums.ProductCategory]enums.Material{
	enums.ProductCategoryDecoracion:    enums.MaterialPLA,
	enums.ProductCategoryUtilidades:    enums.MaterialTPU,
	enums.ProductCategoryJuguetes:      enums.MaterialResina,
	enums.ProductCategoryMecanico:      enums.MaterialABS,
	enums.ProductCategoryArte:          enums.MaterialResina,
	enums.ProductCategoryOrganizadores: enums.MaterialPETG,
}

// attribute name fragments, compared after folding case and accents
var (
	widthKeys  = []string{"ancho", "width"}
	heightKeys = []string{"altura", "alto", "height"}
	depthKeys  = []string{"profundidad", "fondo", "depth"}
	weightKeys = []string{"peso", "weight"}
)

// Adapt converts a remote record into a Product. It never fails: gaps in the
// remote schema are filled with fixed defaults.
//
// Material, dimensions and weight are best-effort guesses. Material comes from
// the category, sizes come from free-form attributes, and Estimated marks any
// value that fell back to a default.
func Adapt(remote ventify.RemoteProduct) Product {
	category := NormalizeCategory(remote.Category)

	price := decimal.NewFromFloat(remote.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}
	stock := remote.Stock
	if stock < 0 {
		stock = 0
	}

	dims, weight, estimated := parseMeasurements(remote.Attributes)

	return Product{
		ID:          strings.TrimSpace(remote.ID),
		Name:        strings.TrimSpace(remote.Name),
		Description: remote.Description,
		SKU:         remote.SKU,
		Price:       price,
		Category:    category,
		Material:    MaterialFor(category),
		Dimensions:  dims,
		Weight:      weight,
		Images:      pickImages(remote.GalleryImages, remote.ImageURL),
		Stock:       stock,
		Featured:    remote.IsFeatured || remote.InStock,
		Estimated:   estimated,
		CreatedAt:   parseTime(remote.CreatedAt),
		UpdatedAt:   parseTime(remote.UpdatedAt),
	}
}

// MaterialFor returns the material printed for a category, PLA when unmapped.
func MaterialFor(category enums.ProductCategory) enums.Material {
	if m, ok := materialByCategory[category]; ok {
		return m
	}
	return enums.MaterialPLA
}

// NormalizeCategory maps free text onto the category enumeration, ignoring
// case and accents. Unknown values become Otro.
func NormalizeCategory(raw string) enums.ProductCategory {
	key := foldKey(raw)
	if key == "" {
		return enums.ProductCategoryOtro
	}
	for _, candidate := range enums.ProductCategories() {
		if foldKey(candidate.String()) == key {
			return candidate
		}
	}
	return enums.ProductCategoryOtro
}

func pickImages(gallery []string, primary string) []string {
	images := make([]string, 0, len(gallery))
	for _, img := range gallery {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			images = append(images, trimmed)
		}
	}
	if len(images) > 0 {
		return images
	}
	if trimmed := strings.TrimSpace(primary); trimmed != "" {
		return []string{trimmed}
	}
	return []string{PlaceholderImage}
}

func parseMeasurements(attrs []ventify.Attribute) (Dimensions, float64, bool) {
	var width, height, depth, weight *float64
	for _, attr := range attrs {
		name := foldKey(attr.Name)
		value, ok := attr.Value.Float()
		if !ok || value <= 0 {
			continue
		}
		v := value
		switch {
		case weight == nil && containsAny(name, weightKeys):
			weight = &v
		case width == nil && containsAny(name, widthKeys):
			width = &v
		case height == nil && containsAny(name, heightKeys):
			height = &v
		case depth == nil && containsAny(name, depthKeys):
			depth = &v
		}
	}

	estimated := false
	pick := func(v *float64, fallback float64) float64 {
		if v == nil {
			estimated = true
			return fallback
		}
		return *v
	}

	dims := Dimensions{
		Width:  pick(width, defaultSize),
		Height: pick(height, defaultSize),
		Depth:  pick(depth, defaultSize),
	}
	return dims, pick(weight, defaultWeight), estimated
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func foldKey(s string) string {
	// chained transformers keep state, so each call builds its own
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return time.Time{}
}
