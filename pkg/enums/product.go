package enums

import "fmt"

// ProductCategory represents the storefront catalog categories.
type ProductCategory string

const (
	ProductCategoryDecoracion    ProductCategory = "Decoración"
	ProductCategoryUtilidades    ProductCategory = "Utilidades"
	ProductCategoryJuguetes      ProductCategory = "Juguetes"
	ProductCategoryMecanico      ProductCategory = "Mecánico"
	ProductCategoryArte          ProductCategory = "Arte"
	ProductCategoryOrganizadores ProductCategory = "Organizadores"
	ProductCategoryOtro          ProductCategory = "Otro"
)

var validProductCategories = []ProductCategory{
	ProductCategoryDecoracion,
	ProductCategoryUtilidades,
	ProductCategoryJuguetes,
	ProductCategoryMecanico,
	ProductCategoryArte,
	ProductCategoryOrganizadores,
	ProductCategoryOtro,
}

// ProductCategories returns the catalog categories in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// Material is the printing material a product is made of.
type Material string

const (
	MaterialPLA    Material = "PLA"
	MaterialABS    Material = "ABS"
	MaterialPETG   Material = "PETG"
	MaterialResina Material = "Resina"
	MaterialTPU    Material = "TPU"
	MaterialOtro   Material = "Otro"
)

var validMaterials = []Material{
	MaterialPLA,
	MaterialABS,
	MaterialPETG,
	MaterialResina,
	MaterialTPU,
	MaterialOtro,
}

// String implements fmt.Stringer.
func (m Material) String() string {
	return string(m)
}

// IsValid reports whether the value is a known Material.
func (m Material) IsValid() bool {
	for _, candidate := range validMaterials {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMaterial converts raw input into a Material.
func ParseMaterial(value string) (Material, error) {
	for _, candidate := range validMaterials {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material %q", value)
}
