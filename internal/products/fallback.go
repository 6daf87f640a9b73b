package products

import (
	"github.com/arcay3dlabs/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

type fallbackSeed struct {
	id, name, description string
	price                 string
	category              enums.ProductCategory
	material              enums.Material
	dims                  *Dimensions
	weight                float64
	image                 string
	stock                 int
	featured              bool
}

var fallbackSeeds = []fallbackSeed{
	{"1", "Jarrón Geométrico", "Hermoso jarrón con diseño geométrico moderno, perfecto para decoración", "29.99", enums.ProductCategoryDecoracion, enums.MaterialPLA, &Dimensions{Width: 10, Height: 15, Depth: 10}, 200, "https://images.unsplash.com/photo-1578500494198-246f612d3b3d?w=400", 10, true},
	{"2", "Figurilla de Dragón", "Impresionante figura de dragón con detalles increíbles", "45.00", enums.ProductCategoryArte, enums.MaterialResina, &Dimensions{Width: 12, Height: 18, Depth: 8}, 300, "https://images.unsplash.com/photo-1601524909162-ae8725290836?w=400", 5, true},
	{"3", "Engranaje Mecánico", "Engranaje funcional para proyectos mecánicos", "15.50", enums.ProductCategoryMecanico, enums.MaterialABS, &Dimensions{Width: 8, Height: 2, Depth: 8}, 100, "https://images.unsplash.com/photo-1518770660439-4636190af475?w=400", 15, true},
	{"4", "Organizador de Escritorio", "Mantén tu escritorio ordenado con este organizador modular", "22.99", enums.ProductCategoryOrganizadores, enums.MaterialPETG, &Dimensions{Width: 15, Height: 8, Depth: 10}, 250, "https://images.unsplash.com/photo-1611532736579-6b16e2b50449?w=400", 8, true},
	{"5", "Porta Llaves Moderno", "Organiza tus llaves con estilo", "12.99", enums.ProductCategoryOrganizadores, enums.MaterialPLA, nil, 0, "https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=400", 20, false},
	{"6", "Maceta Colgante", "Maceta decorativa ideal para plantas pequeñas", "18.50", enums.ProductCategoryDecoracion, enums.MaterialPLA, nil, 0, "https://images.unsplash.com/photo-1459411552884-841db9b3cc2a?w=400", 12, false},
	{"7", "Soporte para Celular", "Soporte ajustable para tu smartphone", "9.99", enums.ProductCategoryUtilidades, enums.MaterialTPU, nil, 0, "https://images.unsplash.com/photo-1556656793-08538906a9f8?w=400", 25, false},
	{"8", "Figura de Superhéroe", "Figura coleccionable de 15cm de altura", "35.00", enums.ProductCategoryJuguetes, enums.MaterialResina, nil, 0, "https://images.unsplash.com/photo-1531259683007-016a7b628fc3?w=400", 7, false},
	{"9", "Lámpara de Luna", "Lámpara decorativa con textura lunar realista", "42.00", enums.ProductCategoryDecoracion, enums.MaterialPLA, nil, 0, "https://images.unsplash.com/photo-1513506003901-1e6a229e2d15?w=400", 6, false},
	{"10", "Piezas de Ajedrez", "Set completo de piezas de ajedrez diseño moderno", "55.00", enums.ProductCategoryJuguetes, enums.MaterialResina, nil, 0, "https://images.unsplash.com/photo-1528819622765-d6bcf132f793?w=400", 4, false},
	{"11", "Carcasa para Arduino", "Protección para tu placa Arduino Uno", "14.99", enums.ProductCategoryMecanico, enums.MaterialABS, nil, 0, "https://images.unsplash.com/photo-1553406830-ef2513450d76?w=400", 18, false},
	{"12", "Busto Decorativo", "Escultura artística de busto clásico", "38.00", enums.ProductCategoryArte, enums.MaterialResina, nil, 0, "https://images.unsplash.com/photo-1579783902614-a3fb3927b6a5?w=400", 5, false},
}

// FallbackProducts returns a fresh copy of the built-in catalog shown while the
// platform is unreachable.
func FallbackProducts() []Product {
	out := make([]Product, 0, len(fallbackSeeds))
	for _, seed := range fallbackSeeds {
		p := Product{
			ID:          seed.id,
			Name:        seed.name,
			Description: seed.description,
			Price:       decimal.RequireFromString(seed.price),
			Category:    seed.category,
			Material:    seed.material,
			Images:      []string{seed.image},
			Stock:       seed.stock,
			Featured:    seed.featured,
		}
		if seed.dims != nil {
			p.Dimensions = *seed.dims
			p.Weight = seed.weight
		} else {
			p.Dimensions = Dimensions{Width: defaultSize, Height: defaultSize, Depth: defaultSize}
			p.Weight = defaultWeight
			p.Estimated = true
		}
		out = append(out, p)
	}
	return out
}

// FallbackProduct looks up a built-in product by id.
func FallbackProduct(id string) (Product, bool) {
	for _, p := range FallbackProducts() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
