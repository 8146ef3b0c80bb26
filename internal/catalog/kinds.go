package catalog

import (
	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/domain"
)

// Kind one catalog variant
type Kind struct {
	Name     string
	Resource access.Resource
	Table    string
	Spec     Spec
}

var searchRule = Rule{Param: "search", Aliases: []string{"q"}, Build: Contains("name", "description")}

var priceRules = []Rule{
	{Param: "min_price", Build: PriceFrom("price")},
	{Param: "max_price", Build: PriceTo("price")},
}

func rules(head []Rule) []Rule {
	out := append([]Rule{}, head...)
	out = append(out, priceRules...)
	return append(out, searchRule)
}

var (
	ProductKind = Kind{
		Name:     "product",
		Resource: access.Products,
		Table:    domain.Product{}.TableName(),
		Spec: Spec{
			Rules: rules([]Rule{
				{Param: "density", Build: Exact("density")},
				{Param: "color", Build: IExact("color")},
				{Param: "size", Build: IExact("size")},
			}),
			Orderings: []string{"price", "-price", "density", "-density", "created_at", "-created_at"},
		},
	}
	PillowKind = Kind{
		Name:     "pillow",
		Resource: access.Pillows,
		Table:    domain.Pillow{}.TableName(),
		Spec: Spec{
			Rules: rules([]Rule{
				{Param: "color", Build: IExact("color")},
				{Param: "size", Build: IExact("size")},
			}),
		},
	}
	EPESheetKind = Kind{
		Name:     "epe_sheet",
		Resource: access.EPESheets,
		Table:    domain.EPESheet{}.TableName(),
		Spec: Spec{
			Rules: rules([]Rule{
				{Param: "size", Build: IExact("size")},
			}),
		},
	}
)

// Kinds indexed by name
var Kinds = map[string]Kind{
	ProductKind.Name:  ProductKind,
	PillowKind.Name:   PillowKind,
	EPESheetKind.Name: EPESheetKind,
}

// LookupKind empty name means product
func LookupKind(name string) (Kind, bool) {
	if name == "" {
		return ProductKind, true
	}
	k, ok := Kinds[name]
	return k, ok
}
