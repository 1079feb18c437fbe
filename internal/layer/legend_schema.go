package layer

import (
	"reflect"

	"github.com/danielgtaylor/huma/v2"
)

// Schema documents Legend as boolean or LegendConfig in the OpenAPI spec.
func (Legend) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		OneOf: []*huma.Schema{
			{Type: huma.TypeBoolean},
			r.Schema(reflect.TypeOf(LegendConfig{}), true, "LegendConfig"),
		},
	}
}
