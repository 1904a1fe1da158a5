package terraform

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/hashicorp/hcl/v2"
)

// attrValues evaluates every attribute in a body with no variable
// context. Computed values (references, function calls) stay out of the
// map; plans are parsed structurally, not evaluated.
func attrValues(body hcl.Body) map[string]interface{} {
	out := make(map[string]interface{})
	content, _, _ := body.PartialContent(&hcl.BodySchema{})
	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() || !val.IsWhollyKnown() || val.IsNull() {
			continue
		}
		if v, ok := goValue(val); ok {
			out[name] = v
		}
	}
	return out
}

// goValue converts a known cty value to its Go equivalent
func goValue(val cty.Value) (interface{}, bool) {
	switch {
	case val.Type() == cty.String:
		return val.AsString(), true
	case val.Type() == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, true
	case val.Type() == cty.Bool:
		return val.True(), true
	case val.Type().IsTupleType(), val.Type().IsListType(), val.Type().IsSetType():
		var list []interface{}
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if v, ok := goValue(elem); ok {
				list = append(list, v)
			}
		}
		return list, true
	case val.Type().IsMapType(), val.Type().IsObjectType():
		m := make(map[string]interface{})
		for it := val.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			if v, ok := goValue(elem); ok {
				m[k.AsString()] = v
			}
		}
		return m, true
	}
	return nil, false
}

func str(attrs map[string]interface{}, key string) string {
	s, _ := attrs[key].(string)
	return s
}

func num(attrs map[string]interface{}, key string) (int, bool) {
	f, ok := attrs[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}
