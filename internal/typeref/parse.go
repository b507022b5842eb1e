// This file contains the logic for parsing HCL type expressions (e.g.
// `string`, `list(number)`, `Person`, `list(t)`) into type references.

package typeref

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseExpr converts an HCL type expression into a Ref. Identifiers listed
// in vars parse as type variables; capitalized identifiers parse as managed
// type references; everything else must be a primitive keyword or a
// collection constructor call.
func ParseExpr(expr hcl.Expression, vars map[string]struct{}) (Ref, error) {
	if expr == nil {
		return Any(), nil
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		args := make([]Ref, 0, len(v.Args))
		for _, argExpr := range v.Args {
			arg, err := ParseExpr(argExpr, vars)
			if err != nil {
				return Void, err
			}
			args = append(args, arg)
		}

		switch v.Name {
		case "list", "map", "set":
			if len(args) != 1 {
				return Void, fmt.Errorf("type constructors (list, map, set) require exactly one argument, got %d", len(args))
			}
			switch v.Name {
			case "list":
				return ListOf(args[0]), nil
			case "map":
				return MapOf(args[0]), nil
			default:
				return SetOf(args[0]), nil
			}
		default:
			if !isTypeName(v.Name) {
				return Void, fmt.Errorf("unknown type constructor function %q", v.Name)
			}
			// A capitalized constructor is a parameterized managed type
			// reference, e.g. Registry(string).
			return NamedType(v.Name, args...), nil
		}

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return Void, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		switch rootName {
		case "string":
			return Prim(cty.String), nil
		case "number":
			return Prim(cty.Number), nil
		case "bool":
			return Prim(cty.Bool), nil
		case "any":
			return Any(), nil
		}
		if _, ok := vars[rootName]; ok {
			return Var(rootName), nil
		}
		if isTypeName(rootName) {
			return NamedType(rootName), nil
		}
		return Void, fmt.Errorf("unknown primitive type %q", rootName)

	default:
		return Void, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

// isTypeName reports whether an identifier names a managed type, which by
// convention starts with an uppercase ASCII letter.
func isTypeName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}
