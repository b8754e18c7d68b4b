package automock

import (
	"fmt"
	"reflect"

	"github.com/xraph/alembic"
)

// buildConcrete constructs a real instance of t, resolving every exported
// field through the resolver. This is how the subject under test is built:
// its dependencies come back as mocks while the subject itself stays real.
//
// t must be a struct or pointer-to-struct type. Fields tagged
// `optional:"true"` are left zero when their type cannot be resolved.
func buildConcrete(t reflect.Type, r alembic.Resolver) (any, error) {
	base := t
	ptr := false

	if t.Kind() == reflect.Ptr {
		base = t.Elem()
		ptr = true
	}

	if base.Kind() != reflect.Struct {
		return nil, alembic.NewServiceError(t.String(), "construct",
			fmt.Errorf("cannot construct %s: subject must be a struct or pointer to struct", t))
	}

	v := reflect.New(base).Elem()

	for i := 0; i < base.NumField(); i++ {
		field := base.Field(i)
		if !v.Field(i).CanSet() {
			continue
		}

		dep, err := r.ResolveType(field.Type)
		if err != nil {
			if field.Tag.Get("optional") == "true" {
				continue
			}

			return nil, alembic.NewServiceError(t.String(), "construct", err).
				WithContext("field", field.Name)
		}

		if dep != nil {
			v.Field(i).Set(reflect.ValueOf(dep))
		}
	}

	if ptr {
		return v.Addr().Interface(), nil
	}

	return v.Interface(), nil
}
