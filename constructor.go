package alembic

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// In is a marker type that should be embedded in structs to indicate
// they are parameter objects. Fields of the struct will be treated as
// dependencies to inject.
//
// Example:
//
//	type ServiceParams struct {
//	    alembic.In
//
//	    DB     *Database
//	    Logger *Logger           `optional:"true"`
//	    Cache  *Cache            `name:"redis"`
//	    Handlers []http.Handler  `group:"http"`
//	}
type In struct{}

var (
	inType    = reflect.TypeOf(In{})
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// constructorInfo holds analyzed constructor metadata
type constructorInfo struct {
	fn       reflect.Value
	fnType   reflect.Type
	params   []paramInfo
	result   reflect.Type
	hasError bool
}

// paramInfo describes a constructor parameter
type paramInfo struct {
	typ      reflect.Type
	name     string      // From `name:"..."` tag, empty for type-based lookup
	optional bool        // From `optional:"true"` tag
	group    bool        // From `group:"..."` tag - expects slice type
	groupKey string      // The group name for collection
	index    int         // Position in function parameters or struct field index
	isIn     bool        // Whether this is an In struct (expanded into multiple deps)
	inFields []paramInfo // Expanded fields if isIn is true
}

// analyzeConstructor inspects a constructor function and extracts its
// dependency and result information for automatic resolution.
func analyzeConstructor(constructor any) (*constructorInfo, error) {
	fnValue := reflect.ValueOf(constructor)
	if !fnValue.IsValid() {
		return nil, errors.New("constructor must be a function")
	}

	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, errors.New("constructor must be a function")
	}

	info := &constructorInfo{
		fn:     fnValue,
		fnType: fnType,
	}

	// Analyze parameters
	for i := 0; i < fnType.NumIn(); i++ {
		param, err := analyzeParam(fnType.In(i), i)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		info.params = append(info.params, param)
	}

	// Analyze results: exactly one service value, optionally followed by error
	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0).Implements(errorType) {
			return nil, errors.New("constructor must return at least one non-error value")
		}
		info.result = fnType.Out(0)
	case 2:
		if !fnType.Out(1).Implements(errorType) {
			return nil, errors.New("error must be the last return value")
		}
		info.result = fnType.Out(0)
		info.hasError = true
	default:
		return nil, errors.New("constructor must return (T) or (T, error)")
	}

	return info, nil
}

// analyzeParam analyzes a single parameter type
func analyzeParam(t reflect.Type, index int) (paramInfo, error) {
	param := paramInfo{
		typ:   t,
		index: index,
	}

	// Check if it's an In struct
	if isInStruct(t) {
		param.isIn = true
		fields, err := expandInStruct(t)
		if err != nil {
			return param, err
		}
		param.inFields = fields
	}

	return param, nil
}

// isInStruct checks if a type embeds alembic.In
func isInStruct(t reflect.Type) bool {
	// Handle pointer types
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
		// Check embedded structs recursively
		if field.Anonymous && isInStruct(field.Type) {
			return true
		}
	}

	return false
}

// expandInStruct expands an In struct into its field dependencies
func expandInStruct(t reflect.Type) ([]paramInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var params []paramInfo

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip the embedded In marker
		if field.Anonymous && (field.Type == inType || isInStruct(field.Type)) {
			continue
		}

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		param := paramInfo{
			typ:   field.Type,
			index: i,
		}

		// Parse struct tags
		if tag := field.Tag.Get("name"); tag != "" {
			param.name = tag
		}

		if tag := field.Tag.Get("optional"); strings.ToLower(tag) == "true" {
			param.optional = true
		}

		if tag := field.Tag.Get("group"); tag != "" {
			param.group = true
			param.groupKey = tag
			// Verify it's a slice type for group injection
			if field.Type.Kind() != reflect.Slice {
				return nil, fmt.Errorf("field %s with group tag must be a slice type", field.Name)
			}
		}

		params = append(params, param)
	}

	return params, nil
}

// depKeys returns the registration keys of all non-group dependencies,
// including expanded In struct fields, for Start/Stop ordering.
func (c *constructorInfo) depKeys() []string {
	var keys []string

	collect := func(p paramInfo) {
		if p.group {
			return
		}
		keys = append(keys, typeKey{typ: p.typ, name: p.name}.String())
	}

	for _, p := range c.params {
		if p.isIn {
			for _, f := range p.inFields {
				collect(f)
			}

			continue
		}
		collect(p)
	}

	return keys
}
