package stak

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/funvibe/stak/internal/stdlib"
	"github.com/funvibe/stak/internal/token"
)

// Marshaller handles conversion between Go and stak values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a stak value. Structs and string-keyed maps
// become Literal blocks whose fields are read with `.`.
func (m *Marshaller) ToValue(val interface{}) (token.Token, error) {
	if val == nil {
		return stdlib.FromGo(nil)
	}
	if t, ok := val.(token.Token); ok {
		return t, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return token.NewInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return token.NewBigInt(new(big.Int).SetUint64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return &token.Float{Value: v.Float()}, nil
	case reflect.Bool:
		return &token.Bool{Value: v.Bool()}, nil
	case reflect.String:
		return &token.String{Value: v.String()}, nil
	case reflect.Slice, reflect.Array:
		return m.sliceToList(v)
	case reflect.Map:
		return m.mapToBlock(v)
	case reflect.Struct:
		return m.structToBlock(v)
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return stdlib.FromGo(nil)
		}
		return m.ToValue(v.Elem().Interface())
	}
	return nil, fmt.Errorf("unsupported Go value of type %T", val)
}

func (m *Marshaller) sliceToList(v reflect.Value) (token.Token, error) {
	elems := make([]token.Token, v.Len())
	for i := 0; i < v.Len(); i++ {
		el, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = el
	}
	return token.NewList(elems), nil
}

func (m *Marshaller) mapToBlock(v reflect.Value) (token.Token, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map keys must be strings, got %s", v.Type().Key())
	}
	fields := make(map[string]interface{}, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		val, err := m.ToValue(iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("map value %s: %w", iter.Key().String(), err)
		}
		fields[iter.Key().String()] = val
	}
	return stdlib.FromGo(fields)
}

func (m *Marshaller) structToBlock(v reflect.Value) (token.Token, error) {
	fields := make(map[string]interface{})
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" { // Skip unexported fields
			continue
		}
		val, err := m.ToValue(v.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		fields[field.Name] = val
	}
	return stdlib.FromGo(fields)
}

// FromValue converts a stak value to a Go value. targetType is optional; if
// provided, the result is converted to that type.
func (m *Marshaller) FromValue(v token.Token, targetType reflect.Type) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if targetType == nil || targetType.Kind() == reflect.Interface {
		if targetType != nil && targetType == reflect.TypeOf((*token.Token)(nil)).Elem() {
			return v, nil
		}
		return stdlib.ToGo(v), nil
	}

	rv := reflect.New(targetType).Elem()
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := token.AsInt64(v)
		if !ok || rv.OverflowInt(n) {
			return nil, mismatch(v, targetType)
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b := token.BigOf(v)
		if b == nil || b.Sign() < 0 || !b.IsUint64() || rv.OverflowUint(b.Uint64()) {
			return nil, mismatch(v, targetType)
		}
		rv.SetUint(b.Uint64())
	case reflect.Float32, reflect.Float64:
		f, ok := token.AsFloat(v)
		if !ok {
			return nil, mismatch(v, targetType)
		}
		rv.SetFloat(f)
	case reflect.Bool:
		b, ok := token.Truthy(v)
		if !ok {
			return nil, mismatch(v, targetType)
		}
		rv.SetBool(b)
	case reflect.String:
		switch v.(type) {
		case *token.String, *token.Char:
			rv.SetString(token.Stringify(v))
		default:
			return nil, mismatch(v, targetType)
		}
	case reflect.Slice:
		l, ok := v.(*token.List)
		if !ok {
			return nil, mismatch(v, targetType)
		}
		return m.listToSlice(l, targetType)
	default:
		return nil, fmt.Errorf("cannot convert to %s", targetType)
	}
	return rv.Interface(), nil
}

func (m *Marshaller) listToSlice(l *token.List, targetType reflect.Type) (interface{}, error) {
	elemType := targetType.Elem()
	slice := reflect.MakeSlice(targetType, 0, len(l.Elems))
	for i, el := range l.Elems {
		val, err := m.FromValue(el, elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if val == nil {
			slice = reflect.Append(slice, reflect.Zero(elemType))
			continue
		}
		slice = reflect.Append(slice, reflect.ValueOf(val))
	}
	return slice.Interface(), nil
}

func mismatch(v token.Token, t reflect.Type) error {
	return fmt.Errorf("cannot convert %s to %s", v.Kind(), t)
}
