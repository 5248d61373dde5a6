package hxfaces

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// StateHolder is implemented by values that save and restore their own state
// instead of being stored as opaque values. Listeners, converters, validators
// and expressions that must survive full state saving implement it.
type StateHolder interface {
	SaveState(ctx *Context) (any, error)
	RestoreState(ctx *Context, state any) error
	Transient() bool
}

// PartialStateHolder is a StateHolder that can track changes relative to an
// initial state. SaveState returns nil while nothing changed since the mark.
type PartialStateHolder interface {
	StateHolder
	MarkInitialState()
	ClearInitialState()
	InitialStateMarked() bool
}

type valueKind uint8

const (
	kindNil valueKind = iota
	kindPlain
	kindStrings
	kindList
	kindMap
	kindHolder
	kindRemoved
	kindDelta
	kindHolderDelta
	kindListAdd
	kindListRemove
	kindNestedDelta
)

// StateValue is the serialized form of one state entry. It is a tree so nested
// state holders, lists and maps restore polymorphically.
type StateValue struct {
	Kind    valueKind              `msgpack:"k"`
	Type    string                 `msgpack:"t,omitempty"`
	Plain   any                    `msgpack:"v"`
	Strings []string               `msgpack:"s,omitempty"`
	Index   int                    `msgpack:"x,omitempty"`
	Inner   *StateValue            `msgpack:"n,omitempty"`
	Items   []*StateValue          `msgpack:"i,omitempty"`
	Entries map[string]*StateValue `msgpack:"e,omitempty"`
}

// SavedState is the saved form of a StateHelper, keyed by property name.
type SavedState map[string]*StateValue

type holderType struct {
	name    string
	factory func() StateHolder
}

var holderRegistry = struct {
	sync.RWMutex
	byName map[string]holderType
	byType map[reflect.Type]string
}{
	byName: make(map[string]holderType),
	byType: make(map[reflect.Type]string),
}

// RegisterStateHolder makes a StateHolder type restorable under name. The
// factory must return a fresh zero value of the type. Panics on a name
// collision with a different type.
func RegisterStateHolder(name string, factory func() StateHolder) {
	sample := factory()
	t := reflect.TypeOf(sample)

	holderRegistry.Lock()
	defer holderRegistry.Unlock()

	if existing, ok := holderRegistry.byName[name]; ok {
		if reflect.TypeOf(existing.factory()) != t {
			panic(fmt.Sprintf("hxfaces: state holder name collision for %q", name))
		}
	}
	holderRegistry.byName[name] = holderType{name: name, factory: factory}
	holderRegistry.byType[t] = name
}

func holderName(h StateHolder) (string, bool) {
	holderRegistry.RLock()
	defer holderRegistry.RUnlock()
	name, ok := holderRegistry.byType[reflect.TypeOf(h)]
	return name, ok
}

func newHolder(name string) (StateHolder, bool) {
	holderRegistry.RLock()
	defer holderRegistry.RUnlock()
	ht, ok := holderRegistry.byName[name]
	if !ok {
		return nil, false
	}
	return ht.factory(), true
}

// saveAttached converts v into its serialized form. Transient holders yield nil.
func saveAttached(ctx *Context, v any) (*StateValue, error) {
	switch x := v.(type) {
	case nil:
		return &StateValue{Kind: kindNil}, nil
	case StateHolder:
		if x.Transient() {
			return nil, nil
		}
		name, ok := holderName(x)
		if !ok {
			return nil, fmt.Errorf("%w: state holder %T is not registered", ErrNotSerializable, v)
		}
		st, err := x.SaveState(ctx)
		if err != nil {
			return nil, err
		}
		inner, err := saveAttached(ctx, st)
		if err != nil {
			return nil, err
		}
		return &StateValue{Kind: kindHolder, Type: name, Inner: inner}, nil
	case []string:
		return &StateValue{Kind: kindStrings, Strings: append([]string{}, x...)}, nil
	case []any:
		sv := &StateValue{Kind: kindList, Items: make([]*StateValue, 0, len(x))}
		for _, item := range x {
			enc, err := saveAttached(ctx, item)
			if err != nil {
				return nil, err
			}
			if enc != nil {
				sv.Items = append(sv.Items, enc)
			}
		}
		return sv, nil
	case map[string]any:
		sv := &StateValue{Kind: kindMap, Entries: make(map[string]*StateValue, len(x))}
		for k, item := range x {
			enc, err := saveAttached(ctx, item)
			if err != nil {
				return nil, err
			}
			if enc != nil {
				sv.Entries[k] = enc
			}
		}
		return sv, nil
	}

	if t, ok := plainType(v); ok {
		return &StateValue{Kind: kindPlain, Type: t, Plain: v}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNotSerializable, v)
}

// restoreAttached is the inverse of saveAttached.
func restoreAttached(ctx *Context, sv *StateValue) (any, error) {
	if sv == nil {
		return nil, nil
	}
	switch sv.Kind {
	case kindNil, kindRemoved:
		return nil, nil
	case kindPlain:
		return restorePlain(sv.Type, sv.Plain)
	case kindStrings:
		return append([]string{}, sv.Strings...), nil
	case kindList:
		list := make([]any, 0, len(sv.Items))
		for _, item := range sv.Items {
			v, err := restoreAttached(ctx, item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case kindMap:
		m := make(map[string]any, len(sv.Entries))
		for k, item := range sv.Entries {
			v, err := restoreAttached(ctx, item)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	case kindHolder:
		h, ok := newHolder(sv.Type)
		if !ok {
			return nil, fmt.Errorf("%w: unknown state holder %q", ErrNotSerializable, sv.Type)
		}
		inner, err := restoreAttached(ctx, sv.Inner)
		if err != nil {
			return nil, err
		}
		if err := h.RestoreState(ctx, inner); err != nil {
			return nil, err
		}
		return h, nil
	}
	return nil, fmt.Errorf("%w: unexpected state kind %d", ErrInvalidFormat, sv.Kind)
}

// plainType names the Go type of scalar values so they come back with the same
// type after a trip through a codec that normalizes numbers.
func plainType(v any) (string, bool) {
	switch v.(type) {
	case bool:
		return "bool", true
	case string:
		return "string", true
	case int:
		return "int", true
	case int8:
		return "int8", true
	case int16:
		return "int16", true
	case int32:
		return "int32", true
	case int64:
		return "int64", true
	case uint:
		return "uint", true
	case uint8:
		return "uint8", true
	case uint16:
		return "uint16", true
	case uint32:
		return "uint32", true
	case uint64:
		return "uint64", true
	case float32:
		return "float32", true
	case float64:
		return "float64", true
	case []byte:
		return "bytes", true
	case time.Time:
		return "time", true
	}
	return "", false
}

func restorePlain(typ string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	var target reflect.Type
	switch typ {
	case "bool", "string", "bytes", "time":
		switch typ {
		case "bool":
			target = reflect.TypeOf(false)
		case "string":
			target = reflect.TypeOf("")
		case "bytes":
			target = reflect.TypeOf([]byte(nil))
		default:
			target = reflect.TypeOf(time.Time{})
		}
		if rv.Type() == target {
			return v, nil
		}
		if typ == "bytes" && rv.Kind() == reflect.String {
			return []byte(rv.String()), nil
		}
		return nil, fmt.Errorf("%w: %T for %s value", ErrInvalidFormat, v, typ)
	case "int":
		target = reflect.TypeOf(int(0))
	case "int8":
		target = reflect.TypeOf(int8(0))
	case "int16":
		target = reflect.TypeOf(int16(0))
	case "int32":
		target = reflect.TypeOf(int32(0))
	case "int64":
		target = reflect.TypeOf(int64(0))
	case "uint":
		target = reflect.TypeOf(uint(0))
	case "uint8":
		target = reflect.TypeOf(uint8(0))
	case "uint16":
		target = reflect.TypeOf(uint16(0))
	case "uint32":
		target = reflect.TypeOf(uint32(0))
	case "uint64":
		target = reflect.TypeOf(uint64(0))
	case "float32":
		target = reflect.TypeOf(float32(0))
	case "float64":
		target = reflect.TypeOf(float64(0))
	case "":
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown plain type %q", ErrInvalidFormat, typ)
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("%w: %T for %s value", ErrInvalidFormat, v, typ)
}

// sameValue compares values without panicking on uncomparable dynamic types.
// Funcs, maps and slices compare by pointer.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
