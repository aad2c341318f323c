// Package reflector derives stable logical type names for Go values.
// Entries and persisted states record these names so that the matching
// adapter can reconstruct the original domain value later.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the name cache. The number of types a program persists
// is small, so the limit is rarely hit; when exceeded the cache is cleared.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds the logical name and the reflected type of a value.
type TypeInfo struct {
	Name string       // "pkg/path.TypeName", or the builtin name for unnamed types
	Type reflect.Type // pointer-unwrapped type
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeNameOf is shorthand for TypeInfoOf(x).Name.
func TypeNameOf(x any) string { return TypeInfoOf(x).Name }

// TypeNameFor is shorthand for TypeInfoFor[T]().Name.
func TypeNameFor[T any]() string { return TypeInfoFor[T]().Name }

// TypeInfoForType returns TypeInfo for t. Pointer types resolve to their
// element type so that T and *T share one logical name.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{Name: nameOf(t), Type: t}

	muCache.Lock()
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	muCache.Unlock()

	return ti
}

func nameOf(t reflect.Type) string {
	if t.PkgPath() == "" || t.Name() == "" {
		// builtin or composite: []byte, string, map[string]any ...
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
