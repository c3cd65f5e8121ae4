package serial

import (
	"fmt"
	"reflect"
	"sort"
)

// Factory returns a bare instance of a Serializable type. The instance is
// not expected to be usable until its attributes have been loaded.
type Factory func() Serializable

var (
	factories = make(map[string]Factory)
	typeIDs   = make(map[reflect.Type]string)
)

// Register registers a Serializable type under a unique identifier. The
// identifier is recorded in archives and is used to find the factory when
// loading. Register panics if id is already used by another type.
//
// Register is meant to be called from init functions and is not safe for
// concurrent use.
func Register(id string, f Factory) {
	if id == "" {
		panic("register: empty type identifier")
	}
	if f == nil {
		panic(fmt.Sprintf("register: nil factory for type %q", id))
	}

	typ := reflect.TypeOf(f())
	if prev, ok := typeIDs[typ]; ok && prev != id {
		panic(fmt.Sprintf("register: type %v already registered as %q", typ,
			prev))
	}
	if _, ok := factories[id]; ok && typeIDs[typ] != id {
		panic(fmt.Sprintf("register: identifier %q already registered", id))
	}

	factories[id] = f
	typeIDs[typ] = id
}

// Registered returns the identifiers of all registered types in sorted
// order
func Registered() []string {
	ids := make([]string, 0, len(factories))
	for id := range factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TypeID returns the identifier the type of obj was registered with
func TypeID(obj Serializable) (string, error) {
	typ := reflect.TypeOf(obj)
	id, ok := typeIDs[typ]
	if !ok {
		return "", &Error{Op: "save", Kind: ErrUnknownType,
			Err: fmt.Errorf("type %v is not registered", typ)}
	}
	return id, nil
}

// newBare returns a bare instance of the type registered under id
func newBare(id, folder string) (Serializable, error) {
	f, ok := factories[id]
	if !ok {
		return nil, &Error{Op: "load", Entry: appendFolder(folder, configEntry),
			Kind: ErrUnknownType, Err: fmt.Errorf("no type registered as %q",
				id)}
	}

	obj := f()
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return nil, &Error{Op: "load", Entry: appendFolder(folder, configEntry),
			Kind: ErrUnknownType, Err: fmt.Errorf("factory for %q returned nil",
				id)}
	}
	return obj, nil
}
