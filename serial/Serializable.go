// Package serial implements persistence of learning agents.
//
// An object takes part in persistence by embedding Base, declaring each
// attribute that should be saved along with the codec used to save it,
// and binding each declared attribute to the field that holds its value:
//
//	type Agent struct {
//		serial.Base
//		weights *tensor.Dense
//		config  Config
//	}
//
//	func NewAgent(c Config) (*Agent, error) {
//		a := &Agent{config: c, weights: ...}
//		err := a.DeclareAll(map[string]serial.Spec{
//			"weights": serial.Tensor.Spec(),
//			"config":  serial.Config.Spec(),
//		})
//		return a, err
//	}
//
//	func (a *Agent) Fields() serial.Fields {
//		return serial.Fields{"weights": &a.weights, "config": &a.config}
//	}
//
//	func init() {
//		serial.Register("mypkg.Agent", func() serial.Serializable {
//			return &Agent{}
//		})
//	}
//
// Save writes an object and, recursively, every nested object it declares
// to a single zip archive. Load reconstructs the object through its
// registered factory without running its constructor, assigns every
// declared attribute and finally calls PostLoad.
package serial

import (
	"fmt"
	"reflect"
)

// Fields binds attribute names to pointers to the fields that hold the
// attribute values
type Fields map[string]interface{}

// Serializable is an object that can be saved to and loaded from an
// archive. Serializable types must embed Base.
type Serializable interface {
	// Attributes returns the declared attributes of the object
	Attributes() *Attributes

	// Fields binds every declared attribute to a pointer to its field.
	//
	// On load, Fields is called after the declared attributes have been
	// restored but before any attribute value is assigned, so an
	// implementation may size containers from Attributes().
	Fields() Fields

	// PostLoad is called exactly once after an object has been loaded
	// or copied and all its declared attributes have been set. It
	// rebuilds state that is not persisted.
	PostLoad() error

	base() *Base
}

// Base implements the bookkeeping of a Serializable. It must be embedded
// in every Serializable type.
type Base struct {
	attributes *Attributes
}

// Attributes returns the declared attributes
func (b *Base) Attributes() *Attributes {
	if b.attributes == nil {
		b.attributes = NewAttributes()
	}
	return b.attributes
}

// Declare declares a single attribute, replacing the previous Spec if the
// attribute was already declared
func (b *Base) Declare(name string, spec Spec) error {
	return b.Attributes().Declare(name, spec)
}

// DeclareAll merges the argument declarations into the declared
// attributes
func (b *Base) DeclareAll(specs map[string]Spec) error {
	return b.Attributes().Merge(specs)
}

// PostLoad does nothing. Embedding types override it to rebuild derived
// state after loading.
func (b *Base) PostLoad() error {
	return nil
}

func (b *Base) base() *Base {
	return b
}

// field returns the field bound to a declared attribute
func field(fields Fields, name string) (reflect.Value, error) {
	ptr, ok := fields[name]
	if !ok {
		return reflect.Value{}, fmt.Errorf("attribute %q has no bound field",
			name)
	}

	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("attribute %q must be bound to "+
			"a non-nil pointer, have %T", name, ptr)
	}
	return v.Elem(), nil
}

// absent returns whether v holds the absence marker, the nil value of a
// pointer, interface, map, slice, func, or chan
func absent(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// assign sets field to value. A nil value sets the absence marker.
func assign(field reflect.Value, value interface{}) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("cannot assign %v to field of type %v", v.Type(),
			field.Type())
	}
	field.Set(v)
	return nil
}
