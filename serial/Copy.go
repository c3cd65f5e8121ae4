package serial

import (
	"fmt"
	"reflect"
)

// Copy returns an independent deep copy of obj without touching the
// filesystem.
//
// The copy is built the same way Load builds an object: a bare instance
// is created through the registered factory, every declared attribute is
// set with the Clone function of its codec, regardless of whether it is
// full save only, and PostLoad is called once all attributes are set.
// Fields that are not declared keep the values the factory gives them.
func Copy(obj Serializable) (Serializable, error) {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return nil, &Error{Op: "copy", Kind: ErrEncoding,
			Err: fmt.Errorf("nil object")}
	}

	id, ok := typeIDs[reflect.TypeOf(obj)]
	if !ok {
		return nil, &Error{Op: "copy", Kind: ErrUnknownType,
			Err: fmt.Errorf("type %T is not registered", obj)}
	}
	dup, err := newBare(id, "")
	if err != nil {
		return nil, err
	}

	attrs := obj.Attributes()
	dup.base().attributes = attrs.clone()

	srcFields := obj.Fields()
	dupFields := dup.Fields()
	for _, name := range attrs.Names() {
		spec, _ := attrs.Spec(name)
		codec, ok := lookupCodec(spec.Codec)
		if !ok {
			return nil, &Error{Op: "copy", Entry: name, Kind: ErrDeclaration,
				Err: fmt.Errorf("unknown codec %q", spec.Codec)}
		}

		from, err := field(srcFields, name)
		if err != nil {
			return nil, &Error{Op: "copy", Entry: name, Kind: ErrDeclaration,
				Err: err}
		}
		to, err := field(dupFields, name)
		if err != nil {
			return nil, &Error{Op: "copy", Entry: name, Kind: ErrDeclaration,
				Err: err}
		}

		if absent(from) {
			if codec.Nested {
				return nil, &Error{Op: "copy", Entry: name, Kind: ErrEncoding,
					Err: fmt.Errorf("nested object is nil")}
			}
			to.Set(reflect.Zero(to.Type()))
			continue
		}

		value, err := codec.Clone(from.Interface())
		if err != nil {
			return nil, newError("copy", name, ErrEncoding, err)
		}
		if err := assign(to, value); err != nil {
			return nil, &Error{Op: "copy", Entry: name, Kind: ErrEncoding,
				Err: err}
		}
	}

	if err := dup.PostLoad(); err != nil {
		return nil, newError("copy", "", ErrEncoding,
			fmt.Errorf("post load: %w", err))
	}
	return dup, nil
}

// CopyAs returns a deep copy of obj with the same type as obj
func CopyAs[T Serializable](obj T) (T, error) {
	var zero T
	dup, err := Copy(obj)
	if err != nil {
		return zero, err
	}
	return dup.(T), nil
}
