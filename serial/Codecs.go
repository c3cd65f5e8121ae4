package serial

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"

	"gorgonia.org/tensor"
)

func init() {
	// Weight containers that can be stored as tensor blobs without
	// further registration. Other packages register their own types
	// with gob.Register.
	gob.Register(&tensor.Dense{})
	gob.Register([]*tensor.Dense{})

	RegisterCodec(Config, Codec{
		Encode: encodeConfig,
		Decode: decodeConfig,
		Clone:  cloneConfig,
	})
	RegisterCodec(Array, Codec{
		Encode: encodeArray,
		Decode: decodeArray,
		Clone:  cloneArray,
	})
	RegisterCodec(Tensor, Codec{
		Encode: encodeTensor,
		Decode: decodeTensor,
		Clone:  cloneTensor,
	})
	RegisterCodec(Object, Codec{
		Encode: encodeObject,
		Decode: decodeObject,
		Clone:  cloneObject,
		Nested: true,
	})
}

// encodeConfig writes value as UTF-8 JSON text
func encodeConfig(s Sink, entry string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return newError("save", entry, ErrEncoding, err)
	}

	w, err := s.Create(entry)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return newError("save", entry, ErrStorage, err)
	}
	return nil
}

// decodeConfig parses the JSON stored in entry into a new value of type
// typ
func decodeConfig(s Source, entry string, typ reflect.Type) (interface{}, error) {
	r, err := s.Open(entry)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError("load", entry, ErrStorage, err)
	}

	value := reflect.New(typ)
	if err := json.Unmarshal(data, value.Interface()); err != nil {
		return nil, newError("load", entry, ErrCorruptArchive, err)
	}
	return value.Elem().Interface(), nil
}

// cloneConfig deep copies a JSON-representable value
func cloneConfig(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, newError("copy", "", ErrEncoding, err)
	}

	copied := reflect.New(reflect.TypeOf(value))
	if err := json.Unmarshal(data, copied.Interface()); err != nil {
		return nil, newError("copy", "", ErrEncoding, err)
	}
	return copied.Elem().Interface(), nil
}

// contiguous returns t, or a contiguous copy of t if t is a view
func contiguous(t *tensor.Dense) *tensor.Dense {
	if t == nil || !t.IsView() {
		return t
	}
	return t.Materialize().(*tensor.Dense)
}

// encodeArray writes a *tensor.Dense in the .npy format
func encodeArray(s Sink, entry string, value interface{}) error {
	t, ok := value.(*tensor.Dense)
	if !ok {
		return newError("save", entry, ErrEncoding,
			fmt.Errorf("arrays must be *tensor.Dense, have %T", value))
	}
	// Bool data does not survive the npy reader, store it as a tensor blob
	if t.Dtype() == tensor.Bool {
		return newError("save", entry, ErrEncoding,
			fmt.Errorf("cannot store %v arrays as npy", t.Dtype()))
	}
	t = contiguous(t)

	w, err := s.Create(entry)
	if err != nil {
		return err
	}
	if err := t.WriteNpy(w); err != nil {
		return newError("save", entry, ErrEncoding, err)
	}
	return nil
}

// decodeArray reads a *tensor.Dense stored in the .npy format
func decodeArray(s Source, entry string, _ reflect.Type) (interface{}, error) {
	r, err := s.Open(entry)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t := new(tensor.Dense)
	if err := t.ReadNpy(r); err != nil {
		return nil, newError("load", entry, ErrCorruptArchive, err)
	}
	return t, nil
}

// cloneArray returns a copy of a *tensor.Dense with its own backing data
func cloneArray(value interface{}) (interface{}, error) {
	t, ok := value.(*tensor.Dense)
	if !ok {
		return nil, newError("copy", "", ErrEncoding,
			fmt.Errorf("arrays must be *tensor.Dense, have %T", value))
	}
	if t.IsView() {
		return contiguous(t), nil
	}
	return t.Clone().(*tensor.Dense), nil
}

// blob wraps tensor blobs so that the concrete type of the value is
// recorded in the gob stream. A map[string]*tensor.Dense is stored in
// Named, sorted by key, since gob writes maps in iteration order.
type blob struct {
	Value interface{}
	Named []namedTensor
	IsMap bool
}

type namedTensor struct {
	Name   string
	Tensor *tensor.Dense
}

// newBlob wraps value, replacing tensor views with contiguous copies
func newBlob(value interface{}) *blob {
	switch v := value.(type) {
	case *tensor.Dense:
		return &blob{Value: contiguous(v)}

	case []*tensor.Dense:
		ts := make([]*tensor.Dense, len(v))
		for i := range v {
			ts[i] = contiguous(v[i])
		}
		return &blob{Value: ts}

	case map[string]*tensor.Dense:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)

		named := make([]namedTensor, len(names))
		for i, name := range names {
			named[i] = namedTensor{Name: name, Tensor: contiguous(v[name])}
		}
		return &blob{Named: named, IsMap: true}
	}
	return &blob{Value: value}
}

// value returns the value wrapped by b
func (b *blob) value() interface{} {
	if !b.IsMap {
		return b.Value
	}
	m := make(map[string]*tensor.Dense, len(b.Named))
	for _, n := range b.Named {
		m[n.Name] = n.Tensor
	}
	return m
}

// encodeTensor writes a gob-registered value
func encodeTensor(s Sink, entry string, value interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(newBlob(value)); err != nil {
		return newError("save", entry, ErrEncoding, err)
	}

	w, err := s.Create(entry)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return newError("save", entry, ErrStorage, err)
	}
	return nil
}

// decodeTensor reads a gob-registered value
func decodeTensor(s Source, entry string, _ reflect.Type) (interface{}, error) {
	r, err := s.Open(entry)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var b blob
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, newError("load", entry, ErrCorruptArchive, err)
	}
	return b.value(), nil
}

// cloneTensor deep copies a gob-registered value by encoding and
// decoding it in memory
func cloneTensor(value interface{}) (interface{}, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(newBlob(value)); err != nil {
		return nil, newError("copy", "", ErrEncoding, err)
	}

	var b blob
	if err := gob.NewDecoder(&buf).Decode(&b); err != nil {
		return nil, newError("copy", "", ErrEncoding, err)
	}
	return b.value(), nil
}

// encodeObject writes a nested Serializable under the folder entry
func encodeObject(s Sink, entry string, value interface{}) error {
	obj, ok := value.(Serializable)
	if !ok {
		return newError("save", entry, ErrEncoding,
			fmt.Errorf("nested objects must be Serializable, have %T", value))
	}
	return s.SaveObject(entry, obj)
}

// decodeObject reads the nested Serializable saved under the folder entry
func decodeObject(s Source, entry string, _ reflect.Type) (interface{}, error) {
	return s.LoadObject(entry)
}

// cloneObject deep copies a nested Serializable
func cloneObject(value interface{}) (interface{}, error) {
	obj, ok := value.(Serializable)
	if !ok {
		return nil, newError("copy", "", ErrEncoding,
			fmt.Errorf("nested objects must be Serializable, have %T", value))
	}
	return Copy(obj)
}
