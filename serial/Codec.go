package serial

import (
	"fmt"
	"io"
	"reflect"
	"sort"
)

// Kind is the name of a codec. The name is used as the suffix of the
// archive entries written with the codec.
type Kind string

// Registered codecs
const (
	Config Kind = "json"   // JSON-representable configuration
	Array  Kind = "npy"    // *tensor.Dense in the .npy format
	Tensor Kind = "tensor" // gob-registered weight containers
	Object Kind = "object" // Nested Serializable
)

// Spec returns a Spec which saves an attribute with codec k on every save
func (k Kind) Spec() Spec {
	return Spec{Codec: k}
}

// FullSaveOnly returns a Spec which saves an attribute with codec k only
// on full saves
func (k Kind) FullSaveOnly() Spec {
	return Spec{Codec: k, FullSaveOnly: true}
}

// Spec describes how a declared attribute is persisted
type Spec struct {
	Codec        Kind `json:"codec"`
	FullSaveOnly bool `json:"full_save_only,omitempty"`
}

// String implements the fmt.Stringer interface
func (s Spec) String() string {
	if s.FullSaveOnly {
		return fmt.Sprintf("%v (full save only)", s.Codec)
	}
	return string(s.Codec)
}

// Sink is the archive being written, as seen by a codec's Encode function
type Sink interface {
	// Create adds a new entry to the archive and returns a writer for
	// its contents. The writer is valid until the next call to Create.
	Create(entry string) (io.Writer, error)

	// SaveObject writes obj and all its nested objects under folder
	SaveObject(folder string, obj Serializable) error
}

// Source is the archive being read, as seen by a codec's Decode function
type Source interface {
	// Has returns whether entry exists in the archive
	Has(entry string) bool

	// Open opens an existing entry for reading
	Open(entry string) (io.ReadCloser, error)

	// LoadObject reconstructs the object saved under folder
	LoadObject(folder string) (Serializable, error)
}

// Codec is a paired encoder and decoder for a single kind of value. Each
// function must satisfy Decode(Encode(v)) == v and Clone(v) == v under the
// equality appropriate to the kind of value.
type Codec struct {
	// Encode writes value under entry
	Encode func(s Sink, entry string, value interface{}) error

	// Decode reads the value stored under entry. The type of the field
	// that the value will be assigned to is given as typ.
	Decode func(s Source, entry string, typ reflect.Type) (interface{}, error)

	// Clone returns an independent deep copy of value without using an
	// archive
	Clone func(value interface{}) (interface{}, error)

	// Nested codecs write a folder instead of an entry. Attributes
	// persisted with a nested codec are always written and must always
	// be present on load.
	Nested bool
}

var codecs = make(map[Kind]Codec)

// RegisterCodec registers a codec under the given name. Registering a name
// twice replaces the previous codec. RegisterCodec is meant to be called
// from init functions and is not safe for concurrent use.
func RegisterCodec(kind Kind, c Codec) {
	if kind == "" {
		panic("registercodec: empty codec name")
	}
	if c.Encode == nil || c.Decode == nil || c.Clone == nil {
		panic(fmt.Sprintf("registercodec: codec %q must define Encode, "+
			"Decode, and Clone", kind))
	}
	codecs[kind] = c
}

// Codecs returns the names of all registered codecs in sorted order
func Codecs() []Kind {
	kinds := make([]Kind, 0, len(codecs))
	for k := range codecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// lookupCodec returns the codec registered under kind
func lookupCodec(kind Kind) (Codec, bool) {
	c, ok := codecs[kind]
	return c, ok
}

// entryName returns the archive name of an attribute saved in folder.
// Nested objects own the folder named after the attribute, all other
// attributes are stored in an entry named <attribute>.<codec>.
func entryName(folder, attribute string, kind Kind, c Codec) string {
	if c.Nested {
		return appendFolder(folder, attribute)
	}
	return appendFolder(folder, attribute+"."+string(kind))
}

// appendFolder prefixes name with folder
func appendFolder(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
