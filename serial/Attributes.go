package serial

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Attributes maps the names of the declared attributes of an object to
// the Spec used to persist them.
//
// Attributes are built by merging declarations while an object is
// constructed. Once the object has been saved, or if the object was
// loaded from an archive, the Attributes are sealed and further
// declarations fail with ErrDeclaration.
type Attributes struct {
	specs  map[string]Spec
	sealed bool
}

// NewAttributes returns a new, empty set of Attributes
func NewAttributes() *Attributes {
	return &Attributes{specs: make(map[string]Spec)}
}

// Declare declares an attribute. Declaring an attribute that already
// exists replaces its Spec.
func (a *Attributes) Declare(name string, spec Spec) error {
	if a.sealed {
		return &Error{Op: "declare", Entry: name, Kind: ErrDeclaration,
			Err: fmt.Errorf("attributes are sealed after the first save")}
	}
	if name == "" || strings.Contains(name, "/") {
		return &Error{Op: "declare", Entry: name, Kind: ErrDeclaration,
			Err: fmt.Errorf("attribute names must be non-empty and " +
				"cannot contain '/'")}
	}
	if spec.Codec == "" {
		return &Error{Op: "declare", Entry: name, Kind: ErrDeclaration,
			Err: fmt.Errorf("no codec given")}
	}

	if a.specs == nil {
		a.specs = make(map[string]Spec)
	}
	a.specs[name] = spec
	return nil
}

// Merge declares all the argument attributes
func (a *Attributes) Merge(specs map[string]Spec) error {
	// Declare in sorted order so that the first invalid name reported
	// does not depend on map iteration order
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := a.Declare(name, specs[name]); err != nil {
			return err
		}
	}
	return nil
}

// Spec returns the Spec of a declared attribute
func (a *Attributes) Spec(name string) (Spec, bool) {
	s, ok := a.specs[name]
	return s, ok
}

// Names returns the names of all declared attributes in sorted order
func (a *Attributes) Names() []string {
	names := make([]string, 0, len(a.specs))
	for name := range a.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared attributes
func (a *Attributes) Len() int {
	return len(a.specs)
}

// Sealed returns whether new declarations are rejected
func (a *Attributes) Sealed() bool {
	return a.sealed
}

// seal rejects any further declarations
func (a *Attributes) seal() {
	a.sealed = true
}

// clone returns a copy of the Attributes
func (a *Attributes) clone() *Attributes {
	specs := make(map[string]Spec, len(a.specs))
	for name, spec := range a.specs {
		specs[name] = spec
	}
	return &Attributes{specs: specs, sealed: a.sealed}
}

// MarshalJSON implements the json.Marshaler interface
func (a *Attributes) MarshalJSON() ([]byte, error) {
	if a.specs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.specs)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (a *Attributes) UnmarshalJSON(data []byte) error {
	specs := make(map[string]Spec)
	if err := json.Unmarshal(data, &specs); err != nil {
		return err
	}
	a.specs = specs
	return nil
}
