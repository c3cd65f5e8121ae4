package serial

import (
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// agentA holds one attribute of each non-nested codec
type agentA struct {
	Base
	weights   *tensor.Dense
	config    map[string]interface{}
	buffer    *tensor.Dense
	postLoads int
}

func newAgentA(t *testing.T) *agentA {
	t.Helper()
	a := &agentA{
		weights: tensor.New(
			tensor.WithShape(2, 3),
			tensor.WithBacking([]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}),
		),
		config: map[string]interface{}{"lr": 0.01},
		buffer: tensor.New(
			tensor.WithShape(3),
			tensor.WithBacking([]float64{1, 2, 3}),
		),
	}
	require.NoError(t, a.DeclareAll(map[string]Spec{
		"weights": Tensor.Spec(),
		"config":  Config.Spec(),
		"buffer":  Array.FullSaveOnly(),
	}))
	return a
}

func (a *agentA) Fields() Fields {
	return Fields{
		"weights": &a.weights,
		"config":  &a.config,
		"buffer":  &a.buffer,
	}
}

func (a *agentA) PostLoad() error {
	a.postLoads++
	return nil
}

// parentB nests a childC
type parentB struct {
	Base
	name  string
	child *childC
}

func newParentB(t *testing.T) *parentB {
	t.Helper()
	b := &parentB{name: "parent", child: newChildC(t)}
	require.NoError(t, b.DeclareAll(map[string]Spec{
		"name":  Config.Spec(),
		"child": Object.Spec(),
	}))
	return b
}

func (b *parentB) Fields() Fields {
	return Fields{"name": &b.name, "child": &b.child}
}

type childC struct {
	Base
	values *tensor.Dense
	label  string
}

func newChildC(t *testing.T) *childC {
	t.Helper()
	c := &childC{
		values: tensor.New(
			tensor.WithShape(2, 2),
			tensor.WithBacking([]int64{1, 2, 3, 4}),
		),
		label: "child",
	}
	require.NoError(t, c.DeclareAll(map[string]Spec{
		"values": Array.Spec(),
		"label":  Text.Spec(),
	}))
	return c
}

func (c *childC) Fields() Fields {
	return Fields{"values": &c.values, "label": &c.label}
}

// layersD stores a map of named weights as a tensor blob
type layersD struct {
	Base
	layers map[string]*tensor.Dense
}

func newLayersD(t *testing.T) *layersD {
	t.Helper()
	d := &layersD{layers: make(map[string]*tensor.Dense)}
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		d.layers[name] = tensor.New(
			tensor.WithShape(2),
			tensor.WithBacking([]float64{float64(i), float64(-i)}),
		)
	}
	require.NoError(t, d.Declare("layers", Tensor.Spec()))
	return d
}

func (d *layersD) Fields() Fields {
	return Fields{"layers": &d.layers}
}

// unregistered is never registered with a factory
type unregistered struct {
	Base
}

func (u *unregistered) Fields() Fields { return Fields{} }

// Text stores strings as raw bytes. It is registered only for tests to
// exercise codec extensibility.
const Text Kind = "txt"

func init() {
	Register("serial.agentA", func() Serializable { return &agentA{} })
	Register("serial.parentB", func() Serializable { return &parentB{} })
	Register("serial.childC", func() Serializable { return &childC{} })
	Register("serial.layersD", func() Serializable { return &layersD{} })

	RegisterCodec(Text, Codec{
		Encode: func(s Sink, entry string, value interface{}) error {
			w, err := s.Create(entry)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, value.(string))
			return err
		},
		Decode: func(s Source, entry string, _ reflect.Type) (interface{}, error) {
			r, err := s.Open(entry)
			if err != nil {
				return nil, err
			}
			defer r.Close()
			var b strings.Builder
			_, err = io.Copy(&b, r)
			return b.String(), err
		},
		Clone: func(value interface{}) (interface{}, error) {
			return value, nil
		},
	})
}

// writeArchive writes a zip archive with the given entries to a new file
func writeArchive(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// rewriteArchive copies the archive at src to dst, dropping every entry
// for which keep returns false
func rewriteArchive(t *testing.T, src, dst string, keep func(string) bool) {
	t.Helper()
	zr, err := zip.OpenReader(src)
	require.NoError(t, err)
	defer zr.Close()

	f, err := os.Create(dst)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, file := range zr.File {
		if !keep(file.Name) {
			continue
		}
		r, err := file.Open()
		require.NoError(t, err)
		w, err := zw.Create(file.Name)
		require.NoError(t, err)
		_, err = io.Copy(w, r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
	}
	require.NoError(t, zw.Close())
}

// entries returns the names of all entries in the archive at path
func entries(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
