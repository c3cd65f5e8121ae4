package serial

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestSaveLoadFull(t *testing.T) {
	a := newAgentA(t)
	path := filepath.Join(t.TempDir(), "agent.zip")
	require.NoError(t, Save(path, a, true))

	loaded, err := LoadAs[*agentA](path)
	require.NoError(t, err)

	assert.Equal(t, a.weights.Shape(), loaded.weights.Shape())
	assert.Equal(t, a.weights.Data(), loaded.weights.Data())
	assert.Equal(t, map[string]interface{}{"lr": 0.01}, loaded.config)
	require.NotNil(t, loaded.buffer)
	assert.Equal(t, []float64{1, 2, 3}, loaded.buffer.Data())
	assert.Equal(t, 1, loaded.postLoads)
}

func TestSavePartial(t *testing.T) {
	a := newAgentA(t)
	path := filepath.Join(t.TempDir(), "agent.zip")
	require.NoError(t, Save(path, a, false))

	assert.ElementsMatch(t, []string{"config", "config.json",
		"weights.tensor"}, entries(t, path))

	loaded, err := LoadAs[*agentA](path)
	require.NoError(t, err)
	assert.Nil(t, loaded.buffer)
	assert.Equal(t, a.weights.Data(), loaded.weights.Data())
	assert.Equal(t, map[string]interface{}{"lr": 0.01}, loaded.config)

	spec, ok := loaded.Attributes().Spec("buffer")
	require.True(t, ok)
	assert.Equal(t, Array.FullSaveOnly(), spec)
}

func TestSaveOmitsAbsent(t *testing.T) {
	a := newAgentA(t)
	a.config = nil
	path := filepath.Join(t.TempDir(), "agent.zip")
	require.NoError(t, Save(path, a, true))

	assert.NotContains(t, entries(t, path), "config.json")

	loaded, err := LoadAs[*agentA](path)
	require.NoError(t, err)
	assert.Nil(t, loaded.config)
	assert.NotNil(t, loaded.buffer)
}

func TestSaveLoadNested(t *testing.T) {
	b := newParentB(t)
	path := filepath.Join(t.TempDir(), "nested", "parent.zip")
	require.NoError(t, Save(path, b, false))

	assert.ElementsMatch(t, []string{
		"config",
		"name.json",
		"child/config",
		"child/label.txt",
		"child/values.npy",
	}, entries(t, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	pb, ok := loaded.(*parentB)
	require.True(t, ok)

	assert.Equal(t, "parent", pb.name)
	require.NotNil(t, pb.child)
	assert.Equal(t, "child", pb.child.label)
	assert.Equal(t, tensor.Shape{2, 2}, pb.child.values.Shape())
	assert.Equal(t, []int64{1, 2, 3, 4}, pb.child.values.Data())
}

func TestLoadMissingNested(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parent.zip")
	require.NoError(t, Save(path, newParentB(t), true))

	corrupt := filepath.Join(dir, "corrupt.zip")
	rewriteArchive(t, path, corrupt, func(name string) bool {
		return name != "child/config"
	})

	_, err := Load(corrupt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptArchive), err.Error())

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "child/config", serr.Entry)
}

func TestSaveNilNested(t *testing.T) {
	b := newParentB(t)
	b.child = nil
	path := filepath.Join(t.TempDir(), "parent.zip")

	err := Save(path, b, true)
	assert.True(t, errors.Is(err, ErrEncoding))
	assert.NoFileExists(t, path)
}

func TestUnknownCodec(t *testing.T) {
	t.Run("Save", func(t *testing.T) {
		c := newChildC(t)
		require.NoError(t, c.Declare("label", Spec{Codec: "pickle"}))

		path := filepath.Join(t.TempDir(), "child.zip")
		err := Save(path, c, true)
		assert.True(t, errors.Is(err, ErrDeclaration))
		assert.NoFileExists(t, path)
	})

	t.Run("Load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "child.zip")
		writeArchive(t, path, map[string]string{
			"config": `{"type":"serial.childC","save_attributes":` +
				`{"label":{"codec":"pickle"}}}`,
			"label.pickle": "child",
		})

		_, err := Load(path)
		assert.True(t, errors.Is(err, ErrDeclaration))
	})
}

func TestUnknownType(t *testing.T) {
	t.Run("Save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "u.zip")
		err := Save(path, &unregistered{}, true)
		assert.True(t, errors.Is(err, ErrUnknownType))
		assert.NoFileExists(t, path)
	})

	t.Run("Load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "u.zip")
		writeArchive(t, path, map[string]string{
			"config": `{"type":"serial.missing","save_attributes":{}}`,
		})

		_, err := Load(path)
		assert.True(t, errors.Is(err, ErrUnknownType))
	})

	t.Run("LoadAs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "child.zip")
		require.NoError(t, Save(path, newChildC(t), true))

		_, err := LoadAs[*agentA](path)
		assert.True(t, errors.Is(err, ErrUnknownType))
	})
}

func TestLoadCorruptHeader(t *testing.T) {
	tests := map[string]map[string]string{
		"Missing":   {"values.npy": ""},
		"Malformed": {"config": "{not json"},
		"NoType":    {"config": `{"save_attributes":{}}`},
		"NoAttrs":   {"config": `{"type":"serial.childC"}`},
	}

	for name, archive := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "corrupt.zip")
			writeArchive(t, path, archive)

			_, err := Load(path)
			assert.True(t, errors.Is(err, ErrCorruptArchive), err.Error())
		})
	}
}

func TestLoadInvalidPath(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.zip"))
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = Load(dir)
	assert.True(t, errors.Is(err, ErrInvalidPath))

	err = Save(dir, newChildC(t), true)
	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestLoadNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip file"), 0644))

	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrCorruptArchive))
}

func TestResaveIdentical(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.zip")
	second := filepath.Join(dir, "second.zip")

	require.NoError(t, Save(first, newAgentA(t), true))
	loaded, err := Load(first)
	require.NoError(t, err)
	require.NoError(t, Save(second, loaded, true))

	b1, err := os.ReadFile(first)
	require.NoError(t, err)
	b2, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(b1, b2))
}

func TestResaveIdenticalMap(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.zip")
	require.NoError(t, Save(first, newLayersD(t), true))
	b1, err := os.ReadFile(first)
	require.NoError(t, err)

	loaded, err := LoadAs[*layersD](first)
	require.NoError(t, err)
	require.Len(t, loaded.layers, 8)
	assert.Equal(t, []float64{3, -3}, loaded.layers["d"].Data())

	for i := 0; i < 10; i++ {
		path := filepath.Join(dir, "resave.zip")
		require.NoError(t, Save(path, loaded, true))
		b2, err := os.ReadFile(path)
		require.NoError(t, err)
		require.True(t, bytes.Equal(b1, b2), "resave %d differs", i)
	}
}

func TestSaveLoadView(t *testing.T) {
	full := tensor.New(
		tensor.WithShape(3, 3),
		tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}),
	)
	view, err := full.Slice(nil, gorgonia.S(1, 3))
	require.NoError(t, err)

	a := newAgentA(t)
	a.weights = view.(*tensor.Dense)
	a.buffer = view.(*tensor.Dense)
	path := filepath.Join(t.TempDir(), "agent.zip")
	require.NoError(t, Save(path, a, true))

	loaded, err := LoadAs[*agentA](path)
	require.NoError(t, err)

	want := []float64{2, 3, 5, 6, 8, 9}
	assert.Equal(t, tensor.Shape{3, 2}, loaded.weights.Shape())
	assert.Equal(t, want, loaded.weights.Data())
	assert.Equal(t, tensor.Shape{3, 2}, loaded.buffer.Shape())
	assert.Equal(t, want, loaded.buffer.Data())

	copied, err := Copy(a)
	require.NoError(t, err)
	assert.Equal(t, want, copied.(*agentA).buffer.Data())
	assert.Equal(t, want, copied.(*agentA).weights.Data())
}

func TestSaveBool(t *testing.T) {
	flags := func() *tensor.Dense {
		return tensor.New(
			tensor.WithShape(3),
			tensor.WithBacking([]bool{true, true, false}),
		)
	}

	// Bool arrays can only be stored as tensor blobs
	a := newAgentA(t)
	a.buffer = flags()
	err := Save(filepath.Join(t.TempDir(), "agent.zip"), a, true)
	assert.True(t, errors.Is(err, ErrEncoding))

	a = newAgentA(t)
	a.weights = flags()
	path := filepath.Join(t.TempDir(), "agent.zip")
	require.NoError(t, Save(path, a, true))
	loaded, err := LoadAs[*agentA](path)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, loaded.weights.Data())
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.zip")
	require.NoError(t, Save(path, newAgentA(t), true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestSaveAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.zip")

	a := newAgentA(t)
	require.NoError(t, Save(path, a, true))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	bad := newAgentA(t)
	bad.config = map[string]interface{}{"lr": math.NaN()}
	err = Save(path, bad, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncoding))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	fresh := filepath.Join(dir, "fresh.zip")
	assert.Error(t, Save(fresh, bad, true))
	assert.NoFileExists(t, fresh)
}

func TestSealedAfterSave(t *testing.T) {
	a := newAgentA(t)
	require.NoError(t, a.Declare("buffer", Array.Spec()))
	assert.False(t, a.Attributes().Sealed())

	require.NoError(t, Write(new(bytes.Buffer), a, false))
	assert.True(t, a.Attributes().Sealed())

	err := a.Declare("extra", Config.Spec())
	assert.True(t, errors.Is(err, ErrDeclaration))
}

func TestSealedAfterLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, newParentB(t), true))

	obj, err := Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	b := obj.(*parentB)
	assert.True(t, b.Attributes().Sealed())
	assert.True(t, b.child.Attributes().Sealed())
	assert.True(t, errors.Is(b.child.Declare("x", Config.Spec()),
		ErrDeclaration))
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parent.zip")
	require.NoError(t, Save(path, newParentB(t), true))

	m, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "serial.parentB", m.Type)
	require.Len(t, m.Children, 1)
	assert.Equal(t, "child", m.Children[0].Folder)
	assert.Equal(t, "serial.childC", m.Children[0].Type)

	for _, e := range m.Entries {
		assert.True(t, e.Present, e.Name)
	}

	var out bytes.Buffer
	require.NoError(t, m.Print(&out))
	assert.Contains(t, out.String(), "serial.childC")
	assert.Contains(t, out.String(), "values: npy")
}
