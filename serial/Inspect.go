package serial

import (
	"fmt"
	"io"
	"strings"
)

// Manifest describes an object saved in an archive without
// reconstructing it
type Manifest struct {
	Folder   string
	Type     string
	Entries  []ManifestEntry
	Children []*Manifest
}

// ManifestEntry describes a single declared attribute of a saved object
type ManifestEntry struct {
	Name         string
	Entry        string
	Codec        Kind
	FullSaveOnly bool
	Present      bool
	Size         uint64 // Uncompressed size, zero for nested objects
}

// Inspect reads the headers of all objects in the archive at path. The
// objects are not reconstructed, so their types need not be registered,
// however all codecs must be.
func Inspect(path string) (*Manifest, error) {
	zr, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return newArchiveReader(&zr.Reader).inspect("")
}

func (a *archiveReader) inspect(folder string) (*Manifest, error) {
	h, err := a.readHeader(folder)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Folder: folder, Type: h.Type}
	for _, name := range h.SaveAttributes.Names() {
		spec, _ := h.SaveAttributes.Spec(name)
		codec, ok := lookupCodec(spec.Codec)
		if !ok {
			return nil, &Error{Op: "inspect", Entry: appendFolder(folder, name),
				Kind: ErrDeclaration, Err: fmt.Errorf("unknown codec %q",
					spec.Codec)}
		}

		entry := entryName(folder, name, spec.Codec, codec)
		e := ManifestEntry{
			Name:         name,
			Entry:        entry,
			Codec:        spec.Codec,
			FullSaveOnly: spec.FullSaveOnly,
		}

		if codec.Nested {
			child, err := a.inspect(entry)
			if err != nil {
				return nil, err
			}
			m.Children = append(m.Children, child)
			e.Present = true
		} else if f, ok := a.files[entry]; ok {
			e.Present = true
			e.Size = f.UncompressedSize64
		}
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

// Print writes a human-readable tree of the manifest to w
func (m *Manifest) Print(w io.Writer) error {
	return m.print(w, 0)
}

func (m *Manifest) print(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	folder := m.Folder
	if folder == "" {
		folder = "."
	}
	if _, err := fmt.Fprintf(w, "%v%v (%v)\n", indent, folder,
		m.Type); err != nil {
		return err
	}

	children := make(map[string]*Manifest, len(m.Children))
	for _, c := range m.Children {
		children[c.Folder] = c
	}

	for _, e := range m.Entries {
		if child, ok := children[e.Entry]; ok {
			if err := child.print(w, depth+1); err != nil {
				return err
			}
			continue
		}

		status := "missing"
		if e.Present {
			status = fmt.Sprintf("%d bytes", e.Size)
		}
		flag := ""
		if e.FullSaveOnly {
			flag = " [full save only]"
		}
		if _, err := fmt.Fprintf(w, "%v  %v: %v, %v%v\n", indent, e.Name,
			e.Codec, status, flag); err != nil {
			return err
		}
	}
	return nil
}
