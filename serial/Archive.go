package serial

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// configEntry is the name of the entry holding the header of each object
const configEntry = "config"

// header is the content of the config entry of each saved object
type header struct {
	Type           string      `json:"type"`
	SaveAttributes *Attributes `json:"save_attributes"`
}

// archiveWriter writes objects to a zip archive
type archiveWriter struct {
	zw       *zip.Writer
	fullSave bool
	written  map[string]bool
}

func newArchiveWriter(w io.Writer, fullSave bool) *archiveWriter {
	return &archiveWriter{
		zw:       zip.NewWriter(w),
		fullSave: fullSave,
		written:  make(map[string]bool),
	}
}

// Create implements the Sink interface
func (a *archiveWriter) Create(entry string) (io.Writer, error) {
	if a.written[entry] {
		return nil, &Error{Op: "save", Entry: entry, Kind: ErrStorage,
			Err: fmt.Errorf("duplicate entry")}
	}

	// The modification time is left zero so that saving the same object
	// twice produces identical archives
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:   entry,
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, newError("save", entry, ErrStorage, err)
	}
	a.written[entry] = true
	return w, nil
}

// SaveObject implements the Sink interface
func (a *archiveWriter) SaveObject(folder string, obj Serializable) error {
	attrs := obj.Attributes()
	fields := obj.Fields()

	// Validate all declarations before writing anything for this object
	for _, name := range attrs.Names() {
		spec, _ := attrs.Spec(name)
		if _, ok := lookupCodec(spec.Codec); !ok {
			return &Error{Op: "save", Entry: appendFolder(folder, name),
				Kind: ErrDeclaration, Err: fmt.Errorf("unknown codec %q",
					spec.Codec)}
		}
		if _, err := field(fields, name); err != nil {
			return &Error{Op: "save", Entry: appendFolder(folder, name),
				Kind: ErrDeclaration, Err: err}
		}
	}

	id, err := TypeID(obj)
	if err != nil {
		return err
	}

	if err := a.writeHeader(folder, id, attrs); err != nil {
		return err
	}

	for _, name := range attrs.Names() {
		spec, _ := attrs.Spec(name)
		codec, _ := lookupCodec(spec.Codec)
		entry := entryName(folder, name, spec.Codec, codec)

		if spec.FullSaveOnly && !a.fullSave && !codec.Nested {
			logger.WithField("entry", entry).Debug("skipping full save " +
				"attribute")
			continue
		}

		f, _ := field(fields, name)
		if absent(f) {
			if codec.Nested {
				return &Error{Op: "save", Entry: entry, Kind: ErrEncoding,
					Err: fmt.Errorf("nested object is nil")}
			}
			logger.WithField("entry", entry).Debug("skipping absent " +
				"attribute")
			continue
		}

		if err := codec.Encode(a, entry, f.Interface()); err != nil {
			return newError("save", entry, ErrEncoding, err)
		}
	}

	attrs.seal()
	return nil
}

// writeHeader writes the config entry of an object
func (a *archiveWriter) writeHeader(folder, id string, attrs *Attributes) error {
	entry := appendFolder(folder, configEntry)
	data, err := json.Marshal(header{Type: id, SaveAttributes: attrs})
	if err != nil {
		return newError("save", entry, ErrEncoding, err)
	}

	w, err := a.Create(entry)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return newError("save", entry, ErrStorage, err)
	}
	return nil
}

// close finishes writing the archive
func (a *archiveWriter) close() error {
	if err := a.zw.Close(); err != nil {
		return newError("save", "", ErrStorage, err)
	}
	return nil
}

// archiveReader reads objects from a zip archive
type archiveReader struct {
	files map[string]*zip.File
}

func newArchiveReader(zr *zip.Reader) *archiveReader {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return &archiveReader{files: files}
}

// Has implements the Source interface
func (a *archiveReader) Has(entry string) bool {
	_, ok := a.files[entry]
	return ok
}

// Open implements the Source interface
func (a *archiveReader) Open(entry string) (io.ReadCloser, error) {
	f, ok := a.files[entry]
	if !ok {
		return nil, &Error{Op: "load", Entry: entry, Kind: ErrCorruptArchive,
			Err: fmt.Errorf("missing entry")}
	}

	r, err := f.Open()
	if err != nil {
		return nil, newError("load", entry, ErrCorruptArchive, err)
	}
	return r, nil
}

// readHeader reads the config entry of the object saved under folder
func (a *archiveReader) readHeader(folder string) (header, error) {
	entry := appendFolder(folder, configEntry)
	r, err := a.Open(entry)
	if err != nil {
		return header{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return header{}, newError("load", entry, ErrCorruptArchive, err)
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return header{}, newError("load", entry, ErrCorruptArchive, err)
	}
	if h.Type == "" || h.SaveAttributes == nil {
		return header{}, &Error{Op: "load", Entry: entry,
			Kind: ErrCorruptArchive, Err: fmt.Errorf("malformed header")}
	}
	return h, nil
}

// LoadObject implements the Source interface
func (a *archiveReader) LoadObject(folder string) (Serializable, error) {
	h, err := a.readHeader(folder)
	if err != nil {
		return nil, err
	}

	obj, err := newBare(h.Type, folder)
	if err != nil {
		return nil, err
	}

	attrs := h.SaveAttributes
	for _, name := range attrs.Names() {
		spec, _ := attrs.Spec(name)
		if _, ok := lookupCodec(spec.Codec); !ok {
			return nil, &Error{Op: "load", Entry: appendFolder(folder, name),
				Kind: ErrDeclaration, Err: fmt.Errorf("unknown codec %q",
					spec.Codec)}
		}
	}
	attrs.seal()
	obj.base().attributes = attrs

	fields := obj.Fields()
	for _, name := range attrs.Names() {
		spec, _ := attrs.Spec(name)
		codec, _ := lookupCodec(spec.Codec)
		entry := entryName(folder, name, spec.Codec, codec)

		f, err := field(fields, name)
		if err != nil {
			return nil, &Error{Op: "load", Entry: entry,
				Kind: ErrDeclaration, Err: err}
		}

		var value interface{}
		if codec.Nested || a.Has(entry) {
			value, err = codec.Decode(a, entry, f.Type())
			if err != nil {
				return nil, newError("load", entry, ErrCorruptArchive, err)
			}
		}

		if err := assign(f, value); err != nil {
			return nil, &Error{Op: "load", Entry: entry,
				Kind: ErrCorruptArchive, Err: err}
		}
	}

	if err := obj.PostLoad(); err != nil {
		return nil, newError("load", folder, ErrCorruptArchive,
			fmt.Errorf("post load: %w", err))
	}

	logger.WithFields(logrus.Fields{
		"folder": folder,
		"type":   h.Type,
	}).Debug("loaded object")
	return obj, nil
}
