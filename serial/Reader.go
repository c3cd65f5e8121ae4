package serial

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// Load reconstructs the object saved in the archive at path. The returned
// object has the dynamic type it was saved with.
func Load(path string) (Serializable, error) {
	zr, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	obj, err := newArchiveReader(&zr.Reader).LoadObject("")
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path": path,
	}).Debug("loaded archive")
	return obj, nil
}

// LoadAs loads the archive at path and checks that the loaded object has
// type T
func LoadAs[T Serializable](path string) (T, error) {
	var zero T
	obj, err := Load(path)
	if err != nil {
		return zero, err
	}

	t, ok := obj.(T)
	if !ok {
		return zero, &Error{Op: "load", Entry: path, Kind: ErrUnknownType,
			Err: fmt.Errorf("archive holds %T, have %T", obj, zero)}
	}
	return t, nil
}

// Read reconstructs the object saved in the zip archive of the given size
// read from r
func Read(r io.ReaderAt, size int64) (Serializable, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, newError("load", "", ErrCorruptArchive, err)
	}
	return newArchiveReader(zr).LoadObject("")
}

// openArchive opens the zip archive at path
func openArchive(path string) (*zip.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, newError("load", path, ErrInvalidPath, err)
	}
	if info.IsDir() {
		return nil, &Error{Op: "load", Entry: path, Kind: ErrInvalidPath,
			Err: fmt.Errorf("path is a directory")}
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, newError("load", path, ErrCorruptArchive, err)
	}
	return zr, nil
}
