package serial

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// archiveMode is the permission of saved archives. Temporary files are
// created owner-only.
const archiveMode os.FileMode = 0644

// Save writes obj and all its nested objects to a single archive at path.
// Attributes declared as full save only are written only if fullSave is
// true. Missing parent directories are created.
//
// The archive is first written to a temporary file in the same directory
// and then renamed to path, so that if Save fails no file is left at path
// and any previous archive at path is unchanged.
func Save(path string, obj Serializable, fullSave bool) error {
	if path == "" {
		return &Error{Op: "save", Kind: ErrInvalidPath,
			Err: fmt.Errorf("empty path")}
	}
	if obj == nil {
		return &Error{Op: "save", Entry: path, Kind: ErrEncoding,
			Err: fmt.Errorf("nil object")}
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return &Error{Op: "save", Entry: path, Kind: ErrInvalidPath,
			Err: fmt.Errorf("path is a directory")}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return newError("save", path, ErrStorage, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return newError("save", path, ErrStorage, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := Write(tmp, obj, fullSave); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(archiveMode); err != nil {
		cleanup()
		return newError("save", path, ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return newError("save", path, ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return newError("save", path, ErrStorage, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return newError("save", path, ErrStorage, err)
	}

	logger.WithFields(logrus.Fields{
		"path":      path,
		"full_save": fullSave,
	}).Debug("saved archive")
	return nil
}

// Write writes obj and all its nested objects as a zip archive to w. The
// object itself is stored at the root of the archive.
func Write(w io.Writer, obj Serializable, fullSave bool) error {
	aw := newArchiveWriter(w, fullSave)
	if err := aw.SaveObject("", obj); err != nil {
		// The archive is left unterminated so that it cannot be read
		return err
	}
	return aw.close()
}
