package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/sirupsen/logrus"
)

// nIteration implements checkpointing every N iterations
type nIteration struct {
	interval int
	object   serial.Serializable // Object to save
	fullSave bool

	// filename returns the string filename of the file to save the object
	// in.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.zip, file2.zip, ..., fileK.zip), then simply use the
	// static function FilenameEnumerator, which will return a function
	// that will enumerate filenames.
	//
	// Otherwise, if each serialized object should be saved in a
	// separate file, but the filename does not matter, use the
	// static function FileTimer to generate the required naming
	// function. For example:
	//
	// n, err := NewNIteration(10, object, false, FileTimer(dir, "agent"))
	filename func() string
}

// NewNIteration returns a checkpointer that checkpoints every n
// iterations. If fullSave is true, attributes that are only saved on a
// full save are checkpointed too.
func NewNIteration(n int, object serial.Serializable, fullSave bool,
	filename func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNIteration: interval must be positive, "+
			"have %d", n)
	}
	if object == nil || filename == nil {
		return nil, fmt.Errorf("newNIteration: object and filename must " +
			"be set")
	}

	return &nIteration{
		interval: n,
		object:   object,
		fullSave: fullSave,
		filename: filename,
	}, nil
}

// Checkpoint saves the Checkpointer's tracked object if iteration is a
// multiple of the checkpointing interval
func (n *nIteration) Checkpoint(iteration int) error {
	if iteration%n.interval != 0 {
		return nil
	}

	path := n.filename()
	if err := serial.Save(path, n.object, n.fullSave); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"iteration": iteration,
		"path":      path,
	}).Debug("checkpoint: saved")
	return nil
}
