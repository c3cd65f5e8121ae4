// Package checkpointer implements periodic saving of serial.Serializable
// objects while they are being fit
package checkpointer

// Checkpointer checkpoints/saves serializable objects based on the
// number of iterations they have been fit for
type Checkpointer interface {
	Checkpoint(iteration int) error
}
