package checkpointer

import (
	"fmt"
	"path/filepath"
	"time"
)

// Extension is the file extension of checkpointed archives
const Extension = ".zip"

// FilenameEnumerator returns a function which returns the paths
// dir/prefix<i>.zip for i = start+1, start+2, ... on consecutive calls.
func FilenameEnumerator(dir, prefix string, start int) func() string {
	i := start
	return func() string {
		i++
		return filepath.Join(dir, fmt.Sprintf("%v%d%v", prefix, i, Extension))
	}
}

// FileTimer returns a function which returns the path
// dir/prefix-<nanoseconds since January 1, 1970>.zip on each call.
func FileTimer(dir, prefix string) func() string {
	return func() string {
		return filepath.Join(dir, fmt.Sprintf("%v-%v%v", prefix,
			time.Now().UnixNano(), Extension))
	}
}
