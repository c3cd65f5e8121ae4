package checkpointer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/batchlearn/agent/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator("out", "agent", 0)
	assert.Equal(t, filepath.Join("out", "agent1.zip"), next())
	assert.Equal(t, filepath.Join("out", "agent2.zip"), next())

	next = FilenameEnumerator("", "agent", 9)
	assert.Equal(t, "agent10.zip", next())
}

func TestFileTimer(t *testing.T) {
	name := FileTimer("out", "agent")()
	assert.True(t, strings.HasPrefix(name, filepath.Join("out", "agent-")))
	assert.True(t, strings.HasSuffix(name, ".zip"))
}

func TestNIteration(t *testing.T) {
	p, err := policy.NewEGreedy(0.1, 0)
	require.NoError(t, err)

	dir := t.TempDir()
	c, err := NewNIteration(2, p, false,
		FilenameEnumerator(dir, "policy", 0))
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, c.Checkpoint(i))
	}

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{"policy1.zip", "policy2.zip"}, names)

	_, err = NewNIteration(0, p, false, FileTimer(dir, "policy"))
	assert.Error(t, err)
	_, err = NewNIteration(1, p, false, nil)
	assert.Error(t, err)
}
