package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

func TestFailureLog_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "failed.log")

	log, err := NewFailureLog(path)
	require.NoError(t, err)

	require.NoError(t, log.Append(domain.NewUnresolvedEntry("Artist", "Title")))
	require.NoError(t, log.Append(domain.NewUnresolvedEntry("Other", "Song")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "|Artist|Title"))
	assert.True(t, strings.HasSuffix(lines[1], "|Other|Song"))
}

func TestFailureLog_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.log")

	log, err := NewFailureLog(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, log.Append(domain.NewUnresolvedEntry("Artist", fmt.Sprintf("Title %d", i))))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 50)
	for _, line := range lines {
		assert.Len(t, strings.Split(line, "|"), 3)
	}
}
