package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestSaveHTMLUsesDatedTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	clock := fixedClock{now: time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)}
	sink, err := NewFileSystemSink(root, clock, zap.NewNop())
	require.NoError(t, err)

	path, err := sink.SaveHTML(context.Background(), "page_1", []byte("<html>raw</html>"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "2024-03-05", "html", "page_1.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<html>raw</html>", string(data))
}

func TestSaveHTMLRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSystemSink(t.TempDir(), fixedClock{now: time.Now()}, zap.NewNop())
	require.NoError(t, err)

	_, err = sink.SaveHTML(context.Background(), "page_1", nil)
	require.Error(t, err)
}

func TestSaveJSONMarshalsPayload(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	clock := fixedClock{now: time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)}
	sink, err := NewFileSystemSink(root, clock, zap.NewNop())
	require.NoError(t, err)

	path, err := sink.SaveJSON(context.Background(), "nextjs_page_1", map[string]any{"listings": 2})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "2024-03-05", "json", "nextjs_page_1.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"listings": 2`)
}

func TestSaveHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSystemSink(t.TempDir(), fixedClock{now: time.Now()}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.SaveHTML(ctx, "page_1", []byte("x"))
	require.Error(t, err)
}
