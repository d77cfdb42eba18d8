package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pbaille/linkloom/internal/classifier"
	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ident"
	"github.com/pbaille/linkloom/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	sources []domain.Source
	notes   []domain.Note
	calls   int
}

func (r *recorder) AddItems(sources []domain.Source, notes []domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.sources = append(r.sources, sources...)
	r.notes = append(r.notes, notes...)
	return nil
}

func newIngester() (*Ingester, *recorder) {
	rec := &recorder{}
	clf := classifier.New(ident.NewSequence("i", time.Unix(0, 0), 0))
	return New(clf, rec, logger.NewNop()), rec
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsTextual(t *testing.T) {
	assert.True(t, IsTextual("notes.md", ""))
	assert.True(t, IsTextual("LINKS.TXT", "application/octet-stream"))
	assert.True(t, IsTextual("data", "text/csv"))
	assert.True(t, IsTextual("page", "Text/HTML; charset=utf-8"))
	assert.False(t, IsTextual("photo.png", "image/png"))
	assert.False(t, IsTextual("archive.zip", ""))
}

func TestIngest_Text(t *testing.T) {
	in, rec := newIngester()

	res := in.Ingest("links.txt", "", strings.NewReader("https://example.com\nremember this\n"))

	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Sources)
	assert.Equal(t, 1, res.Notes)
	assert.Equal(t, "example.com", rec.sources[0].Domain)
	assert.Equal(t, "remember this", rec.notes[0].Text)
}

func TestIngest_ByteOrderMark(t *testing.T) {
	in, rec := newIngester()
	path := writeFile(t, t.TempDir(), "links.txt", "\ufeffhttps://example.com\nhello\n")

	res := in.Files(context.Background(), []string{path})

	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)
	assert.Equal(t, 1, res[0].Sources)
	assert.Equal(t, 1, res[0].Notes)
	require.Len(t, rec.sources, 1)
	assert.Equal(t, "https://example.com/", rec.sources[0].URL)
	assert.True(t, rec.sources[0].IsValid)
	assert.Equal(t, "hello", rec.notes[0].Text)
}

func TestIngest_BlankFileAddsNothing(t *testing.T) {
	in, rec := newIngester()

	res := in.Ingest("empty.md", "", strings.NewReader("\n  \n"))

	require.NoError(t, res.Err)
	assert.False(t, res.Skipped)
	assert.Zero(t, res.Sources)
	assert.Zero(t, rec.calls)
}

func TestIngest_SkipsBinary(t *testing.T) {
	in, rec := newIngester()

	res := in.Ingest("photo.png", "image/png", strings.NewReader("\x89PNG"))

	assert.True(t, res.Skipped)
	assert.ErrorIs(t, res.Err, ErrNotText)
	assert.Zero(t, rec.calls)
}

func TestIngest_HTML(t *testing.T) {
	in, rec := newIngester()
	page := `<html><head><title>ignored</title><script>var x = 1;</script></head>
<body><h1>Reading list</h1>
<p>Start with <a href="https://go.dev/doc/">the docs</a> today.</p>
<ul><li><a href="/relative">relative link</a></li></ul>
</body></html>`

	res := in.Ingest("list.html", "text/html; charset=utf-8", strings.NewReader(page))
	require.NoError(t, res.Err)

	require.Len(t, rec.sources, 1)
	assert.Equal(t, "https://go.dev/doc/", rec.sources[0].URL)

	var notes []string
	for _, n := range rec.notes {
		notes = append(notes, n.Text)
	}
	assert.Contains(t, notes, "Reading list")
	assert.Contains(t, notes, "relative link")
	for _, n := range notes {
		assert.NotContains(t, n, "var x")
		assert.NotContains(t, n, "ignored")
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.md", "# heading\nhttps://a.example/post\n"),
		writeFile(t, dir, "b.txt", "plain note\n"),
		writeFile(t, dir, "c.bin", "\x00\x01\x02\x03"),
		filepath.Join(dir, "missing.txt"),
	}
	in, rec := newIngester()

	results := in.Files(context.Background(), paths)
	require.Len(t, results, 4)

	byName := map[string]Result{}
	for _, r := range results {
		byName[filepath.Base(r.Name)] = r
	}
	assert.Equal(t, 1, byName["a.md"].Sources)
	assert.Equal(t, 1, byName["a.md"].Notes)
	assert.Equal(t, 1, byName["b.txt"].Notes)
	assert.True(t, byName["c.bin"].Skipped)
	assert.Error(t, byName["missing.txt"].Err)
	assert.Equal(t, 2, rec.calls)

	var texts []string
	for _, n := range rec.notes {
		texts = append(texts, n.Text)
	}
	sort.Strings(texts)
	assert.Equal(t, []string{"# heading", "plain note"}, texts)
}

func TestFiles_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "note")
	in, rec := newIngester()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := in.Files(ctx, []string{path})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, rec.calls)
}
