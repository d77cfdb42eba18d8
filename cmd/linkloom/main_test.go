package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t   *testing.T
	db  string
	cfg string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "none.env"))
	t.Setenv("LOG_LEVEL", "error")
	return &cli{t: t, db: filepath.Join(dir, "linkloom.db"), cfg: filepath.Join(dir, "config.yml")}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", c.db, "--config", c.cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func TestCLI_FirstRunCreatesBriefing(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("list")

	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "My First Briefing")
	assert.Contains(t, out, "0 sources · 0 notes")
}

func TestCLI_AddShowExport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("title", "Launch", "Review")

	out, err := c.run("https://www.example.com/launch\nfollow up with design\n", "add")
	require.NoError(t, err)
	assert.Contains(t, out, "+ source")
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "follow up with design")

	out = c.mustRun("show")
	assert.Contains(t, out, "# Launch Review")
	assert.Contains(t, out, "- [example.com](https://www.example.com/launch)")
	assert.Contains(t, out, "- follow up with design")

	dir := t.TempDir()
	out = c.mustRun("export", "-o", dir)
	assert.Contains(t, out, "launch-review.md")
	data, err := os.ReadFile(filepath.Join(dir, "launch-review.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Sources")
}

func TestCLI_AddURLOnly(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "add", "--url", "not", "a", "url")
	assert.Error(t, err)

	out := c.mustRun("add", "--url", "https://go.dev")
	assert.Contains(t, out, "go.dev")
}

func TestCLI_ShareAndOpen(t *testing.T) {
	c := newCLI(t)
	c.mustRun("title", "Shared")
	c.mustRun("add", "a note worth sharing")

	link := strings.TrimSpace(c.mustRun("share", "--base", "https://linkloom.test/"))
	assert.True(t, strings.HasPrefix(link, "https://linkloom.test/#b="), link)

	other := newCLI(t)
	out := other.mustRun("open", link)
	assert.Contains(t, out, "Imported briefing")
	assert.Contains(t, out, "Shared")

	out = other.mustRun("show")
	assert.Contains(t, out, "- a note worth sharing")

	out = other.mustRun("open", "https://linkloom.test/#b=%%%")
	assert.Contains(t, out, "nothing imported")
}

func TestCLI_EditItems(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "first note")

	out := c.mustRun("items")
	var noteID string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "note") {
			noteID = strings.Fields(line)[1]
		}
	}
	require.NotEmpty(t, noteID, out)

	c.mustRun("note", "edit", noteID, "rewritten", "note")
	assert.Contains(t, c.mustRun("show"), "- rewritten note")

	c.mustRun("note", "edit", noteID)
	assert.Contains(t, c.mustRun("show"), "_No notes added_")
}

func TestCLI_BriefingLifecycle(t *testing.T) {
	c := newCLI(t)
	c.mustRun("list")

	out := c.mustRun("new", "Second")
	assert.Contains(t, out, "Second")
	id := strings.Fields(strings.TrimPrefix(out, "Created briefing: "))[0]

	out = c.mustRun("rm", id)
	assert.Contains(t, out, "Active briefing:")
	assert.Contains(t, out, "My First Briefing")

	_, err := c.run("", "use", "does-not-exist")
	assert.Error(t, err)
}

func TestCLI_Ingest(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "reading.md")
	require.NoError(t, os.WriteFile(path, []byte("https://go.dev/blog\nread later\n"), 0o644))

	out := c.mustRun("ingest", path)
	assert.Contains(t, out, "1 source, 1 note")

	out = c.mustRun("show")
	assert.Contains(t, out, "go.dev")
	assert.Contains(t, out, "- read later")
}
