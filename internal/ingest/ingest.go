// Package ingest reads dropped or named files and feeds their text to the
// classifier and the briefing store.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pbaille/linkloom/internal/classifier"
	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/logger"
)

// MaxFileSize caps how much of a single file is read (5MB)
const MaxFileSize = 5 * 1024 * 1024

// ErrNotText is returned for files that are not textual
var ErrNotText = errors.New("not a text file")

// Adder receives classified items
type Adder interface {
	AddItems(sources []domain.Source, notes []domain.Note) error
}

// Result reports what one file contributed
type Result struct {
	Name    string `json:"name"`
	Sources int    `json:"sources"`
	Notes   int    `json:"notes"`
	Skipped bool   `json:"skipped,omitempty"`
	Err     error  `json:"-"`
}

// Ingester classifies file contents into the active briefing
type Ingester struct {
	clf *classifier.Classifier
	dst Adder
	log logger.Logger
}

// New creates an Ingester
func New(clf *classifier.Classifier, dst Adder, log logger.Logger) *Ingester {
	return &Ingester{clf: clf, dst: dst, log: log}
}

// IsTextual reports whether a file with this name and declared content type
// should be read: any text/* type, or a .md or .txt name.
func IsTextual(name, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".txt"
}

// DetectType returns the declared type for name, falling back to sniffing head
func DetectType(name string, head []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(head)
}

// Ingest reads r, classifies its text and adds the items. Non-textual input
// is skipped.
func (in *Ingester) Ingest(name, contentType string, r io.Reader) Result {
	res := Result{Name: name}

	if !IsTextual(name, contentType) {
		res.Skipped = true
		res.Err = fmt.Errorf("%s (%s): %w", name, contentType, ErrNotText)
		in.log.Debug("skipping file", logger.String("name", name), logger.String("type", contentType))
		return res
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize))
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", name, err)
		return res
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), string(utf8.RuneError)))
	}

	text := string(data)
	if isHTML(name, contentType) {
		text = extractText(text)
	}

	items := in.clf.Classify(text)
	if items.Empty() {
		in.log.Debug("nothing to add from file", logger.String("name", name))
		return res
	}
	if err := in.dst.AddItems(items.Sources, items.Notes); err != nil {
		res.Err = fmt.Errorf("add items from %s: %w", name, err)
		return res
	}

	res.Sources, res.Notes = len(items.Sources), len(items.Notes)
	in.log.Info("ingested file",
		logger.String("name", name),
		logger.Int("sources", res.Sources),
		logger.Int("notes", res.Notes))
	return res
}

// Files ingests every path in its own goroutine. Each file's items are added
// as soon as that file has been read, so items land in completion order, not
// argument order. Results come back in completion order too.
func (in *Ingester) Files(ctx context.Context, paths []string) []Result {
	results := make(chan Result, len(paths))
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results <- Result{Name: path, Err: err}
				return
			}
			results <- in.file(path)
		}()
	}

	wg.Wait()
	close(results)

	out := make([]Result, 0, len(paths))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (in *Ingester) file(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{Name: path, Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Result{Name: path, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	head = head[:n]

	contentType := DetectType(path, head)
	return in.Ingest(path, contentType, io.MultiReader(bytes.NewReader(head), f))
}

func isHTML(name, contentType string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/html" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
