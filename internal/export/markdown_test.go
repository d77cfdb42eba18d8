package export

import (
	"testing"

	"github.com/pbaille/linkloom/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	b := domain.Briefing{
		Title: "Weekly",
		Sources: []domain.Source{
			{URL: "https://example.com/", Title: "Example [draft]", Domain: "example.com", IsValid: true},
			{URL: "http://bad host", Title: "http://bad host"},
			{URL: "https://en.wikipedia.org/wiki/Go_(language)", Title: "", Domain: "en.wikipedia.org", IsValid: true},
		},
		Notes: []domain.Note{{Text: "hello"}, {Text: "two\nlines"}},
	}

	want := `# Weekly

## Sources

- [Example \[draft\]](https://example.com/)
- http://bad host
- [en.wikipedia.org](<https://en.wikipedia.org/wiki/Go_(language)>)

## Notes

- hello
- two
  lines
`
	assert.Equal(t, want, RenderMarkdown(b))
}

func TestRenderMarkdown_Empty(t *testing.T) {
	want := `# Untitled Briefing

## Sources

- _No sources added_

## Notes

- _No notes added_
`
	assert.Equal(t, want, RenderMarkdown(domain.Briefing{Title: "  "}))
}

func TestSuggestFilename(t *testing.T) {
	tests := map[string]string{
		"My Cool Brief!! ":      "my-cool-brief.md",
		"":                      "briefing.md",
		"!!!":                   "briefing.md",
		"Q3 -- Market / Review": "q3-market-review.md",
		"already-slugged":       "already-slugged.md",
		"Café crème":            "caf-cr-me.md",
	}
	for title, want := range tests {
		assert.Equal(t, want, SuggestFilename(title), "title %q", title)
	}
}
