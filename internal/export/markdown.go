// Package export renders briefings as Markdown and packs them into share links.
package export

import (
	"regexp"
	"strings"

	"github.com/pbaille/linkloom/internal/domain"
)

const (
	// DefaultBaseName is used when a title yields no usable filename characters
	DefaultBaseName = "briefing"

	noSources = "_No sources added_"
	noNotes   = "_No notes added_"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// RenderMarkdown renders b as a Markdown document
func RenderMarkdown(b domain.Briefing) string {
	var sb strings.Builder

	title := strings.TrimSpace(b.Title)
	if title == "" {
		title = domain.DefaultTitle
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n## Sources\n\n")

	if len(b.Sources) == 0 {
		bullet(&sb, noSources)
	}
	for _, s := range b.Sources {
		bullet(&sb, sourceLine(s))
	}

	sb.WriteString("\n## Notes\n\n")
	if len(b.Notes) == 0 {
		bullet(&sb, noNotes)
	}
	for _, n := range b.Notes {
		bullet(&sb, n.Text)
	}

	return sb.String()
}

func sourceLine(s domain.Source) string {
	if !s.IsValid {
		return s.URL
	}
	label := s.Title
	if label == "" {
		label = s.Domain
	}
	return "[" + linkTextEscaper.Replace(label) + "](" + linkTarget(s.URL) + ")"
}

// linkTarget keeps parentheses and spaces from ending the link early
func linkTarget(u string) string {
	if strings.ContainsAny(u, " ()") {
		return "<" + u + ">"
	}
	return u
}

// bullet writes a list item, indenting continuation lines under it
func bullet(sb *strings.Builder, text string) {
	sb.WriteString("- ")
	sb.WriteString(strings.ReplaceAll(text, "\n", "\n  "))
	sb.WriteString("\n")
}

// SuggestFilename derives a Markdown filename from a briefing title
func SuggestFilename(title string) string {
	base := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = DefaultBaseName
	}
	return base + ".md"
}
