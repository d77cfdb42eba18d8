// Package classifier splits raw text into sources (http/https URLs) and notes.
package classifier

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ident"
	"golang.org/x/net/idna"
)

var urlPrefix = regexp.MustCompile(`(?i)^https?://`)

// hostProfile mirrors browser host handling: lookup mapping, underscores allowed
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Result holds the classified items in input order
type Result struct {
	Sources []domain.Source `json:"sources"`
	Notes   []domain.Note   `json:"notes"`
}

// Empty reports whether nothing was classified
func (r Result) Empty() bool {
	return len(r.Sources) == 0 && len(r.Notes) == 0
}

// Classifier turns raw text into typed items
type Classifier struct {
	ids ident.Provider
}

// New creates a Classifier drawing item ids from p
func New(p ident.Provider) *Classifier {
	return &Classifier{ids: p}
}

// Classify splits raw on line breaks and classifies every non-blank line.
// Lines that start with http:// or https:// become sources, even when they
// fail to parse; everything else becomes a note.
func (c *Classifier) Classify(raw string) Result {
	res := Result{Sources: []domain.Source{}, Notes: []domain.Note{}}

	for _, line := range Lines(raw) {
		if !LooksLikeURL(line) {
			res.Notes = append(res.Notes, domain.Note{ID: c.ids.NewID(), Text: line})
			continue
		}

		if src, ok := c.TryClassifyURL(line); ok {
			res.Sources = append(res.Sources, src)
			continue
		}

		// Keep what the user pasted so it can be fixed by hand
		res.Sources = append(res.Sources, domain.Source{
			ID:    c.ids.NewID(),
			URL:   line,
			Title: line,
		})
	}

	return res
}

// TryClassifyURL classifies a single trimmed string as a valid source.
// It reports false when text is not an http(s) URL or does not parse.
func (c *Classifier) TryClassifyURL(text string) (domain.Source, bool) {
	canonical, host, ok := Resolve(text)
	if !ok {
		return domain.Source{}, false
	}
	return domain.Source{
		ID:      c.ids.NewID(),
		URL:     canonical,
		Title:   host,
		Domain:  host,
		IsValid: true,
	}, true
}

// Lines splits raw on line breaks, trims every line and drops blank ones
func Lines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimFunc(line, isTrimmable)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// isTrimmable matches whitespace and the byte order mark
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// LooksLikeURL reports whether s starts with http:// or https://, in any case
func LooksLikeURL(s string) bool {
	return urlPrefix.MatchString(s)
}

// Resolve parses raw as an absolute http(s) URL. It returns the canonical
// serialization and the host with a leading "www." removed.
func Resolve(raw string) (canonical, host string, ok bool) {
	if !LooksLikeURL(raw) {
		return "", "", false
	}

	raw = slashAuthority(raw)
	u, err := url.Parse(raw)
	if errors.As(err, new(url.EscapeError)) {
		u, err = url.Parse(repairPercents(raw))
	}
	if err != nil {
		return "", "", false
	}

	name := u.Hostname()
	if name == "" || strings.Contains(name, "%") {
		return "", "", false
	}

	var display string
	if ip := net.ParseIP(name); ip != nil {
		display = name
		if strings.Contains(name, ":") {
			display = "[" + name + "]"
		}
	} else {
		name, err = hostProfile.ToASCII(name)
		if err != nil || name == "" {
			return "", "", false
		}
		display = name
	}

	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > 65535 {
			return "", "", false
		}
		port = strconv.Itoa(n)
		if port == defaultPorts[u.Scheme] {
			port = ""
		}
	}

	if port == "" {
		u.Host = display
	} else {
		u.Host = net.JoinHostPort(name, port)
	}
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	u.RawQuery = escapeQuery(u.RawQuery)

	return u.String(), strings.TrimPrefix(display, "www."), true
}

// slashAuthority turns backslashes before the query or fragment into slashes,
// as browsers do for http(s) URLs
func slashAuthority(raw string) string {
	end := strings.IndexAny(raw, "?#")
	if end < 0 {
		end = len(raw)
	}
	return strings.ReplaceAll(raw[:end], `\`, "/") + raw[end:]
}

// repairPercents escapes every "%" that does not start a %XX sequence
func repairPercents(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '%' && !(i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2])) {
			sb.WriteString("%25")
			continue
		}
		sb.WriteByte(raw[i])
	}
	return sb.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// escapeQuery percent-encodes the bytes browsers encode in http(s) queries
func escapeQuery(q string) string {
	const hexDigits = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c <= ' ', c >= 0x7f, c == '"', c == '#', c == '<', c == '>', c == '\'':
			sb.WriteByte('%')
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0x0f])
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
