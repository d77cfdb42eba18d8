package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pbaille/linkloom/internal/classifier"
	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ident"
)

// FragmentPrefix introduces a share payload in a URL fragment
const FragmentPrefix = "#b="

// ErrInvalidShare is returned for payloads that cannot be decoded
var ErrInvalidShare = errors.New("invalid share payload")

// sharePayload is the content-only projection carried by a share link.
// Ids, timestamps and domains are left out on purpose.
type sharePayload struct {
	Title   string        `json:"t"`
	Sources []shareSource `json:"s"`
	Notes   []string      `json:"n"`
}

type shareSource struct {
	URL   string `json:"u"`
	Title string `json:"t"`
}

// EncodeShare packs the content of b into a base64 payload
func EncodeShare(b domain.Briefing) (string, error) {
	p := sharePayload{
		Title:   b.Title,
		Sources: make([]shareSource, len(b.Sources)),
		Notes:   make([]string, len(b.Notes)),
	}
	for i, s := range b.Sources {
		p.Sources[i] = shareSource{URL: s.URL, Title: s.Title}
	}
	for i, n := range b.Notes {
		p.Notes[i] = n.Text
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode share: %w", err)
	}

	return base64.StdEncoding.EncodeToString(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodeShare rebuilds a briefing from a share payload. The briefing and every
// item get fresh ids, both timestamps are set to now, and each source's
// domain and validity are derived again from its URL.
func DecodeShare(payload string, p ident.Provider) (domain.Briefing, error) {
	data, err := decodeBase64(strings.TrimSpace(payload))
	if err != nil {
		return domain.Briefing{}, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	var sp struct {
		Title   *string        `json:"t"`
		Sources *[]shareSource `json:"s"`
		Notes   *[]string      `json:"n"`
	}
	if err := json.Unmarshal(data, &sp); err != nil {
		return domain.Briefing{}, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	if sp.Title == nil || sp.Sources == nil || sp.Notes == nil {
		return domain.Briefing{}, fmt.Errorf("%w: missing fields", ErrInvalidShare)
	}

	now := p.Now()
	b := domain.Briefing{
		ID:        p.NewID(),
		Title:     *sp.Title,
		Sources:   make([]domain.Source, 0, len(*sp.Sources)),
		Notes:     make([]domain.Note, 0, len(*sp.Notes)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, s := range *sp.Sources {
		_, host, ok := classifier.Resolve(s.URL)
		b.Sources = append(b.Sources, domain.Source{
			ID:      p.NewID(),
			URL:     s.URL,
			Title:   s.Title,
			Domain:  host,
			IsValid: ok,
		})
	}
	for _, text := range *sp.Notes {
		b.Notes = append(b.Notes, domain.Note{ID: p.NewID(), Text: text})
	}

	return b, nil
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not
func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty payload")
	}
	// Payloads copied out of an address bar may come back percent-encoded
	if strings.Contains(s, "%") {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return nil, err
		}
		s = unescaped
	}
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// ShareURL builds a link to base carrying the encoded briefing
func ShareURL(base string, b domain.Briefing) (string, error) {
	payload, err := EncodeShare(b)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + FragmentPrefix + payload, nil
}

// ParseShareURL extracts the payload of a "#b=" fragment. A bare payload is
// returned as is.
func ParseShareURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	i := strings.Index(raw, FragmentPrefix)
	if i < 0 {
		if strings.Contains(raw, "://") || strings.Contains(raw, "#") {
			return "", false
		}
		return raw, true
	}
	payload := raw[i+len(FragmentPrefix):]
	return payload, payload != ""
}
