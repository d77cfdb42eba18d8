package export

import (
	"strings"
	"testing"
	"time"

	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shareTime = time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)

func sampleBriefing() domain.Briefing {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Briefing{
		ID:    "orig",
		Title: "Café ☕ research",
		Sources: []domain.Source{
			{ID: "s1", URL: "https://www.example.com/a", Title: "Ex", Domain: "example.com", IsValid: true},
			{ID: "s2", URL: "http://exa mple.com", Title: "http://exa mple.com"},
		},
		Notes:     []domain.Note{{ID: "n1", Text: "naïve <b>&</b>"}, {ID: "n2", Text: "second"}},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func TestShareRoundTrip(t *testing.T) {
	orig := sampleBriefing()

	payload, err := EncodeShare(orig)
	require.NoError(t, err)
	assert.NotContains(t, payload, "\n")

	got, err := DecodeShare(payload, ident.NewSequence("x", shareTime, 0))
	require.NoError(t, err)

	assert.Equal(t, orig.Title, got.Title)
	assert.NotEqual(t, orig.ID, got.ID)
	assert.Equal(t, shareTime, got.CreatedAt)
	assert.Equal(t, shareTime, got.UpdatedAt)

	require.Len(t, got.Sources, 2)
	for i, s := range got.Sources {
		assert.Equal(t, orig.Sources[i].URL, s.URL)
		assert.Equal(t, orig.Sources[i].Title, s.Title)
		assert.NotEqual(t, orig.Sources[i].ID, s.ID)
	}
	assert.Equal(t, "example.com", got.Sources[0].Domain)
	assert.True(t, got.Sources[0].IsValid)
	assert.Empty(t, got.Sources[1].Domain)
	assert.False(t, got.Sources[1].IsValid)

	require.Len(t, got.Notes, 2)
	assert.Equal(t, "naïve <b>&</b>", got.Notes[0].Text)
	assert.Equal(t, "second", got.Notes[1].Text)
	assert.NotEqual(t, orig.Notes[0].ID, got.Notes[0].ID)
}

func TestEncodeShare_MatchesBrowserEncoding(t *testing.T) {
	payload, err := EncodeShare(domain.Briefing{Title: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "eyJ0IjoiSGkiLCJzIjpbXSwibiI6W119", payload)
}

func TestDecodeShare_BrowserPayload(t *testing.T) {
	const payload = "eyJ0IjoiQ2Fmw6kg4piVIiwicyI6W3sidSI6Imh0dHBzOi8vd3d3LmV4YW1wbGUuY29tL2EiLCJ0IjoiRXgifSx7InUiOiJub3QgYSB1cmwiLCJ0Ijoibm90IGEgdXJsIn1dLCJuIjpbIm5hw692ZSJdfQ=="

	b, err := DecodeShare(payload, ident.NewSequence("x", shareTime, 0))
	require.NoError(t, err)

	assert.Equal(t, "x-1", b.ID)
	assert.Equal(t, "Café ☕", b.Title)
	assert.Equal(t, "example.com", b.Sources[0].Domain)
	assert.False(t, b.Sources[1].IsValid)
	assert.Equal(t, []domain.Note{{ID: "x-4", Text: "naïve"}}, b.Notes)

	unpadded, err := DecodeShare(strings.TrimRight(payload, "="), ident.NewSequence("x", shareTime, 0))
	require.NoError(t, err)
	assert.Equal(t, b, unpadded)

	escaped, err := DecodeShare(strings.ReplaceAll(payload, "=", "%3D"), ident.NewSequence("x", shareTime, 0))
	require.NoError(t, err)
	assert.Equal(t, b, escaped)
}

func TestDecodeShare_Malformed(t *testing.T) {
	p := ident.NewSequence("x", shareTime, 0)
	for _, payload := range []string{
		"",
		"!!!not base64!!!",
		"bm90IGpzb24",                  // "not json"
		"e30",                          // "{}"
		"eyJ0IjoiSGkiLCJzIjpbXX0",      // {"t":"Hi","s":[]}
		"eyJ0IjoxLCJzIjpbXSwibiI6W119", // {"t":1,"s":[],"n":[]}
	} {
		_, err := DecodeShare(payload, p)
		assert.ErrorIs(t, err, ErrInvalidShare, "payload %q", payload)
	}
}

func TestShareURL(t *testing.T) {
	b := sampleBriefing()

	link, err := ShareURL("https://linkloom.app/app#old", b)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://linkloom.app/app#b="))

	payload, ok := ParseShareURL(link)
	require.True(t, ok)
	decoded, err := DecodeShare(payload, ident.System{})
	require.NoError(t, err)
	assert.Equal(t, b.Title, decoded.Title)
}

func TestParseShareURL(t *testing.T) {
	tests := []struct {
		raw     string
		payload string
		ok      bool
	}{
		{"https://linkloom.app/#b=abc", "abc", true},
		{"  eyJ0IjoiSGkifQ==  ", "eyJ0IjoiSGkifQ==", true},
		{"https://linkloom.app/", "", false},
		{"https://linkloom.app/#other", "", false},
		{"https://linkloom.app/#b=", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		payload, ok := ParseShareURL(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.payload, payload, tt.raw)
	}
}
