package briefing

import (
	"strings"

	"github.com/pbaille/linkloom/internal/classifier"
)

// URLPatch points a source at raw. Domain and validity are derived from the
// new URL; an unparseable URL is stored as typed and marked invalid.
func URLPatch(raw string) SourcePatch {
	raw = strings.TrimSpace(raw)
	canonical, host, ok := classifier.Resolve(raw)
	if !ok {
		canonical, host = raw, ""
	}
	return SourcePatch{URL: &canonical, Domain: &host, IsValid: &ok}
}
