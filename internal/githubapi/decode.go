package githubapi

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// fallbackCharmaps are tried in priority order when bytes are not valid UTF-8.
var fallbackCharmaps = []*charmap.Charmap{
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// decodeText repairs raw file bytes into a UTF-8 string. Valid UTF-8 passes
// through untouched; otherwise the fallback charmaps are tried in order and,
// failing all of them, invalid sequences are replaced so the result is
// always populated.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	for _, cm := range fallbackCharmaps {
		out, err := cm.NewDecoder().Bytes(raw)
		if err == nil && utf8.Valid(out) {
			return string(out)
		}
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
