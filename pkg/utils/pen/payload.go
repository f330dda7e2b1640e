package pen

import (
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/unicode"
)

// Payload renders raw connection bytes for a log line. Invalid UTF-8 is replaced
// with U+FFFD and control characters are escaped, so any input is accepted.
// At most max bytes are rendered; max <= 0 renders nothing but the size.
func Payload(b []byte, max int) string {
	if max <= 0 {
		return fmt.Sprintf("<%d bytes>", len(b))
	}
	shown := b
	if len(shown) > max {
		shown = shown[:max]
	}

	text, err := unicode.UTF8.NewDecoder().Bytes(shown)
	if err != nil {
		return fmt.Sprintf("<%d bytes>", len(b))
	}
	out := strconv.Quote(string(text))
	if rest := len(b) - len(shown); rest > 0 {
		out = fmt.Sprintf("%s (+%d bytes)", out, rest)
	}
	return out
}
