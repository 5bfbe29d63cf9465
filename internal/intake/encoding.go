package intake

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalizeCSV re-encodes the payload to BOM-prefixed UTF-8 so spreadsheet
// tools open it with the right encoding. Non-UTF-8 input is decoded
// best-effort as Windows-1252, the usual legacy-export encoding; input that
// fails even that is passed through unchanged. Validation has already run by
// the time this is applied.
func normalizeCSV(data []byte) []byte {
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err == nil {
			data = decoded
		}
	}
	if bytes.HasPrefix(data, utf8BOM) {
		return data
	}
	out := make([]byte, 0, len(utf8BOM)+len(data))
	out = append(out, utf8BOM...)
	return append(out, data...)
}
