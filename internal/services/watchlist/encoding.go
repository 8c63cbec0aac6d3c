package watchlist

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeFile converts raw watchlist bytes to UTF-8, detecting the source
// encoding from {utf-8, utf-8-bom, big5, gbk, cp950}. CP950 is Microsoft's
// Big5 variant and is covered by the Big5 decoder.
func decodeFile(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(bytes.TrimPrefix(data, utf8BOM)), "utf-8-bom", nil
	}
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	if decoded, err := traditionalchinese.Big5.NewDecoder().Bytes(data); err == nil && utf8.Valid(decoded) {
		return string(decoded), "big5", nil
	}

	if decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data); err == nil && utf8.Valid(decoded) {
		return string(decoded), "gbk", nil
	}

	return "", "", fmt.Errorf("unable to detect watchlist encoding")
}
