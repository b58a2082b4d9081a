// Package identifier extracts catalog identifiers from folder names.
package identifier

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// codeRE matches an RJ or VJ code anywhere in a folder name. Only the first
// match counts.
var codeRE = regexp.MustCompile(`([RV]J\d+)`)

// ManualPrefix marks identifiers minted locally for folders that carry no
// recognizable code.
const ManualPrefix = "MANUAL_"

// Extract returns the first RJ/VJ code found in name, or false if the name
// contains none.
func Extract(name string) (string, bool) {
	m := codeRE.FindString(name)
	if m == "" {
		return "", false
	}
	return m, true
}

// Prefix returns the two-letter prefix of an identifier ("RJ" or "VJ").
func Prefix(code string) string {
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}

// NewManualCode mints a synthetic identifier for a manually registered entry.
func NewManualCode(now time.Time) string {
	return fmt.Sprintf("%s%d", ManualPrefix, now.Unix())
}

// IsManual reports whether code was minted by NewManualCode.
func IsManual(code string) bool {
	return strings.HasPrefix(code, ManualPrefix)
}
