package projector

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeNameRe  = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	underscoresRe = regexp.MustCompile(`_+`)
)

// Untitled replaces names that sanitize to nothing.
const Untitled = "untitled"

// Sanitize turns a title into a file system name: NFC normalised, every rune
// that is not a letter, digit, underscore, hyphen or dot replaced by an
// underscore, runs of underscores collapsed and leading/trailing underscores trimmed.
func Sanitize(name string) string {
	s := norm.NFC.String(name)
	s = unsafeNameRe.ReplaceAllString(s, "_")
	s = underscoresRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	// "." and ".." are not usable names
	if s == "" || strings.Trim(s, ".") == "" {
		return Untitled
	}
	return s
}
