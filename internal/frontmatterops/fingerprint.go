package frontmatterops

import (
	"errors"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docmigrate/internal/frontmatter"
)

// ComputeFingerprint computes the canonical content fingerprint of a page from
// its parsed front matter and body. The fingerprint field itself is excluded,
// YAML is serialized with LF newlines and sorted keys, and a single trailing
// newline is trimmed before hashing.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}

	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		hashed[k] = v
	}

	fm := ""
	if len(hashed) > 0 {
		serialized, err := frontmatter.SerializeYAML(hashed, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// Fingerprint computes the fingerprint of a rendered page. Pages whose front
// matter cannot be parsed are hashed as a plain body.
func Fingerprint(content string) string {
	fields, body, _, _, err := Read([]byte(content))
	if err != nil {
		fields, body = map[string]any{}, []byte(content)
	}
	fp, err := ComputeFingerprint(fields, body)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", content)
	}
	return fp
}
