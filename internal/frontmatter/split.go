package frontmatter

import "strings"

// Fence delimits a front matter block.
const Fence = "---"

// Split separates a front matter block from the body. It never fails: input that
// does not start with the fence, or whose fence is unterminated, is returned
// unchanged as the body.
//
// On success fm is re-wrapped as "---\n<trimmed yaml>\n---" and the body has its
// leading blank lines removed.
func Split(doc string) (fm, body string) {
	if !strings.HasPrefix(doc, Fence) {
		return "", doc
	}
	parts := strings.SplitN(doc, Fence, 3)
	if len(parts) < 3 {
		return "", doc
	}
	fm = Fence + "\n" + strings.TrimSpace(parts[1]) + "\n" + Fence
	return fm, trimLeadingBlankLines(parts[2])
}

// Join prepends fm to body separated by a blank line. An empty fm yields body.
func Join(fm, body string) string {
	if fm == "" {
		return body
	}
	return fm + "\n\n" + body
}

func trimLeadingBlankLines(s string) string {
	for s != "" {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			if strings.TrimSpace(s) == "" {
				return ""
			}
			return s
		}
		if strings.TrimSpace(s[:nl]) != "" {
			return s
		}
		s = s[nl+1:]
	}
	return s
}
