package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// maxRepairPasses bounds the fixed-point iteration of Repair.
const maxRepairPasses = 8

var (
	manyStarsRe    = regexp.MustCompile(`\*{3,}`)
	strayBoldRe    = regexp.MustCompile(`\*( ?)([^*\n]+?)\*\*`)
	markerNoGapRe  = regexp.MustCompile(`^([ \t]*)([-+])([^-+*>\s\d])`)
	markerGapRe    = regexp.MustCompile(`^([ \t]*)([-+*]|\d+\.)(?:\t|[ \t]{2,})(\S)`)
	boldSpacesRe   = regexp.MustCompile(`\*\*[ \t]*([^*\n]+?)[ \t]*\*\*`)
	manyColonsRe   = regexp.MustCompile(`:{2,}`)
	colonRe        = regexp.MustCompile(`:[ \t]*`)
	inlineCodeRe   = regexp.MustCompile("`[^`\n]*`")
	urlRe          = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.\-]*://[^\s)\]>\x{E000}]*`)
	tableDelimRe   = regexp.MustCompile(`^\s*\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?\s*$`)
	placeholderRe  = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
	fenceMarkerRes = []string{"```", "~~~"}
	thematicRes    = []*regexp.Regexp{
		regexp.MustCompile(`^(\*[ \t]*){3,}$`),
		regexp.MustCompile(`^(-[ \t]*){3,}$`),
		regexp.MustCompile(`^(_[ \t]*){3,}$`),
	}
)

// Placeholders for masked spans use private-use runes that never occur in text.
const (
	maskOpen  = "\uE000"
	maskClose = "\uE001"
)

// Repair cleans up emphasis, list marker and colon artifacts that translation
// engines introduce. Fenced code blocks, inline code, URLs, admonition fences
// and table delimiter rows are left untouched. The rules are applied until the
// text stops changing, so Repair(Repair(x)) == Repair(x).
func Repair(text string) string {
	for range maxRepairPasses {
		next := repairOnce(text)
		if next == text {
			return next
		}
		text = next
	}
	return text
}

func repairOnce(text string) string {
	lines := strings.Split(text, "\n")
	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence || skipLine(line) {
			continue
		}
		lines[i] = repairLine(line)
	}
	return strings.Join(lines, "\n")
}

func isFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, m := range fenceMarkerRes {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	return false
}

func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ":::") {
		return true
	}
	for _, re := range thematicRes {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return strings.Contains(trimmed, "|") && tableDelimRe.MatchString(trimmed)
}

func repairLine(line string) string {
	masked, saved := mask(line)

	masked = manyStarsRe.ReplaceAllString(masked, "**")
	masked = fixStrayBold(masked)
	masked = markerNoGapRe.ReplaceAllString(masked, "$1$2 $3")
	masked = markerGapRe.ReplaceAllString(masked, "$1$2 $3")
	masked = boldSpacesRe.ReplaceAllString(masked, "**$1**")
	masked = manyColonsRe.ReplaceAllString(masked, ":")
	masked = fixColonSpacing(masked)

	return unmask(masked, saved)
}

// fixStrayBold turns "* text**" into "**text**" unless the single asterisk is a
// list marker at line start or closes an italic span opened earlier on the line.
func fixStrayBold(line string) string {
	matches := strayBoldRe.FindAllStringSubmatchIndex(line, -1)
	if matches == nil {
		return line
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && line[start-1] == '*' {
			continue
		}
		if strings.Count(line[:start], "*")%2 != 0 {
			continue
		}
		if strings.TrimSpace(line[:start]) == "" && m[3] > m[2] {
			continue
		}
		sb.WriteString(line[last:start])
		sb.WriteString("**" + strings.TrimSpace(line[m[4]:m[5]]) + "**")
		last = end
	}
	sb.WriteString(line[last:])
	return sb.String()
}

// fixColonSpacing makes exactly one space follow every colon that is followed by
// more text. Colons between two digits (times, ratios) are left alone.
func fixColonSpacing(line string) string {
	matches := colonRe.FindAllStringIndex(line, -1)
	if matches == nil {
		return line
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if end >= len(line) {
			continue
		}
		if end == start+1 && start > 0 && isDigit(line[start-1]) && isDigit(line[end]) {
			continue
		}
		sb.WriteString(line[last:start])
		sb.WriteString(": ")
		last = end
	}
	sb.WriteString(line[last:])
	return sb.String()
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func mask(line string) (string, []string) {
	var saved []string
	replace := func(s string) string {
		saved = append(saved, s)
		return maskOpen + strconv.Itoa(len(saved)-1) + maskClose
	}
	line = inlineCodeRe.ReplaceAllStringFunc(line, replace)
	line = urlRe.ReplaceAllStringFunc(line, replace)
	return line, saved
}

func unmask(line string, saved []string) string {
	if len(saved) == 0 {
		return line
	}
	return placeholderRe.ReplaceAllStringFunc(line, func(p string) string {
		idx, err := strconv.Atoi(p[len(maskOpen) : len(p)-len(maskClose)])
		if err != nil || idx >= len(saved) {
			return p
		}
		return saved[idx]
	})
}
