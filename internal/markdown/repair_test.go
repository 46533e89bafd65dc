package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairRules(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapse asterisks", "***Jia*** is first", "**Jia** is first"},
		{"stray bold", "The * first stem**** here", "The **first stem** here"},
		{"stray bold after italic", "*a* and * b**", "*a* and **b**"},
		{"stray bold keeps italic closer", "*a and * b**", "*a and * b**"},
		{"list marker without space", "-item", "- item"},
		{"plus marker without space", "+item", "+ item"},
		{"list marker wide gap", "*    item", "* item"},
		{"ordered marker wide gap", "2.   step", "2. step"},
		{"negative number untouched", "-5 degrees", "-5 degrees"},
		{"bold inner spaces", "** Jia ** and **Yi **", "**Jia** and **Yi**"},
		{"double colon", "Note:: read", "Note: read"},
		{"colon spacing", "Jia:the first", "Jia: the first"},
		{"colon extra spaces", "Jia:   the first", "Jia: the first"},
		{"colon at end", "Steps:", "Steps:"},
		{"time untouched", "Meet at 10:30 daily", "Meet at 10:30 daily"},
		{"url untouched", "See https://example.com/a::b for more", "See https://example.com/a::b for more"},
		{"inline code untouched", "Run `a::b ***x***` now", "Run `a::b ***x***` now"},
		{"admonition untouched", ":::tip  Title", ":::tip  Title"},
		{"table delimiter untouched", "|:---|---:|", "|:---|---:|"},
		{"thematic break untouched", "***", "***"},
		{"hr dashes untouched", "---", "---"},
		{"chinese colon untouched", "甲：天干", "甲：天干"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Repair(tc.in))
		})
	}
}

func TestRepairSkipsFencedCode(t *testing.T) {
	in := "Intro:text\n```yaml\nkey::value\n-item\n```\n-item"
	want := "Intro: text\n```yaml\nkey::value\n-item\n```\n- item"
	assert.Equal(t, want, Repair(in))
}

func TestRepairIsIdempotent(t *testing.T) {
	inputs := []string{
		"***Jia*** :: the first * Heavenly Stem****",
		"-a\n+b\n*   c\n1.    d",
		"** x ** * y**** z:w 12:00 http://a.b/c:d",
		"* list item with **bold ** text:: here",
		"```\n***\n```\n***bold***",
		"text with `code:: **` and *italic* ***",
		"",
		"\n\n",
	}
	for _, in := range inputs {
		once := Repair(in)
		assert.Equal(t, once, Repair(once), "input %q", in)
	}
}

func TestRepairLeavesCleanMarkdownAlone(t *testing.T) {
	doc := "# Title\n\n**Jia**: the first Heavenly Stem\n\n- item one\n- item two\n\n> quote: kept\n"
	assert.Equal(t, doc, Repair(doc))
}
