// Package doctree rebuilds the two-level title hierarchy of a document from its
// flat block list.
package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is a second-level title (or the intro bucket of a section) and its content.
type Entry struct {
	Title   string
	Content string
	// Intro marks the synthetic bucket that collects content outside any second-level title.
	Intro bool
}

// Section is a top-level title with its ordered entries.
type Section struct {
	Title   string
	Entries []Entry
	index   map[string]int
}

func newSection(title string) *Section {
	return &Section{Title: title, index: map[string]int{}}
}

// Entry returns the entry with the given title.
func (s *Section) Entry(title string) (Entry, bool) {
	i, ok := s.index[title]
	if !ok {
		return Entry{}, false
	}
	return s.Entries[i], true
}

// Set stores content under title. An existing entry keeps its position.
func (s *Section) Set(title, content string, intro bool) {
	if i, ok := s.index[title]; ok {
		s.Entries[i].Content = content
		return
	}
	s.index[title] = len(s.Entries)
	s.Entries = append(s.Entries, Entry{Title: title, Content: content, Intro: intro})
}

// Append adds text to the entry under title, separated from existing content by a blank line.
func (s *Section) Append(title, text string, intro bool) {
	i, ok := s.index[title]
	if !ok {
		s.Set(title, text, intro)
		return
	}
	if s.Entries[i].Content == "" {
		s.Entries[i].Content = text
		return
	}
	s.Entries[i].Content += "\n\n" + text
}

// Structure is the ordered two-level mapping top-level title -> entry title -> content.
type Structure struct {
	Sections    []*Section
	introSuffix string
	index       map[string]int
}

// NewStructure returns an empty structure whose intro keys use suffix.
func NewStructure(introSuffix string) *Structure {
	if introSuffix == "" {
		introSuffix = DefaultIntroSuffix
	}
	return &Structure{introSuffix: introSuffix, index: map[string]int{}}
}

// IntroKey returns the intro bucket key of a section.
func (s *Structure) IntroKey(sectionTitle string) string {
	return sectionTitle + s.introSuffix
}

// Section returns the section with the given title.
func (s *Structure) Section(title string) (*Section, bool) {
	i, ok := s.index[title]
	if !ok {
		return nil, false
	}
	return s.Sections[i], true
}

// AddSection registers title, returning the existing section when already present.
func (s *Structure) AddSection(title string) *Section {
	if sec, ok := s.Section(title); ok {
		return sec
	}
	sec := newSection(title)
	s.index[title] = len(s.Sections)
	s.Sections = append(s.Sections, sec)
	return sec
}

// EntryCount returns the total number of entries across all sections.
func (s *Structure) EntryCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Entries)
	}
	return n
}

// MarshalJSON writes the structure as an object of objects, keeping insertion order.
func (s *Structure) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range s.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, sec.Title); err != nil {
			return nil, err
		}
		buf.WriteString(":{")
		for j, e := range sec.Entries {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(&buf, e.Title); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSONString(&buf, e.Content); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, v string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode appends a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON reads the ordered object-of-objects form.
func (s *Structure) UnmarshalJSON(data []byte) error {
	fresh := NewStructure(s.introSuffix)
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		title, err := stringToken(dec)
		if err != nil {
			return err
		}
		sec := fresh.AddSection(title)
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("section %q: %w", title, err)
		}
		for dec.More() {
			key, err := stringToken(dec)
			if err != nil {
				return err
			}
			var content string
			if err := dec.Decode(&content); err != nil {
				return fmt.Errorf("entry %q: %w", key, err)
			}
			sec.Set(key, content, key == fresh.IntroKey(title))
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*s = *fresh
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	str, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string key, got %v", tok)
	}
	return str, nil
}

// String renders a short outline, one title per line.
func (s *Structure) String() string {
	var sb strings.Builder
	for _, sec := range s.Sections {
		sb.WriteString(sec.Title)
		sb.WriteByte('\n')
		for _, e := range sec.Entries {
			sb.WriteString("  ")
			sb.WriteString(e.Title)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
