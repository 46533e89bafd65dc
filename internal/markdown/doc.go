// Package markdown segments Markdown lines into structural prefixes and inline
// format spans so that only human text is sent for translation, then reassembles
// and repairs the translated result.
package markdown
