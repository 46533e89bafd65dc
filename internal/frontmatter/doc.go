// Package frontmatter separates `---` fenced YAML metadata from Markdown bodies.
//
// Split and Join are the lenient pair used on the translation path: they never
// fail and normalise the fence to "---\n<yaml>\n---". Parse and Assemble are the
// strict byte-level pair used when rewriting files already on disk.
package frontmatter
