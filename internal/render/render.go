// Package render turns message text into display blocks. It never interprets the text: hosts must
// emit every block as literal text (escaped HTML, plain terminal text).
package render

import "strings"

// SourcesLabel is the heading placed above a non-empty source list.
const SourcesLabel = "Sources:"

const paragraphSeparator = "\n\n"

// Rendered is the display form of one message.
type Rendered struct {
	Paragraphs []string
	Sources    []string
}

// HasSources reports whether a labeled source list should be shown.
func (r Rendered) HasSources() bool {
	return len(r.Sources) > 0
}

// SourcesLabel returns the source list heading, or an empty string when there is no list.
func (r Rendered) SourcesLabel() string {
	if !r.HasSources() {
		return ""
	}
	return SourcesLabel
}

// Render splits text into paragraphs on blank-line boundaries and attaches sources in the order
// given. Paragraphs that are empty after trimming are dropped; the others are kept untouched.
func Render(text string, sources []string) Rendered {
	var paragraphs []string
	for _, p := range strings.Split(text, paragraphSeparator) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}

	var srcs []string
	if len(sources) > 0 {
		srcs = make([]string, len(sources))
		copy(srcs, sources)
	}

	return Rendered{
		Paragraphs: paragraphs,
		Sources:    srcs,
	}
}
