// Package render turns a dependency slice into a displayable snippet: a
// collapsible markdown block holding the reconstructed code. The snippet is
// for human inspection during authoring; nothing re-executes it.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"nbcache/internal/slice"
)

// DefaultSummary is the disclosure label used when none is configured.
const DefaultSummary = "See previous code"

// Section is one kept chunk of the snippet.
type Section struct {
	Chunk string
	Lines []string
}

// Snippet is the rendered output of one extraction: the kept chunks in
// execution order.
type Snippet struct {
	Summary  string
	Sections []Section
}

// New builds a snippet from sliced chunks.
func New(slices []slice.ChunkSlice) *Snippet {
	s := &Snippet{Summary: DefaultSummary}
	for _, cs := range slices {
		s.Sections = append(s.Sections, Section{Chunk: cs.Chunk.Name, Lines: cs.Lines})
	}
	return s
}

// Code returns the reconstructed code alone: each section under a
// "#--- name ---#" header, in order.
func (s *Snippet) Code() string {
	var b strings.Builder
	for i, sec := range s.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "#--- %s ---#\n", sec.Chunk)
		for _, line := range sec.Lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown wraps the code in a collapsible details block with a fenced
// code region, ready for inclusion in a compiled document.
func (s *Snippet) Markdown() string {
	var b strings.Builder
	b.WriteString("<details>\n")
	fmt.Fprintf(&b, "<summary>%s</summary>\n\n", s.Summary)
	b.WriteString("```r\n")
	b.WriteString(s.Code())
	b.WriteString("```\n\n")
	b.WriteString("</details>\n")
	return b.String()
}

// Terminal renders the snippet's markdown for an ANSI terminal.
func (s *Snippet) Terminal(width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build terminal renderer: %w", err)
	}
	out, err := r.Render(s.Markdown())
	if err != nil {
		return "", fmt.Errorf("failed to render snippet: %w", err)
	}
	return out, nil
}
