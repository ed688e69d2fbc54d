// Package chunk parses a document's raw text into its ordered sequence of
// fenced code chunks and indexes the referenceable ones by name.
//
// A chunk is referenceable when it carries a name on its opening fence and
// that name does not start with the reserved unreferenced prefix. Anonymous
// chunks still occupy a position in the execution order; they are simply
// invisible to lookups.
package chunk

import "strings"

// DefaultUnrefPrefix marks chunk names that are excluded from lookup.
const DefaultUnrefPrefix = "unref-"

// Chunk is one fenced code block within a document, in execution order.
type Chunk struct {
	// Name is the label from the opening fence, empty for anonymous chunks.
	Name string

	// Index is the chunk's position among all chunks in the document,
	// starting at 0. Source order is execution order.
	Index int

	// StartLine is the 1-based line number of the opening fence.
	StartLine int

	// Lines holds the chunk body exactly as written, fences excluded.
	Lines []string
}

// Referenceable reports whether the chunk can be addressed by name.
func (c *Chunk) Referenceable(unrefPrefix string) bool {
	return c.Name != "" && !strings.HasPrefix(c.Name, unrefPrefix)
}

// Parsed is the result of parsing one document: the full ordered chunk list
// plus an index over the referenceable names. Read-only after construction.
type Parsed struct {
	Chunks []*Chunk

	index map[string]*Chunk
}

// Lookup returns the referenceable chunk with the given name.
func (p *Parsed) Lookup(name string) (*Chunk, bool) {
	c, ok := p.index[name]
	return c, ok
}

// Names returns the referenceable chunk names in execution order.
func (p *Parsed) Names() []string {
	names := make([]string, 0, len(p.index))
	for _, c := range p.Chunks {
		if _, ok := p.index[c.Name]; ok {
			names = append(names, c.Name)
		}
	}
	return names
}
