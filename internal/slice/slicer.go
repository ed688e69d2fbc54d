package slice

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nbcache/internal/chunk"
)

// ErrUnknownChunk is returned when the target chunk name is not a
// referenceable chunk of the document.
var ErrUnknownChunk = errors.New("unknown chunk")

// UnknownChunkError carries the missing name and the names that do exist.
type UnknownChunkError struct {
	Name      string
	Available []string
}

func (e *UnknownChunkError) Error() string {
	return fmt.Sprintf("unknown chunk %q (referenceable chunks: %v)", e.Name, e.Available)
}

func (e *UnknownChunkError) Unwrap() error { return ErrUnknownChunk }

// ChunkSlice is one kept chunk together with the lines that assign a
// requested object. Lines preserve source order.
type ChunkSlice struct {
	Chunk *chunk.Chunk
	Lines []string
}

// Slicer computes reproduction slices over parsed documents.
type Slicer struct {
	unrefPrefix string
	log         *zap.Logger
}

// NewSlicer creates a slicer. An empty prefix falls back to
// chunk.DefaultUnrefPrefix; a nil logger is replaced with a nop logger.
func NewSlicer(unrefPrefix string, log *zap.Logger) *Slicer {
	if unrefPrefix == "" {
		unrefPrefix = chunk.DefaultUnrefPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Slicer{unrefPrefix: unrefPrefix, log: log}
}

// Slice computes the ordered (chunk, lines) pairs needed to reproduce the
// requested objects as of the target chunk.
//
// The pass runs backward from the target: a statement is kept when it
// assigns an interesting name, and the identifiers on its right-hand side
// join the interesting set so that their own assignments in earlier chunks
// are kept too. Names are only ever added, never removed, so extending the
// requested object set can only grow the kept-chunk set. Output order is
// source order. Every assigning chunk is kept, not just the last one, so
// the full mutation history of each object stays visible.
//
// Anonymous and unreferenced chunks are skipped: their side effects are
// already baked into the compiled cache and are not re-derived. A requested
// object that no referenceable chunk assigns is not an error here; whether
// it exists at all is settled by the cache load that follows.
func (s *Slicer) Slice(doc *chunk.Parsed, target string, objects []string) ([]ChunkSlice, error) {
	tc, ok := doc.Lookup(target)
	if !ok {
		return nil, &UnknownChunkError{Name: target, Available: doc.Names()}
	}

	interesting := make(map[string]bool, len(objects))
	for _, name := range objects {
		interesting[name] = true
	}

	// Candidate chunks in source order: referenceable, at or before target.
	var candidates []*chunk.Chunk
	for _, c := range doc.Chunks {
		if c.Index > tc.Index {
			break
		}
		if c.Referenceable(s.unrefPrefix) {
			candidates = append(candidates, c)
		}
	}

	// Backward pass: keep assigning statements, grow the interesting set.
	kept := make(map[int][]statement, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		stmts := groupStatements(c.Lines)
		for j := len(stmts) - 1; j >= 0; j-- {
			st := stmts[j]
			if st.head.Kind != KindAssignment || !interesting[st.head.Target] {
				continue
			}
			kept[c.Index] = append([]statement{st}, kept[c.Index]...)
			for _, id := range st.rhsIdentifiers() {
				interesting[id] = true
			}
		}
	}

	// Forward pass: emit kept chunks in source order.
	var out []ChunkSlice
	for _, c := range candidates {
		stmts := kept[c.Index]
		if len(stmts) == 0 {
			continue
		}
		var lines []string
		for _, st := range stmts {
			lines = append(lines, st.lines...)
		}
		s.log.Debug("kept chunk in slice",
			zap.String("chunk", c.Name),
			zap.Int("lines", len(lines)))
		out = append(out, ChunkSlice{Chunk: c, Lines: lines})
	}
	return out, nil
}

// statement is one source statement: its classified head line plus any
// continuation lines left open by unbalanced brackets.
type statement struct {
	head  Line
	lines []string
}

// rhsIdentifiers lists the identifier tokens of an assignment's right-hand
// side, continuation lines included. Function names are reported along with
// variables; treating a called name as interesting at worst keeps the
// chunk that defines it, which is exactly what a reader reconstructing the
// object wants to see.
func (st statement) rhsIdentifiers() []string {
	if st.head.Kind != KindAssignment {
		return nil
	}
	ids := identifiers(st.head.RHS)
	for _, cont := range st.lines[1:] {
		ids = append(ids, identifiers(cont)...)
	}
	return ids
}

// groupStatements splits a chunk body into statements, carrying bracket
// continuations with the line that opened them.
func groupStatements(body []string) []statement {
	var (
		stmts []statement
		open  int
	)
	for _, raw := range body {
		if open > 0 && len(stmts) > 0 {
			last := &stmts[len(stmts)-1]
			last.lines = append(last.lines, raw)
			open += bracketDelta(raw)
			if open < 0 {
				open = 0
			}
			continue
		}
		stmts = append(stmts, statement{head: Classify(raw), lines: []string{raw}})
		open = bracketDelta(raw)
		if open < 0 {
			open = 0
		}
	}
	return stmts
}

// identifiers extracts identifier tokens from a line of code, skipping
// string literal contents.
func identifiers(s string) []string {
	var (
		ids   []string
		quote byte
		inStr bool
	)
	for i := 0; i < len(s); {
		c := s[i]
		if inStr {
			if c == '\\' {
				i += 2
				continue
			}
			if c == quote {
				inStr = false
			}
			i++
			continue
		}
		switch {
		case c == '"' || c == '\'':
			inStr, quote = true, c
			i++
		case c == '#':
			return ids
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			ids = append(ids, s[i:j])
			i = j
		default:
			i++
		}
	}
	return ids
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '.' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// bracketDelta counts opening minus closing brackets on a line. Brackets
// inside string literals are not excluded; documents that embed unbalanced
// brackets in strings will drag extra lines into the slice.
func bracketDelta(line string) int {
	d := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(', '[', '{':
			d++
		case ')', ']', '}':
			d--
		}
	}
	return d
}
