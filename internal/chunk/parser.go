package chunk

import (
	"strings"
)

// Parser turns document text into chunks. The zero value is not usable;
// construct with NewParser.
type Parser struct {
	unrefPrefix string
}

// NewParser creates a parser using the given unreferenced-name prefix.
// An empty prefix falls back to DefaultUnrefPrefix.
func NewParser(unrefPrefix string) *Parser {
	if unrefPrefix == "" {
		unrefPrefix = DefaultUnrefPrefix
	}
	return &Parser{unrefPrefix: unrefPrefix}
}

// Parse extracts the ordered chunk list from raw document text and builds
// the name index. Only fences starting at column 0 open or close a chunk;
// indented fences (inside list items and the like) are treated as prose.
// That restriction is part of the authoring contract for these documents,
// not something Parse tries to work around.
func (p *Parser) Parse(text string) (*Parsed, error) {
	lines := strings.Split(text, "\n")

	parsed := &Parsed{index: make(map[string]*Chunk)}
	firstSeen := make(map[string]int) // referenceable name -> opening line

	var (
		cur      *Chunk
		fenceLen int
	)

	for i, line := range lines {
		lineno := i + 1

		if cur != nil {
			if isClosingFence(line, fenceLen) {
				parsed.Chunks = append(parsed.Chunks, cur)
				if cur.Referenceable(p.unrefPrefix) {
					if prev, dup := firstSeen[cur.Name]; dup {
						return nil, &DuplicateNameError{
							Name:       cur.Name,
							FirstLine:  prev,
							SecondLine: cur.StartLine,
						}
					}
					firstSeen[cur.Name] = cur.StartLine
					parsed.index[cur.Name] = cur
				}
				cur = nil
				continue
			}
			cur.Lines = append(cur.Lines, line)
			continue
		}

		n := leadingBackticks(line)
		if n < 3 {
			continue
		}
		cur = &Chunk{
			Name:      headerName(line[n:]),
			Index:     len(parsed.Chunks),
			StartLine: lineno,
		}
		fenceLen = n
	}

	if cur != nil {
		return nil, &UnterminatedFenceError{Name: cur.Name, OpenLine: cur.StartLine}
	}
	return parsed, nil
}

// leadingBackticks counts backticks at the very start of the line.
func leadingBackticks(line string) int {
	n := 0
	for n < len(line) && line[n] == '`' {
		n++
	}
	return n
}

// isClosingFence reports whether the line closes a fence of the given
// length: backticks only (at least as many as the opener), optionally
// followed by whitespace.
func isClosingFence(line string, fenceLen int) bool {
	n := leadingBackticks(line)
	if n < fenceLen {
		return false
	}
	return strings.TrimSpace(line[n:]) == ""
}

// headerName extracts the chunk name from the text after the opening
// backticks. Named chunks use the braced form "{r name, directive=value}":
// the name is the second word of the first comma-separated field, when that
// field carries no "=". Everything else (bare language hints, directives,
// display-only fences) yields an anonymous chunk.
func headerName(header string) string {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "{") {
		return ""
	}
	end := strings.IndexByte(header, '}')
	if end < 0 {
		return ""
	}
	inner := header[1:end]

	first := inner
	if comma := strings.IndexByte(inner, ','); comma >= 0 {
		first = inner[:comma]
	}
	if strings.ContainsRune(first, '=') {
		return ""
	}

	fields := strings.Fields(first)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
