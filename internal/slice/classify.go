// Package slice selects the ordered subset of prior chunks, and the lines
// within them, needed to reproduce a set of named objects as of a target
// chunk. Relevance is decided by direct assignment only: a chunk matters
// when one of its lines assigns a requested name. No data-flow analysis is
// performed across right-hand sides, and objects mutated in place without
// rebinding their name are not tracked.
package slice

import "strings"

// LineKind tags the classification of one source line.
type LineKind int

const (
	// KindOther covers lines that assign nothing: calls, plots, prints,
	// comments, continuations.
	KindOther LineKind = iota

	// KindAssignment covers lines whose statement binds or replaces a
	// named object.
	KindAssignment
)

// Line is the structured form of one classified source line.
type Line struct {
	Kind LineKind

	// Target is the base identifier being assigned, for KindAssignment.
	// Replacement forms (x[i] <- v, x$f <- v) report the base name x.
	Target string

	// RHS is the text after the assignment operator, for KindAssignment.
	RHS string

	// Raw is the line exactly as written.
	Raw string
}

// Classify parses one source line into its tagged form. Recognized
// assignment shapes, in order:
//
//	name <- expr        name <<- expr
//	name[...] <- expr   name$field <- expr
//	name = expr         (top-level = on a bare identifier, not ==)
//	expr -> name        expr ->> name
//
// Anything else is KindOther.
func Classify(raw string) Line {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "#") {
		return Line{Kind: KindOther, Raw: raw}
	}

	if target, rhs, ok := leftAssignment(s); ok {
		return Line{Kind: KindAssignment, Target: target, RHS: rhs, Raw: raw}
	}
	if target, rhs, ok := rightAssignment(s); ok {
		return Line{Kind: KindAssignment, Target: target, RHS: rhs, Raw: raw}
	}
	return Line{Kind: KindOther, Raw: raw}
}

// leftAssignment matches "name[suffix] <- rhs", "name <<- rhs" and the
// bare-identifier "name = rhs" form.
func leftAssignment(s string) (target, rhs string, ok bool) {
	name, rest := scanIdentifier(s)
	if name == "" {
		return "", "", false
	}

	// Replacement-form suffix: any run of [..], [[..]] or $field directly
	// after the identifier. Only balanced suffixes that stay on this line
	// count; a call like name(x) is not an assignment target.
	suffixEnd, bare := scanTargetSuffix(rest)
	after := strings.TrimLeft(rest[suffixEnd:], " \t")

	switch {
	case strings.HasPrefix(after, "<<-"):
		return name, strings.TrimSpace(after[3:]), true
	case strings.HasPrefix(after, "<-"):
		return name, strings.TrimSpace(after[2:]), true
	case bare && strings.HasPrefix(after, "=") && !strings.HasPrefix(after, "=="):
		return name, strings.TrimSpace(after[1:]), true
	}
	return "", "", false
}

// rightAssignment matches "expr -> name" and "expr ->> name" with the
// target as the final token on the line.
func rightAssignment(s string) (target, rhs string, ok bool) {
	for _, op := range []string{"->>", "->"} {
		idx := strings.LastIndex(s, op)
		if idx < 0 {
			continue
		}
		tail := strings.TrimSpace(s[idx+len(op):])
		name, rest := scanIdentifier(tail)
		if name == "" || strings.TrimSpace(rest) != "" {
			continue
		}
		return name, strings.TrimSpace(s[:idx]), true
	}
	return "", "", false
}

// scanIdentifier reads a leading identifier (letters, digits, dots and
// underscores, not starting with a digit) and returns it with the remainder.
func scanIdentifier(s string) (name, rest string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '.' || c == '_' || (i > 0 && c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return "", s
	}
	return s[:i], s[i:]
}

// scanTargetSuffix consumes replacement-form suffixes ([..], $field) after
// an identifier. It returns the byte offset where the suffix ends and
// whether the target was a bare identifier with no suffix at all.
func scanTargetSuffix(s string) (end int, bare bool) {
	i := 0
	for i < len(s) {
		switch s[i] {
		case '[':
			depth := 0
			j := i
			for j < len(s) {
				switch s[j] {
				case '[':
					depth++
				case ']':
					depth--
				}
				j++
				if depth == 0 {
					break
				}
			}
			if depth != 0 {
				// Unbalanced on this line: not a recognizable target.
				return i, i == 0
			}
			i = j
		case '$':
			name, _ := scanIdentifier(s[i+1:])
			if name == "" {
				return i, i == 0
			}
			i += 1 + len(name)
		default:
			return i, i == 0
		}
	}
	return i, i == 0
}
