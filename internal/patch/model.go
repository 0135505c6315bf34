package patch

import (
	"regexp"
	"strings"
)

// RegionKind identifies one of the two patchable regions of the artifact.
type RegionKind int

const (
	// StructRegion is the field-declaration block of `type Config struct`.
	StructRegion RegionKind = iota
	// DefaultsRegion is the composite literal that builds the default Config.
	DefaultsRegion
)

func (k RegionKind) String() string {
	if k == StructRegion {
		return "Config struct fields"
	}
	return "Config defaults"
}

// Entry is one field declaration or keyed default inside a region.
type Entry struct {
	Name string
	Line int // first line of the entry
	End  int // last line of the entry, inclusive
}

// Region is a brace-delimited block with its entries in source order.
type Region struct {
	Kind    RegionKind
	Open    int // line holding the opening brace
	OpenCol int
	Close   int // line holding the closing brace
	Entries []Entry
	depth   int // brace depth outside the region
}

// Lookup returns the entry declaring name.
func (r *Region) Lookup(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns entry names in source order.
func (r *Region) Names() []string {
	names := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		names = append(names, e.Name)
	}
	return names
}

// Model is a minimal structural view of the configuration artifact. It is
// not an AST: only the two regions and their entries are located.
type Model struct {
	lines    []string
	eol      string
	info     []lineState
	Struct   *Region
	Defaults *Region
}

// Region returns the region of kind k, or nil when it was not found.
func (m *Model) Region(k RegionKind) *Region {
	if k == StructRegion {
		return m.Struct
	}
	return m.Defaults
}

// Declares reports whether name is a field of the Config struct or a key of
// the defaults literal.
func (m *Model) Declares(name string) bool {
	for _, r := range []*Region{m.Struct, m.Defaults} {
		if r == nil {
			continue
		}
		if _, ok := r.Lookup(name); ok {
			return true
		}
	}
	return false
}

// Text reassembles the model's lines.
func (m *Model) Text() string {
	return strings.Join(m.lines, m.eol)
}

var (
	structOpen   = regexp.MustCompile(`^\s*(?:type\s+)?Config\s+struct\s*\{`)
	defaultsOpen = regexp.MustCompile(`(?:\w+\s*:?=\s*|return\s+)&?Config\s*\{`)
	fieldName    = regexp.MustCompile(`^([A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s+\S`)
	keyName      = regexp.MustCompile(`^([A-Za-z_]\w*)\s*:[^=]`)
	leadingIdent = regexp.MustCompile(`^([A-Za-z_]\w*)`)
)

// Parse builds a Model from the artifact text. Regions that cannot be found
// are left nil.
func Parse(text string) *Model {
	m := &Model{lines: strings.Split(text, "\n"), eol: lineEnding(text)}
	if m.eol == crlf {
		for i, l := range m.lines {
			m.lines[i] = strings.TrimSuffix(l, "\r")
		}
	}
	var braces []brace
	m.info, braces = scan(m.lines)

	for i, line := range m.lines {
		if !m.info[i].code() {
			continue
		}
		if loc := structOpen.FindStringIndex(line); loc != nil {
			m.Struct = m.region(StructRegion, i, loc[1]-1, braces)
			break
		}
	}

	for i, line := range m.lines {
		if !m.info[i].code() {
			continue
		}
		loc := defaultsOpen.FindStringIndex(line)
		if loc == nil || strings.Contains(line[:loc[0]], "//") {
			continue
		}
		m.Defaults = m.region(DefaultsRegion, i, loc[1]-1, braces)
		break
	}

	return m
}

const crlf = "\r\n"

// lineEnding returns "\r\n" for text written with Windows line endings and
// "\n" otherwise. Inserted lines follow the file's convention.
func lineEnding(text string) string {
	if strings.Contains(text, crlf) {
		return crlf
	}
	return "\n"
}

// region resolves the braces opened at (line, col) and collects entries.
func (m *Model) region(kind RegionKind, line, col int, braces []brace) *Region {
	open := -1
	for i, b := range braces {
		if b.open && b.line == line && b.col == col {
			open = i
			break
		}
	}
	if open < 0 {
		return nil
	}

	depth := braces[open].depth
	closeLine := -1
	for _, b := range braces[open+1:] {
		if !b.open && b.depth == depth {
			closeLine = b.line
			break
		}
	}
	if closeLine < 0 {
		return nil
	}

	r := &Region{Kind: kind, Open: line, OpenCol: col, Close: closeLine, depth: depth}
	for i := line + 1; i <= closeLine; i++ {
		st := m.info[i]
		if !st.code() || st.depth != depth+1 {
			continue
		}
		trimmed := strings.TrimSpace(m.lines[i])
		var names []string
		switch kind {
		case StructRegion:
			if sm := fieldName.FindStringSubmatch(trimmed); sm != nil {
				for _, n := range strings.Split(sm[1], ",") {
					names = append(names, strings.TrimSpace(n))
				}
			}
		case DefaultsRegion:
			if sm := keyName.FindStringSubmatch(trimmed + " "); sm != nil {
				names = append(names, sm[1])
			}
		}
		if len(names) == 0 {
			continue
		}

		end := i
		for end+1 < closeLine {
			next := m.info[end+1]
			if next.code() && next.depth <= depth+1 {
				break
			}
			end++
		}
		for _, n := range names {
			r.Entries = append(r.Entries, Entry{Name: n, Line: i, End: end})
		}
	}
	return r
}

// lineState is the lexer state at the start of a line.
type lineState struct {
	depth int
	mode  lexMode
}

// code reports whether the line starts outside comments and raw strings.
func (s lineState) code() bool {
	return s.mode == modeCode
}

type lexMode int

const (
	modeCode lexMode = iota
	modeBlockComment
	modeRawString
)

type brace struct {
	line, col int
	open      bool
	depth     int // depth outside the pair
}

// scan walks the text once, tracking comments and string literals so that
// braces inside them are ignored.
func scan(lines []string) ([]lineState, []brace) {
	info := make([]lineState, len(lines))
	var braces []brace
	depth := 0
	mode := modeCode

	for li, line := range lines {
		info[li] = lineState{depth: depth, mode: mode}
		inString := byte(0)
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case mode == modeBlockComment:
				if c == '*' && i+1 < len(line) && line[i+1] == '/' {
					mode = modeCode
					i++
				}
			case mode == modeRawString:
				if c == '`' {
					mode = modeCode
				}
			case inString != 0:
				if c == '\\' {
					i++
				} else if c == inString {
					inString = 0
				}
			case c == '/' && i+1 < len(line) && line[i+1] == '/':
				i = len(line)
			case c == '/' && i+1 < len(line) && line[i+1] == '*':
				mode = modeBlockComment
				i++
			case c == '`':
				mode = modeRawString
			case c == '"' || c == '\'':
				inString = c
			case c == '{':
				braces = append(braces, brace{line: li, col: i, open: true, depth: depth})
				depth++
			case c == '}':
				depth--
				braces = append(braces, brace{line: li, col: i, open: false, depth: depth})
			}
		}
	}
	return info, braces
}

// indentOf returns the leading whitespace of s.
func indentOf(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
