// Package patch inserts module configuration fragments into the generated
// pkg/config/config.go of a project.
//
// The artifact is viewed through a small structural Model: the field block
// of `type Config struct` and the composite literal that builds the default
// Config. Each fragment part names a sentinel entry and an ordered list of
// anchors. A part whose sentinel is already declared is left alone, so
// applying a fragment twice is a no-op. A part whose anchors all fail to
// resolve is reported with a manual instruction and never force-inserted.
package patch

import (
	"fmt"
	"go/format"
	"strings"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

// DefaultPath is the artifact location relative to the project root.
const DefaultPath = "pkg/config/config.go"

// Anchor names an insertion point inside a region.
type Anchor struct {
	after string // entry name; empty means before the closing brace
}

// After anchors the insertion right after the entry declaring name.
func After(name string) Anchor { return Anchor{after: name} }

// End anchors the insertion just before the region's closing brace.
func End() Anchor { return Anchor{} }

func (a Anchor) String() string {
	if a.after == "" {
		return "end"
	}
	return "after " + a.after
}

// Part is the half of a fragment that targets one region.
type Part struct {
	// Sentinel is the entry whose presence marks the part as applied.
	Sentinel string
	// Anchors are tried in order; the first that resolves wins.
	Anchors []Anchor
	// Lines are inserted without leading indentation.
	Lines []string
}

// Fragment is what a module contributes to the configuration artifact.
type Fragment struct {
	Module   string
	Struct   Part
	Defaults Part
}

// Sentinels returns the names that mark the fragment as installed.
func (f *Fragment) Sentinels() []string {
	return []string{f.Struct.Sentinel, f.Defaults.Sentinel}
}

// Status is the outcome for one part.
type Status int

const (
	StatusApplied Status = iota
	StatusAlreadyPresent
	StatusAnchorNotFound
	StatusRegionNotFound
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusAlreadyPresent:
		return "already present"
	case StatusAnchorNotFound:
		return "anchor not found"
	case StatusRegionNotFound:
		return "region not found"
	}
	return "unknown"
}

// PartResult records what happened to one part.
type PartResult struct {
	Region   RegionKind
	Status   Status
	Anchor   string   // anchor used when applied
	Fallback bool     // applied through an anchor other than the first
	Inserted []string // lines inserted
	Skipped  []string // entries already declared and therefore not inserted
}

// Result is the outcome of Apply.
type Result struct {
	// Text is the patched text. When Changed is false it is byte-identical
	// to the input.
	Text         string
	Changed      bool
	Parts        []PartResult
	Instructions []string
}

// Partial reports whether some part could not be placed.
func (r *Result) Partial() bool {
	for _, p := range r.Parts {
		if p.Status == StatusAnchorNotFound || p.Status == StatusRegionNotFound {
			return true
		}
	}
	return false
}

// Err converts a partial result into a warning-severity error, or nil.
func (r *Result) Err(module string) error {
	for _, p := range r.Parts {
		code := ""
		switch p.Status {
		case StatusAnchorNotFound:
			code = generrors.ErrCodePatchAnchorNotFound
		case StatusRegionNotFound:
			code = generrors.ErrCodePatchRegionNotFound
		default:
			continue
		}
		return generrors.New(code,
			fmt.Sprintf("could not place %s for module %s", p.Region, module), nil).
			WithDetail("module", module).
			WithSuggestion("Add the listed lines to pkg/config/config.go by hand")
	}
	return nil
}

// Options controls Apply.
type Options struct {
	// Format runs gofmt over the text when it changed.
	Format bool
	// Path is the artifact path used in manual instructions.
	Path string
}

// Apply inserts frag into text. It never returns an error: parts that
// cannot be placed are reported in the result.
func Apply(text string, frag *Fragment, opts Options) Result {
	res := Result{Text: text}
	if frag == nil {
		return res
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}

	cur := text
	for _, step := range []struct {
		kind RegionKind
		part Part
	}{
		{StructRegion, frag.Struct},
		{DefaultsRegion, frag.Defaults},
	} {
		if len(step.part.Lines) == 0 {
			continue
		}
		var pr PartResult
		cur, pr = applyPart(cur, step.kind, step.part)
		res.Parts = append(res.Parts, pr)
		if pr.Status == StatusAnchorNotFound || pr.Status == StatusRegionNotFound {
			res.Instructions = append(res.Instructions, instruction(frag.Module, opts.Path, step.kind, pr.Status, step.part))
		}
	}

	if cur == text {
		return res
	}

	if opts.Format {
		eol := lineEnding(text)
		src := strings.ReplaceAll(cur, crlf, "\n")
		if formatted, err := format.Source([]byte(src)); err == nil {
			cur = string(formatted)
			if eol == crlf {
				cur = strings.ReplaceAll(cur, "\n", crlf)
			}
		}
	}
	res.Text = cur
	res.Changed = cur != text
	return res
}

func applyPart(text string, kind RegionKind, part Part) (string, PartResult) {
	pr := PartResult{Region: kind}
	m := Parse(text)
	r := m.Region(kind)
	if r == nil {
		pr.Status = StatusRegionNotFound
		return text, pr
	}

	if _, ok := r.Lookup(part.Sentinel); ok {
		pr.Status = StatusAlreadyPresent
		return text, pr
	}

	var insert []string
	for _, line := range part.Lines {
		if id := leadingIdent.FindString(strings.TrimSpace(line)); id != "" {
			if _, ok := r.Lookup(id); ok && id != part.Sentinel {
				pr.Skipped = append(pr.Skipped, id)
				continue
			}
		}
		insert = append(insert, line)
	}

	for i, a := range part.Anchors {
		lines, ok := m.insert(r, a, insert)
		if !ok {
			continue
		}
		pr.Status = StatusApplied
		pr.Anchor = a.String()
		pr.Fallback = i > 0
		pr.Inserted = insert
		return strings.Join(lines, m.eol), pr
	}

	pr.Status = StatusAnchorNotFound
	pr.Inserted = nil
	return text, pr
}

// insert returns the model's lines with block placed at anchor a of r.
func (m *Model) insert(r *Region, a Anchor, block []string) ([]string, bool) {
	indent := m.entryIndent(r)
	indented := make([]string, len(block))
	for i, l := range block {
		if strings.TrimSpace(l) == "" {
			indented[i] = ""
			continue
		}
		indented[i] = indent + strings.TrimSpace(l)
	}

	var at int
	switch {
	case a.after != "":
		e, ok := r.Lookup(a.after)
		if !ok || e.End >= r.Close {
			return nil, false
		}
		at = e.End + 1

	case r.Open == r.Close && len(r.Entries) == 0:
		// `Config{}` on one line: split it open.
		line := m.lines[r.Open]
		head := line[:r.OpenCol+1]
		tail := strings.TrimLeft(line[r.OpenCol+1:], " \t")
		if !strings.HasPrefix(tail, "}") {
			return nil, false
		}
		out := make([]string, 0, len(m.lines)+len(indented)+1)
		out = append(out, m.lines[:r.Open]...)
		out = append(out, head)
		out = append(out, indented...)
		out = append(out, indentOf(line)+tail)
		out = append(out, m.lines[r.Open+1:]...)
		return out, true

	default:
		if r.Open == r.Close || !strings.HasPrefix(strings.TrimSpace(m.lines[r.Close]), "}") {
			return nil, false
		}
		at = r.Close
	}

	out := make([]string, 0, len(m.lines)+len(indented))
	out = append(out, m.lines[:at]...)
	out = append(out, indented...)
	out = append(out, m.lines[at:]...)
	return out, true
}

// entryIndent is the indentation of the region's first entry, or one tab
// deeper than the closing brace.
func (m *Model) entryIndent(r *Region) string {
	if len(r.Entries) > 0 {
		return indentOf(m.lines[r.Entries[0].Line])
	}
	return indentOf(m.lines[r.Close]) + "\t"
}

func instruction(module, path string, kind RegionKind, status Status, part Part) string {
	var b strings.Builder
	where := "the Config struct"
	if kind == DefaultsRegion {
		where = "the default Config literal"
	}
	reason := "no known anchor was found"
	if status == StatusRegionNotFound {
		reason = where + " was not found"
	}
	fmt.Fprintf(&b, "%s: %s in %s; add these lines to %s manually:", module, reason, path, where)
	for _, l := range part.Lines {
		b.WriteString("\n    ")
		b.WriteString(strings.TrimSpace(l))
	}
	return b.String()
}
