// preprocess.go implements the two-pass driver: pass 1 collects every
// macro reachable through the include closure of a file; pass 2 walks
// the same directive grammar again, honoring the conditional stack and
// emitting expanded text.
package cpp

import (
	"os"
	"path/filepath"
	"strings"
)

// Preprocessor owns the macro table, the defined-symbols set implicit in
// it, the include stack, and the conditional stack for one site
// generation. A single instance is expected to process every file in a
// build; state from one file - most notably its #define's - is allowed
// to persist into the next, by design (see DESIGN.md, pkg/generator).
type Preprocessor struct {
	Macros      *MacroTable
	Conditional *ConditionalStack
	Includes    *IncludeStack
}

// NewPreprocessor returns a Preprocessor with fresh, empty state.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		Macros:      NewMacroTable(),
		Conditional: NewConditionalStack(),
		Includes:    NewIncludeStack(),
	}
}

// PreprocessFile runs both passes over the file at path and returns its
// processed output. The include stack and conditional stack are
// guaranteed empty on return, whether it succeeds or fails.
func (p *Preprocessor) PreprocessFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &IoError{Err: err}
	}
	abs = filepath.Clean(abs)

	if err := p.collect(abs, SourceLoc{}); err != nil {
		return "", err
	}
	// An error can leave regions open; reset so the next file starts clean.
	defer func() { p.Conditional = NewConditionalStack() }()
	out, err := p.emit(abs, SourceLoc{})
	if err != nil {
		return "", err
	}
	// Balance is checked once, at the end of the root file, so an #include
	// inside an #ifdef region is not itself reported as unterminated.
	if err := p.Conditional.CheckBalanced(abs); err != nil {
		return "", err
	}
	return out, nil
}

// collect is pass 1: it registers every macro reachable through the
// include closure of path, recursing into #include directives and
// ignoring #undef and conditional directives entirely - a macro defined
// inside a permanently-false #ifdef region is still collected, so that
// it is syntactically recognizable at lex time wherever it is called.
func (p *Preprocessor) collect(path string, loc SourceLoc) error {
	if err := p.Includes.Push(loc, path); err != nil {
		return err
	}
	defer p.Includes.Pop()

	content, err := os.ReadFile(path)
	if err != nil {
		return &IoError{Loc: loc, Err: err}
	}

	tokens, err := Lex(string(content), path, p.Macros)
	if err != nil {
		return err
	}

	for _, tok := range tokens {
		switch t := tok.(type) {
		case DefineTok:
			p.Macros.Define(&Macro{
				Name:      t.Name,
				Params:    t.Params,
				Body:      t.Body,
				DefinedAt: t.Loc(),
			})
		case IncludeTok:
			includePath, err := ResolveInclude(path, t.Path)
			if err != nil {
				return &IoError{Loc: t.Loc(), Err: err}
			}
			if err := p.collect(includePath, t.Loc()); err != nil {
				return err
			}
		}
	}
	return nil
}

// emit is pass 2: it re-lexes path against the now-complete macro table
// and walks the tokens in order, honoring the conditional stack,
// recursing into #include directives, expanding macro calls in text,
// and applying #undef.
func (p *Preprocessor) emit(path string, loc SourceLoc) (string, error) {
	if err := p.Includes.Push(loc, path); err != nil {
		return "", err
	}
	defer p.Includes.Pop()

	content, err := os.ReadFile(path)
	if err != nil {
		return "", &IoError{Loc: loc, Err: err}
	}

	tokens, err := Lex(string(content), path, p.Macros)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, tok := range tokens {
		// Conditional directives always update the stack, active region
		// or not.
		switch t := tok.(type) {
		case IfdefTok:
			p.Conditional.PushIfdef(t.Sym, p.Macros)
			continue
		case IfndefTok:
			p.Conditional.PushIfndef(t.Sym, p.Macros)
			continue
		case ElseTok:
			if err := p.Conditional.Else(t.Loc()); err != nil {
				return "", err
			}
			continue
		case EndifTok:
			if err := p.Conditional.Endif(t.Loc()); err != nil {
				return "", err
			}
			continue
		}

		if !p.Conditional.Active() {
			continue
		}

		switch t := tok.(type) {
		case IncludeTok:
			includePath, err := ResolveInclude(path, t.Path)
			if err != nil {
				return "", &IoError{Loc: t.Loc(), Err: err}
			}
			out, err := p.emit(includePath, t.Loc())
			if err != nil {
				return "", err
			}
			if out != "" {
				parts = append(parts, out)
			}
		case TextTok:
			out, err := ExpandLine(t.Line, p.Macros, t.Loc())
			if err != nil {
				return "", err
			}
			parts = append(parts, out)
		case UndefTok:
			p.Macros.Undef(t.Sym)
		case DefineTok:
			// Already collected in pass 1; nothing to emit.
		}
	}

	return strings.Join(parts, "\n"), nil
}
