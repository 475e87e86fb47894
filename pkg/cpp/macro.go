package cpp

// Macro is a named, parameterized text template registered via #define.
// Params may be empty (a zero-arg parameterized macro, the bare-flag
// idiom used by #ifdef/#ifndef tests). Body is stored verbatim and may
// span multiple source lines.
type Macro struct {
	Name      string
	Params    []string
	Body      string
	DefinedAt SourceLoc
}

// MacroTable maps macro names to their definitions. A name is considered
// "defined" (for #ifdef/#ifndef) iff it is a key of the table; there is no
// separate symbol set to keep in sync, which makes that invariant
// structural rather than something callers must maintain by hand.
type MacroTable struct {
	macros map[string]*Macro
}

// NewMacroTable returns an empty macro table.
func NewMacroTable() *MacroTable {
	return &MacroTable{macros: make(map[string]*Macro)}
}

// Define registers m, replacing any prior definition of the same name.
func (t *MacroTable) Define(m *Macro) {
	t.macros[m.Name] = m
}

// Lookup returns the macro registered under name, if any.
func (t *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// IsDefined reports whether name is currently a registered macro.
func (t *MacroTable) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// Undef removes name from the table; a no-op if it was never defined.
func (t *MacroTable) Undef(name string) {
	delete(t.macros, name)
}

// Names returns the currently defined macro names (unordered).
func (t *MacroTable) Names() []string {
	names := make([]string, 0, len(t.macros))
	for name := range t.macros {
		names = append(names, name)
	}
	return names
}
