package cpp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPreprocessBasicMacroExpansion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#define GREET(who)(<p>hello, {who}</p>)\nGREET(world)\n")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	want := "<p>hello, world</p>"
	if got != want {
		t.Errorf("PreprocessFile() = %q, want %q", got, want)
	}
}

func TestPreprocessInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.html", "<p>shared</p>")
	a := writeFile(t, dir, "a.html", `#include "b.html"`)

	got, err := NewPreprocessor().PreprocessFile(a)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	wantP := NewPreprocessor()
	want, err := wantP.PreprocessFile(filepath.Join(dir, "b.html"))
	if err != nil {
		t.Fatalf("PreprocessFile(b.html) error = %v", err)
	}
	if got != want {
		t.Errorf("PreprocessFile(a.html) = %q, want equal to PreprocessFile(b.html) = %q", got, want)
	}
}

func TestPreprocessIfdefActiveRegion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#define DEBUG()(on)\n#ifdef DEBUG\n<p>debug on</p>\n#endif\n")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	if got != "<p>debug on</p>" {
		t.Errorf("PreprocessFile() = %q", got)
	}
}

func TestPreprocessElseBranch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#ifdef MISSING\n<p>yes</p>\n#else\n<p>no</p>\n#endif\n")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	if got != "<p>no</p>" {
		t.Errorf("PreprocessFile() = %q", got)
	}
}

func TestPreprocessCircularIncludeDetected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.html", `#include "b.html"`)
	b := writeFile(t, dir, "b.html", `#include "a.html"`)
	// Overwrite a.html after creating b so both sides reference each other.
	writeFile(t, dir, "a.html", `#include "b.html"`)

	_, err := NewPreprocessor().PreprocessFile(b)
	if _, ok := err.(*CircularIncludeError); !ok {
		t.Fatalf("got %T (%v), want *CircularIncludeError", err, err)
	}
}

func TestPreprocessMultiLineCall(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#define BOX(t,c)(<div>{t}:{c}</div>)\nBOX(\n  Title,\n  Body\n)\n")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	want := "<div>Title:Body</div>"
	if got != want {
		t.Errorf("PreprocessFile() = %q, want %q", got, want)
	}
}

func TestPreprocessArityMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#define GREET(who)(hi {who})\nGREET(a, b)\n")

	_, err := NewPreprocessor().PreprocessFile(path)
	if _, ok := err.(*ArityMismatchError); !ok {
		t.Fatalf("got %T (%v), want *ArityMismatchError", err, err)
	}
}

func TestPreprocessRoundTripNoDirectives(t *testing.T) {
	dir := t.TempDir()
	content := "<html>\n<body>\n  <p>plain</p>\n</body>\n</html>"
	path := writeFile(t, dir, "index.html", content)

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	if got != content {
		t.Errorf("PreprocessFile() = %q, want unchanged %q", got, content)
	}
}

func TestPreprocessRoundTripStripsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html", "a\n\nb\n\n\nc")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	if got != "a\nb\nc" {
		t.Errorf("PreprocessFile() = %q, want %q", got, "a\nb\nc")
	}
}

func TestPreprocessUndefRemovesMacro(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#define FLAG()(on)\n#undef FLAG\n#ifdef FLAG\n<p>should not appear</p>\n#else\n<p>flag gone</p>\n#endif\n")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	if got != "<p>flag gone</p>" {
		t.Errorf("PreprocessFile() = %q", got)
	}
}

func TestPreprocessMacroDefinedInDisabledRegionStillRecognized(t *testing.T) {
	// Pass 1 ignores conditionals entirely, so a macro defined inside a
	// permanently-false region is still collected and callable.
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html",
		"#ifdef MISSING\n#define HIDDEN()(secret)\n#endif\nHIDDEN()\n")

	got, err := NewPreprocessor().PreprocessFile(path)
	if err != nil {
		t.Fatalf("PreprocessFile() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("PreprocessFile() = %q, want %q", got, "secret")
	}
}

func TestPreprocessUnterminatedConditional(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html", "#ifdef MISSING\n<p>x</p>\n")

	_, err := NewPreprocessor().PreprocessFile(path)
	if _, ok := err.(*UnterminatedConditionalError); !ok {
		t.Fatalf("got %T (%v), want *UnterminatedConditionalError", err, err)
	}
}

func TestPreprocessStrayEndif(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html", "<p>x</p>\n#endif\n")

	_, err := NewPreprocessor().PreprocessFile(path)
	if _, ok := err.(*StrayEndifError); !ok {
		t.Fatalf("got %T (%v), want *StrayEndifError", err, err)
	}
}

func TestPreprocessIncludeNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "index.html", `#include "missing.html"`)

	_, err := NewPreprocessor().PreprocessFile(path)
	if !strings.Contains(err.Error(), "io error") {
		t.Fatalf("got %v, want an io error", err)
	}
}
