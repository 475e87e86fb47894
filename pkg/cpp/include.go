// include.go resolves #include paths relative to the including file and
// guards against circular includes via an explicit include stack.
package cpp

import "path/filepath"

// IncludeStack is the ordered sequence of canonicalized absolute paths
// currently being processed. No path may appear twice; push/pop are
// balanced on every exit path, success or error, by the caller using
// defer.
type IncludeStack struct {
	paths []string
}

// NewIncludeStack returns an empty include stack.
func NewIncludeStack() *IncludeStack {
	return &IncludeStack{}
}

// Push adds path to the stack, or returns a CircularIncludeError if it is
// already present.
func (s *IncludeStack) Push(loc SourceLoc, path string) error {
	for _, p := range s.paths {
		if p == path {
			stack := make([]string, len(s.paths))
			copy(stack, s.paths)
			return &CircularIncludeError{Loc: loc, Path: path, Stack: stack}
		}
	}
	s.paths = append(s.paths, path)
	return nil
}

// Pop removes the most recently pushed path.
func (s *IncludeStack) Pop() {
	if len(s.paths) > 0 {
		s.paths = s.paths[:len(s.paths)-1]
	}
}

// Len reports the current include depth.
func (s *IncludeStack) Len() int {
	return len(s.paths)
}

// ResolveInclude resolves path relative to the directory containing
// fromFile, normalized to a cleaned absolute path. Angle-bracket and
// quoted forms are resolved identically; there is no separate search
// path.
func ResolveInclude(fromFile, path string) (string, error) {
	dir := filepath.Dir(fromFile)
	joined := filepath.Join(dir, path)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
