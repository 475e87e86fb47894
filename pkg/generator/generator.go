// Package generator walks a source tree, routes .html/.htm files through
// the cpp preprocessor, and copies everything else verbatim into the
// output directory.
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kbrandt/sitecc/pkg/cpp"
)

// FileError records a single file's processing failure without aborting
// the rest of the build.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Report summarizes one build pass.
type Report struct {
	Processed int // .html/.htm files run through the preprocessor
	Copied    int // every other file copied verbatim
	Skipped   int // Go sources or files matched by an ignore glob (the output dir is skipped uncounted)
	Errors    []FileError
}

// Options configures one Generate call.
type Options struct {
	Source string
	Output string
	Ignore []string
}

// Generate walks opts.Source and produces opts.Output, routing
// .html/.htm files through a single shared cpp.Preprocessor so that a
// macro #define'd by one file stays visible to files processed after it
// - the include-closure semantics of cpp extend to the whole site tree,
// not just one file. Per-file failures are collected in the returned
// Report rather than aborting the walk; only a failure to resolve the
// source or output directory, to clear or create the output directory,
// or cancellation of ctx during the walk is returned as an error.
func Generate(ctx context.Context, opts Options) (Report, error) {
	report := Report{}

	sourceAbs, err := filepath.Abs(opts.Source)
	if err != nil {
		return report, fmt.Errorf("resolving source directory: %w", err)
	}
	outputAbs, err := filepath.Abs(opts.Output)
	if err != nil {
		return report, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.RemoveAll(outputAbs); err != nil {
		return report, fmt.Errorf("clearing output directory: %w", err)
	}
	if err := os.MkdirAll(outputAbs, 0o755); err != nil {
		return report, fmt.Errorf("creating output directory: %w", err)
	}

	pp := cpp.NewPreprocessor()

	walkErr := filepath.WalkDir(sourceAbs, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Err: err})
			return nil
		}
		if d.IsDir() {
			if path == outputAbs || strings.HasPrefix(path, outputAbs+string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(sourceAbs, path)
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Err: err})
			return nil
		}
		rel = filepath.ToSlash(rel)

		if shouldSkip(rel, opts.Ignore) {
			report.Skipped++
			return nil
		}

		dest := filepath.Join(outputAbs, rel)
		if err := processFile(pp, path, dest, &report); err != nil {
			report.Errors = append(report.Errors, FileError{Path: rel, Err: err})
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walking %s: %w", opts.Source, walkErr)
	}
	return report, nil
}

// shouldSkip reports whether rel is the generator's own implementation
// source or matches one of the configured ignore globs.
func shouldSkip(rel string, ignore []string) bool {
	if strings.EqualFold(filepath.Ext(rel), ".go") {
		return true
	}
	for _, pattern := range ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func processFile(pp *cpp.Preprocessor, src, dest string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(src))
	if ext == ".html" || ext == ".htm" {
		out, err := pp.PreprocessFile(src)
		if err != nil {
			return err
		}
		info, statErr := os.Stat(src)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(dest, []byte(out), mode); err != nil {
			return err
		}
		report.Processed++
		return nil
	}

	if err := copyFile(src, dest); err != nil {
		return err
	}
	report.Copied++
	return nil
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
