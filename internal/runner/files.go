package runner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// StdinPath is the argument that reads a script from standard input.
const StdinPath = "-"

// Source is one script to validate.
type Source struct {
	Path string
	Text string
}

// Collect expands paths into the list of script files to lint. Directories
// are walked and their files kept when they match one of the include
// patterns; explicit file arguments are always kept. Hidden directories are
// skipped. The result is sorted and free of duplicates.
func Collect(paths []string, include []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		if p == StdinPath {
			add(p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot lint %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}
		err = filepath.WalkDir(p, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if file != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(p, file)
			if err != nil {
				return err
			}
			if MatchInclude(filepath.ToSlash(rel), include) {
				add(file)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// MatchInclude reports whether a slash-separated relative path matches any
// pattern. Patterns use path.Match syntax per segment, plus "**" for any
// number of segments.
func MatchInclude(rel string, patterns []string) bool {
	segs := strings.Split(rel, "/")
	for _, p := range patterns {
		if matchSegments(strings.Split(p, "/"), segs) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], segs[0])
		if err != nil || !ok {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}

// ReadSources loads the text of each file. StdinPath reads from stdin and is
// reported under stdinName.
func ReadSources(files []string, stdin io.Reader, stdinName string) ([]Source, error) {
	sources := make([]Source, 0, len(files))
	for _, f := range files {
		if f == StdinPath {
			if stdin == nil {
				return nil, errors.New("no standard input available")
			}
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			sources = append(sources, Source{Path: stdinName, Text: string(data)})
			continue
		}
		s, err := ReadSource(f)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// ReadSource loads one file.
func ReadSource(file string) (Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return Source{Path: file, Text: string(data)}, nil
}
