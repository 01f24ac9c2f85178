// Package walker enumerates candidate dataset files under root directories.
// It applies only cheap structural pre-filters derived from the patterns
// (depth, extension, parent glob); actual parsing happens downstream.
package walker

import (
	"path/filepath"
	"regexp"
	"strings"

	billy "github.com/go-git/go-billy/v5"

	"github.com/bstdenis/xscen/internal/pattern"
)

// packedSuffix marks directory-based chunked-array stores. A directory with
// this suffix is one leaf asset; its contents are never traversed.
const packedSuffix = ".zarr"

// Options tunes a Walker.
type Options struct {
	// DirGlob, when set, restricts yielded assets to those whose parent
	// directory path matches the glob ('*' may cross separators, as in
	// fnmatch). The glob never applies to the asset's own name.
	DirGlob string
	// CheckPerms probes each candidate for read access and drops those the
	// current user cannot open.
	CheckPerms bool
}

// WalkFunc receives the root being walked and one candidate asset path.
// Returning an error stops the traversal and propagates it to Walk.
type WalkFunc func(root, path string) error

// Walker lazily yields (root, path) pairs for paths that could match at
// least one pattern. A Walker holds no traversal state; Walk may be called
// any number of times, each call is one fresh pass.
type Walker struct {
	fs     billy.Filesystem
	roots  []string
	depths map[int]struct{}
	maxD   int
	exts   map[string]struct{}
	glob   *regexp.Regexp
	perms  bool
}

// New builds a Walker over fsys. Depth and extension filters are derived
// from the patterns: only paths whose depth under a root equals some
// pattern's depth, with some pattern's extension, are yielded.
func New(fsys billy.Filesystem, roots []string, patterns []*pattern.Pattern, opts Options) *Walker {
	w := &Walker{
		fs:     fsys,
		roots:  roots,
		depths: make(map[int]struct{}),
		exts:   make(map[string]struct{}),
		perms:  opts.CheckPerms,
	}
	for _, p := range patterns {
		w.depths[p.Depth()] = struct{}{}
		if p.Depth() > w.maxD {
			w.maxD = p.Depth()
		}
		w.exts[p.Ext()] = struct{}{}
	}
	if opts.DirGlob != "" {
		w.glob = globToRegexp(opts.DirGlob)
	}
	return w
}

// Walk performs one traversal pass over all roots.
func (w *Walker) Walk(fn WalkFunc) error {
	for _, root := range w.roots {
		if err := w.walkDir(root, root, 0, fn); err != nil {
			return err
		}
	}
	return nil
}

// walkDir visits dir, whose direct children sit at the given depth
// (separator count of their root-relative path).
func (w *Walker) walkDir(root, dir string, depth int, fn WalkFunc) error {
	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		// unreadable directories are skipped, not fatal
		return nil
	}

	_, depthOK := w.depths[depth]
	dirOK := depthOK && w.dirMatches(dir)

	for _, entry := range entries {
		name := entry.Name()
		full := w.fs.Join(dir, name)

		if entry.IsDir() {
			if strings.HasSuffix(name, packedSuffix) {
				// packed leaf asset; internal chunks are opaque
				if _, want := w.exts[packedSuffix]; want && dirOK && w.readableDir(full) {
					if err := fn(root, full); err != nil {
						return err
					}
				}
				continue
			}
			if depth < w.maxD {
				if err := w.walkDir(root, full, depth+1, fn); err != nil {
					return err
				}
			}
			continue
		}

		if !dirOK {
			continue
		}
		if _, want := w.exts[filepath.Ext(name)]; !want {
			continue
		}
		if !w.readableFile(full) {
			continue
		}
		if err := fn(root, full); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) dirMatches(dir string) bool {
	if w.glob == nil {
		return true
	}
	return w.glob.MatchString(filepath.ToSlash(dir))
}

func (w *Walker) readableFile(path string) bool {
	if !w.perms {
		return true
	}
	f, err := w.fs.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func (w *Walker) readableDir(path string) bool {
	if !w.perms {
		return true
	}
	_, err := w.fs.ReadDir(path)
	return err == nil
}

// globToRegexp translates an fnmatch-style glob ('*' and '?' match any
// character including separators, '[...]' classes pass through) into an
// anchored regexp.
func globToRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(glob[i:], ']')
			if end < 0 {
				b.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			b.WriteString(glob[i : i+end+1])
			i += end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
