package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
)

// MediaKind tells photos and videos apart. Each kind carries its own
// ordered list of metadata tags to try.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindPhoto
	KindVideo
)

func (k MediaKind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// MediaFile is one file under consideration during a run.
type MediaFile struct {
	Path string // absolute
	Ext  string // as found on disk, case preserved
	Kind MediaKind
}

// Name returns the current basename.
func (f MediaFile) Name() string {
	return filepath.Base(f.Path)
}

// Stem returns the basename without extension.
func (f MediaFile) Stem() string {
	return strings.TrimSuffix(f.Name(), f.Ext)
}

// Dir returns the directory holding the file.
func (f MediaFile) Dir() string {
	return filepath.Dir(f.Path)
}

// Classifier maps file extensions onto media kinds.
type Classifier struct {
	photo mapset.Set[string]
	video mapset.Set[string]
}

// NewClassifier builds a classifier from extension lists such as ".jpg".
func NewClassifier(photoExt, videoExt []string) *Classifier {
	c := &Classifier{
		photo: mapset.NewThreadUnsafeSet[string](),
		video: mapset.NewThreadUnsafeSet[string](),
	}
	for _, e := range photoExt {
		c.photo.Add(normalizeExt(e))
	}
	for _, e := range videoExt {
		c.video.Add(normalizeExt(e))
	}
	return c
}

// Kind returns the media kind of path, KindUnknown if the extension is not handled.
func (c *Classifier) Kind(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case c.photo.Contains(ext):
		return KindPhoto
	case c.video.Contains(ext):
		return KindVideo
	default:
		return KindUnknown
	}
}

// MediaFile returns the MediaFile for path, or false when it is not media.
func (c *Classifier) MediaFile(path string) (MediaFile, bool) {
	kind := c.Kind(path)
	if kind == KindUnknown {
		return MediaFile{}, false
	}
	return MediaFile{Path: path, Ext: filepath.Ext(path), Kind: kind}, true
}

func normalizeExt(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

// PathFilter decides which directories are descended into and which files
// are yielded during a walk.
type PathFilter struct {
	Classifier   *Classifier
	SkipPrefixes string   // a directory whose name starts with any of these runes is pruned
	Exclude      []string // doublestar patterns relative to the walk root
}

// SkipDir reports whether a directory name is one of the special directories
// that are never descended into.
func (p *PathFilter) SkipDir(name string) bool {
	return name != "" && strings.ContainsAny(name[:1], p.SkipPrefixes)
}

func (p *PathFilter) excluded(root, path string) bool {
	if len(p.Exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range p.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func validPattern(p string) bool {
	return doublestar.ValidatePattern(p)
}

// errStopWalk lets a WalkMedia callback end the walk early without an error.
var errStopWalk = errors.New("stop walk")

// WalkMedia walks root depth-first and calls fn for every media file. Parents
// are visited before their children. Directory entries are read one directory
// at a time, so files moved by fn into directories not yet visited will be
// seen again later in the walk.
func WalkMedia(root string, filter *PathFilter, fn func(MediaFile) error) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// unreadable entries are skipped, the rest of the tree is still walked
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && (filter.SkipDir(d.Name()) || filter.excluded(root, path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || filter.excluded(root, path) {
			return nil
		}

		file, ok := filter.Classifier.MediaFile(path)
		if !ok {
			return nil
		}
		return fn(file)
	})
	if errors.Is(err, errStopWalk) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error scanning files: %w", err)
	}
	return nil
}
