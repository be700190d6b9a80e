// Package filesystem implements the storage.Store interface on the local filesystem.
// Each entity is a markdown file with YAML front matter under .roadmap/<kind>s/, and
// archived entities live under .roadmap/archive/<kind>s/<bucket>/.
package filesystem

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/roadmap/internal/frontmatter"
	"github.com/steveyegge/roadmap/internal/idgen"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/validation"
)

const (
	fileExt   = ".md"
	dirPerms  = 0o755
	filePerms = 0o644

	// ArchiveDir is the archive area below the workspace root.
	ArchiveDir = "archive"
)

// Store implements storage.Store using one file per entity.
type Store struct {
	root string // path to the .roadmap directory
	log  *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Store rooted at the given .roadmap directory.
func New(root string, opts ...Option) *Store {
	s := &Store{root: root, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the workspace directory the store reads and writes.
func (s *Store) Root() string {
	return s.root
}

// Init creates the kind directories and the archive area.
func (s *Store) Init() error {
	for _, kind := range types.Kinds {
		for _, dir := range []string{s.activeDir(kind), s.archiveDir(kind)} {
			if err := os.MkdirAll(dir, dirPerms); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
	}
	return nil
}

func (s *Store) activeDir(kind types.Kind) string {
	return filepath.Join(s.root, kind.Dir())
}

func (s *Store) archiveDir(kind types.Kind) string {
	return filepath.Join(s.root, ArchiveDir, kind.Dir())
}

// FileName returns the file name a new entity is written to.
func FileName(e types.Entity) string {
	switch v := e.(type) {
	case *types.Issue:
		return v.ID + "-" + idgen.Slugify(v.Title) + fileExt
	case *types.Milestone:
		return idgen.Slugify(v.Name) + fileExt
	case *types.Project:
		return v.ID + "-" + idgen.Slugify(v.Name) + fileExt
	}
	return idgen.Slugify(e.Key()) + fileExt
}

// Load returns the entity with the given key from the active or archive area.
func (s *Store) Load(kind types.Kind, key string) (types.Entity, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	var firstErr error
	for _, c := range s.candidates(kind, key) {
		e, err := s.read(kind, c)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if e.Key() == key {
			return e, nil
		}
	}
	if kind == types.KindMilestone {
		// names that slugify to a different file name are found by scanning
		for e, err := range s.List(kind, storage.Filter{IncludeArchived: true}) {
			if err == nil && e.Key() == key {
				return e, nil
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, &storage.NotFoundError{Kind: kind, Key: key}
}

// Exists reports whether an entity with the key is stored in either area.
func (s *Store) Exists(kind types.Kind, key string) bool {
	_, err := s.Load(kind, key)
	return !errors.Is(err, storage.ErrNotFound)
}

type location struct {
	path     string
	archived bool
}

// candidates returns the files that could hold key, active area first.
func (s *Store) candidates(kind types.Kind, key string) []location {
	var patterns []string
	switch kind {
	case types.KindMilestone:
		patterns = []string{idgen.Slugify(key) + fileExt}
	default:
		if !idgen.IsValidID(key) {
			return nil
		}
		patterns = []string{key + fileExt, key + "-*" + fileExt}
	}

	var out []location
	for _, p := range patterns {
		matches, _ := filepath.Glob(filepath.Join(s.activeDir(kind), p))
		for _, m := range matches {
			out = append(out, location{path: m})
		}
	}
	for _, p := range patterns {
		matches, _ := filepath.Glob(filepath.Join(s.archiveDir(kind), "*", p))
		for _, m := range matches {
			out = append(out, location{path: m, archived: true})
		}
	}
	return out
}

func (s *Store) read(kind types.Kind, loc location) (types.Entity, error) {
	data, err := os.ReadFile(loc.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.rel(loc.path), err)
	}
	meta, body, err := frontmatter.Split(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.rel(loc.path), err)
	}
	node, err := frontmatter.Parse(meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.rel(loc.path), err)
	}
	raw := make(map[string]any)
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: decoding front matter: %w", s.rel(loc.path), err)
	}
	e, err := validation.Validate(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.rel(loc.path), err)
	}

	doc := e.Doc()
	doc.Body = body
	doc.Origin = &types.Origin{
		Path:     loc.path,
		Meta:     node,
		RawMeta:  meta,
		Digest:   digest(data),
		Archived: loc.archived,
	}
	return e, nil
}

// Save writes e atomically. Entities that were loaded are written back to the file they
// came from and only if that file is unchanged on disk; new entities must not collide
// with an existing file or key.
func (s *Store) Save(e types.Entity) error {
	if err := validation.ValidateEntity(e); err != nil {
		return err
	}

	doc := e.Doc()
	origin := doc.Origin
	var path string
	if origin != nil {
		path = origin.Path
		if err := s.checkUnchanged(e, origin); err != nil {
			return err
		}
	} else {
		path = filepath.Join(s.activeDir(e.Kind()), FileName(e))
		if s.Exists(e.Kind(), e.Key()) {
			return &storage.WriteConflictError{Kind: e.Kind(), Key: e.Key(), Path: path, Reason: storage.ConflictExists}
		}
		if _, err := os.Stat(path); err == nil {
			return &storage.WriteConflictError{Kind: e.Kind(), Key: e.Key(), Path: path, Reason: storage.ConflictExists}
		}
	}

	var encoded yaml.Node
	if err := encoded.Encode(e); err != nil {
		return fmt.Errorf("encoding %s %q: %w", e.Kind(), e.Key(), err)
	}

	node := &encoded
	var meta []byte
	if origin != nil && origin.Meta != nil {
		merged, changed := frontmatter.Merge(origin.Meta, &encoded)
		node = merged
		if !changed {
			meta = origin.RawMeta
		}
	}
	if meta == nil {
		var err error
		if meta, err = frontmatter.Encode(node); err != nil {
			return err
		}
	}

	data := frontmatter.Join(meta, doc.Body)
	if err := writeFile(path, data); err != nil {
		return err
	}
	s.log.Debug("saved entity", "kind", e.Kind(), "key", e.Key(), "path", s.rel(path))

	doc.Origin = &types.Origin{
		Path:     path,
		Meta:     node,
		RawMeta:  meta,
		Digest:   digest(data),
		Archived: origin != nil && origin.Archived,
	}
	return nil
}

func (s *Store) checkUnchanged(e types.Entity, origin *types.Origin) error {
	current, err := os.ReadFile(origin.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &storage.WriteConflictError{Kind: e.Kind(), Key: e.Key(), Path: origin.Path, Reason: storage.ConflictVanished}
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.rel(origin.Path), err)
	}
	if digest(current) != origin.Digest {
		return &storage.WriteConflictError{Kind: e.Kind(), Key: e.Key(), Path: origin.Path, Reason: storage.ConflictModified}
	}
	return nil
}

// Archive moves a saved entity into archive/<kind>s/<bucket>/. An empty bucket means "all".
func (s *Store) Archive(e types.Entity, bucket string) error {
	doc := e.Doc()
	origin := doc.Origin
	if origin == nil {
		return fmt.Errorf("cannot archive unsaved %s %q", e.Kind(), e.Key())
	}
	if origin.Archived {
		return fmt.Errorf("%s %q is already archived", e.Kind(), e.Key())
	}
	if err := s.checkUnchanged(e, origin); err != nil {
		return err
	}

	if bucket == "" {
		bucket = "all"
	}
	dir := filepath.Join(s.archiveDir(e.Kind()), idgen.Slugify(bucket))
	dest := filepath.Join(dir, filepath.Base(origin.Path))
	if _, err := os.Stat(dest); err == nil {
		return &storage.WriteConflictError{Kind: e.Kind(), Key: e.Key(), Path: dest, Reason: storage.ConflictExists}
	}
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return fmt.Errorf("creating %s: %w", s.rel(dir), err)
	}
	if err := os.Rename(origin.Path, dest); err != nil {
		return fmt.Errorf("archiving %s %q: %w", e.Kind(), e.Key(), err)
	}
	s.log.Debug("archived entity", "kind", e.Kind(), "key", e.Key(), "path", s.rel(dest))

	origin.Path = dest
	origin.Archived = true
	return nil
}

// List yields entities of kind lazily in discovery order: active files in lexical order,
// then archive buckets in lexical order when the filter asks for them. Each call rescans
// the directories. With Filter.Compare set, matching entities are sorted first.
func (s *Store) List(kind types.Kind, filter storage.Filter) iter.Seq2[types.Entity, error] {
	return func(yield func(types.Entity, error) bool) {
		locations, err := s.discover(kind, filter)
		if err != nil {
			yield(nil, err)
			return
		}

		if filter.Compare == nil {
			for _, loc := range locations {
				e, err := s.read(kind, loc)
				if err == nil && !filter.Matches(e) {
					continue
				}
				if !yield(e, err) {
					return
				}
			}
			return
		}

		var (
			matched []types.Entity
			errs    []error
		)
		for _, loc := range locations {
			e, err := s.read(kind, loc)
			switch {
			case err != nil:
				errs = append(errs, err)
			case filter.Matches(e):
				matched = append(matched, e)
			}
		}
		slices.SortStableFunc(matched, filter.Compare)
		for _, e := range matched {
			if !yield(e, nil) {
				return
			}
		}
		for _, err := range errs {
			if !yield(nil, err) {
				return
			}
		}
	}
}

func (s *Store) discover(kind types.Kind, filter storage.Filter) ([]location, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	var out []location
	if !filter.ArchivedOnly {
		files, err := listFiles(s.activeDir(kind))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			out = append(out, location{path: f})
		}
	}
	if filter.IncludeArchived || filter.ArchivedOnly {
		buckets, err := os.ReadDir(s.archiveDir(kind))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		for _, b := range buckets {
			if !b.IsDir() {
				continue
			}
			files, err := listFiles(filepath.Join(s.archiveDir(kind), b.Name()))
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				out = append(out, location{path: f, archived: true})
			}
		}
	}
	return out, nil
}

// listFiles returns the entity files in dir in os.ReadDir (lexical) order. A missing dir
// is empty.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	_, statErr := os.Stat(path)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// atomic.WriteFile creates new files with temp-file permissions
	if errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Chmod(path, filePerms); err != nil {
			return fmt.Errorf("failed to set file permissions: %w", err)
		}
	}
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) rel(path string) string {
	if r, err := filepath.Rel(s.root, path); err == nil {
		return r
	}
	return path
}
