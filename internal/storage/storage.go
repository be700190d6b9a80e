// Package storage provides shared types for entity storage.
//
// The concrete document store lives in the filesystem sub-package. This package holds
// the interface and value types referenced by both the store and its consumers.
package storage

import (
	"errors"
	"fmt"
	"iter"

	"github.com/steveyegge/roadmap/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrWriteConflict is matched by every *WriteConflictError.
var ErrWriteConflict = errors.New("write conflict")

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Kind types.Kind
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictReason explains why a save was refused.
type ConflictReason string

// Conflict reasons
const (
	ConflictVanished ConflictReason = "file vanished since load"
	ConflictModified ConflictReason = "file modified since load"
	ConflictExists   ConflictReason = "file already exists"
)

// WriteConflictError reports unexpected on-disk state at save time. Nothing was written.
type WriteConflictError struct {
	Kind   types.Kind
	Key    string
	Path   string
	Reason ConflictReason
}

func (e *WriteConflictError) Error() string {
	return fmt.Sprintf("cannot save %s %q to %s: %s", e.Kind, e.Key, e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrWriteConflict) true.
func (e *WriteConflictError) Is(target error) bool {
	return target == ErrWriteConflict
}

// Filter narrows List results.
type Filter struct {
	// IncludeArchived adds the archive area after the active area.
	IncludeArchived bool
	// ArchivedOnly lists only the archive area.
	ArchivedOnly bool
	// Match, when set, drops entities for which it returns false.
	Match func(types.Entity) bool
	// Compare, when set, sorts results instead of using discovery order.
	Compare func(a, b types.Entity) int
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e types.Entity) bool {
	archived := e.Doc().IsArchived()
	if f.ArchivedOnly && !archived {
		return false
	}
	if !f.ArchivedOnly && !f.IncludeArchived && archived {
		return false
	}
	return f.Match == nil || f.Match(e)
}

// Store is the document store contract. Implementations persist one file per entity.
type Store interface {
	// Load returns the entity with the given key, or a *NotFoundError.
	Load(kind types.Kind, key string) (types.Entity, error)
	// Save atomically writes e, or returns a *WriteConflictError leaving disk untouched.
	Save(e types.Entity) error
	// List lazily yields entities of kind. Unreadable files yield an error for that item
	// and iteration continues.
	List(kind types.Kind, filter Filter) iter.Seq2[types.Entity, error]
	// Archive moves a saved entity into the archive bucket.
	Archive(e types.Entity, bucket string) error
	// Exists reports whether an entity with the key is stored, archived or not.
	Exists(kind types.Kind, key string) bool
}

// Collect drains seq, keeping entities of type T and every per-item error.
func Collect[T types.Entity](seq iter.Seq2[types.Entity, error]) ([]T, []error) {
	var (
		out  []T
		errs []error
	)
	for e, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out, errs
}
