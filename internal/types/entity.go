package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind names an entity family; each kind has its own directory in the workspace.
type Kind string

// Entity kinds
const (
	KindIssue     Kind = "issue"
	KindMilestone Kind = "milestone"
	KindProject   Kind = "project"
)

// Kinds lists every entity kind.
var Kinds = []Kind{KindIssue, KindMilestone, KindProject}

// IsValid checks if the kind value is valid
func (k Kind) IsValid() bool {
	switch k {
	case KindIssue, KindMilestone, KindProject:
		return true
	}
	return false
}

// Dir returns the workspace subdirectory holding files of this kind.
func (k Kind) Dir() string {
	return string(k) + "s"
}

// Entity is implemented by *Issue, *Milestone and *Project.
type Entity interface {
	Kind() Kind
	// Key is the identifier for issues and projects and the name for milestones.
	Key() string
	Doc() *Document
}

// New returns an empty entity of the given kind.
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindIssue:
		return &Issue{}, nil
	case KindMilestone:
		return &Milestone{}, nil
	case KindProject:
		return &Project{}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

// Document carries the non-metadata half of a tracked file: the free-form body and
// where the file came from.
type Document struct {
	Body   string  `yaml:"-"`
	Origin *Origin `yaml:"-"`
}

// Doc returns the document part of an entity.
func (d *Document) Doc() *Document { return d }

// IsArchived reports whether the entity was loaded from the archive area.
func (d *Document) IsArchived() bool {
	return d.Origin != nil && d.Origin.Archived
}

// Origin records the on-disk state an entity was loaded from. The store uses it to keep
// untouched metadata byte-identical and to detect external modification at save time.
type Origin struct {
	Path     string
	Meta     *yaml.Node // mapping node as last read or written
	RawMeta  []byte     // metadata bytes as last read or written
	Digest   string     // sha256 of the file content as last read or written
	Archived bool
}
