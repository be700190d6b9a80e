package graph

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a GraphError.
type ErrorKind string

// Graph error kinds
const (
	ErrCycle    ErrorKind = "cycle"
	ErrSelf     ErrorKind = "self-dependency"
	ErrDangling ErrorKind = "dangling"
)

// GraphError rejects a dependency structure. Path names the identifiers involved in
// traversal order: for a cycle, each entry depends on the next and the last depends on
// the first.
type GraphError struct {
	Kind ErrorKind
	Path []string
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case ErrCycle:
		return "dependency cycle: " + strings.Join(append(append([]string{}, e.Path...), e.Path[0]), " -> ")
	case ErrSelf:
		return fmt.Sprintf("issue %s cannot depend on itself", e.Path[0])
	case ErrDangling:
		return fmt.Sprintf("issue %s depends on unknown issue %s", e.Path[0], e.Path[1])
	}
	return "graph error: " + strings.Join(e.Path, ", ")
}

// Warning is a tolerated problem, such as a reference to an issue that does not exist yet.
type Warning struct {
	Issue string `json:"issue"`
	Field string `json:"field"`
	Ref   string `json:"ref"`
}

func (w Warning) String() string {
	return fmt.Sprintf("issue %s: %s references unknown issue %s", w.Issue, w.Field, w.Ref)
}
