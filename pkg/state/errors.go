package state

import (
	"errors"
	"fmt"
	"strings"
)

// These errors are fatal for a session: they indicate a corrupted story graph
// and no retry helps until the project is fixed.

// ErrEmptyProject is returned when a session is started on a project without scenes.
var ErrEmptyProject = errors.New("project has no scenes")

// MultipleStartNodesError is returned when more than one scene is marked as start.
type MultipleStartNodesError struct {
	NodeIDs []string
}

func (e *MultipleStartNodesError) Error() string {
	return fmt.Sprintf("project has %d start scenes: %s", len(e.NodeIDs), strings.Join(e.NodeIDs, ", "))
}

// DanglingCurrentNodeError is returned when the current node id does not resolve.
type DanglingCurrentNodeError struct {
	NodeID string
}

func (e *DanglingCurrentNodeError) Error() string {
	return fmt.Sprintf("current scene %q does not exist", e.NodeID)
}

// IsFatal reports whether err means the session cannot continue.
func IsFatal(err error) bool {
	var multi *MultipleStartNodesError
	var dangling *DanglingCurrentNodeError
	return errors.Is(err, ErrEmptyProject) || errors.As(err, &multi) || errors.As(err, &dangling)
}
