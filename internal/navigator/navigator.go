// Package navigator is the dashboard's cursor over interview records:
// a username filter, a position in the newest-first filtered set, and a
// two-step delete.
package navigator

import (
	"errors"
	"sort"

	"github.com/yoockh/yoointerview/internal/models"
)

// AllUsers is the unfiltered selection.
const AllUsers = ""

var (
	ErrOutOfRange      = errors.New("navigator: position out of range")
	ErrEmpty           = errors.New("navigator: no records")
	ErrNoPendingDelete = errors.New("navigator: no delete awaiting confirmation")
)

// State is what survives between operator requests.
type State struct {
	Filter        string `json:"filter"`
	Index         int    `json:"index"`
	PendingDelete string `json:"pending_delete,omitempty"`
}

// Navigator applies State to a record set already sorted newest first.
type Navigator struct {
	all      []models.InterviewRecord
	filtered []models.InterviewRecord
	state    State
}

func New(records []models.InterviewRecord, st State) *Navigator {
	n := &Navigator{all: records, state: st}
	n.applyFilter()
	if n.state.Index < 0 || n.state.Index >= len(n.filtered) {
		n.state.Index = 0
	}
	return n
}

func (n *Navigator) State() State { return n.state }
func (n *Navigator) Len() int     { return len(n.filtered) }
func (n *Navigator) Index() int   { return n.state.Index }

// Usernames lists the distinct usernames of the full set, sorted.
func (n *Navigator) Usernames() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range n.all {
		if _, ok := seen[r.Username]; ok {
			continue
		}
		seen[r.Username] = struct{}{}
		out = append(out, r.Username)
	}
	sort.Strings(out)
	return out
}

// SetFilter narrows to one username (AllUsers for none). A changed filter starts at position 0.
func (n *Navigator) SetFilter(username string) {
	if username == n.state.Filter {
		return
	}
	n.state.Filter = username
	n.state.Index = 0
	n.state.PendingDelete = ""
	n.applyFilter()
}

func (n *Navigator) applyFilter() {
	if n.state.Filter == AllUsers {
		n.filtered = n.all
		return
	}
	n.filtered = nil
	for _, r := range n.all {
		if r.Username == n.state.Filter {
			n.filtered = append(n.filtered, r)
		}
	}
}

// Goto moves to position i. Out-of-range positions leave the cursor untouched.
func (n *Navigator) Goto(i int) error {
	if i < 0 || i >= len(n.filtered) {
		return ErrOutOfRange
	}
	if i != n.state.Index {
		n.state.PendingDelete = ""
	}
	n.state.Index = i
	return nil
}

// Next and Prev stop at the ends; they never wrap.
func (n *Navigator) Next() bool {
	return n.Goto(n.state.Index+1) == nil
}

func (n *Navigator) Prev() bool {
	return n.Goto(n.state.Index-1) == nil
}

func (n *Navigator) Current() (*models.InterviewRecord, bool) {
	if n.state.Index < 0 || n.state.Index >= len(n.filtered) {
		return nil, false
	}
	return &n.filtered[n.state.Index], true
}

// RequestDelete arms deletion of the current record and returns its identity.
func (n *Navigator) RequestDelete() (string, error) {
	cur, ok := n.Current()
	if !ok {
		return "", ErrEmpty
	}
	n.state.PendingDelete = cur.ID.Hex()
	return n.state.PendingDelete, nil
}

func (n *Navigator) CancelDelete() {
	n.state.PendingDelete = ""
}

// ConfirmDelete disarms the pending delete and returns the identity to remove.
// The cursor goes back to the newest record.
func (n *Navigator) ConfirmDelete() (string, error) {
	id := n.state.PendingDelete
	if id == "" {
		return "", ErrNoPendingDelete
	}
	n.state.PendingDelete = ""
	n.state.Index = 0
	return id, nil
}
