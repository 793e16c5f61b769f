package dirsize

import (
	"fmt"
	"sort"
	"time"
)

// Status is the traversal outcome of a single directory.
// Exactly one status holds per node; the zero value is StatusNormal.
type Status int

const (
	// StatusNormal means the directory was fully enumerated.
	StatusNormal Status = iota
	// StatusAccessDenied means the directory could not be enumerated due to permissions.
	StatusAccessDenied
	// StatusTimedOut means the subtree was abandoned after a progress stall.
	StatusTimedOut
	// StatusDepthLimited means the directory lies at or beyond the depth limit.
	StatusDepthLimited
	// StatusNetworkSkipped means the directory is on a network mount and was not opened.
	StatusNetworkSkipped
	// StatusCloudSkipped means the directory is a cloud-sync folder and was not opened.
	StatusCloudSkipped
	// StatusError means enumeration failed for a reason other than permissions.
	// Node.Message carries the detail.
	StatusError
)

//nolint:gochecknoglobals // Lookup table
var statusNames = map[Status]string{
	StatusNormal:         "normal",
	StatusAccessDenied:   "access_denied",
	StatusTimedOut:       "timed_out",
	StatusDepthLimited:   "depth_limited",
	StatusNetworkSkipped: "network_skipped",
	StatusCloudSkipped:   "cloud_skipped",
	StatusError:          "error",
}

// String returns the snake_case name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status

			return nil
		}
	}

	return fmt.Errorf("unknown status %q", text)
}

// Skipped reports whether the directory was deliberately not traversed.
func (s Status) Skipped() bool {
	switch s {
	case StatusTimedOut, StatusDepthLimited, StatusNetworkSkipped, StatusCloudSkipped:
		return true
	default:
		return false
	}
}

// Node is one directory in the size tree.
// Files are not represented as nodes; they only contribute to Size and Files.
type Node struct {
	// Name is the basename of Path.
	Name string `json:"name"`
	// Path is the absolute path of the directory.
	Path string `json:"path"`
	// Size is the aggregate byte count of counted regular files. Always 0 unless Status is normal.
	Size uint64 `json:"size"`
	// Files is the number of regular files counted into Size.
	Files uint64 `json:"files"`
	// ModTime is the latest modification time among counted files.
	ModTime time.Time `json:"mod_time,omitzero"`
	// Hidden indicates a dot-prefixed directory name.
	Hidden bool `json:"hidden,omitempty"`
	// Status is the traversal outcome.
	Status Status `json:"status"`
	// Message describes a StatusError outcome.
	Message string `json:"message,omitempty"`
	// HasDescendantAccessDenied is true if this node or any descendant is access denied.
	HasDescendantAccessDenied bool `json:"has_descendant_access_denied,omitempty"`
	// Children are the subdirectories in visit order.
	Children []*Node `json:"children,omitempty"`
}

// Walk calls fn for n and every descendant in pre-order, passing the depth
// relative to n. Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}

	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Largest returns up to limit descendants (n excluded) with the biggest sizes,
// largest first. Ties are broken by path for stable output.
func (n *Node) Largest(limit int) []*Node {
	if limit <= 0 {
		return nil
	}

	var all []*Node

	n.Walk(func(node *Node, depth int) bool {
		if depth > 0 && node.Status == StatusNormal {
			all = append(all, node)
		}

		return true
	})

	sort.Slice(all, func(i, j int) bool {
		if all[i].Size != all[j].Size {
			return all[i].Size > all[j].Size
		}

		return all[i].Path < all[j].Path
	})

	if len(all) > limit {
		all = all[:limit]
	}

	return all
}

// Count returns the number of nodes per status in the tree rooted at n.
func (n *Node) Count() map[Status]int {
	counts := make(map[Status]int)

	n.Walk(func(node *Node, _ int) bool {
		counts[node.Status]++

		return true
	})

	return counts
}

func newNode(path, name string) *Node {
	return &Node{
		Name:   name,
		Path:   path,
		Hidden: isHiddenName(name),
	}
}

// skippedNode returns a leaf carrying a non-normal status and zero size.
func skippedNode(path, name string, status Status) *Node {
	node := newNode(path, name)
	node.Status = status

	if status == StatusAccessDenied {
		node.HasDescendantAccessDenied = true
	}

	return node
}

func isHiddenName(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}
