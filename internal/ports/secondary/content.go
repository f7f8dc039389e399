// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
)

// ErrNodeNotFound is returned when a node id or path does not resolve.
var ErrNodeNotFound = errors.New("node not found")

// Wire property types.
const (
	PropertyTypeString  = "STRING"
	PropertyTypeBoolean = "BOOLEAN"
)

// ContentRepository defines the secondary port for the content tree that stores
// form definitions. Nodes are addressed by path (leading "/") or by id.
type ContentRepository interface {
	// GetTree returns the node with the given id and its whole subtree, with
	// properties resolved in language. Returns ErrNodeNotFound for unknown ids.
	GetTree(ctx context.Context, workspace, language, id string) (*NodeRecord, error)

	// AddNode creates a child node and returns its id.
	AddNode(ctx context.Context, workspace string, req AddNodeRequest) (string, error)

	// SetProperties writes a batch of properties on one node.
	SetProperties(ctx context.Context, workspace, pathOrID string, props []PropertyInput) error

	// ReorderChildren puts the named children first, in the given order.
	ReorderChildren(ctx context.Context, workspace, pathOrID string, names []string) error

	// RenameNode changes the name (last path segment) of a node.
	RenameNode(ctx context.Context, workspace, pathOrID, name string) error

	// DeleteNode removes a node and its subtree.
	DeleteNode(ctx context.Context, workspace, pathOrID string) error

	// FindNodes returns nodes of a type below the given paths.
	FindNodes(ctx context.Context, q NodeQuery) ([]*NodeRecord, error)

	// SiteLanguages returns the j:languages values of a site node.
	SiteLanguages(ctx context.Context, workspace, sitePath string) ([]string, error)
}

// NodeRecord represents a node as returned by the content repository.
type NodeRecord struct {
	ID          string
	Name        string
	Path        string
	NodeType    string
	DisplayName string
	Properties  []PropertyRecord
	Children    []*NodeRecord
}

// Property returns the property named name.
func (n *NodeRecord) Property(name string) (PropertyRecord, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyRecord{}, false
}

// PropertyRecord is one resolved property. Multi-valued properties carry Values.
type PropertyRecord struct {
	Name   string
	Type   string
	Value  any
	Values []any
}

// PropertyInput is one property write.
type PropertyInput struct {
	Name     string
	Value    string
	Values   []string
	Multiple bool
	Language string // empty for language-neutral values
	Type     string // STRING or BOOLEAN
}

// AddNodeRequest contains parameters for creating a node.
type AddNodeRequest struct {
	ParentPath string
	Name       string
	NodeType   string
	Properties []PropertyInput
}

// NodeQuery contains filter options for FindNodes.
type NodeQuery struct {
	Workspace string
	Language  string
	NodeType  string
	Paths     []string
	// Depth is the number of child levels loaded below each match.
	Depth int
}
