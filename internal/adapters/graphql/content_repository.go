package graphql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/formbuilder/internal/ports/secondary"
)

// ContentRepository implements secondary.ContentRepository over the JCR GraphQL API.
type ContentRepository struct {
	client *Client
}

// NewContentRepository creates a repository that sends its operations through client.
func NewContentRepository(client *Client) *ContentRepository {
	return &ContentRepository{client: client}
}

type jcrNode struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	Path            string `json:"path"`
	PrimaryNodeType *struct {
		Name string `json:"name"`
	} `json:"primaryNodeType"`
	DisplayName string        `json:"displayName"`
	Properties  []jcrProperty `json:"properties"`
	Children    *struct {
		Nodes []*jcrNode `json:"nodes"`
	} `json:"children"`
}

type jcrProperty struct {
	Name   string   `json:"name"`
	Value  *string  `json:"value"`
	Values []string `json:"values"`
	Type   string   `json:"type"`
}

// inputProperty is the wire form of InputJCRProperty.
type inputProperty struct {
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Language string   `json:"language,omitempty"`
	Value    *string  `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
}

func toRecord(n *jcrNode) *secondary.NodeRecord {
	if n == nil {
		return nil
	}
	rec := &secondary.NodeRecord{
		ID:          n.UUID,
		Name:        n.Name,
		Path:        n.Path,
		DisplayName: n.DisplayName,
	}
	if n.PrimaryNodeType != nil {
		rec.NodeType = n.PrimaryNodeType.Name
	}
	for _, p := range n.Properties {
		prop := secondary.PropertyRecord{Name: p.Name, Type: p.Type}
		if len(p.Values) > 0 {
			prop.Values = make([]any, len(p.Values))
			for i, v := range p.Values {
				prop.Values[i] = v
			}
		} else if p.Value != nil {
			prop.Value = *p.Value
		}
		rec.Properties = append(rec.Properties, prop)
	}
	if n.Children != nil {
		for _, child := range n.Children.Nodes {
			if child != nil {
				rec.Children = append(rec.Children, toRecord(child))
			}
		}
	}
	return rec
}

func toInputProperties(props []secondary.PropertyInput) []inputProperty {
	out := make([]inputProperty, len(props))
	for i, p := range props {
		in := inputProperty{Name: p.Name, Type: p.Type, Language: p.Language}
		if p.Multiple {
			in.Values = p.Values
			if in.Values == nil {
				in.Values = []string{}
			}
		} else {
			value := p.Value
			in.Value = &value
		}
		out[i] = in
	}
	return out
}

// notFound turns the repository's missing-item errors into secondary.ErrNodeNotFound.
func notFound(err error, pathOrID string) error {
	var gqlErr *Error
	if !errors.As(err, &gqlErr) {
		return err
	}
	for _, m := range gqlErr.Messages {
		if strings.Contains(m, "ItemNotFoundException") || strings.Contains(m, "PathNotFoundException") {
			return fmt.Errorf("%w: %s", secondary.ErrNodeNotFound, pathOrID)
		}
	}
	return err
}

func (r *ContentRepository) GetTree(ctx context.Context, workspace, language, id string) (*secondary.NodeRecord, error) {
	vars := map[string]any{"workspace": workspace, "language": language}
	operation, query := "GetNodeById", getNodeByIDQuery
	if strings.HasPrefix(id, "/") {
		operation, query = "GetNodeByPath", getNodeByPathQuery
		vars["path"] = id
	} else {
		vars["uuid"] = id
	}

	var data struct {
		JCR struct {
			Node *jcrNode `json:"node"`
		} `json:"jcr"`
	}
	if err := r.client.do(ctx, operation, query, vars, &data); err != nil {
		return nil, notFound(err, id)
	}
	if data.JCR.Node == nil {
		return nil, fmt.Errorf("%w: %s", secondary.ErrNodeNotFound, id)
	}
	return toRecord(data.JCR.Node), nil
}

func (r *ContentRepository) AddNode(ctx context.Context, workspace string, req secondary.AddNodeRequest) (string, error) {
	var data struct {
		JCR struct {
			AddNode struct {
				UUID string `json:"uuid"`
			} `json:"addNode"`
		} `json:"jcr"`
	}
	vars := map[string]any{
		"workspace":       workspace,
		"parentPathOrId":  req.ParentPath,
		"name":            req.Name,
		"primaryNodeType": req.NodeType,
		"properties":      toInputProperties(req.Properties),
	}
	if err := r.client.do(ctx, "AddNode", addNodeMutation, vars, &data); err != nil {
		return "", notFound(err, req.ParentPath)
	}
	return data.JCR.AddNode.UUID, nil
}

func (r *ContentRepository) SetProperties(ctx context.Context, workspace, pathOrID string, props []secondary.PropertyInput) error {
	vars := map[string]any{
		"workspace":  workspace,
		"pathOrId":   pathOrID,
		"properties": toInputProperties(props),
	}
	return notFound(r.client.do(ctx, "SetProperties", setPropertiesMutation, vars, nil), pathOrID)
}

func (r *ContentRepository) ReorderChildren(ctx context.Context, workspace, pathOrID string, names []string) error {
	vars := map[string]any{"workspace": workspace, "pathOrId": pathOrID, "names": names}
	return notFound(r.client.do(ctx, "ReorderChildren", reorderChildrenMutation, vars, nil), pathOrID)
}

func (r *ContentRepository) RenameNode(ctx context.Context, workspace, pathOrID, name string) error {
	vars := map[string]any{"workspace": workspace, "pathOrId": pathOrID, "name": name}
	return notFound(r.client.do(ctx, "RenameNode", renameNodeMutation, vars, nil), pathOrID)
}

func (r *ContentRepository) DeleteNode(ctx context.Context, workspace, pathOrID string) error {
	vars := map[string]any{"workspace": workspace, "pathOrId": pathOrID}
	return notFound(r.client.do(ctx, "DeleteNode", deleteNodeMutation, vars, nil), pathOrID)
}

func (r *ContentRepository) FindNodes(ctx context.Context, q secondary.NodeQuery) ([]*secondary.NodeRecord, error) {
	var data struct {
		JCR struct {
			NodesByCriteria struct {
				Nodes []*jcrNode `json:"nodes"`
			} `json:"nodesByCriteria"`
		} `json:"jcr"`
	}
	paths := q.Paths
	if paths == nil {
		paths = []string{}
	}
	vars := map[string]any{
		"workspace": q.Workspace,
		"language":  q.Language,
		"nodeType":  q.NodeType,
		"paths":     paths,
	}
	if err := r.client.do(ctx, "FindNodes", findNodesQuery(q.Depth), vars, &data); err != nil {
		return nil, err
	}

	out := make([]*secondary.NodeRecord, 0, len(data.JCR.NodesByCriteria.Nodes))
	for _, n := range data.JCR.NodesByCriteria.Nodes {
		if n != nil {
			out = append(out, toRecord(n))
		}
	}
	return out, nil
}

func (r *ContentRepository) SiteLanguages(ctx context.Context, workspace, sitePath string) ([]string, error) {
	var data struct {
		JCR struct {
			Node *struct {
				Languages *struct {
					Values []string `json:"values"`
				} `json:"languages"`
			} `json:"node"`
		} `json:"jcr"`
	}
	vars := map[string]any{"workspace": workspace, "sitePath": sitePath}
	if err := r.client.do(ctx, "GetSiteLanguages", siteLanguagesQuery, vars, &data); err != nil {
		return nil, notFound(err, sitePath)
	}
	if data.JCR.Node == nil {
		return nil, fmt.Errorf("%w: %s", secondary.ErrNodeNotFound, sitePath)
	}
	if data.JCR.Node.Languages == nil {
		return nil, nil
	}
	return data.JCR.Node.Languages.Values, nil
}

// Ensure ContentRepository implements the interface
var _ secondary.ContentRepository = (*ContentRepository)(nil)
