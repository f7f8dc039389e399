package app

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/example/formbuilder/internal/ports/secondary"
)

// Ensure fakeRepository implements the interface
var _ secondary.ContentRepository = (*fakeRepository)(nil)

// fakeWrite is one write call received by fakeRepository.
type fakeWrite struct {
	Op     string
	Target string
	Name   string
	Names  []string
	Props  []secondary.PropertyInput
}

// fakeRepository is an in-memory content tree. Ids come from nextIDs, then a counter.
type fakeRepository struct {
	mu        sync.Mutex
	nodes     map[string]*secondary.NodeRecord
	parents   map[string]string
	nextIDs   []string
	counter   int
	writes    []fakeWrite
	fail      map[string]error
	languages []string

	lastLanguage  string
	beforeGetTree func(id string)
}

func newFakeRepository(roots ...*secondary.NodeRecord) *fakeRepository {
	r := &fakeRepository{
		nodes:   make(map[string]*secondary.NodeRecord),
		parents: make(map[string]string),
		fail:    make(map[string]error),
	}
	for _, root := range roots {
		r.register(root, "", "/")
	}
	return r
}

func (r *fakeRepository) register(n *secondary.NodeRecord, parentID, parentPath string) {
	if n.Path == "" && parentPath != "" {
		n.Path = path.Join(parentPath, n.Name)
	}
	if n.DisplayName == "" {
		n.DisplayName = n.Name
	}
	r.nodes[n.ID] = n
	if parentID != "" {
		r.parents[n.ID] = parentID
	}
	for _, c := range n.Children {
		r.register(c, n.ID, n.Path)
	}
}

// node builds a record with the given properties and children.
func node(id, name, nodeType string, props []secondary.PropertyRecord, children ...*secondary.NodeRecord) *secondary.NodeRecord {
	n := &secondary.NodeRecord{ID: id, Name: name, NodeType: nodeType, Properties: props, Children: children}
	if p, ok := n.Property("jcr:title"); ok {
		n.DisplayName, _ = p.Value.(string)
	}
	return n
}

func str(name, value string) secondary.PropertyRecord {
	return secondary.PropertyRecord{Name: name, Type: secondary.PropertyTypeString, Value: value}
}

func boolean(name string, value bool) secondary.PropertyRecord {
	return secondary.PropertyRecord{Name: name, Type: secondary.PropertyTypeBoolean, Value: fmt.Sprint(value)}
}

func props(p ...secondary.PropertyRecord) []secondary.PropertyRecord { return p }

func (r *fakeRepository) find(pathOrID string) (*secondary.NodeRecord, error) {
	if strings.HasPrefix(pathOrID, "/") {
		for _, n := range r.nodes {
			if n.Path == pathOrID {
				return n, nil
			}
		}
	} else if n, ok := r.nodes[pathOrID]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s", secondary.ErrNodeNotFound, pathOrID)
}

func (r *fakeRepository) record(w fakeWrite) error {
	r.writes = append(r.writes, w)
	if err, ok := r.fail[w.Op]; ok {
		return err
	}
	return nil
}

func (r *fakeRepository) Writes() []fakeWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fakeWrite(nil), r.writes...)
}

func (r *fakeRepository) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = err
}

func (r *fakeRepository) GetTree(ctx context.Context, workspace, language, id string) (*secondary.NodeRecord, error) {
	if r.beforeGetTree != nil {
		r.beforeGetTree(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLanguage = language
	if err, ok := r.fail["get"]; ok {
		return nil, err
	}
	n, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return cloneRecord(n, -1), nil
}

func cloneRecord(n *secondary.NodeRecord, depth int) *secondary.NodeRecord {
	out := *n
	out.Properties = append([]secondary.PropertyRecord(nil), n.Properties...)
	out.Children = nil
	if depth == 0 {
		return &out
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, cloneRecord(c, depth-1))
	}
	return &out
}

func (r *fakeRepository) AddNode(ctx context.Context, workspace string, req secondary.AddNodeRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(fakeWrite{Op: "add", Target: req.ParentPath, Name: req.Name, Props: req.Properties}); err != nil {
		return "", err
	}
	parent, err := r.find(req.ParentPath)
	if err != nil {
		return "", err
	}
	for _, c := range parent.Children {
		if c.Name == req.Name {
			return "", fmt.Errorf("node %s/%s already exists", parent.Path, req.Name)
		}
	}

	var id string
	if len(r.nextIDs) > 0 {
		id, r.nextIDs = r.nextIDs[0], r.nextIDs[1:]
	} else {
		r.counter++
		id = fmt.Sprintf("node-%d", r.counter)
	}
	n := &secondary.NodeRecord{ID: id, Name: req.Name, NodeType: req.NodeType}
	applyInputs(n, req.Properties)
	parent.Children = append(parent.Children, n)
	r.register(n, parent.ID, parent.Path)
	return id, nil
}

func applyInputs(n *secondary.NodeRecord, inputs []secondary.PropertyInput) {
	for _, in := range inputs {
		rec := secondary.PropertyRecord{Name: in.Name, Type: in.Type}
		if in.Multiple {
			rec.Values = make([]any, len(in.Values))
			for i, v := range in.Values {
				rec.Values[i] = v
			}
		} else {
			rec.Value = in.Value
		}
		replaced := false
		for i := range n.Properties {
			if n.Properties[i].Name == in.Name {
				n.Properties[i] = rec
				replaced = true
			}
		}
		if !replaced {
			n.Properties = append(n.Properties, rec)
		}
		if in.Name == "jcr:title" && in.Value != "" {
			n.DisplayName = in.Value
		}
	}
	if n.DisplayName == "" {
		n.DisplayName = n.Name
	}
}

func (r *fakeRepository) SetProperties(ctx context.Context, workspace, pathOrID string, inputs []secondary.PropertyInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(fakeWrite{Op: "set", Target: pathOrID, Props: inputs}); err != nil {
		return err
	}
	n, err := r.find(pathOrID)
	if err != nil {
		return err
	}
	applyInputs(n, inputs)
	return nil
}

func (r *fakeRepository) ReorderChildren(ctx context.Context, workspace, pathOrID string, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(fakeWrite{Op: "reorder", Target: pathOrID, Names: names}); err != nil {
		return err
	}
	n, err := r.find(pathOrID)
	if err != nil {
		return err
	}
	rank := make(map[string]int, len(names))
	for i, name := range names {
		rank[name] = i
	}
	sort.SliceStable(n.Children, func(i, j int) bool {
		ri, iok := rank[n.Children[i].Name]
		rj, jok := rank[n.Children[j].Name]
		if iok && jok {
			return ri < rj
		}
		return iok && !jok
	})
	return nil
}

func (r *fakeRepository) RenameNode(ctx context.Context, workspace, pathOrID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(fakeWrite{Op: "rename", Target: pathOrID, Name: name}); err != nil {
		return err
	}
	n, err := r.find(pathOrID)
	if err != nil {
		return err
	}
	n.Name = name
	var repath func(n *secondary.NodeRecord, parentPath string)
	repath = func(n *secondary.NodeRecord, parentPath string) {
		n.Path = path.Join(parentPath, n.Name)
		for _, c := range n.Children {
			repath(c, n.Path)
		}
	}
	repath(n, path.Dir(n.Path))
	return nil
}

func (r *fakeRepository) DeleteNode(ctx context.Context, workspace, pathOrID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(fakeWrite{Op: "delete", Target: pathOrID}); err != nil {
		return err
	}
	n, err := r.find(pathOrID)
	if err != nil {
		return err
	}
	if parent, ok := r.nodes[r.parents[n.ID]]; ok {
		kept := parent.Children[:0]
		for _, c := range parent.Children {
			if c.ID != n.ID {
				kept = append(kept, c)
			}
		}
		parent.Children = kept
	}
	var drop func(n *secondary.NodeRecord)
	drop = func(n *secondary.NodeRecord) {
		delete(r.nodes, n.ID)
		delete(r.parents, n.ID)
		for _, c := range n.Children {
			drop(c)
		}
	}
	drop(n)
	return nil
}

func (r *fakeRepository) FindNodes(ctx context.Context, q secondary.NodeQuery) ([]*secondary.NodeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*secondary.NodeRecord
	for _, n := range r.nodes {
		if q.NodeType != "" && n.NodeType != q.NodeType {
			continue
		}
		below := len(q.Paths) == 0
		for _, p := range q.Paths {
			if strings.HasPrefix(n.Path, strings.TrimSuffix(p, "/")+"/") {
				below = true
			}
		}
		if below {
			out = append(out, cloneRecord(n, q.Depth))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *fakeRepository) SiteLanguages(ctx context.Context, workspace, sitePath string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail["languages"]; ok {
		return nil, err
	}
	return r.languages, nil
}

// fakeChangeLog keeps recorded changes in memory.
type fakeChangeLog struct {
	mu      sync.Mutex
	entries []*secondary.ChangeRecord
}

func (f *fakeChangeLog) Record(ctx context.Context, entry *secondary.ChangeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeChangeLog) List(ctx context.Context, filters secondary.ChangeFilters) ([]*secondary.ChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*secondary.ChangeRecord
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if filters.Workspace != "" && e.Workspace != filters.Workspace {
			continue
		}
		if filters.Subtree != "" && e.Target != filters.Subtree && !strings.HasPrefix(e.Target, filters.Subtree+"/") {
			continue
		}
		out = append(out, e)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}

// contactForm returns a form "f1" at /forms/contact with steps below a fieldsets
// container: s1 holds an email field and a radio group, s2 is empty.
func contactForm() *secondary.NodeRecord {
	return node("f1", "contact", "fmdb:form", props(str("jcr:title", "Contact"), str("intro", "Hello")),
		node("fs", "fieldsets", "jnt:contentList", nil,
			node("s1", "step-1", "fmdb:fieldset", props(str("jcr:title", "Step 1"), str("jcr:description", "")),
				node("a", "email", "fmdb:inputEmail", props(str("jcr:title", "Email"), boolean("required", true))),
				node("g", "colour", "fmdb:radioGroup", props(str("jcr:title", "Colour")),
					node("r1", "red", "fmdb:inputRadio", props(str("jcr:title", "Red"), str("value", "red"))),
				),
				node("sel", "topic", "fmdb:select", props(str("jcr:title", "Topic"))),
			),
			node("s2", "step-2", "fmdb:fieldset", props(str("jcr:title", "Step 2"))),
		),
	)
}

// formsRoot places forms below /forms.
func formsRoot(forms ...*secondary.NodeRecord) *secondary.NodeRecord {
	root := node("forms", "forms", "jnt:contentFolder", nil, forms...)
	root.Path = "/forms"
	return root
}
