package form

// Node is a repository node as handed to the normalizer: its properties are already
// resolved in the session language and its children are loaded recursively.
type Node struct {
	ID          string
	Name        string
	Path        string
	NodeType    string
	DisplayName string
	Properties  []NodeProperty
	Children    []*Node
}

// NodeProperty is one raw property record. Single-valued properties carry Value,
// multi-valued ones carry Values; an empty Values list counts as single-valued. Type is the wire type reported by the repository
// (for example STRING, BOOLEAN, DATE).
type NodeProperty struct {
	Name   string
	Type   string
	Value  any
	Values []any
}

// Multiple reports whether the property was stored multi-valued.
func (p NodeProperty) Multiple() bool {
	return len(p.Values) > 0
}

// Property returns the raw property named name.
func (n *Node) Property(name string) (NodeProperty, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return NodeProperty{}, false
}

// firstString returns the scalar value of a property, or the first entry of a
// multi-valued one, as a string.
func (n *Node) firstString(name string) (string, bool) {
	p, ok := n.Property(name)
	if !ok {
		return "", false
	}
	if p.Multiple() {
		if p.Values[0] == nil {
			return "", false
		}
		return stringify(p.Values[0]), true
	}
	if p.Value == nil {
		return "", false
	}
	return stringify(p.Value), true
}
