package graphql

import "strings"

// treeDepth is the number of child levels GetTree loads: form, fieldsets
// container, step, field, group member.
const treeDepth = 5

const propertyFields = "name value values type"

// nodeSelection selects a node's identity and properties and depth levels of
// children.
func nodeSelection(depth int) string {
	var b strings.Builder
	b.WriteString("{ uuid name path primaryNodeType { name } displayName(language: $language) ")
	b.WriteString("properties(language: $language) { " + propertyFields + " }")
	if depth > 0 {
		b.WriteString(" children { nodes " + nodeSelection(depth-1) + " }")
	}
	b.WriteString(" }")
	return b.String()
}

var (
	getNodeByIDQuery = `query GetNodeById($workspace: Workspace!, $language: String!, $uuid: String!) {
  jcr(workspace: $workspace) { node: nodeById(uuid: $uuid) ` + nodeSelection(treeDepth) + ` }
}`

	getNodeByPathQuery = `query GetNodeByPath($workspace: Workspace!, $language: String!, $path: String!) {
  jcr(workspace: $workspace) { node: nodeByPath(path: $path) ` + nodeSelection(treeDepth) + ` }
}`
)

func findNodesQuery(depth int) string {
	return `query FindNodes($workspace: Workspace!, $language: String!, $nodeType: String!, $paths: [String!]!) {
  jcr(workspace: $workspace) {
    nodesByCriteria(criteria: {nodeType: $nodeType, paths: $paths}) { nodes ` + nodeSelection(depth) + ` }
  }
}`
}

const siteLanguagesQuery = `query GetSiteLanguages($workspace: Workspace!, $sitePath: String!) {
  jcr(workspace: $workspace) {
    node: nodeByPath(path: $sitePath) {
      languages: property(name: "j:languages") { values }
    }
  }
}`

const addNodeMutation = `mutation AddNode($workspace: Workspace!, $parentPathOrId: String!, $name: String!, $primaryNodeType: String!, $properties: [InputJCRProperty]) {
  jcr(workspace: $workspace) {
    addNode(parentPathOrId: $parentPathOrId, name: $name, primaryNodeType: $primaryNodeType, properties: $properties) { uuid }
  }
}`

const setPropertiesMutation = `mutation SetProperties($workspace: Workspace!, $pathOrId: String!, $properties: [InputJCRProperty]!) {
  jcr(workspace: $workspace) {
    mutateNode(pathOrId: $pathOrId) {
      setPropertiesBatch(properties: $properties) { property { name } }
      uuid
    }
  }
}`

const reorderChildrenMutation = `mutation ReorderChildren($workspace: Workspace!, $pathOrId: String!, $names: [String!]!) {
  jcr(workspace: $workspace) {
    mutateNode(pathOrId: $pathOrId) { reorderChildren(names: $names) }
  }
}`

const renameNodeMutation = `mutation RenameNode($workspace: Workspace!, $pathOrId: String!, $name: String!) {
  jcr(workspace: $workspace) {
    mutateNode(pathOrId: $pathOrId) {
      rename(name: $name)
      uuid
    }
  }
}`

const deleteNodeMutation = `mutation DeleteNode($workspace: Workspace!, $pathOrId: String!) {
  jcr(workspace: $workspace) { deleteNode(pathOrId: $pathOrId) }
}`
