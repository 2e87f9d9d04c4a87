// Package testapi defines the test tree and event model exchanged with a test
// hub: suites and tests, load and run lifecycle events, and the adapter
// contract a hub drives.
package testapi

const (
	TypeSuite = "suite"
	TypeTest  = "test"
)

// RootID is the id of the synthetic suite every feature hangs off.
const RootID = "root"

// TestSuiteInfo is a node with children. File is absolute; Line is zero based.
type TestSuiteInfo struct {
	Type     string     `json:"type"`
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	File     string     `json:"file,omitempty"`
	Line     *int       `json:"line,omitempty"`
	Children []TestNode `json:"children"`
}

// TestInfo is a leaf: a scenario or one example row of a scenario outline.
type TestInfo struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Label string `json:"label"`
	File  string `json:"file,omitempty"`
	Line  *int   `json:"line,omitempty"`
}

// TestNode is either a *TestSuiteInfo or a *TestInfo.
type TestNode interface {
	NodeID() string
	NodeType() string
}

func (s *TestSuiteInfo) NodeID() string   { return s.ID }
func (s *TestSuiteInfo) NodeType() string { return TypeSuite }
func (t *TestInfo) NodeID() string        { return t.ID }
func (t *TestInfo) NodeType() string      { return TypeTest }

func NewSuite(id, label string) *TestSuiteInfo {
	return &TestSuiteInfo{
		Type:     TypeSuite,
		ID:       id,
		Label:    label,
		Children: []TestNode{},
	}
}

func NewTest(id, label string) *TestInfo {
	return &TestInfo{
		Type:  TypeTest,
		ID:    id,
		Label: label,
	}
}

// NewRoot returns the synthetic root suite.
func NewRoot(label string) *TestSuiteInfo {
	return NewSuite(RootID, label)
}

// Lines are sent zero based while Gherkin reports them one based.
func ZeroBased(sourceLine int) *int {
	l := sourceLine - 1
	if l < 0 {
		l = 0
	}
	return &l
}

// Walk visits node and its descendants depth first. The parents slice holds
// the suites enclosing the visited node, outermost first. Returning false
// from fn skips the children of a suite.
func Walk(node TestNode, fn func(node TestNode, parents []*TestSuiteInfo) bool) {
	walk(node, nil, fn)
}

func walk(node TestNode, parents []*TestSuiteInfo, fn func(TestNode, []*TestSuiteInfo) bool) {
	if !fn(node, parents) {
		return
	}
	suite, ok := node.(*TestSuiteInfo)
	if !ok {
		return
	}
	inner := append(parents[:len(parents):len(parents)], suite)
	for _, child := range suite.Children {
		walk(child, inner, fn)
	}
}

// Find returns the node with the given id, if any.
func Find(root TestNode, id string) TestNode {
	var found TestNode
	Walk(root, func(n TestNode, _ []*TestSuiteInfo) bool {
		if found != nil {
			return false
		}
		if n.NodeID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Leaves returns the tests under node, or node itself when it is a test.
func Leaves(node TestNode) []*TestInfo {
	var leaves []*TestInfo
	Walk(node, func(n TestNode, _ []*TestSuiteInfo) bool {
		if t, ok := n.(*TestInfo); ok {
			leaves = append(leaves, t)
		}
		return true
	})
	return leaves
}
