package runner

import (
	"sort"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// Selection is the part of the discovered tree a run is restricted to.
type Selection struct {
	// Files to hand to the engine, sorted.
	Files []string

	// Source lines per file; a file without entry runs whole.
	Lines map[string][]uint64

	// Tests are the selected leaves.
	Tests map[string]bool

	// Unknown lists ids not present in the tree.
	Unknown []string
}

// Select resolves test ids against the discovered tree. No ids, or the root
// id, select everything. A feature suite selects its whole file; any other
// node selects the lines of the tests below it.
func Select(tree *testapi.TestSuiteInfo, ids []string) Selection {
	sel := Selection{
		Lines: map[string][]uint64{},
		Tests: map[string]bool{},
	}

	whole := map[string]bool{}
	lines := map[string]map[uint64]bool{}

	selectAll := len(ids) == 0
	for _, id := range ids {
		if id == testapi.RootID || id == tree.ID {
			selectAll = true
		}
	}

	if selectAll {
		for _, child := range tree.Children {
			if s, ok := child.(*testapi.TestSuiteInfo); ok && s.File != "" {
				whole[s.File] = true
			}
		}
		for _, t := range testapi.Leaves(tree) {
			sel.Tests[t.ID] = true
		}
	} else {
		features := map[string]bool{}
		for _, child := range tree.Children {
			features[child.NodeID()] = true
		}

		for _, id := range ids {
			node := testapi.Find(tree, id)
			if node == nil {
				sel.Unknown = append(sel.Unknown, id)
				continue
			}

			if s, ok := node.(*testapi.TestSuiteInfo); ok && features[id] {
				whole[s.File] = true
			}

			for _, t := range testapi.Leaves(node) {
				sel.Tests[t.ID] = true
				if t.File == "" || t.Line == nil {
					continue
				}
				if lines[t.File] == nil {
					lines[t.File] = map[uint64]bool{}
				}
				lines[t.File][uint64(*t.Line+1)] = true
			}
		}
	}

	for file := range whole {
		sel.Files = append(sel.Files, file)
	}
	for file, set := range lines {
		if whole[file] {
			continue
		}
		sel.Files = append(sel.Files, file)
		for l := range set {
			sel.Lines[file] = append(sel.Lines[file], l)
		}
		sort.Slice(sel.Lines[file], func(i, j int) bool { return sel.Lines[file][i] < sel.Lines[file][j] })
	}
	sort.Strings(sel.Files)

	return sel
}

// Restrict applies ":line" filters from the configuration to files that are
// selected whole.
func (s *Selection) Restrict(lines map[string][]uint64) {
	for _, file := range s.Files {
		if _, ok := s.Lines[file]; ok {
			continue
		}
		if ls, ok := lines[file]; ok {
			s.Lines[file] = ls
		}
	}
}
