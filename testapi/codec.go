package testapi

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes children into suites or tests according to their type.
func (s *TestSuiteInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string            `json:"type"`
		ID       string            `json:"id"`
		Label    string            `json:"label"`
		File     string            `json:"file"`
		Line     *int              `json:"line"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Type = TypeSuite
	s.ID = raw.ID
	s.Label = raw.Label
	s.File = raw.File
	s.Line = raw.Line
	s.Children = make([]TestNode, 0, len(raw.Children))

	for _, c := range raw.Children {
		child, err := DecodeNode(c)
		if err != nil {
			return fmt.Errorf("suite %s: %w", raw.ID, err)
		}
		s.Children = append(s.Children, child)
	}
	return nil
}

// DecodeNode decodes a suite or a test depending on its "type" field.
func DecodeNode(data []byte) (TestNode, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case TypeSuite:
		s := &TestSuiteInfo{}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, err
		}
		return s, nil
	case TypeTest:
		t := &TestInfo{}
		if err := json.Unmarshal(data, t); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", head.Type)
	}
}
