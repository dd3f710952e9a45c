// Package acceptance implements the acceptance verifier (C9): it decides
// whether a pulled mapped request may be handed off to the control plane,
// by checking a filled acceptance document for value mismatches and then
// checking each affected endpoint's computed process value against its
// mapping constraint.
package acceptance

import (
	"encoding/xml"
	"fmt"
)

// Node is one element of the acceptance rule document: a technical_system
// or any other nesting element, recursively holding child Nodes plus the
// optional current_value/required_value leaf pair the document carries at
// its deepest level.
type Node struct {
	XMLName       xml.Name
	ID            string  `xml:"id,attr,omitempty"`
	CurrentValue  *string `xml:"current_value"`
	RequiredValue *string `xml:"required_value"`
	Text          string  `xml:",chardata"`
	Children      []Node  `xml:",any"`
}

// Find returns the first descendant of n (n itself included) whose tag
// name equals name, in document order.
func (n Node) Find(name string) (Node, bool) {
	if n.XMLName.Local == name {
		return n, true
	}
	for _, child := range n.Children {
		if found, ok := child.Find(name); ok {
			return found, true
		}
	}
	return Node{}, false
}

// FindChild returns the first direct child of n whose tag name equals
// name.
func (n Node) FindChild(name string) (Node, bool) {
	for _, child := range n.Children {
		if child.XMLName.Local == name {
			return child, true
		}
	}
	return Node{}, false
}

// ParseDocument parses an acceptance document (the control plane's filled
// XML response) into its root Node.
func ParseDocument(data []byte) (Node, error) {
	var root Node
	if err := xml.Unmarshal(data, &root); err != nil {
		return Node{}, fmt.Errorf("acceptance: parse document: %w", err)
	}
	return root, nil
}

// Mismatch describes the first current_value/required_value disagreement
// found by a depth-first walk of the document.
type Mismatch struct {
	Key              string
	Current          string
	Required         string
	TechnicalSystemID string
}

// Verify performs the depth-first walk described by the acceptance check:
// at any node carrying both current_value and required_value, compare them
// as strings. The first inequality terminates the walk and is returned; a
// nil Mismatch means every leaf pair agreed.
func Verify(root Node) *Mismatch {
	return verifyNode(root, "", "")
}

func verifyNode(n Node, path, enclosingSystemID string) *Mismatch {
	systemID := enclosingSystemID
	if n.XMLName.Local == "technical_system" && n.ID != "" {
		systemID = n.ID
	}

	childPath := path
	if n.XMLName.Local != "" {
		if path == "" {
			childPath = n.XMLName.Local
		} else {
			childPath = path + "/" + n.XMLName.Local
		}
	}

	for _, child := range n.Children {
		if m := verifyNode(child, childPath, systemID); m != nil {
			return m
		}
	}

	if n.CurrentValue != nil && n.RequiredValue != nil {
		if *n.CurrentValue != *n.RequiredValue {
			key := n.XMLName.Local
			return &Mismatch{
				Key:               key,
				Current:           *n.CurrentValue,
				Required:          *n.RequiredValue,
				TechnicalSystemID: systemID,
			}
		}
	}
	return nil
}
