package model

import (
	"encoding/gob"
)

// TreeNode is a serializable store subtree (priorities included).
// A leaf carries Value, a branch carries Children.
type TreeNode struct {
	Value    interface{}
	Priority Priority
	Children map[string]*TreeNode
}

// Export converts the tree to a plain value (priorities dropped).
func (n *TreeNode) Export() interface{} {
	if n == nil {
		return nil
	}
	if len(n.Children) == 0 {
		return n.Value
	}

	out := make(map[string]interface{}, len(n.Children))
	for key, child := range n.Children {
		out[key] = child.Export()
	}

	return out
}

func init() {
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
}
