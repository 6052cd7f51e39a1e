package storage

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/itiky/collaborate-mirror/model"
)

type (
	// node is an immutable store subtree: a scalar leaf or a branch with sorted children.
	// Writes build new nodes along the changed path (copy-on-write), untouched subtrees are shared.
	node struct {
		value    interface{}
		priority model.Priority
		children map[string]*node
		// children keys sorted by (child priority, key)
		keys []string
	}
)

// String implements stringer interface.
func (n *node) String() string {
	if n == nil {
		return "null"
	}
	if n.isLeaf() {
		return fmt.Sprintf("%v (priority: %s)", n.value, n.priority)
	}

	str := strings.Builder{}
	for i, key := range n.keys {
		child := n.children[key]
		str.WriteString(fmt.Sprintf("- [%d] %s: %v (priority: %s)\n", i, key, child.export(), child.priority))
	}

	return str.String()
}

// newNode builds a node from a normalized plain value.
func newNode(value interface{}, priority model.Priority) *node {
	if value == nil {
		return nil
	}

	children, ok := value.(map[string]interface{})
	if !ok {
		return &node{value: value, priority: priority}
	}

	n := &node{
		priority: priority,
		children: make(map[string]*node, len(children)),
		keys:     make([]string, 0, len(children)),
	}
	for key, childValue := range children {
		child := newNode(childValue, model.NoPriority)
		if child == nil {
			continue
		}
		n.children[key] = child
		n.keys = append(n.keys, key)
	}
	if len(n.keys) == 0 {
		return nil
	}
	n.sortKeys()

	return n
}

func (n *node) isLeaf() bool {
	return n == nil || len(n.children) == 0
}

func (n *node) getPriority() model.Priority {
	if n == nil {
		return model.NoPriority
	}

	return n.priority
}

// child returns a child node (nil if absent).
func (n *node) child(key string) *node {
	if n == nil {
		return nil
	}

	return n.children[key]
}

// at returns a descendant node (nil if absent).
func (n *node) at(keys []string) *node {
	cur := n
	for _, key := range keys {
		cur = cur.child(key)
		if cur == nil {
			return nil
		}
	}

	return cur
}

// withPriority returns a copy with the priority updated.
func (n *node) withPriority(priority model.Priority) *node {
	if n == nil {
		return nil
	}

	cp := *n
	cp.priority = priority

	return &cp
}

// withChild returns a copy with the child set (nil removes it) while keeping the sorted keys order.
// A leaf turns into a branch, a branch without children collapses to nil.
func (n *node) withChild(key string, child *node) *node {
	cp := &node{
		children: make(map[string]*node),
	}
	if n != nil {
		cp.priority = n.priority
		if !n.isLeaf() {
			for k, v := range n.children {
				cp.children[k] = v
			}
			cp.keys = append(make([]string, 0, len(n.keys)+1), n.keys...)
		}
	}

	// Cut
	if _, found := cp.children[key]; found {
		idx := cp.findKeyIdx(key)
		cp.keys = slices.Delete(cp.keys, idx, idx+1)
		delete(cp.children, key)
	}

	// Insert
	if child != nil {
		cp.children[key] = child
		idx := cp.findKeyIdxLTTarget(child.priority, key)
		cp.keys = slices.Insert(cp.keys, idx, key)
	}

	if len(cp.keys) == 0 {
		return nil
	}

	return cp
}

// setAt returns a new root with the node at keys replaced.
func setAt(root *node, keys []string, value *node) *node {
	if len(keys) == 0 {
		return value
	}

	return root.withChild(keys[0], setAt(root.child(keys[0]), keys[1:], value))
}

// findKeyIdxLTTarget returns the leftmost index for a (priority, key) pair in the sorted keys.
func (n *node) findKeyIdxLTTarget(priority model.Priority, key string) int {
	return sort.Search(len(n.keys), func(i int) bool {
		k := n.keys[i]
		return model.CompareChildren(n.children[k].priority, k, priority, key) >= 0
	})
}

// findKeyIdx returns the existing key index.
// Panics on failure (should not happen).
func (n *node) findKeyIdx(key string) int {
	idx := n.findKeyIdxLTTarget(n.children[key].priority, key)
	if idx == len(n.keys) || n.keys[idx] != key {
		panic("key not found: " + key)
	}

	return idx
}

func (n *node) sortKeys() {
	slices.SortFunc(n.keys, func(a, b string) int {
		return model.CompareChildren(n.children[a].priority, a, n.children[b].priority, b)
	})
}

// export builds a plain value (priorities dropped).
func (n *node) export() interface{} {
	if n == nil {
		return nil
	}
	if n.isLeaf() {
		return n.value
	}

	out := make(map[string]interface{}, len(n.children))
	for key, child := range n.children {
		out[key] = child.export()
	}

	return out
}

// toTree builds a model.TreeNode.
func (n *node) toTree() *model.TreeNode {
	if n == nil {
		return nil
	}

	tree := &model.TreeNode{
		Priority: n.priority,
	}
	if n.isLeaf() {
		tree.Value = n.value
		return tree
	}

	tree.Children = make(map[string]*model.TreeNode, len(n.children))
	for key, child := range n.children {
		tree.Children[key] = child.toTree()
	}

	return tree
}

// nodeFromTree builds a node from a model.TreeNode.
func nodeFromTree(tree *model.TreeNode) *node {
	if tree == nil {
		return nil
	}
	if len(tree.Children) == 0 {
		if tree.Value == nil {
			return nil
		}
		return &node{value: tree.Value, priority: tree.Priority}
	}

	n := &node{
		priority: tree.Priority,
		children: make(map[string]*node, len(tree.Children)),
	}
	for key, childTree := range tree.Children {
		child := nodeFromTree(childTree)
		if child == nil {
			continue
		}
		n.children[key] = child
		n.keys = append(n.keys, key)
	}
	if len(n.keys) == 0 {
		return nil
	}
	n.sortKeys()

	return n
}

// equalNodes compares two subtrees including priorities.
func equalNodes(a, b *node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.priority.Compare(b.priority) != 0 {
		return false
	}
	if a.isLeaf() || b.isLeaf() {
		return a.isLeaf() && b.isLeaf() && reflect.DeepEqual(a.value, b.value)
	}
	if len(a.keys) != len(b.keys) {
		return false
	}
	for i, key := range a.keys {
		if b.keys[i] != key || !equalNodes(a.children[key], b.children[key]) {
			return false
		}
	}

	return true
}
