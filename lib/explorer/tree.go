// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"context"
	"sync"
)

// rootKey is the children-map key of the view root.
const rootKey = ""

// Tree is the expansion state of one view as shown by a host UI: the
// root nodes and the children of every expanded node. Loading is split
// into Begin*/Apply so a UI can run the fetch asynchronously; Refresh
// and Expand do both steps synchronously.
//
// Collapsing a node forgets its children. Expanding it again fetches
// them anew.
type Tree struct {
	materializer *Materializer
	view         ViewKind

	mu       sync.Mutex
	children map[string][]Node
	loading  map[string]bool
	dirty    bool
}

// Row is one visible line of a flattened tree.
type Row struct {
	Node     Node
	Depth    int
	Expanded bool
	Loading  bool
}

// NewTree creates an empty tree for view. It starts dirty; call Refresh
// or BeginLoad to populate it.
func (m *Materializer) NewTree(view ViewKind) *Tree {
	return &Tree{
		materializer: m,
		view:         view,
		children:     make(map[string][]Node),
		loading:      make(map[string]bool),
		dirty:        true,
	}
}

// View returns the view kind the tree renders.
func (t *Tree) View() ViewKind { return t.view }

// Dirty reports whether the root needs loading.
func (t *Tree) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// Invalidate drops everything the tree shows and marks it dirty.
// Loads already in flight become stale.
func (t *Tree) Invalidate() {
	t.materializer.Invalidate(t.view)
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.children)
	clear(t.loading)
	t.dirty = true
}

// BeginLoad starts a root load.
func (t *Tree) BeginLoad() Request {
	request := t.materializer.Begin(t.view, nil)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading[rootKey] = true
	t.dirty = false
	return request
}

// BeginExpand starts loading the children of item. The second result is
// false when the item does not expand in this tree.
func (t *Tree) BeginExpand(item Item) (Request, bool) {
	if !t.expandable(item) {
		return Request{}, false
	}
	request := t.materializer.Begin(t.view, item)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading[item.Key()] = true
	return request, true
}

func (t *Tree) expandable(item Item) bool {
	switch item.(type) {
	case SprintItem, UserStoryItem:
		return t.view != ViewProjects && t.view != ViewEpics
	default:
		return false
	}
}

// Apply stores the nodes of a finished load. It returns false and
// changes nothing when the result is stale, or when the node was
// collapsed while its children were loading.
func (t *Tree) Apply(result Result) bool {
	if result.Stale || !t.materializer.Current(result.Request) {
		return false
	}
	key := rootKey
	if result.Request.Parent != nil {
		key = result.Request.Parent.Key()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.loading[key] {
		return false
	}
	delete(t.loading, key)
	t.children[key] = result.Nodes
	return true
}

// Refresh reloads the root synchronously and returns it. Expanded nodes
// stay expanded with their previously loaded children.
func (t *Tree) Refresh(ctx context.Context) []Node {
	result := t.materializer.Load(ctx, t.BeginLoad())
	t.Apply(result)
	return result.Nodes
}

// Expand loads the children of item synchronously and returns them. It
// returns nil when the item does not expand.
func (t *Tree) Expand(ctx context.Context, item Item) []Node {
	request, ok := t.BeginExpand(item)
	if !ok {
		return nil
	}
	result := t.materializer.Load(ctx, request)
	t.Apply(result)
	return result.Nodes
}

// Collapse forgets the children of item and of everything beneath it.
func (t *Tree) Collapse(item Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forget(item.Key())
}

func (t *Tree) forget(key string) {
	for _, child := range t.children[key] {
		t.forget(child.Key())
	}
	delete(t.children, key)
	delete(t.loading, key)
}

// Children returns the loaded children of parent (nil for the root).
// The second result is false when parent is not expanded.
func (t *Tree) Children(parent Item) ([]Node, bool) {
	key := rootKey
	if parent != nil {
		key = parent.Key()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	nodes, ok := t.children[key]
	return nodes, ok
}

// Expanded reports whether item is expanded or loading.
func (t *Tree) Expanded(item Item) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := item.Key()
	_, loaded := t.children[key]
	return loaded || t.loading[key]
}

// Rows flattens the visible part of the tree in display order.
func (t *Tree) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	var rows []Row
	var walk func(key string, depth int)
	walk = func(key string, depth int) {
		for _, node := range t.children[key] {
			childKey := node.Key()
			_, expanded := t.children[childKey]
			loading := t.loading[childKey]
			rows = append(rows, Row{
				Node:     node,
				Depth:    depth,
				Expanded: expanded || loading,
				Loading:  loading,
			})
			if expanded {
				walk(childKey, depth+1)
			}
		}
	}
	walk(rootKey, 0)
	return rows
}

// Loading reports whether the root is loading.
func (t *Tree) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading[rootKey]
}
