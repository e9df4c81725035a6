package coa

import "sort"

// Forest is an arena-indexed view over a flat account list. Nodes live in a
// single slice and reference each other by index, so subtree walks are
// integer traversals instead of repeated filtering.
type Forest struct {
	nodes []Node
	roots []int32
	byID  map[int64]int32
}

// Node wraps an account with its position in the forest.
type Node struct {
	Account  Account
	parent   int32
	children []int32
}

const noParent int32 = -1

// BuildForest groups accounts by parent, ordering siblings by code.
// Accounts whose parent is absent from the input are treated as roots.
func BuildForest(accounts []Account) *Forest {
	f := &Forest{
		nodes: make([]Node, len(accounts)),
		byID:  make(map[int64]int32, len(accounts)),
	}
	for i, acc := range accounts {
		f.nodes[i] = Node{Account: acc, parent: noParent}
		f.byID[acc.ID] = int32(i)
	}
	for i := range f.nodes {
		acc := f.nodes[i].Account
		if acc.ParentID == nil {
			f.roots = append(f.roots, int32(i))
			continue
		}
		pi, ok := f.byID[*acc.ParentID]
		if !ok {
			f.roots = append(f.roots, int32(i))
			continue
		}
		f.nodes[i].parent = pi
		f.nodes[pi].children = append(f.nodes[pi].children, int32(i))
	}
	sortByCode(f, f.roots)
	for i := range f.nodes {
		sortByCode(f, f.nodes[i].children)
	}
	return f
}

func sortByCode(f *Forest, idx []int32) {
	sort.Slice(idx, func(a, b int) bool {
		return f.nodes[idx[a]].Account.Code < f.nodes[idx[b]].Account.Code
	})
}

// Lookup returns the account for the given id.
func (f *Forest) Lookup(id int64) (Account, bool) {
	i, ok := f.byID[id]
	if !ok {
		return Account{}, false
	}
	return f.nodes[i].Account, true
}

// Roots returns the top-level accounts in code order.
func (f *Forest) Roots() []Account {
	return f.collect(f.roots)
}

// Children returns the direct children of the given account in code order.
func (f *Forest) Children(id int64) []Account {
	i, ok := f.byID[id]
	if !ok {
		return nil
	}
	return f.collect(f.nodes[i].children)
}

func (f *Forest) collect(idx []int32) []Account {
	out := make([]Account, 0, len(idx))
	for _, i := range idx {
		out = append(out, f.nodes[i].Account)
	}
	return out
}

// Walk visits the subtree rooted at id depth-first in code order,
// starting with the account itself. It stops when fn returns false.
func (f *Forest) Walk(id int64, fn func(Account) bool) {
	i, ok := f.byID[id]
	if !ok {
		return
	}
	f.walk(i, fn)
}

func (f *Forest) walk(i int32, fn func(Account) bool) bool {
	if !fn(f.nodes[i].Account) {
		return false
	}
	for _, c := range f.nodes[i].children {
		if !f.walk(c, fn) {
			return false
		}
	}
	return true
}

// Subtree returns the subtree rooted at id as a flat slice in walk order.
func (f *Forest) Subtree(id int64) []Account {
	var out []Account
	f.Walk(id, func(a Account) bool {
		out = append(out, a)
		return true
	})
	return out
}

// Len returns the number of accounts in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}
