package passes

import "github.com/vertexdlt/sablec/mir"

// DomTree is the dominator tree of one Function, rooted at its entry
// block. The algorithm is Cooper/Harvey/Kennedy's iterative dataflow
// formulation ("A Simple, Fast Dominance Algorithm"); the iterative form
// avoids needing a separate Lengauer-Tarjan-style DFS numbering pass.
type DomTree struct {
	fn      *mir.Function
	idom    map[*mir.BasicBlock]*mir.BasicBlock
	preOrd  []*mir.BasicBlock
	postIdx map[*mir.BasicBlock]int
}

// BuildDominatorTree computes fn's dominator tree. Blocks unreachable
// from fn.Entry are omitted; SimplifyCFG is expected to have already
// removed them, but BuildDominatorTree itself never requires that.
func BuildDominatorTree(fn *mir.Function) *DomTree {
	dt := &DomTree{fn: fn, idom: map[*mir.BasicBlock]*mir.BasicBlock{}}
	if fn.Entry == nil {
		return dt
	}

	post := postorder(fn)
	dt.postIdx = make(map[*mir.BasicBlock]int, len(post))
	for i, b := range post {
		dt.postIdx[b] = i
	}

	rpo := make([]*mir.BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}

	preds := predecessors(fn)
	dt.idom[fn.Entry] = fn.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == fn.Entry {
				continue
			}
			var newIdom *mir.BasicBlock
			for _, p := range preds[b] {
				if dt.idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = dt.intersect(newIdom, p)
			}
			if newIdom != nil && dt.idom[b] != newIdom {
				dt.idom[b] = newIdom
				changed = true
			}
		}
	}

	dt.preOrd = dt.buildPreorder()
	return dt
}

// intersect walks two idom chains upward to their common ancestor, using
// postorder numbers to decide which finger to advance: the block with
// the smaller postorder index is further from the entry in the
// traversal, so its finger moves up first.
func (dt *DomTree) intersect(a, b *mir.BasicBlock) *mir.BasicBlock {
	for a != b {
		for dt.postIdx[a] < dt.postIdx[b] {
			a = dt.idom[a]
		}
		for dt.postIdx[b] < dt.postIdx[a] {
			b = dt.idom[b]
		}
	}
	return a
}

// postorder returns fn's blocks in DFS postorder over the successor CFG,
// starting from fn.Entry. Unreachable blocks never appear.
func postorder(fn *mir.Function) []*mir.BasicBlock {
	visited := map[*mir.BasicBlock]bool{}
	var order []*mir.BasicBlock
	var visit func(b *mir.BasicBlock)
	visit = func(b *mir.BasicBlock) {
		if b == nil || visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Successors() {
			visit(s)
		}
		order = append(order, b)
	}
	visit(fn.Entry)
	return order
}

// buildPreorder walks the dominator tree (children indexed by idom) in
// preorder. Children are collected in Function.Blocks order so the
// preorder is deterministic across runs.
func (dt *DomTree) buildPreorder() []*mir.BasicBlock {
	children := map[*mir.BasicBlock][]*mir.BasicBlock{}
	for _, b := range dt.fn.Blocks {
		p, ok := dt.idom[b]
		if !ok || b == dt.fn.Entry {
			continue
		}
		children[p] = append(children[p], b)
	}
	var order []*mir.BasicBlock
	var visit func(b *mir.BasicBlock)
	visit = func(b *mir.BasicBlock) {
		order = append(order, b)
		for _, c := range children[b] {
			visit(c)
		}
	}
	if dt.fn.Entry != nil {
		visit(dt.fn.Entry)
	}
	return order
}

// Order returns fn's reachable blocks in dominator-tree preorder: every
// block's idom appears before it, which is exactly what TypeInfer needs
// so that an instruction's operands are always already typed.
func (dt *DomTree) Order() []*mir.BasicBlock { return dt.preOrd }

// IDom returns b's immediate dominator, or nil if b is unreachable. The
// entry block's IDom is the entry block itself, by convention.
func (dt *DomTree) IDom(b *mir.BasicBlock) *mir.BasicBlock { return dt.idom[b] }

// Dominates reports whether a dominates b (reflexively: a dominates
// itself).
func (dt *DomTree) Dominates(a, b *mir.BasicBlock) bool {
	if a == nil || b == nil {
		return false
	}
	for cur := b; ; {
		if cur == a {
			return true
		}
		next, ok := dt.idom[cur]
		if !ok || next == cur {
			return cur == a
		}
		cur = next
	}
}
