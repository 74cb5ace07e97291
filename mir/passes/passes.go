// Package passes implements the MIR analysis and transformation passes:
// the dominator tree, type inference, CFG simplification, and the
// well-formedness checker.
//
// Every pass declares whether it mutates its input and whether a single
// run suffices or it must iterate to a fixpoint. Passes never log in the
// hot translate path (mir.translator); logging here is for driver-level
// diagnostics only.
package passes

import (
	"github.com/sirupsen/logrus"

	"github.com/vertexdlt/sablec/mir"
)

// Category distinguishes a const-analysis pass (read-only, produces a
// result) from a mutating one (rewrites the function in place), and a
// single-run pass from one that must iterate until it stops changing
// anything.
type Category struct {
	Mutating bool
	Fixpoint bool
}

var (
	CategoryDominator    = Category{Mutating: false, Fixpoint: false}
	CategoryTypeInfer    = Category{Mutating: true, Fixpoint: false}
	CategorySimplifyCFG  = Category{Mutating: true, Fixpoint: true}
	CategoryIsWellFormed = Category{Mutating: false, Fixpoint: false}
)

// Log is the package-level diagnostics logger; the driver (cmd/sablec)
// may swap in its own configured instance via SetLogger. Decode/validate/
// translate never touch this — only pass entry/exit and rewrite counts do.
var Log = logrus.New()

// SetLogger replaces the package-level diagnostics logger.
func SetLogger(l *logrus.Logger) { Log = l }

// predecessors returns, for every block in fn, the set of blocks whose
// terminator can transfer control to it. BasicBlock only records
// successors (via its terminator); this is the one place passes need the
// inverse edge, so it is computed on demand rather than kept live.
func predecessors(fn *mir.Function) map[*mir.BasicBlock][]*mir.BasicBlock {
	preds := make(map[*mir.BasicBlock][]*mir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		preds[b] = nil
	}
	for _, b := range fn.Blocks {
		for _, s := range b.Successors() {
			if s == nil {
				continue
			}
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

// reachable returns the set of blocks reachable from fn.Entry by walking
// successor edges.
func reachable(fn *mir.Function) map[*mir.BasicBlock]bool {
	seen := map[*mir.BasicBlock]bool{}
	if fn.Entry == nil {
		return seen
	}
	stack := []*mir.BasicBlock{fn.Entry}
	seen[fn.Entry] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.Successors() {
			if s != nil && !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return seen
}

// Run applies the standard post-translation pipeline to fn: CFG
// simplification to a fixpoint, then the dominator tree and type
// inference over the simplified CFG, then a well-formedness check. It
// returns the dominator tree built on the final CFG, since that is what
// any later consumer (the backend, Check) wants.
func Run(fn *mir.Function) *DomTree {
	entry := Log.WithField("func", fn.Name())
	entry.Debug("passes: simplifying cfg")
	rewrites := SimplifyCFG(fn)
	entry.WithField("rewrites", rewrites).Debug("passes: cfg simplified")

	dt := BuildDominatorTree(fn)
	entry.Debug("passes: inferring types")
	InferTypes(fn, dt)
	MustCheck(fn, dt)
	return dt
}
