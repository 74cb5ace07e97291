// Well-formedness checking. Violations are programmer bugs, not
// user-facing errors: a failing Check never reaches the end user, only
// the pass pipeline's own test suite and (optionally, gated by Debug) a
// development-time panic.
package passes

import (
	"github.com/pkg/errors"

	"github.com/vertexdlt/sablec/mir"
)

// Debug gates MustCheck's panic. It defaults to true, favoring catching
// bugs during development and in this module's own test suite;
// cmd/sablec leaves it set.
var Debug = true

// Violation reports one well-formedness defect found by Check.
type Violation struct {
	Kind   string
	Inst   *mir.Instruction
	Detail string
}

func (v *Violation) Error() string {
	return errors.Errorf("mir: well-formedness violation (%s): %s", v.Kind, v.Detail).Error()
}

// Check verifies, over every block of fn:
//   - every block ends in exactly one terminator, in last position;
//   - use-site symmetry for every outgoing edge;
//   - dominance of uses by defs, with the standard SSA exception that a
//     phi candidate's value need only dominate the predecessor block it
//     arrives from, not the phi's own block;
//   - phi-candidate count equals predecessor count;
//   - no nil operand where one is required.
//
// It returns the first violation found, or nil if fn is well formed.
func Check(fn *mir.Function, dt *DomTree) error {
	preds := predecessors(fn)

	for _, b := range fn.Blocks {
		if len(b.Instr) == 0 {
			return &Violation{Kind: "empty-block", Detail: "block " + b.Name() + " has no instructions"}
		}
		last := b.Instr[len(b.Instr)-1]
		if !last.IsTerminator() {
			return &Violation{Kind: "missing-terminator", Inst: last, Detail: "block does not end in a terminator"}
		}
		for _, inst := range b.Instr[:len(b.Instr)-1] {
			if inst.IsTerminator() {
				return &Violation{Kind: "terminator-not-last", Inst: inst, Detail: "terminator appears before the end of its block"}
			}
		}

		nPred := len(preds[b])
		for _, inst := range b.Instr {
			if inst.Kind == mir.Phi && len(inst.PhiCandidates) != nPred {
				return &Violation{
					Kind: "phi-arity", Inst: inst,
					Detail: errors.Errorf("phi has %d candidates, block has %d predecessors", len(inst.PhiCandidates), nPred).Error(),
				}
			}
			if err := checkOperands(inst, dt); err != nil {
				return err
			}
		}
	}
	return nil
}

// MustCheck panics with the first violation Check finds, when Debug is
// set; it is a no-op otherwise, so release builds skip the cost and the
// end user never sees a violation surface.
func MustCheck(fn *mir.Function, dt *DomTree) {
	if !Debug {
		return
	}
	if err := Check(fn, dt); err != nil {
		panic(err)
	}
}

func checkOperands(inst *mir.Instruction, dt *DomTree) error {
	for _, a := range inst.Args {
		if a == nil {
			return &Violation{Kind: "nil-operand", Inst: inst, Detail: "Args contains a nil operand"}
		}
		if err := checkUseSite(inst, a, "Args"); err != nil {
			return err
		}
		if err := checkDominance(dt, a, inst); err != nil {
			return err
		}
	}
	for _, c := range inst.PhiCandidates {
		if c.Value == nil || c.Pred == nil {
			return &Violation{Kind: "nil-operand", Inst: inst, Detail: "phi candidate has a nil value or predecessor"}
		}
		if err := checkUseSite(inst, c.Value, "PhiCandidates.Value"); err != nil {
			return err
		}
		if !dt.Dominates(c.Value.Block, c.Pred) {
			return &Violation{Kind: "dominance", Inst: inst, Detail: "phi candidate's value does not dominate its predecessor block"}
		}
	}
	if inst.Kind == mir.Call && inst.Callee != nil {
		if err := checkUseSite(inst, inst.Callee, "Callee"); err != nil {
			return err
		}
	}
	if inst.Local != nil {
		if err := checkUseSite(inst, inst.Local, "Local"); err != nil {
			return err
		}
	}
	if inst.Global != nil {
		if err := checkUseSite(inst, inst.Global, "Global"); err != nil {
			return err
		}
	}
	if inst.Mem != nil {
		if err := checkUseSite(inst, inst.Mem, "Mem"); err != nil {
			return err
		}
	}
	for _, blk := range blockEdges(inst) {
		if blk.node == nil {
			continue
		}
		if err := checkUseSite(inst, blk.node, blk.field); err != nil {
			return err
		}
	}
	return nil
}

type blockEdge struct {
	node  mir.ASTNode
	field string
}

func blockEdges(inst *mir.Instruction) []blockEdge {
	var out []blockEdge
	if inst.Target != nil {
		out = append(out, blockEdge{inst.Target, "Target"})
	}
	if inst.TargetTrue != nil {
		out = append(out, blockEdge{inst.TargetTrue, "TargetTrue"})
	}
	if inst.TargetFalse != nil {
		out = append(out, blockEdge{inst.TargetFalse, "TargetFalse"})
	}
	if inst.Default != nil {
		out = append(out, blockEdge{inst.Default, "Default"})
	}
	for _, t := range inst.Targets {
		if t != nil {
			out = append(out, blockEdge{t, "Targets"})
		}
	}
	return out
}

func checkUseSite(user *mir.Instruction, target mir.ASTNode, field string) error {
	for _, u := range target.UseSites() {
		if u == mir.ASTNode(user) {
			return nil
		}
	}
	return &Violation{Kind: "use-site-asymmetry", Inst: user, Detail: field + " is not registered as a use-site on its target"}
}

// checkDominance: def's block dominates use's block, or they are the
// same block and def precedes use in it.
func checkDominance(dt *DomTree, def, use *mir.Instruction) error {
	if def.Block == nil || use.Block == nil {
		return &Violation{Kind: "dominance", Inst: use, Detail: "operand or user is not attached to any block"}
	}
	if def.Block == use.Block {
		if indexOf(def.Block, def) < indexOf(def.Block, use) {
			return nil
		}
		return &Violation{Kind: "dominance", Inst: use, Detail: "operand does not precede its use in the same block"}
	}
	if dt.Dominates(def.Block, use.Block) {
		return nil
	}
	return &Violation{Kind: "dominance", Inst: use, Detail: "operand's defining block does not dominate its use"}
}

func indexOf(b *mir.BasicBlock, inst *mir.Instruction) int {
	for i, x := range b.Instr {
		if x == inst {
			return i
		}
	}
	return -1
}
