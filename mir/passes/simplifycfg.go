package passes

import "github.com/vertexdlt/sablec/mir"

// SimplifyCFG removes unreachable basic blocks, folds single-predecessor
// pass-through blocks into their predecessor, and deletes phi nodes with
// one or zero live candidates. It iterates to a fixpoint
// (CategorySimplifyCFG) since each rewrite can expose another — merging
// two blocks can turn a three-candidate phi into a two-candidate one,
// folding that phi away can turn its block into a pass-through candidate,
// and so on — and returns the number of rewrites applied, for the
// driver's pass-diagnostics log.
func SimplifyCFG(fn *mir.Function) int {
	rewrites := 0
	for {
		if removeUnreachable(fn) {
			rewrites++
			continue
		}
		if foldTrivialBlocks(fn) {
			rewrites++
			continue
		}
		if prunePhis(fn) {
			rewrites++
			continue
		}
		break
	}
	return rewrites
}

// removeUnreachable drops every block not reachable from fn.Entry,
// scrubbing any phi candidate elsewhere that named a dropped block as
// its predecessor.
func removeUnreachable(fn *mir.Function) bool {
	live := reachable(fn)
	var dead []*mir.BasicBlock
	for _, b := range fn.Blocks {
		if !live[b] {
			dead = append(dead, b)
		}
	}
	if len(dead) == 0 {
		return false
	}
	deadSet := map[*mir.BasicBlock]bool{}
	for _, b := range dead {
		deadSet[b] = true
	}

	for _, b := range fn.Blocks {
		if !live[b] {
			continue
		}
		for _, inst := range b.Instr {
			if inst.Kind != mir.Phi {
				continue
			}
			kept := inst.PhiCandidates[:0]
			for _, c := range inst.PhiCandidates {
				if deadSet[c.Pred] {
					if c.Value != nil {
						mir.Unlink(inst, "PhiCandidates.Value", c.Value)
					}
					continue
				}
				kept = append(kept, c)
			}
			inst.PhiCandidates = kept
		}
	}

	for _, b := range dead {
		for _, inst := range b.Instr {
			mir.Destroy(inst)
		}
		mir.Destroy(b)
	}

	out := fn.Blocks[:0]
	for _, b := range fn.Blocks {
		if !deadSet[b] {
			out = append(out, b)
		}
	}
	fn.Blocks = out
	return true
}

// foldTrivialBlocks merges the first pass-through block it finds — a
// block b with exactly one predecessor p, where p's only successor is b
// and p ends in a plain unconditional branch — into p, and reports
// whether it found one. It only folds one merge per call; SimplifyCFG's
// fixpoint loop calls it again to find the next.
func foldTrivialBlocks(fn *mir.Function) bool {
	preds := predecessors(fn)
	for _, b := range fn.Blocks {
		if b == fn.Entry {
			continue
		}
		ps := preds[b]
		if len(ps) != 1 || ps[0] == b {
			continue
		}
		p := ps[0]
		if hasPhi(b) {
			continue
		}
		succs := p.Successors()
		if len(succs) != 1 || succs[0] != b {
			continue
		}
		term := p.Terminator()
		if term == nil || term.Kind != mir.BranchUncond {
			continue
		}
		mergeBlocks(fn, p, b)
		return true
	}
	return false
}

func hasPhi(b *mir.BasicBlock) bool {
	for _, inst := range b.Instr {
		if inst.Kind == mir.Phi {
			return true
		}
	}
	return false
}

// mergeBlocks splices b's instructions onto the end of p (after dropping
// p's now-redundant jump into b) and retargets every phi candidate that
// named b as its predecessor to name p instead, since p is now where
// control actually comes from.
func mergeBlocks(fn *mir.Function, p, b *mir.BasicBlock) {
	term := p.Terminator()
	mir.Unlink(term, "Target", b)
	p.Instr = p.Instr[:len(p.Instr)-1]

	succs := b.Successors()

	for _, inst := range b.Instr {
		inst.Block = p
	}
	p.Instr = append(p.Instr, b.Instr...)

	for _, s := range succs {
		if s == nil {
			continue
		}
		for _, inst := range s.Instr {
			if inst.Kind != mir.Phi {
				continue
			}
			for i := range inst.PhiCandidates {
				if inst.PhiCandidates[i].Pred == b {
					inst.PhiCandidates[i].Pred = p
				}
			}
		}
	}

	if fn.Exit == b {
		fn.Exit = p
	}

	mir.Destroy(b)
	out := fn.Blocks[:0]
	for _, blk := range fn.Blocks {
		if blk != b {
			out = append(out, blk)
		}
	}
	fn.Blocks = out
}

// prunePhis deletes the first phi it finds in a live block whose live
// candidate count has dropped to one (forwarding its uses to that single
// value) or zero (a dead phi with nothing left feeding it), reporting
// whether it changed anything.
func prunePhis(fn *mir.Function) bool {
	live := reachable(fn)
	for _, b := range fn.Blocks {
		if !live[b] {
			continue
		}
		for _, inst := range b.Instr {
			if inst.Kind != mir.Phi {
				continue
			}
			var liveCands []mir.PhiCandidate
			for _, c := range inst.PhiCandidates {
				if c.Pred != nil && live[c.Pred] && c.Value != nil {
					liveCands = append(liveCands, c)
				}
			}
			if len(liveCands) == len(inst.PhiCandidates) && len(liveCands) > 1 {
				continue
			}
			switch len(liveCands) {
			case 0:
				removePhi(b, inst)
				return true
			case 1:
				repl := liveCands[0].Value
				for _, user := range inst.UseSites() {
					user.Replace(inst, repl)
				}
				removePhi(b, inst)
				return true
			default:
				inst.PhiCandidates = liveCands
				return true
			}
		}
	}
	return false
}

// removePhi detaches p's own outgoing edges and drops it from b.Instr.
func removePhi(b *mir.BasicBlock, p *mir.Instruction) {
	for _, c := range p.PhiCandidates {
		if c.Value != nil {
			mir.Unlink(p, "PhiCandidates.Value", c.Value)
		}
	}
	if p.Target != nil {
		mir.Unlink(p, "Target", p.Target)
	}
	out := b.Instr[:0]
	for _, inst := range b.Instr {
		if inst != p {
			out = append(out, inst)
		}
	}
	b.Instr = out
}
