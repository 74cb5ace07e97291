// Package mir implements the SSA-form middle intermediate
// representation: the bytecode-to-SSA translator, the ASTNode
// ownership/use-site contract, and the entity graph the analysis passes
// and the backend lowering consume.
//
// Every entity carries a stable NodeID scoped to its owning Module, and
// all use-site bookkeeping funnels through a single pair of package
// functions (Link/Unlink) that every operand setter goes through, so no
// setter can update an edge without updating the target's back-reference
// set in the same motion.
package mir

// NodeID is a stable identifier for one MIR entity, unique within its
// owning Module for the entity's lifetime (ids are never reused even
// after the entity is deleted, so a stale NodeID is reliably
// distinguishable from a live one).
type NodeID uint32

// UseSite is one back-reference: `User` holds an edge (in one of its own
// fields, named by Field for diagnostics) that currently points at the
// node this UseSite is recorded on.
type UseSite struct {
	User  ASTNode
	Field string
}

// ASTNode is the contract every MIR entity implements: identity, a
// possibly-empty name, the set of nodes that reference it, and the two
// operations that keep that set consistent when edges change. The
// `node() *base` method is unexported, which closes the interface to
// this package the same way the bytecode Instruction sum type is closed
// by construction.
type ASTNode interface {
	ID() NodeID
	Name() string
	UseSites() []ASTNode

	// Detach nulls out every outgoing edge this node holds that points to
	// victim; called when victim is being destroyed.
	Detach(victim ASTNode)
	// Replace retargets every outgoing edge equal to old to new.
	Replace(old, new ASTNode)

	node() *base
}

// base is embedded by every concrete MIR entity to provide its ASTNode
// bookkeeping. Entities that have no meaningful Detach/Replace behavior
// (Local, Memory, Table: pure leaves with no outgoing edges of their
// own) can embed base and rely on its default no-op methods.
type base struct {
	id   NodeID
	name string
	uses []UseSite
}

func (b *base) ID() NodeID  { return b.id }
func (b *base) Name() string { return b.name }

func (b *base) UseSites() []ASTNode {
	out := make([]ASTNode, len(b.uses))
	for i, u := range b.uses {
		out[i] = u.User
	}
	return out
}

func (b *base) node() *base { return b }

// Detach and Replace are no-ops by default; leaf entities with no
// outgoing edges never need to override them.
func (b *base) Detach(ASTNode)       {}
func (b *base) Replace(ASTNode, ASTNode) {}

// Link records that user holds an edge named field pointing at target.
// A nil interface target is legal and simply a no-op; the check does not
// catch a typed nil pointer (such as a nil *BasicBlock).
func Link(user ASTNode, field string, target ASTNode) {
	if target == nil {
		return
	}
	tb := target.node()
	tb.uses = append(tb.uses, UseSite{User: user, Field: field})
}

// Unlink removes the (user, field) use-site recorded on target, the
// inverse of Link. Safe to call on a nil target.
func Unlink(user ASTNode, field string, target ASTNode) {
	if target == nil {
		return
	}
	tb := target.node()
	out := tb.uses[:0]
	for _, u := range tb.uses {
		if u.User == user && u.Field == field {
			continue
		}
		out = append(out, u)
	}
	tb.uses = out
}

// Destroy detaches every node that uses victim — no referrer is left
// holding a dangling edge — and clears victim's own use-site
// bookkeeping.
func Destroy(victim ASTNode) {
	for _, user := range victim.UseSites() {
		user.Detach(victim)
	}
	victim.node().uses = nil
}

// idAllocator hands out strictly increasing NodeIDs for one Module.
type idAllocator struct{ next NodeID }

func (a *idAllocator) alloc() NodeID {
	id := a.next
	a.next++
	return id
}
