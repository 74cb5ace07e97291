package mir

import (
	"github.com/pkg/errors"

	"github.com/vertexdlt/sablec/number"
	"github.com/vertexdlt/sablec/wasm"
)

// label is one entry of the translator's label stack, mirroring the
// bytecode layer's implicit label indexing (innermost structured
// construct is index 0 counting from the top). Target is the basic
// block a branch to this label jumps to: a loop's own header for a
// back-edge, or a block/if/function's merge block for a forward exit.
// Phis holds one Phi instruction per element of Types, created alongside
// Target so that every branch (fallthrough or explicit br) can append
// its own PhiCandidate as it's discovered, exactly as track record of
// predecessors accumulates while the body is still being translated.
type label struct {
	target  *BasicBlock
	types   []wasm.ValueType
	phis    []*Instruction
	isLoop  bool
	reached bool
}

// translator holds the mutable state of one function's bytecode-to-MIR
// translation: the shared operand value stack (mirroring the bytecode
// layer's abstract stack machine), the label stack, and the current
// insertion point. Locals and globals stay as mutable slots addressed by
// LocalGet/LocalSet/GlobalGet/GlobalSet instructions rather than being
// promoted to SSA values — only the operand stack is SSA-form, joined by
// Phis at block boundaries.
type translator struct {
	mod  *Module
	wmod *wasm.Module
	fn   *Function

	localsByIdx  []*Local
	globalsByIdx []*Global
	memsByIdx    []*Memory
	tablesByIdx  []*Table
	funcsByIdx   []*Function

	stack  []*Instruction
	labels []*label
	cur    *BasicBlock
	dead   bool
}

// TranslateModule builds the MIR Module for every declared function of
// wmod, wiring globals/memories/tables/data/element segments and
// function bodies.
func TranslateModule(wmod *wasm.Module) (*Module, error) {
	mod := NewModule()
	t := &translator{mod: mod, wmod: wmod}

	for _, imp := range wmod.Imports {
		site := ImportSite{Module: imp.Module, Name: imp.Name}
		switch imp.Desc.Kind {
		case wasm.ExternalFunc:
			ft := wmod.Types[imp.Desc.TypeIdx]
			fn := mod.NewFunction(imp.Module+"."+imp.Name, ft)
			fn.Imported = true
			fn.Import = site
			t.funcsByIdx = append(t.funcsByIdx, fn)
		case wasm.ExternalMem:
			mem := mod.NewMemory(imp.Module+"."+imp.Name, imp.Desc.Mem.Limits, true)
			mem.Import = site
			t.memsByIdx = append(t.memsByIdx, mem)
		case wasm.ExternalTable:
			tbl := mod.NewTable(imp.Module+"."+imp.Name, imp.Desc.Table.Limits, true)
			tbl.Import = site
			t.tablesByIdx = append(t.tablesByIdx, tbl)
		case wasm.ExternalGlobal:
			g := mod.NewGlobal(imp.Module+"."+imp.Name, imp.Desc.GlobalType, InitExpr{}, true)
			g.Import = site
			t.globalsByIdx = append(t.globalsByIdx, g)
		}
	}

	for _, fn := range wmod.Funcs {
		ft := wmod.Types[fn.Type]
		name := fn.Name
		t.funcsByIdx = append(t.funcsByIdx, mod.NewFunction(name, ft))
	}
	for _, mt := range wmod.Mems {
		t.memsByIdx = append(t.memsByIdx, mod.NewMemory("", mt.Limits, false))
	}
	for _, tt := range wmod.Tables {
		t.tablesByIdx = append(t.tablesByIdx, mod.NewTable("", tt.Limits, false))
	}
	for _, g := range wmod.Globals {
		t.globalsByIdx = append(t.globalsByIdx, mod.NewGlobal("", g.Type, t.translateInitExpr(g.Init), false))
	}

	for _, ds := range wmod.Data {
		mod.NewDataSegment(t.memsByIdx[ds.Mem], t.translateInitExpr(ds.Offset), ds.Init)
	}
	for _, es := range wmod.Elems {
		funcs := make([]*Function, len(es.Funcs))
		for i, fi := range es.Funcs {
			funcs[i] = t.funcsByIdx[fi]
		}
		mod.NewElementSegment(t.tablesByIdx[es.Table], t.translateInitExpr(es.Offset), funcs)
	}
	if wmod.Start != nil {
		mod.StartFunc = t.funcsByIdx[*wmod.Start]
	}

	for _, exp := range wmod.Exports {
		var kind ExportKind
		switch exp.Desc.Kind {
		case wasm.ExternalFunc:
			kind = ExportFunc
		case wasm.ExternalTable:
			kind = ExportTable
		case wasm.ExternalMem:
			kind = ExportMem
		case wasm.ExternalGlobal:
			kind = ExportGlobal
		}
		mod.AddExport(exp.Name, kind, exp.Desc.Idx)
	}

	for i, wfn := range wmod.Funcs {
		fnIdx := wmod.NumImportedFuncs + i
		if err := t.translateFunction(t.funcsByIdx[fnIdx], wfn); err != nil {
			return nil, errors.Wrapf(err, "translating function %d", fnIdx)
		}
	}

	return mod, nil
}

func (t *translator) translateInitExpr(ie wasm.InitExpr) InitExpr {
	switch ie.Op {
	case wasm.InitConst:
		return InitExpr{Kind: InitConstant, ValType: ie.Type, I32: ie.I32, I64: ie.I64, F32Bits: ie.F32Bits, F64Bits: ie.F64Bits}
	case wasm.InitGlobalGet:
		return InitExpr{Kind: InitGlobalGetExpr, Global: t.globalsByIdx[ie.Global]}
	}
	return InitExpr{}
}

func (t *translator) translateFunction(fn *Function, wfn wasm.Function) error {
	ft := fn.Sig
	localTypes := wfn.Code.LocalTypes(ft.Params)

	t.fn = fn
	t.stack = nil
	t.labels = nil
	t.dead = false
	t.localsByIdx = make([]*Local, len(localTypes))
	for i, vt := range localTypes {
		t.localsByIdx[i] = fn.NewLocal(&t.mod.alloc, "", vt, i < len(ft.Params))
	}

	entry := fn.NewBlock(&t.mod.alloc, "entry")
	fn.Entry = entry
	t.cur = entry

	exit, exitPhis := t.newMergeTarget(ft.Results)
	fn.Exit = exit
	t.labels = append(t.labels, &label{target: exit, types: ft.Results, phis: exitPhis})

	if err := t.translateSequence(wfn.Code.Body); err != nil {
		return err
	}
	t.closeToLabel(t.labels[0])

	t.cur = exit
	t.dead = false
	switch len(exitPhis) {
	case 0:
		ret := t.mod.NewInstruction(Return)
		exit.Append(ret)
	case 1:
		ret := t.mod.NewInstruction(Return)
		ret.Args = []*Instruction{exitPhis[0]}
		Link(ret, "Args", exitPhis[0])
		exit.Append(ret)
	default:
		pack := t.mod.NewInstruction(Pack)
		pack.Args = append([]*Instruction(nil), exitPhis...)
		for _, p := range exitPhis {
			Link(pack, "Args", p)
		}
		exit.Append(pack)
		ret := t.mod.NewInstruction(Return)
		ret.Args = []*Instruction{pack}
		Link(ret, "Args", pack)
		exit.Append(ret)
	}
	return nil
}

// newMergeTarget creates a block with one Phi per element of types,
// ready to receive PhiCandidates from whichever predecessors eventually
// branch into it.
func (t *translator) newMergeTarget(types []wasm.ValueType) (*BasicBlock, []*Instruction) {
	b := t.fn.NewBlock(&t.mod.alloc, "")
	phis := make([]*Instruction, len(types))
	for i, vt := range types {
		p := t.mod.NewInstruction(Phi)
		p.ValueType = vt
		p.Target = b
		Link(p, "Target", b)
		b.Append(p)
		phis[i] = p
	}
	return b, phis
}

func (t *translator) push(i *Instruction) { t.stack = append(t.stack, i) }

func (t *translator) pop() *Instruction {
	if len(t.stack) == 0 {
		return nil // unreachable/epsilon code: statically validated, never observed at runtime
	}
	v := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return v
}

func (t *translator) popN(n int) []*Instruction {
	out := make([]*Instruction, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = t.pop()
	}
	return out
}

func (t *translator) peekN(n int) []*Instruction {
	if n > len(t.stack) {
		n = len(t.stack)
	}
	out := append([]*Instruction(nil), t.stack[len(t.stack)-n:]...)
	return out
}

func (t *translator) emit(kind InstKind) *Instruction {
	i := t.mod.NewInstruction(kind)
	if !t.dead {
		t.cur.Append(i)
	}
	return i
}

// branchTo records a branch from the current block to lbl, adding a
// PhiCandidate for each of lbl's phis from the top len(lbl.types) stack
// values (peeked, not popped, so the caller decides whether the branch
// consumes them).
func (t *translator) branchTo(lbl *label, vals []*Instruction) {
	lbl.reached = true
	for i, p := range lbl.phis {
		cand := PhiCandidate{Value: vals[i], Pred: t.cur}
		p.PhiCandidates = append(p.PhiCandidates, cand)
		Link(p, "PhiCandidates.Value", vals[i])
	}
}

func (t *translator) closeToLabel(lbl *label) {
	if t.dead {
		return
	}
	vals := t.popN(len(lbl.types))
	t.branchTo(lbl, vals)
	br := t.emit(BranchUncond)
	br.Target = lbl.target
	Link(br, "Target", lbl.target)
	t.dead = true
}

func (t *translator) translateSequence(body []wasm.Instruction) error {
	for _, inst := range body {
		if err := t.translateInstruction(inst); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) translateInstruction(inst wasm.Instruction) error {
	// Code after unreachable/return/br/br_table never executes; the
	// validator has already type-checked it under epsilon mode, so nothing
	// here needs to be materialized. Skipping it also keeps dead
	// instructions from registering phi candidates for edges that do not
	// exist. Translation resumes when the enclosing scope's merge point
	// resets dead.
	if t.dead {
		return nil
	}
	switch {
	case inst.Op == wasm.OpUnreachable:
		t.emit(Unreachable)
		t.dead = true
		return nil
	case inst.Op == wasm.OpNop:
		return nil
	case inst.Op == wasm.OpBlock:
		return t.translateBlock(inst)
	case inst.Op == wasm.OpLoop:
		return t.translateLoop(inst)
	case inst.Op == wasm.OpIf:
		return t.translateIf(inst)
	case inst.Op == wasm.OpBr:
		lbl := t.labelAt(inst.Label)
		t.closeToLabel(lbl)
		return nil
	case inst.Op == wasm.OpBrIf:
		return t.translateBrIf(inst)
	case inst.Op == wasm.OpBrTable:
		return t.translateBrTable(inst)
	case inst.Op == wasm.OpReturn:
		t.closeToLabel(t.labels[0])
		return nil
	case inst.Op == wasm.OpCall:
		return t.translateCall(inst)
	case inst.Op == wasm.OpCallIndirect:
		return t.translateCallIndirect(inst)
	case inst.Op == wasm.OpDrop:
		t.pop()
		return nil
	case inst.Op == wasm.OpSelect:
		return t.translateSelect()
	case inst.Op == wasm.OpLocalGet:
		return t.translateLocalGet(inst)
	case inst.Op == wasm.OpLocalSet:
		return t.translateLocalSet(inst, false)
	case inst.Op == wasm.OpLocalTee:
		return t.translateLocalSet(inst, true)
	case inst.Op == wasm.OpGlobalGet:
		return t.translateGlobalGet(inst)
	case inst.Op == wasm.OpGlobalSet:
		return t.translateGlobalSet(inst)
	case inst.Op == wasm.OpMemorySize:
		ms := t.emit(MemorySize)
		ms.ValueType = wasm.I32
		ms.Mem = t.memsByIdx[0]
		Link(ms, "Mem", ms.Mem)
		t.push(ms)
		return nil
	case inst.Op == wasm.OpMemoryGrow:
		delta := t.pop()
		mg := t.emit(MemoryGrow)
		mg.ValueType = wasm.I32
		mg.Mem = t.memsByIdx[0]
		mg.Args = []*Instruction{delta}
		Link(mg, "Mem", mg.Mem)
		Link(mg, "Args", delta)
		t.push(mg)
		return nil
	case inst.Op == wasm.OpI32Const:
		c := t.emit(Constant)
		c.ValueType = wasm.I32
		c.I32 = inst.I32Val
		t.push(c)
		return nil
	case inst.Op == wasm.OpI64Const:
		c := t.emit(Constant)
		c.ValueType = wasm.I64
		c.I64 = inst.I64Val
		t.push(c)
		return nil
	case inst.Op == wasm.OpF32Const:
		c := t.emit(Constant)
		c.ValueType = wasm.F32
		c.F32Bits = inst.F32Bits
		t.push(c)
		return nil
	case inst.Op == wasm.OpF64Const:
		c := t.emit(Constant)
		c.ValueType = wasm.F64
		c.F64Bits = inst.F64Bits
		t.push(c)
		return nil
	case inst.Op >= wasm.OpI32Load && inst.Op <= wasm.OpI64Store32:
		return t.translateMemOp(inst)
	case inst.Op.IsComparison():
		return t.translateCompare(inst)
	case inst.Op.IsUnary():
		return t.translateUnary(inst)
	case inst.Op.IsBinary():
		return t.translateBinary(inst)
	case inst.Op.IsConversion():
		return t.translateConversion(inst)
	case inst.Op >= wasm.OpI32Extend8S && inst.Op <= wasm.OpI64Extend32S:
		return t.translateSignExtend(inst)
	case inst.Op == wasm.OpExtensionFC:
		return t.translateSatTrunc(inst)
	case inst.Op == wasm.OpExtensionSIMD:
		return t.translateSimd(inst)
	}
	return errors.Errorf("mir: translate: unhandled opcode 0x%02x", byte(inst.Op))
}

func (t *translator) labelAt(idx wasm.LabelIdx) *label {
	return t.labels[len(t.labels)-1-int(idx)]
}

func (t *translator) translateBlock(inst wasm.Instruction) error {
	ft, _ := wasm.BlockSignature(inst.BlockType, t.wmod.Types)
	base := len(t.stack) - len(ft.Params)
	merge, phis := t.newMergeTarget(ft.Results)
	lbl := &label{target: merge, types: ft.Results, phis: phis}
	t.labels = append(t.labels, lbl)

	if err := t.translateSequence(inst.Then); err != nil {
		return err
	}
	t.closeToLabel(lbl)

	t.labels = t.labels[:len(t.labels)-1]
	t.cur = merge
	t.dead = !lbl.reached
	// A br out of the block can leave values pushed below it on the
	// stack; the block's exit rewinds to its entry height before the
	// merged results replace the consumed params.
	t.stack = t.stack[:base]
	for _, p := range phis {
		t.push(p)
	}
	return nil
}

func (t *translator) translateLoop(inst wasm.Instruction) error {
	ft, _ := wasm.BlockSignature(inst.BlockType, t.wmod.Types)
	initVals := t.popN(len(ft.Params))
	base := len(t.stack)

	header := t.fn.NewBlock(&t.mod.alloc, "")
	headerPhis := make([]*Instruction, len(ft.Params))
	for i, vt := range ft.Params {
		p := t.mod.NewInstruction(Phi)
		p.ValueType = vt
		p.Target = header
		Link(p, "Target", header)
		p.PhiCandidates = []PhiCandidate{{Value: initVals[i], Pred: t.cur}}
		Link(p, "PhiCandidates.Value", initVals[i])
		header.Append(p)
		headerPhis[i] = p
	}

	br := t.emit(BranchUncond)
	br.Target = header
	Link(br, "Target", header)
	t.cur = header

	lbl := &label{target: header, types: ft.Params, phis: headerPhis, isLoop: true}
	t.labels = append(t.labels, lbl)
	for _, p := range headerPhis {
		t.push(p)
	}

	if err := t.translateSequence(inst.Then); err != nil {
		return err
	}
	t.labels = t.labels[:len(t.labels)-1]
	if t.dead {
		// The body never falls out (it ended in a br/return/unreachable);
		// whatever it left behind is not the loop's result values.
		t.stack = t.stack[:base]
	}
	return nil
}

func (t *translator) translateIf(inst wasm.Instruction) error {
	ft, _ := wasm.BlockSignature(inst.BlockType, t.wmod.Types)
	cond := t.pop()
	params := t.popN(len(ft.Params))
	base := append([]*Instruction(nil), t.stack...)

	thenBB := t.fn.NewBlock(&t.mod.alloc, "")
	elseBB := t.fn.NewBlock(&t.mod.alloc, "")
	merge, phis := t.newMergeTarget(ft.Results)
	mergeLbl := &label{target: merge, types: ft.Results, phis: phis}

	brc := t.emit(BranchCond)
	brc.Args = []*Instruction{cond}
	brc.TargetTrue = thenBB
	brc.TargetFalse = elseBB
	Link(brc, "Args", cond)
	Link(brc, "TargetTrue", thenBB)
	Link(brc, "TargetFalse", elseBB)

	t.cur = thenBB
	t.dead = false
	t.stack = append(append([]*Instruction(nil), base...), params...)
	t.labels = append(t.labels, mergeLbl)
	if err := t.translateSequence(inst.Then); err != nil {
		return err
	}
	t.closeToLabel(mergeLbl)

	t.cur = elseBB
	t.dead = false
	t.stack = append(append([]*Instruction(nil), base...), params...)
	if inst.HasElse {
		if err := t.translateSequence(inst.Else); err != nil {
			return err
		}
	}
	// With no else arm the params (== results, enforced by validation)
	// flow through to the merge untouched; closeToLabel picks them up the
	// same way it picks up a real arm's results.
	t.closeToLabel(mergeLbl)

	t.labels = t.labels[:len(t.labels)-1]
	t.cur = merge
	t.dead = !mergeLbl.reached
	t.stack = base
	for _, p := range phis {
		t.push(p)
	}
	return nil
}

func (t *translator) translateBrIf(inst wasm.Instruction) error {
	cond := t.pop()
	lbl := t.labelAt(inst.Label)
	vals := t.peekN(len(lbl.types))
	t.branchTo(lbl, vals)

	cont := t.fn.NewBlock(&t.mod.alloc, "")
	brc := t.emit(BranchCond)
	brc.Args = []*Instruction{cond}
	brc.TargetTrue = lbl.target
	brc.TargetFalse = cont
	Link(brc, "Args", cond)
	Link(brc, "TargetTrue", lbl.target)
	Link(brc, "TargetFalse", cont)

	t.cur = cont
	return nil
}

func (t *translator) translateBrTable(inst wasm.Instruction) error {
	idx := t.pop()
	deflt := t.labelAt(inst.TableDefault)
	vals := t.peekN(len(deflt.types))
	t.branchTo(deflt, vals)

	targets := make([]*BasicBlock, len(inst.TableTargets))
	for i, l := range inst.TableTargets {
		lbl := t.labelAt(l)
		t.branchTo(lbl, vals)
		targets[i] = lbl.target
	}

	sw := t.emit(BranchSwitch)
	sw.Args = []*Instruction{idx}
	sw.Targets = targets
	sw.Default = deflt.target
	Link(sw, "Args", idx)
	for _, tg := range targets {
		Link(sw, "Targets", tg)
	}
	Link(sw, "Default", deflt.target)
	t.dead = true
	return nil
}

func (t *translator) translateCall(inst wasm.Instruction) error {
	callee := t.funcsByIdx[inst.Func]
	ft := callee.Sig
	args := t.popN(len(ft.Params))
	c := t.emit(Call)
	c.Callee = callee
	c.Args = args
	Link(c, "Callee", callee)
	for _, a := range args {
		Link(c, "Args", a)
	}
	t.pushCallResults(c, ft.Results)
	return nil
}

func (t *translator) translateCallIndirect(inst wasm.Instruction) error {
	ft := t.wmod.Types[inst.Type]
	idx := t.pop()
	args := t.popN(len(ft.Params))
	ci := t.emit(CallIndirect)
	ci.CalleeSig = ft
	ci.Args = append([]*Instruction{idx}, args...)
	for _, a := range ci.Args {
		Link(ci, "Args", a)
	}
	t.pushCallResults(ci, ft.Results)
	return nil
}

// pushCallResults wires a completed Call/CallIndirect's result(s) onto
// the stack, inserting an Unpack per component when the callee returns
// more than one value.
func (t *translator) pushCallResults(call *Instruction, results []wasm.ValueType) {
	switch len(results) {
	case 0:
	case 1:
		call.ValueType = results[0]
		t.push(call)
	default:
		for i, vt := range results {
			u := t.emit(Unpack)
			u.ValueType = vt
			u.AggregateIdx = i
			u.Args = []*Instruction{call}
			Link(u, "Args", call)
			t.push(u)
		}
	}
}

func (t *translator) translateSelect() error {
	cond := t.pop()
	b := t.pop()
	a := t.pop()
	s := t.emit(Select)
	s.Args = []*Instruction{cond, a, b}
	s.ValueType = a.ValueType
	Link(s, "Args", cond)
	Link(s, "Args", a)
	Link(s, "Args", b)
	t.push(s)
	return nil
}

func (t *translator) translateLocalGet(inst wasm.Instruction) error {
	l := t.localsByIdx[inst.Local]
	g := t.emit(LocalGet)
	g.Local = l
	g.ValueType = l.Type
	Link(g, "Local", l)
	t.push(g)
	return nil
}

func (t *translator) translateLocalSet(inst wasm.Instruction, tee bool) error {
	l := t.localsByIdx[inst.Local]
	v := t.pop()
	s := t.emit(LocalSet)
	s.Local = l
	s.Args = []*Instruction{v}
	Link(s, "Local", l)
	Link(s, "Args", v)
	if tee {
		t.push(v)
	}
	return nil
}

func (t *translator) translateGlobalGet(inst wasm.Instruction) error {
	gl := t.globalsByIdx[inst.Global]
	g := t.emit(GlobalGet)
	g.Global = gl
	g.ValueType = gl.Type.ValueType
	Link(g, "Global", gl)
	t.push(g)
	return nil
}

func (t *translator) translateGlobalSet(inst wasm.Instruction) error {
	gl := t.globalsByIdx[inst.Global]
	v := t.pop()
	s := t.emit(GlobalSet)
	s.Global = gl
	s.Args = []*Instruction{v}
	Link(s, "Global", gl)
	Link(s, "Args", v)
	return nil
}

// effectiveAddress builds the address a memory access actually reads or
// writes: the bytecode's base address plus its memarg's immediate
// offset, modeled as a separate constant added via an integer Add so
// the guard sees the full effective address. When offset is zero the
// base address is used directly — no dead Constant(0)/Add pair.
func (t *translator) effectiveAddress(base *Instruction, offset uint32) *Instruction {
	if offset == 0 {
		return base
	}
	c := t.emit(Constant)
	c.ValueType = wasm.I32
	c.I32 = int32(offset)

	add := t.emit(Binary)
	add.Op = wasm.OpI32Add
	add.ValueType = wasm.I32
	add.Args = []*Instruction{base, c}
	Link(add, "Args", base)
	Link(add, "Args", c)
	return add
}

func (t *translator) translateMemOp(inst wasm.Instruction) error {
	width, signed, isLoad := wasm.LoadStoreWidth(inst.Op)
	mem := t.memsByIdx[0]

	addr := t.effectiveAddress(t.pop(), inst.Mem.Offset)
	guard := t.emit(MemoryGuard)
	guard.ValueType = wasm.I32
	guard.Mem = mem
	guard.Args = []*Instruction{addr}
	guard.Width = width
	Link(guard, "Mem", mem)
	Link(guard, "Args", addr)

	if isLoad {
		ld := t.emit(Load)
		ld.ValueType = wasm.ValueTypeOf(inst.Op)
		ld.Mem = mem
		ld.Args = []*Instruction{guard}
		ld.Width = width
		ld.Signed = signed
		ld.Align = inst.Mem.Align
		Link(ld, "Mem", mem)
		Link(ld, "Args", guard)
		result := ld
		if signed {
			// A narrow signed load is a plain load of width bytes followed
			// by an explicit sign-extension of those low bits.
			ext := t.emit(Cast)
			ext.ValueType = ld.ValueType
			ext.CastMode = CastConversionSigned
			ext.Signed = true
			ext.Width = width
			ext.Args = []*Instruction{ld}
			Link(ext, "Args", ld)
			result = ext
		}
		t.push(result)
		return nil
	}

	val := t.pop()
	st := t.emit(Store)
	st.Mem = mem
	st.Args = []*Instruction{guard, val}
	st.Width = width
	st.Align = inst.Mem.Align
	Link(st, "Mem", mem)
	Link(st, "Args", guard)
	Link(st, "Args", val)
	return nil
}

func (t *translator) translateCompare(inst wasm.Instruction) error {
	var args []*Instruction
	if inst.Op == wasm.OpI32Eqz || inst.Op == wasm.OpI64Eqz {
		args = []*Instruction{t.pop()}
	} else {
		b := t.pop()
		a := t.pop()
		args = []*Instruction{a, b}
	}
	c := t.emit(Compare)
	c.Op = inst.Op
	c.ValueType = wasm.I32
	c.Args = args
	for _, a := range args {
		Link(c, "Args", a)
	}
	t.push(c)
	return nil
}

func (t *translator) translateUnary(inst wasm.Instruction) error {
	a := t.pop()
	u := t.emit(Unary)
	u.Op = inst.Op
	u.ValueType = inst.Op.OperandType()
	u.Args = []*Instruction{a}
	Link(u, "Args", a)
	t.push(u)
	return nil
}

func (t *translator) translateBinary(inst wasm.Instruction) error {
	b := t.pop()
	a := t.pop()
	bin := t.emit(Binary)
	bin.Op = inst.Op
	bin.ValueType = inst.Op.OperandType()
	bin.Args = []*Instruction{a, b}
	Link(bin, "Args", a)
	Link(bin, "Args", b)
	t.push(bin)
	return nil
}

func (t *translator) translateConversion(inst wasm.Instruction) error {
	a := t.pop()
	dst, mode := conversionResult(inst.Op)
	c := t.emit(Cast)
	c.Op = inst.Op
	c.ValueType = dst
	c.CastMode = mode
	c.Args = []*Instruction{a}
	Link(c, "Args", a)
	t.push(c)
	return nil
}

func (t *translator) translateSignExtend(inst wasm.Instruction) error {
	a := t.pop()
	e := t.emit(Extend)
	e.Op = inst.Op
	e.Signed = true
	if inst.Op == wasm.OpI64Extend8S || inst.Op == wasm.OpI64Extend16S || inst.Op == wasm.OpI64Extend32S {
		e.ValueType = wasm.I64
	} else {
		e.ValueType = wasm.I32
	}
	e.Args = []*Instruction{a}
	Link(e, "Args", a)
	t.push(e)
	return nil
}

func (t *translator) translateSatTrunc(inst wasm.Instruction) error {
	a := t.pop()
	dst, from, to := satTruncShape(inst.SatOp)

	// A saturating truncation is total (NaN and out-of-range inputs clamp
	// rather than trap), so a float-constant operand folds to an integer
	// constant right here instead of surviving as a Cast.
	if a.Kind == Constant && (a.ValueType == wasm.F32 || a.ValueType == wasm.F64) {
		var srcBits uint64
		if a.ValueType == wasm.F32 {
			srcBits = uint64(a.F32Bits)
		} else {
			srcBits = a.F64Bits
		}
		bits, _ := number.FloatTruncate(from, to, srcBits)
		t.dropIfUnused(a)
		c := t.emit(Constant)
		c.ValueType = dst
		if dst == wasm.I32 {
			c.I32 = int32(uint32(bits))
		} else {
			c.I64 = int64(bits)
		}
		t.push(c)
		return nil
	}

	c := t.emit(Cast)
	c.ValueType = dst
	c.CastMode = CastSatConversion
	c.Signed = inst.SatOp%2 == 0
	c.Args = []*Instruction{a}
	Link(c, "Args", a)
	t.push(c)
	return nil
}

// satTruncShape resolves a saturating truncation sub-opcode to its MIR
// result type and the number-package source/destination widths
// FloatTruncate folds constants with.
func satTruncShape(satOp uint32) (dst wasm.ValueType, from, to number.Type) {
	switch satOp {
	case wasm.SatI32TruncF32S:
		return wasm.I32, number.F32, number.I32
	case wasm.SatI32TruncF32U:
		return wasm.I32, number.F32, number.U32
	case wasm.SatI32TruncF64S:
		return wasm.I32, number.F64, number.I32
	case wasm.SatI32TruncF64U:
		return wasm.I32, number.F64, number.U32
	case wasm.SatI64TruncF32S:
		return wasm.I64, number.F32, number.I64
	case wasm.SatI64TruncF32U:
		return wasm.I64, number.F32, number.U64
	case wasm.SatI64TruncF64S:
		return wasm.I64, number.F64, number.I64
	default:
		return wasm.I64, number.F64, number.U64
	}
}

// dropIfUnused removes a just-popped instruction from the current block
// when nothing else references it, keeping folded-away constants from
// lingering as dead instructions.
func (t *translator) dropIfUnused(a *Instruction) {
	if len(a.UseSites()) != 0 {
		return
	}
	n := len(t.cur.Instr)
	if n > 0 && t.cur.Instr[n-1] == a {
		t.cur.Instr = t.cur.Instr[:n-1]
	}
}

// translateSimd routes a SIMD sub-opcode to the MIR shape its operand
// arity and result type actually call for (wasm.SimdShapeOf):
// VecSplat/VecExtract/VecInsert/VecShuffle for the four lane ops that
// have a dedicated kind, Unary/Binary for the shapes that share scalar
// arithmetic's shape, and the memory shapes built the same way
// translateMemOp builds theirs (effectiveAddress, then a MemoryGuard).
// Every emitted instruction records (Op, SimdOp) = (OpExtensionSIMD,
// sub-opcode) so the concrete operation — i32x4.add vs f32x4.mul vs
// i8x16.neg — survives into lowering the same way a scalar op's
// identity survives in Op alone. The one shape the closed kind set
// cannot express — bitselect's true ternary v128 x v128 x v128 -> v128
// — folds into the Binary default, which consumes only the top two
// operands (the second value and the mask) and leaves the first value
// operand on the stack; see the Open Question resolutions in DESIGN.md.
func (t *translator) translateSimd(inst wasm.Instruction) error {
	switch wasm.SimdShapeOf(inst.SimdOp) {
	case wasm.SimdShapeMemoryLoad:
		return t.translateSimdLoad(inst, false)
	case wasm.SimdShapeMemoryLoadLane:
		return t.translateSimdLoad(inst, true)
	case wasm.SimdShapeMemoryStore:
		return t.translateSimdStore(inst)
	case wasm.SimdShapeMemoryStoreLane:
		return t.translateSimdStore(inst)
	case wasm.SimdShapeConst:
		c := t.emit(Constant)
		c.ValueType = wasm.V128
		copy(c.V128[:], inst.SimdImm)
		t.push(c)
		return nil
	case wasm.SimdShapeSplat:
		a := t.pop()
		v := t.emit(VecSplat)
		v.Op = wasm.OpExtensionSIMD
		v.SimdOp = inst.SimdOp
		v.ValueType = wasm.V128
		v.Args = []*Instruction{a}
		v.Lane = laneInfoOf(inst.SimdOp, inst.SimdImm)
		Link(v, "Args", a)
		t.push(v)
		return nil
	case wasm.SimdShapeExtractLane:
		a := t.pop()
		v := t.emit(VecExtract)
		v.Op = wasm.OpExtensionSIMD
		v.SimdOp = inst.SimdOp
		v.ValueType = wasm.SimdScalarType(inst.SimdOp)
		v.Args = []*Instruction{a}
		v.Lane = laneInfoOf(inst.SimdOp, inst.SimdImm)
		v.Signed = wasm.SimdExtractSigned(inst.SimdOp)
		Link(v, "Args", a)
		t.push(v)
		return nil
	case wasm.SimdShapeReplaceLane:
		b := t.pop()
		a := t.pop()
		v := t.emit(VecInsert)
		v.Op = wasm.OpExtensionSIMD
		v.SimdOp = inst.SimdOp
		v.ValueType = wasm.V128
		v.Args = []*Instruction{a, b}
		v.Lane = laneInfoOf(inst.SimdOp, inst.SimdImm)
		Link(v, "Args", a)
		Link(v, "Args", b)
		t.push(v)
		return nil
	case wasm.SimdShapeShuffle:
		b := t.pop()
		a := t.pop()
		v := t.emit(VecShuffle)
		v.Op = wasm.OpExtensionSIMD
		v.SimdOp = inst.SimdOp
		v.ValueType = wasm.V128
		v.Args = []*Instruction{a, b}
		v.Lane = LaneInfo{LaneWidth: 8, LaneCount: 16, Shuffle: append([]byte(nil), inst.SimdImm...)}
		Link(v, "Args", a)
		Link(v, "Args", b)
		t.push(v)
		return nil
	case wasm.SimdShapeUnary:
		a := t.pop()
		u := t.emit(Unary)
		u.Op = wasm.OpExtensionSIMD
		u.SimdOp = inst.SimdOp
		u.ValueType = wasm.V128
		u.Args = []*Instruction{a}
		Link(u, "Args", a)
		t.push(u)
		return nil
	case wasm.SimdShapeTest:
		a := t.pop()
		u := t.emit(Unary)
		u.Op = wasm.OpExtensionSIMD
		u.SimdOp = inst.SimdOp
		u.ValueType = wasm.I32
		u.Args = []*Instruction{a}
		Link(u, "Args", a)
		t.push(u)
		return nil
	case wasm.SimdShapeShift:
		count := t.pop()
		a := t.pop()
		bin := t.emit(Binary)
		bin.Op = wasm.OpExtensionSIMD
		bin.SimdOp = inst.SimdOp
		bin.ValueType = wasm.V128
		bin.Args = []*Instruction{a, count}
		Link(bin, "Args", a)
		Link(bin, "Args", count)
		t.push(bin)
		return nil
	default: // SimdShapeBinary
		b := t.pop()
		a := t.pop()
		bin := t.emit(Binary)
		bin.Op = wasm.OpExtensionSIMD
		bin.SimdOp = inst.SimdOp
		bin.ValueType = wasm.V128
		bin.Args = []*Instruction{a, b}
		Link(bin, "Args", a)
		Link(bin, "Args", b)
		t.push(bin)
		return nil
	}
}

// translateSimdLoad handles v128.load and its narrowing/splatting/
// zero-extending/lane-load variants: isLane distinguishes the
// load_lane family (which also consumes the v128 being partially
// replaced) from a plain load.
func (t *translator) translateSimdLoad(inst wasm.Instruction, isLane bool) error {
	var vec *Instruction
	if isLane {
		vec = t.pop()
	}
	ma := wasm.SimdMemArg(inst.SimdImm)
	addr := t.effectiveAddress(t.pop(), ma.Offset)
	width := wasm.SimdMemWidth(inst.SimdOp)

	guard := t.emit(MemoryGuard)
	guard.ValueType = wasm.I32
	guard.Mem = t.memsByIdx[0]
	guard.Args = []*Instruction{addr}
	guard.Width = width
	Link(guard, "Mem", guard.Mem)
	Link(guard, "Args", addr)

	ld := t.emit(Load)
	ld.Op = wasm.OpExtensionSIMD
	ld.SimdOp = inst.SimdOp
	ld.ValueType = wasm.V128
	ld.Mem = t.memsByIdx[0]
	ld.Width = width
	ld.Align = ma.Align
	if isLane {
		ld.Args = []*Instruction{guard, vec}
		Link(ld, "Args", vec)
	} else {
		ld.Args = []*Instruction{guard}
	}
	Link(ld, "Args", guard)
	Link(ld, "Mem", ld.Mem)
	t.push(ld)
	return nil
}

// translateSimdStore handles v128.store and its lane-store variants:
// both pop the v128 operand then the address, in that order.
func (t *translator) translateSimdStore(inst wasm.Instruction) error {
	val := t.pop()
	ma := wasm.SimdMemArg(inst.SimdImm)
	addr := t.effectiveAddress(t.pop(), ma.Offset)
	width := wasm.SimdMemWidth(inst.SimdOp)

	guard := t.emit(MemoryGuard)
	guard.ValueType = wasm.I32
	guard.Mem = t.memsByIdx[0]
	guard.Args = []*Instruction{addr}
	guard.Width = width
	Link(guard, "Mem", guard.Mem)
	Link(guard, "Args", addr)

	st := t.emit(Store)
	st.Op = wasm.OpExtensionSIMD
	st.SimdOp = inst.SimdOp
	st.Mem = t.memsByIdx[0]
	st.Args = []*Instruction{guard, val}
	st.Width = width
	st.Align = ma.Align
	Link(st, "Mem", st.Mem)
	Link(st, "Args", guard)
	Link(st, "Args", val)
	return nil
}

// laneInfoOf builds the LaneInfo a splat/extract_lane/replace_lane
// instruction carries: the sub-opcode's lane shape plus the single-byte
// lane immediate (absent for splat, which addresses every lane).
func laneInfoOf(sub uint32, imm []byte) LaneInfo {
	width, count := wasm.SimdLaneShape(sub)
	li := LaneInfo{LaneWidth: width, LaneCount: count}
	if len(imm) > 0 {
		li.Lane = int(imm[0])
	}
	return li
}

// conversionResult returns the destination value type and lowering mode
// for a numeric conversion opcode.
func conversionResult(op wasm.Opcode) (wasm.ValueType, CastMode) {
	switch op {
	case wasm.OpI32WrapI64:
		return wasm.I32, CastConversion
	case wasm.OpI32TruncF32S, wasm.OpI32TruncF64S:
		return wasm.I32, CastConversionSigned
	case wasm.OpI32TruncF32U, wasm.OpI32TruncF64U:
		return wasm.I32, CastConversionUnsigned
	case wasm.OpI64ExtendI32S:
		return wasm.I64, CastConversionSigned
	case wasm.OpI64ExtendI32U:
		return wasm.I64, CastConversionUnsigned
	case wasm.OpI64TruncF32S, wasm.OpI64TruncF64S:
		return wasm.I64, CastConversionSigned
	case wasm.OpI64TruncF32U, wasm.OpI64TruncF64U:
		return wasm.I64, CastConversionUnsigned
	case wasm.OpF32ConvertI32S, wasm.OpF32ConvertI64S:
		return wasm.F32, CastConversionSigned
	case wasm.OpF32ConvertI32U, wasm.OpF32ConvertI64U:
		return wasm.F32, CastConversionUnsigned
	case wasm.OpF32DemoteF64:
		return wasm.F32, CastConversion
	case wasm.OpF64ConvertI32S, wasm.OpF64ConvertI64S:
		return wasm.F64, CastConversionSigned
	case wasm.OpF64ConvertI32U, wasm.OpF64ConvertI64U:
		return wasm.F64, CastConversionUnsigned
	case wasm.OpF64PromoteF32:
		return wasm.F64, CastConversion
	case wasm.OpI32ReinterpretF32:
		return wasm.I32, CastReinterpret
	case wasm.OpI64ReinterpretF64:
		return wasm.I64, CastReinterpret
	case wasm.OpF32ReinterpretI32:
		return wasm.F32, CastReinterpret
	case wasm.OpF64ReinterpretI64:
		return wasm.F64, CastReinterpret
	}
	return wasm.I32, CastConversion
}
