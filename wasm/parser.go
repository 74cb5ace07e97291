package wasm

import (
	"github.com/vertexdlt/sablec/reader"
)

// Magic and Version are the 8-byte header every binary module begins
// with: the string "\0asm" followed by the format version, both read as
// raw little-endian uint32s (not LEB128).
const (
	Magic   uint32 = 0x6D736100
	Version uint32 = 0x00000001
)

// sectionID names the eleven non-custom section ids plus custom (0).
// Non-custom ids must appear in strictly increasing order.
type sectionID byte

const (
	secCustom   sectionID = 0
	secType     sectionID = 1
	secImport   sectionID = 2
	secFunction sectionID = 3
	secTable    sectionID = 4
	secMemory   sectionID = 5
	secGlobal   sectionID = 6
	secExport   sectionID = 7
	secStart    sectionID = 8
	secElement  sectionID = 9
	secCode     sectionID = 10
	secData     sectionID = 11
)

// Delegate receives one callback per top-level artifact as the streaming
// parser walks the module, in file order. It accumulates no state beyond
// what the caller chooses to keep; ModuleBuilder (builder.go) is the
// delegate this package provides to build an in-memory Module.
type Delegate interface {
	OnType(idx int, ft FunctionType) error
	OnImport(idx int, imp Import) error
	OnFunction(idx int, typeIdx TypeIdx) error
	OnTable(idx int, tt TableType) error
	OnMemory(idx int, mt MemoryType) error
	OnGlobal(idx int, g Global) error
	OnExport(idx int, e Export) error
	OnStart(f FuncIdx) error
	OnElement(idx int, e ElementSegment) error
	OnCodeLocals(funcIdx int, locals []LocalGroup) error
	OnCodeExpression(funcIdx int, body []Instruction) error
	OnData(idx int, d DataSegment) error
}

// CustomSectionHandler processes the opaque payload of a custom section
// whose name matches the tag it was registered under. A returned error is
// re-raised by the parser as a ParseError anchored at the payload byte
// where the handler's own reader had advanced to.
type CustomSectionHandler func(name string, r *reader.Reader) error

// Parser drives the byte format: it verifies the header, iterates
// sections by (id, size), enforces strictly-increasing non-custom section
// ids, and dispatches one delegate event per entry. It holds no state of
// its own beyond the reader, the delegate, the registered custom-section
// handlers, and the last non-custom section id seen; nested expressions
// are parsed by recursion.
type Parser struct {
	r              *reader.Reader
	delegate       Delegate
	customHandlers map[string]CustomSectionHandler
	lastSectionID  int // -1 before any non-custom section has been seen
}

// NewParser creates a Parser over buf that will report decoded artifacts
// to delegate.
func NewParser(buf []byte, delegate Delegate) *Parser {
	return &Parser{
		r:              reader.New(buf),
		delegate:       delegate,
		customHandlers: map[string]CustomSectionHandler{},
		lastSectionID:  -1,
	}
}

// RegisterCustomHandler routes any custom section named `name` to
// handler. Unregistered custom sections are silently skipped.
func (p *Parser) RegisterCustomHandler(name string, handler CustomSectionHandler) {
	p.customHandlers[name] = handler
}

// Parse runs the full pipeline: header, then sections until the input is
// exhausted.
func (p *Parser) Parse() error {
	if err := p.parseHeader(); err != nil {
		return err
	}
	for !p.r.AtEnd() {
		if err := p.parseSection(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseHeader() error {
	magicBytes, err := p.r.ReadBytes(4)
	if err != nil {
		return parseErr(p.r.Pos(), "magic", err)
	}
	magic := uint32(magicBytes[0]) | uint32(magicBytes[1])<<8 | uint32(magicBytes[2])<<16 | uint32(magicBytes[3])<<24
	if magic != Magic {
		return parseErr(0, "magic", ErrBadMagic)
	}
	versionBytes, err := p.r.ReadBytes(4)
	if err != nil {
		return parseErr(p.r.Pos(), "version", err)
	}
	version := uint32(versionBytes[0]) | uint32(versionBytes[1])<<8 | uint32(versionBytes[2])<<16 | uint32(versionBytes[3])<<24
	if version != Version {
		return parseErr(4, "version", ErrBadVersion)
	}
	return nil
}

func (p *Parser) parseSection() error {
	startOff := p.r.Pos()
	idByte, err := p.r.ReadByte()
	if err != nil {
		return parseErr(startOff, "section id", err)
	}
	id := sectionID(idByte)
	size, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "section size", err)
	}
	if err := p.r.PushBarrier(size); err != nil {
		return parseErr(p.r.Pos(), "section size", err)
	}

	if id != secCustom {
		if int(id) < 1 || int(id) > 11 {
			return parseErr(startOff, "section id", ErrSectionIDOutOfRange)
		}
		if int(id) <= p.lastSectionID {
			return parseErr(startOff, "section order", ErrSectionOrder)
		}
		p.lastSectionID = int(id)
	}

	if err := p.dispatchSection(id); err != nil {
		return err
	}

	if !p.r.AtEnd() {
		return parseErr(p.r.Pos(), "section", ErrUnconsumedBytes)
	}
	p.r.PopBarrier()
	return nil
}

func (p *Parser) dispatchSection(id sectionID) error {
	switch id {
	case secCustom:
		return p.parseCustomSection()
	case secType:
		return p.parseTypeSection()
	case secImport:
		return p.parseImportSection()
	case secFunction:
		return p.parseFunctionSection()
	case secTable:
		return p.parseTableSection()
	case secMemory:
		return p.parseMemorySection()
	case secGlobal:
		return p.parseGlobalSection()
	case secExport:
		return p.parseExportSection()
	case secStart:
		return p.parseStartSection()
	case secElement:
		return p.parseElementSection()
	case secCode:
		return p.parseCodeSection()
	case secData:
		return p.parseDataSection()
	}
	return parseErr(p.r.Pos(), "section id", ErrSectionIDOutOfRange)
}

func (p *Parser) parseCustomSection() error {
	name, err := p.r.ReadUTF8StringVector()
	if err != nil {
		return parseErr(p.r.Pos(), "custom section name", err)
	}
	handler, ok := p.customHandlers[name]
	if !ok {
		// No handler registered: skip the remaining opaque payload.
		if err := p.r.Skip(p.r.Remaining()); err != nil {
			return parseErr(p.r.Pos(), "custom section payload", err)
		}
		return nil
	}
	if err := handler(name, p.r); err != nil {
		return parseErr(p.r.Pos(), "custom section "+name, err)
	}
	return nil
}

func (p *Parser) parseTypeSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "type section count", err)
	}
	for i := uint32(0); i < n; i++ {
		ft, err := p.parseFunctionType()
		if err != nil {
			return err
		}
		if err := p.delegate.OnType(int(i), ft); err != nil {
			return parseErr(p.r.Pos(), "type entry", err)
		}
	}
	return nil
}

func (p *Parser) parseFunctionType() (FunctionType, error) {
	form, err := p.r.ReadByte()
	if err != nil {
		return FunctionType{}, parseErr(p.r.Pos(), "functype form", err)
	}
	if form != 0x60 {
		return FunctionType{}, parseErr(p.r.Pos()-1, "functype form", ErrInvalidFuncTypeForm)
	}
	params, err := p.parseValueTypeVector()
	if err != nil {
		return FunctionType{}, err
	}
	results, err := p.parseValueTypeVector()
	if err != nil {
		return FunctionType{}, err
	}
	return FunctionType{Params: params, Results: results}, nil
}

func (p *Parser) parseValueTypeVector() ([]ValueType, error) {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return nil, parseErr(p.r.Pos(), "value type vector count", err)
	}
	out := make([]ValueType, n)
	for i := range out {
		vt, err := p.parseValueType()
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}

func (p *Parser) parseValueType() (ValueType, error) {
	off := p.r.Pos()
	b, err := p.r.ReadByte()
	if err != nil {
		return 0, parseErr(off, "value type", err)
	}
	if !IsValidValueType(b) {
		return 0, parseErr(off, "value type", ErrInvalidValueType)
	}
	return ValueType(b), nil
}

func (p *Parser) parseLimits() (Limits, error) {
	off := p.r.Pos()
	tag, err := p.r.ReadByte()
	if err != nil {
		return Limits{}, parseErr(off, "limits tag", err)
	}
	var l Limits
	switch tag {
	case 0x00:
		l.Min, err = p.r.ReadULEB32()
		if err != nil {
			return Limits{}, parseErr(p.r.Pos(), "limits min", err)
		}
	case 0x01:
		l.Min, err = p.r.ReadULEB32()
		if err != nil {
			return Limits{}, parseErr(p.r.Pos(), "limits min", err)
		}
		l.Max, err = p.r.ReadULEB32()
		if err != nil {
			return Limits{}, parseErr(p.r.Pos(), "limits max", err)
		}
		l.HasMax = true
	default:
		return Limits{}, parseErr(off, "limits tag", ErrInvalidLimitsTag)
	}
	return l, nil
}

func (p *Parser) parseTableType() (TableType, error) {
	off := p.r.Pos()
	elemByte, err := p.r.ReadByte()
	if err != nil {
		return TableType{}, parseErr(off, "table elem type", err)
	}
	if TableElemType(elemByte) != FuncRef {
		return TableType{}, parseErr(off, "table elem type", ErrInvalidElemType)
	}
	limits, err := p.parseLimits()
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: FuncRef, Limits: limits}, nil
}

func (p *Parser) parseGlobalType() (GlobalType, error) {
	vt, err := p.parseValueType()
	if err != nil {
		return GlobalType{}, err
	}
	off := p.r.Pos()
	mut, err := p.r.ReadByte()
	if err != nil {
		return GlobalType{}, parseErr(off, "mutability", err)
	}
	if mut != 0x00 && mut != 0x01 {
		return GlobalType{}, parseErr(off, "mutability", ErrInvalidMutability)
	}
	return GlobalType{ValueType: vt, Mutability: Mutability(mut)}, nil
}

func (p *Parser) parseImportSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "import section count", err)
	}
	for i := uint32(0); i < n; i++ {
		mod, err := p.r.ReadUTF8StringVector()
		if err != nil {
			return parseErr(p.r.Pos(), "import module name", err)
		}
		name, err := p.r.ReadUTF8StringVector()
		if err != nil {
			return parseErr(p.r.Pos(), "import field name", err)
		}
		off := p.r.Pos()
		kindByte, err := p.r.ReadByte()
		if err != nil {
			return parseErr(off, "import desc kind", err)
		}
		var desc ImportDesc
		switch ExternalKind(kindByte) {
		case ExternalFunc:
			desc.Kind = ExternalFunc
			desc.TypeIdx, err = p.parseTypeIdx()
			if err != nil {
				return err
			}
		case ExternalTable:
			desc.Kind = ExternalTable
			desc.Table, err = p.parseTableType()
			if err != nil {
				return err
			}
		case ExternalMem:
			desc.Kind = ExternalMem
			limits, err := p.parseLimits()
			if err != nil {
				return err
			}
			desc.Mem = MemoryType{Limits: limits}
		case ExternalGlobal:
			desc.Kind = ExternalGlobal
			desc.GlobalType, err = p.parseGlobalType()
			if err != nil {
				return err
			}
		default:
			return parseErr(off, "import desc kind", ErrInvalidExternalKind)
		}
		if err := p.delegate.OnImport(int(i), Import{Module: mod, Name: name, Desc: desc}); err != nil {
			return parseErr(p.r.Pos(), "import entry", err)
		}
	}
	return nil
}

func (p *Parser) parseTypeIdx() (TypeIdx, error) {
	v, err := p.r.ReadULEB32()
	if err != nil {
		return 0, parseErr(p.r.Pos(), "type index", err)
	}
	return TypeIdx(v), nil
}

func (p *Parser) parseFunctionSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "function section count", err)
	}
	for i := uint32(0); i < n; i++ {
		ti, err := p.parseTypeIdx()
		if err != nil {
			return err
		}
		if err := p.delegate.OnFunction(int(i), ti); err != nil {
			return parseErr(p.r.Pos(), "function entry", err)
		}
	}
	return nil
}

func (p *Parser) parseTableSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "table section count", err)
	}
	for i := uint32(0); i < n; i++ {
		tt, err := p.parseTableType()
		if err != nil {
			return err
		}
		if err := p.delegate.OnTable(int(i), tt); err != nil {
			return parseErr(p.r.Pos(), "table entry", err)
		}
	}
	return nil
}

func (p *Parser) parseMemorySection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "memory section count", err)
	}
	for i := uint32(0); i < n; i++ {
		limits, err := p.parseLimits()
		if err != nil {
			return err
		}
		if err := p.delegate.OnMemory(int(i), MemoryType{Limits: limits}); err != nil {
			return parseErr(p.r.Pos(), "memory entry", err)
		}
	}
	return nil
}

func (p *Parser) parseGlobalSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "global section count", err)
	}
	for i := uint32(0); i < n; i++ {
		gt, err := p.parseGlobalType()
		if err != nil {
			return err
		}
		init, err := p.parseInitExpr()
		if err != nil {
			return err
		}
		if err := p.delegate.OnGlobal(int(i), Global{Type: gt, Init: init}); err != nil {
			return parseErr(p.r.Pos(), "global entry", err)
		}
	}
	return nil
}

func (p *Parser) parseExportSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "export section count", err)
	}
	for i := uint32(0); i < n; i++ {
		name, err := p.r.ReadUTF8StringVector()
		if err != nil {
			return parseErr(p.r.Pos(), "export name", err)
		}
		off := p.r.Pos()
		kindByte, err := p.r.ReadByte()
		if err != nil {
			return parseErr(off, "export desc kind", err)
		}
		switch kindByte {
		case 0x00, 0x01, 0x02, 0x03:
		default:
			return parseErr(off, "export desc kind", ErrInvalidExternalKind)
		}
		idx, err := p.r.ReadULEB32()
		if err != nil {
			return parseErr(p.r.Pos(), "export index", err)
		}
		e := Export{Name: name, Desc: ExportDesc{Kind: ExternalKind(kindByte), Idx: idx}}
		if err := p.delegate.OnExport(int(i), e); err != nil {
			return parseErr(p.r.Pos(), "export entry", err)
		}
	}
	return nil
}

func (p *Parser) parseStartSection() error {
	idx, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "start function index", err)
	}
	if err := p.delegate.OnStart(FuncIdx(idx)); err != nil {
		return parseErr(p.r.Pos(), "start section", err)
	}
	return nil
}

func (p *Parser) parseElementSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "element section count", err)
	}
	for i := uint32(0); i < n; i++ {
		tableIdx, err := p.r.ReadULEB32()
		if err != nil {
			return parseErr(p.r.Pos(), "element table index", err)
		}
		offset, err := p.parseInitExpr()
		if err != nil {
			return err
		}
		fnCount, err := p.r.ReadULEB32()
		if err != nil {
			return parseErr(p.r.Pos(), "element func count", err)
		}
		funcs := make([]FuncIdx, fnCount)
		for j := range funcs {
			v, err := p.r.ReadULEB32()
			if err != nil {
				return parseErr(p.r.Pos(), "element func index", err)
			}
			funcs[j] = FuncIdx(v)
		}
		seg := ElementSegment{Table: TableIdx(tableIdx), Offset: offset, Funcs: funcs}
		if err := p.delegate.OnElement(int(i), seg); err != nil {
			return parseErr(p.r.Pos(), "element entry", err)
		}
	}
	return nil
}

func (p *Parser) parseCodeSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "code section count", err)
	}
	for i := uint32(0); i < n; i++ {
		bodySize, err := p.r.ReadULEB32()
		if err != nil {
			return parseErr(p.r.Pos(), "code entry size", err)
		}
		if err := p.r.PushBarrier(bodySize); err != nil {
			return parseErr(p.r.Pos(), "code entry size", err)
		}
		locals, err := p.parseLocals()
		if err != nil {
			return err
		}
		if err := p.delegate.OnCodeLocals(int(i), locals); err != nil {
			return parseErr(p.r.Pos(), "code entry locals", err)
		}
		body, err := p.parseExpression()
		if err != nil {
			return err
		}
		if err := p.delegate.OnCodeExpression(int(i), body); err != nil {
			return parseErr(p.r.Pos(), "code entry body", err)
		}
		if !p.r.AtEnd() {
			return parseErr(p.r.Pos(), "code entry", ErrUnconsumedBytes)
		}
		p.r.PopBarrier()
	}
	return nil
}

func (p *Parser) parseLocals() ([]LocalGroup, error) {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return nil, parseErr(p.r.Pos(), "locals group count", err)
	}
	out := make([]LocalGroup, n)
	for i := range out {
		count, err := p.r.ReadULEB32()
		if err != nil {
			return nil, parseErr(p.r.Pos(), "locals group count entry", err)
		}
		vt, err := p.parseValueType()
		if err != nil {
			return nil, err
		}
		out[i] = LocalGroup{Count: count, Type: vt}
	}
	return out, nil
}

func (p *Parser) parseDataSection() error {
	n, err := p.r.ReadULEB32()
	if err != nil {
		return parseErr(p.r.Pos(), "data section count", err)
	}
	for i := uint32(0); i < n; i++ {
		memIdx, err := p.r.ReadULEB32()
		if err != nil {
			return parseErr(p.r.Pos(), "data mem index", err)
		}
		offset, err := p.parseInitExpr()
		if err != nil {
			return err
		}
		byteCount, err := p.r.ReadULEB32()
		if err != nil {
			return parseErr(p.r.Pos(), "data byte count", err)
		}
		init, err := p.r.ReadBytes(byteCount)
		if err != nil {
			return parseErr(p.r.Pos(), "data bytes", err)
		}
		initCopy := append([]byte(nil), init...)
		seg := DataSegment{Mem: MemIdx(memIdx), Offset: offset, Init: initCopy}
		if err := p.delegate.OnData(int(i), seg); err != nil {
			return parseErr(p.r.Pos(), "data entry", err)
		}
	}
	return nil
}

// parseInitExpr decodes a restricted constant expression: a single
// Constant or GlobalGet instruction followed by `end` (0x0B).
func (p *Parser) parseInitExpr() (InitExpr, error) {
	off := p.r.Pos()
	op, err := p.r.ReadByte()
	if err != nil {
		return InitExpr{}, parseErr(off, "init expr", err)
	}
	var ie InitExpr
	switch Opcode(op) {
	case OpI32Const:
		v, err := p.r.ReadSLEB32()
		if err != nil {
			return InitExpr{}, parseErr(p.r.Pos(), "init expr i32.const", err)
		}
		ie = InitExpr{Op: InitConst, Type: I32, I32: v}
	case OpI64Const:
		v, err := p.r.ReadSLEB64()
		if err != nil {
			return InitExpr{}, parseErr(p.r.Pos(), "init expr i64.const", err)
		}
		ie = InitExpr{Op: InitConst, Type: I64, I64: v}
	case OpF32Const:
		v, err := p.parseF32Bits()
		if err != nil {
			return InitExpr{}, err
		}
		ie = InitExpr{Op: InitConst, Type: F32, F32Bits: v}
	case OpF64Const:
		v, err := p.parseF64Bits()
		if err != nil {
			return InitExpr{}, err
		}
		ie = InitExpr{Op: InitConst, Type: F64, F64Bits: v}
	case OpGlobalGet:
		idx, err := p.r.ReadULEB32()
		if err != nil {
			return InitExpr{}, parseErr(p.r.Pos(), "init expr global.get", err)
		}
		ie = InitExpr{Op: InitGlobalGet, Global: GlobalIdx(idx)}
	default:
		return InitExpr{}, parseErr(off, "init expr opcode", ErrInvalidInitExpr)
	}
	endOff := p.r.Pos()
	end, err := p.r.ReadByte()
	if err != nil {
		return InitExpr{}, parseErr(endOff, "init expr end", err)
	}
	if Opcode(end) != OpEnd {
		return InitExpr{}, parseErr(endOff, "init expr end", ErrInvalidInitExpr)
	}
	return ie, nil
}

func (p *Parser) parseF32Bits() (uint32, error) {
	b, err := p.r.ReadBytes(4)
	if err != nil {
		return 0, parseErr(p.r.Pos(), "f32 literal", err)
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (p *Parser) parseF64Bits() (uint64, error) {
	b, err := p.r.ReadBytes(8)
	if err != nil {
		return 0, parseErr(p.r.Pos(), "f64 literal", err)
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
