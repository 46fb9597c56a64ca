package interp

import (
	"sort"
	"time"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/builtin"
	"github.com/dshills/corelang-go/effect"
	"github.com/dshills/corelang-go/ir"
	"github.com/dshills/corelang-go/value"
	"github.com/dshills/corelang-go/workflow"
)

// Load compiles a decoded Core IR module into a Runtime, building one
// FuncTarget per ir.FuncDecl, indexing Data/Enum declarations, and
// resolving mutual recursion with the standard two-pass reserve-then-
// fill over the global Environment (spec §9). cliArgs carries the
// command-line arguments (if any) the canonical-overload selection of
// spec §4.2 step 2 scores candidate overloads against; pass nil when
// none are available.
func Load(mod *ir.Module, runID string, builtins *builtin.Registry, wfOpts workflow.RunOptions, det *workflow.Context, cliArgs []string) (*Runtime, error) {
	if det == nil {
		det = workflow.NewRecordContext(runID)
	}
	l := &loader{
		mod:         mod,
		dataTypes:   map[string]*ir.DataDecl{},
		enumTypes:   map[string]*ir.EnumDecl{},
		funcsByName: map[string][]*ir.FuncDecl{},
		cliArgs:     cliArgs,
	}
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ir.DataDecl:
			l.dataTypes[decl.Name] = decl
		case *ir.EnumDecl:
			l.enumTypes[decl.Name] = decl
		case *ir.FuncDecl:
			l.funcsByName[decl.Name] = append(l.funcsByName[decl.Name], decl)
		}
	}

	rt := &Runtime{
		Global:       NewEnvironment(nil),
		Builtins:     builtins,
		DataTypes:    l.dataTypes,
		Analyzer:     workflow.NewAnalyzer(),
		Det:          det,
		WorkflowOpts: wfOpts,
		RunID:        runID,
	}
	l.rt = rt

	// Pass 1: reserve every top-level name's global cell before any
	// body is compiled, so a function can reference a sibling declared
	// later in the module (and siblings can call each other mutually).
	names := make([]string, 0, len(l.funcsByName))
	for name := range l.funcsByName {
		names = append(names, name)
		rt.Global.Reserve(name)
	}
	sort.Strings(names)

	// Pass 2: select each name's single canonical overload (spec §4.2
	// step 2 — scored against cliArgs when present, else the overload
	// with the most parameters) and compile just that one body. Internal
	// cross-calls only ever see this one binding; a front-end wanting
	// distinct overloads reachable must mangle their names before
	// producing the Core IR.
	for _, name := range names {
		decl := ir.SelectCanonical(l.funcsByName[name], l.cliArgs)
		target, err := l.buildFuncTarget(decl)
		if err != nil {
			return nil, err
		}
		closure := &value.Closure{
			Params:          target.ParamNames,
			RequiredEffects: target.Effects,
			Target:          &boundTarget{fn: target, captures: nil},
		}
		rt.Global.Define(name, value.ClosureValue(closure))
	}

	return rt, nil
}

// loader holds the module-wide tables the recursive Node-builders
// consult; symbols is rebuilt per function.
type loader struct {
	mod         *ir.Module
	rt          *Runtime
	dataTypes   map[string]*ir.DataDecl
	enumTypes   map[string]*ir.EnumDecl
	funcsByName map[string][]*ir.FuncDecl
	cliArgs     []string
}

func (l *loader) buildFuncTarget(decl *ir.FuncDecl) (*FuncTarget, error) {
	sym := NewSymbolTable()
	for _, p := range decl.Params {
		sym.Reserve(p.Name)
	}
	collectFrameLocals(sym, decl.Body.Stmts, false)

	effects := append([]string(nil), decl.Effects...)
	if containsWorkflow(decl.Body.Stmts) && !hasEffect(effects, effect.Async) {
		effects = append(effects, effect.Async)
	}

	target := &FuncTarget{
		Name:       decl.Name,
		ParamNames: paramNames(decl.Params),
		Effects:    effects,
		RT:         l.rt,
	}

	bc := &buildCtx{l: l, sym: sym, inScope: false, funcName: decl.Name}
	body, err := bc.buildBlock(decl.Body)
	if err != nil {
		return nil, err
	}
	target.Body = body
	target.NumSlots = sym.Size()
	return target, nil
}

func hasEffect(effects []string, name string) bool {
	for _, e := range effects {
		if e == name {
			return true
		}
	}
	return false
}

func paramNames(params []ir.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

// containsWorkflow reports whether stmts transitively contains a
// WorkflowStmt, stopping at a Lambda boundary (a lambda's own
// transitive Async requirement is computed separately, against its own
// body, not folded into the enclosing function).
func containsWorkflow(stmts []ir.Stmt) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case ir.IfStmt:
			if containsWorkflow(st.ThenBlock.Stmts) || (st.HasElse && containsWorkflow(st.ElseBlock.Stmts)) {
				return true
			}
		case ir.MatchStmt:
			for _, c := range st.Cases {
				if containsWorkflow(c.Body.Stmts) {
					return true
				}
			}
		case ir.ScopeStmt:
			if containsWorkflow(st.Stmts) {
				return true
			}
		case ir.WorkflowStmt:
			return true
		}
	}
	return false
}

// collectFrameLocals walks a statement list reserving a frame slot for
// every LetStmt name reached by recursing through If/Match/Workflow
// bodies, per spec line 94. Once inScope is true (we are inside a
// ScopeStmt), lets bind through the Environment instead and are not
// reserved here; that state is sticky for everything nested further.
func collectFrameLocals(sym *SymbolTable, stmts []ir.Stmt, inScope bool) {
	for _, s := range stmts {
		switch st := s.(type) {
		case ir.LetStmt:
			if !inScope {
				sym.Reserve(st.Name)
			}
		case ir.IfStmt:
			collectFrameLocals(sym, st.ThenBlock.Stmts, inScope)
			if st.HasElse {
				collectFrameLocals(sym, st.ElseBlock.Stmts, inScope)
			}
		case ir.MatchStmt:
			for _, c := range st.Cases {
				if !inScope {
					reservePatternBinders(sym, c.Pattern)
				}
				collectFrameLocals(sym, c.Body.Stmts, inScope)
			}
		case ir.ScopeStmt:
			collectFrameLocals(sym, st.Stmts, true)
		case ir.WorkflowStmt:
			for _, step := range st.Steps {
				collectFrameLocals(sym, step.Body.Stmts, inScope)
				if step.Compensate != nil {
					collectFrameLocals(sym, step.Compensate.Stmts, inScope)
				}
			}
		}
	}
}

func reservePatternBinders(sym *SymbolTable, p ir.Pattern) {
	switch pat := p.(type) {
	case ir.NamePattern:
		sym.Reserve(pat.Name)
	case ir.ConstructorPattern:
		for _, f := range pat.Fields {
			sym.Reserve(f)
		}
	}
}

// buildCtx threads the current function's symbol table and scope depth
// through Node construction. shadowed names a re-`let`/pattern-bound
// name as resolving through the Environment rather than a frame slot
// for the remainder of the current scope: entering a scope always
// copies the map so a shadow introduced inside doesn't leak back out
// to the statements following the scope.
type buildCtx struct {
	l        *loader
	sym      *SymbolTable
	inScope  bool
	funcName string
	shadowed map[string]bool
}

func (bc *buildCtx) child(inScope bool) *buildCtx {
	shadowed := make(map[string]bool, len(bc.shadowed))
	for name := range bc.shadowed {
		shadowed[name] = true
	}
	return &buildCtx{l: bc.l, sym: bc.sym, inScope: inScope, funcName: bc.funcName, shadowed: shadowed}
}

func (bc *buildCtx) buildBlock(b ir.Block) (*Block, error) {
	stmts := make([]Node, len(b.Stmts))
	for i, s := range b.Stmts {
		n, err := bc.buildStmt(s)
		if err != nil {
			return nil, err
		}
		stmts[i] = n
	}
	return &Block{Stmts: stmts}, nil
}

func (bc *buildCtx) buildStmt(s ir.Stmt) (Node, error) {
	switch st := s.(type) {
	case ir.ReturnStmt:
		expr, err := bc.buildExpr(st.Expr)
		if err != nil {
			return nil, err
		}
		return &ReturnNode{Expr: expr}, nil

	case ir.LetStmt:
		expr, err := bc.buildExpr(st.Expr)
		if err != nil {
			return nil, err
		}
		if !bc.inScope {
			idx, ok := bc.sym.Lookup(st.Name)
			if ok {
				return &LetNode{HasSlot: true, SlotIndex: idx, Expr: expr}, nil
			}
		} else {
			// A scope-local let always binds through the Environment; if
			// it reuses an outer frame-slotted name, mark it shadowed so
			// later reads/writes in this scope see the new binding
			// instead of falling through to the stale outer slot.
			bc.shadowed[st.Name] = true
		}
		return &LetNode{Name: st.Name, Expr: expr}, nil

	case ir.SetStmt:
		expr, err := bc.buildExpr(st.Expr)
		if err != nil {
			return nil, err
		}
		if !bc.shadowed[st.Name] {
			if idx, ok := bc.sym.Lookup(st.Name); ok {
				return &SetNode{HasSlot: true, SlotIndex: idx, Expr: expr}, nil
			}
		}
		return &SetNode{Name: st.Name, Expr: expr}, nil

	case ir.IfStmt:
		cond, err := bc.buildExpr(st.Cond)
		if err != nil {
			return nil, err
		}
		then, err := bc.buildBlock(st.ThenBlock)
		if err != nil {
			return nil, err
		}
		n := &IfNode{Cond: cond, Then: then, HasElse: st.HasElse}
		if st.HasElse {
			els, err := bc.buildBlock(st.ElseBlock)
			if err != nil {
				return nil, err
			}
			n.Else = els
		}
		return n, nil

	case ir.MatchStmt:
		scrutinee, err := bc.buildExpr(st.Expr)
		if err != nil {
			return nil, err
		}
		cases := make([]MatchCase, len(st.Cases))
		for i, c := range st.Cases {
			pat, err := bc.buildPattern(c.Pattern)
			if err != nil {
				return nil, err
			}
			body, err := bc.buildBlock(c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = MatchCase{Pattern: pat, Body: body}
		}
		return &MatchNode{Scrutinee: scrutinee, Cases: cases}, nil

	case ir.ScopeStmt:
		inner := bc.child(true)
		stmts := make([]Node, len(st.Stmts))
		for i, s := range st.Stmts {
			n, err := inner.buildStmt(s)
			if err != nil {
				return nil, err
			}
			stmts[i] = n
		}
		return &ScopeNode{Body: &Block{Stmts: stmts}}, nil

	case ir.StartStmt:
		expr, err := bc.buildExpr(st.Expr)
		if err != nil {
			return nil, err
		}
		return &StartNode{Name: st.Name, Expr: expr}, nil

	case ir.WaitStmt:
		return &WaitNode{Names: st.Names}, nil

	case ir.WorkflowStmt:
		steps := make([]WorkflowStepSpec, len(st.Steps))
		for i, step := range st.Steps {
			body, err := bc.buildBlock(step.Body)
			if err != nil {
				return nil, err
			}
			spec := WorkflowStepSpec{Name: step.Name, Body: body, Deps: step.Dependencies}
			if step.Compensate != nil {
				comp, err := bc.buildBlock(*step.Compensate)
				if err != nil {
					return nil, err
				}
				spec.Compensate = comp
			}
			if step.Retry != nil {
				spec.Retry = &workflow.RetryPolicy{
					MaxAttempts: step.Retry.MaxAttempts,
					Strategy:    retryStrategy(step.Retry.Strategy),
					BaseDelay:   millisToDuration(step.Retry.BaseDelayMilli),
				}
			}
			steps[i] = spec
		}
		n := &WorkflowNode{Steps: steps}
		if st.HasTimeout {
			n.TimeoutMillis = st.TimeoutMillis
		}
		return n, nil

	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unsupported statement kind")
	}
}

func retryStrategy(s string) workflow.Strategy {
	if s == "linear" {
		return workflow.Linear
	}
	return workflow.Exponential
}

func (bc *buildCtx) buildExpr(e ir.Expr) (Node, error) {
	switch ex := e.(type) {
	case ir.StringExpr:
		return &LiteralNode{V: value.Text(ex.Value)}, nil
	case ir.IntExpr:
		return &LiteralNode{V: value.Int(ex.Value)}, nil
	case ir.LongExpr:
		return &LiteralNode{V: value.Long(ex.Value)}, nil
	case ir.DoubleExpr:
		return &LiteralNode{V: value.Double(ex.Value)}, nil
	case ir.BoolExpr:
		return &LiteralNode{V: value.Bool(ex.Value)}, nil
	case ir.NullExpr:
		return &LiteralNode{V: value.Null()}, nil

	case ir.NameExpr:
		return bc.buildNameExpr(ex.Name)

	case ir.CallExpr:
		return bc.buildCallExpr(ex)

	case ir.LambdaExpr:
		return bc.buildLambda(ex)

	case ir.AwaitExpr:
		inner, err := bc.buildExpr(ex.Expr)
		if err != nil {
			return nil, err
		}
		return &AwaitNode{Expr: inner}, nil

	case ir.OkExpr:
		inner, err := bc.buildExpr(ex.Expr)
		if err != nil {
			return nil, err
		}
		return &OkNode{Expr: inner}, nil

	case ir.ErrExpr:
		inner, err := bc.buildExpr(ex.Expr)
		if err != nil {
			return nil, err
		}
		return &ErrNode{Expr: inner}, nil

	case ir.SomeExpr:
		inner, err := bc.buildExpr(ex.Expr)
		if err != nil {
			return nil, err
		}
		return &SomeNode{Expr: inner}, nil

	case ir.NoneExpr:
		return &NoneNode{}, nil

	case ir.ConstructExpr:
		return bc.buildConstruct(ex)

	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unsupported expression kind")
	}
}

// buildNameExpr resolves a (possibly dotted) name reference, preferring
// a scope-local shadow, then a frame slot, then a known enum variant,
// then an Environment lookup at runtime, with any remaining dotted
// segments becoming member accesses.
func (bc *buildCtx) buildNameExpr(dotted string) (Node, error) {
	head, path := splitDotted(dotted)

	if bc.shadowed[head] {
		return wrapMemberPath(Node(&EnvNameNode{Name: head}), path), nil
	}

	if idx, ok := bc.sym.Lookup(head); ok {
		base := Node(&SlotNameNode{Index: idx})
		return wrapMemberPath(base, path), nil
	}

	if len(path) == 1 {
		if enumDecl, ok := bc.l.enumTypes[head]; ok {
			for _, variant := range enumDecl.Variants {
				if variant == path[0] {
					return &EnumRefNode{V: value.EnumVal(&value.EnumValue{TypeName: head, Variant: variant})}, nil
				}
			}
		}
	}

	base := Node(&EnvNameNode{Name: head})
	return wrapMemberPath(base, path), nil
}

func wrapMemberPath(base Node, path []string) Node {
	if len(path) == 0 {
		return base
	}
	return &MemberAccessNode{Base: base, Path: path}
}

func splitDotted(name string) (string, []string) {
	var segs []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			segs = append(segs, name[start:i])
			start = i + 1
		}
	}
	segs = append(segs, name[start:])
	return segs[0], segs[1:]
}

func (bc *buildCtx) buildCallExpr(ex ir.CallExpr) (Node, error) {
	args := make([]Node, len(ex.Args))
	for i, a := range ex.Args {
		n, err := bc.buildExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}

	if nameExpr, ok := ex.Target.(ir.NameExpr); ok {
		if _, isSlot := bc.sym.Lookup(nameExpr.Name); !isSlot {
			if reg, ok := bc.l.rt.Builtins.Lookup(nameExpr.Name); ok {
				return &BuiltinCallNode{Reg: reg, Args: args}, nil
			}
		}
	}

	target, err := bc.buildExpr(ex.Target)
	if err != nil {
		return nil, err
	}
	return &ClosureCallNode{Target: target, Args: args}, nil
}

func (bc *buildCtx) buildLambda(ex ir.LambdaExpr) (Node, error) {
	sym := NewSymbolTable()
	for _, p := range ex.Params {
		sym.Reserve(p.Name)
	}
	for _, c := range ex.Captures {
		sym.Reserve(c)
	}
	collectFrameLocals(sym, ex.Body.Stmts, false)

	effects := []string{}
	if containsWorkflow(ex.Body.Stmts) {
		effects = append(effects, effect.Async)
	}

	lambdaName := bc.funcName + ".<lambda>"
	inner := &buildCtx{l: bc.l, sym: sym, inScope: false, funcName: lambdaName}
	body, err := inner.buildBlock(ex.Body)
	if err != nil {
		return nil, err
	}

	target := &FuncTarget{
		Name:       lambdaName,
		ParamNames: paramNames(ex.Params),
		Effects:    effects,
		Body:       body,
		NumSlots:   sym.Size(),
		RT:         bc.l.rt,
	}

	sources := make([]Node, len(ex.Captures))
	for i, name := range ex.Captures {
		src, err := bc.buildNameExpr(name)
		if err != nil {
			return nil, err
		}
		sources[i] = src
	}

	return &LambdaNode{
		Fn:              target,
		CaptureNames:    ex.Captures,
		CaptureSources:  sources,
		RequiredEffects: effects,
	}, nil
}

func (bc *buildCtx) buildConstruct(ex ir.ConstructExpr) (Node, error) {
	decl, ok := bc.l.dataTypes[ex.TypeName]
	if !ok {
		return nil, corelang.NewError(corelang.KindLoadError, "unknown data type %q", ex.TypeName)
	}
	fieldNames := make([]string, len(decl.Fields))
	piiField := map[string]ir.PiiType{}
	for i, f := range decl.Fields {
		fieldNames[i] = f.Name
		if pii, ok := f.Type.(ir.PiiType); ok {
			piiField[f.Name] = pii
		}
	}
	fields := make([]FieldInitNode, len(ex.Fields))
	for i, fi := range ex.Fields {
		n, err := bc.buildExpr(fi.Expr)
		if err != nil {
			return nil, err
		}
		if pii, ok := piiField[fi.Name]; ok {
			n = &PIIWrapNode{Expr: n, Category: pii.Category, Sensitivity: pii.Sensitivity}
		}
		fields[i] = FieldInitNode{Name: fi.Name, Expr: n}
	}
	return &ConstructNode{TypeName: ex.TypeName, DataFields: fieldNames, Fields: fields}, nil
}

func (bc *buildCtx) buildPattern(p ir.Pattern) (CompiledPattern, error) {
	switch pat := p.(type) {
	case ir.WildcardPattern:
		return WildcardPattern{}, nil
	case ir.NullPattern:
		return NullPattern{}, nil
	case ir.IntPattern:
		return IntPattern{V: pat.Value}, nil
	case ir.NamePattern:
		return NamePattern{Bind: bc.binderFor(pat.Name)}, nil
	case ir.ConstructorPattern:
		fields := make([]FieldBinder, len(pat.Fields))
		for i, f := range pat.Fields {
			fields[i] = FieldBinder{FieldName: f, Bind: bc.binderFor(f)}
		}
		return ConstructorPattern{TypeName: pat.TypeName, Fields: fields}, nil
	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unsupported pattern kind")
	}
}

func (bc *buildCtx) binderFor(name string) Binder {
	if !bc.inScope {
		if idx, ok := bc.sym.Lookup(name); ok {
			return Binder{HasSlot: true, SlotIndex: idx, Name: name}
		}
		return Binder{Name: name}
	}
	// A scope-local pattern binder always binds through the Environment;
	// mark it shadowed so later reads/writes in this scope don't fall
	// through to a same-named outer frame slot.
	bc.shadowed[name] = true
	return Binder{Name: name}
}

func millisToDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }
