// Package ir defines the Core IR: the structured, already-lowered
// representation the interpreter consumes. Front-end tokenization,
// parsing and lowering are out of scope (spec §1); this package only
// describes the shape of a module and decodes it from the generic
// structured input a front-end hands over (spec §6).
package ir

// Module is an ordered list of declarations.
type Module struct {
	Name  string
	Decls []Decl
}

// Decl is a top-level declaration: FuncDecl, DataDecl or EnumDecl.
type Decl interface{ declKind() string }

// Param is a name/type pair, used for function parameters and record
// fields.
type Param struct {
	Name string
	Type Type
}

// FuncDecl declares a function: parameters, return type, declared
// effects and a body block.
type FuncDecl struct {
	Name    string
	Params  []Param
	Ret     Type
	Effects []string
	Body    Block
}

func (*FuncDecl) declKind() string { return "Func" }

// DataDecl declares a record type with ordered fields.
type DataDecl struct {
	Name   string
	Fields []Param
}

func (*DataDecl) declKind() string { return "Data" }

// EnumDecl declares an enum type with named variants.
type EnumDecl struct {
	Name     string
	Variants []string
}

func (*EnumDecl) declKind() string { return "Enum" }

// Block is an ordered sequence of statements.
type Block struct {
	Stmts []Stmt
}

// Stmt is a statement inside a Block.
type Stmt interface{ stmtKind() string }

type ReturnStmt struct{ Expr Expr }

func (ReturnStmt) stmtKind() string { return "Return" }

type LetStmt struct {
	Name string
	Expr Expr
}

func (LetStmt) stmtKind() string { return "Let" }

type SetStmt struct {
	Name string
	Expr Expr
}

func (SetStmt) stmtKind() string { return "Set" }

type IfStmt struct {
	Cond      Expr
	ThenBlock Block
	ElseBlock Block
	HasElse   bool
}

func (IfStmt) stmtKind() string { return "If" }

type MatchCase struct {
	Pattern Pattern
	Body    Block
}

type MatchStmt struct {
	Expr  Expr
	Cases []MatchCase
}

func (MatchStmt) stmtKind() string { return "Match" }

type ScopeStmt struct{ Stmts []Stmt }

func (ScopeStmt) stmtKind() string { return "Scope" }

type StartStmt struct {
	Name string
	Expr Expr
}

func (StartStmt) stmtKind() string { return "Start" }

type WaitStmt struct{ Names []string }

func (WaitStmt) stmtKind() string { return "Wait" }

// WorkflowStep is one named step of a Workflow statement: a body,
// optional declared dependency names, and an optional compensation
// body run during rollback.
type WorkflowStep struct {
	Name         string
	Body         Block
	Dependencies []string
	Compensate   *Block
	Retry        *RetrySpec
}

// RetrySpec is a step's declared retry policy, carried in the IR so the
// loader can build a workflow.RetryPolicy without interpreting values.
type RetrySpec struct {
	MaxAttempts    int
	Strategy       string // "exponential" | "linear"
	BaseDelayMilli int64
}

// WorkflowStmt drives a DAG of named steps to termination under an
// optional total timeout.
type WorkflowStmt struct {
	Steps         []WorkflowStep
	TimeoutMillis int64
	HasTimeout    bool
}

func (WorkflowStmt) stmtKind() string { return "Workflow" }

// Pattern is a Match case's pattern.
type Pattern interface{ patternKind() string }

type WildcardPattern struct{}

func (WildcardPattern) patternKind() string { return "Wildcard" }

type NamePattern struct{ Name string }

func (NamePattern) patternKind() string { return "Name" }

type IntPattern struct{ Value int32 }

func (IntPattern) patternKind() string { return "Int" }

type NullPattern struct{}

func (NullPattern) patternKind() string { return "Null" }

// ConstructorPattern matches a record's named fields or the built-in
// Ok/Err/Some/None shapes by positional binder names.
type ConstructorPattern struct {
	TypeName   string // "Ok", "Err", "Some", "None", or a record type name
	Fields     []string
	Positional bool
}

func (ConstructorPattern) patternKind() string { return "Constructor" }

// Expr is an expression node in the Core IR.
type Expr interface{ exprKind() string }

type StringExpr struct{ Value string }

func (StringExpr) exprKind() string { return "String" }

type IntExpr struct{ Value int32 }

func (IntExpr) exprKind() string { return "Int" }

type LongExpr struct{ Value int64 }

func (LongExpr) exprKind() string { return "Long" }

type DoubleExpr struct{ Value float64 }

func (DoubleExpr) exprKind() string { return "Double" }

type BoolExpr struct{ Value bool }

func (BoolExpr) exprKind() string { return "Bool" }

type NullExpr struct{}

func (NullExpr) exprKind() string { return "Null" }

// NameExpr is a name reference, possibly dotted ("a.b.c") for
// member-access chains.
type NameExpr struct{ Name string }

func (NameExpr) exprKind() string { return "Name" }

type CallExpr struct {
	Target Expr
	Args   []Expr
}

func (CallExpr) exprKind() string { return "Call" }

// LambdaExpr constructs a Closure; Captures names the outer bindings
// snapshotted at creation time.
type LambdaExpr struct {
	Params   []Param
	Ret      Type
	Captures []string
	Body     Block
}

func (LambdaExpr) exprKind() string { return "Lambda" }

type AwaitExpr struct{ Expr Expr }

func (AwaitExpr) exprKind() string { return "Await" }

type OkExpr struct{ Expr Expr }

func (OkExpr) exprKind() string { return "Ok" }

type ErrExpr struct{ Expr Expr }

func (ErrExpr) exprKind() string { return "Err" }

type SomeExpr struct{ Expr Expr }

func (SomeExpr) exprKind() string { return "Some" }

type NoneExpr struct{}

func (NoneExpr) exprKind() string { return "None" }

type FieldInit struct {
	Name string
	Expr Expr
}

type ConstructExpr struct {
	TypeName string
	Fields   []FieldInit
}

func (ConstructExpr) exprKind() string { return "Construct" }

// Type is a declared type annotation, used by the loader for overload
// scoring (spec §6) and by the front-end/embedder contract; the core
// does not type-check bodies against it.
type Type interface{ typeKind() string }

type TypeName struct{ Name string }

func (TypeName) typeKind() string { return "TypeName" }

type TypeVar struct{ Name string }

func (TypeVar) typeKind() string { return "TypeVar" }

type TypeApp struct {
	Base Type
	Args []Type
}

func (TypeApp) typeKind() string { return "TypeApp" }

type FuncType struct {
	Params []Type
	Ret    Type
}

func (FuncType) typeKind() string { return "FuncType" }

type OptionType struct{ Elem Type }

func (OptionType) typeKind() string { return "Option" }

type MaybeType struct{ Elem Type }

func (MaybeType) typeKind() string { return "Maybe" }

type ResultType struct{ Ok, Err Type }

func (ResultType) typeKind() string { return "Result" }

type ListType struct{ Elem Type }

func (ListType) typeKind() string { return "ListT" }

type MapType struct{ Key, Value Type }

func (MapType) typeKind() string { return "MapT" }

type PiiType struct {
	Base        Type
	Category    string
	Sensitivity string
}

func (PiiType) typeKind() string { return "PiiType" }
