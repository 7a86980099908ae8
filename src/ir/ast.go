// ast.go defines the abstract syntax tree, preferring a sum-type/tagged-union
// representation over subclass hierarchies, and directly adapted from src/ir/nodetype.go's
// ir.Node (a single struct tagged by NodeType with a Children slice and an untyped Data
// payload): this AST is one Node struct tagged by a Kind enum. Where that design stores only
// Data interface{} for leaf payloads, this Node carries the richer, named fields the full
// variant list calls for directly on the struct (Name, Op, ExplicitType, Visibility, ...)
// rather than packing them into one interface{}, since a BCPL-lineage declaration/statement
// set has far more per-variant shape than VSL's.
package ir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// NodeKind differentiates the variants of the AST.
type NodeKind int

// Node is the single AST node type. Only the fields relevant to Kind are meaningful;
// see the comment beside each NodeKind constant for which fields it uses.
type Node struct {
	Kind NodeKind
	Line int
	Col  int

	Name string // Identifier name: declarations, VariableAccess, labels, members.
	Op   string // Operator lexeme: BinaryOp, UnaryOp, Assignment compound form.

	// Literal payloads (one is meaningful depending on Kind).
	IntVal    int
	FloatVal  float64
	StringVal string
	BoolVal   bool

	// Declaration-specific metadata.
	Names          []string // LetDeclaration: one or more destructured/parallel names.
	IsFloat        bool     // LetDeclaration/FunctionDeclaration: FLET-shaped.
	IsRetained     bool     // LetDeclaration: RETAIN-qualified.
	ExplicitType   VarType  // LetDeclaration: AS-annotated type.
	HasExplicit    bool     // LetDeclaration: whether ExplicitType is meaningful.
	ParentName     string   // ClassDeclaration: EXTENDS target, empty if none.
	Visibility     Visibility
	IsVirtual      bool // FunctionDeclaration/RoutineDeclaration inside a class.
	IsFinal        bool
	Params         []string // FunctionDeclaration/RoutineDeclaration parameter names.
	ManifestValue  int      // ManifestDeclaration: compile-time evaluated integer.
	LoopType       LoopKind // RepeatStatement variant.
	IsManifestList bool     // ListExpression: all-constant list.
	FilterType     VarType  // ForEachStatement: optional "AS type" filter.
	HasFilter      bool

	// Resolved metadata, filled in by later passes (never by the parser).
	InferredType VarType
	Entry        *Symbol

	// Structural children. The meaning of Children[i] is positional and documented per
	// constructor function in parser.go / by convention below:
	//   LetDeclaration:        Children = initializer expressions, len(Children) == len(Names) or destructuring.
	//   Assignment:            Children[0] = LHS list (VariableAccess/VectorAccess/...), Children[1] = RHS list.
	//   IfStatement/Unless:    Children[0] = condition, Children[1] = then-body.
	//   TestStatement:         Children[0] = condition, Children[1] = then-body, Children[2] = else-body.
	//   While/Until:           Children[0] = condition, Children[1] = body.
	//   Repeat:                Children[0] = body, Children[1] = condition (absent for RepeatLoop).
	//   ForStatement:          Name = loop variable, Children[0] = from, Children[1] = to, Children[2] = optional by, Children[3] = body.
	//   ForEachStatement:      Children[0] = collection, Children[1] = body.
	//   SwitchonStatement:     Children[0] = selector, Children[1:] = CaseClause/DefaultClause nodes.
	//   BlockStatement:        Children = declarations and statements in one list, in source order; a LET
	//                          contributes its LetDeclaration followed by the Assignment carrying its
	//                          initializers, so declarations are not grouped ahead of statements.
	//   FunctionDeclaration:   Children[0] = VALOF/expression body.
	//   RoutineDeclaration:    Children[0] = statement body.
	//   ClassDeclaration:      Children = member declarations (LetDeclaration/FunctionDeclaration/RoutineDeclaration).
	//   BinaryOp:              Children[0], Children[1] = operands.
	//   UnaryOp:                Children[0] = operand.
	//   FunctionCall:          Children[0] = callee expression, Children[1:] = arguments.
	//   ConditionalExpression: Children[0] = condition, Children[1] = then-expr, Children[2] = else-expr.
	//   ValofExpression:       Children = statement body (same shape as BlockStatement).
	//   VectorAccess:          Children[0] = base, Children[1] = index.
	//   MemberAccessExpression: Children[0] = object, Name = member name.
	//   NewExpression:         Children = constructor arguments, Name = class name.
	Children []*Node

	Declared int // BlockStatement: index in Children just past the last LetDeclaration; statements may also precede it.
}

// Visibility is the closed set of class member access levels.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "PUBLIC"
	case Private:
		return "PRIVATE"
	case Protected:
		return "PROTECTED"
	}
	return "UNKNOWN"
}

// LoopKind differentiates RepeatStatement's three forms.
type LoopKind int

const (
	RepeatLoop LoopKind = iota
	RepeatWhile
	RepeatUntil
)

// ---------------------
// ----- Constants -----
// ---------------------

const (
	// Declarations.
	LetDeclaration NodeKind = iota
	FunctionDeclaration
	RoutineDeclaration
	ClassDeclaration
	ManifestDeclaration
	StaticDeclaration
	GlobalDeclaration
	GlobalVariableDeclaration
	LabelDeclaration

	// Statements.
	Assignment
	IfStatement
	UnlessStatement
	TestStatement
	WhileStatement
	UntilStatement
	RepeatStatement
	ForStatement
	ForEachStatement
	SwitchonStatement
	CaseClause
	DefaultClause
	GotoStatement
	ReturnStatement
	FinishStatement
	BreakStatement
	LoopStatement
	EndcaseStatement
	ResultisStatement
	DeferStatement
	RetainStatement
	RemanageStatement
	FreeStatement
	BlockStatement
	CompoundStatement
	LabelTarget
	RoutineCallStatement

	// Expressions.
	IntegerLiteral
	FloatLiteral
	StringLiteral
	CharLiteral
	BoolLiteral
	NullLiteral
	VariableAccess
	BinaryOp
	UnaryOp
	VectorAccess
	CharIndirection
	Bitfield
	FunctionCall
	ConditionalExpression
	ValofExpression
	FloatValofExpression
	VecAllocation
	TableExpression
	ListExpression
	MemberAccessExpression
	SuperMethodAccessExpression
	NewExpression

	// Root.
	Program
)

var nodeNames = [...]string{
	"LetDeclaration", "FunctionDeclaration", "RoutineDeclaration", "ClassDeclaration",
	"ManifestDeclaration", "StaticDeclaration", "GlobalDeclaration", "GlobalVariableDeclaration",
	"LabelDeclaration",
	"Assignment", "IfStatement", "UnlessStatement", "TestStatement", "WhileStatement",
	"UntilStatement", "RepeatStatement", "ForStatement", "ForEachStatement", "SwitchonStatement",
	"CaseClause", "DefaultClause", "GotoStatement", "ReturnStatement", "FinishStatement",
	"BreakStatement", "LoopStatement", "EndcaseStatement", "ResultisStatement", "DeferStatement",
	"RetainStatement", "RemanageStatement", "FreeStatement", "BlockStatement", "CompoundStatement",
	"LabelTarget", "RoutineCallStatement",
	"IntegerLiteral", "FloatLiteral", "StringLiteral", "CharLiteral", "BoolLiteral", "NullLiteral",
	"VariableAccess", "BinaryOp", "UnaryOp", "VectorAccess", "CharIndirection", "Bitfield",
	"FunctionCall", "ConditionalExpression", "ValofExpression", "FloatValofExpression",
	"VecAllocation", "TableExpression", "ListExpression", "MemberAccessExpression",
	"SuperMethodAccessExpression", "NewExpression",
	"Program",
}

// String returns a print friendly name for the NodeKind k.
func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(nodeNames) {
		return nodeNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// ----------------------
// ----- functions ------
// ----------------------

// String returns a print friendly one-line representation of Node n.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case IntegerLiteral:
		return fmt.Sprintf("%s [%d]", n.Kind, n.IntVal)
	case FloatLiteral:
		return fmt.Sprintf("%s [%g]", n.Kind, n.FloatVal)
	case StringLiteral:
		return fmt.Sprintf("%s [%q]", n.Kind, n.StringVal)
	case VariableAccess, GotoStatement, LabelTarget, LabelDeclaration:
		return fmt.Sprintf("%s [%s]", n.Kind, n.Name)
	case BinaryOp, UnaryOp:
		return fmt.Sprintf("%s [%s]", n.Kind, n.Op)
	default:
		if n.Name != "" {
			return fmt.Sprintf("%s [%s]", n.Kind, n.Name)
		}
		return n.Kind.String()
	}
}

// Print recursively prints Node n and its Children, indenting each recursive call.
func (n *Node) Print(depth int) {
	if n == nil {
		fmt.Printf("%*c---> NIL\n", depth<<1, ' ')
		return
	}
	fmt.Printf("%*c%s\n", depth<<1, ' ', n.String())
	for _, c := range n.Children {
		c.Print(depth + 1)
	}
}
