// analyse.go implements Pass D, the AST analyser and class-table update.
// The expression-type propagation and the binary-operator compatibility tables are
// generalized directly from src/ir/validate.go's lutExp/lutAssign lookup
// tables and its validateExpr/validateAssign/GetEntry walk, widened from VSL's
// integer/float pair to the full VarType set and from a flat Stack-of-SymTab to this
// package's ScopeStack.
package ir

import (
	"bcplfe/src/diag"
)

// AnalyseProgram performs full expression-type propagation over every function and method
// body, then updates the class table with resolved parameter types. It is pass D of the
// four-pass pipeline, run after discovery, class resolution and signature analysis.
func AnalyseProgram(prog *Node, global *SymTab, pm *ProgramMetrics, bag *diag.Bag) {
	for _, decl := range prog.Children {
		switch decl.Kind {
		case FunctionDeclaration, RoutineDeclaration:
			analyseFunctionBody(decl, decl.Name, global, pm, bag)
		case ClassDeclaration:
			for _, member := range decl.Children {
				if member.Kind == FunctionDeclaration || member.Kind == RoutineDeclaration {
					qualified := decl.Name + "::" + member.Name
					analyseFunctionBody(member, qualified, global, pm, bag)
				}
			}
		}
	}
	updateClassTable(pm)
}

func analyseFunctionBody(decl *Node, metricsKey string, global *SymTab, pm *ProgramMetrics, bag *diag.Bag) {
	m := pm.Functions[metricsKey]
	scopes := NewScopeStack(global)
	fn := scopes.EnterScope()
	if m != nil {
		for i, name := range m.ParameterNames {
			sym := &Symbol{Name: name, Kind: PARAMETER, Type: m.ParameterTypes[i], OwningFunction: metricsKey}
			fn.Put(sym)
		}
	}
	for _, body := range decl.Children {
		analyseNode(body, scopes, m, bag)
	}
	scopes.ExitScope()
}

func analyseNode(n *Node, scopes *ScopeStack, m *FunctionMetrics, bag *diag.Bag) VarType {
	if n == nil {
		return UNKNOWN
	}
	switch n.Kind {
	case LetDeclaration:
		return analyseLet(n, scopes, m, bag)

	case BlockStatement, CompoundStatement:
		scopes.EnterScope()
		var last VarType
		for _, c := range n.Children {
			last = analyseNode(c, scopes, m, bag)
		}
		scopes.ExitScope()
		n.InferredType = last
		return last

	case ValofExpression, FloatValofExpression:
		scopes.EnterScope()
		var last VarType
		for _, c := range n.Children {
			last = analyseNode(c, scopes, m, bag)
			checkNoReturnInValof(c, bag)
		}
		scopes.ExitScope()
		if !valofCoveredSeq(n.Children) {
			bag.Errorf(diag.Semantic, n.Line, n.Col, "VALOF block must RESULTIS on every path")
		}
		n.InferredType = last
		return last

	case Assignment:
		return analyseAssignment(n, scopes, m, bag)

	case IfStatement, UnlessStatement, WhileStatement, UntilStatement:
		analyseNode(n.Children[0], scopes, m, bag)
		analyseNode(n.Children[1], scopes, m, bag)

	case TestStatement:
		analyseNode(n.Children[0], scopes, m, bag)
		analyseNode(n.Children[1], scopes, m, bag)
		analyseNode(n.Children[2], scopes, m, bag)

	case ForStatement:
		analyseNode(n.Children[0], scopes, m, bag)
		analyseNode(n.Children[1], scopes, m, bag)
		for _, c := range n.Children[2:] {
			analyseNode(c, scopes, m, bag)
		}

	case IntegerLiteral:
		n.InferredType = INTEGER
		return INTEGER

	case FloatLiteral:
		n.InferredType = FLOAT
		return FLOAT

	case StringLiteral:
		n.InferredType = STRING
		return STRING

	case CharLiteral, BoolLiteral:
		n.InferredType = INTEGER
		return INTEGER

	case VariableAccess:
		if sym, ok := scopes.Lookup(n.Name); ok {
			n.Entry = sym
			n.InferredType = sym.Type
			return sym.Type
		}
		bag.Errorf(diag.Semantic, n.Line, n.Col, "undeclared identifier %q", n.Name)
		return UNKNOWN

	case BinaryOp:
		lt := analyseNode(n.Children[0], scopes, m, bag)
		rt := analyseNode(n.Children[1], scopes, m, bag)
		n.InferredType = resultType(n, lt, rt, bag)
		return n.InferredType

	case UnaryOp:
		t := analyseNode(n.Children[0], scopes, m, bag)
		if n.Op == "-" || n.Op == "~" {
			n.InferredType = t
		} else {
			n.InferredType = INTEGER
		}
		return n.InferredType

	case FunctionCall:
		return analyseCall(n, scopes, m, bag)

	case MemberAccessExpression:
		analyseNode(n.Children[0], scopes, m, bag)
		n.InferredType = UNKNOWN // Resolved once the object's class is known; conservative here.
		return n.InferredType

	case ConditionalExpression:
		analyseNode(n.Children[0], scopes, m, bag)
		tt := analyseNode(n.Children[1], scopes, m, bag)
		et := analyseNode(n.Children[2], scopes, m, bag)
		if tt == et {
			n.InferredType = tt
		} else {
			n.InferredType = ANY
		}
		return n.InferredType

	case ReturnStatement, ResultisStatement:
		if len(n.Children) > 0 {
			return analyseNode(n.Children[0], scopes, m, bag)
		}

	default:
		for _, c := range n.Children {
			analyseNode(c, scopes, m, bag)
		}
	}
	return UNKNOWN
}

// valofCoveredSeq reports whether every execution path through the statement sequence stmts
// is guaranteed to reach a RESULTIS before falling off the end.
func valofCoveredSeq(stmts []*Node) bool {
	for _, s := range stmts {
		if valofCovered(s) {
			return true
		}
	}
	return false
}

// valofCovered reports whether every path through statement n reaches a RESULTIS. This is a
// conservative approximation: GOTO/labeled control flow, WHILE/UNTIL (the condition may be
// false on entry) and single-arm IF/UNLESS are never considered covered, even though a
// particular program using them might still always resultis in practice.
func valofCovered(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case ResultisStatement:
		return true

	case BlockStatement, CompoundStatement:
		return valofCoveredSeq(n.Children)

	case TestStatement:
		return valofCovered(n.Children[1]) && valofCovered(n.Children[2])

	case RepeatStatement:
		// All three REPEAT forms run the body at least once before any condition check.
		return valofCovered(n.Children[0])

	case CaseClause:
		return valofCoveredSeq(n.Children[1:]) // Children[0] is the case value, not a statement.

	case DefaultClause:
		return valofCoveredSeq(n.Children)

	case SwitchonStatement:
		hasDefault := false
		for _, clause := range n.Children[1:] {
			if clause.Kind == DefaultClause {
				hasDefault = true
			}
			if !valofCovered(clause) {
				return false
			}
		}
		return hasDefault

	default:
		return false
	}
}

// checkNoReturnInValof rejects a bare RETURN found inside a VALOF/FVALOF body: RETURN exits
// a value-less routine, while a VALOF expression must yield its value through RESULTIS.
// Recursion stops at a nested VALOF/FVALOF or function/routine declaration, since those
// introduce their own, independently checked context.
func checkNoReturnInValof(n *Node, bag *diag.Bag) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ValofExpression, FloatValofExpression, FunctionDeclaration, RoutineDeclaration:
		return
	case ReturnStatement:
		bag.Errorf(diag.Semantic, n.Line, n.Col,
			"RETURN is not allowed inside VALOF/FVALOF; use RESULTIS to yield a value")
		return
	}
	for _, c := range n.Children {
		checkNoReturnInValof(c, bag)
	}
}

// analyseLet determines a LET/FLET declaration's type: explicit AS annotation, else
// is_float_declaration, else a float literal initializer, else default INTEGER. Name/value
// arity must match except for the two destructuring exceptions: (2,1), where the single
// initializer must be pair-shaped, and (4,1), where it must be QUAD-shaped, with all four
// bound names sharing QUAD's element type.
func analyseLet(n *Node, scopes *ScopeStack, m *FunctionMetrics, bag *diag.Bag) VarType {
	var initTypes []VarType
	for _, init := range n.Children {
		initTypes = append(initTypes, analyseNode(init, scopes, m, bag))
	}

	t := INTEGER
	switch {
	case n.HasExplicit:
		t = n.ExplicitType
	case n.IsFloat:
		t = FLOAT
	case len(initTypes) > 0 && initTypes[0] == FLOAT:
		t = FLOAT
	}

	switch {
	case len(n.Names) == 2 && len(initTypes) == 1:
		// Destructuring shape (2,1): a single pair-shaped initializer splits across both names.
		if initTypes[0] != PAIR && initTypes[0] != FPAIR && initTypes[0] != UNKNOWN {
			bag.Errorf(diag.Semantic, n.Line, n.Col,
				"destructuring LET %v requires a pair-shaped right-hand side, got %s", n.Names, initTypes[0])
		} else if initTypes[0] == FPAIR {
			t = FLOAT
		}

	case len(n.Names) == 4 && len(initTypes) == 1:
		// Destructuring shape (4,1): a single QUAD-shaped (four-lane integer) initializer
		// splits across all four names. OCT/FOCT are eight-lane and do not match a
		// four-name binding, so only QUAD is accepted here; all four names bind to QUAD's
		// INTEGER element type, so they trivially share it once accepted.
		switch initTypes[0] {
		case QUAD:
			t = INTEGER
		case UNKNOWN:
			// Type unresolved upstream; do not compound the error here.
		default:
			bag.Errorf(diag.Semantic, n.Line, n.Col,
				"destructuring LET %v requires a QUAD-shaped right-hand side, got %s", n.Names, initTypes[0])
		}

	case len(initTypes) > 0 && len(n.Names) != len(initTypes):
		bag.Errorf(diag.Semantic, n.Line, n.Col,
			"LET declares %d name(s) but %d initializer(s)", len(n.Names), len(initTypes))
	}

	scope := scopes.Top()
	for _, name := range n.Names {
		sym := &Symbol{Name: name, Kind: LOCAL_VAR, Type: t, Node: n}
		scope.Put(sym)
		if m != nil {
			m.RecordVariable(name, t)
		}
	}
	n.InferredType = t
	return t
}

func analyseAssignment(n *Node, scopes *ScopeStack, m *FunctionMetrics, bag *diag.Bag) VarType {
	lhsList := n.Children[0].Children
	rhsList := n.Children[1].Children
	if len(lhsList) != len(rhsList) {
		bag.Errorf(diag.Semantic, n.Line, n.Col, "assignment has %d targets but %d values", len(lhsList), len(rhsList))
	}
	for i, lhs := range lhsList {
		lt := analyseNode(lhs, scopes, m, bag)
		if i >= len(rhsList) {
			continue
		}
		rt := analyseNode(rhsList[i], scopes, m, bag)
		if !assignable(lt, rt) {
			bag.Errorf(diag.Semantic, lhs.Line, lhs.Col, "cannot assign %s to %s", rt, lt)
		}
	}
	return UNKNOWN
}

func analyseCall(n *Node, scopes *ScopeStack, m *FunctionMetrics, bag *diag.Bag) VarType {
	callee := n.Children[0]
	args := n.Children[1:]
	for _, a := range args {
		analyseNode(a, scopes, m, bag)
	}
	if callee.Kind != VariableAccess {
		analyseNode(callee, scopes, m, bag)
		n.InferredType = UNKNOWN
		return UNKNOWN
	}
	sym, ok := scopes.Lookup(callee.Name)
	if !ok {
		bag.Errorf(diag.Semantic, n.Line, n.Col, "call to undeclared function %q", callee.Name)
		return UNKNOWN
	}
	callee.Entry = sym
	if len(sym.Parameters) != len(args) {
		bag.Errorf(diag.Semantic, n.Line, n.Col, "function %q expects %d arguments, got %d",
			callee.Name, len(sym.Parameters), len(args))
	}
	if m != nil && sym.Kind.IsRuntime() {
		m.CallsRuntime = true
	}
	n.InferredType = sym.Type
	return sym.Type
}

// resultType computes a BinaryOp's result type, reporting incompatible-type-in-arithmetic
// errors for mixed INTEGER/FLOAT operands without an explicit conversion.
func resultType(n *Node, lt, rt VarType, bag *diag.Bag) VarType {
	if lt == UNKNOWN || rt == UNKNOWN {
		return UNKNOWN
	}
	if !lt.IsNumeric() || !rt.IsNumeric() {
		// Non-arithmetic operand shapes (pointers, vectors, lists) are left to later
		// lowering stages; only the arithmetic/relational int-float mismatch is enforced
		// here
		return lt
	}
	if lt == rt {
		return lt
	}
	switch n.Op {
	case "+", "-", "*", "/":
		return FLOAT // INTEGER combined with FLOAT promotes to FLOAT.
	default:
		bag.Errorf(diag.Semantic, n.Line, n.Col,
			"incompatible types in arithmetic: %s %s %s", lt, n.Op, rt)
		return UNKNOWN
	}
}

// assignable reports whether a value of type rt may be assigned to a variable of type lt.
func assignable(lt, rt VarType) bool {
	if lt == rt || lt == ANY || rt == UNKNOWN {
		return true
	}
	if lt == FLOAT && rt == INTEGER {
		return true
	}
	return false
}

// updateClassTable copies each method's resolved parameter types from its FunctionMetrics
// back into the owning ClassMethodInfo, so SUPER calls and code generation see consistent
// types. Re-running it is a no-op since it only ever copies the
// current, already-stable metrics.
func updateClassTable(pm *ProgramMetrics) {
	for _, className := range pm.Classes.Names() {
		c, _ := pm.Classes.Get(className)
		for qualified, mi := range c.MemberMethods {
			m, ok := pm.Functions[qualified]
			if !ok {
				continue
			}
			mi.ParamTypes = make(map[string]VarType, len(m.ParameterNames))
			for i, name := range m.ParameterNames {
				mi.ParamTypes[name] = m.ParameterTypes[i]
			}
			mi.ReturnType = m.ReturnType
		}
	}
}
