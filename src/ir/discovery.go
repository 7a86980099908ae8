// discovery.go implements Pass A, symbol discovery. Grounded on the
// teacher's src/ir/validate.go GetEntry/Stack-of-SymTab pattern for scope representation,
// generalized from VSL's single (function, routine) declaration pair to every top-level
// declaration kind this language allows at file scope. Discovery only registers names and shapes; it does
// not resolve types (Pass C) or inheritance (Pass B).
package ir

import (
	"bcplfe/src/diag"
)

// DiscoverSymbols walks prog's top-level declarations, populating the returned Global
// SymTab and ProgramMetrics skeleton in a single left-to-right pass. It is pass A of the
// four-pass pipeline.
func DiscoverSymbols(prog *Node, bag *diag.Bag) (*SymTab, *ProgramMetrics) {
	global := NewSymTab()
	pm := NewProgramMetrics()

	for _, decl := range prog.Children {
		discoverTop(decl, global, pm, bag)
	}
	return global, pm
}

func discoverTop(decl *Node, global *SymTab, pm *ProgramMetrics, bag *diag.Bag) {
	switch decl.Kind {
	case LetDeclaration:
		for _, name := range decl.Names {
			sym := &Symbol{Name: name, Kind: GLOBAL_VAR, OwningFunction: GlobalScope, Node: decl}
			putOrWarn(global, sym, decl, bag)
		}

	case GlobalDeclaration:
		// A GLOBALS { ... } block: register each GlobalVariableDeclaration it holds.
		for _, g := range decl.Children {
			sym := &Symbol{Name: g.Name, Kind: GLOBAL_VAR, OwningFunction: GlobalScope, Node: g}
			putOrWarn(global, sym, decl, bag)
		}

	case GlobalVariableDeclaration:
		sym := &Symbol{Name: decl.Name, Kind: GLOBAL_VAR, OwningFunction: GlobalScope, Node: decl}
		putOrWarn(global, sym, decl, bag)

	case StaticDeclaration:
		sym := &Symbol{Name: decl.Name, Kind: STATIC_VAR, OwningFunction: GlobalScope, Node: decl}
		putOrWarn(global, sym, decl, bag)

	case ManifestDeclaration:
		sym := &Symbol{
			Name: decl.Name, Kind: MANIFEST_CONST, Type: INTEGER,
			OwningFunction: GlobalScope, HasAbsolute: true, AbsoluteValue: decl.ManifestValue, Node: decl,
		}
		putOrWarn(global, sym, decl, bag)

	case FunctionDeclaration, RoutineDeclaration:
		discoverFunction(decl, global, pm, bag)

	case ClassDeclaration:
		discoverClass(decl, global, pm, bag)

	case LabelDeclaration:
		sym := &Symbol{Name: decl.Name, Kind: LABEL_SYM, OwningFunction: GlobalScope, Node: decl}
		putOrWarn(global, sym, decl, bag)

	default:
		bag.Errorf(diag.Internal, decl.Line, decl.Col, "unexpected top-level declaration kind %s", decl.Kind)
	}
}

func discoverFunction(decl *Node, global *SymTab, pm *ProgramMetrics, bag *diag.Bag) {
	kind := FUNCTION_SYM
	if decl.Kind == RoutineDeclaration {
		kind = ROUTINE_SYM
	}
	sym := &Symbol{
		Name: decl.Name, Kind: kind, OwningFunction: GlobalScope,
		Parameters: append([]string(nil), decl.Params...), Node: decl,
	}
	putOrWarn(global, sym, decl, bag)

	m := NewFunctionMetrics(decl.Name)
	m.IsRoutine = decl.Kind == RoutineDeclaration
	for _, p := range decl.Params {
		m.AddParameter(p, UNKNOWN) // Types are filled in by Pass C.
	}
	pm.Functions[decl.Name] = m
}

// discoverClass registers the class skeleton (name + declared parent only; layout and
// vtables are computed by Pass B) and the symbols for each member declared directly on it.
func discoverClass(decl *Node, global *SymTab, pm *ProgramMetrics, bag *diag.Bag) {
	entry := &ClassTableEntry{
		Name:           decl.Name,
		ParentName:     decl.ParentName,
		MemberMethods:  make(map[string]*ClassMethodInfo),
		SimpleToMethod: make(map[string]*ClassMethodInfo),
	}
	if !pm.Classes.Put(entry) {
		bag.Errorf(diag.Semantic, decl.Line, decl.Col, "class %q already declared", decl.Name)
		return
	}

	for _, member := range decl.Children {
		switch member.Kind {
		case LetDeclaration:
			for _, name := range member.Names {
				vis := member.Visibility
				entry.MemberVariables = append(entry.MemberVariables, MemberVariable{
					Name: name, Type: member.ExplicitType, Visibility: vis,
				})
			}
		case FunctionDeclaration, RoutineDeclaration:
			qualified := decl.Name + "::" + member.Name
			mi := &ClassMethodInfo{
				QualifiedName:  qualified,
				SimpleName:     member.Name,
				DeclaringClass: decl.Name,
				OwnerClass:     decl.Name,
				IsRoutine:      member.Kind == RoutineDeclaration,
				Params:         append([]string{ImplicitThisParam}, member.Params...),
				Visibility:     member.Visibility,
				Node:           member,
			}
			entry.MemberMethods[qualified] = mi
			entry.MethodOrder = append(entry.MethodOrder, qualified)

			fm := NewFunctionMetrics(qualified)
			fm.IsRoutine = mi.IsRoutine
			fm.IsMethod = true
			fm.OwningClass = decl.Name
			fm.AddParameter(ImplicitThisParam, ImplicitThisType)
			for _, p := range member.Params {
				fm.AddParameter(p, UNKNOWN)
			}
			pm.Functions[qualified] = fm
		default:
			bag.Errorf(diag.Internal, member.Line, member.Col, "unexpected class member kind %s", member.Kind)
		}
	}
}

func putOrWarn(tab *SymTab, sym *Symbol, decl *Node, bag *diag.Bag) {
	if !tab.Put(sym) {
		bag.Errorf(diag.Warning, decl.Line, decl.Col, "%q already declared in this scope; later declaration ignored", sym.Name)
	}
}
