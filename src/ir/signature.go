// signature.go implements Pass C, signature analysis. Grounded on the
// Symbol.Nparams/DataTyp fields (src/ir/symtab.go) generalized into the richer
// FunctionMetrics record; the shallow _this/symbol-table/default-INTEGER inference order
// follows that same precedence.
package ir

import "bcplfe/src/diag"

// AnalyseSignatures computes (num_parameters, parameter_types, parameter_indices) for every
// function and routine recorded in pm.Functions. It is pass C of the
// four-pass pipeline. A completion flag on each FunctionMetrics prevents re-running this
// pass from changing already-resolved metrics, so re-running it on an already-analysed
// program is a no-op.
func AnalyseSignatures(pm *ProgramMetrics, global *SymTab, bag *diag.Bag) {
	for _, m := range pm.Functions {
		if m.SignatureResolved {
			continue
		}
		resolveSignature(m, global, bag)
		m.SignatureResolved = true
	}

	reportOverrideMismatches(pm, bag)
}

func resolveSignature(m *FunctionMetrics, global *SymTab, bag *diag.Bag) {
	for i, name := range m.ParameterNames {
		if name == ImplicitThisParam {
			m.ParameterTypes[i] = ImplicitThisType
			continue
		}
		if t, ok := m.VariableTypes[name]; ok && t != UNKNOWN {
			m.ParameterTypes[i] = t
			continue
		}
		if sym, ok := global.Get(name); ok && sym.Type != UNKNOWN {
			m.ParameterTypes[i] = sym.Type
			continue
		}
		m.ParameterTypes[i] = INTEGER
	}
	if m.IsRoutine {
		m.ReturnType = UNKNOWN
	} else if m.ReturnType == UNKNOWN {
		m.ReturnType = INTEGER
	}
}

// reportOverrideMismatches reports a method whose resolved signature differs in arity or
// parameter types from the parent method slot it overrides.
func reportOverrideMismatches(pm *ProgramMetrics, bag *diag.Bag) {
	for _, className := range pm.Classes.Names() {
		c, _ := pm.Classes.Get(className)
		if c.ParentName == "" {
			continue
		}
		parent, ok := pm.Classes.Get(c.ParentName)
		if !ok {
			continue
		}
		for simple, mi := range c.SimpleToMethod {
			if mi.DeclaringClass != c.Name {
				continue // Inherited, not an override.
			}
			parentMi, existed := parent.SimpleToMethod[simple]
			if !existed {
				continue
			}
			own := pm.Functions[mi.QualifiedName]
			base := pm.Functions[parentMi.QualifiedName]
			if own == nil || base == nil {
				continue
			}
			if !sameSignature(own, base) {
				bag.Errorf(diag.Semantic, mi.Node.Line, mi.Node.Col,
					"method %q overrides %q with a different signature", mi.QualifiedName, parentMi.QualifiedName)
			}
		}
	}
}

func sameSignature(a, b *FunctionMetrics) bool {
	if a.NumParameters != b.NumParameters {
		return false
	}
	for i := range a.ParameterTypes {
		if a.ParameterTypes[i] != b.ParameterTypes[i] {
			return false
		}
	}
	return true
}
