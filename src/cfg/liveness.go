// liveness.go computes the backward, iterative liveness data-flow analysis with the call
// refinement. Directly grounded on
// original_source/live_run_data_flow_analysis.cpp's run_data_flow_analysis: blocks are
// visited in reverse RPO, out[B] is unioned from successors' in-sets, and a block with a
// call gets its use-set augmented with its own out-set before the out-minus-def union --
// the exact "CALL INTERVAL FIX" in that file. Per-block use/def set construction is
// grounded on the same source's compute_use_def_sets.cpp driver, adapted from its
// per-instruction AST walk to this package's block-of-ir.Node-statements shape.
package cfg

import "bcplfe/src/ir"

// VarSet is a set of variable names, the unit liveness sets are expressed in: sets of
// variable names rather than virtual registers, since this front end never lowers to
// instructions.
type VarSet map[string]bool

func newVarSet() VarSet { return make(VarSet) }

func (s VarSet) add(name string) { s[name] = true }

func (s VarSet) union(other VarSet) {
	for k := range other {
		s[k] = true
	}
}

func (s VarSet) equal(other VarSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other[k] {
			return false
		}
	}
	return true
}

func (s VarSet) clone() VarSet {
	out := make(VarSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// LivenessResult holds the {use, def, in, out} maps retained for the code generator.
type LivenessResult struct {
	Use map[*BasicBlock]VarSet
	Def map[*BasicBlock]VarSet
	In  map[*BasicBlock]VarSet
	Out map[*BasicBlock]VarSet
}

// ComputeLiveness runs the backward iterative data-flow analysis to a fixpoint over g.
// Convergence is guaranteed because the transfer function is monotone over the powerset
// lattice of variable names.
func ComputeLiveness(g *ControlFlowGraph) *LivenessResult {
	res := &LivenessResult{
		Use: make(map[*BasicBlock]VarSet, len(g.Blocks)),
		Def: make(map[*BasicBlock]VarSet, len(g.Blocks)),
		In:  make(map[*BasicBlock]VarSet, len(g.Blocks)),
		Out: make(map[*BasicBlock]VarSet, len(g.Blocks)),
	}
	for _, b := range g.Blocks {
		use, def := computeUseDef(b)
		res.Use[b] = use
		res.Def[b] = def
		res.In[b] = newVarSet()
		res.Out[b] = newVarSet()
	}

	rpo := g.RPO()
	changed := true
	for changed {
		changed = false
		// Reverse RPO (i.e. post-order), matching run_data_flow_analysis's
		// blocks_in_rpo.rbegin()..rend() traversal.
		for i := len(rpo) - 1; i >= 0; i-- {
			b := rpo[i]

			out := newVarSet()
			for _, s := range b.Successors {
				out.union(res.In[s])
			}
			res.Out[b] = out

			effectiveUse := res.Use[b].clone()
			if b.ContainsCall {
				effectiveUse.union(out)
			}

			outMinusDef := out.clone()
			for d := range res.Def[b] {
				delete(outMinusDef, d)
			}

			newIn := effectiveUse
			newIn.union(outMinusDef)

			if !newIn.equal(res.In[b]) {
				res.In[b] = newIn
				changed = true
			}
		}
	}
	return res
}

// computeUseDef walks b's statements in order, building use[B] (variables read before any
// write to them within B) and def[B] (variables written in B).
func computeUseDef(b *BasicBlock) (use, def VarSet) {
	use, def = newVarSet(), newVarSet()
	for _, stmt := range b.Statements {
		walkUseDef(stmt, use, def)
	}
	return use, def
}

func walkUseDef(n *ir.Node, use, def VarSet) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ir.Assignment:
		// RHS is evaluated (and therefore used) before the LHS is written.
		for _, rhs := range n.Children[1].Children {
			walkUseDef(rhs, use, def)
		}
		for _, lhs := range n.Children[0].Children {
			if lhs.Kind == ir.VariableAccess {
				markDef(lhs.Name, def)
			} else {
				walkUseDef(lhs, use, def)
			}
		}
		return

	case ir.LetDeclaration:
		for _, init := range n.Children {
			walkUseDef(init, use, def)
		}
		for _, name := range n.Names {
			markDef(name, def)
		}
		return

	case ir.ForStatement:
		for _, c := range n.Children {
			walkUseDef(c, use, def)
		}
		if n.Name != "" {
			markDef(n.Name, def)
		}
		return

	case ir.VariableAccess:
		if !def[n.Name] {
			use.add(n.Name)
		}
		return
	}
	for _, c := range n.Children {
		walkUseDef(c, use, def)
	}
}

// markDef records a write to name; a name already written earlier in the block no longer
// counts as a use on a later read.
func markDef(name string, def VarSet) {
	def.add(name)
}
