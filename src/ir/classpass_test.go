// Tests class and inheritance resolution (pass B), following the table-driven test style
// of src/frontend/lexer_test.go. Lives in an external test package since it drives
// resolution through the parser, which itself imports ir.
package ir_test

import (
	"testing"

	"bcplfe/src/diag"
	"bcplfe/src/frontend"
	"bcplfe/src/ir"
)

func resolveProgram(t *testing.T, src string) (*ir.ProgramMetrics, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	p := frontend.NewParser(src, bag)
	prog := p.Parse()
	if bag.Len() != 0 {
		t.Fatalf("unexpected parse errors: %v", bag.All())
	}
	_, pm := ir.DiscoverSymbols(prog, bag)
	ir.ResolveClasses(pm, bag)
	return pm, bag
}

func TestClassPassInheritedLayout(t *testing.T) {
	src := `CLASS A { LET x = 0 }
CLASS B EXTENDS A { LET y = 0 }
`
	pm, bag := resolveProgram(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	a, ok := pm.Classes.Get("A")
	if !ok {
		t.Fatalf("class A not found")
	}
	b, ok := pm.Classes.Get("B")
	if !ok {
		t.Fatalf("class B not found")
	}
	if len(b.MemberVariables) != 2 {
		t.Fatalf("expected B to carry 2 members (inherited + own), got %d", len(b.MemberVariables))
	}
	if b.MemberVariables[0].Name != "x" || b.MemberVariables[0].Offset != a.MemberVariables[0].Offset {
		t.Fatalf("expected B's first member to be A's x at the same offset, got %+v vs %+v",
			b.MemberVariables[0], a.MemberVariables[0])
	}
	if b.MemberVariables[1].Name != "y" {
		t.Fatalf("expected B's second member to be its own y, got %q", b.MemberVariables[1].Name)
	}
	if b.MemberVariables[1].Offset != a.InstanceSize {
		t.Fatalf("expected y's offset (%d) to start right after A's instance size (%d)",
			b.MemberVariables[1].Offset, a.InstanceSize)
	}
}

func TestClassPassVtableUnchangedWithNoOverrides(t *testing.T) {
	src := `CLASS A { LET m() = VALOF $( RESULTIS 1 $) }
CLASS B EXTENDS A { LET y = 0 }
`
	pm, bag := resolveProgram(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	a, _ := pm.Classes.Get("A")
	b, _ := pm.Classes.Get("B")
	if len(b.Vtable) != len(a.Vtable) {
		t.Fatalf("expected B's vtable to match A's slot count (%d), got %d", len(a.Vtable), len(b.Vtable))
	}
	if b.Vtable[0].OwnerClass != "A" {
		t.Fatalf("expected B's inherited slot 0 to still be owned by A, got %q", b.Vtable[0].OwnerClass)
	}
}

func TestClassPassOverrideReplacesVtableSlot(t *testing.T) {
	src := `CLASS A { LET m() = VALOF $( RESULTIS 1 $) }
CLASS B EXTENDS A { LET m() = VALOF $( RESULTIS 2 $) }
`
	pm, bag := resolveProgram(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected errors: %v", bag.All())
	}
	a, _ := pm.Classes.Get("A")
	b, _ := pm.Classes.Get("B")

	aSlot := a.SimpleToMethod["m"].VtableSlot
	bSlot := b.SimpleToMethod["m"].VtableSlot
	if aSlot != bSlot {
		t.Fatalf("expected the override to reuse A's vtable slot %d, got %d", aSlot, bSlot)
	}
	if b.Vtable[bSlot].OwnerClass != "B" {
		t.Fatalf("expected B's vtable slot %d to hold B's own m, got owner %q", bSlot, b.Vtable[bSlot].OwnerClass)
	}
	if a.Vtable[aSlot].OwnerClass != "A" {
		t.Fatalf("expected A's own vtable to still hold A's m after B overrides it, got owner %q", a.Vtable[aSlot].OwnerClass)
	}
	if b.SimpleToMethod["m"].OwnerClass != "B" {
		t.Fatalf("expected B's method lookup for m to resolve to B's own method")
	}
}

func TestClassPassUndeclaredParentReported(t *testing.T) {
	src := `CLASS B EXTENDS Nonexistent { LET y = 0 }
`
	_, bag := resolveProgram(t, src)
	if bag.Len() == 0 {
		t.Fatalf("expected a diagnostic for extending an undeclared class")
	}
}

func TestClassPassInheritanceCycleReported(t *testing.T) {
	src := `CLASS A EXTENDS B { LET x = 0 }
CLASS B EXTENDS A { LET y = 0 }
`
	_, bag := resolveProgram(t, src)
	if bag.Len() == 0 {
		t.Fatalf("expected a diagnostic for an inheritance cycle")
	}
}
