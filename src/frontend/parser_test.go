// Tests the Parser by verifying that sample source snippets assemble the expected
// ir.Node shapes, following the table-driven test style of src/frontend/lexer_test.go.

package frontend

import (
	"testing"

	"bcplfe/src/diag"
	"bcplfe/src/ir"
)

func parseProgram(t *testing.T, src string) (*ir.Node, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	p := NewParser(src, bag)
	return p.Parse(), bag
}

func TestParserPairDestructuringLet(t *testing.T) {
	prog, bag := parseProgram(t, "LET a, b = MAKE_PAIR(1, 2)")
	if bag.Len() != 0 {
		t.Fatalf("unexpected parse errors: %v", bag.All())
	}
	if len(prog.Children) != 1 {
		t.Fatalf("expected one top-level declaration, got %d", len(prog.Children))
	}
	decl := prog.Children[0]
	if decl.Kind != ir.LetDeclaration {
		t.Fatalf("expected LetDeclaration, got %s", decl.Kind)
	}
	if len(decl.Names) != 2 || decl.Names[0] != "a" || decl.Names[1] != "b" {
		t.Fatalf("expected Names [a b], got %v", decl.Names)
	}
	if len(decl.Children) != 1 {
		t.Fatalf("expected a single initializer, got %d", len(decl.Children))
	}
	call := decl.Children[0]
	if call.Kind != ir.FunctionCall {
		t.Fatalf("expected FunctionCall initializer, got %s", call.Kind)
	}
	if len(call.Children) != 3 {
		t.Fatalf("expected callee + 2 arguments, got %d children", len(call.Children))
	}
}

func TestParserQuadDestructuringLet(t *testing.T) {
	prog, bag := parseProgram(t, "LET a, b, c, d = MAKE_QUAD(1, 2, 3, 4)")
	if bag.Len() != 0 {
		t.Fatalf("unexpected parse errors: %v", bag.All())
	}
	decl := prog.Children[0]
	if len(decl.Names) != 4 {
		t.Fatalf("expected 4 names, got %d", len(decl.Names))
	}
	if len(decl.Children) != 1 {
		t.Fatalf("expected a single initializer, got %d", len(decl.Children))
	}
}

func TestParserBlockScopeFunctionDeclarationIsRejected(t *testing.T) {
	src := `LET outer() = VALOF
$( { LET f(x) = x + 1
     RESULTIS f(1)
   }
   RESULTIS 0
$)`
	prog, bag := parseProgram(t, src)
	if bag.Len() == 0 {
		t.Fatalf("expected a syntactic error for a block-scope function declaration, got none")
	}
	if len(prog.Children) != 1 || prog.Children[0].Kind != ir.FunctionDeclaration {
		t.Fatalf("expected outer's FunctionDeclaration to still parse despite the nested error")
	}
}

func TestParserBlockLetProducesPlainVariableBinding(t *testing.T) {
	src := `LET outer() = VALOF
$( { LET x, y = 1, 2
     RESULTIS x + y
   }
   RESULTIS 0
$)`
	prog, bag := parseProgram(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected parse errors: %v", bag.All())
	}
	outer := prog.Children[0]
	body := outer.Children[0]
	if body.Kind != ir.ValofExpression {
		t.Fatalf("expected ValofExpression body, got %s", body.Kind)
	}
	block := body.Children[0]
	if block.Kind != ir.BlockStatement {
		t.Fatalf("expected the VALOF's first statement to be a nested block, got %s", block.Kind)
	}
	if len(block.Children) < 2 {
		t.Fatalf("expected a declaration plus its assignment in the block, got %d children", len(block.Children))
	}
	decl := block.Children[0]
	if decl.Kind != ir.LetDeclaration || len(decl.Children) != 0 {
		t.Fatalf("expected a bare LetDeclaration with no initializers, got %s with %d children",
			decl.Kind, len(decl.Children))
	}
	assign := block.Children[1]
	if assign.Kind != ir.Assignment {
		t.Fatalf("expected the stripped initializers to surface as an Assignment, got %s", assign.Kind)
	}
}
