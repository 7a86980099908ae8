// Tests the Lexer by verifying that sample source snippets are tokenized as expected,
// following the table-driven lexer test style of src/frontend/lexer_test.go.

package frontend

import (
	"testing"

	"bcplfe/src/diag"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	bag := diag.NewBag()
	l := NewLexer(src, bag)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks
}

func TestLexerEmptySource(t *testing.T) {
	toks := scanAll(t, "")
	if len(toks) != 1 || toks[0].Kind != EOF {
		t.Fatalf("expected single EOF token for empty source, got %v", toks)
	}
}

func TestLexerContextSensitiveIndirection(t *testing.T) {
	// scenario 1: "x!y" then, independently, "!x".
	toks := scanAll(t, "x!y")
	exp := []TokenKind{IDENTIFIER, VECIND, IDENTIFIER, EOF}
	if len(toks) != len(exp) {
		t.Fatalf("expected %d tokens, got %d: %v", len(exp), len(toks), toks)
	}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}

	toks = scanAll(t, "!x")
	exp = []TokenKind{INDIR, IDENTIFIER, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}
}

func TestLexerCharVectorVsCharIndirection(t *testing.T) {
	toks := scanAll(t, "v%2")
	exp := []TokenKind{IDENTIFIER, CHARVECIND, INTEGER, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}

	toks = scanAll(t, "%v")
	exp = []TokenKind{CHARIND, IDENTIFIER, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}
}

func TestLexerBitfieldOperator(t *testing.T) {
	toks := scanAll(t, "a %% b")
	if toks[1].Kind != BITFIELD {
		t.Errorf("expected BITFIELD, got %s", toks[1].Kind)
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "LET x = 1")
	exp := []TokenKind{LET, IDENTIFIER, EQ, INTEGER, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind TokenKind
	}{
		{"123", INTEGER},
		{"1.5", FLOAT},
		{"1.5e10", FLOAT},
		{"1e-3", FLOAT},
		{"#XFF", INTEGER},
		{"#17", INTEGER},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		if toks[0].Kind != c.kind {
			t.Errorf("%q: expected %s, got %s", c.src, c.kind, toks[0].Kind)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a*nb*tc*sd*"e"`)
	if toks[0].Kind != STRINGLIT {
		t.Fatalf("expected STRINGLIT, got %s", toks[0].Kind)
	}
	if toks[0].Lexeme != "a\nb\tc d\"e" {
		t.Errorf("unexpected decoded string: %q", toks[0].Lexeme)
	}
}

func TestLexerCharLiteral(t *testing.T) {
	toks := scanAll(t, "'a'")
	if toks[0].Kind != CHARLIT || toks[0].Lexeme != "a" {
		t.Errorf("expected CHARLIT 'a', got %s %q", toks[0].Kind, toks[0].Lexeme)
	}
}

func TestLexerEmptyCharIsError(t *testing.T) {
	toks := scanAll(t, "''")
	if toks[0].Kind != ERROR {
		t.Errorf("expected ERROR for empty char literal, got %s", toks[0].Kind)
	}
}

func TestLexerLineComment(t *testing.T) {
	toks := scanAll(t, "x // comment\ny")
	exp := []TokenKind{IDENTIFIER, IDENTIFIER, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}
}

func TestLexerBlockComment(t *testing.T) {
	toks := scanAll(t, "x /* comment\nspanning lines */ y")
	exp := []TokenKind{IDENTIFIER, IDENTIFIER, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}
}

func TestLexerBlockDelimiterAliases(t *testing.T) {
	toks := scanAll(t, "$( $)")
	exp := []TokenKind{LBRACE, RBRACE, EOF}
	for i1, e1 := range exp {
		if toks[i1].Kind != e1 {
			t.Errorf("token %d: expected %s, got %s", i1, e1, toks[i1].Kind)
		}
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	bag := diag.NewBag()
	l := NewLexer("a b", bag)
	p1 := l.Peek()
	p2 := l.Peek()
	if p1 != p2 {
		t.Fatalf("expected repeated Peek to return the same token, got %v then %v", p1, p2)
	}
	n := l.NextToken()
	if n.Kind != IDENTIFIER || n.Lexeme != "a" {
		t.Fatalf("expected NextToken to return 'a' after Peek, got %v", n)
	}
	n2 := l.NextToken()
	if n2.Lexeme != "b" {
		t.Fatalf("expected NextToken to return 'b', got %v", n2)
	}
}
