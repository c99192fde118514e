package scanner

import (
	"testing"

	"amplc/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var toks []token.Token
	sc := New(src, func(pos token.Position, format string, args ...any) {
		t.Fatalf("unexpected scanner fatal at %s: "+format, append([]any{pos}, args...)...)
	})
	for {
		tok := sc.Advance()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "program p: main: chillax")
	got := kinds(toks)
	want := []token.Kind{token.Program, token.Ident, token.Colon, token.Main, token.Colon, token.Chillax, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
	if toks[1].Lexeme != "p" {
		t.Errorf("identifier lexeme = %q, want %q", toks[1].Lexeme, "p")
	}
}

func TestScanOperatorsAndPunctuation(t *testing.T) {
	toks := scanAll(t, "-> .. /= <= >= + - * / = < > [ ] ( ) , ; :")
	got := kinds(toks)
	want := []token.Kind{
		token.Arrow, token.DotDot, token.NotEq, token.LtEq, token.GtEq,
		token.Plus, token.Minus, token.Star, token.Slash, token.Eq,
		token.Lt, token.Gt, token.LBrack, token.RBrack, token.LParen,
		token.RParen, token.Comma, token.Semicolon, token.Colon, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanNumberAndString(t *testing.T) {
	toks := scanAll(t, `42 "hello\n\"quoted\""`)
	if toks[0].Kind != token.Int || toks[0].Lexeme != "42" {
		t.Errorf("number token = %+v", toks[0])
	}
	if toks[1].Kind != token.String {
		t.Errorf("string token kind = %v, want String", toks[1].Kind)
	}
}

func TestScanCommentsAndWhitespaceIgnored(t *testing.T) {
	toks := scanAll(t, "let # a comment\n  x = 1")
	got := kinds(toks)
	want := []token.Kind{token.Let, token.Ident, token.Eq, token.Int, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}

func TestPositionsTrackLineAndColumn(t *testing.T) {
	sc := New("ab\ncd", func(pos token.Position, format string, args ...any) {
		t.Fatalf("unexpected fatal")
	})
	first := sc.Advance()
	if first.Pos != (token.Position{Line: 1, Col: 0}) {
		t.Errorf("first token pos = %v, want 1:0", first.Pos)
	}
	second := sc.Advance()
	if second.Pos != (token.Position{Line: 2, Col: 0}) {
		t.Errorf("second token pos = %v, want 2:0", second.Pos)
	}
}

func TestUnterminatedStringIsFatal(t *testing.T) {
	called := false
	sc := New(`"unterminated`, func(pos token.Position, format string, args ...any) {
		called = true
		panic("stop")
	})
	func() {
		defer func() { recover() }()
		sc.Advance()
	}()
	if !called {
		t.Fatal("unterminated string literal did not trigger fatal")
	}
}

func TestIllegalCharacterIsFatal(t *testing.T) {
	called := false
	sc := New("@", func(pos token.Position, format string, args ...any) {
		called = true
		panic("stop")
	})
	func() {
		defer func() { recover() }()
		sc.Advance()
	}()
	if !called {
		t.Fatal("illegal character did not trigger fatal")
	}
}
