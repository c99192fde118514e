package symtab

import (
	"fmt"
	"testing"

	"amplc/internal/valtype"
)

func variable(t valtype.Type) *IDPropt { return &IDPropt{Type: t} }
func callable(t valtype.Type, nparams int) *IDPropt {
	return &IDPropt{Type: t.Callable(), NParams: uint(nparams)}
}

func TestOffsetMonotonicity(t *testing.T) {
	tab := New()
	if !tab.OpenSubroutine("f", callable(valtype.NoneType(), 0)) {
		t.Fatal("OpenSubroutine(f) failed")
	}
	if w := tab.VariablesWidth(); w != 1 {
		t.Fatalf("width on scope open = %d, want 1", w)
	}
	for i, name := range []string{"a", "b", "c"} {
		if !tab.Insert(name, variable(valtype.Int())) {
			t.Fatalf("Insert(%s) failed", name)
		}
		prop, ok := tab.Find(name)
		if !ok {
			t.Fatalf("Find(%s) after insert failed", name)
		}
		if want := uint(i + 1); prop.Offset != want {
			t.Errorf("offset of %s = %d, want %d", name, prop.Offset, want)
		}
		if w, want := tab.VariablesWidth(), uint(i+2); w != want {
			t.Errorf("width after declaring %s = %d, want %d", name, w, want)
		}
	}
}

func TestScopeIsolation(t *testing.T) {
	tab := New()
	if !tab.OpenSubroutine("f", callable(valtype.NoneType(), 0)) {
		t.Fatal("OpenSubroutine(f) failed")
	}
	tab.Insert("x", variable(valtype.Int()))
	tab.CloseSubroutine()
	if !tab.OpenSubroutine("g", callable(valtype.NoneType(), 0)) {
		t.Fatal("OpenSubroutine(g) failed")
	}
	// x belongs to f's (now closed) scope and must be invisible here.
	if _, ok := tab.Find("x"); ok {
		t.Fatal("Find(x) succeeded inside g, but x is f's local variable")
	}
	// f itself, a sibling subroutine, must remain callable from g.
	prop, ok := tab.Find("f")
	if !ok {
		t.Fatal("Find(f) failed inside g: sibling subroutines must stay visible")
	}
	if !prop.Type.IsCallable() {
		t.Fatal("f resolved to a non-callable entry")
	}
	tab.CloseSubroutine()
	// Back in the global scope, x stays invisible.
	if _, ok := tab.Find("x"); ok {
		t.Fatal("Find(x) succeeded in the global scope after f was closed")
	}
}

func TestDuplicateDefinitionRejected(t *testing.T) {
	tab := New()
	if !tab.OpenSubroutine("f", callable(valtype.NoneType(), 0)) {
		t.Fatal("first OpenSubroutine(f) should succeed")
	}
	tab.CloseSubroutine()
	if tab.OpenSubroutine("f", callable(valtype.NoneType(), 0)) {
		t.Fatal("second OpenSubroutine(f) should fail on duplicate name")
	}
	if !tab.Insert("x", variable(valtype.Int())) {
		t.Fatal("first Insert(x) should succeed")
	}
	if tab.Insert("x", variable(valtype.Int())) {
		t.Fatal("second Insert(x) should fail on duplicate name")
	}
}

func TestOuterNonCallableHitRejected(t *testing.T) {
	// find_name's "outer hit only if callable" rule: a global scope can
	// never actually contain a non-callable entry under the invariants
	// (only subroutine names live there), but the rule must still hold
	// if it somehow did.
	tab := New()
	tab.Insert("v", variable(valtype.Int()))
	if !tab.OpenSubroutine("f", callable(valtype.NoneType(), 0)) {
		t.Fatal("OpenSubroutine(f) failed")
	}
	if _, ok := tab.Find("v"); ok {
		t.Fatal("a non-callable outer-scope hit must be treated as not-found")
	}
}

func TestRehashPreservesLookup(t *testing.T) {
	tab := New()
	if !tab.OpenSubroutine("f", callable(valtype.NoneType(), 0)) {
		t.Fatal("OpenSubroutine(f) failed")
	}
	const n = 200
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("v%d", i)
		if !tab.Insert(name, variable(valtype.Int())) {
			t.Fatalf("Insert(%s) failed", name)
		}
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("v%d", i)
		prop, ok := tab.Find(name)
		if !ok {
			t.Fatalf("Find(%s) failed after growth", name)
		}
		if prop.Offset != uint(i+1) {
			t.Errorf("offset of %s = %d, want %d", name, prop.Offset, i+1)
		}
	}
	if w := tab.VariablesWidth(); w != n+1 {
		t.Fatalf("final width = %d, want %d", w, n+1)
	}
}

func TestReleaseAndReinit(t *testing.T) {
	tab := New()
	tab.Insert("f", callable(valtype.NoneType(), 0))
	tab.Release()
	tab.Init()
	if _, ok := tab.Find("f"); ok {
		t.Fatal("Find(f) should fail after Release+Init reset the global scope")
	}
	if w := tab.VariablesWidth(); w != 1 {
		t.Fatalf("width after Init = %d, want 1", w)
	}
}
