// Package symtab implements the AMPL-2023 scope-aware symbol table
// described in spec.md §4.3: a program-global scope and, while a
// subroutine body is being parsed, one nested local scope — ported
// from original_source/symboltable.c's table/saved_table pair (Design
// Note 1: "a small stack of scope records in a systems language").
package symtab

import "amplc/internal/valtype"

// IDPropt holds the properties of one identifier: its value-type, its
// local frame offset (meaningful only for variables), and — for
// callables — the parameter count and ordered parameter types.
// Mirrors amplc.c's IDPropt.
type IDPropt struct {
	Type    valtype.Type
	Offset  uint
	NParams uint
	Params  []valtype.Type
}

const maxLoadFactor = 0.75

// Table is the two-level AMPL-2023 symbol table.
type Table struct {
	table       *hashTable // currently active scope
	saved       *hashTable // the displaced scope, or nil outside any subroutine
	currOffset  uint
	savedOffset uint
}

// New creates and initializes a symbol table with only the global
// scope open, matching init_symbol_table.
func New() *Table {
	t := &Table{}
	t.Init()
	return t
}

// Init (re)establishes the global scope with an empty, fresh table and
// resets the current frame width to 1.
func (t *Table) Init() {
	t.table = newHashTable(maxLoadFactor)
	t.saved = nil
	t.currOffset = 1
	t.savedOffset = 0
}

// OpenSubroutine attempts to insert name→prop into the (always global,
// since AMPL-2023 forbids nested subdefs) active scope. On success it
// pushes that scope aside and opens a fresh, empty local scope with
// frame width reset to 1. It reports false on a duplicate name,
// leaving the active scope untouched.
func (t *Table) OpenSubroutine(name string, prop *IDPropt) bool {
	if !t.table.insert(name, prop) {
		return false
	}

	t.savedOffset = t.currOffset
	t.saved = t.table
	t.table = newHashTable(maxLoadFactor)
	t.currOffset = 1
	return true
}

// CloseSubroutine destroys the current local scope — including its
// property records, which Go's garbage collector reclaims once
// unreferenced — and restores the outer (global) scope.
func (t *Table) CloseSubroutine() {
	t.table = t.saved
	t.saved = nil
	t.currOffset = t.savedOffset
	t.savedOffset = 0
}

// Insert inserts name→prop into the currently active scope. If prop is
// a variable (non-callable), its Offset is set to the current frame
// width, which is then incremented. It reports false on a duplicate
// name in the active scope.
func (t *Table) Insert(name string, prop *IDPropt) bool {
	if !t.table.insert(name, prop) {
		return false
	}
	if !prop.Type.IsCallable() {
		prop.Offset = t.currOffset
		t.currOffset++
	}
	return true
}

// Find searches the current scope first; if not found there and an
// outer (saved) scope exists, it searches that — but an outer-scope
// hit that is non-callable is rejected (treated as not-found), so that
// an enclosing subroutine's local variables never leak into a nested
// lookup while sibling subroutines remain callable from anywhere.
func (t *Table) Find(name string) (*IDPropt, bool) {
	if prop, ok := t.table.search(name); ok {
		return prop, true
	}
	if t.saved == nil {
		return nil, false
	}
	prop, ok := t.saved.search(name)
	if !ok {
		return nil, false
	}
	if !prop.Type.IsCallable() {
		return nil, false
	}
	return prop, true
}

// VariablesWidth returns one past the highest offset assigned to a
// local variable in the current scope: 1 + (number of variables
// declared so far in that scope).
func (t *Table) VariablesWidth() uint {
	return t.currOffset
}

// Release frees all scopes. After Release, the table must be
// reinitialized with Init before further use.
func (t *Table) Release() {
	t.table = nil
	t.saved = nil
	t.currOffset = 0
	t.savedOffset = 0
}
