// Package compiler wires the scanner, symbol table, diagnostics sink
// and parser into the single entry point used by both cmd/amplc and
// the test suite, matching spec.md §2's "compiler façade" and
// original_source/amplc.c's main (get_token → parse_program →
// release_symbol_table).
package compiler

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"amplc/internal/diag"
	"amplc/internal/parser"
	"amplc/internal/scanner"
	"amplc/internal/symtab"
	"amplc/internal/token"
)

// Result is what a successful compile reports: the frame width of
// "main" and of every named subroutine, per spec.md §1 ("reports
// acceptance/rejection and the per-subroutine frame width").
type Result = parser.Result

// Options configures one compile. SrcName is used as the diagnostic
// file-name prefix. Debug turns on the parser's per-production trace
// (the Go analogue of amplc.c's DEBUG_PARSER). Color forces ANSI
// coloring of the single fatal diagnostic regardless of whether
// Stderr is a terminal; leave it unset (nil) to auto-detect.
type Options struct {
	SrcName string
	Stderr  io.Writer
	Debug   bool
	Color   *bool
}

// Compile runs one front-end pass over src and returns the computed
// frame widths on success. On any scanning, parsing, or type error it
// returns a non-nil error carrying the rendered diagnostic instead of
// calling os.Exit, so the test suite can assert on outcomes; cmd/amplc
// is the only caller that turns that error into a process exit.
func Compile(src string, opts Options) (result Result, err error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	table := symtab.New()
	defer table.Release()

	var p *parser.Parser

	// exit is a no-op here: Fatalf/FatalMessage fall through to a
	// panic(*FatalError) after writing and calling exit, which this
	// function recovers below. cmd/amplc goes through this same path
	// and turns the returned error into its exit status.
	sink := diag.New(opts.Stderr, opts.SrcName, scannerKindSource{p: &p}, func(int) {}, resolveColor(opts))

	fatalScan := func(pos token.Position, format string, args ...any) {
		sink.FatalMessage(pos, fmt.Sprintf(format, args...))
	}
	sc := scanner.New(src, fatalScan)

	log := zap.NewNop().Sugar()
	if opts.Debug {
		logger, _ := zap.NewDevelopment()
		log = logger.Sugar()
	}

	p = parser.New(sc, table, sink, log)

	defer func() {
		if r := recover(); r == nil {
			return
		} else if fe, ok := r.(*diag.FatalError); ok {
			err = fe
		} else {
			panic(r)
		}
	}()

	p.Advance()
	result = p.Parse()
	return result, nil
}

// scannerKindSource adapts the parser's lazily-initialized pointer to
// diag.TokenSource: the sink is built before the parser exists (both
// need each other), so it reads through the pointer instead.
type scannerKindSource struct {
	p **parser.Parser
}

func (s scannerKindSource) CurrentKindName() string {
	if *s.p == nil {
		return ""
	}
	return (*s.p).CurrentKindName()
}

// resolveColor decides whether diagnostics should be ANSI-colored:
// Options.Color wins if set, else color is on only when Stderr is an
// *os.File attached to a terminal and NO_COLOR is unset, matching
// cjo5-dingo's common/color.go gating.
func resolveColor(opts Options) bool {
	if opts.Color != nil {
		return *opts.Color
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := opts.Stderr.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
