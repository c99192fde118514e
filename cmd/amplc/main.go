// Command amplc is the AMPL-2023 front-end driver: it opens the one
// source file named on the command line, compiles it, and reports
// acceptance or the first fatal diagnostic, per spec.md §6 and
// original_source/amplc.c's main (argc!=2 usage check, fopen/fclose,
// get_token+parse_program).
package main

import (
	"fmt"
	"io"
	"os"

	"amplc/internal/compiler"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <filename>\n", progname(args))
		return 2
	}
	path := args[1]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: file '%s' could not be opened: %v\n", progname(args), path, err)
		return 1
	}
	src, err := io.ReadAll(f)
	closeErr := f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: file '%s' could not be read: %v\n", progname(args), path, err)
		return 1
	}
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "%s: file '%s' could not be closed: %v\n", progname(args), path, closeErr)
		return 1
	}

	_, debug := os.LookupEnv("AMPLC_DEBUG")

	_, err = compiler.Compile(string(src), compiler.Options{
		SrcName: path,
		Stderr:  os.Stderr,
		Debug:   debug,
	})
	if err != nil {
		return 1
	}
	return 0
}

func progname(args []string) string {
	if len(args) == 0 {
		return "amplc"
	}
	return args[0]
}
