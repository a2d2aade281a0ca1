// Command schema-check loads every schema from the configured source and
// runs a strict verification pass over the resulting catalog, reporting each
// accumulated violation. Source and backend selection is environment driven
// (see internal/source.Open).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"schemacore/internal/manager"
	"schemacore/internal/source"
	"schemacore/pkg/extension"
	"schemacore/pkg/schema"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		relaxed    bool
		schemaName string
	)
	fs.BoolVar(&relaxed, "relaxed", false, "bootstrap in relaxed mode, then verify strictly")
	fs.StringVar(&schemaName, "schema", "", "load only the named schema and its dependencies")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	res, err := run(context.Background(), relaxed, schemaName, stdout)
	if err != nil {
		var txErr schema.TransactionError
		if errors.As(err, &txErr) {
			reportViolations(stderr, txErr.Result)
			return 1
		}
		fmt.Fprintf(stderr, "schema check failed: %v\n", err)
		return 1
	}
	if !res.OK() {
		reportViolations(stderr, res)
		return 1
	}
	fmt.Fprintln(stdout, "Schema verification passed.")
	return 0
}

func run(ctx context.Context, relaxed bool, schemaName string, stdout io.Writer) (schema.Result, error) {
	src, err := source.Open(ctx)
	if err != nil {
		return schema.Result{}, err
	}
	m := manager.New(extension.Default())
	if relaxed {
		if err := m.SetRelaxed(); err != nil {
			return schema.Result{}, err
		}
	}
	if schemaName != "" {
		err = m.Load(ctx, src, schemaName)
	} else {
		err = m.LoadAll(ctx, src)
	}
	if err != nil {
		return schema.Result{}, err
	}
	fmt.Fprintf(stdout, "Loaded %d schema(s), %d object(s).\n", len(m.Schemas()), m.ObjectCount())
	return m.Verify(), nil
}

func reportViolations(stderr io.Writer, res schema.Result) {
	fmt.Fprintf(stderr, "Schema verification failed with %d violation(s):\n", len(res.Violations))
	for _, v := range res.Violations {
		fmt.Fprintf(stderr, "  %s\n", v)
	}
}
