// Command sigcheck is the thin CLI front end for the sigparse library:
// it walks the given files (or directories), picks a parser by file
// extension, and prints parse/validation results. It contains no parsing
// logic of its own -- everything it prints comes from the library.
// Mirrors the shape of wudi-pdfkit's cmd/scantest: a flag-parsed main
// that opens input and prints what the library returns.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clamsig/sigparse"
	"github.com/clamsig/sigparse/observability"
	"github.com/clamsig/sigparse/sigtype"
)

func main() {
	var (
		verbose       = flag.Bool("verbose", false, "print every parsed line, not just failures")
		validate      = flag.Bool("validate", false, "run cross-field validation after a successful parse")
		printOrig     = flag.Bool("print-orig", false, "print the original line alongside the parsed result")
		dumpDebug     = flag.Bool("dump-debug", false, "print a Go-syntax dump of the parsed value")
		dumpDebugLong = flag.Bool("dump-debug-long", false, "print a Go-syntax dump of the parsed value (same output as -dump-debug)")
		printFeatures = flag.Bool("print-features", false, "print the engine feature set each signature requires")
		sigTypeFlag   = flag.String("sig-type", "", "signature dialect extension to use when reading stdin (e.g. ndb)")
		checkExport   = flag.Bool("check-export", false, "re-serialize each parsed signature and flag any that don't round-trip byte-exact")
	)
	flag.Parse()

	opts := options{
		verbose:       *verbose,
		validate:      *validate,
		printOrig:     *printOrig,
		dumpDebug:     *dumpDebug,
		dumpDebugLong: *dumpDebugLong,
		printFeatures: *printFeatures,
		checkExport:   *checkExport,
		logger:        observability.NopLogger{},
		tracer:        observability.NopTracer(),
	}

	hadErrors := false

	if flag.NArg() == 0 {
		st, ok := sigtype.FromFileExtension(*sigTypeFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "sigcheck: --sig-type is required (and must name a recognized extension) when reading stdin\n")
			os.Exit(2)
		}
		if !checkLines(context.Background(), os.Stdin, "<stdin>", st, opts) {
			hadErrors = true
		}
	} else {
		for _, arg := range flag.Args() {
			if !checkPath(arg, opts) {
				hadErrors = true
			}
		}
	}

	if hadErrors {
		os.Exit(1)
	}
}

type options struct {
	verbose       bool
	validate      bool
	printOrig     bool
	dumpDebug     bool
	dumpDebugLong bool
	printFeatures bool
	checkExport   bool
	logger        observability.Logger
	tracer        observability.Tracer
}

// checkPath walks arg (a file or directory), dispatching every regular
// file whose extension sigtype recognizes. Returns false if any file it
// visited had a parse error.
func checkPath(arg string, opts options) bool {
	info, err := os.Stat(arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sigcheck: %v\n", err)
		return false
	}

	ok := true
	walk := func(path string) {
		st, recognized := sigtype.FromFilePath(path)
		if !recognized || st.Unsupported() {
			return
		}
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sigcheck: %v\n", err)
			ok = false
			return
		}
		defer f.Close()
		if !checkLines(context.Background(), f, path, st, opts) {
			ok = false
		}
	}

	if info.IsDir() {
		_ = filepath.Walk(arg, func(path string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			walk(path)
			return nil
		})
	} else {
		walk(arg)
	}
	return ok
}

// checkLines reads comment-stripped lines from r, parses each against
// st, and prints results per opts. Returns false if any line failed to
// parse.
func checkLines(ctx context.Context, r io.Reader, source string, st sigtype.SigType, opts options) bool {
	_, span := opts.tracer.StartSpan(ctx, "sigcheck.check_lines")
	defer span.Finish()
	span.SetTag("source", source)
	span.SetTag("sig_type", st.String())

	ok := true
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sig, meta, err := sigparse.Parse(st, []byte(line))
		if err != nil {
			opts.logger.Error("parse failed",
				observability.String("source", source),
				observability.Int("line", lineNo),
				observability.Error("err", err))
			fmt.Printf("%s:%d: FAIL: %v\n", source, lineNo, err)
			ok = false
			continue
		}

		if opts.validate {
			if verr := sig.Validate(); verr != nil {
				fmt.Printf("%s:%d: VALIDATION FAIL: %v\n", source, lineNo, verr)
				ok = false
				continue
			}
		}

		if opts.checkExport {
			if sig.String() != line {
				fmt.Printf("%s:%d: ROUND-TRIP MISMATCH: got %q, want %q\n", source, lineNo, sig.String(), line)
				ok = false
				continue
			}
		}

		if !opts.verbose {
			continue
		}

		fmt.Printf("%s:%d: OK name=%q", source, lineNo, sig.Name())
		if meta.FLevel != nil {
			fmt.Printf(" flevel=%v", *meta.FLevel)
		}
		fmt.Println()
		if opts.printOrig {
			fmt.Printf("  orig: %s\n", line)
		}
		if opts.printFeatures {
			fmt.Printf("  features: %v\n", sig.Features().Features())
		}
		if opts.dumpDebug || opts.dumpDebugLong {
			fmt.Printf("  %#v\n", sig)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "sigcheck: %s: %v\n", source, err)
		ok = false
	}
	return ok
}
