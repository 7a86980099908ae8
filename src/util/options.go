// options.go provides command line argument parsing and the Options structure the driver consults at
// each stage of the pipeline. Trace flags live here, per-pass, rather than as package-level globals: see
// the design note on global state.

package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options carries command line configuration through every stage of the pipeline.
type Options struct {
	Src                 string // Path to source file. Empty means read from stdin.
	Out                 string // Path to output file for diagnostics/dumps. Empty means stdout.
	Threads             int    // Sizes the output writer's channel buffer; the passes always run sequentially.
	Verbose             bool   // Print statistics and the annotated AST after analysis.
	TokenStream         bool   // Output the token stream and exit, skipping all later stages.
	RuntimeManifestPath string // Path to the runtime import manifest (see rtimport package), optional.

	// Per-pass trace flags. The driver checks each flag after the matching pass and prints one summary
	// line through diag.Trace; the pass functions take no trace parameter and print no trace of their
	// own. Nothing here is a package global.
	TraceDiscovery bool // Trace symbol discovery (Pass A).
	TraceClass     bool // Trace class inheritance resolution (Pass B).
	TraceSignature bool // Trace signature analysis (Pass C).
	TraceAnalysis  bool // Trace AST analysis (Pass D).
	TraceCFG       bool // Trace CFG construction.
	TraceLiveness  bool // Trace liveness data-flow iteration.
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64 // Largest value accepted for -t.
const appVersion = "bcplfe 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments.
func ParseArgs() (Options, error) {
	opt := Options{Threads: 1}
	if len(os.Args) < 2 {
		return opt, nil
	}
	args := os.Args[1:]
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-o":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			opt.Out = args[i1+1]
			i1++
		case "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if t, err := strconv.Atoi(args[i1+1]); err == nil {
				if t > 0 && t <= maxThreads {
					opt.Threads = t
				} else {
					return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
				}
			} else {
				return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
			}
			i1++
		case "-runtime":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			opt.RuntimeManifestPath = args[i1+1]
			i1++
		case "-ts":
			opt.TokenStream = true
		case "-trace-discovery":
			opt.TraceDiscovery = true
		case "-trace-class":
			opt.TraceClass = true
		case "-trace-signature":
			opt.TraceSignature = true
		case "-trace-analysis":
			opt.TraceAnalysis = true
		case "-trace-cfg":
			opt.TraceCFG = true
		case "-trace-liveness":
			opt.TraceLiveness = true
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Src = args[i1]
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-o\tPath to write diagnostics/dumps to. Defaults to stdout.")
	_, _ = fmt.Fprintf(w, "-t\tOutput writer buffer size (passes always run sequentially). Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-runtime\tPath to a runtime import manifest (JSON) to load into the Global scope.")
	_, _ = fmt.Fprintln(w, "-ts\tOutput the token stream of the source and exit.")
	_, _ = fmt.Fprintln(w, "-trace-discovery, -trace-class, -trace-signature, -trace-analysis, -trace-cfg, -trace-liveness")
	_, _ = fmt.Fprintln(w, "\tEnable per-pass trace logging.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print compiler statistics and the annotated AST.")
	_ = w.Flush()
}
