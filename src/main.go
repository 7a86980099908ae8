package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"bcplfe/src/cfg"
	"bcplfe/src/diag"
	"bcplfe/src/frontend"
	"bcplfe/src/ir"
	"bcplfe/src/ir/rtimport"
	"bcplfe/src/util"
)

// run drives the pipeline end to end: lex, parse, the four semantic-analysis passes, then
// per-function CFG construction and liveness. Behaviour is controlled by the
// util.Options structure, the same role it plays in the driver this was adapted from.
func run(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source code: %s", err)
	}

	bag := diag.NewBag()

	if opt.TokenStream {
		printTokenStream(src, bag)
		return reportAndExit(bag)
	}

	p := frontend.NewParser(src, bag)
	prog := p.Parse()
	if bag.Fatal() {
		return reportAndExit(bag)
	}

	global, pm := ir.DiscoverSymbols(prog, bag)
	diag.Trace(opt.TraceDiscovery, "discovered %d top-level symbols", len(global.Names()))

	if opt.RuntimeManifestPath != "" {
		n, err := importRuntime(opt.RuntimeManifestPath, global)
		if err != nil {
			return fmt.Errorf("runtime manifest error: %s", err)
		}
		diag.Trace(opt.TraceDiscovery, "imported %d runtime symbols", n)
	}
	if bag.Fatal() {
		return reportAndExit(bag)
	}

	ir.ResolveClasses(pm, bag)
	diag.Trace(opt.TraceClass, "resolved %d classes", len(pm.Classes.Names()))
	if bag.Fatal() {
		return reportAndExit(bag)
	}

	ir.AnalyseSignatures(pm, global, bag)
	diag.Trace(opt.TraceSignature, "analysed signatures for %d functions", len(pm.Functions))
	if bag.Fatal() {
		return reportAndExit(bag)
	}

	ir.AnalyseProgram(prog, global, pm, bag)
	diag.Trace(opt.TraceAnalysis, "AST analysis complete")
	if bag.Fatal() {
		return reportAndExit(bag)
	}

	graphs := buildGraphs(prog, opt, bag)
	if opt.Verbose {
		prog.Print(0)
		for _, g := range graphs {
			fmt.Printf("--- %s: %d blocks\n", g.Function, len(g.Blocks))
		}
	}

	return reportAndExit(bag)
}

// buildGraphs constructs and runs liveness over one control-flow graph per function/routine
// and per class method, single-threaded and synchronous throughout: there is no suspension,
// no cooperative yielding, and no shared-memory concurrency inside the compiler core.
func buildGraphs(prog *ir.Node, opt util.Options, bag *diag.Bag) []*cfg.ControlFlowGraph {
	var graphs []*cfg.ControlFlowGraph
	for _, decl := range prog.Children {
		switch decl.Kind {
		case ir.FunctionDeclaration, ir.RoutineDeclaration:
			graphs = append(graphs, buildOneGraph(decl.Name, decl, opt, bag))
		case ir.ClassDeclaration:
			for _, m := range decl.Children {
				if m.Kind == ir.FunctionDeclaration || m.Kind == ir.RoutineDeclaration {
					qualified := decl.Name + "::" + m.Name
					graphs = append(graphs, buildOneGraph(qualified, m, opt, bag))
				}
			}
		}
	}
	return graphs
}

func buildOneGraph(name string, decl *ir.Node, opt util.Options, bag *diag.Bag) *cfg.ControlFlowGraph {
	body := functionBodyStatements(decl)
	g := cfg.Build(name, body)
	diag.Trace(opt.TraceCFG, "%s: built %d basic blocks", name, len(g.Blocks))
	res := cfg.ComputeLiveness(g)
	diag.Trace(opt.TraceLiveness, "%s: liveness converged over %d blocks", name, len(res.In))
	return g
}

// functionBodyStatements recovers the statement list a FunctionDeclaration/RoutineDeclaration
// carries: a routine's body is a single statement, while a function's VALOF/FVALOF body is
// already a statement list, and a plain expression body (e.g. `LET f(x) = x + 1`) is treated
// as its own one-statement body via an implicit RESULTIS.
func functionBodyStatements(decl *ir.Node) []*ir.Node {
	if len(decl.Children) == 0 {
		return nil
	}
	body := decl.Children[0]
	if decl.Kind == ir.RoutineDeclaration {
		return []*ir.Node{body}
	}
	switch body.Kind {
	case ir.ValofExpression, ir.FloatValofExpression:
		return body.Children
	default:
		return []*ir.Node{{Kind: ir.ResultisStatement, Line: body.Line, Col: body.Col, Children: []*ir.Node{body}}}
	}
}

// printTokenStream lexes src and prints every token, matching the -ts diagnostic
// flag (src/frontend/tree.go originally called frontend.TokenStream for this).
func printTokenStream(src string, bag *diag.Bag) {
	lex := frontend.NewLexer(src, bag)
	for {
		tok := lex.NextToken()
		fmt.Println(tok.String())
		if tok.Kind == frontend.EOF {
			break
		}
	}
}

// runtimeManifest mirrors the JSON shape of a runtime import manifest file.
type runtimeManifest struct {
	Functions []rtimport.Descriptor `json:"functions"`
}

// importRuntime loads path as a JSON runtime manifest and registers every descriptor into
// global, all-or-nothing.
func importRuntime(path string, global *ir.SymTab) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var manifest runtimeManifest
	if err := json.Unmarshal(b, &manifest); err != nil {
		return 0, err
	}
	return rtimport.Import(manifest.Functions, global)
}

// reportAndExit prints every accumulated diagnostic and returns an error if any are fatal.
func reportAndExit(bag *diag.Bag) error {
	for _, d := range bag.All() {
		fmt.Println(d.String())
	}
	if bag.Fatal() {
		return fmt.Errorf("compilation failed with %d diagnostic(s)", bag.Len())
	}
	return nil
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	if len(opt.Out) > 0 {
		f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()
		util.ListenWrite(opt, f, &wg)
	} else {
		util.ListenWrite(opt, nil, &wg)
	}
	defer util.Close()

	if err := run(opt); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}
