// Package rtimport ingests the external runtime's function manifest and registers its
// entries into the "Global" symbol scope. Grounded on
// original_source/RuntimeImporter.cpp/.h: import_all_runtime_functions's all-or-nothing
// loop (register every descriptor, reject the whole manifest if one is malformed or a
// duplicate) and its (function_type, return_type) -> SymbolKind derivation in
// convert_to_symbol_kind.
package rtimport

import (
	"fmt"

	"bcplfe/src/ir"
)

// FunctionType mirrors original_source's RuntimeFunctionType calling-convention tag.
type FunctionType int

const (
	Standard FunctionType = iota
	Float
	Routine
	FloatRoutine
)

// ReturnType mirrors original_source's RuntimeReturnType.
type ReturnType int

const (
	RInteger ReturnType = iota
	RFloat
	RStringList
	RIntVector
	RFloatVector
	RString
	RVoid
)

// Descriptor is one runtime manifest entry.
type Descriptor struct {
	VeneerName    string
	LinkerSymbol  string
	ArgCount      int
	FunctionType  FunctionType
	ReturnType    ReturnType
	Description   string
	Category      string
}

// valid reports whether d passes the integrity check the core applies before registration.
func (d Descriptor) valid() error {
	if d.VeneerName == "" {
		return fmt.Errorf("runtime descriptor missing veneer_name (linker_symbol=%q)", d.LinkerSymbol)
	}
	if d.LinkerSymbol == "" {
		return fmt.Errorf("runtime descriptor %q missing linker_symbol", d.VeneerName)
	}
	if d.ArgCount < 0 {
		return fmt.Errorf("runtime descriptor %q has negative arg_count", d.VeneerName)
	}
	return nil
}

// symbolKind derives a SymbolKind from (FunctionType, ReturnType), mirroring
// convert_to_symbol_kind in original_source/RuntimeImporter.cpp.
func symbolKind(ft FunctionType, rt ReturnType) ir.SymbolKind {
	switch {
	case rt == RStringList:
		return ir.RUNTIME_LIST_FUNCTION
	case ft == FloatRoutine:
		return ir.RUNTIME_FLOAT_ROUTINE
	case ft == Routine:
		return ir.RUNTIME_ROUTINE
	case ft == Float:
		return ir.RUNTIME_FLOAT_FUNCTION
	default:
		return ir.RUNTIME_FUNCTION
	}
}

// varType derives the symbol's VarType from its ReturnType.
func varType(rt ReturnType) ir.VarType {
	switch rt {
	case RFloat:
		return ir.FLOAT
	case RStringList:
		return ir.LIST
	case RIntVector:
		return ir.POINTER_TO_INT_VEC
	case RFloatVector:
		return ir.POINTER_TO_FLOAT_VEC
	case RString:
		return ir.STRING
	case RVoid:
		return ir.UNKNOWN
	default:
		return ir.INTEGER
	}
}

// Import validates every descriptor in manifest and then registers them all into global,
// all-or-nothing. On success it returns the number of symbols registered; on the first
// invalid descriptor, or one whose name is already a Global symbol or repeats an earlier
// descriptor, it returns an error and registers nothing, so a rejected manifest never
// leaves a partial, silently-incomplete runtime surface behind.
func Import(manifest []Descriptor, global *ir.SymTab) (int, error) {
	seen := make(map[string]bool, len(manifest))
	for _, d := range manifest {
		if err := d.valid(); err != nil {
			return 0, fmt.Errorf("runtime manifest integrity check failed: %w", err)
		}
		if _, exists := global.Get(d.VeneerName); exists || seen[d.VeneerName] {
			return 0, fmt.Errorf("runtime function %q duplicates an existing Global symbol", d.VeneerName)
		}
		seen[d.VeneerName] = true
	}
	for _, d := range manifest {
		global.Put(&ir.Symbol{
			Name:           d.VeneerName,
			Kind:           symbolKind(d.FunctionType, d.ReturnType),
			Type:           varType(d.ReturnType),
			OwningFunction: ir.GlobalScope,
			Parameters:     placeholderParams(d.ArgCount),
		})
	}
	return len(manifest), nil
}

// placeholderParams returns n anonymous parameter names, since the manifest only carries
// an argument count, not names.
func placeholderParams(n int) []string {
	if n <= 0 {
		return nil
	}
	params := make([]string, n)
	for i := range params {
		params[i] = fmt.Sprintf("_arg%d", i)
	}
	return params
}
