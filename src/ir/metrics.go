// metrics.go defines FunctionMetrics, the per-function summary Pass A/C populate and Pass D
// refines. Grounded on the Symbol type in src/ir/symtab.go, which likewise carries a
// function's Nparams/DataTyp alongside the declaring Node; generalized here into its own
// struct since this pipeline needs more shape than one symbol record conveniently holds
// (per-parameter types, float-ness summary, a flag for whether the body reaches any
// runtime-imported veneer).
package ir

// FunctionMetrics summarizes one function or routine's signature and body, filled in across
// Pass A (skeleton), Pass C (parameter/return types) and Pass D (body-derived flags).
type FunctionMetrics struct {
	Name              string
	IsRoutine         bool
	NumParameters     int
	ParameterTypes    []VarType // Parallel to ParameterIndices/ParameterNames, in declared order.
	ParameterIndices  map[string]int
	ParameterNames    []string
	ReturnType        VarType
	VariableTypes     map[string]VarType // LET-declared local variables of this function's body; parameters are in ParameterTypes.
	HasFloatVars      bool
	CallsRuntime      bool // True if the body calls any RUNTIME_* symbol.
	IsMethod          bool
	OwningClass       string // Non-empty when IsMethod.
	SignatureResolved bool   // Set by Pass C; prevents a later re-run from changing resolved metrics.
}

// NewFunctionMetrics returns an empty metrics record for the named function.
func NewFunctionMetrics(name string) *FunctionMetrics {
	return &FunctionMetrics{
		Name:             name,
		ParameterIndices: make(map[string]int),
		VariableTypes:    make(map[string]VarType),
	}
}

// AddParameter appends a parameter in declaration order, keeping ParameterIndices in sync.
func (m *FunctionMetrics) AddParameter(name string, t VarType) {
	m.ParameterIndices[name] = len(m.ParameterNames)
	m.ParameterNames = append(m.ParameterNames, name)
	m.ParameterTypes = append(m.ParameterTypes, t)
	m.NumParameters++
	if t == FLOAT {
		m.HasFloatVars = true
	}
}

// RecordVariable records a local variable's type, updating HasFloatVars if needed.
func (m *FunctionMetrics) RecordVariable(name string, t VarType) {
	m.VariableTypes[name] = t
	if t == FLOAT {
		m.HasFloatVars = true
	}
}

// ProgramMetrics aggregates every function's metrics, keyed by name, plus the program's
// resolved class table.
type ProgramMetrics struct {
	Functions map[string]*FunctionMetrics
	Classes   *ClassTable
}

// NewProgramMetrics returns an empty ProgramMetrics with an initialized ClassTable.
func NewProgramMetrics() *ProgramMetrics {
	return &ProgramMetrics{
		Functions: make(map[string]*FunctionMetrics),
		Classes:   NewClassTable(),
	}
}
