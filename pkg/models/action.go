package models

// ActionKind distinguishes how an action exposes its inputs and outputs.
type ActionKind string

const (
	ActionKindModular     ActionKind = "modular"     // Explicit inputs and outputs
	ActionKindLocal       ActionKind = "local"       // Parameter list, implicit single input/output
	ActionKindSubworkflow ActionKind = "subworkflow" // Outputs derived from a referenced workflow
)

// OutputTypeFlow marks an action output as a control-flow continuation.
const OutputTypeFlow = "flow"

// LocalResultOutput is the implicit data output of a local action.
const LocalResultOutput = "result"

// ActionDefinition is the catalog's read-only description of an action.
type ActionDefinition struct {
	ID          string         `json:"id"                    yaml:"id"                    validate:"required"`
	Name        string         `json:"name"                  yaml:"name"                  validate:"required"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        ActionKind     `json:"kind,omitempty"        yaml:"kind,omitempty"        validate:"omitempty,oneof=modular local subworkflow"`
	Inputs      []ActionInput  `json:"inputs,omitempty"      yaml:"inputs,omitempty"      validate:"dive"`
	Outputs     []ActionOutput `json:"outputs,omitempty"     yaml:"outputs,omitempty"     validate:"dive"`
	Parameters  []ActionInput  `json:"parameters,omitempty"  yaml:"parameters,omitempty"  validate:"dive"`
}

// ActionInput describes one configurable input of an action.
type ActionInput struct {
	Name          string `json:"name"                     yaml:"name"                     validate:"required"`
	Type          string `json:"type"                     yaml:"type"`
	Description   string `json:"description,omitempty"    yaml:"description,omitempty"`
	Required      bool   `json:"required,omitempty"       yaml:"required,omitempty"`
	Default       any    `json:"default,omitempty"        yaml:"default,omitempty"`
	Options       []any  `json:"options,omitempty"        yaml:"options,omitempty"`
	OptionsSource string `json:"options_source,omitempty" yaml:"options_source,omitempty"`
	Enum          []any  `json:"enum,omitempty"           yaml:"enum,omitempty"`
}

// ActionOutput describes one output of an action.
type ActionOutput struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Type string `json:"type" yaml:"type"`
}

// IsFlow reports whether the output is a control-flow continuation.
func (o ActionOutput) IsFlow() bool {
	return o.Type == OutputTypeFlow
}

// HasDefault reports whether the input declares a default value.
func (i ActionInput) HasDefault() bool {
	return i.Default != nil
}

// Choices returns the closed value set of the input: its enum, falling back to its options.
func (i ActionInput) Choices() []any {
	if len(i.Enum) > 0 {
		return i.Enum
	}

	return i.Options
}

// EffectiveInputs returns the inputs a node of this action can be configured with. Local
// actions declare a parameter list instead of inputs.
func (a *ActionDefinition) EffectiveInputs() []ActionInput {
	if a.Kind == ActionKindLocal && len(a.Inputs) == 0 {
		return a.Parameters
	}

	return a.Inputs
}

// Input looks up an input by name.
func (a *ActionDefinition) Input(name string) (ActionInput, bool) {
	for _, in := range a.EffectiveInputs() {
		if in.Name == name {
			return in, true
		}
	}

	return ActionInput{}, false
}

// DataOutputs returns the declared non-flow outputs in declaration order. Local actions without
// declared outputs expose a single implicit result output.
func (a *ActionDefinition) DataOutputs() []ActionOutput {
	outputs := make([]ActionOutput, 0, len(a.Outputs))

	for _, out := range a.Outputs {
		if !out.IsFlow() {
			outputs = append(outputs, out)
		}
	}

	if a.Kind == ActionKindLocal && len(a.Outputs) == 0 {
		outputs = append(outputs, ActionOutput{Name: LocalResultOutput, Type: "any"})
	}

	return outputs
}
