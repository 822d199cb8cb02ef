package wiring

import (
	"strings"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/template"
	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// RawConfig returns the pending configuration as indented JSON for raw editing.
func (s *Session) RawConfig() ([]byte, error) {
	return json.MarshalIndent(s.formValues, "", "  ")
}

// ApplyRawJSON replaces the pending configuration with a raw JSON object. The object must
// satisfy the action's input schema; inputs holding a reference template are exempt from type
// checks. Values given for wired inputs replace their wires. On any error nothing is changed.
func (s *Session) ApplyRawJSON(raw []byte) error {
	const op = "ApplyRawJSON"

	var values map[string]any

	if err := json.Unmarshal(raw, &values); err != nil {
		return newInputError(op, s.nodeID, "configuration is not a JSON object", nil, err)
	}

	if values == nil {
		values = make(map[string]any)
	}

	if fields := s.validateRaw(values); len(fields) > 0 {
		return newInputError(op, s.nodeID, "configuration does not match the action inputs", fields, nil)
	}

	for _, input := range s.inputs() {
		value, present := values[input.Name]

		switch {
		case present:
			s.cancelDrag(input.Name)
			s.removeWire(input.Name)
			delete(s.choosing, input.Name)

			if template.IsReference(value) {
				s.modes[input.Name] = ModeReference
			} else {
				s.modes[input.Name] = ModeLiteral
			}
		case s.modes[input.Name] != ModeWire:
			s.modes[input.Name] = ModeLiteral
		}
	}

	s.formValues = values

	return nil
}

func (s *Session) validateRaw(values map[string]any) map[string]string {
	fields := make(map[string]string)

	skip := func(name string) bool {
		if flow.IsControlInputName(name) {
			return true
		}

		value, present := values[name]
		if !present {
			return s.modes[name] == ModeWire && s.wire(name) != nil
		}

		return template.IsReference(value)
	}

	schema := models.InputSchema(s.action, skip)

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(values))
	if err != nil {
		fields["(root)"] = err.Error()

		return fields
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if name, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			field = name
		}

		fields[field] = desc.Description()
	}

	for _, input := range s.action.EffectiveInputs() {
		if !strings.EqualFold(input.Type, "cron") || skip(input.Name) {
			continue
		}

		if expr, ok := values[input.Name].(string); ok && !ValidCron(expr) {
			fields[input.Name] = "invalid cron expression"
		}
	}

	return fields
}
