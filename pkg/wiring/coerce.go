package wiring

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/template"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidCron reports whether expr is a standard five-field cron expression or a descriptor such
// as @daily.
func ValidCron(expr string) bool {
	_, err := cronParser.Parse(strings.TrimSpace(expr))

	return err == nil
}

// CoerceLiteral converts value to the input's declared type when the input switches to literal
// mode. Reference templates are not literals and are replaced like any other invalid value.
func CoerceLiteral(input models.ActionInput, value any) any {
	if template.IsReference(value) {
		value = nil
	}

	if choices := input.Choices(); len(choices) > 0 {
		if value != nil && containsValue(choices, value) {
			return value
		}

		if input.HasDefault() {
			return input.Default
		}

		return choices[0]
	}

	switch strings.ToLower(input.Type) {
	case "boolean", "bool":
		switch v := value.(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}

		if b, ok := input.Default.(bool); ok {
			return b
		}

		return false
	case "number", "integer", "int", "float":
		if n, ok := toNumber(value); ok {
			return n
		}

		if input.HasDefault() {
			return input.Default
		}

		return nil
	case "cron":
		if s, ok := value.(string); ok && ValidCron(s) {
			return s
		}

		if input.HasDefault() {
			return input.Default
		}

		return ""
	default:
		if value == nil && input.HasDefault() {
			return input.Default
		}

		return value
	}
}

func toNumber(value any) (any, bool) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}

		return f, true
	default:
		return nil, false
	}
}

func containsValue(choices []any, value any) bool {
	return slices.ContainsFunc(choices, func(choice any) bool {
		if a, ok := toFloat(choice); ok {
			b, ok := toFloat(value)

			return ok && a == b
		}

		return reflect.DeepEqual(choice, value)
	})
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// NewNode creates a node for an action with every input preset: declared defaults first, then
// runtime-field templates for inputs named after a fixed runtime field.
func NewNode(id string, action *models.ActionDefinition, position models.Position) *models.Node {
	node := &models.Node{
		ID:       id,
		ActionID: action.ID,
		Position: position,
		Data:     make(map[string]any),
	}

	for _, input := range action.EffectiveInputs() {
		if flow.IsControlInputName(input.Name) {
			continue
		}

		if input.HasDefault() {
			node.Data[input.Name] = input.Default

			continue
		}

		if value, ok := template.DefaultForInput(input.Name); ok {
			node.Data[input.Name] = value
		}
	}

	return node
}

// isEmpty reports whether a form value counts as unset for a required input.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
