package registry

import (
	"github.com/dukex/botflow/pkg/models"
)

func flowOutput(name string) models.ActionOutput {
	return models.ActionOutput{Name: name, Type: models.OutputTypeFlow}
}

// BuiltinActions returns the actions every catalog starts with.
func BuiltinActions() []*models.ActionDefinition {
	return []*models.ActionDefinition{
		{
			ID:          "command_trigger",
			Name:        "Command",
			Description: "Starts the workflow when a bot command is received",
			Inputs: []models.ActionInput{
				{Name: "command", Type: "string", Required: true, Description: "Command without the leading slash"},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
				{Name: "chat_id", Type: "string"},
				{Name: "user_id", Type: "string"},
				{Name: "username", Type: "string"},
				{Name: "args", Type: "array"},
			},
		},
		{
			ID:          "button_trigger",
			Name:        "Button press",
			Description: "Starts the workflow when an inline button is pressed",
			Inputs: []models.ActionInput{
				{Name: "callback_data", Type: "string", Required: true},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
				{Name: "chat_id", Type: "string"},
				{Name: "message_id", Type: "string"},
				{Name: "callback_data", Type: "string"},
			},
		},
		{
			ID:          "send_message",
			Name:        "Send message",
			Description: "Sends a text message to a chat",
			Inputs: []models.ActionInput{
				{Name: "chat_id", Type: "string", Required: true},
				{Name: "text", Type: "text", Required: true},
				{Name: "parse_mode", Type: "string", Enum: []any{"plain", "markdown", "html"}, Default: "plain"},
				{Name: "silent", Type: "boolean"},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
				{Name: "message_id", Type: "string"},
			},
		},
		{
			ID:          "condition",
			Name:        "Condition",
			Description: "Routes the flow by comparing two values",
			Inputs: []models.ActionInput{
				{Name: "left", Type: "string", Required: true},
				{Name: "operator", Type: "string", Options: []any{"eq", "ne", "gt", "lt", "contains"}, Default: "eq"},
				{Name: "right", Type: "string"},
			},
			Outputs: []models.ActionOutput{
				flowOutput("true"),
				flowOutput("false"),
			},
		},
		{
			ID:          "try_catch",
			Name:        "Try / catch",
			Description: "Runs the try branch and falls back to catch on failure",
			Outputs: []models.ActionOutput{
				flowOutput("try"),
				flowOutput("catch"),
				{Name: "error", Type: "string"},
			},
		},
		{
			ID:          "set_variable",
			Name:        "Set variable",
			Description: "Stores a value in a runtime variable",
			Inputs: []models.ActionInput{
				{Name: "name", Type: "string", Required: true},
				{Name: "value", Type: "any"},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
				{Name: "value", Type: "any"},
			},
		},
		{
			ID:          "http_request",
			Name:        "HTTP request",
			Description: "Performs an HTTP request",
			Inputs: []models.ActionInput{
				{Name: "url", Type: "string", Required: true},
				{Name: "method", Type: "string", Enum: []any{"GET", "POST", "PUT", "PATCH", "DELETE"}, Default: "GET"},
				{Name: "headers", Type: "object"},
				{Name: "body", Type: "string"},
				{Name: "timeout", Type: "number", Default: 30},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
				{Name: "status", Type: "number"},
				{Name: "body", Type: "object"},
				{Name: "headers", Type: "object"},
			},
		},
		{
			ID:          "wait",
			Name:        "Wait",
			Description: "Pauses the flow",
			Kind:        models.ActionKindLocal,
			Parameters: []models.ActionInput{
				{Name: "seconds", Type: "number", Required: true, Default: 1},
			},
		},
		{
			ID:          "schedule",
			Name:        "Schedule",
			Description: "Starts the workflow on a cron schedule",
			Inputs: []models.ActionInput{
				{Name: "cron", Type: "cron", Required: true, Default: "@hourly"},
				{Name: "chat_id", Type: "string"},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
				{Name: "fired_at", Type: "string"},
			},
		},
		{
			ID:          "run_workflow",
			Name:        "Run workflow",
			Description: "Runs another workflow and exposes the outputs of its terminal nodes",
			Kind:        models.ActionKindSubworkflow,
			Inputs: []models.ActionInput{
				{Name: "workflow_id", Type: "string", Required: true, OptionsSource: "workflows"},
			},
			Outputs: []models.ActionOutput{
				flowOutput("next"),
			},
		},
	}
}

// RegisterDefaultActions registers all built-in action definitions.
func (r *Registry) RegisterDefaultActions() {
	for _, action := range BuiltinActions() {
		if err := r.Register(action); err != nil {
			panic(err)
		}
	}
}
