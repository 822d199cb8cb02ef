package template

import (
	"slices"
	"strings"
)

// Fixed runtime fields with dedicated templates.
const (
	RuntimeChatID       = "chat_id"
	RuntimeMessageID    = "message_id"
	RuntimeThreadID     = "thread_id"
	RuntimeUserID       = "user_id"
	RuntimeUsername     = "username"
	RuntimeCallbackData = "callback_data"
)

var runtimeFields = []string{
	RuntimeChatID,
	RuntimeMessageID,
	RuntimeThreadID,
	RuntimeUserID,
	RuntimeUsername,
	RuntimeCallbackData,
}

// RuntimeFields returns the fixed runtime fields in display order.
func RuntimeFields() []string {
	return slices.Clone(runtimeFields)
}

// BuildRuntimeField builds {{ runtime.<field> }} for a fixed runtime field.
func BuildRuntimeField(field string) (string, bool) {
	if !slices.Contains(runtimeFields, field) {
		return "", false
	}

	return "{{ runtime." + field + " }}", true
}

// DefaultForInput returns the runtime-field template used as the default value of an input whose
// name matches a fixed runtime field.
func DefaultForInput(inputName string) (string, bool) {
	return BuildRuntimeField(strings.TrimSpace(inputName))
}

// parseRuntimeField recognises a fixed-field template. It is only used to classify values;
// fixed fields never round-trip into the variable picker.
func parseRuntimeField(value string) (string, bool) {
	m := runtimeFieldPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil || !slices.Contains(runtimeFields, m[1]) {
		return "", false
	}

	return m[1], true
}
