package template

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
)

var pathTokenPattern = regexp.MustCompile(`[^.\[\]]+|\[\d+\]`)

// Preview renders a stored input value against sample data shaped like
// {"nodes": {...}, "runtime": {...}}. A value that is a single expression keeps the type of the
// resolved value; mixed text is rendered as a string and then coerced the way rendered templates
// are: JSON objects and arrays, numbers and booleans are parsed back.
func Preview(value any, sample map[string]any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}

	data, err := normalizeSample(sample)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(s)
	if loc := embeddedPattern.FindStringIndex(trimmed); loc != nil && loc[0] == 0 && loc[1] == len(trimmed) {
		return resolve(embeddedPattern.FindStringSubmatch(trimmed)[1], data)
	}

	var renderErr error

	rendered := embeddedPattern.ReplaceAllStringFunc(s, func(expr string) string {
		resolved, err := resolve(embeddedPattern.FindStringSubmatch(expr)[1], data)
		if err != nil {
			renderErr = errors.Join(renderErr, err)

			return expr
		}

		return stringify(resolved)
	})
	if renderErr != nil {
		return rendered, renderErr
	}

	return coerce(rendered)
}

// resolve evaluates a dotted/bracket path like nodes.n1.items[0].name against the sample.
func resolve(path string, data any) (any, error) {
	query, err := gojq.Parse(pathQuery(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference '%s': %w", path, err)
	}

	iter := query.Run(data)

	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}

	if err, ok := v.(error); ok {
		return nil, fmt.Errorf("failed to resolve reference '%s': %w", path, err)
	}

	return v, nil
}

// pathQuery turns a reference path into a jq path with every key quoted, so node ids containing
// dashes are addressed literally.
func pathQuery(path string) string {
	var b strings.Builder

	b.WriteString(".")

	for _, token := range pathTokenPattern.FindAllString(path, -1) {
		if strings.HasPrefix(token, "[") {
			b.WriteString(token)

			continue
		}

		b.WriteString("[")
		b.WriteString(strconv.Quote(token))
		b.WriteString("]")
	}

	return b.String()
}

// normalizeSample converts arbitrary Go values into the plain JSON shapes gojq understands.
func normalizeSample(sample map[string]any) (any, error) {
	if sample == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview sample: %w", err)
	}

	var data any

	err = json.Unmarshal(raw, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preview sample: %w", err)
	}

	return data, nil
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case map[string]any, []any:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(raw)
	default:
		return fmt.Sprint(value)
	}
}

func coerce(rendered string) (any, error) {
	result := strings.TrimSpace(rendered)

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}

		return rendered, nil
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return rendered, nil
}
