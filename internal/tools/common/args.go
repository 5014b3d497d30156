package common

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeArgs decodes model-supplied arguments into out, a pointer to a
// struct with json tags. Scalars are converted loosely ("30" decodes into an
// int) and a comma-separated string decodes into a []string. Unknown keys are
// ignored.
func DecodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       splitCommaList,
	})
	if err != nil {
		return fmt.Errorf("failed to create argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// splitCommaList turns "a, b" into []string{"a", "b"} for slice targets.
func splitCommaList(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(reflect.ValueOf(data).String())
	if raw == "" {
		return []string{}, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// StringArg returns args[key] as a trimmed string, or "" when absent.
func StringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
