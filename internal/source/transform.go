// =============================================================================
// Order Reports - Value Transformations
// =============================================================================
//
// Exports from different shops spell the same thing differently: trailing
// spaces in producer names, upper-case payment methods, hub codes instead of
// hub names. Profiles clean these up with transformation rules that run on
// the raw value of a field before it is parsed.
//
// =============================================================================

package source

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/order-reports/internal/config"
)

// Transformer applies profile transformation rules by canonical field.
type Transformer struct {
	rules map[string][]config.TransformationAction
	title cases.Caser
}

// NewTransformer indexes rules by field and rejects unknown action types.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules: make(map[string][]config.TransformationAction),
		title: cases.Title(language.Und),
	}
	for _, rule := range rules {
		for _, action := range rule.Actions {
			if !knownAction(action.Type) {
				return nil, fmt.Errorf("field %s: unknown transformation type: %s", rule.Field, action.Type)
			}
		}
		t.rules[rule.Field] = append(t.rules[rule.Field], rule.Actions...)
	}
	return t, nil
}

// Transform applies every action configured for field, in order.
func (t *Transformer) Transform(field, value string) string {
	for _, action := range t.rules[field] {
		value = t.apply(value, action)
	}
	return value
}

func (t *Transformer) apply(value string, action config.TransformationAction) string {
	switch action.Type {
	case "trim":
		return strings.TrimSpace(value)
	case "uppercase":
		return strings.ToUpper(value)
	case "lowercase":
		return strings.ToLower(value)
	case "title":
		return t.title.String(value)
	case "prepend_string":
		return action.Value + value
	case "append_string":
		return value + action.Value
	case "replace":
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)
	case "lookup":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement
		}
		return value
	case "default":
		if strings.TrimSpace(value) == "" {
			return action.Value
		}
		return value
	}
	return value
}

func knownAction(actionType string) bool {
	switch actionType {
	case "trim", "uppercase", "lowercase", "title", "prepend_string",
		"append_string", "replace", "lookup", "default":
		return true
	}
	return false
}
