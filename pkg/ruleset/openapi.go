package ruleset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

var formMediaTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/json",
}

// FromOpenAPI derives a rule set from the request body schema of the
// operation with id operationID. Each constraint becomes a rule type named
// after the checker spec it uses, so fields sharing a constraint share the
// rule type. Constraints on properties outside the schema's required list
// pass blank values and their rule types carry an "optional:" prefix. Enum
// and pattern rule types are per field. The resulting set uses the all-pass
// policy.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string) (*Ruleset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("ruleset: openapi document payload is empty")
	}
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return nil, errors.New("ruleset: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("ruleset: load openapi document: %w", err)
	}

	operation := findOperation(spec, operationID)
	if operation == nil {
		return nil, fmt.Errorf("ruleset: operation %q not found", operationID)
	}
	schema := requestSchema(operation.RequestBody)
	if schema == nil {
		return nil, fmt.Errorf("ruleset: operation %q has no request body schema", operationID)
	}

	rs := New()
	rs.Source = "openapi:" + operationID
	rs.Policy = "all"

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		var types []string
		if required[name] {
			types = append(types, rs.addCheck("required", "required", ""))
		}
		types = append(types, propertyRules(rs, name, ref.Value, !required[name])...)
		if len(types) > 0 {
			rs.Fields[name] = types
		}
	}
	return rs, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec == nil || spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range formMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func propertyRules(rs *Ruleset, name string, schema *openapi3.Schema, optional bool) []string {
	var types []string
	declare := func(typeName string, cfg RuleConfig) {
		if optional {
			typeName = "optional:" + typeName
			cfg.Optional = true
		}
		if _, exists := rs.RuleTypes[typeName]; !exists {
			rs.RuleTypes[typeName] = []RuleConfig{cfg}
		}
		types = append(types, typeName)
	}
	add := func(typeName, spec, message string) {
		declare(typeName, RuleConfig{Check: spec, Message: message})
	}

	switch firstSchemaType(schema.Type) {
	case openapi3.TypeInteger:
		add("integer", "integer", "")
	case openapi3.TypeNumber:
		add("numeric", "numeric", "")
	case openapi3.TypeBoolean:
		add("boolean", "boolean", "")
	}

	switch strings.ToLower(schema.Format) {
	case "email":
		add("email", "email", "")
	case "uri", "url":
		add("url", "url", "")
	}

	if schema.MinLength > 0 {
		spec := "min:" + strconv.FormatUint(schema.MinLength, 10)
		add(spec, spec, "")
	}
	if schema.MaxLength != nil {
		spec := "max:" + strconv.FormatUint(*schema.MaxLength, 10)
		add(spec, spec, "")
	}
	if schema.Min != nil {
		op := "gte"
		if schema.ExclusiveMin {
			op = "gt"
		}
		spec := op + ":" + formatNumber(*schema.Min)
		add(spec, spec, "")
	}
	if schema.Max != nil {
		op := "lte"
		if schema.ExclusiveMax {
			op = "lt"
		}
		spec := op + ":" + formatNumber(*schema.Max)
		add(spec, spec, "")
	}
	if len(schema.Enum) > 0 {
		values := make([]string, 0, len(schema.Enum))
		for _, value := range schema.Enum {
			values = append(values, fmt.Sprint(value))
		}
		declare("in:"+name, RuleConfig{In: values})
	}
	if schema.Pattern != "" {
		declare("pattern:"+name, RuleConfig{Pattern: schema.Pattern, Message: "{{ label }} format is invalid"})
	}
	return types
}

// addCheck declares typeName with a single check the first time it is seen.
func (rs *Ruleset) addCheck(typeName, spec, message string) string {
	if _, exists := rs.RuleTypes[typeName]; !exists {
		rs.RuleTypes[typeName] = []RuleConfig{{Check: spec, Message: message}}
	}
	return typeName
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
