// file: internal/provider/validator.go
// version: 1.0.0
// guid: 8d2e4f6a-0b1c-4d3e-9f5a-7b8c1d2e4f6a

package provider

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValidationResult is the outcome of evaluating one rule against one value.
// ParsedValue is set only when Valid: the original string for enum/regex/
// string rules, a float64 for number/int rules.
type ValidationResult struct {
	Valid       bool
	ParsedValue any
	Error       string
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Error: msg}
}

func validValue(v any) ValidationResult {
	return ValidationResult{Valid: true, ParsedValue: v}
}

// Validate evaluates a single rule against a raw string value. It is pure
// and stateless: no trimming, no normalization, callers get back exactly
// what was validated. A malformed rule (unknown tag, missing payload, bad
// pattern) is itself a validation failure, never a panic.
func Validate(value string, rule ValidationRule) ValidationResult {
	switch rule.Type {
	case "enum":
		return validateEnum(value, rule)
	case "regex":
		return validateRegex(value, rule)
	case "number":
		return validateNumber(value, rule, false)
	case "int":
		return validateNumber(value, rule, true)
	case "string":
		return validateString(value, rule)
	default:
		return invalid("Unknown validation type")
	}
}

func validateEnum(value string, rule ValidationRule) ValidationResult {
	if len(rule.Values) == 0 {
		return invalid("Enum values not defined")
	}
	for _, v := range rule.Values {
		if v == value {
			return validValue(value)
		}
	}
	return invalid("Value must be one of: " + strings.Join(rule.Values, ", "))
}

func validateRegex(value string, rule ValidationRule) ValidationResult {
	if rule.Pattern == "" {
		return invalid("Regex pattern not defined")
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return invalid("Invalid regex pattern")
	}
	// The rule author controls anchoring through the pattern itself.
	if re.MatchString(value) {
		return validValue(value)
	}
	return invalid("Value does not match pattern: " + rule.Pattern)
}

func validateNumber(value string, rule ValidationRule, intOnly bool) ValidationResult {
	// ParseFloat also accepts "NaN", "Inf" and hex floats like "0x1p4";
	// only plain base-10 numbers are valid parameter values.
	num, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) || strings.ContainsAny(value, "xX") {
		return invalid("Value must be a number")
	}
	if intOnly && num != math.Trunc(num) {
		return invalid("Value must be an integer")
	}
	if rule.Min != nil && num < *rule.Min {
		return invalid(fmt.Sprintf("Value must be at least %s", formatBound(*rule.Min)))
	}
	if rule.Max != nil && num > *rule.Max {
		return invalid(fmt.Sprintf("Value must be at most %s", formatBound(*rule.Max)))
	}
	return validValue(num)
}

func validateString(value string, rule ValidationRule) ValidationResult {
	if rule.Min != nil && len(value) < int(*rule.Min) {
		return invalid(fmt.Sprintf("Value must be at least %s characters", formatBound(*rule.Min)))
	}
	if rule.Max != nil && len(value) > int(*rule.Max) {
		return invalid(fmt.Sprintf("Value must be at most %s characters", formatBound(*rule.Max)))
	}
	return validValue(value)
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
