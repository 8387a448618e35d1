package formstate

import (
	"reflect"
	"regexp"

	"github.com/goliatone/go-formvalidator/pkg/formerrors"
)

// Checker decides whether a field value passes one rule.
type Checker interface {
	Check(value string) bool
}

// CheckerFunc adapts a predicate into a Checker.
type CheckerFunc func(value string) bool

// Check calls the underlying predicate.
func (fn CheckerFunc) Check(value string) bool {
	return fn(value)
}

// PatternChecker passes values matched by a regular expression.
type PatternChecker struct {
	re *regexp.Regexp
}

// Pattern wraps a compiled expression. A nil expression yields a nil
// checker, which Register rejects.
func Pattern(re *regexp.Regexp) *PatternChecker {
	if re == nil {
		return nil
	}
	return &PatternChecker{re: re}
}

// CompilePattern compiles expr into a PatternChecker.
func CompilePattern(expr string) (*PatternChecker, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, formerrors.InvalidArgument("formstate.pattern", expr, "%v", err)
	}
	return &PatternChecker{re: re}, nil
}

// Check reports whether the pattern matches anywhere in value.
func (p *PatternChecker) Check(value string) bool {
	return p.re.MatchString(value)
}

// String returns the source expression.
func (p *PatternChecker) String() string {
	return p.re.String()
}

// Rule pairs a checker with the message shown when it fails.
type Rule struct {
	Checker Checker
	Message string
}

func validChecker(checker Checker) bool {
	switch c := checker.(type) {
	case nil:
		return false
	case CheckerFunc:
		return c != nil
	case *PatternChecker:
		return c != nil && c.re != nil
	default:
		// custom implementations are accepted unless they wrap a nil value
		v := reflect.ValueOf(checker)
		switch v.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
			return !v.IsNil()
		}
		return true
	}
}
