package checkers

import (
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

var validate = validator.New()

var (
	integerPattern   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	alphaDashPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	booleanValues    = []string{"true", "false", "1", "0", "yes", "no", "on", "off"}
)

// Builtins returns the built-in checker definitions.
func Builtins() []Definition {
	return []Definition{
		{
			Name:    "required",
			Message: "{{ label }} is required",
			New: constant(func(value string) bool {
				return strings.TrimSpace(value) != ""
			}),
		},
		{Name: "email", Message: "{{ label }} must be a valid email address", New: tag("email")},
		{Name: "url", Message: "{{ label }} must be a valid URL", New: tag("url")},
		{Name: "numeric", Message: "{{ label }} must be a number", New: tag("numeric")},
		{Name: "alpha", Message: "{{ label }} may only contain letters", New: tag("alpha")},
		{Name: "alpha_num", Message: "{{ label }} may only contain letters and numbers", New: tag("alphanum")},
		{
			Name:    "alpha_dash",
			Message: "{{ label }} may only contain letters, numbers, dashes and underscores",
			New:     constant(alphaDashPattern.MatchString),
		},
		{Name: "integer", Message: "{{ label }} must be an integer", New: constant(integerPattern.MatchString)},
		{
			Name:    "boolean",
			Message: "{{ label }} must be true or false",
			New: constant(func(value string) bool {
				return slices.Contains(booleanValues, strings.ToLower(strings.TrimSpace(value)))
			}),
		},
		{Name: "min", Message: "{{ label }} must be at least :param characters", NeedsParam: true, New: lengthTag("min")},
		{Name: "max", Message: "{{ label }} may not be longer than :param characters", NeedsParam: true, New: lengthTag("max")},
		{Name: "size", Message: "{{ label }} must be :param characters", NeedsParam: true, New: lengthTag("len")},
		{
			Name:       "between",
			Message:    "{{ label }} must be between :param characters",
			NeedsParam: true,
			New:        between,
			Display: func(param string) string {
				return strings.Join(splitList(param), " and ")
			},
		},
		{Name: "in", Message: "{{ label }} must be one of :param", NeedsParam: true, New: membership(true)},
		{Name: "not_in", Message: "{{ label }} must not be one of :param", NeedsParam: true, New: membership(false)},
		{
			Name:       "regex",
			Message:    "{{ label }} format is invalid",
			NeedsParam: true,
			New: func(param string) (formstate.Checker, error) {
				return formstate.CompilePattern(param)
			},
		},
		{Name: "gt", Message: "{{ label }} must be greater than :param", NeedsParam: true, New: compare("gt", func(v, t float64) bool { return v > t })},
		{Name: "gte", Message: "{{ label }} must be at least :param", NeedsParam: true, New: compare("gte", func(v, t float64) bool { return v >= t })},
		{Name: "lt", Message: "{{ label }} must be less than :param", NeedsParam: true, New: compare("lt", func(v, t float64) bool { return v < t })},
		{Name: "lte", Message: "{{ label }} may not be greater than :param", NeedsParam: true, New: compare("lte", func(v, t float64) bool { return v <= t })},
	}
}

func constant(fn func(string) bool) Factory {
	return func(string) (formstate.Checker, error) {
		return formstate.CheckerFunc(fn), nil
	}
}

// tag delegates to a validator tag that takes no parameter.
func tag(name string) Factory {
	return func(string) (formstate.Checker, error) {
		return varChecker(name), nil
	}
}

// lengthTag delegates to a validator length tag. For strings the validator
// counts runes.
func lengthTag(name string) Factory {
	return func(param string) (formstate.Checker, error) {
		n, err := parseLength(name, param)
		if err != nil {
			return nil, err
		}
		return varChecker(name + "=" + strconv.Itoa(n)), nil
	}
}

func between(param string) (formstate.Checker, error) {
	parts := splitList(param)
	if len(parts) != 2 {
		return nil, paramError("between", param, errors.New("expected min,max"))
	}
	lo, err := parseLength("between", parts[0])
	if err != nil {
		return nil, err
	}
	hi, err := parseLength("between", parts[1])
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, paramError("between", param, errors.New("min is greater than max"))
	}
	return varChecker("min=" + strconv.Itoa(lo) + ",max=" + strconv.Itoa(hi)), nil
}

func membership(want bool) Factory {
	return func(param string) (formstate.Checker, error) {
		items := splitList(param)
		if len(items) == 0 {
			return nil, paramError("in", param, errors.New("list is empty"))
		}
		return formstate.CheckerFunc(func(value string) bool {
			return slices.Contains(items, strings.TrimSpace(value)) == want
		}), nil
	}
}

func compare(name string, cmp func(value, threshold float64) bool) Factory {
	return func(param string) (formstate.Checker, error) {
		threshold, err := strconv.ParseFloat(strings.TrimSpace(param), 64)
		if err != nil {
			return nil, paramError(name, param, err)
		}
		return formstate.CheckerFunc(func(value string) bool {
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return false
			}
			return cmp(v, threshold)
		}), nil
	}
}

func varChecker(tag string) formstate.CheckerFunc {
	return func(value string) bool {
		return validate.Var(value, tag) == nil
	}
}

func parseLength(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, paramError(name, raw, err)
	}
	if n < 0 {
		return 0, paramError(name, raw, errors.New("must not be negative"))
	}
	return n, nil
}

// OneOf passes values equal to one of values after trimming. Unlike the
// "in" spec it takes the list as is, so members may contain commas or be
// empty.
func OneOf(values []string) formstate.Checker {
	items := slices.Clone(values)
	return formstate.CheckerFunc(func(value string) bool {
		return slices.Contains(items, strings.TrimSpace(value))
	})
}

// Optional passes blank values and defers everything else to checker.
func Optional(checker formstate.Checker) formstate.Checker {
	return formstate.CheckerFunc(func(value string) bool {
		if strings.TrimSpace(value) == "" {
			return true
		}
		return checker.Check(value)
	})
}
