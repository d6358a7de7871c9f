package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
)

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Required rejects blank values.
func Required(msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		if strings.TrimSpace(value) == "" {
			return errors.New(msg)
		}
		return nil
	})
}

// MinLen requires at least n characters after trimming.
func MinLen(n int, msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		if trimmedLen(value) < n {
			return errors.New(msg)
		}
		return nil
	})
}

// OptionalMinLen accepts an empty value, otherwise requires n characters.
func OptionalMinLen(n int, msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		if l := trimmedLen(value); l > 0 && l < n {
			return errors.New(msg)
		}
		return nil
	})
}

// MaxLen allows at most n characters after trimming.
func MaxLen(n int, msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		if trimmedLen(value) > n {
			return errors.New(msg)
		}
		return nil
	})
}

// WordCount requires between min and max whitespace-separated words.
func WordCount(min, max int, msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		n := len(strings.Fields(value))
		if n < min || n > max {
			return errors.New(msg)
		}
		return nil
	})
}

// numberLiteral matches what a browser's Number() turns into a number:
// signed decimals with an optional exponent, Infinity and 0x/0o/0b integers.
// NaN, Inf and digit separators are not numbers.
var numberLiteral = regexp.MustCompile(`^(?:[+-]?(?:(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?|Infinity)|0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+)$`)

// NotNumeric rejects values that read as a number literal.
func NotNumeric(msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		if numberLiteral.MatchString(strings.TrimSpace(value)) {
			return errors.New(msg)
		}
		return nil
	})
}

// Pattern requires a non-empty value to match re in full.
func Pattern(re *regexp.Regexp, msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		v := strings.TrimSpace(value)
		if v != "" && !re.MatchString(v) {
			return errors.New(msg)
		}
		return nil
	})
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email requires an address-shaped value.
func Email(msg string) Rule {
	return Pattern(emailPattern, msg)
}

var websitePattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// URL requires a website-shaped value; the scheme is optional.
func URL(msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		v := strings.TrimSpace(value)
		if v == "" {
			return nil
		}
		if !websitePattern.MatchString(strings.ToLower(v)) {
			return errors.New(msg)
		}
		return nil
	})
}

// Integer requires a base-10 integer within [min, max].
func Integer(min, max int, msg string) Rule {
	return RuleFunc(func(_, value string, _ Context) error {
		v := strings.TrimSpace(value)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < min || n > max {
			return errors.New(msg)
		}
		return nil
	})
}

// Unique rejects a value already used by another sibling in the same field,
// compared trimmed and case-insensitively. In edit mode the owner is skipped.
func Unique(msg string) Rule {
	return RuleFunc(func(field, value string, vc Context) error {
		want := strings.ToLower(strings.TrimSpace(value))
		if want == "" {
			return nil
		}
		for _, s := range vc.Siblings {
			if vc.Mode == models.ModeEdit && s.ID == vc.OwnerID {
				continue
			}
			if strings.ToLower(strings.TrimSpace(s.Get(field))) == want {
				return errors.New(msg)
			}
		}
		return nil
	})
}

// FileRequired requires an attachment. In edit mode a kept existing file
// satisfies the rule; once the existing file is removed a new one is needed.
func FileRequired(msg string) Rule {
	return RuleFunc(func(field, value string, vc Context) error {
		if strings.TrimSpace(value) != "" {
			return nil
		}
		if vc.Mode == models.ModeEdit && vc.KeptFiles[field] {
			return nil
		}
		return errors.New(msg)
	})
}

// OneOf requires the value to be one of the allowed values computed from
// the context. An empty value passes; pair with Required when needed.
func OneOf(allowed func(vc Context) []string, msg string) Rule {
	return RuleFunc(func(_, value string, vc Context) error {
		v := strings.TrimSpace(value)
		if v == "" {
			return nil
		}
		for _, a := range allowed(vc) {
			if a == v {
				return nil
			}
		}
		return errors.New(msg)
	})
}
