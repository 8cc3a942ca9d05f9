package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// choiceValue is a string flag restricted to a fixed set of values.
type choiceValue struct {
	value   *string
	allowed []string
	what    string
}

var _ pflag.Value = (*choiceValue)(nil)

func newChoiceValue(p *string, def, what string, allowed ...string) *choiceValue {
	*p = def
	return &choiceValue{value: p, allowed: allowed, what: what}
}

func (c *choiceValue) String() string { return *c.value }

func (c *choiceValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(c.allowed, s) {
		return fmt.Errorf("unsupported %s %q (supported: %s)", c.what, s, strings.Join(c.allowed, ", "))
	}
	*c.value = s
	return nil
}

func (c *choiceValue) Type() string { return c.what }
