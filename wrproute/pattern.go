// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package wrproute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xmidt-org/kafkadelivery"
)

// Pattern is a simplified glob matched against the event type of a WRP
// destination ("event:<type>/...").
//
//	"*"               matches every event type
//	"device-status"   matches exactly
//	"device-*"        matches a prefix
//	"*-online"        matches a suffix
//	"device-*-online" matches a prefix and a suffix
//
// At most one unescaped '*' is allowed.  Write `\*` for a literal asterisk
// ("star\\*ratings" in Go source or YAML double quotes).
type Pattern string

// matcher is a compiled Pattern.
type matcher struct {
	any    bool
	fold   bool
	wild   bool
	prefix string
	suffix string
}

func (p Pattern) validate() error {
	if p == "" {
		return errors.Join(kafkadelivery.ErrValidation, fmt.Errorf("pattern must not be empty"))
	}
	if _, _, _, ok := splitWildcard(string(p)); !ok {
		return errors.Join(kafkadelivery.ErrValidation,
			fmt.Errorf("pattern '%s' is invalid: at most one unescaped '*' is allowed", p))
	}
	return nil
}

func (p Pattern) compile(fold bool) (matcher, error) {
	if err := p.validate(); err != nil {
		return matcher{}, err
	}
	if p == "*" {
		return matcher{any: true}, nil
	}

	before, after, wild, _ := splitWildcard(string(p))
	return matcher{
		fold:   fold,
		wild:   wild,
		prefix: before,
		suffix: after,
	}, nil
}

func (m matcher) match(eventType string) bool {
	eq := func(a, b string) bool { return a == b }
	if m.fold {
		eq = strings.EqualFold
	}

	switch {
	case m.any:
		return true
	case !m.wild:
		return eq(eventType, m.prefix)
	case len(eventType) < len(m.prefix)+len(m.suffix):
		return false
	}
	return eq(eventType[:len(m.prefix)], m.prefix) &&
		eq(eventType[len(eventType)-len(m.suffix):], m.suffix)
}

// splitWildcard splits s around its single unescaped '*' and unescapes both
// halves.  A '*' is unescaped when an even number of '\' precede it.  ok is
// false when there is more than one.
func splitWildcard(s string) (before, after string, wild, ok bool) {
	star := -1
	for i := 0; i < len(s); i++ {
		if s[i] != '*' {
			continue
		}
		slashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			slashes++
		}
		if slashes%2 != 0 {
			continue
		}
		if star >= 0 {
			return "", "", false, false
		}
		star = i
	}

	before = s
	if star >= 0 {
		before, after, wild = s[:star], s[star+1:], true
	}
	return unescape(before), unescape(after), wild, true
}

var unescaper = strings.NewReplacer(`\*`, `*`, `\\`, `\`)

func unescape(s string) string {
	return unescaper.Replace(s)
}
