// options.go: Command line tokenizer
//
// Long options only: --name=value, --name value and bare --name. A lone
// "--" ends option processing; every later token is a non-option argument.
// Tokens that do not start with "--" are non-option arguments too.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"fmt"
	"strings"

	"github.com/agilira/go-errors"
)

// argKind describes whether an option takes a value.
type argKind uint8

const (
	argNone argKind = iota
	argOptional
	argRequired
	argBoolean
)

// occurrence is one appearance of an option on the command line.
type occurrence struct {
	value    string
	hasValue bool
}

// optionSet is the result of one tokenizer pass.
type optionSet struct {
	seen       map[string][]occurrence
	nonOptions []string
}

// has reports whether name appeared at least once.
func (s *optionSet) has(name string) bool {
	return len(s.seen[name]) > 0
}

// last returns the final occurrence of name. Repeated options resolve to
// the last one given.
func (s *optionSet) last(name string) (occurrence, bool) {
	occ := s.seen[name]
	if len(occ) == 0 {
		return occurrence{}, false
	}
	return occ[len(occ)-1], true
}

// values returns every value given for name, in order.
func (s *optionSet) values(name string) []string {
	var out []string
	for _, o := range s.seen[name] {
		if o.hasValue {
			out = append(out, o.value)
		}
	}
	return out
}

// optionParser knows the accepted options. It is frozen by the first parse,
// after which no option can be declared.
type optionParser struct {
	kinds  map[string]argKind
	frozen bool
}

func newOptionParser() *optionParser {
	return &optionParser{kinds: make(map[string]argKind)}
}

func (p *optionParser) accepts(name string, kind argKind) {
	if !p.frozen {
		p.kinds[name] = kind
	}
}

// parse tokenizes args. On error the returned set still holds the
// non-option arguments seen before the failing token.
func (p *optionParser) parse(args []string) (*optionSet, error) {
	p.frozen = true
	set := &optionSet{seen: make(map[string][]occurrence)}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			set.nonOptions = append(set.nonOptions, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") {
			set.nonOptions = append(set.nonOptions, arg)
			continue
		}

		name, value, inline := strings.Cut(arg[2:], "=")
		kind, ok := p.kinds[name]
		if !ok {
			return set, errors.New(ErrCodeUnknownFlag,
				fmt.Sprintf("unrecognized option: --%s", name)).
				WithContext("flag", name)
		}

		occ := occurrence{value: value, hasValue: inline}
		if !inline {
			next, hasNext := "", i+1 < len(args)
			if hasNext {
				next = args[i+1]
			}
			switch {
			case kind == argNone:
			case kind == argBoolean && hasNext && isBoolLiteral(next):
				occ = occurrence{value: next, hasValue: true}
				i++
			case kind == argOptional && hasNext && !strings.HasPrefix(next, "--"):
				occ = occurrence{value: next, hasValue: true}
				i++
			case kind == argRequired && hasNext && !strings.HasPrefix(next, "--"):
				occ = occurrence{value: next, hasValue: true}
				i++
			case kind == argRequired:
				return set, errors.New(ErrCodeMissingFlagValue,
					fmt.Sprintf("option --%s requires a value", name)).
					WithContext("flag", name)
			}
		} else if kind == argNone {
			return set, errors.New(ErrCodeInvalidFlagValue,
				fmt.Sprintf("option --%s does not take a value", name)).
				WithContext("flag", name)
		}

		set.seen[name] = append(set.seen[name], occ)
	}
	return set, nil
}

func isBoolLiteral(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}
