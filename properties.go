// properties.go: Parser for .properties files
//
// Supported syntax: key=value, key:value and key value separators, '#' and
// '!' comment lines, trailing backslash line continuation and the escapes
// \t \n \r \f \uXXXX. Any other escaped character stands for itself.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/agilira/go-errors"
)

// parseProperties parses .properties content. Keys repeated in the same
// file keep their last value and their first position.
func parseProperties(data []byte) ([]Property, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var props []Property
	index := make(map[string]int)

	var logical strings.Builder
	startLine, lineNum := 0, 0
	continued := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimLeftFunc(scanner.Text(), unicode.IsSpace)

		if !continued {
			if line == "" || line[0] == '#' || line[0] == '!' {
				continue
			}
			startLine = lineNum
		}

		if trailingBackslashes(line)%2 == 1 {
			logical.WriteString(line[:len(line)-1])
			continued = true
			continue
		}
		logical.WriteString(line)
		continued = false

		p, err := parsePropertyLine(logical.String(), startLine)
		logical.Reset()
		if err != nil {
			return nil, err
		}
		if i, ok := index[p.Key]; ok {
			props[i].Value = p.Value
			continue
		}
		index[p.Key] = len(props)
		props = append(props, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("cannot read properties content: %v", err))
	}

	if continued {
		p, err := parsePropertyLine(logical.String(), startLine)
		if err != nil {
			return nil, err
		}
		if i, ok := index[p.Key]; ok {
			props[i].Value = p.Value
		} else {
			props = append(props, p)
		}
	}
	return props, nil
}

// parsePropertyLine splits one logical line into key and value.
func parsePropertyLine(line string, lineNum int) (Property, error) {
	keyEnd := len(line)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' || c == '\f' {
			keyEnd = i
			break
		}
	}

	rest := strings.TrimLeft(line[keyEnd:], " \t\f")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t\f")
	}

	key, err := unescapeProperty(line[:keyEnd], lineNum)
	if err != nil {
		return Property{}, err
	}
	if err := validatePropertyKey(key, lineNum); err != nil {
		return Property{}, err
	}
	value, err := unescapeProperty(rest, lineNum)
	if err != nil {
		return Property{}, err
	}
	return Property{Key: key, Value: value, Line: lineNum}, nil
}

func unescapeProperty(s string, lineNum int) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+5 > len(s) {
				return "", malformedEscape(s, lineNum)
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", malformedEscape(s, lineNum)
			}
			b.WriteRune(rune(r))
			i += 4
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func malformedEscape(s string, lineNum int) error {
	return errors.New(ErrCodeInvalidPropertiesFile,
		fmt.Sprintf("malformed \\uXXXX escape at line %d: %q", lineNum, s)).
		WithContext("line", lineNum)
}

// validatePropertyKey rejects empty keys and keys holding control or
// non-printable characters.
func validatePropertyKey(key string, lineNum int) error {
	if key == "" {
		return errors.New(ErrCodeInvalidPropertiesFile,
			fmt.Sprintf("invalid key at line %d: key cannot be empty", lineNum)).
			WithContext("line", lineNum)
	}
	for _, r := range key {
		if !unicode.IsPrint(r) {
			return errors.New(ErrCodeInvalidPropertiesFile,
				fmt.Sprintf("invalid key at line %d: non-printable character %U", lineNum, r)).
				WithContext("line", lineNum)
		}
	}
	return nil
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}
