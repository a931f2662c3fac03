// vexil.go: Flags engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	"context"
	"io"

	"github.com/agilira/go-errors"
	"go.uber.org/zap"
)

// Flags registers flag targets and binds command line arguments, properties
// files and secrets onto them. A Flags value is used from a single
// goroutine: register every target, then call Parse exactly once.
type Flags struct {
	config *Config
	logger *zap.Logger
	reg    *registry

	parsed bool
	first  *optionSet
	final  *optionSet
}

// New creates an engine. Config defaults are applied with WithDefaults.
func New(config Config) *Flags {
	cfg := config.WithDefaults()
	return &Flags{
		config: cfg,
		logger: cfg.Logger,
		reg:    newRegistry(),
	}
}

// SetVersion sets the string printed by PrintVersion.
func (f *Flags) SetVersion(version string) *Flags {
	if version == "" {
		version = DefaultVersion
	}
	f.config.Version = version
	return f
}

// RegisterInstance registers the tagged fields of the struct instance
// points to. The registration is all-or-nothing.
func (f *Flags) RegisterInstance(instance interface{}) error {
	t, err := newInstanceTarget(instance)
	if err != nil {
		return err
	}
	if err := f.reg.register(t, false); err != nil {
		return err
	}
	f.logger.Debug("registered instance", zap.String("group", t.group()))
	return nil
}

// RegisterClass registers the variables declared on c. The registration is
// all-or-nothing.
func (f *Flags) RegisterClass(c *Class) error {
	if c == nil {
		return errors.New(ErrCodeInvalidArgument, "class cannot be nil")
	}
	if err := f.reg.register(classTarget{class: c}, true); err != nil {
		return err
	}
	f.logger.Debug("registered class", zap.String("group", c.name))
	return nil
}

// Parse is ParseContext with a background context.
func (f *Flags) Parse(args []string) error {
	return f.ParseContext(context.Background(), args)
}

// ParseContext tokenizes args, applies properties files and secret
// resolvers, binds every registered flag and runs post-construct hooks.
// When --help or --version is present nothing is bound and no hook runs.
// ctx is passed to the secret resolvers.
func (f *Flags) ParseContext(ctx context.Context, args []string) error {
	if f.parsed {
		return errors.New(ErrCodeAlreadyParsed, "flags were already parsed")
	}
	f.parsed = true

	args = append([]string(nil), args...)
	first, err := f.reg.parser.parse(args)
	f.first, f.final = first, first
	if err != nil {
		return err
	}
	if first.has(HelpFlag) || first.has(VersionFlag) {
		f.logger.Debug("help or version requested, skipping bind")
		return nil
	}

	tokens := args
	origin := map[string]string{}
	if first.has(PropertiesFileFlag) {
		var paths []string
		for _, v := range first.values(PropertiesFileFlag) {
			paths = append(paths, splitPropertiesFiles(v)...)
		}
		o, err := loadOverlay(paths)
		if err != nil {
			return err
		}
		tokens = append(o.tokens(first.has), args...)
		origin = o.origin
		f.logger.Debug("applied properties files",
			zap.Strings("files", paths), zap.Int("keys", len(o.keys)))
	}

	var unresolved *optionSet
	if len(f.config.SecretResolvers) > 0 {
		// Tokenized before resolution so secret-sourced values can be told apart.
		var perr error
		if unresolved, perr = f.reg.parser.parse(tokens); perr != nil {
			f.logger.Debug("cannot tokenize unresolved arguments, bound values are attributed to secrets",
				zap.Error(perr))
		}
		tokens, err = resolveSecrets(ctx, f.config.SecretResolvers, tokens)
		if err != nil {
			return err
		}
		f.logger.Debug("resolved secrets", zap.Int("resolvers", len(f.config.SecretResolvers)))
	}

	final, err := f.reg.parser.parse(tokens)
	f.final = final
	if err != nil {
		return err
	}

	writes, err := f.reg.bind(final)
	if err != nil {
		return err
	}
	f.record(writes, f.sourceOf(unresolved, origin))

	return runHooks(f.logger, f.reg.instanceHooks, f.reg.classHooks)
}

// sourceOf returns a function naming where a flag's bound value came from.
func (f *Flags) sourceOf(unresolved *optionSet, origin map[string]string) func(string) string {
	resolving := len(f.config.SecretResolvers) > 0
	return func(name string) string {
		if resolving {
			if unresolved == nil {
				return SourceSecret
			}
			before, ok := unresolved.last(name)
			after, _ := f.final.last(name)
			if !ok || before != after {
				return SourceSecret
			}
		}
		if f.first.has(name) {
			return SourceCommandLine
		}
		if file, ok := origin[name]; ok {
			return SourcePropertiesPrefix + file
		}
		return SourceCommandLine
	}
}

// record logs and audits the bound flags. Audit failures are logged and do
// not fail the parse.
func (f *Flags) record(writes []staged, source func(string) string) {
	for _, w := range writes {
		name := w.entry.flag.Name
		src := source(name)
		value := w.raw
		if src == SourceSecret {
			value = RedactedValue
		}
		f.logger.Debug("bound flag",
			zap.String("flag", name),
			zap.String("field", w.entry.binding.field),
			zap.String("source", src),
			zap.String("value", value))

		if f.config.Audit == nil {
			continue
		}
		err := f.config.Audit.LogBind(BindEvent{
			Flag:   name,
			Group:  w.entry.group,
			Field:  w.entry.binding.field,
			Source: src,
			Value:  w.raw,
		})
		if err != nil {
			f.logger.Warn("cannot audit bound flag", zap.String("flag", name), zap.Error(err))
		}
	}

	if f.config.Audit != nil {
		if err := f.config.Audit.Flush(); err != nil {
			f.logger.Warn("cannot flush audit events", zap.Error(err))
		}
	}
}

// HelpRequested reports whether --help was on the command line.
func (f *Flags) HelpRequested() bool {
	return f.first != nil && f.first.has(HelpFlag)
}

// VersionRequested reports whether --version was on the command line.
func (f *Flags) VersionRequested() bool {
	return f.first != nil && f.first.has(VersionFlag)
}

// PropertiesRequested reports whether --properties-file was given with a
// value.
func (f *Flags) PropertiesRequested() bool {
	return f.first != nil && len(f.first.values(PropertiesFileFlag)) > 0
}

// NonOptionArgs returns the arguments of the original command line that are
// not options, including everything after a lone "--". Tokens added by
// properties files or rewritten by secret resolvers are not reflected.
func (f *Flags) NonOptionArgs() []string {
	if f.first == nil {
		return nil
	}
	return append([]string(nil), f.first.nonOptions...)
}

// Declarations returns every registered flag in registration order.
func (f *Flags) Declarations() []Flag {
	return f.reg.flags()
}

// PrintHelp writes the flag listing to w.
func (f *Flags) PrintHelp(w io.Writer) error {
	return f.reg.writeHelp(w)
}

// PrintVersion writes the configured version and a newline to w.
func (f *Flags) PrintVersion(w io.Writer) error {
	_, err := io.WriteString(w, f.config.Version+"\n")
	return err
}

// DumpFlags writes a debug listing of every flag, its field, type and
// current value to w.
func (f *Flags) DumpFlags(w io.Writer) error {
	return f.reg.writeFlags(w)
}
