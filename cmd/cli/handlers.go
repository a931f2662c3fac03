// Command handlers for the vexil CLI
//
// Handlers read their arguments from the orpheus context and delegate to
// methods that only deal with plain values.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/agilira/vexil"
	"go.uber.org/zap"
)

func (m *Manager) handleLint(ctx *orpheus.Context) error {
	return m.lint(ctx.GetArg(0), ctx.GetFlagString("format"), ctx.GetFlagBool("quiet"))
}

func (m *Manager) handleTokens(ctx *orpheus.Context) error {
	return m.tokens(ctx.GetArg(0))
}

func (m *Manager) handleAuditQuery(ctx *orpheus.Context) error {
	return m.auditQuery(ctx.GetArg(0), vexil.AuditQuery{
		Flag:  ctx.GetFlagString("flag"),
		Limit: ctx.GetFlagInt("limit"),
	}, ctx.GetFlagBool("json"))
}

// lint parses one overlay file and prints its keys.
func (m *Manager) lint(path, format string, quiet bool) error {
	if path == "" {
		return errors.New(vexil.ErrCodeInvalidArgument, "lint requires a file path")
	}

	f, err := resolveFormat(path, format)
	if err != nil {
		return err
	}

	data, err := readOverlay(path)
	if err != nil {
		return err
	}

	props, err := vexil.ParseProperties(data, f, path)
	if err != nil {
		m.logger.Debug("overlay rejected", zap.String("file", path), zap.Error(err))
		return err
	}

	if !quiet {
		for _, p := range props {
			fmt.Fprintf(m.out, "%4d  %s\n", p.Line, p.Key)
		}
	}
	fmt.Fprintf(m.out, "%s: %d keys, format %s\n", path, len(props), f)
	return nil
}

// tokens prints the argument list an overlay value expands to, one token
// per line.
func (m *Manager) tokens(value string) error {
	paths := splitPaths(value)
	if len(paths) == 0 {
		return errors.New(vexil.ErrCodeInvalidArgument, "tokens requires at least one file path")
	}

	args, err := vexil.OverlayArgs(paths...)
	if err != nil {
		return err
	}
	m.logger.Debug("overlay expanded", zap.Strings("files", paths), zap.Int("tokens", len(args)))

	for _, a := range args {
		fmt.Fprintln(m.out, a)
	}
	return nil
}

// auditQuery prints recorded bind events from the audit database at path.
func (m *Manager) auditQuery(path string, q vexil.AuditQuery, asJSON bool) error {
	if path == "" {
		path = vexil.DefaultAuditConfig().OutputFile
	}

	events, err := vexil.QueryAudit(path, q)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(m.out)
		for _, ev := range events {
			if err := enc.Encode(ev); err != nil {
				return errors.Wrap(err, vexil.ErrCodeAudit, "cannot encode audit event")
			}
		}
		return nil
	}

	if len(events) == 0 {
		fmt.Fprintln(m.out, "no bind events recorded")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(m.out, "%s  %-24s %-20s %s = %s\n",
			ev.Timestamp.Format(time.RFC3339), ev.Flag, ev.Source, ev.Field, displayValue(ev))
	}
	return nil
}

func displayValue(ev vexil.BindEvent) string {
	if ev.Redacted {
		return vexil.RedactedValue
	}
	return fmt.Sprintf("%q", ev.Value)
}

func splitPaths(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
