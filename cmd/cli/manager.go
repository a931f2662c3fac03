// Package cli provides the vexil command-line tool.
//
// The tool works on the inputs of a flag binding without running one:
// it validates properties overlays, prints the arguments an overlay
// synthesizes, and reads the bind audit trail.
//
//	vexil lint service.properties
//	vexil tokens "base.properties;prod.yaml"
//	vexil audit query tmp/vexil/bind-audit.db --flag port --limit 20
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"os"

	"github.com/agilira/orpheus/pkg/orpheus"
	"go.uber.org/zap"
)

// Version of the vexil tool.
const Version = "1.0.0"

// Manager routes vexil commands.
type Manager struct {
	app    *orpheus.App
	out    io.Writer
	logger *zap.Logger
}

// NewManager creates the CLI with every command registered.
func NewManager() *Manager {
	app := orpheus.New("vexil").
		SetDescription("Inspect vexil properties overlays and bind audit trails").
		SetVersion(Version)

	manager := &Manager{
		app:    app,
		out:    os.Stdout,
		logger: zap.NewNop(),
	}

	manager.setupOverlayCommands()
	manager.setupAuditCommands()

	return manager
}

// WithOutput redirects command output, stdout by default.
func (m *Manager) WithOutput(w io.Writer) *Manager {
	if w != nil {
		m.out = w
	}
	return m
}

// WithLogger sets the diagnostic logger. Nil keeps the current one.
func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Run executes the command named by args.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// setupOverlayCommands registers lint and tokens.
func (m *Manager) setupOverlayCommands() {
	// lint <file> [--format=auto]
	lintCmd := orpheus.NewCommand("lint", "Validate a properties overlay file").
		AddFlag("format", "f", "auto", "File format (auto|properties|yaml|json|hcl)").
		AddBoolFlag("quiet", "q", false, "Only report errors").
		SetHandler(m.handleLint)
	m.app.AddCommand(lintCmd)

	// tokens <file[;file...]>
	tokensCmd := orpheus.NewCommand("tokens", "Print the arguments synthesized from overlay files").
		SetHandler(m.handleTokens)
	m.app.AddCommand(tokensCmd)
}

// setupAuditCommands registers the audit command group.
func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Bind audit trail")

	// audit query <db> [--flag=] [--limit=100]
	queryCmd := auditCmd.Subcommand("query", "List recorded bind events", m.handleAuditQuery)
	queryCmd.AddFlag("flag", "n", "", "Only events for this flag")
	queryCmd.AddIntFlag("limit", "l", 100, "Maximum results")
	queryCmd.AddBoolFlag("json", "j", false, "Print events as JSON lines")

	m.app.AddCommand(auditCmd)
}
