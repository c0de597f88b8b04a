// Package mcp exposes the registry over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/portbump/portbump/internal/config"
	"github.com/portbump/portbump/internal/git"
	"github.com/portbump/portbump/internal/journal"
	"github.com/portbump/portbump/internal/registry"
	"github.com/portbump/portbump/internal/usecase"
)

// Server wraps the MCP server with registry tools.
type Server struct {
	server   *mcp.Server
	root     string
	settings *config.Settings
	dbCtx    *journal.Context
}

// NewServer creates a new MCP server instance. root is the registry used when
// a tool call names none; when empty the usual resolution applies. A nil
// dbCtx disables the run journal for updates.
func NewServer(version, root string, settings *config.Settings, dbCtx *journal.Context) *Server {
	if settings == nil {
		settings = &config.Settings{}
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "portbump",
		Version: version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		root:     root,
		settings: settings,
		dbCtx:    dbCtx,
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "registry_versions",
		Description: "List the recorded versions of a port, current record first for each version",
	}, s.handleVersions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "registry_baseline",
		Description: "Show a baseline, or one port's entry in it",
	}, s.handleBaseline)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "registry_compare",
		Description: "Compare two version strings with the registry's loose version ordering",
	}, s.handleCompare)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "registry_update_port",
		Description: "Update a port to a new upstream version and commit, recording it in the version history and baseline",
	}, s.handleUpdatePort)
}

type VersionsInput struct {
	Port     string `json:"port" jsonschema:"Port name"`
	Registry string `json:"registry,omitempty" jsonschema:"Registry root directory (defaults to the configured registry)"`
}

type VersionRecord struct {
	Version     string `json:"version"`
	PortVersion int    `json:"port-version"`
	GitTree     string `json:"git-tree"`
	Scheme      string `json:"scheme"`
}

type VersionsOutput struct {
	Port     string            `json:"port"`
	Declared *usecase.PortInfo `json:"declared,omitempty"`
	Versions []VersionRecord   `json:"versions"`
}

type BaselineInput struct {
	Baseline string `json:"baseline,omitempty" jsonschema:"Baseline name (defaults to the configured baseline)"`
	Port     string `json:"port,omitempty" jsonschema:"Only return this port's entry"`
	Registry string `json:"registry,omitempty" jsonschema:"Registry root directory (defaults to the configured registry)"`
}

type BaselineEntry struct {
	Port        string `json:"port"`
	Version     string `json:"baseline"`
	PortVersion int    `json:"port-version"`
}

type BaselineOutput struct {
	Baseline string          `json:"baseline"`
	Entries  []BaselineEntry `json:"entries"`
}

type CompareInput struct {
	A string `json:"a" jsonschema:"First version"`
	B string `json:"b" jsonschema:"Second version"`
}

type UpdatePortInput struct {
	Port     string `json:"port" jsonschema:"Port name"`
	Version  string `json:"version" jsonschema:"Upstream version"`
	Commit   string `json:"commit" jsonschema:"Upstream commit written to the portfile REF"`
	Baseline string `json:"baseline,omitempty" jsonschema:"Baseline to advance (defaults to the configured baseline)"`
	Registry string `json:"registry,omitempty" jsonschema:"Registry root directory (defaults to the configured registry)"`
}

type UpdatePortOutput struct {
	Message        string `json:"message"`
	Port           string `json:"port"`
	Version        string `json:"version"`
	PortVersion    int    `json:"port-version"`
	GitTree        string `json:"git-tree"`
	BaselineAction string `json:"baseline-action"`
	Resumed        bool   `json:"resumed,omitempty"`
	RefUpdated     bool   `json:"ref-updated"`
}

func (s *Server) layout(root string) (registry.Layout, error) {
	if root == "" {
		root = s.root
	}
	return usecase.ResolveRegistry(usecase.RegistryOptions{Root: root}, s.settings)
}

// Tool handlers

func (s *Server) handleVersions(_ context.Context, _ *mcp.CallToolRequest, input VersionsInput) (*mcp.CallToolResult, VersionsOutput, error) {
	layout, err := s.layout(input.Registry)
	if err != nil {
		return nil, VersionsOutput{}, err
	}

	q := usecase.NewQuery(layout)
	h, err := q.Versions(input.Port)
	if err != nil {
		return nil, VersionsOutput{}, err
	}

	out := VersionsOutput{Port: input.Port, Versions: make([]VersionRecord, 0, len(h.Versions))}
	if info, err := q.Port(input.Port); err == nil {
		out.Declared = &info
	}
	for _, rec := range h.Versions {
		out.Versions = append(out.Versions, VersionRecord{
			Version:     rec.Version,
			PortVersion: rec.PortVersion,
			GitTree:     rec.GitTree,
			Scheme:      rec.Scheme(),
		})
	}
	return nil, out, nil
}

func (s *Server) handleBaseline(_ context.Context, _ *mcp.CallToolRequest, input BaselineInput) (*mcp.CallToolResult, BaselineOutput, error) {
	layout, err := s.layout(input.Registry)
	if err != nil {
		return nil, BaselineOutput{}, err
	}

	name := s.settings.Baseline(input.Baseline)
	q := usecase.NewQuery(layout)
	out := BaselineOutput{Baseline: name}

	if input.Port != "" {
		entry, err := q.BaselineEntry(name, input.Port)
		if err != nil {
			return nil, BaselineOutput{}, err
		}
		out.Entries = []BaselineEntry{{Port: input.Port, Version: entry.Baseline, PortVersion: entry.PortVersion}}
		return nil, out, nil
	}

	rows, err := q.Baseline(name)
	if err != nil {
		return nil, BaselineOutput{}, err
	}
	out.Entries = make([]BaselineEntry, 0, len(rows))
	for _, row := range rows {
		out.Entries = append(out.Entries, BaselineEntry{Port: row.Port, Version: row.Baseline, PortVersion: row.PortVersion})
	}
	return nil, out, nil
}

func (s *Server) handleCompare(_ context.Context, _ *mcp.CallToolRequest, input CompareInput) (*mcp.CallToolResult, usecase.Comparison, error) {
	return nil, usecase.Compare(input.A, input.B), nil
}

func (s *Server) handleUpdatePort(ctx context.Context, _ *mcp.CallToolRequest, input UpdatePortInput) (*mcp.CallToolResult, UpdatePortOutput, error) {
	if input.Port == "" || input.Version == "" || input.Commit == "" {
		return nil, UpdatePortOutput{}, fmt.Errorf("port, version and commit are required")
	}

	layout, err := s.layout(input.Registry)
	if err != nil {
		return nil, UpdatePortOutput{}, err
	}

	var runs usecase.Journal
	if s.dbCtx != nil {
		runs = journal.NewRunRepository(s.dbCtx)
	}

	res, err := usecase.NewUpdate(layout, git.Open(layout.Root), runs).Run(ctx, usecase.UpdateInput{
		Port:     input.Port,
		Version:  input.Version,
		CommitID: input.Commit,
		Baseline: s.settings.Baseline(input.Baseline),
	})
	if err != nil {
		return nil, UpdatePortOutput{}, err
	}

	return nil, UpdatePortOutput{
		Message:        fmt.Sprintf("Updated %s to %s#%d", res.Port, res.Version, res.PortVersion),
		Port:           res.Port,
		Version:        res.Version,
		PortVersion:    res.PortVersion,
		GitTree:        res.GitTree,
		BaselineAction: string(res.Baseline.Action),
		Resumed:        res.Resumed,
		RefUpdated:     res.RefUpdated,
	}, nil
}
