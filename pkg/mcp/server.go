package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/debug"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/transport"
)

// Config holds the MCP server settings.
type Config struct {
	// Name is the implementation name advertised during the handshake.
	// Default: "vorrat".
	Name string

	// Version is the advertised implementation version. Default: "dev".
	Version string
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "vorrat"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// Server exposes the preference store and coach as MCP tools.
type Server struct {
	store  transport.PreferenceAPI
	coach  transport.CoachService
	server *mcp.Server
}

// NewServer builds the MCP server and registers its tools. The coach service
// is optional; when nil only the preference tools are registered.
func NewServer(store transport.PreferenceAPI, coach transport.CoachService, cfg Config) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("preference store is required")
	}
	cfg.applyDefaults()

	s := &Server{
		store:  store,
		coach:  coach,
		server: mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
	}
	s.registerPrefTools()
	if coach != nil {
		s.registerCoachTools()
	}
	return s, nil
}

// Handler returns the streamable HTTP handler for mounting at /mcp.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// Run serves the MCP protocol over the given transport and blocks until the
// context is cancelled. Used for in-process clients and tests.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

type prefGetInput struct {
	Scope string `json:"scope" jsonschema_description:"Preference scope: device (durable) or session (ephemeral)"`
	Key   string `json:"key" jsonschema_description:"Logical preference key, e.g. kcalTarget"`
}

type prefSetInput struct {
	Scope string `json:"scope" jsonschema_description:"Preference scope: device (durable) or session (ephemeral)"`
	Key   string `json:"key" jsonschema_description:"Logical preference key, e.g. kcalTarget"`
	Value any    `json:"value" jsonschema_description:"JSON value to store under the key"`
}

type prefListInput struct {
	Scope  string `json:"scope" jsonschema_description:"Preference scope: device (durable) or session (ephemeral)"`
	Prefix string `json:"prefix,omitempty" jsonschema_description:"Only keys starting with this prefix"`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum entries to return; 0 returns all"`
}

type logMealInput struct {
	Name string `json:"name" jsonschema_description:"Meal name, e.g. grilled chicken and rice"`
	Kcal int    `json:"kcal,omitempty" jsonschema_description:"Calories; 0 asks the recognizer to estimate from the name"`
	Note string `json:"note,omitempty" jsonschema_description:"Free-form note stored with the meal"`
}

func (s *Server) registerPrefTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pref_get",
		Description: "Read one stored preference value by scope and key",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in prefGetInput) (*mcp.CallToolResult, struct{}, error) {
		debug.Log("mcp", "tool call", "tool", "pref_get", "scope", in.Scope, "key", in.Key)

		scope, err := prefs.ParseScope(in.Scope)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		pref, err := s.store.Lookup(ctx, scope, in.Key)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		return jsonResult(pref)
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pref_set",
		Description: "Store a JSON value under a preference key",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in prefSetInput) (*mcp.CallToolResult, struct{}, error) {
		debug.Log("mcp", "tool call", "tool", "pref_set", "scope", in.Scope, "key", in.Key)

		scope, err := prefs.ParseScope(in.Scope)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		raw, err := json.Marshal(in.Value)
		if err != nil {
			return errorResult(fmt.Errorf("%w: %v", prefs.ErrInvalidValue, err)), struct{}{}, nil
		}
		pref, err := s.store.Put(ctx, scope, in.Key, raw)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		return jsonResult(pref)
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pref_list",
		Description: "List stored preferences in a scope, optionally filtered by key prefix",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in prefListInput) (*mcp.CallToolResult, struct{}, error) {
		debug.Log("mcp", "tool call", "tool", "pref_list", "scope", in.Scope, "prefix", in.Prefix)

		scope, err := prefs.ParseScope(in.Scope)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		list, err := s.store.List(ctx, scope, in.Prefix, in.Limit)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		return jsonResult(list)
	})
}

func (s *Server) registerCoachTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "coach_dashboard",
		Description: "Read today's coach dashboard: calories, goals, streak, next workout",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, struct{}, error) {
		debug.Log("mcp", "tool call", "tool", "coach_dashboard")

		dash, err := s.coach.Dashboard(ctx)
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		return jsonResult(dash)
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "coach_log_meal",
		Description: "Log a meal; calories are estimated from the name when omitted",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in logMealInput) (*mcp.CallToolResult, struct{}, error) {
		debug.Log("mcp", "tool call", "tool", "coach_log_meal", "name", in.Name)

		meal, err := s.coach.LogMeal(ctx, api.LogMealRequest{Name: in.Name, Kcal: in.Kcal, Note: in.Note})
		if err != nil {
			return errorResult(err), struct{}{}, nil
		}
		return jsonResult(meal)
	})
}

// jsonResult renders v as a single JSON text block.
func jsonResult(v any) (*mcp.CallToolResult, struct{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, struct{}{}, fmt.Errorf("encoding tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, struct{}{}, nil
}

// errorResult reports a domain failure to the client without failing the
// protocol call.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
