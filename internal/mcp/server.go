// Package mcp exposes schedules, wall mappings, shift analysis and wall
// targets as Model Context Protocol tools.
package mcp

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("setops", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Climbing gym route-setting server. Read the current 14-day setting schedules, teach it unknown wall labels, and query setter shift analysis and wall production targets. Gym codes are short upper-case codes such as DSN or GVN."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetSchedule, Handler: h.getSchedule},
		server.ServerTool{Tool: toolListUnrecognizedWalls, Handler: h.listUnrecognizedWalls},
		server.ServerTool{Tool: toolAssignWallMapping, Handler: h.assignWallMapping},
		server.ServerTool{Tool: toolGetShiftAnalysis, Handler: h.getShiftAnalysis},
		server.ServerTool{Tool: toolGetWallTargets, Handler: h.getWallTargets},
	)

	s.AddResources(
		server.ServerResource{Resource: resUnrecognized, Handler: h.unrecognizedResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resUnrecognized = mcp.NewResource(
	"setops://unrecognized_walls",
	"Unrecognized Walls",
	mcp.WithResourceDescription("Schedule labels from the last upload that matched no wall, grouped by gym code"),
	mcp.WithMIMEType("application/json"),
)

func errNoSchedule(gym string) error {
	return fmt.Errorf("no schedule for %s", strings.ToUpper(gym))
}
