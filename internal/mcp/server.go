package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("lanecoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("lanecoach swim training server. Query swim sessions with lap and set detail, weekly continuous-distance targets and progress, and check proposed workouts for inconsistent totals. Distances are in meters."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetWorkoutDetail, Handler: h.getWorkoutDetail},
		server.ServerTool{Tool: toolGetWeekTarget, Handler: h.getWeekTarget},
		server.ServerTool{Tool: toolGetWeeklyProgress, Handler: h.getWeeklyProgress},
		server.ServerTool{Tool: toolReconcilePlan, Handler: h.reconcilePlan},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resProgress, Handler: h.progress},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resProgress = mcp.NewResource(
	"lanecoach://progress",
	"Weekly Progress",
	mcp.WithResourceDescription("Target and best continuous distance for the current and previous training week"),
	mcp.WithMIMEType("application/json"),
)
