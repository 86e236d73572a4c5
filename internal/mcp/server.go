package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vreme-ai/vreme/internal/analytics"
	"github.com/vreme-ai/vreme/internal/api"
	"github.com/vreme-ai/vreme/internal/tracker"
)

// Server exposes the Vreme API and the local behavior trackers as MCP tools.
//
// Every tool call rolls the in-memory burst tracker (which in turn stamps
// the global activity record); the remote-query tools additionally drive the
// durable session model.
type Server struct {
	api      *api.Client
	global   *tracker.GlobalTracker
	behavior *tracker.BehaviorStore
	bursts   *tracker.BurstTracker
	analyzer *analytics.Analyzer

	// One MCP session id per server process.
	sessionID string
	project   string
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(apiClient *api.Client, global *tracker.GlobalTracker, behavior *tracker.BehaviorStore, bursts *tracker.BurstTracker, project string) *Server {
	return &Server{
		api:       apiClient,
		global:    global,
		behavior:  behavior,
		bursts:    bursts,
		analyzer:  analytics.NewAnalyzer(global, behavior),
		sessionID: uuid.NewString(),
		project:   project,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("vreme", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.queryTimeTool())
	srv.AddTool(s.queryPrayerTimesTool())
	srv.AddTool(s.checkActivityTool())
	srv.AddTool(s.temporalContextTool())
	srv.AddTool(s.cognitiveStateTool())
	srv.AddTool(s.workPatternsTool())
	srv.AddTool(s.availabilityTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// trackCall records this invocation in the burst and global trackers and
// returns the global last-activity values as they stood before the stamp,
// which is what the session model needs to measure the gap.
func (s *Server) trackCall() (time.Time, string) {
	last, tz := s.global.LastActivity()
	s.bursts.RecordInteraction(s.sessionID, s.project)
	return last, tz
}

// trackSession additionally rolls the durable session model forward.
func (s *Server) trackSession() {
	last, tz := s.trackCall()
	s.behavior.UpdateSession(s.sessionID, last, tz, s.project, 1)
}

// ---------------------------------------------------------------------------
// Remote query tools
// ---------------------------------------------------------------------------

// query_time
func (s *Server) queryTimeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("query_time",
		mcp.WithDescription("Query temporal information using natural language. Get current time, timezone info, cultural calendars (Hebrew, Islamic, Chinese, Hindu, Persian, Buddhist, Baha'i, Ethiopian, Mayan), astronomical events, religious fasting status, work restrictions, and activity appropriateness for any location."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language temporal query")),
		mcp.WithString("user_timezone", mcp.Description("Optional: your timezone for relative time calculations")),
	)
	return tool, s.handleQueryTime
}

func (s *Server) handleQueryTime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	s.trackSession()

	resp, err := s.api.Query(ctx, api.QueryRequest{
		Query:        query,
		UserTimezone: request.GetString("user_timezone", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v\n\nAPI: %s", err, s.api.BaseURL())), nil
	}
	return mcp.NewToolResultText(api.FormatResponse(resp)), nil
}

// query_prayer_times
func (s *Server) queryPrayerTimesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("query_prayer_times",
		mcp.WithDescription("Get Islamic prayer times (Salah/Namaz) for any location. Returns all 5 daily prayers, next prayer time, and Qibla direction to Mecca."),
		mcp.WithString("location", mcp.Required(), mcp.Description("Location name")),
		mcp.WithString("prayer", mcp.Description("Optional: specific prayer ('fajr', 'dhuhr', 'asr', 'maghrib', 'isha')")),
	)
	return tool, s.handleQueryPrayerTimes
}

func (s *Server) handleQueryPrayerTimes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := request.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: location"), nil
	}
	s.trackSession()

	query := fmt.Sprintf("What are prayer times in %s?", location)
	if prayer := request.GetString("prayer", ""); prayer != "" {
		query = fmt.Sprintf("When is %s in %s?", prayer, location)
	}

	resp, err := s.api.Query(ctx, api.QueryRequest{Query: query})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(api.FormatResponse(resp)), nil
}

// check_activity_appropriateness
func (s *Server) checkActivityTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("check_activity_appropriateness",
		mcp.WithDescription("Check if the current time is appropriate for specific activities. Takes into account time of day, cultural/religious observances, work restrictions, and local customs."),
		mcp.WithString("location", mcp.Required(), mcp.Description("Location name")),
		mcp.WithString("activity", mcp.Enum("call", "work", "meeting"), mcp.Description("Optional: type of activity to check")),
		mcp.WithString("user_timezone", mcp.Description("Optional: your timezone")),
	)
	return tool, s.handleCheckActivity
}

func (s *Server) handleCheckActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := request.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: location"), nil
	}
	s.trackSession()

	query := fmt.Sprintf("Is it a good time to call someone in %s?", location)
	switch request.GetString("activity", "") {
	case "work":
		query = fmt.Sprintf("Is it appropriate for work in %s?", location)
	case "meeting":
		query = fmt.Sprintf("Is it a good time for a meeting in %s?", location)
	}

	resp, err := s.api.Query(ctx, api.QueryRequest{
		Query:        query,
		UserTimezone: request.GetString("user_timezone", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(api.FormatResponse(resp)), nil
}

// ---------------------------------------------------------------------------
// Local context and analytics tools
// ---------------------------------------------------------------------------

// get_temporal_context
func (s *Server) temporalContextTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_temporal_context",
		mcp.WithDescription("Get the ephemeral temporal context for this server process: activity bursts, current burst, time of day, days since last activity, and temporal grounding metadata."),
		mcp.WithString("timezone", mcp.Description("IANA timezone for civil-time fields (defaults to the local zone)")),
	)
	return tool, s.handleTemporalContext
}

func (s *Server) handleTemporalContext(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.trackCall()
	snap := s.bursts.Snapshot(request.GetString("timezone", ""))
	return marshalResult(snap)
}

// get_cognitive_state
func (s *Server) cognitiveStateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_cognitive_state",
		mcp.WithDescription("Estimate the user's current cognitive state from session tracking: phase (warming_up, focused, deep_work, extended_session), session length, and whether now is historically a typical work time."),
	)
	return tool, s.handleCognitiveState
}

func (s *Server) handleCognitiveState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.trackCall()
	return marshalResult(s.analyzer.CognitiveState())
}

// analyze_work_patterns
func (s *Server) workPatternsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("analyze_work_patterns",
		mcp.WithDescription("Analyze tracked work patterns over a lookback window: hourly session histogram, peak hours, session length statistics, sleep and lunch patterns."),
		mcp.WithNumber("lookback_days", mcp.Description("Days of history to analyze (default 7)")),
	)
	return tool, s.handleWorkPatterns
}

func (s *Server) handleWorkPatterns(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.trackCall()
	lookback := request.GetInt("lookback_days", analytics.DefaultLookbackDays)
	return marshalResult(s.analyzer.WorkPatterns(lookback))
}

// predict_availability
func (s *Server) availabilityTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("predict_availability",
		mcp.WithDescription("Predict whether the user is currently available, and if away, why (sleep, lunch, extended break, short break) and when they are likely to return."),
	)
	return tool, s.handleAvailability
}

func (s *Server) handleAvailability(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.trackCall()
	return marshalResult(s.analyzer.PredictAvailability())
}

// marshalResult serializes an analytics result as a JSON text result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
