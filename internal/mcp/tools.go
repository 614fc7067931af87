package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/claude/setops/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetSchedule = mcp.NewTool("get_schedule",
	mcp.WithDescription("Get a gym's current 14-day setting schedule. Each day lists rope and boulder entries with resolved walls, setter names and setter counts."),
	mcp.WithString("gym", mcp.Required(), mcp.Description("Gym code (e.g. DSN)")),
)

var toolListUnrecognizedWalls = mcp.NewTool("list_unrecognized_walls",
	mcp.WithDescription("List schedule labels that did not resolve to a known wall, grouped by gym. Assign each one a type with assign_wall_mapping."),
	mcp.WithString("gym", mcp.Description("Restrict to one gym code. Defaults to all gyms.")),
)

var toolAssignWallMapping = mcp.NewTool("assign_wall_mapping",
	mcp.WithDescription("Teach the resolver what an unrecognized label is. The schedule is rebuilt immediately and future uploads resolve the label."),
	mcp.WithString("gym", mcp.Required(), mcp.Description("Gym code")),
	mcp.WithString("label", mcp.Required(), mcp.Description("The label exactly as listed by list_unrecognized_walls")),
	mcp.WithString("type", mcp.Required(), mcp.Description("What the label is"), mcp.Enum("rope", "boulder", "ignored")),
)

var toolGetShiftAnalysis = mcp.NewTool("get_shift_analysis",
	mcp.WithDescription("Setter productivity analysis over imported climbs: per-setter efficiency, best crew pairs, weekday rhythm, crew-size predictors and monthly totals."),
	mcp.WithString("gym", mcp.Description("Gym code, or ALL. Defaults to all gyms.")),
	mcp.WithNumber("top", mcp.Description("Number of crew pairs to return. Defaults to 5.")),
	mcp.WithNumber("min_shifts", mcp.Description("Minimum shared shifts for a pair to qualify. Defaults to 3.")),
)

var toolGetWallTargets = mcp.NewTool("get_wall_targets",
	mcp.WithDescription("Get a gym's per-wall production targets and orbit groupings with derived weekly production, shifts and hours."),
	mcp.WithString("gym", mcp.Required(), mcp.Description("Gym code")),
)

// --- Tool handlers ---

func (h *handlers) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gym, err := req.RequireString("gym")
	if err != nil {
		return mcp.NewToolResultError("gym parameter is required"), nil
	}

	sched, err := h.ds.Schedule(ctx, gym)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sched)
}

func (h *handlers) listUnrecognizedWalls(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unrec, err := h.ds.Unrecognized(ctx)
	if err != nil {
		h.log.Error("mcp list_unrecognized_walls", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if gym := strings.ToUpper(req.GetString("gym", "")); gym != "" && gym != "ALL" {
		unrec = map[string][]string{gym: unrec[gym]}
	}
	return jsonResult(unrec)
}

func (h *handlers) assignWallMapping(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gym, err := req.RequireString("gym")
	if err != nil {
		return mcp.NewToolResultError("gym parameter is required"), nil
	}
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError("label parameter is required"), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type parameter is required"), nil
	}
	d, err := models.ParseDiscipline(typ)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.ds.AssignWallMapping(ctx, gym, label, d); err != nil {
		h.log.Error("mcp assign_wall_mapping", "error", err)
		return mcp.NewToolResultError("assign failed: " + err.Error()), nil
	}
	h.log.Info("wall mapping assigned", "gym", gym, "label", label, "type", d)

	unrec, err := h.ds.Unrecognized(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"gym":          gym,
		"label":        label,
		"type":         d,
		"unrecognized": unrec,
	})
}

func (h *handlers) getShiftAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gym := req.GetString("gym", "")
	top := req.GetInt("top", 5)
	minShifts := req.GetInt("min_shifts", 3)

	res, err := h.ds.ShiftAnalysis(ctx, gym, top, minShifts)
	if err != nil {
		h.log.Error("mcp get_shift_analysis", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) getWallTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gym, err := req.RequireString("gym")
	if err != nil {
		return mcp.NewToolResultError("gym parameter is required"), nil
	}

	t, err := h.ds.WallTargets(ctx, gym)
	if err != nil {
		h.log.Error("mcp get_wall_targets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(t)
}

func (h *handlers) unrecognizedResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	unrec, err := h.ds.Unrecognized(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(unrec)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
