package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmhodges/clock"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "medication-reminder"
	serverVersion = "1.0.0"
)

// Server is the MCP server for medication reminders.
type Server struct {
	mcpServer *server.MCPServer
	store     *Store
	clk       clock.Clock
}

// NewServer creates a new MCP server backed by the given store.
func NewServer(store *Store, clk clock.Clock) *Server {
	if clk == nil {
		clk = clock.New()
	}
	s := &Server{
		store: store,
		clk:   clk,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// AddReminderTool describes the add_reminder tool. Chat assistants offer the
// same definition to the model.
func AddReminderTool() mcp.Tool {
	return mcp.NewTool("add_reminder",
		mcp.WithDescription("Add a medication reminder. The first dose is available immediately."),
		mcp.WithString("medication_name", mcp.Required(), mcp.Description("Medication name")),
		mcp.WithString("dosage", mcp.Required(), mcp.Description("Dosage, e.g. 500mg")),
		mcp.WithString("frequency", mcp.Required(), mcp.Description("One of: "+strings.Join(Frequencies, ", "))),
		mcp.WithNumber("duration", mcp.Description("Course length in days (optional)")),
		mcp.WithString("notes", mcp.Description("Optional notes")),
	)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(AddReminderTool(), s.handleAddReminder)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List active medication reminders with their cooldown status"),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_reminder",
			mcp.WithDescription("Get a single reminder by id or unique id prefix"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder id")),
		),
		s.handleGetReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("take_dose",
			mcp.WithDescription("Record that a dose was taken now and start the cooldown"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder id")),
		),
		s.handleTakeDose,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reminder_status",
			mcp.WithDescription("Report whether the next dose is ready or how long remains"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder id")),
		),
		s.handleStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields (medication_name, dosage, frequency, duration, notes, is_active)"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder id")),
			mcp.WithString("medication_name", mcp.Description("New medication name")),
			mcp.WithString("dosage", mcp.Description("New dosage")),
			mcp.WithString("frequency", mcp.Description("New frequency")),
			mcp.WithNumber("duration", mcp.Description("New duration in days")),
			mcp.WithString("notes", mcp.Description("New notes")),
			mcp.WithBoolean("is_active", mcp.Description("Set false to hide the reminder from listings")),
		),
		s.handleUpdateReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder id")),
		),
		s.handleDeleteReminder,
	)
}

// statusView is a reminder plus its evaluated cooldown state.
type statusView struct {
	Reminder
	Status    string  `json:"status"`
	Remaining string  `json:"remaining,omitempty"`
	Progress  float64 `json:"progress"`
}

func (s *Server) view(r Reminder) statusView {
	now := s.clk.Now()
	st := StatusAt(now, r.NextTime)
	v := statusView{
		Reminder: r,
		Status:   st.State.String(),
		Progress: Progress(now, r.NextTime, r.Frequency),
	}
	if st.State == CountingDown {
		v.Remaining = FormatRemaining(st.Remaining)
	}
	return v
}

func jsonResult(v any) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

// saveWarning turns a persistence failure into a note on an otherwise
// successful result.
func saveWarning(err error) string {
	if errors.Is(err, ErrSave) {
		return fmt.Sprintf("\nwarning: change kept in memory but not written to disk: %v", err)
	}
	return ""
}

func (s *Server) resolve(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	raw := req.GetString("id", "")
	if raw == "" {
		return "", mcp.NewToolResultError("id is required")
	}
	id, err := s.store.Resolve(raw)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return id, nil
}

func (s *Server) handleAddReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := NewReminder{
		MedicationName: strings.TrimSpace(req.GetString("medication_name", "")),
		Dosage:         strings.TrimSpace(req.GetString("dosage", "")),
		Frequency:      strings.TrimSpace(req.GetString("frequency", "")),
		Duration:       int(req.GetFloat("duration", 0)),
		Notes:          req.GetString("notes", ""),
	}

	if in.MedicationName == "" {
		return mcp.NewToolResultError("medication_name is required"), nil
	}
	if in.Dosage == "" {
		return mcp.NewToolResultError("dosage is required"), nil
	}
	if in.Frequency == "" {
		return mcp.NewToolResultError("frequency is required"), nil
	}
	if label, ok := NormalizeFrequency(in.Frequency); ok {
		in.Frequency = label
	}
	if in.Duration < 0 {
		return mcp.NewToolResultError("duration must not be negative"), nil
	}

	id, err := s.store.Add(in)
	r, _ := s.store.Get(id)

	res := jsonResult(s.view(r))
	if w := saveWarning(err); w != "" {
		res.Content = append(res.Content, mcp.NewTextContent(w))
	}
	return res, nil
}

func (s *Server) handleListReminders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminders := s.store.ListActive()
	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	views := make([]statusView, 0, len(reminders))
	for _, r := range reminders {
		views = append(views, s.view(r))
	}
	return jsonResult(views), nil
}

func (s *Server) handleGetReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolve(req)
	if errRes != nil {
		return errRes, nil
	}
	r, ok := s.store.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("reminder %s not found", id)), nil
	}
	return jsonResult(s.view(r)), nil
}

func (s *Server) handleTakeDose(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolve(req)
	if errRes != nil {
		return errRes, nil
	}

	r, err := s.store.TakeDueDose(id)
	switch {
	case errors.Is(err, ErrNotDue):
		return mcp.NewToolResultError(err.Error()), nil
	case errors.Is(err, ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("reminder %s not found", id)), nil
	}

	res := jsonResult(s.view(r))
	if w := saveWarning(err); w != "" {
		res.Content = append(res.Content, mcp.NewTextContent(w))
	}
	return res, nil
}

func (s *Server) handleStatus(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolve(req)
	if errRes != nil {
		return errRes, nil
	}
	r, ok := s.store.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("reminder %s not found", id)), nil
	}

	st := StatusAt(s.clk.Now(), r.NextTime)
	if st.State == Ready {
		return mcp.NewToolResultText(fmt.Sprintf("%s %s is ready to take.", r.MedicationName, r.Dosage)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s: next dose in %s.",
		r.MedicationName, r.Dosage, FormatRemaining(st.Remaining))), nil
}

func (s *Server) handleUpdateReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolve(req)
	if errRes != nil {
		return errRes, nil
	}

	var fields UpdateFields
	args := req.GetArguments()

	if v := req.GetString("medication_name", ""); v != "" {
		fields.MedicationName = &v
	}
	if v := req.GetString("dosage", ""); v != "" {
		fields.Dosage = &v
	}
	if v := req.GetString("frequency", ""); v != "" {
		if label, ok := NormalizeFrequency(v); ok {
			v = label
		}
		fields.Frequency = &v
	}
	if _, ok := args["duration"]; ok {
		d := int(req.GetFloat("duration", 0))
		if d < 0 {
			return mcp.NewToolResultError("duration must not be negative"), nil
		}
		fields.Duration = &d
	}
	if _, ok := args["notes"]; ok {
		v := req.GetString("notes", "")
		fields.Notes = &v
	}
	if _, ok := args["is_active"]; ok {
		v := req.GetBool("is_active", true)
		fields.IsActive = &v
	}

	ok, err := s.store.Update(id, fields)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("reminder %s not found", id)), nil
	}

	r, _ := s.store.Get(id)
	res := jsonResult(s.view(r))
	if w := saveWarning(err); w != "" {
		res.Content = append(res.Content, mcp.NewTextContent(w))
	}
	return res, nil
}

func (s *Server) handleDeleteReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolve(req)
	if errRes != nil {
		return errRes, nil
	}

	ok, err := s.store.Delete(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("reminder %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.%s", id, saveWarning(err))), nil
}
