package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/tracker"
)

// Handler bridges tracker events to dashboard broadcasts. The serve
// daemon wires it to the tracker's tick and notification callbacks and
// calls the On* methods after each mutation.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnTimerTick broadcasts the running timer's snapshot. It matches the
// tracker's tick callback signature.
func (h *Handler) OnTimerTick(snap tracker.TimerSnapshot) {
	h.send(MessageTypeTimerTick, snap)
}

// OnSessionChanged broadcasts one session change and refreshed stats.
func (h *Handler) OnSessionChanged(action string, s *schema.WorkSession, tr *tracker.Tracker) {
	data := SessionUpdateData{Action: action}
	if s != nil {
		data.SessionID = s.ID
		data.TaskName = s.TaskName
		data.Duration = s.Duration
		data.Earnings = s.Earnings
	}
	h.logger.Printf("Session %s: %s", action, data.SessionID)
	h.send(MessageTypeSessionUpdate, data)
	h.BroadcastStats(tr)
}

// OnTodoChanged broadcasts one todo change.
func (h *Handler) OnTodoChanged(action string, item *schema.TodoItem) {
	data := TodoUpdateData{Action: action}
	if item != nil {
		data.TodoID = item.ID
		data.Text = item.Text
		data.Completed = item.Completed
	}
	h.logger.Printf("Todo %s: %s", action, data.TodoID)
	h.send(MessageTypeTodoUpdate, data)
}

// OnSettingsChanged broadcasts the new settings record.
func (h *Handler) OnSettingsChanged(settings schema.UserSettings) {
	h.send(MessageTypeSettingsUpdate, settings)
}

// OnNotification forwards a tracker notification to clients. It matches
// the tracker's notify callback signature.
func (h *Handler) OnNotification(n tracker.Notification) {
	level := "info"
	if n.Level == tracker.LevelError {
		level = "error"
	}
	h.send(MessageTypeNotice, NoticeData{Level: level, Message: n.Message})
}

// BroadcastStats sends current aggregate statistics to all clients.
func (h *Handler) BroadcastStats(tr *tracker.Tracker) {
	data := StatsData{
		TotalMs:       tr.TotalTime().Milliseconds(),
		TotalEarnings: tr.TotalEarnings(),
		SessionCount:  len(tr.Sessions()),
		TodoCount:     len(tr.Todos()),
		Principal:     tr.Principal(),
	}
	h.send(MessageTypeStats, data)
}

func (h *Handler) send(typ MessageType, payload interface{}) {
	dataJSON, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
