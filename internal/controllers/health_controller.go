package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"time"
	"wayfarer/internal/services"
	"wayfarer/internal/tasks/interfaces"
)

type HealthController struct {
	chat      services.ChatServiceInterface
	queue     interfaces.TaskQueueInterface
	startTime time.Time
}

type healthResponse struct {
	Status         string  `json:"status"`
	Uptime         string  `json:"uptime"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	ActiveSessions int     `json:"active_sessions"`
	QueuedTasks    int     `json:"queued_tasks"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:         "ok",
		Uptime:         formatDuration(uptime),
		UptimeSeconds:  uptime.Seconds(),
		ActiveSessions: hc.chat.ActiveSessions(),
		QueuedTasks:    hc.queue.Len(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(chat services.ChatServiceInterface, queue interfaces.TaskQueueInterface) *HealthController {
	return &HealthController{
		chat:      chat,
		queue:     queue,
		startTime: time.Now(),
	}
}
