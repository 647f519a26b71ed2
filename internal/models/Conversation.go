package models

import (
	"fmt"
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"regexp"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a session's in-memory history.
// Immutable once appended.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ConversationTurn is the persisted record of one user/assistant exchange.
// The timestamp doubles as the turn's identity within a user's journal,
// so it must be unique per user. Diary is attached later by the background
// aggregator, exactly once.
type ConversationTurn struct {
	Message      string  `json:"message"`
	Response     string  `json:"response"`
	Timestamp    string  `json:"timestamp"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	LocationName string  `json:"location_name,omitempty"`
	PhotoURL     string  `json:"photo_url,omitempty"`
	SessionID    string  `json:"session_id,omitempty"`
	EntryType    string  `json:"entry_type,omitempty"`
	Summary      string  `json:"summary,omitempty"`
	Diary        string  `json:"diary,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", ts)
}

// DateKey returns the date bucket key for a timestamp. A turn cannot be
// filed without a valid timestamp, so this is the one fail-fast error on
// the save path.
func DateKey(ts string) (string, error) {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

var tsKeyReplacer = strings.NewReplacer(":", "-", ".", "-", "+", "-", " ", "-")

// TimestampKey sanitizes a timestamp for use as a map key and as a
// dotted-path segment (the path separator is "." and must not appear).
func TimestampKey(ts string) string {
	return tsKeyReplacer.Replace(strings.TrimSpace(ts))
}

func IsDateKey(s string) bool {
	return dateKeyRe.MatchString(s)
}

// TurnToMap converts a turn into the generic map shape stored in a
// document. Zero-value optional fields are omitted.
func TurnToMap(t ConversationTurn) map[string]interface{} {
	data, _ := json.Marshal(t)
	var m map[string]interface{}
	_ = json.Unmarshal(data, &m)
	return m
}

// TurnFromMap decodes a stored turn, tolerating the legacy field names
// (photoUrl, "diary note", original_summary) older documents carry.
func TurnFromMap(m map[string]interface{}) ConversationTurn {
	t := ConversationTurn{
		Message:      cast.ToString(m["message"]),
		Response:     cast.ToString(m["response"]),
		Timestamp:    cast.ToString(m["timestamp"]),
		Latitude:     cast.ToFloat64(m["latitude"]),
		Longitude:    cast.ToFloat64(m["longitude"]),
		LocationName: cast.ToString(m["location_name"]),
		PhotoURL:     cast.ToString(m["photo_url"]),
		SessionID:    cast.ToString(m["session_id"]),
		EntryType:    cast.ToString(m["entry_type"]),
		Summary:      cast.ToString(m["summary"]),
		Diary:        cast.ToString(m["diary"]),
	}
	if t.PhotoURL == "" {
		t.PhotoURL = cast.ToString(m["photoUrl"])
	}
	if t.Diary == "" {
		t.Diary = cast.ToString(m["diary note"])
	}
	if t.Summary == "" {
		t.Summary = cast.ToString(m["original_summary"])
	}
	return t
}
