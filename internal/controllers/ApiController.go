package controllers

import (
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"net/http"
	"time"
	"wayfarer/internal/journal"
	"wayfarer/internal/models"
	"wayfarer/internal/providers"
	"wayfarer/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger     providers.Logger
	cache      providers.CacheProviderInterface
	chat       services.ChatServiceInterface
	aggregator journal.AggregatorInterface
	daily      journal.DailySummaryInterface
	profile    services.ProfileServiceInterface
}

func NewApiController(
	logger providers.Logger,
	cache providers.CacheProviderInterface,
	chat services.ChatServiceInterface,
	aggregator journal.AggregatorInterface,
	daily journal.DailySummaryInterface,
	profile services.ProfileServiceInterface,
) *ApiController {
	return &ApiController{
		logger:     logger,
		cache:      cache,
		chat:       chat,
		aggregator: aggregator,
		daily:      daily,
		profile:    profile,
	}
}

func getUserID(r *http.Request) string {
	return r.URL.Query().Get("u")
}

func getSessionID(r *http.Request) string {
	return r.URL.Query().Get("s")
}

func (ac *ApiController) respondJSON(w http.ResponseWriter, status int, result any) {
	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "Failed to compute response for %s: %s", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// RecordTurn ingests one conversation exchange produced by the companion
// pipeline and answers with the turn as stored, defaults filled in.
func (ac *ApiController) RecordTurn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	var turn models.ConversationTurn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if turn.Message == "" && turn.Response == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if turn.Timestamp != "" {
		if _, err := models.ParseTimestamp(turn.Timestamp); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
	}

	stored, err := ac.chat.RecordTurn(r.Context(), userID, turn)
	if err != nil {
		ac.logger.Errorf(providers.TypePost, "Failed to record turn for user %s: %s", userID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.respondJSON(w, http.StatusCreated, stored)
}

// GetJournal returns date-bucketed conversations, optionally filtered to
// one date with ?date=YYYY-MM-DD.
func (ac *ApiController) GetJournal(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date != "" && !models.IsDateKey(date) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "journal:"+userID+":"+date, func() (any, error) {
		return ac.aggregator.GetDailyConversations(r.Context(), userID, date)
	})
}

func (ac *ApiController) GetLocations(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "locations:"+userID, func() (any, error) {
		return ac.aggregator.GetConversationLocations(r.Context(), userID)
	})
}

func (ac *ApiController) GetDayEntries(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	date := r.URL.Query().Get("date")
	if userID == "" || !models.IsDateKey(date) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "day:"+userID+":"+date, func() (any, error) {
		return ac.daily.GetEntriesForDate(r.Context(), userID, date)
	})
}

// SaveEntry stores a manually written journal entry.
func (ac *ApiController) SaveEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	var turn models.ConversationTurn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if turn.Diary == "" && turn.Message == "" && turn.Response == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if turn.Timestamp == "" {
		turn.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	} else if _, err := models.ParseTimestamp(turn.Timestamp); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := ac.daily.SaveEntry(r.Context(), userID, turn); err != nil {
		ac.logger.Errorf(providers.TypePost, "Failed to save journal entry for user %s: %s", userID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// UpdateJournalEntry edits the summary and/or diary of an existing turn,
// addressed by its timestamp.
func (ac *ApiController) UpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	var payload struct {
		Timestamp string `json:"timestamp"`
		Summary   string `json:"summary"`
		Diary     string `json:"diary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if payload.Timestamp == "" || (payload.Summary == "" && payload.Diary == "") {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	updated, err := ac.aggregator.UpdateJournalEntry(r.Context(), userID, payload.Timestamp, payload.Summary, payload.Diary)
	if err != nil {
		ac.logger.Errorf(providers.TypePost, "Failed to update journal entry for user %s: %s", userID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ac.respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (ac *ApiController) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.respondJSON(w, http.StatusOK, map[string]any{"sessions": ac.chat.UserSessions(userID)})
}

func (ac *ApiController) GetSessionInfo(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := getUserID(r), getSessionID(r)
	if userID == "" || sessionID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	info, ok := ac.chat.SessionInfo(userID, sessionID)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ac.respondJSON(w, http.StatusOK, info)
}

func (ac *ApiController) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := getUserID(r), getSessionID(r)
	if userID == "" || sessionID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	limit := cast.ToInt(r.URL.Query().Get("limit"))
	messages := ac.chat.SessionMessages(userID, sessionID, limit)
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	ac.respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (ac *ApiController) GetSessionDigest(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := getUserID(r), getSessionID(r)
	if userID == "" || sessionID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.respondJSON(w, http.StatusOK, map[string]string{"digest": ac.chat.SessionDigest(userID, sessionID)})
}

func (ac *ApiController) ClearSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := getUserID(r), getSessionID(r)
	if userID == "" || sessionID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !ac.chat.ClearSession(userID, sessionID) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ac.respondJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (ac *ApiController) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := getUserID(r), getSessionID(r)
	if userID == "" || sessionID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !ac.chat.DeleteSession(userID, sessionID) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ac.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (ac *ApiController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	profile, err := ac.profile.GetProfile(r.Context(), userID)
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "Failed to load profile for user %s: %s", userID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.respondJSON(w, http.StatusOK, profile)
}

func (ac *ApiController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil || len(updates) == 0 {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	profile, err := ac.profile.UpdateProfile(r.Context(), userID, updates)
	if err != nil {
		ac.logger.Errorf(providers.TypePost, "Failed to update profile for user %s: %s", userID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.respondJSON(w, http.StatusOK, profile)
}

func (ac *ApiController) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ac.profile.DeleteProfile(r.Context(), userID); err != nil {
		ac.logger.Errorf(providers.TypePost, "Failed to delete profile for user %s: %s", userID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (ac *ApiController) GetVisitedPlaces(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, "places:"+userID, func() (any, error) {
		places, err := ac.profile.VisitedPlaces(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"places": places}, nil
	})
}
