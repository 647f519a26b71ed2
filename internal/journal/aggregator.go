package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wayfarer/internal/generation"
	"wayfarer/internal/models"
	"wayfarer/internal/providers"
	storage "wayfarer/internal/storage/interfaces"
	tasks "wayfarer/internal/tasks/interfaces"
)

const (
	journalCollection = "journal"

	// diaryContextEntries is how many previous diary texts are fed back
	// into the prompt for continuity.
	diaryContextEntries = 3

	// pendingTextLimit caps how many pending turns are stitched together
	// when no summarized turn is available.
	pendingTextLimit = 5
)

// DailyLocations is the per-date location digest served by the api.
type DailyLocations struct {
	Date      string   `json:"date"`
	Locations []string `json:"locations"`
	Turns     int      `json:"turns"`
}

type AggregatorInterface interface {
	// SaveConversationEntry files a turn into the user's journal under its
	// timestamp's date and schedules diary generation.
	SaveConversationEntry(ctx context.Context, userID string, turn models.ConversationTurn) error
	// RegenerateDiary writes a diary entry for the newest turn that still
	// lacks one. It is safe to run concurrently with saves and with itself.
	RegenerateDiary(ctx context.Context, userID string) error
	GetDailyConversations(ctx context.Context, userID, dateFilter string) (map[string][]models.ConversationTurn, error)
	GetConversationLocations(ctx context.Context, userID string) ([]DailyLocations, error)
	// UpdateJournalEntry edits the summary and/or diary of the turn with
	// the given timestamp. Returns false when no such turn exists.
	UpdateJournalEntry(ctx context.Context, userID, timestamp, summary, diary string) (bool, error)
}

type Aggregator struct {
	store     storage.DocumentStoreInterface
	generator generation.TextGeneratorInterface
	queue     tasks.TaskQueueInterface
	daily     DailySummaryInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewAggregator(
	store storage.DocumentStoreInterface,
	generator generation.TextGeneratorInterface,
	queue tasks.TaskQueueInterface,
	daily DailySummaryInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) AggregatorInterface {
	return &Aggregator{
		store:     store,
		generator: generator,
		queue:     queue,
		daily:     daily,
		logger:    logger,
		metrics:   metrics,
	}
}

func (a *Aggregator) SaveConversationEntry(ctx context.Context, userID string, turn models.ConversationTurn) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	date, err := models.DateKey(turn.Timestamp)
	if err != nil {
		return fmt.Errorf("cannot bucket conversation turn: %w", err)
	}
	if turn.EntryType == "" {
		turn.EntryType = "conversation"
	}
	if err := writeTurn(ctx, a.store, userID, turn, date); err != nil {
		return err
	}
	a.queue.Enqueue("diary:"+userID, func(ctx context.Context) error {
		return a.RegenerateDiary(ctx, userID)
	})
	return nil
}

func (a *Aggregator) RegenerateDiary(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	doc, err := a.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return err
	}
	jd := models.JournalFromData(doc.Data)
	pending := jd.PendingDiary()
	if len(pending) == 0 {
		return nil
	}

	// Prefer the newest pending turn that already carries a conversation
	// summary. Without one, stitch together what the latest pending turns
	// said and write the diary onto the newest of them.
	target := pending[0]
	conversationText := ""
	for _, turn := range pending {
		if turn.Summary != "" {
			target = turn
			conversationText = turn.Summary
			break
		}
	}
	if conversationText == "" {
		texts := make([]string, 0, pendingTextLimit)
		for _, turn := range pending {
			text := turn.Summary
			if text == "" {
				text = turn.Response
			}
			if text == "" {
				continue
			}
			texts = append(texts, text)
			if len(texts) == pendingTextLimit {
				break
			}
		}
		if len(texts) == 0 {
			a.logger.Debugf(providers.TypeTask, "No conversation text to journal for user %s yet", userID)
			return nil
		}
		conversationText = strings.Join(texts, " | ")
	}

	date, err := models.DateKey(target.Timestamp)
	if err != nil {
		return fmt.Errorf("pending turn has an invalid timestamp: %w", err)
	}

	prompt := BuildDiaryPrompt(conversationText, jd.RecentDiaries(diaryContextEntries))
	diary, err := a.generator.Generate(ctx, prompt)
	if errors.Is(err, generation.ErrGenerationDisabled) {
		a.logger.Debugf(providers.TypeTask, "Generation disabled, diary for user %s stays pending", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("diary generation failed: %w", err)
	}
	diary = StripMarkdown(diary)
	if diary == "" {
		return fmt.Errorf("diary generation produced empty text")
	}

	if err := a.attachDiary(ctx, userID, target.Timestamp, diary); err != nil {
		return err
	}

	a.metrics.IncDiariesGenerated()
	a.logger.Infof(providers.TypeTask, "Generated diary entry for user %s on %s", userID, date)

	a.queue.Enqueue("daily:"+userID+":"+date, func(ctx context.Context) error {
		return a.daily.RegenerateDailySummary(ctx, userID, date)
	})
	return nil
}

// attachDiary re-reads the document before writing: generation takes
// seconds and turns keep arriving meanwhile. If another run already
// attached a diary to this turn, keep the existing one.
func (a *Aggregator) attachDiary(ctx context.Context, userID, timestamp, diary string) error {
	doc, err := a.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return err
	}
	jd := models.JournalFromData(doc.Data)
	date, tsKey, current, ok := jd.FindByTimestamp(timestamp)
	if !ok {
		a.logger.Warnf(providers.TypeTask, "Turn %s disappeared before its diary could be attached", timestamp)
		return nil
	}
	if current.Diary != "" {
		return nil
	}
	if jd.Legacy {
		current.Diary = diary
		jd.Days[date][tsKey] = current
		return a.store.SetDocument(ctx, journalCollection, userID, jd.ToData(), false)
	}
	return a.store.UpdateField(ctx, journalCollection, userID, date+"."+tsKey+".diary", diary)
}

func (a *Aggregator) GetDailyConversations(ctx context.Context, userID, dateFilter string) (map[string][]models.ConversationTurn, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	doc, err := a.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return nil, err
	}
	jd := models.JournalFromData(doc.Data)

	result := make(map[string][]models.ConversationTurn)
	if dateFilter != "" {
		if turns := jd.TurnsForDate(dateFilter); len(turns) > 0 {
			result[dateFilter] = turns
		}
		return result, nil
	}
	for date := range jd.Days {
		result[date] = jd.TurnsForDate(date)
	}
	return result, nil
}

func (a *Aggregator) GetConversationLocations(ctx context.Context, userID string) ([]DailyLocations, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	doc, err := a.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return nil, err
	}
	jd := models.JournalFromData(doc.Data)

	out := make([]DailyLocations, 0, len(jd.Days))
	for _, date := range jd.Dates() {
		turns := jd.TurnsForDate(date)
		seen := make(map[string]bool)
		locations := make([]string, 0)
		for _, turn := range turns {
			if turn.LocationName == "" || seen[turn.LocationName] {
				continue
			}
			seen[turn.LocationName] = true
			locations = append(locations, turn.LocationName)
		}
		out = append(out, DailyLocations{Date: date, Locations: locations, Turns: len(turns)})
	}
	return out, nil
}

func (a *Aggregator) UpdateJournalEntry(ctx context.Context, userID, timestamp, summary, diary string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("user id is required")
	}
	if summary == "" && diary == "" {
		return false, fmt.Errorf("nothing to update")
	}
	doc, err := a.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return false, err
	}
	jd := models.JournalFromData(doc.Data)
	date, tsKey, turn, ok := jd.FindByTimestamp(timestamp)
	if !ok {
		return false, nil
	}
	if summary != "" {
		turn.Summary = summary
	}
	if diary != "" {
		turn.Diary = diary
	}
	if jd.Legacy {
		jd.Days[date][tsKey] = turn
		if err := a.store.SetDocument(ctx, journalCollection, userID, jd.ToData(), false); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := a.store.UpdateField(ctx, journalCollection, userID, date+"."+tsKey, models.TurnToMap(turn)); err != nil {
		return false, err
	}
	return true, nil
}

// writeTurn files one turn. Canonical documents take a field-level update
// so concurrent writers never clobber each other; legacy documents get
// normalized and rewritten whole, which migrates them.
func writeTurn(ctx context.Context, store storage.DocumentStoreInterface, userID string, turn models.ConversationTurn, date string) error {
	doc, err := store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return err
	}
	jd := models.JournalFromData(doc.Data)
	if jd.Legacy {
		if err := jd.SetTurn(turn); err != nil {
			return err
		}
		return store.SetDocument(ctx, journalCollection, userID, jd.ToData(), false)
	}
	path := date + "." + models.TimestampKey(turn.Timestamp)
	return store.UpdateField(ctx, journalCollection, userID, path, models.TurnToMap(turn))
}
