package journal

import (
	"context"
	"errors"
	"fmt"

	"wayfarer/internal/generation"
	"wayfarer/internal/models"
	"wayfarer/internal/providers"
	storage "wayfarer/internal/storage/interfaces"
	tasks "wayfarer/internal/tasks/interfaces"
)

// DayEntries is everything the api returns for one journal date.
type DayEntries struct {
	Date    string                    `json:"date"`
	Entries []models.ConversationTurn `json:"entries"`
	Summary string                    `json:"summary,omitempty"`
	Images  []string                  `json:"images,omitempty"`
}

type DailySummaryInterface interface {
	// SaveEntry files a manually written journal entry and schedules a
	// refresh of that date's summary.
	SaveEntry(ctx context.Context, userID string, turn models.ConversationTurn) error
	// RegenerateDailySummary recomputes the rollup for one date from
	// whatever the date's turns currently hold. Running it again after
	// new turns arrive produces a summary that reflects them.
	RegenerateDailySummary(ctx context.Context, userID, date string) error
	GetEntriesForDate(ctx context.Context, userID, date string) (DayEntries, error)
}

type DailySummaryGenerator struct {
	store     storage.DocumentStoreInterface
	generator generation.TextGeneratorInterface
	queue     tasks.TaskQueueInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewDailySummaryGenerator(
	store storage.DocumentStoreInterface,
	generator generation.TextGeneratorInterface,
	queue tasks.TaskQueueInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) DailySummaryInterface {
	return &DailySummaryGenerator{
		store:     store,
		generator: generator,
		queue:     queue,
		logger:    logger,
		metrics:   metrics,
	}
}

func (d *DailySummaryGenerator) SaveEntry(ctx context.Context, userID string, turn models.ConversationTurn) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	date, err := models.DateKey(turn.Timestamp)
	if err != nil {
		return fmt.Errorf("cannot bucket journal entry: %w", err)
	}
	if turn.EntryType == "" {
		turn.EntryType = "manual"
	}
	if err := writeTurn(ctx, d.store, userID, turn, date); err != nil {
		return err
	}
	d.queue.Enqueue("daily:"+userID+":"+date, func(ctx context.Context) error {
		return d.RegenerateDailySummary(ctx, userID, date)
	})
	return nil
}

func (d *DailySummaryGenerator) RegenerateDailySummary(ctx context.Context, userID, date string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if !models.IsDateKey(date) {
		return fmt.Errorf("invalid date %q", date)
	}
	doc, err := d.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return err
	}
	jd := models.JournalFromData(doc.Data)
	turns := jd.TurnsForDate(date)
	if len(turns) == 0 {
		return nil
	}

	// Diary text is the richest source; fall back to the conversation
	// summary and finally the raw response.
	texts := make([]string, 0, len(turns))
	for _, turn := range turns {
		text := turn.Diary
		if text == "" {
			text = turn.Summary
		}
		if text == "" {
			text = turn.Response
		}
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil
	}

	summary, err := d.generator.Generate(ctx, BuildDailySummaryPrompt(date, texts))
	if errors.Is(err, generation.ErrGenerationDisabled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("daily summary generation failed: %w", err)
	}
	summary = StripMarkdown(summary)
	if summary == "" {
		return fmt.Errorf("daily summary generation produced empty text")
	}

	if jd.Legacy {
		jd.Summaries[date] = summary
		if err := d.store.SetDocument(ctx, journalCollection, userID, jd.ToData(), false); err != nil {
			return err
		}
	} else {
		path := models.SummariesField + "." + date
		if err := d.store.UpdateField(ctx, journalCollection, userID, path, summary); err != nil {
			return err
		}
	}

	d.metrics.IncDailySummaries()
	d.logger.Infof(providers.TypeTask, "Generated daily summary for user %s on %s", userID, date)
	return nil
}

func (d *DailySummaryGenerator) GetEntriesForDate(ctx context.Context, userID, date string) (DayEntries, error) {
	if userID == "" {
		return DayEntries{}, fmt.Errorf("user id is required")
	}
	if !models.IsDateKey(date) {
		return DayEntries{}, fmt.Errorf("invalid date %q", date)
	}
	doc, err := d.store.GetDocument(ctx, journalCollection, userID)
	if err != nil {
		return DayEntries{}, err
	}
	jd := models.JournalFromData(doc.Data)
	return DayEntries{
		Date:    date,
		Entries: jd.TurnsForDate(date),
		Summary: jd.Summaries[date],
		Images:  jd.ImagesForDate(date),
	}, nil
}
