package journal

import (
	"context"
	"errors"
	"testing"
	"wayfarer/internal/generation"
	"wayfarer/internal/models"
	"wayfarer/internal/storage"
	"wayfarer/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySummaryGenerator_SaveEntry_DefaultsManualEntryType(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})
	ctx := context.Background()

	err := f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Message:   "wrote this one myself",
		Timestamp: "2026-08-21T10:00:00Z",
	})
	require.NoError(t, err)

	day := f.journalData(t, "u1")["2026-08-21"].(map[string]interface{})
	turn := day["2026-08-21T10-00-00Z"].(map[string]interface{})
	assert.Equal(t, "manual", turn["entry_type"])
}

func TestDailySummaryGenerator_SaveEntry_KeepsExplicitEntryType(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})

	err := f.daily.SaveEntry(context.Background(), "u1", models.ConversationTurn{
		Message:   "imported note",
		EntryType: "import",
		Timestamp: "2026-08-21T10:00:00Z",
	})
	require.NoError(t, err)

	day := f.journalData(t, "u1")["2026-08-21"].(map[string]interface{})
	turn := day["2026-08-21T10-00-00Z"].(map[string]interface{})
	assert.Equal(t, "import", turn["entry_type"])
}

func TestDailySummaryGenerator_SaveEntry_SchedulesDailyTask(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})

	require.NoError(t, f.daily.SaveEntry(context.Background(), "u1", models.ConversationTurn{
		Message:   "note",
		Timestamp: "2026-08-21T10:00:00Z",
	}))

	assert.Equal(t, []string{"daily:u1:2026-08-21"}, f.queue.TaskNames())
}

func TestDailySummaryGenerator_SaveEntry_RequiresUser(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})
	err := f.daily.SaveEntry(context.Background(), "", models.ConversationTurn{
		Timestamp: "2026-08-21T10:00:00Z",
	})
	assert.Error(t, err)
}

func TestDailySummaryGenerator_SaveEntry_RejectsBadTimestamp(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})
	err := f.daily.SaveEntry(context.Background(), "u1", models.ConversationTurn{
		Message:   "note",
		Timestamp: "last tuesday",
	})
	assert.Error(t, err)
}

func TestDailySummaryGenerator_RegenerateDailySummary_WritesSummary(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Response: "A warm day in Lisbon."})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Message:   "note",
		Summary:   "walked the Alfama district",
		Timestamp: "2026-08-21T10:00:00Z",
	}))

	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	summaries := f.journalData(t, "u1")["summaries"].(map[string]interface{})
	assert.Equal(t, "A warm day in Lisbon.", summaries["2026-08-21"])
	assert.Equal(t, 1, f.metrics.Dailies)
}

func TestDailySummaryGenerator_RegenerateDailySummary_InvalidDate(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})

	err := f.daily.RegenerateDailySummary(context.Background(), "u1", "21-08-2026")
	assert.Error(t, err)

	err = f.daily.RegenerateDailySummary(context.Background(), "u1", "")
	assert.Error(t, err)
}

func TestDailySummaryGenerator_RegenerateDailySummary_EmptyDateIsNoop(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})

	require.NoError(t, f.daily.RegenerateDailySummary(context.Background(), "u1", "2026-08-21"))
	assert.Equal(t, 0, f.generator.CallCount())
	assert.Equal(t, 0, f.metrics.Dailies)
}

func TestDailySummaryGenerator_RegenerateDailySummary_NoTextIsNoop(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})
	ctx := context.Background()

	// A bare message carries nothing worth summarizing.
	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Message:   "ping",
		Timestamp: "2026-08-21T10:00:00Z",
	}))

	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))
	assert.Equal(t, 0, f.generator.CallCount())
}

func TestDailySummaryGenerator_RegenerateDailySummary_PrefersDiaryText(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Echo: true})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Response:  "the raw response",
		Summary:   "the short summary",
		Diary:     "the full diary entry",
		Timestamp: "2026-08-21T10:00:00Z",
	}))

	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	prompt := f.generator.LastPrompt()
	assert.Contains(t, prompt, "the full diary entry")
	assert.NotContains(t, prompt, "the short summary")
	assert.NotContains(t, prompt, "the raw response")
}

func TestDailySummaryGenerator_RegenerateDailySummary_FallsBackPerTurn(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Echo: true})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "morning at the market",
		Timestamp: "2026-08-21T09:00:00Z",
	}))
	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Response:  "The afternoon train to Sintra takes forty minutes.",
		Timestamp: "2026-08-21T15:00:00Z",
	}))

	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	prompt := f.generator.LastPrompt()
	assert.Contains(t, prompt, "morning at the market")
	assert.Contains(t, prompt, "The afternoon train to Sintra takes forty minutes.")
}

func TestDailySummaryGenerator_RegenerateDailySummary_ReflectsNewTurns(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Echo: true})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "saw the palace",
		Timestamp: "2026-08-21T10:00:00Z",
	}))
	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))
	first := f.journalData(t, "u1")["summaries"].(map[string]interface{})["2026-08-21"].(string)

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "found a rooftop bar",
		Timestamp: "2026-08-21T22:00:00Z",
	}))
	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))
	second := f.journalData(t, "u1")["summaries"].(map[string]interface{})["2026-08-21"].(string)

	assert.NotEqual(t, first, second)
	assert.Contains(t, second, "saw the palace")
	assert.Contains(t, second, "found a rooftop bar")
	assert.Equal(t, 2, f.metrics.Dailies)
}

func TestDailySummaryGenerator_RegenerateDailySummary_DisabledGeneratorIsNoop(t *testing.T) {
	store := storage.NewMemoryStore()
	queue := &testutil.MockQueue{}
	metrics := &testutil.MockMetrics{}
	logger := &testutil.MockLogger{}
	daily := NewDailySummaryGenerator(store, &generation.DisabledGenerator{}, queue, logger, metrics)
	ctx := context.Background()

	require.NoError(t, daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "a summarized note",
		Timestamp: "2026-08-21T10:00:00Z",
	}))

	require.NoError(t, daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	doc, err := store.GetDocument(ctx, "journal", "u1")
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "summaries")
	assert.Equal(t, 0, metrics.Dailies)
}

func TestDailySummaryGenerator_RegenerateDailySummary_GeneratorErrorPropagates(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Err: errors.New("model offline")})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "a summarized note",
		Timestamp: "2026-08-21T10:00:00Z",
	}))

	err := f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21")
	assert.Error(t, err)
	assert.Equal(t, 0, f.metrics.Dailies)
}

func TestDailySummaryGenerator_RegenerateDailySummary_StripsMarkdown(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Response: "**Sintra** was the *highlight*."})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "day trip to Sintra",
		Timestamp: "2026-08-21T10:00:00Z",
	}))
	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	summaries := f.journalData(t, "u1")["summaries"].(map[string]interface{})
	assert.Equal(t, "Sintra was the highlight.", summaries["2026-08-21"])
}

func TestDailySummaryGenerator_RegenerateDailySummary_MigratesLegacyDocument(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Response: "A day from the old format."})
	ctx := context.Background()

	require.NoError(t, f.store.SetDocument(ctx, "journal", "u1", map[string]interface{}{
		"conversation": []interface{}{
			map[string]interface{}{
				"response":  "the flat era response",
				"timestamp": "2026-08-21T10:00:00Z",
			},
		},
	}, false))

	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	data := f.journalData(t, "u1")
	assert.NotContains(t, data, "conversation")
	summaries := data["summaries"].(map[string]interface{})
	assert.Equal(t, "A day from the old format.", summaries["2026-08-21"])
}

func TestDailySummaryGenerator_GetEntriesForDate(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{Response: "Two stops, one great day."})
	ctx := context.Background()

	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "morning museum",
		PhotoURL:  "https://img/museum.jpg",
		Timestamp: "2026-08-21T09:00:00Z",
	}))
	require.NoError(t, f.daily.SaveEntry(ctx, "u1", models.ConversationTurn{
		Summary:   "evening concert",
		PhotoURL:  "https://img/concert.jpg",
		Timestamp: "2026-08-21T21:00:00Z",
	}))
	require.NoError(t, f.daily.RegenerateDailySummary(ctx, "u1", "2026-08-21"))

	day, err := f.daily.GetEntriesForDate(ctx, "u1", "2026-08-21")
	require.NoError(t, err)

	assert.Equal(t, "2026-08-21", day.Date)
	require.Len(t, day.Entries, 2)
	assert.Equal(t, "evening concert", day.Entries[0].Summary)
	assert.Equal(t, "morning museum", day.Entries[1].Summary)
	assert.Equal(t, "Two stops, one great day.", day.Summary)
	assert.Equal(t, []string{"https://img/concert.jpg", "https://img/museum.jpg"}, day.Images)
}

func TestDailySummaryGenerator_GetEntriesForDate_EmptyDate(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})

	day, err := f.daily.GetEntriesForDate(context.Background(), "u1", "2026-08-21")
	require.NoError(t, err)
	assert.Empty(t, day.Entries)
	assert.Empty(t, day.Summary)
	assert.Empty(t, day.Images)
}

func TestDailySummaryGenerator_GetEntriesForDate_InvalidDate(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})
	_, err := f.daily.GetEntriesForDate(context.Background(), "u1", "not-a-date")
	assert.Error(t, err)
}

func TestDailySummaryGenerator_GetEntriesForDate_RequiresUser(t *testing.T) {
	f := newAggregatorFixture(&testutil.MockGenerator{})
	_, err := f.daily.GetEntriesForDate(context.Background(), "", "2026-08-21")
	assert.Error(t, err)
}
