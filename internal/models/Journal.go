package models

import (
	"github.com/spf13/cast"
	"sort"
)

const (
	// SummariesField is the reserved top-level key holding per-date
	// daily summaries. Everything else at the top level is a date bucket.
	SummariesField = "summaries"

	// LegacyConversationField is the flat array older documents stored
	// all turns under, before date bucketing.
	LegacyConversationField = "conversation"
)

// DayBucket maps sanitized timestamp keys to the turns filed under one date.
type DayBucket map[string]ConversationTurn

// JournalDocument is the decoded form of one user's journal document.
// Legacy marks documents that still carry pre-bucketing shapes; the first
// write after a legacy read rewrites the whole document in canonical form.
type JournalDocument struct {
	Days      map[string]DayBucket
	Summaries map[string]string
	Legacy    bool
}

func NewJournalDocument() *JournalDocument {
	return &JournalDocument{
		Days:      make(map[string]DayBucket),
		Summaries: make(map[string]string),
	}
}

// JournalFromData decodes a stored journal document. Canonical documents
// hold date keys mapping to timestamp-keyed turn maps plus an optional
// summaries map. Two legacy shapes are tolerated: a flat "conversation"
// array, and date keys mapping to arrays. Legacy turns without a parseable
// timestamp cannot be bucketed and are dropped.
func JournalFromData(data map[string]interface{}) *JournalDocument {
	doc := NewJournalDocument()
	for key, raw := range data {
		switch {
		case key == SummariesField:
			for date, s := range cast.ToStringMap(raw) {
				if text := cast.ToString(s); text != "" {
					doc.Summaries[date] = text
				}
			}
		case key == LegacyConversationField:
			doc.Legacy = true
			for _, item := range cast.ToSlice(raw) {
				doc.addLegacyTurn(item)
			}
		case IsDateKey(key):
			if items, ok := raw.([]interface{}); ok {
				doc.Legacy = true
				for _, item := range items {
					doc.addLegacyTurn(item)
				}
				continue
			}
			for tsKey, value := range cast.ToStringMap(raw) {
				turnData := cast.ToStringMap(value)
				if len(turnData) == 0 {
					continue
				}
				doc.putTurn(key, tsKey, TurnFromMap(turnData))
			}
		}
	}
	return doc
}

func (d *JournalDocument) addLegacyTurn(item interface{}) {
	turnData := cast.ToStringMap(item)
	if len(turnData) == 0 {
		return
	}
	turn := TurnFromMap(turnData)
	date, err := DateKey(turn.Timestamp)
	if err != nil {
		return
	}
	d.putTurn(date, TimestampKey(turn.Timestamp), turn)
}

func (d *JournalDocument) putTurn(date, tsKey string, turn ConversationTurn) {
	if d.Days[date] == nil {
		d.Days[date] = make(DayBucket)
	}
	d.Days[date][tsKey] = turn
}

// SetTurn files a turn under its own timestamp's date bucket.
func (d *JournalDocument) SetTurn(turn ConversationTurn) error {
	date, err := DateKey(turn.Timestamp)
	if err != nil {
		return err
	}
	d.putTurn(date, TimestampKey(turn.Timestamp), turn)
	return nil
}

// ToData encodes the document back into its canonical stored shape.
func (d *JournalDocument) ToData() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Days)+1)
	for date, bucket := range d.Days {
		encoded := make(map[string]interface{}, len(bucket))
		for tsKey, turn := range bucket {
			encoded[tsKey] = TurnToMap(turn)
		}
		out[date] = encoded
	}
	if len(d.Summaries) > 0 {
		summaries := make(map[string]interface{}, len(d.Summaries))
		for date, text := range d.Summaries {
			summaries[date] = text
		}
		out[SummariesField] = summaries
	}
	return out
}

// Flatten returns every turn ordered newest first.
func (d *JournalDocument) Flatten() []ConversationTurn {
	var turns []ConversationTurn
	for _, bucket := range d.Days {
		for _, turn := range bucket {
			turns = append(turns, turn)
		}
	}
	sortTurnsDesc(turns)
	return turns
}

// PendingDiary returns the turns still lacking a diary, newest first.
func (d *JournalDocument) PendingDiary() []ConversationTurn {
	var pending []ConversationTurn
	for _, turn := range d.Flatten() {
		if turn.Diary == "" {
			pending = append(pending, turn)
		}
	}
	return pending
}

// FindByTimestamp locates a turn by its raw timestamp string.
func (d *JournalDocument) FindByTimestamp(ts string) (date string, tsKey string, turn ConversationTurn, ok bool) {
	for dk, bucket := range d.Days {
		for tk, t := range bucket {
			if t.Timestamp == ts {
				return dk, tk, t, true
			}
		}
	}
	return "", "", ConversationTurn{}, false
}

// TurnsForDate returns one date's turns, newest first.
func (d *JournalDocument) TurnsForDate(date string) []ConversationTurn {
	bucket := d.Days[date]
	turns := make([]ConversationTurn, 0, len(bucket))
	for _, turn := range bucket {
		turns = append(turns, turn)
	}
	sortTurnsDesc(turns)
	return turns
}

// Dates returns the document's date keys, newest first.
func (d *JournalDocument) Dates() []string {
	dates := make([]string, 0, len(d.Days))
	for date := range d.Days {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// RecentDiaries returns up to n newest diary texts, for prompt context.
func (d *JournalDocument) RecentDiaries(n int) []string {
	var diaries []string
	for _, turn := range d.Flatten() {
		if turn.Diary == "" {
			continue
		}
		diaries = append(diaries, turn.Diary)
		if len(diaries) == n {
			break
		}
	}
	return diaries
}

// ImagesForDate returns the unique photo urls attached to one date's turns,
// newest first.
func (d *JournalDocument) ImagesForDate(date string) []string {
	seen := make(map[string]bool)
	var images []string
	for _, turn := range d.TurnsForDate(date) {
		if turn.PhotoURL == "" || seen[turn.PhotoURL] {
			continue
		}
		seen[turn.PhotoURL] = true
		images = append(images, turn.PhotoURL)
	}
	return images
}

func sortTurnsDesc(turns []ConversationTurn) {
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].Timestamp > turns[j].Timestamp
	})
}
