package journal

import "strings"

// BuildDiaryPrompt assembles the instruction for one diary entry. Recent
// diary texts give the model continuity with earlier days; the
// conversation text is what the entry should actually be about.
func BuildDiaryPrompt(conversationText string, recentDiaries []string) string {
	var b strings.Builder
	b.WriteString("You are writing a personal travel journal.\n\n")
	if len(recentDiaries) > 0 {
		b.WriteString("Recent journal entries, for continuity:\n")
		for _, diary := range recentDiaries {
			b.WriteString("- ")
			b.WriteString(diary)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Today's conversation summary: ")
	b.WriteString(conversationText)
	b.WriteString("\n\n")
	b.WriteString("Write a reflective, first-person journal entry about this day of travel. ")
	b.WriteString("Use two to three short paragraphs covering insights, feelings and reflections. ")
	b.WriteString("Do not mention GPS coordinates or technical details. ")
	b.WriteString("Write plain prose without any markdown formatting.")
	return b.String()
}

// BuildDailySummaryPrompt assembles the instruction for one day's synthesized
// entry, fed by that day's diary and conversation excerpts.
func BuildDailySummaryPrompt(date string, excerpts []string) string {
	var b strings.Builder
	b.WriteString("You are writing a personal travel journal.\n\n")
	b.WriteString("Notes and entries from ")
	b.WriteString(date)
	b.WriteString(":\n")
	for _, excerpt := range excerpts {
		b.WriteString("- ")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}
	b.WriteString("\nCombine these into a single cohesive diary entry for the day. ")
	b.WriteString("Write in the first person, reflective, in two to three short paragraphs. ")
	b.WriteString("Do not mention GPS coordinates or technical details. ")
	b.WriteString("Write plain prose without any markdown formatting.")
	return b.String()
}
