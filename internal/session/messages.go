package session

import (
	"fmt"

	"quizbot/internal/models"
)

func intervalStartMessage(number int, topic string, iv models.StudyInterval) string {
	focus := iv.Focus
	if focus == "" {
		focus = "General study"
	}
	return fmt.Sprintf(
		"📚 **Study Interval %d Started**\n"+
			"Topic: **%s**\n"+
			"Fokus: **%s**\n"+
			"Durasi: **%d** menit\n\n"+
			"Anda dapat mengajukan pertanyaan tentang topik ini selama sesi belajar!",
		number, topic, focus, iv.StudyMinutes,
	)
}

func breakStartMessage(iv models.StudyInterval) string {
	return fmt.Sprintf(
		"☕ **Break Time!**\n"+
			"Istirahat selama **%d** menit.\n"+
			"Pertanyaan akan dijeda selama istirahat.",
		iv.BreakMinutes,
	)
}

func completionMessage(topic string, completed, durationMinutes int, summary string) string {
	return fmt.Sprintf(
		"🎉 **Study Session Completed!**\n"+
			"Topic: **%s**\n"+
			"Completed Intervals: **%d**\n"+
			"Total Duration: **%d** minutes\n\n"+
			"**Session Summary:**\n%s",
		topic, completed, durationMinutes, summary,
	)
}
