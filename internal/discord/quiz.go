package discord

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quizbot/internal/models"
)

func (b *Bot) handleQuiz(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, prompt string) {
	b.deferReply(i, true)

	quiz, err := b.deps.AI.GenerateQuiz(ctx, prompt)
	if err != nil {
		log.Printf("Quiz generation failed for %s: %v", user.ID, err)
		b.followupText(i, fmt.Sprintf("❌ Gagal membuat soal dari prompt Anda: *%s*. Coba lagi dengan format yang lebih jelas.", prompt))
		return
	}

	existing, err := b.deps.Quizzes.ExistingTopics(ctx, quiz.Difficulty)
	if err != nil {
		log.Printf("Failed to list topics: %v", err)
	}
	topic := b.deps.AI.MatchTopic(ctx, quiz.Topic, quiz.Difficulty, existing)

	// A new quiz replaces whatever the user had in progress
	b.deps.QuizSessions.End(user.ID)

	record := &models.QuizSessionRecord{
		ID:             uuid.New(),
		UserID:         user.ID,
		Topic:          topic,
		Difficulty:     quiz.Difficulty,
		TotalQuestions: len(quiz.Questions),
	}
	if err := b.deps.Quizzes.CreateSession(ctx, record); err != nil {
		log.Printf("Failed to save quiz session: %v", err)
		b.followupText(i, "❌ Gagal menyimpan kuis. Silakan coba lagi.")
		return
	}

	ids, err := b.deps.Quizzes.SaveQuestions(ctx, record.ID, topic, quiz.Difficulty, quiz.Questions)
	if err != nil {
		log.Printf("Failed to save quiz questions: %v", err)
		b.followupText(i, "❌ Kesalahan fatal (DB-ID). Silakan coba lagi.")
		return
	}

	s := b.deps.QuizSessions.CreateWithID(user.ID, record.ID, quiz.Questions, topic, quiz.Difficulty, ids)
	first, _ := s.CurrentQuestion()

	b.followupLong(i, fmt.Sprintf(
		"🎯 **Kuis Dimulai!**\nTopik: **%s**\nKesulitan: **%s**\nJumlah Soal: **%d**\n\n%s",
		titleCase(topic), strings.ToUpper(quiz.Difficulty), s.TotalQuestions(),
		formatQuestion(1, first, b.group),
	))
}

func (b *Bot) handleAnswer(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, choice string) {
	s, ok := b.deps.QuizSessions.Get(user.ID)
	if !ok {
		b.replyEphemeral(i, "❌ Kamu belum memulai kuis.")
		return
	}

	res, ok := s.Answer(choice)
	if !ok {
		b.deps.QuizSessions.End(user.ID)
		b.replyEphemeral(i, "❌ Kuis kamu sudah selesai.")
		return
	}

	b.deferReply(i, false)

	if res.QuestionID != uuid.Nil {
		answer := &models.QuizAnswer{
			QuizQuestionID:  res.QuestionID,
			UserID:          user.ID,
			UserAnswer:      strings.ToUpper(choice),
			IsCorrect:       res.Correct,
			DurationSeconds: res.Duration,
		}
		if err := b.deps.Quizzes.SaveAnswer(ctx, answer); err != nil {
			log.Printf("Failed to save answer: %v", err)
		}
	}
	if err := b.deps.Performance.Record(ctx, user.ID, s.Topic, s.Difficulty, res.Correct); err != nil {
		log.Printf("Failed to update performance: %v", err)
	}

	if res.Correct {
		b.followupText(i, "✅ **Benar!**")
	} else {
		b.followupText(i, fmt.Sprintf("❌ **Salah.** Jawaban benar: **%s**\nPenjelasan: %s", res.Question.Answer, res.Question.Explanation))
	}

	if !res.Finished {
		if next, ok := s.QuestionAt(res.Number); ok {
			b.followupLong(i, formatQuestion(res.Number+1, next, b.group))
		}
		return
	}

	stats := s.FinalStats()
	b.followupText(i, formatStats(stats))

	if err := b.deps.Performance.RecordSession(ctx, user.ID, s.Topic); err != nil {
		log.Printf("Failed to count quiz session: %v", err)
	}
	b.deps.QuizSessions.End(user.ID)
}

func (b *Bot) handlePerformance(ctx context.Context, i *discordgo.Interaction, user *discordgo.User) {
	b.deferReply(i, false)

	rows, err := b.deps.Performance.ListByUser(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to load performance for %s: %v", user.ID, err)
		b.followupText(i, "❌ Gagal memuat data performa. Silakan coba lagi nanti.")
		return
	}
	if len(rows) == 0 {
		b.followupText(i, "📊 Belum ada data performa.")
		return
	}

	b.followupLong(i, formatPerformance(rows))
	b.followupLong(i, b.deps.AI.PerformanceSuggestion(ctx, rows))
}

func (b *Bot) handleRecommend(ctx context.Context, i *discordgo.Interaction, user *discordgo.User) {
	b.deferReply(i, false)

	history, err := b.deps.History.LearningHistory(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to load learning history for %s: %v", user.ID, err)
		b.followupText(i, "❌ Terjadi kesalahan saat menghasilkan rekomendasi. Silakan coba lagi nanti.")
		return
	}
	if len(history.Topics) == 0 {
		b.followupText(i, "❌ Belum ada riwayat pembelajaran. Coba selesaikan beberapa kuis atau sesi belajar terlebih dahulu!")
		return
	}

	recommendations := b.deps.AI.Recommendations(ctx, history)
	b.followupLong(i, "📚 **Rekomendasi Pembelajaran Personal Anda**\n\n"+recommendations)
}

// ──── Formatting ────

func formatQuestion(number int, q models.Question, group string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Pertanyaan %d:** %s\n\n", number, q.Text)
	for idx, opt := range q.Options {
		fmt.Fprintf(&sb, "%c. %s\n", 'A'+idx, opt)
	}
	fmt.Fprintf(&sb, "\nBalas dengan `/%s answer <huruf>` untuk menjawab.", group)
	return sb.String()
}

func formatStats(s models.QuizStats) string {
	return fmt.Sprintf(
		"🎉 **Kuis selesai!**\n✅ **Skor Kamu:** %d/%d (**%.2f%%**)\n⏱️ **Waktu Total:** %s\n⏳ **Rata-rata Waktu/Soal:** %.2f detik",
		s.Score, s.TotalQuestions, s.Percentage, s.TotalDuration, s.AvgDurationPerQuestion,
	)
}

func formatPerformance(rows []models.PerformanceSummary) string {
	var sb strings.Builder
	sb.WriteString("📈 **Performa Kamu:**\n")
	for _, row := range rows {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "🧩 Topik: **%s** (Kesulitan: %s)\n", titleCase(row.Topic), row.Difficulty)
		fmt.Fprintf(&sb, "⭐ Akurasi: **%.2f%%** (%d/%d Benar)\n", row.AvgScore, row.TotalCorrect, row.TotalQuestions)
		fmt.Fprintf(&sb, "📅 Terakhir diperbarui: %s\n", row.LastUpdated.Format("2006-01-02"))
	}
	return sb.String()
}

// titleCase capitalises each word of a stored topic for display.
func titleCase(s string) string {
	return cases.Title(language.Indonesian).String(s)
}
