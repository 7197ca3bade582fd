package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"quizbot/internal/models"
	"quizbot/internal/services"
	"quizbot/internal/session"
	"quizbot/internal/textutil"
)

func (b *Bot) handleStudy(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, prompt string) {
	b.deferReply(i, false)

	if b.hasRunningStudy(ctx, user.ID) {
		b.followupText(i, "❌ Anda sudah memiliki sesi belajar yang aktif!")
		return
	}

	b.proposePlan(ctx, i, user, prompt, "📋 **Rencana Belajar**")
}

// proposePlan generates a plan, parks it for confirmation and shows it with
// the Start, Refine and Cancel buttons.
func (b *Bot) proposePlan(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, prompt, heading string) {
	plan, err := b.deps.AI.GenerateStudyPlan(ctx, prompt)
	if err != nil {
		log.Printf("Study plan generation failed for %s: %v", user.ID, err)
		b.followupText(i, planErrorMessage(err))
		return
	}

	planID, err := b.deps.Plans.Put(ctx, services.PendingPlan{
		UserID:    user.ID,
		ChannelID: i.ChannelID,
		Prompt:    prompt,
		Plan:      plan,
	})
	if err != nil {
		log.Printf("Failed to park study plan: %v", err)
		b.followupText(i, "❌ Terjadi kesalahan saat menyimpan rencana belajar. Silakan coba lagi.")
		return
	}

	text := formatPlan(heading, plan)
	chunks := textutil.SplitIntoChunks(text, textutil.DefaultChunkSize)
	for _, chunk := range chunks[:len(chunks)-1] {
		b.followupText(i, chunk)
	}
	b.followup(i, &discordgo.WebhookParams{
		Content:    chunks[len(chunks)-1],
		Components: planButtons(planID, false, "Mulai Belajar"),
	})
}

func planErrorMessage(err error) string {
	var planErr *services.PlanValidationError
	if errors.As(err, &planErr) {
		if _, ok := planErr.Fields["Duration"]; ok {
			return "❌ Durasi belajar dan istirahat harus minimal 1 menit!"
		}
		if _, ok := planErr.Fields["Break"]; ok {
			return "❌ Durasi belajar dan istirahat harus minimal 1 menit!"
		}
	}
	return "❌ Maaf, saya tidak dapat memahami rencana belajar dari prompt Anda. Mohon coba lagi dengan format yang lebih jelas."
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.Interaction) {
	action, planID, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}

	pending, ok := b.loadPlan(ctx, i, user, planID)
	if !ok {
		return
	}

	switch action {
	case actionStart:
		b.startStudy(ctx, i, user, pending)
	case actionRefine:
		b.respond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: refineModal(planID),
		})
	case actionCancel:
		if err := b.deps.Plans.Delete(ctx, planID); err != nil {
			log.Printf("Failed to drop study plan %s: %v", planID, err)
		}
		b.disableButtons(i, planID, "Mulai Belajar")
		b.followup(i, &discordgo.WebhookParams{
			Content: fmt.Sprintf("❌ Rencana belajar dibatalkan. Gunakan `/%s study` untuk membuat rencana baru.", b.group),
			Flags:   discordgo.MessageFlagsEphemeral,
		})
	}
}

func (b *Bot) handleModal(ctx context.Context, i *discordgo.Interaction) {
	data := i.ModalSubmitData()
	action, planID, ok := parseCustomID(data.CustomID)
	if !ok || action != actionModal {
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}

	pending, ok := b.loadPlan(ctx, i, user, planID)
	if !ok {
		return
	}

	feedback := textInputValue(data.Components, feedbackInputID)
	if len([]rune(feedback)) < feedbackMinLength {
		b.replyEphemeral(i, fmt.Sprintf("❌ Feedback minimal %d karakter.", feedbackMinLength))
		return
	}

	b.deferReply(i, false)

	// The old buttons stop working once the refined plan replaces it
	if err := b.deps.Plans.Delete(ctx, planID); err != nil {
		log.Printf("Failed to drop study plan %s: %v", planID, err)
	}

	refined := fmt.Sprintf(
		"Initial plan request: %s\nFeedback: %s\nAdjust the study plan according to this feedback.",
		pending.Prompt, feedback,
	)
	b.proposePlan(ctx, i, user, refined, "📋 **Rencana Belajar yang Disesuaikan**")
}

// loadPlan fetches a parked plan and answers the interaction itself when
// the plan is gone or belongs to someone else.
func (b *Bot) loadPlan(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, planID uuid.UUID) (*services.PendingPlan, bool) {
	pending, err := b.deps.Plans.Get(ctx, planID)
	if errors.Is(err, services.ErrPlanExpired) {
		b.replyEphemeral(i, fmt.Sprintf("⌛ Rencana belajar ini sudah kedaluwarsa. Gunakan `/%s study` untuk membuat rencana baru.", b.group))
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to load study plan %s: %v", planID, err)
		b.replyEphemeral(i, "❌ Terjadi kesalahan. Silakan coba lagi.")
		return nil, false
	}
	if pending.UserID != user.ID {
		b.replyEphemeral(i, "❌ Rencana belajar ini milik pengguna lain.")
		return nil, false
	}
	return pending, true
}

func (b *Bot) startStudy(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, pending *services.PendingPlan) {
	b.dropFinishedStudy(ctx, user.ID)

	plan := pending.Plan
	channelID := pending.ChannelID
	if channelID == "" {
		channelID = i.ChannelID
	}

	s, err := b.deps.StudySessions.Create(ctx, user.ID, plan.Topic, plan, NewChannelNotifier(b.api, channelID))
	if errors.Is(err, session.ErrSessionExists) {
		b.replyEphemeral(i, "❌ Anda sudah memiliki sesi belajar yang aktif!")
		return
	}
	if err != nil {
		log.Printf("Failed to create study session for %s: %v", user.ID, err)
		b.replyEphemeral(i, "❌ Terjadi kesalahan saat memulai sesi belajar. Silakan coba lagi.")
		return
	}

	if err := b.deps.Plans.Delete(ctx, pending.ID); err != nil {
		log.Printf("Failed to drop study plan %s: %v", pending.ID, err)
	}

	b.disableButtons(i, pending.ID, "Sesi Dimulai")
	b.followupText(i, fmt.Sprintf(
		"🎯 **Sesi Belajar Dimulai!**\nTopik: **%s**\nDurasi Total: **%d** menit\nJumlah Sesi: **%d**\n\n"+
			"Anda dapat mengajukan pertanyaan tentang topik ini selama sesi belajar dengan `/%s ask`!",
		plan.Topic, plan.TotalDurationMinutes, s.TotalIntervals(), b.group,
	))

	if err := s.StartStudyInterval(ctx); err != nil {
		if errors.Is(err, session.ErrSessionEnded) {
			return
		}
		log.Printf("Failed to start study interval for %s: %v", user.ID, err)
		if endErr := b.deps.StudySessions.End(ctx, user.ID); endErr != nil {
			log.Printf("Failed to cancel study session for %s: %v", user.ID, endErr)
		}
		b.followupText(i, "❌ Terjadi kesalahan saat memulai sesi belajar. Silakan coba lagi.")
	}
}

// disableButtons answers a button click by greying out the plan's buttons.
func (b *Bot) disableButtons(i *discordgo.Interaction, planID uuid.UUID, startLabel string) {
	content := ""
	if i.Message != nil {
		content = i.Message.Content
	}
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: planButtons(planID, true, startLabel),
		},
	})
}

func (b *Bot) handleAsk(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, question string) {
	s, ok := b.deps.StudySessions.Get(user.ID)
	if !ok || s.State().Terminal() {
		b.replyEphemeral(i, fmt.Sprintf("❌ You don't have an active study session! Start one with `/%s study`", b.group))
		return
	}
	if !s.CanAskQuestions() {
		b.replyEphemeral(i, "⏸️ You're on a break! Questions are paused during break intervals.")
		return
	}

	b.deferReply(i, false)

	answer := b.deps.AI.AnswerStudyQuestion(ctx, s.Topic, question)
	s.AddQuestion(question, answer)

	b.followupLong(i, fmt.Sprintf("📝 **Your Question:** %s\n\n🤖 **Answer:**\n%s", question, answer))
}

func (b *Bot) handleEndStudy(ctx context.Context, i *discordgo.Interaction, user *discordgo.User) {
	s, ok := b.deps.StudySessions.Get(user.ID)
	if !ok {
		b.replyEphemeral(i, "❌ You don't have an active study session!")
		return
	}

	b.deferReply(i, false)

	if !s.State().Terminal() {
		if err := s.EndSession(ctx); err != nil && !errors.Is(err, session.ErrSessionEnded) {
			log.Printf("Failed to end study session for %s: %v", user.ID, err)
		}
	}
	if err := b.deps.StudySessions.End(ctx, user.ID); err != nil {
		log.Printf("Failed to drop study session for %s: %v", user.ID, err)
	}

	b.followupText(i, "✅ Study session ended successfully!")
}

// hasRunningStudy reports whether the user has a session still running its
// intervals, either in this process or recorded as running in the database.
func (b *Bot) hasRunningStudy(ctx context.Context, userID string) bool {
	if s, ok := b.deps.StudySessions.Get(userID); ok && !s.State().Terminal() {
		return true
	}
	if b.deps.StudyRecords == nil {
		return false
	}
	rec, err := b.deps.StudyRecords.Active(ctx, userID)
	if err != nil {
		log.Printf("Active study lookup failed for %s: %v", userID, err)
		return false
	}
	return rec != nil
}

// dropFinishedStudy clears a completed session so the user can start another.
func (b *Bot) dropFinishedStudy(ctx context.Context, userID string) {
	s, ok := b.deps.StudySessions.Get(userID)
	if !ok || !s.State().Terminal() {
		return
	}
	if err := b.deps.StudySessions.End(ctx, userID); err != nil {
		log.Printf("Failed to drop finished study session for %s: %v", userID, err)
	}
}

func formatPlan(heading string, plan models.StudyPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nTopik: **%s**\nTotal Waktu: **%d** menit\n", heading, plan.Topic, plan.TotalDurationMinutes)
	if plan.Description != "" {
		fmt.Fprintf(&sb, "Deskripsi: %s\n", plan.Description)
	}
	sb.WriteString("\n**Detail Sesi:**\n")
	for idx, s := range plan.Sessions {
		fmt.Fprintf(&sb, "**Sesi %d**\n📚 Fokus: %s\n⏱️ Durasi: %d menit\n☕ Istirahat: %d menit\n", idx+1, s.Focus, s.Duration, s.Break)
	}
	sb.WriteString("\nPilih opsi di bawah untuk melanjutkan:")
	return sb.String()
}
