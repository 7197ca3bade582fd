package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbot/internal/models"
	"quizbot/internal/services"
)

// proposeStudy runs the study command and returns the parked plan id.
func proposeStudy(t *testing.T, h *harness, userID string) uuid.UUID {
	t.Helper()
	h.ai.plan = samplePlan()
	h.command(userID, cmdStudy, map[string]string{"prompt": "belajar go 1 jam"})

	planID := h.plans.only()
	require.NotEqual(t, uuid.Nil, planID)
	return planID
}

func TestStudyProposesPlan(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")

	last := h.api.lastFollowup()
	require.NotNil(t, last)
	assert.Contains(t, last.Content, "📋 **Rencana Belajar**")
	assert.Contains(t, last.Content, "Topik: **Go**")
	assert.Contains(t, last.Content, "📚 Fokus: Syntax")
	assert.Contains(t, last.Content, "☕ Istirahat: 10 menit")

	btns := buttons(last.Components)
	require.Len(t, btns, 3)
	assert.Equal(t, customID(actionStart, planID), btns[0].CustomID)
	assert.Equal(t, customID(actionRefine, planID), btns[1].CustomID)
	assert.Equal(t, customID(actionCancel, planID), btns[2].CustomID)

	pending, err := h.plans.Get(context.Background(), planID)
	require.NoError(t, err)
	assert.Equal(t, "u1", pending.UserID)
	assert.Equal(t, "channel-1", pending.ChannelID)
	assert.Equal(t, "belajar go 1 jam", pending.Prompt)
	assert.Equal(t, 0, h.deps.StudySessions.Len(), "nothing starts before confirmation")
}

func TestStartStudy(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.api.reset()

	h.click("u1", actionStart, planID)

	resp := h.api.lastResponse()
	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	btns := buttons(resp.Data.Components)
	require.Len(t, btns, 3)
	for _, b := range btns {
		assert.True(t, b.Disabled)
	}
	assert.Equal(t, "Sesi Dimulai", btns[0].Label)

	assert.Contains(t, h.api.followupText(), "Sesi Belajar Dimulai")

	s, ok := h.deps.StudySessions.Get("u1")
	require.True(t, ok)
	assert.Equal(t, models.StudyStateActive, s.State())
	assert.Len(t, h.studyStore.created, 1)

	require.Len(t, h.api.channel["channel-1"], 1)
	assert.Contains(t, h.api.channel["channel-1"][0], "Study Interval 1 Started")

	_, err := h.plans.Get(context.Background(), planID)
	assert.ErrorIs(t, err, services.ErrPlanExpired, "a started plan cannot be started twice")
}

func TestStudyRunsToCompletion(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.click("u1", actionStart, planID)

	require.True(t, h.sched.fireNext()) // study -> break
	s, _ := h.deps.StudySessions.Get("u1")
	assert.Equal(t, models.StudyStateResting, s.State())

	require.True(t, h.sched.fireNext()) // break -> completed
	assert.Equal(t, models.StudyStateCompleted, s.State())

	msgs := h.api.channel["channel-1"]
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[1], "Break Time")
	assert.Contains(t, msgs[2], "Study Session Completed")
	assert.Contains(t, msgs[2], "Summary of Go")

	// A finished session does not block the next plan
	h.api.reset()
	next := proposeStudy(t, h, "u1")
	h.click("u1", actionStart, next)
	s2, ok := h.deps.StudySessions.Get("u1")
	require.True(t, ok)
	assert.NotEqual(t, s.ID, s2.ID)
	assert.Equal(t, models.StudyStateActive, s2.State())
}

func TestStudyRejectsRunningSession(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.click("u1", actionStart, planID)
	h.api.reset()

	h.command("u1", cmdStudy, map[string]string{"prompt": "belajar lagi"})

	assert.Contains(t, h.api.followupText(), "sudah memiliki sesi belajar yang aktif")
	assert.Len(t, h.ai.planPrompts, 1)
}

func TestStudyRejectsSessionRunningElsewhere(t *testing.T) {
	h := newHarness()
	h.studyStore.active = &models.StudySessionRecord{ID: uuid.New(), UserID: "u1", State: models.StudyStateResting}
	h.ai.plan = samplePlan()

	h.command("u1", cmdStudy, map[string]string{"prompt": "belajar go"})

	assert.Contains(t, h.api.followupText(), "sudah memiliki sesi belajar yang aktif")
	assert.Empty(t, h.ai.planPrompts)
}

func TestStudyLookupFailureDoesNotBlock(t *testing.T) {
	h := newHarness()
	h.studyStore.activeErr = errors.New("db down")

	planID := proposeStudy(t, h, "u1")
	assert.NotEqual(t, uuid.Nil, planID)
}

func TestStartExpiredPlan(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	require.NoError(t, h.plans.Delete(context.Background(), planID))
	h.api.reset()

	h.click("u1", actionStart, planID)

	resp := h.api.lastResponse()
	require.NotNil(t, resp)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "kedaluwarsa")
	assert.Equal(t, 0, h.deps.StudySessions.Len())
}

func TestStartSomeoneElsesPlan(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.api.reset()

	h.click("u2", actionStart, planID)

	resp := h.api.lastResponse()
	require.NotNil(t, resp)
	assert.Contains(t, resp.Data.Content, "milik pengguna lain")
	assert.Equal(t, 0, h.deps.StudySessions.Len())
}

func TestCancelPlan(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.api.reset()

	h.click("u1", actionCancel, planID)

	resp := h.api.lastResponse()
	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	for _, b := range buttons(resp.Data.Components) {
		assert.True(t, b.Disabled)
	}

	last := h.api.lastFollowup()
	require.NotNil(t, last)
	assert.Contains(t, last.Content, "dibatalkan")
	assert.Equal(t, discordgo.MessageFlagsEphemeral, last.Flags)

	_, err := h.plans.Get(context.Background(), planID)
	assert.ErrorIs(t, err, services.ErrPlanExpired)
}

func TestRefinePlan(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.api.reset()

	h.click("u1", actionRefine, planID)

	resp := h.api.lastResponse()
	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseModal, resp.Type)
	assert.Equal(t, customID(actionModal, planID), resp.Data.CustomID)

	h.api.reset()
	h.submitFeedback("u1", planID, "tambah waktu istirahat")

	require.Len(t, h.ai.planPrompts, 2)
	assert.Contains(t, h.ai.planPrompts[1], "belajar go 1 jam")
	assert.Contains(t, h.ai.planPrompts[1], "tambah waktu istirahat")

	_, err := h.plans.Get(context.Background(), planID)
	assert.ErrorIs(t, err, services.ErrPlanExpired, "the refined plan replaces the old one")

	newID := h.plans.only()
	assert.NotEqual(t, planID, newID)
	last := h.api.lastFollowup()
	require.NotNil(t, last)
	assert.Contains(t, last.Content, "Rencana Belajar yang Disesuaikan")
	assert.Equal(t, customID(actionStart, newID), buttons(last.Components)[0].CustomID)
}

func TestRefineFeedbackTooShort(t *testing.T) {
	h := newHarness()
	planID := proposeStudy(t, h, "u1")
	h.api.reset()

	h.submitFeedback("u1", planID, "short")

	resp := h.api.lastResponse()
	require.NotNil(t, resp)
	assert.Contains(t, resp.Data.Content, "minimal 10 karakter")
	assert.Len(t, h.ai.planPrompts, 1)
}

func TestAsk(t *testing.T) {
	h := newHarness()

	h.command("u1", cmdAsk, map[string]string{"question": "what is a slice?"})
	assert.Contains(t, h.api.lastResponse().Data.Content, "don't have an active study session")

	planID := proposeStudy(t, h, "u1")
	h.click("u1", actionStart, planID)
	h.api.reset()

	h.command("u1", cmdAsk, map[string]string{"question": "what is a slice?"})
	text := h.api.followupText()
	assert.Contains(t, text, "📝 **Your Question:** what is a slice?")
	assert.Contains(t, text, "Answer about Go: what is a slice?")

	s, _ := h.deps.StudySessions.Get("u1")
	require.Len(t, s.Questions(), 1)
	assert.Equal(t, "what is a slice?", s.Questions()[0].Question)

	// Questions are paused on a break
	require.True(t, h.sched.fireNext())
	h.api.reset()
	h.command("u1", cmdAsk, map[string]string{"question": "and a map?"})
	assert.Contains(t, h.api.lastResponse().Data.Content, "on a break")
	assert.Len(t, s.Questions(), 1)
}

func TestEndStudy(t *testing.T) {
	h := newHarness()

	h.command("u1", cmdEndStudy, nil)
	assert.Contains(t, h.api.lastResponse().Data.Content, "don't have an active study session")

	planID := proposeStudy(t, h, "u1")
	h.click("u1", actionStart, planID)
	s, _ := h.deps.StudySessions.Get("u1")
	h.api.reset()

	h.command("u1", cmdEndStudy, nil)

	assert.Contains(t, h.api.followupText(), "Study session ended successfully")
	assert.Equal(t, models.StudyStateCompleted, s.State())
	assert.Equal(t, 0, h.deps.StudySessions.Len())
	assert.False(t, h.sched.fireNext(), "no timer outlives the session")

	msgs := h.api.channel["channel-1"]
	assert.Contains(t, msgs[len(msgs)-1], "Study Session Completed")
	assert.Equal(t, models.StudyStateCompleted, h.studyStore.states[len(h.studyStore.states)-1])
}

func TestPlanErrorMessage(t *testing.T) {
	validationErr := validator.ValidationErrors{}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"short duration", &services.PlanValidationError{Fields: map[string]string{"Duration": "min"}, Err: validationErr}, "minimal 1 menit"},
		{"short break", &services.PlanValidationError{Fields: map[string]string{"Break": "min"}, Err: validationErr}, "minimal 1 menit"},
		{"missing topic", &services.PlanValidationError{Fields: map[string]string{"Topic": "required"}, Err: validationErr}, "tidak dapat memahami"},
		{"provider down", errors.New("timeout"), "tidak dapat memahami"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, planErrorMessage(tc.err), tc.want)
		})
	}
}
