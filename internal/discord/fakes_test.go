package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"quizbot/internal/models"
	"quizbot/internal/services"
	"quizbot/internal/session"
)

const testGroup = "ilham"

type fakeAPI struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	channel   map[string][]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{channel: map[string][]string{}}
}

func (f *fakeAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{Content: data.Content}, nil
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel[channelID] = append(f.channel[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeAPI) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeAPI) lastFollowup() *discordgo.WebhookParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.followups) == 0 {
		return nil
	}
	return f.followups[len(f.followups)-1]
}

// followupText joins every followup sent so far.
func (f *fakeAPI) followupText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := make([]string, len(f.followups))
	for i, p := range f.followups {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n")
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = nil
	f.followups = nil
}

type fakeAI struct {
	mu          sync.Mutex
	quiz        *models.GeneratedQuiz
	quizErr     error
	plan        models.StudyPlan
	planErr     error
	planPrompts []string
	matchCalls  int
}

func (f *fakeAI) GenerateQuiz(context.Context, string) (*models.GeneratedQuiz, error) {
	return f.quiz, f.quizErr
}

func (f *fakeAI) MatchTopic(_ context.Context, newTopic, _ string, existing []string) string {
	f.mu.Lock()
	f.matchCalls++
	f.mu.Unlock()
	for _, t := range existing {
		if strings.EqualFold(t, newTopic) {
			return t
		}
	}
	return newTopic
}

func (f *fakeAI) PerformanceSuggestion(context.Context, []models.PerformanceSummary) string {
	return "Keep practising derivatives."
}

func (f *fakeAI) AnswerStudyQuestion(_ context.Context, topic, question string) string {
	return "Answer about " + topic + ": " + question
}

func (f *fakeAI) Recommendations(context.Context, *models.LearningHistory) string {
	return "Try a harder quiz."
}

func (f *fakeAI) GenerateStudyPlan(_ context.Context, request string) (models.StudyPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planPrompts = append(f.planPrompts, request)
	return f.plan, f.planErr
}

func (f *fakeAI) GenerateStudySummary(_ context.Context, topic string, _ float64, completed int, _ []models.AskedQuestion) (string, error) {
	return "Summary of " + topic, nil
}

type fakeUsers struct {
	mu      sync.Mutex
	upserts []string
}

func (f *fakeUsers) Upsert(_ context.Context, id, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, id+":"+username)
	return nil
}

type fakeQuizStore struct {
	mu        sync.Mutex
	sessions  []*models.QuizSessionRecord
	questions map[uuid.UUID][]uuid.UUID
	answers   []*models.QuizAnswer
	topics    []string
	saveErr   error
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{questions: map[uuid.UUID][]uuid.UUID{}}
}

func (f *fakeQuizStore) CreateSession(_ context.Context, s *models.QuizSessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeQuizStore) SaveQuestions(_ context.Context, sessionID uuid.UUID, _, _ string, qs []models.Question) ([]uuid.UUID, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	ids := make([]uuid.UUID, len(qs))
	for i := range ids {
		ids[i] = uuid.New()
	}
	f.mu.Lock()
	f.questions[sessionID] = ids
	f.mu.Unlock()
	return ids, nil
}

func (f *fakeQuizStore) SaveAnswer(_ context.Context, a *models.QuizAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, a)
	return nil
}

func (f *fakeQuizStore) ExistingTopics(context.Context, string) ([]string, error) {
	return f.topics, nil
}

type fakePerformance struct {
	mu       sync.Mutex
	records  []bool
	sessions int
	rows     []models.PerformanceSummary
}

func (f *fakePerformance) Record(_ context.Context, _, _, _ string, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, correct)
	return nil
}

func (f *fakePerformance) RecordSession(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	return nil
}

func (f *fakePerformance) ListByUser(context.Context, string) ([]models.PerformanceSummary, error) {
	return f.rows, nil
}

type fakeHistory struct {
	history *models.LearningHistory
}

func (f fakeHistory) LearningHistory(context.Context, string) (*models.LearningHistory, error) {
	return f.history, nil
}

type fakePlans struct {
	mu    sync.Mutex
	plans map[uuid.UUID]services.PendingPlan
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: map[uuid.UUID]services.PendingPlan{}}
}

func (f *fakePlans) Put(_ context.Context, p services.PendingPlan) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.New()
	f.plans[p.ID] = p
	return p.ID, nil
}

func (f *fakePlans) Get(_ context.Context, id uuid.UUID) (*services.PendingPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, services.ErrPlanExpired
	}
	return &p, nil
}

func (f *fakePlans) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.plans, id)
	return nil
}

// only returns the single parked plan id.
func (f *fakePlans) only() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.plans {
		return id
	}
	return uuid.Nil
}

type fakeLimiter struct {
	deny bool
	err  error
}

func (f fakeLimiter) Allow(context.Context, string) (bool, error) {
	return !f.deny, f.err
}

type fakeStudyStore struct {
	mu        sync.Mutex
	created   []uuid.UUID
	states    []models.StudySessionState
	active    *models.StudySessionRecord
	activeErr error
}

func (f *fakeStudyStore) Active(context.Context, string) (*models.StudySessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.activeErr
}

func (f *fakeStudyStore) CreateStudySession(_ context.Context, id uuid.UUID, _, _ string, _ models.StudyPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, id)
	return nil
}

func (f *fakeStudyStore) UpdateStudySessionState(_ context.Context, _ uuid.UUID, state models.StudySessionState, _ *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return nil
}

func (f *fakeStudyStore) SaveStudySummary(context.Context, uuid.UUID, string) error {
	return nil
}

// manualScheduler keeps timers until a test fires them.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) session.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

// fireNext runs the newest live timer.
func (s *manualScheduler) fireNext() bool {
	s.mu.Lock()
	var next *manualTimer
	for i := len(s.timers) - 1; i >= 0; i-- {
		if !s.timers[i].stopped {
			next = s.timers[i]
			break
		}
	}
	if next != nil {
		next.stopped = true
	}
	s.mu.Unlock()
	if next == nil {
		return false
	}
	next.f()
	return true
}

var errDown = errors.New("service unavailable")

type harness struct {
	bot         *Bot
	api         *fakeAPI
	ai          *fakeAI
	users       *fakeUsers
	quizzes     *fakeQuizStore
	performance *fakePerformance
	plans       *fakePlans
	studyStore  *fakeStudyStore
	sched       *manualScheduler
	deps        Deps
}

func newHarness() *harness {
	h := &harness{
		api:         newFakeAPI(),
		ai:          &fakeAI{},
		users:       &fakeUsers{},
		quizzes:     newFakeQuizStore(),
		performance: &fakePerformance{},
		plans:       newFakePlans(),
		studyStore:  &fakeStudyStore{},
		sched:       &manualScheduler{},
	}
	h.deps = Deps{
		AI:            h.ai,
		Users:         h.users,
		Quizzes:       h.quizzes,
		Performance:   h.performance,
		History:       fakeHistory{history: &models.LearningHistory{Topics: map[string]*models.TopicStats{}}},
		Plans:         h.plans,
		StudyRecords:  h.studyStore,
		Limiter:       fakeLimiter{},
		QuizSessions:  session.NewQuizManager(),
		StudySessions: session.NewStudySessionManager(h.studyStore, h.ai, h.sched),
	}
	h.bot = newBot(h.api, testGroup, h.deps)
	return h
}

func member(userID string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user-" + userID}}
}

func (h *harness) command(userID, sub string, opts map[string]string) {
	var options []*discordgo.ApplicationCommandInteractionDataOption
	for name, value := range opts {
		options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
			Name:  name,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: value,
		})
	}
	h.bot.handleInteraction(context.Background(), &discordgo.Interaction{
		ID:        "cmd-" + sub,
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "channel-1",
		Member:    member(userID),
		Data: discordgo.ApplicationCommandInteractionData{
			Name: testGroup,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand, Options: options},
			},
		},
	})
}

func (h *harness) click(userID, action string, planID uuid.UUID) {
	h.bot.handleInteraction(context.Background(), &discordgo.Interaction{
		ID:        "click-" + action,
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "channel-1",
		Member:    member(userID),
		Message:   &discordgo.Message{Content: "plan"},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID(action, planID), ComponentType: discordgo.ButtonComponent},
	})
}

func (h *harness) submitFeedback(userID string, planID uuid.UUID, feedback string) {
	h.bot.handleInteraction(context.Background(), &discordgo.Interaction{
		ID:        "modal",
		Type:      discordgo.InteractionModalSubmit,
		ChannelID: "channel-1",
		Member:    member(userID),
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: customID(actionModal, planID),
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: feedbackInputID, Value: feedback},
				}},
			},
		},
	})
}

func sampleQuiz() *models.GeneratedQuiz {
	return &models.GeneratedQuiz{
		Topic:      "turunan",
		Difficulty: "mudah",
		Count:      2,
		Questions: []models.Question{
			{Text: "d/dx x^2?", Options: []string{"2x", "x", "x^2", "2"}, Answer: "A", Explanation: "Power rule"},
			{Text: "d/dx 5?", Options: []string{"5", "1", "0", "x"}, Answer: "C", Explanation: "Constant"},
		},
	}
}

func samplePlan() models.StudyPlan {
	return models.StudyPlan{
		Topic:                "Go",
		TotalDurationMinutes: 55,
		Description:          "Basics",
		Sessions:             []models.PlanSession{{Duration: 45, Break: 10, Focus: "Syntax"}},
	}
}

func buttons(components []discordgo.MessageComponent) []discordgo.Button {
	var out []discordgo.Button
	for _, c := range components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if b, ok := inner.(discordgo.Button); ok {
				out = append(out, b)
			}
		}
	}
	return out
}
