package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"quizbot/internal/models"
	"quizbot/internal/services"
	"quizbot/internal/session"
	"quizbot/internal/textutil"
)

// interactionTimeout bounds the work behind a single interaction, including
// every model call it makes.
const interactionTimeout = 5 * time.Minute

type AI interface {
	GenerateQuiz(ctx context.Context, request string) (*models.GeneratedQuiz, error)
	MatchTopic(ctx context.Context, newTopic, difficulty string, existing []string) string
	PerformanceSuggestion(ctx context.Context, rows []models.PerformanceSummary) string
	AnswerStudyQuestion(ctx context.Context, topic, question string) string
	Recommendations(ctx context.Context, history *models.LearningHistory) string
	GenerateStudyPlan(ctx context.Context, request string) (models.StudyPlan, error)
}

type UserStore interface {
	Upsert(ctx context.Context, id, username string) error
}

type QuizStore interface {
	CreateSession(ctx context.Context, s *models.QuizSessionRecord) error
	SaveQuestions(ctx context.Context, sessionID uuid.UUID, topic, difficulty string, qs []models.Question) ([]uuid.UUID, error)
	SaveAnswer(ctx context.Context, a *models.QuizAnswer) error
	ExistingTopics(ctx context.Context, difficulty string) ([]string, error)
}

type PerformanceStore interface {
	Record(ctx context.Context, userID, topic, difficulty string, correct bool) error
	RecordSession(ctx context.Context, userID, topic string) error
	ListByUser(ctx context.Context, userID string) ([]models.PerformanceSummary, error)
}

type HistoryProvider interface {
	LearningHistory(ctx context.Context, userID string) (*models.LearningHistory, error)
}

type PlanStore interface {
	Put(ctx context.Context, p services.PendingPlan) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*services.PendingPlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StudyRecordStore reports sessions the database still has running, which
// covers sessions driven by another bot process.
type StudyRecordStore interface {
	Active(ctx context.Context, userID string) (*models.StudySessionRecord, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Deps are the collaborators command handlers run against.
type Deps struct {
	AI            AI
	Users         UserStore
	Quizzes       QuizStore
	Performance   PerformanceStore
	History       HistoryProvider
	Plans         PlanStore
	StudyRecords  StudyRecordStore
	Limiter       Limiter
	QuizSessions  *session.QuizManager
	StudySessions *session.StudySessionManager
}

type Bot struct {
	session *discordgo.Session
	api     API
	group   string
	guildID string
	deps    Deps
}

// New prepares a gateway session. Nothing connects until Open.
func New(token, guildID, group string, deps Deps) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	b := newBot(s, group, deps)
	b.session = s
	b.guildID = guildID

	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

func newBot(api API, group string, deps Deps) *Bot {
	return &Bot{api: api, group: group, deps: deps}
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("✓ Discord logged in as %s", r.User.String())

	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, b.guildID, Commands(b.group))
	if err != nil {
		log.Printf("✗ Command sync failed: %v", err)
		return
	}
	log.Printf("✓ Synced %d slash command(s)", len(created))
}

func (b *Bot) onInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	b.handleInteraction(ctx, ic.Interaction)
}

func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Interaction %s panicked: %v", i.ID, r)
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(ctx, i)
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	if data.Name != b.group {
		return
	}
	name, opts := subcommand(data)
	user := interactionUser(i)
	if user == nil {
		return
	}

	allowed, err := b.deps.Limiter.Allow(ctx, user.ID)
	if err != nil {
		log.Printf("Rate limiter unavailable: %v", err)
		allowed = true
	}
	if !allowed {
		b.replyEphemeral(i, "⏳ Terlalu banyak perintah. Coba lagi dalam beberapa saat.")
		return
	}

	if err := b.deps.Users.Upsert(ctx, user.ID, user.Username); err != nil {
		log.Printf("Failed to upsert user %s: %v", user.ID, err)
	}

	switch name {
	case cmdQuiz:
		b.handleQuiz(ctx, i, user, stringOption(opts, "prompt"))
	case cmdAnswer:
		b.handleAnswer(ctx, i, user, stringOption(opts, "pilihan"))
	case cmdPerformance:
		b.handlePerformance(ctx, i, user)
	case cmdRecommend:
		b.handleRecommend(ctx, i, user)
	case cmdStudy:
		b.handleStudy(ctx, i, user, stringOption(opts, "prompt"))
	case cmdAsk:
		b.handleAsk(ctx, i, user, stringOption(opts, "question"))
	case cmdEndStudy:
		b.handleEndStudy(ctx, i, user)
	default:
		b.replyEphemeral(i, "❌ Perintah tidak dikenal.")
	}
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// ──── Responses ────

func (b *Bot) respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := b.api.InteractionRespond(i, resp); err != nil {
		log.Printf("Failed to respond to interaction %s: %v", i.ID, err)
	}
}

func (b *Bot) replyEphemeral(i *discordgo.Interaction, content string) {
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
}

// deferReply acknowledges the interaction so slow work can follow up later.
func (b *Bot) deferReply(i *discordgo.Interaction, ephemeral bool) {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

func (b *Bot) followup(i *discordgo.Interaction, params *discordgo.WebhookParams) {
	if _, err := b.api.FollowupMessageCreate(i, true, params); err != nil {
		log.Printf("Failed to send followup for interaction %s: %v", i.ID, err)
	}
}

func (b *Bot) followupText(i *discordgo.Interaction, content string) {
	b.followup(i, &discordgo.WebhookParams{Content: content})
}

// followupLong sends content in as many messages as the length limit needs.
func (b *Bot) followupLong(i *discordgo.Interaction, content string) {
	for _, chunk := range textutil.SplitIntoChunks(content, textutil.DefaultChunkSize) {
		b.followupText(i, chunk)
	}
}
