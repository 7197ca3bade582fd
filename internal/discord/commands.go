package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Subcommand names under the command group.
const (
	cmdQuiz        = "quiz"
	cmdAnswer      = "answer"
	cmdPerformance = "performance"
	cmdRecommend   = "recommend"
	cmdStudy       = "study"
	cmdAsk         = "ask"
	cmdEndStudy    = "end_study"
)

// Component custom ids are "<action>:<plan id>".
const (
	actionStart  = "study_start"
	actionRefine = "study_refine"
	actionCancel = "study_cancel"
	actionModal  = "study_refine_modal"

	feedbackInputID = "feedback"
)

const (
	feedbackMinLength = 10
	feedbackMaxLength = 1000
)

// Commands returns the single slash command group the bot registers.
func Commands(group string) []*discordgo.ApplicationCommand {
	minPrompt := 3

	return []*discordgo.ApplicationCommand{
		{
			Name:        group,
			Description: "Quiz and study assistant",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdQuiz,
					Description: "Buat kuis berdasarkan prompt kamu (cth: kuis integral kesulitan mudah jumlah 3)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "prompt",
							Description: "Topik, kesulitan dan jumlah soal",
							Required:    true,
							MinLength:   &minPrompt,
							MaxLength:   500,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdAnswer,
					Description: "Jawab pertanyaan kuis aktif kamu",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "pilihan",
							Description: "Huruf jawaban",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "A", Value: "A"},
								{Name: "B", Value: "B"},
								{Name: "C", Value: "C"},
								{Name: "D", Value: "D"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdPerformance,
					Description: "Lihat performa kamu dan dapatkan saran belajar",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdRecommend,
					Description: "Dapatkan rekomendasi belajar berdasarkan riwayat pembelajaran Anda",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdStudy,
					Description: "Mulai sesi belajar dengan durasi yang fleksibel (contoh: belajar kalkulus 2 jam)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "prompt",
							Description: "Apa yang ingin Anda pelajari dan berapa lama waktu yang tersedia",
							Required:    true,
							MinLength:   &minPrompt,
							MaxLength:   1000,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdAsk,
					Description: "Ask a question during your study session",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "question",
							Description: "Your question about the study topic",
							Required:    true,
							MaxLength:   1000,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        cmdEndStudy,
					Description: "End your current study session",
				},
			},
		},
	}
}

func customID(action string, planID uuid.UUID) string {
	return action + ":" + planID.String()
}

func parseCustomID(id string) (string, uuid.UUID, bool) {
	action, rest, ok := strings.Cut(id, ":")
	if !ok {
		return "", uuid.Nil, false
	}
	planID, err := uuid.Parse(rest)
	if err != nil {
		return "", uuid.Nil, false
	}
	return action, planID, true
}

// subcommand unpacks the invoked subcommand and its options by name.
func subcommand(data discordgo.ApplicationCommandInteractionData) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	if len(data.Options) == 0 {
		return "", opts
	}
	sub := data.Options[0]
	for _, o := range sub.Options {
		opts[o.Name] = o
	}
	return sub.Name, opts
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return strings.TrimSpace(o.StringValue())
}

// textInputValue finds a modal text input by custom id.
func textInputValue(components []discordgo.MessageComponent, id string) string {
	for _, c := range components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == id {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}

func planButtons(planID uuid.UUID, disabled bool, startLabel string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: startLabel, Style: discordgo.SuccessButton, CustomID: customID(actionStart, planID), Disabled: disabled},
				discordgo.Button{Label: "Perbaiki Rencana", Style: discordgo.SecondaryButton, CustomID: customID(actionRefine, planID), Disabled: disabled},
				discordgo.Button{Label: "Batalkan", Style: discordgo.DangerButton, CustomID: customID(actionCancel, planID), Disabled: disabled},
			},
		},
	}
}

func refineModal(planID uuid.UUID) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customID(actionModal, planID),
		Title:    "Perbaiki Rencana Belajar",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    feedbackInputID,
						Label:       "Apa yang ingin Anda ubah dari rencana ini?",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "Contoh: Kurangi durasi tiap sesi, tambah waktu istirahat, dsb.",
						Required:    true,
						MinLength:   feedbackMinLength,
						MaxLength:   feedbackMaxLength,
					},
				},
			},
		},
	}
}
