package services

import (
	"fmt"
	"sort"
	"strings"

	"quizbot/internal/models"
)

func buildQuizPrompt(request, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From the following user request: %q\n", request)
	b.WriteString("do two steps:\n")
	b.WriteString("1. Extract 'topic' (the main keyword), 'difficulty' (one of: mudah, sedang, sulit) and 'jumlah_soal' (an integer). ")
	fmt.Fprintf(&b, "When not mentioned use difficulty='%s' and jumlah_soal=%d.\n", defaultDifficulty, defaultQuizCount)
	b.WriteString("2. Write that many multiple-choice quiz questions for the extracted metadata.\n\n")
	fmt.Fprintf(&b, "Write the questions in %s. ", language)
	b.WriteString("Every question has exactly 4 options and 'answer' is the letter A, B, C or D of the correct option.\n")
	b.WriteString("Respond ONLY with a JSON object like this and no other text:\n")
	b.WriteString(`{
  "topic": "extracted topic",
  "difficulty": "mudah/sedang/sulit",
  "jumlah_soal": 5,
  "questions": [
    {
      "question": "First question...",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "answer": "A",
      "explanation": "Why the answer is correct..."
    }
  ]
}`)
	return b.String()
}

func buildTopicMatchPrompt(newTopic, difficulty string, existing []string) string {
	var b strings.Builder
	b.WriteString("You normalise quiz topics. Match the New Topic to one of the Existing Topics, all of which share the same difficulty.\n")
	b.WriteString("If there is a strong match return that Existing Topic, otherwise return the New Topic.\n\n")
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	fmt.Fprintf(&b, "New Topic: %q\n", newTopic)
	fmt.Fprintf(&b, "Existing Topics: %s\n\n", strings.Join(existing, ", "))
	b.WriteString(`Respond ONLY with a JSON object: {"matched_topic": "the chosen topic"}`)
	return b.String()
}

func buildPerformancePrompt(rows []models.PerformanceSummary, language string) string {
	var b strings.Builder
	b.WriteString("Analyse the following quiz performance data and give a summary plus 3 specific suggestions for improvement. ")
	b.WriteString("Address the learner directly and personally.\n\nPerformance data:\n---\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "Topic: %s, Difficulty: %s, Accuracy: %.2f%%, Total questions: %d\n", r.Topic, r.Difficulty, r.AvgScore, r.TotalQuestions)
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "Answer in %s, formatted ONLY as Markdown, starting with the heading '## 🎯 Summary & Study Suggestions'.", language)
	return b.String()
}

func buildStudyAnswerPrompt(topic, question, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "As a study assistant, answer this question about %s:\n\n", topic)
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Give a clear, concise and accurate answer that helps understanding. ")
	b.WriteString("Focus on the underlying concepts and give examples where relevant.\n")
	fmt.Fprintf(&b, "Answer in %s.", language)
	return b.String()
}

func buildRecommendationPrompt(h *models.LearningHistory, language string) string {
	var b strings.Builder
	b.WriteString("As an educational assistant, analyse this learning history and give personalised recommendations.\n\n")
	b.WriteString("CURRENT LEARNING STATUS:\n")
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")

	if h != nil {
		topics := make([]string, 0, len(h.Topics))
		for t := range h.Topics {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		for _, t := range topics {
			st := h.Topics[t]
			fmt.Fprintf(&b, "Topic: %s\n", t)
			fmt.Fprintf(&b, "Quiz performance: %.1f%% over %d attempts\n", st.AvgScore, st.QuizAttempts)
			fmt.Fprintf(&b, "Study sessions: %d, total study time: %d minutes\n", st.StudySessions, st.TotalStudyTime)
			fmt.Fprintf(&b, "Difficulty levels: %s\n\n", strings.Join(st.DifficultyLevels, ", "))
		}

		b.WriteString("Recent activity:\n")
		var sessions []string
		for _, s := range firstN(h.RecentStudySessions, 3) {
			sessions = append(sessions, s.Topic)
		}
		var perf []string
		for _, p := range firstN(h.RecentPerformance, 3) {
			perf = append(perf, fmt.Sprintf("%s (%.1f%%)", p.Topic, p.AvgScore))
		}
		fmt.Fprintf(&b, "- Latest study sessions: %s\n", strings.Join(sessions, ", "))
		fmt.Fprintf(&b, "- Latest quiz performance: %s\n\n", strings.Join(perf, ", "))
	}

	b.WriteString("Give recommendations in this structure:\n")
	b.WriteString("1. Study focus: which topics need more attention and why\n")
	b.WriteString("2. Quiz strategy: recommended difficulty and topics\n")
	b.WriteString("3. Study schedule: Pomodoro session suggestions\n")
	b.WriteString("4. Learning path: what to learn next\n")
	b.WriteString("5. Review areas: topics that need repetition\n\n")
	b.WriteString("Format the answer as Markdown with headings and bullet points. Name specific topics and study times.\n")
	fmt.Fprintf(&b, "Answer in %s.", language)
	return b.String()
}

func buildStudySummaryPrompt(topic string, elapsedMinutes float64, completed int, questions []models.AskedQuestion, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a summary of the following study session in %s:\n\n", language)
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Total duration: %d minutes\n", int(elapsedMinutes))
	fmt.Fprintf(&b, "Progress: %d intervals completed (%.1f%% of the plan)\n\n", completed, completionPercentage(completed))

	b.WriteString("Questions discussed:\n")
	for _, q := range firstN(questions, summaryQuestionCap) {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", q.Question, q.Answer)
	}

	b.WriteString("\nThe summary covers:\n")
	b.WriteString("1. Main concepts learned (based on the questions)\n")
	b.WriteString("2. An evaluation of the learning progress\n")
	b.WriteString("3. One specific recommendation for the next session\n\n")
	b.WriteString("Format it as Markdown in clear, easy language.")
	return b.String()
}

func buildStudyPlanPrompt(request, language string) string {
	var b strings.Builder
	b.WriteString("As a study assistant, create a study plan from the following user input:\n\n")
	fmt.Fprintf(&b, "User input: %s\n\n", request)
	b.WriteString("Analyse the input and produce an effective plan as a JSON object in this format:\n")
	b.WriteString(`{
  "topic": "topic to study",
  "total_duration_minutes": 90,
  "sessions": [
    {"duration": 45, "break": 10, "focus": "what this session focuses on"}
  ],
  "description": "description of the plan"
}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("1. A study session is at most 50 minutes\n")
	b.WriteString("2. A break is at least 5 and at most 15 minutes\n")
	b.WriteString("3. Every session has a specific focus\n")
	b.WriteString("4. The total duration matches the time available\n")
	fmt.Fprintf(&b, "5. Write a detailed, motivating description in %s\n", language)
	return b.String()
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
