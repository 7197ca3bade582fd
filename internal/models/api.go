package models

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// HealthStatus reports each dependency as "ok" or the error it returned.
type HealthStatus struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

type SessionStats struct {
	ActiveQuizzes       int `json:"active_quizzes"`
	ActiveStudySessions int `json:"active_study_sessions"`
}
