package model

import "time"

// QuestionType is the kind of a generated quiz question.
type QuestionType string

const (
	// MultipleChoice is a question with exactly four options.
	MultipleChoice QuestionType = "multiple_choice"
	// TrueFalse is a question with exactly the options "True" and "False".
	TrueFalse QuestionType = "true_false"
)

// QuizItem is one generated quiz question. Answer matches one element of
// Options as produced by the model; consumers compare answers
// case-insensitively with surrounding whitespace trimmed. Page is the source
// page the question was drawn from and may be absent in model output.
type QuizItem struct {
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options"`
	Answer   string       `json:"answer"`
	Page     *int         `json:"page,omitempty"`
}

// Role represents a chat transcript role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry in a session's chat transcript.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ProgressEntry is one completed quiz attempt in the shared progress log.
type ProgressEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	User      string    `json:"user"`
	Score     int       `json:"score"`
	SessionID string    `json:"session_id"`
}

// Module is one unit of training content: a directory with one document,
// optionally a video and a trophy image. Asset paths are empty when the
// asset is absent.
type Module struct {
	Name         string `json:"name"`
	DocumentPath string `json:"-"`
	VideoPath    string `json:"-"`
	TrophyPath   string `json:"-"`
}

// HasVideo reports whether the module ships a training video.
func (m Module) HasVideo() bool { return m.VideoPath != "" }

// HasTrophy reports whether the module ships a trophy image.
func (m Module) HasTrophy() bool { return m.TrophyPath != "" }

// Config holds runtime parameters set via CLI flags.
type Config struct {
	TrainingDir         string
	QuestionsPerSession int
	PassingScore        int
	BasePath            string // URL prefix for sub-path deployments (e.g. "/ru")
	SecureCookies       bool   // Set Secure flag on cookies (disable for local dev)
}
