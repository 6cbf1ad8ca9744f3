package types

// Outcome classifies what a single tap did.  It is a closed set: every
// interaction row carries exactly one of these values.
type Outcome string

const (
	// OutcomeEntry: the subject had no open presence and one was opened.
	OutcomeEntry Outcome = "entry"

	// OutcomeExit: the subject's open presence was closed.
	OutcomeExit Outcome = "exit"

	// OutcomeUnauthorized: the card resolved to a subject whose
	// authorization had expired as of the tap timestamp.
	OutcomeUnauthorized Outcome = "unauthorized"

	// OutcomeFallback: the card did not resolve to any known subject.
	OutcomeFallback Outcome = "fallback"
)

type TapRequest struct {
	ReaderID string `json:"reader_id"`
	CardID   string `json:"card_id"`
	TappedAt string `json:"tapped_at,omitempty"` // optional reader timestamp
}

type TapResponse struct {
	InteractionID string  `json:"interaction_id"`
	ReaderID      string  `json:"reader_id"`
	SubjectID     string  `json:"subject_id,omitempty"`
	CardID        string  `json:"card_id"`
	Outcome       Outcome `json:"outcome"`
	TappedAt      string  `json:"tapped_at"`
	ServerTime    string  `json:"server_time"`
}

type PresenceEntry struct {
	SubjectID string `json:"subject_id"`
	ReaderID  string `json:"reader_id"`
	SessionID string `json:"session_id"`
	Since     string `json:"since"`
}

type PresenceResponse struct {
	Count      int             `json:"count"`
	Inside     []PresenceEntry `json:"inside"`
	ServerTime string          `json:"server_time"`
}
