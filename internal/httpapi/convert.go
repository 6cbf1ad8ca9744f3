package httpapi

import (
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
	"github.com/evanmarcey/passage/internal/passage/types"
)

func tapResponseFromRecord(rec store.Interaction) types.TapResponse {
	resp := types.TapResponse{
		InteractionID: rec.ID,
		ReaderID:      rec.ReaderID,
		CardID:        rec.CardID,
		Outcome:       rec.Outcome,
		TappedAt:      rec.TappedAt.UTC().Format(time.RFC3339Nano),
		ServerTime:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if rec.SubjectID != nil {
		resp.SubjectID = *rec.SubjectID
	}
	return resp
}

func presenceResponse(open []store.ActiveSession) types.PresenceResponse {
	entries := make([]types.PresenceEntry, 0, len(open))
	for _, rec := range open {
		entries = append(entries, types.PresenceEntry{
			SubjectID: rec.SubjectID,
			ReaderID:  rec.ReaderID,
			SessionID: rec.SessionID,
			Since:     rec.StartedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return types.PresenceResponse{
		Count:      len(entries),
		Inside:     entries,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
