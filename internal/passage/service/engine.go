package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evanmarcey/passage/internal/passage/store"
	"github.com/evanmarcey/passage/internal/passage/types"
)

var (
	ErrInvalidReaderID = errors.New("reader_id is required")
	ErrInvalidCardID   = errors.New("card_id is required")

	// ErrUnknownReader: the tap came from a reader that is not registered.
	// This is a caller/configuration error — there is no valid reader to
	// log the tap against, so no audit row is written.
	ErrUnknownReader = errors.New("unknown reader")

	// ErrTapConflict: a same-subject race lost twice in a row.  Nothing was
	// committed; the caller can safely retry the tap.
	ErrTapConflict = errors.New("conflicting concurrent tap for subject")
)

// TapPolicy tunes the edges of the decision algorithm.
type TapPolicy struct {
	// AllowExpiredExit permits a badge whose authorization has lapsed to
	// close its own open presence by tapping the reader it entered
	// through.  When false, expiry blocks every path and an expired
	// subject stays marked present until an administrator intervenes.
	AllowExpiredExit bool
}

// TapMetrics is implemented by the metrics collector; a nil value disables
// instrumentation.
type TapMetrics interface {
	RecordTapOutcome(outcome types.Outcome)
	RecordTapLatency(d time.Duration)
}

// Engine converts raw taps into presence transitions.  Each tap yields
// exactly one interaction row and zero or more session mutations, all
// applied as a single atomic unit.
type Engine struct {
	readers  *ReaderDirectory
	identity *IdentityResolver
	runner   store.Runner
	policy   TapPolicy
	logger   *logrus.Logger
	metrics  TapMetrics
}

type EngineDeps struct {
	Readers  *ReaderDirectory
	Identity *IdentityResolver
	Runner   store.Runner
	Policy   TapPolicy
	Logger   *logrus.Logger
	Metrics  TapMetrics // optional
}

func NewEngine(d EngineDeps) *Engine {
	return &Engine{
		readers:  d.Readers,
		identity: d.Identity,
		runner:   d.Runner,
		policy:   d.Policy,
		logger:   d.Logger,
		metrics:  d.Metrics,
	}
}

// ProcessTap decides what a tap means and persists the result.
//
// Domain outcomes (entry, exit, unauthorized, fallback) return the
// appended interaction with a nil error.  Only infrastructure problems —
// unknown reader, unresolved same-subject race, storage failure — come
// back as errors, and those leave no partial state behind.
func (e *Engine) ProcessTap(ctx context.Context, req types.TapRequest) (store.Interaction, error) {
	started := time.Now()

	readerID := strings.TrimSpace(req.ReaderID)
	cardID := strings.TrimSpace(req.CardID)

	if readerID == "" {
		return store.Interaction{}, ErrInvalidReaderID
	}
	if cardID == "" {
		return store.Interaction{}, ErrInvalidCardID
	}

	tappedAt := time.Now().UTC()
	if t := parseOptionalTimestamp(req.TappedAt); t != nil {
		tappedAt = *t
	}

	reader, err := e.readers.Resolve(ctx, readerID)
	if err != nil {
		return store.Interaction{}, err
	}
	if reader == nil || !reader.Registered {
		return store.Interaction{}, fmt.Errorf("%w: %s", ErrUnknownReader, readerID)
	}
	_ = e.readers.NoteSeen(ctx, readerID)

	badge, err := e.identity.ResolveByCard(ctx, cardID)
	if err != nil {
		return store.Interaction{}, err
	}

	var rec store.Interaction
	decide := func(ctx context.Context, s store.Stores) error {
		var err error
		rec, err = e.decide(ctx, s, readerID, cardID, badge, tappedAt)
		return err
	}

	err = e.runner.Atomic(ctx, decide)
	if errors.Is(err, store.ErrActiveSessionExists) {
		// Lost a same-subject race.  The retry re-reads the winner's
		// committed state and resolves to an exit or transition.
		err = e.runner.Atomic(ctx, decide)
	}
	if errors.Is(err, store.ErrActiveSessionExists) {
		return store.Interaction{}, fmt.Errorf("%w: %s", ErrTapConflict, badge.SubjectID)
	}
	if err != nil {
		return store.Interaction{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"reader_id":   readerID,
		"outcome":     rec.Outcome,
		"interaction": rec.ID,
	}).Info("tap processed")

	if e.metrics != nil {
		e.metrics.RecordTapOutcome(rec.Outcome)
		e.metrics.RecordTapLatency(time.Since(started))
	}

	return rec, nil
}

// decide runs the transition decision inside one atomic unit.  It appends
// exactly one interaction for the tap (plus the old reader's exit row on a
// cross-reader transition, which gets its own audit entry).
func (e *Engine) decide(
	ctx context.Context,
	s store.Stores,
	readerID, cardID string,
	badge *store.Badge,
	tappedAt time.Time,
) (store.Interaction, error) {
	if badge == nil {
		// Unrecognized card: audit row only, subject unset.
		return s.Interactions().Append(ctx, store.Interaction{
			ReaderID: readerID,
			CardID:   cardID,
			TappedAt: tappedAt,
			Outcome:  types.OutcomeFallback,
		})
	}

	subjectID := badge.SubjectID
	expired := badge.AccessExpiresAt != nil && !badge.AccessExpiresAt.After(tappedAt)

	active, err := s.ActiveSessions().FindBySubject(ctx, subjectID)
	if err != nil {
		return store.Interaction{}, err
	}

	if expired {
		exitingOwnReader := active != nil && active.ReaderID == readerID
		if !e.policy.AllowExpiredExit || !exitingOwnReader {
			return s.Interactions().Append(ctx, store.Interaction{
				ReaderID:  readerID,
				SubjectID: &subjectID,
				CardID:    cardID,
				TappedAt:  tappedAt,
				Outcome:   types.OutcomeUnauthorized,
			})
		}
		// Expired but tapping out at the reader they entered through:
		// fall through to the exit path so the subject is not stranded
		// "inside" forever.
	}

	switch {
	case active == nil:
		// Entry: open a ledger row and the presence pointer together.
		sess, err := s.Sessions().Open(ctx, subjectID, readerID, tappedAt)
		if err != nil {
			return store.Interaction{}, err
		}
		if _, err := s.ActiveSessions().Create(ctx, subjectID, readerID, sess.ID, tappedAt); err != nil {
			return store.Interaction{}, err
		}
		return s.Interactions().Append(ctx, store.Interaction{
			ReaderID:  readerID,
			SubjectID: &subjectID,
			CardID:    cardID,
			TappedAt:  tappedAt,
			Outcome:   types.OutcomeEntry,
		})

	case active.ReaderID == readerID:
		// Exit at the same reader.
		if err := e.exit(ctx, s, active, cardID, tappedAt); err != nil {
			return store.Interaction{}, err
		}
		return s.Interactions().Append(ctx, store.Interaction{
			ReaderID:  readerID,
			SubjectID: &subjectID,
			CardID:    cardID,
			TappedAt:  tappedAt,
			Outcome:   types.OutcomeExit,
		})

	default:
		// Seen at a second reader while still present at the first:
		// exit the old reader, then enter the new one, as one unit.
		// The exit gets its own audit row against the old reader; the
		// returned interaction is the entry at the new one.
		if err := e.exit(ctx, s, active, cardID, tappedAt); err != nil {
			return store.Interaction{}, err
		}
		if _, err := s.Interactions().Append(ctx, store.Interaction{
			ReaderID:  active.ReaderID,
			SubjectID: &subjectID,
			CardID:    cardID,
			TappedAt:  tappedAt,
			Outcome:   types.OutcomeExit,
		}); err != nil {
			return store.Interaction{}, err
		}

		sess, err := s.Sessions().Open(ctx, subjectID, readerID, tappedAt)
		if err != nil {
			return store.Interaction{}, err
		}
		if _, err := s.ActiveSessions().Create(ctx, subjectID, readerID, sess.ID, tappedAt); err != nil {
			return store.Interaction{}, err
		}
		return s.Interactions().Append(ctx, store.Interaction{
			ReaderID:  readerID,
			SubjectID: &subjectID,
			CardID:    cardID,
			TappedAt:  tappedAt,
			Outcome:   types.OutcomeEntry,
		})
	}
}

// exit closes the ledger row and removes the presence pointer.
func (e *Engine) exit(ctx context.Context, s store.Stores, active *store.ActiveSession, cardID string, endedAt time.Time) error {
	if err := s.Sessions().Close(ctx, active.SessionID, endedAt); err != nil {
		return err
	}
	return s.ActiveSessions().Remove(ctx, active.ID)
}

// parseOptionalTimestamp attempts to parse a reader-reported timestamp.
// Returns nil if the string is empty or unparseable.
func parseOptionalTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	u := t.UTC()
	return &u
}
