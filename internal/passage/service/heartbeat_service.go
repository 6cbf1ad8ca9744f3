package service

import (
	"context"
	"strings"
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
	"github.com/evanmarcey/passage/internal/passage/types"
)

// HeartbeatService records reader liveness reports.  Heartbeats from
// unregistered readers are accepted (the row is created disabled) so a
// newly installed reader shows up for commissioning.
type HeartbeatService struct {
	heartbeats store.HeartbeatStore
	directory  *ReaderDirectory
}

func NewHeartbeatService(hs store.HeartbeatStore, dir *ReaderDirectory) *HeartbeatService {
	return &HeartbeatService{heartbeats: hs, directory: dir}
}

func (s *HeartbeatService) Record(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	readerID := strings.TrimSpace(req.ReaderID)
	if readerID == "" {
		return types.HeartbeatResponse{}, ErrInvalidReaderID
	}

	reader, err := s.directory.Resolve(ctx, readerID)
	if err != nil {
		return types.HeartbeatResponse{}, err
	}
	registered := reader != nil && reader.Registered

	rec := store.HeartbeatRecord{
		ReceivedAt: time.Now().UTC(),
		Request:    req,
	}
	if err := s.heartbeats.RecordHeartbeat(ctx, readerID, rec); err != nil {
		return types.HeartbeatResponse{}, err
	}

	return types.HeartbeatResponse{
		OK:         true,
		Registered: registered,
		ReaderID:   readerID,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
