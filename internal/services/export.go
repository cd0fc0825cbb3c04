package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/orgpulse/apiserver/internal/storage"
)

const exportKeyPrefix = "summaries/"

// ExportService snapshots the current summary into object storage so
// reporting runs can be archived and fetched later.
type ExportService struct {
	summaries *SummaryService
	store     *storage.Storage
}

func NewExportService(summaries *SummaryService, store *storage.Storage) *ExportService {
	return &ExportService{summaries: summaries, store: store}
}

// Export computes the summary and stores it as a JSON object. Returns
// the export name, usable with Open.
func (s *ExportService) Export(ctx context.Context) (string, error) {
	summary, err := s.summaries.Summarize(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return "", err
	}

	name := time.Now().UTC().Format("2006-01-02T15-04-05Z") + ".json"
	if err := s.store.Put(ctx, exportKeyPrefix+name, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", err
	}
	return name, nil
}

// Open streams a previously stored export back.
func (s *ExportService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.store.Get(ctx, exportKeyPrefix+name)
}
