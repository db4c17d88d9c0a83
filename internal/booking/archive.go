package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
)

// Archiver stores full transcripts for later review and search. A nil
// Archiver on the service disables archival.
type Archiver interface {
	Index(ctx context.Context, doc TranscriptDocument) error
}

// TranscriptDocument is the archive shape indexed per call.
type TranscriptDocument struct {
	CallID     string    `json:"call_id"`
	IntakeID   string    `json:"intake_id"`
	Transcript string    `json:"transcript"`
	CallType   string    `json:"call_type"`
	Confidence float64   `json:"confidence"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// TranscriptArchive indexes transcripts into Elasticsearch.
type TranscriptArchive struct {
	es    *elasticsearch.Client
	index string
	log   logger.Logger
}

func NewTranscriptArchive(es *elasticsearch.Client, index string, log logger.Logger) *TranscriptArchive {
	return &TranscriptArchive{
		es:    es,
		index: index,
		log:   log.WithFields(map[string]interface{}{"component": "transcript-archive"}),
	}
}

func (a *TranscriptArchive) Index(ctx context.Context, doc TranscriptDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal transcript document: %w", err)
	}

	res, err := a.es.Index(
		a.index,
		bytes.NewReader(body),
		a.es.Index.WithDocumentID(doc.CallID),
		a.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index transcript: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index transcript: %s", res.Status())
	}

	a.log.Debug("transcript archived", map[string]interface{}{
		"callId": doc.CallID,
		"index":  a.index,
	})
	return nil
}
