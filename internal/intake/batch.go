package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/metrics"
	"github.com/gfi/datareview/internal/objectpath"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchRecord is one question/answer row of a structured submission.
type BatchRecord struct {
	ProjID   string `json:"proj_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Result   string `json:"result"`
}

// BatchWrite reports one per-project object written for a batch.
type BatchWrite struct {
	ProjectID   string
	Key         string
	URI         string
	RecordCount int
	Status      objectpath.Status
}

// IngestBatch validates all records, partitions them by project and writes
// one JSON object per project partition. Validation and the per-group size
// check run before the first write; a failing group fails the whole batch
// with nothing committed.
func (s *Service) IngestBatch(ctx context.Context, records []BatchRecord, uploader, idempotencyKey string) ([]BatchWrite, error) {
	if len(records) == 0 {
		return nil, ErrInvalidPayloadShape
	}

	for i, rec := range records {
		if err := validateRecord(i, rec); err != nil {
			return nil, err
		}
	}

	groups := make(map[string][]BatchRecord)
	for _, rec := range records {
		project := strings.ToLower(strings.TrimSpace(rec.ProjID))
		groups[project] = append(groups[project], rec)
	}

	projects := make([]string, 0, len(groups))
	for project := range groups {
		projects = append(projects, project)
	}
	sort.Strings(projects)

	now := s.nowFunc()
	type pendingWrite struct {
		project string
		key     string
		body    []byte
		count   int
	}
	writes := make([]pendingWrite, 0, len(projects))

	for _, project := range projects {
		body, err := json.Marshal(groups[project])
		if err != nil {
			return nil, fmt.Errorf("serialize group %s: %w", project, err)
		}
		if int64(len(body)) > s.maxSize {
			return nil, fmt.Errorf("%w: group %s", ErrPayloadTooLarge, project)
		}
		basename := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
		writes = append(writes, pendingWrite{
			project: project,
			key:     objectpath.Build(objectpath.StatusPending, project, basename, "json", now),
			body:    body,
			count:   len(groups[project]),
		})
	}

	results := make([]BatchWrite, 0, len(writes))
	for _, w := range writes {
		metadata := map[string]string{
			"proj_id":        w.project,
			"uploader":       uploader,
			"schema_version": schemaVersionBatch,
			"content":        "json",
			"items_count":    strconv.Itoa(w.count),
			"status":         string(objectpath.StatusPending),
		}
		if idempotencyKey != "" {
			metadata["idempotency_key"] = idempotencyKey
		}

		if err := s.store.Put(ctx, w.key, w.body, "application/json", metadata); err != nil {
			return nil, fmt.Errorf("write batch object for %s: %w", w.project, err)
		}

		metrics.UploadsTotal.WithLabelValues("json").Inc()
		s.log.Info("batch group ingested",
			zap.String("key", w.key),
			zap.String("proj_id", w.project),
			zap.Int("items", w.count))

		results = append(results, BatchWrite{
			ProjectID:   w.project,
			Key:         w.key,
			URI:         blob.URI(s.store, w.key),
			RecordCount: w.count,
			Status:      objectpath.StatusPending,
		})
	}

	return results, nil
}

func validateRecord(index int, rec BatchRecord) error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"proj_id", rec.ProjID},
		{"question", rec.Question},
		{"answer", rec.Answer},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return &RecordError{Index: index, Missing: missing}
	}

	switch strings.ToLower(strings.TrimSpace(rec.Result)) {
	case "yes", "no":
		return nil
	default:
		return &RecordError{Index: index, Reason: fmt.Sprintf("result must be yes or no, got %q", rec.Result)}
	}
}
