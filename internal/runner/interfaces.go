package runner

import (
	"context"

	"github.com/samvad-hq/samvad-httpkit/pkg/publishers"
)

// EventPublisher publishes response events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Ledger remembers which bodies were already written to disk.
type Ledger interface {
	Lookup(digest string) (string, bool, error)
	Record(digest, filename string) error
}

// Recorder receives runner outcomes for metrics.
type Recorder interface {
	RecordSave(result string)
	RecordPublished()
}
