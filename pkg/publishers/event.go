package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
)

// Event represents the payload published downstream after a profile ran.
type Event struct {
	ID            string    `json:"id"`
	ProfileID     string    `json:"profile_id"`
	Method        string    `json:"method"`
	URL           string    `json:"url"`
	StatusCode    int       `json:"status_code"`
	Format        string    `json:"format"`
	ContentType   string    `json:"content_type,omitempty"`
	ContentLength int       `json:"content_length"`
	SavedFile     string    `json:"saved_file,omitempty"`
	Title         string    `json:"title,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// NewEvent constructs an Event describing resp for the given profile.
func NewEvent(profileID string, resp *httpclient.Response) Event {
	evt := Event{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		CompletedAt: time.Now().UTC(),
	}
	if resp == nil {
		return evt
	}
	evt.Method = resp.Method()
	evt.URL = resp.URL()
	evt.StatusCode = resp.StatusCode()
	evt.Format = resp.Format().String()
	evt.ContentType = resp.ContentType()
	evt.ContentLength = len(resp.Content())
	evt.CompletedAt = resp.ReceivedAt()
	return evt
}
