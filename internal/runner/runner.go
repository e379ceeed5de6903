package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-httpkit/internal/logger"
	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpkit/pkg/profiles"
	"github.com/samvad-hq/samvad-httpkit/pkg/publishers"
)

// Service runs request profiles against a dispatcher, saving and publishing the results.
type Service struct {
	client    httpclient.Dispatcher
	ledger    Ledger
	publisher EventPublisher
	recorder  Recorder
	log       logger.Logger
}

// NewService wires a runner. Only the dispatcher is required.
func NewService(client httpclient.Dispatcher, ledger Ledger, pub EventPublisher, rec Recorder, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		client:    client,
		ledger:    ledger,
		publisher: pub,
		recorder:  rec,
		log:       log,
	}
}

// Run executes every profile once. Failures do not stop the pass; they are
// joined into the returned error.
func (s *Service) Run(ctx context.Context, cfgs []profiles.Profile) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("runner service is not initialized")
	}
	if len(cfgs) == 0 {
		return fmt.Errorf("no profiles configured")
	}

	errs := make([]error, 0, len(cfgs))
	for _, cfg := range cfgs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.RunProfile(ctx, cfg); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("profile run failed", "profile_error", map[string]any{
				"profile_id": cfg.ID,
				"error":      err.Error(),
			})
		}
	}
	return errors.Join(errs...)
}

// RunProfile dispatches a single profile and returns the event describing the outcome.
func (s *Service) RunProfile(ctx context.Context, cfg profiles.Profile) (publishers.Event, error) {
	start := time.Now()
	resp, err := cfg.Dispatch(ctx, s.client)
	if err != nil {
		return publishers.Event{}, fmt.Errorf("dispatch profile %s: %w", cfg.ID, err)
	}

	evt := publishers.NewEvent(cfg.ID, resp)
	s.log.InfoObj("profile response received", "profile_result", map[string]any{
		"profile_id":  cfg.ID,
		"status_code": resp.StatusCode(),
		"format":      resp.Format().String(),
		"bytes":       len(resp.Content()),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})

	var errs []error
	if cfg.Save != nil {
		name, err := s.save(cfg, resp)
		if err != nil {
			errs = append(errs, fmt.Errorf("save profile %s: %w", cfg.ID, err))
		}
		evt.SavedFile = name
	}

	if resp.IsHTML() {
		evt.Title = pageTitle(resp)
	}

	if s.publisher != nil {
		n, err := s.publisher.Publish(ctx, evt)
		if n > 0 && s.recorder != nil {
			s.recorder.RecordPublished()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("publish profile %s: %w", cfg.ID, err))
		}
	}

	return evt, errors.Join(errs...)
}
