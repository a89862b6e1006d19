package upload

import (
	"context"
	"sync"

	"github.com/dvloznov/ledgerdesk/internal/events"
	"github.com/rs/zerolog"
)

// LogProgress is a ProgressSink that writes to a logger.
type LogProgress struct {
	Log zerolog.Logger
}

func (p LogProgress) Indeterminate()     { p.Log.Info().Msg("Uploading...") }
func (p LogProgress) Report(percent int) { p.Log.Info().Int("percent", percent).Msg("Uploading") }
func (p LogProgress) Complete()          { p.Log.Info().Int("percent", 100).Msg("Upload complete") }
func (p LogProgress) Failed(msg string)  { p.Log.Error().Str("message", msg).Msg("Upload failed") }

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Indeterminate() {}
func (NopProgress) Report(int)     {}
func (NopProgress) Complete()      {}
func (NopProgress) Failed(string)  {}

// progressWatcher forwards upload.progress events for one request to a sink.
// Percentages only move forward and stay below 100 until the response arrives.
type progressWatcher struct {
	stream *events.Stream
	wg     sync.WaitGroup
}

func watchProgress(ctx context.Context, src EventSource, companyID, requestID string, sink ProgressSink, log zerolog.Logger) *progressWatcher {
	if src == nil || companyID == "" {
		return nil
	}
	stream, err := src.Subscribe(ctx, companyID)
	if err != nil {
		log.Warn().Err(err).Msg("Progress events unavailable")
		return nil
	}

	w := &progressWatcher{stream: stream}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		last := 0
		for ev := range stream.Events() {
			if ev.Type != events.TypeUploadProgress || ev.RequestID != requestID {
				continue
			}
			if ev.Progress <= last || ev.Progress >= 100 {
				continue
			}
			last = ev.Progress
			sink.Report(last)
		}
	}()
	return w
}

// stop closes the stream and waits until no more reports can happen.
func (w *progressWatcher) stop() {
	if w == nil {
		return
	}
	w.stream.Close()
	w.wg.Wait()
}
