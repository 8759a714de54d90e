package screen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/export"
	"github.com/newthinker/stockscreen/internal/notifier"
	"github.com/newthinker/stockscreen/internal/storage/result"
)

// Sink receives the report of every finished or cancelled run.
type Sink interface {
	Deliver(ctx context.Context, rep Report) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rep Report) error

func (f SinkFunc) Deliver(ctx context.Context, rep Report) error {
	return f(ctx, rep)
}

// ResultSink saves each pass to a result store.
type ResultSink struct {
	store result.Store
}

// NewResultSink creates a sink over store.
func NewResultSink(store result.Store) *ResultSink {
	return &ResultSink{store: store}
}

func (s *ResultSink) Deliver(ctx context.Context, rep Report) error {
	for _, inst := range rep.Passed {
		_, err := s.store.Save(ctx, core.FilterResult{
			Date:        rep.Date,
			Code:        inst.Code,
			Fingerprint: rep.Fingerprint,
			Kind:        rep.Kind,
			Strategy:    rep.Strategy,
			RunID:       rep.RunID,
		})
		if err != nil {
			return fmt.Errorf("saving %s: %w", inst.Code, err)
		}
	}
	return nil
}

// ExportSink writes the pass list as a text file.
type ExportSink struct {
	writer *export.Writer
}

// NewExportSink creates a sink over writer.
func NewExportSink(writer *export.Writer) *ExportSink {
	return &ExportSink{writer: writer}
}

func (s *ExportSink) Deliver(ctx context.Context, rep Report) error {
	_, err := s.writer.Write(ctx, rep.Date, rep.Kind, rep.Strategy, rep.Passed)
	return err
}

// NotifySink publishes a summary of every report to the registered notifiers.
type NotifySink struct {
	registry *notifier.Registry
}

// NewNotifySink creates a sink over registry.
func NewNotifySink(registry *notifier.Registry) *NotifySink {
	return &NotifySink{registry: registry}
}

func (s *NotifySink) Deliver(ctx context.Context, rep Report) error {
	errs := s.registry.NotifyAll(ctx, notifier.Summary{
		RunID:     rep.RunID,
		Strategy:  rep.Strategy,
		Kind:      rep.Kind,
		Date:      rep.Date,
		Passed:    rep.Passed,
		Evaluated: rep.Evaluated,
		Skipped:   rep.Skipped,
		Cancelled: rep.Cancelled,
	})
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for name, err := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %v", name, err))
	}
	sort.Strings(msgs)
	return fmt.Errorf("notify: %s", strings.Join(msgs, "; "))
}
