package storage

import (
	"context"
	"errors"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Sink receives successfully fetched pages.
type Sink interface {
	Store(ctx context.Context, page *model.Page) error
}

// MultiSink forwards every page to each of its sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. Nil sinks are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Store passes page to every sink, even after one fails, and joins the
// errors.
func (m *MultiSink) Store(ctx context.Context, page *model.Page) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Store(ctx, page); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
