package timeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Loader reads the five raw tables out of an uploaded workbook.
type Loader interface {
	Load(ctx context.Context, r io.Reader) (*RawTables, error)
}

// TemplateWriter writes an empty workbook in the expected layout.
type TemplateWriter interface {
	WriteTemplate(w io.Writer) error
}

// Renderer draws a normalized timeline.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, t *Timeline) error
}

// Recorder receives render outcomes; the metrics package implements it.
type Recorder interface {
	RenderCompleted(outcome string, elapsed time.Duration)
	InputRejected(table string)
}

// Render outcomes reported to the Recorder.
const (
	OutcomeOK         = "ok"
	OutcomeInputError = "input_error"
	OutcomeError      = "error"
)

type nopRecorder struct{}

func (nopRecorder) RenderCompleted(string, time.Duration) {}
func (nopRecorder) InputRejected(string)                  {}

type Service struct {
	loader   Loader
	renderer Renderer
	logger   zerolog.Logger
	rec      Recorder
	loc      *time.Location
	now      func() time.Time
}

func NewService(loader Loader, renderer Renderer, logger zerolog.Logger) *Service {
	return &Service{
		loader:   loader,
		renderer: renderer,
		logger:   logger,
		rec:      nopRecorder{},
		loc:      time.UTC,
		now:      time.Now,
	}
}

// SetRecorder attaches an optional outcome recorder.
func (s *Service) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.rec = r
}

// SetLocation sets the zone dates are parsed in and "today" is taken from.
func (s *Service) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// SetClock overrides the processing date source.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Build loads and normalizes an upload. It fails with ErrNoData when every
// table is empty.
func (s *Service) Build(ctx context.Context, r io.Reader) (*Timeline, error) {
	raw, err := s.loader.Load(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := NewNormalizer(s.now(), s.loc).Normalize(raw)
	if err != nil {
		return nil, err
	}
	if _, ok := ResolveRange(t); !ok {
		return nil, ErrNoData
	}
	return t, nil
}

// Render runs the whole pipeline and writes the chart to w. Nothing is
// written when any step fails.
func (s *Service) Render(ctx context.Context, r io.Reader, w io.Writer) (*Timeline, error) {
	renderID := uuid.New().String()
	start := time.Now()
	log := s.logger.With().Str("render_id", renderID).Logger()

	t, err := s.render(ctx, r, w)
	elapsed := time.Since(start)
	if err != nil {
		outcome := OutcomeError
		evt := log.Error()
		if IsInputError(err) {
			outcome = OutcomeInputError
			evt = log.Warn()
			var ie *InputError
			if errors.As(err, &ie) {
				s.rec.InputRejected(string(ie.Table))
			}
		}
		s.rec.RenderCompleted(outcome, elapsed)
		evt.Err(err).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("timeline render failed")
		return nil, err
	}

	s.rec.RenderCompleted(OutcomeOK, elapsed)
	log.Info().
		Int("medications", len(t.Medications)).
		Int("steroids", len(t.Steroids)).
		Int("labs", len(t.Labs)).
		Int("notes", len(t.Notes)).
		Int("temperatures", len(t.Temperatures)).
		Int("panels", t.PanelCount()).
		Dur("elapsed", elapsed).
		Msg("timeline rendered")
	return t, nil
}

func (s *Service) render(ctx context.Context, r io.Reader, w io.Writer) (*Timeline, error) {
	t, err := s.Build(ctx, r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(ctx, &buf, t); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return t, nil
}
