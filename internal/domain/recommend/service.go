package recommend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/clinic/rxengine/internal/domain/medicine"
	"github.com/clinic/rxengine/internal/domain/patient"
	"github.com/clinic/rxengine/internal/platform/db"
)

const tracerName = "github.com/clinic/rxengine/internal/domain/recommend"

// Service is the clinical recommendation engine. It holds no mutable state
// and is safe for concurrent use.
type Service struct {
	catalog  CatalogReader
	patients PatientReader
	kb       KnowledgeBase
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewService(catalog CatalogReader, patients PatientReader, kb KnowledgeBase, logger zerolog.Logger) *Service {
	if kb == nil {
		kb = DefaultKnowledgeBase()
	}
	return &Service{
		catalog:  catalog,
		patients: patients,
		kb:       kb,
		logger:   logger.With().Str("component", "recommend").Logger(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// SetClock overrides the clock used to derive patient ages.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "recommend."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) loadCatalog(ctx context.Context) ([]*medicine.Medicine, error) {
	meds, err := s.catalog.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("catalog read failed")
		return nil, &DataAccessError{Op: "read catalog", Err: err}
	}
	return meds, nil
}

// loadProfile resolves patientID. A blank, malformed or unknown id yields a
// nil profile without error.
func (s *Service) loadProfile(ctx context.Context, patientID string) (*patient.Profile, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(patientID)
	if err != nil {
		s.logger.Warn().Str("patient_id", patientID).Msg("unparseable patient id, skipping patient checks")
		return nil, nil
	}
	p, err := s.patients.GetProfile(ctx, id)
	if errors.Is(err, patient.ErrNotFound) {
		s.logger.Warn().Str("patient_id", patientID).Msg("patient not found, skipping patient checks")
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID).Msg("patient read failed")
		return nil, &DataAccessError{Op: "read patient", Err: err}
	}
	return p, nil
}

// loadCatalogAndProfile issues both reads concurrently, unless the request
// is pinned to a single clinic connection, which cannot serve two queries at
// once. Then the reads run one after the other.
func (s *Service) loadCatalogAndProfile(ctx context.Context, patientID string) ([]*medicine.Medicine, *patient.Profile, error) {
	if db.ConnFromContext(ctx) != nil {
		meds, err := s.loadCatalog(ctx)
		if err != nil {
			return nil, nil, err
		}
		profile, err := s.loadProfile(ctx, patientID)
		if err != nil {
			return nil, nil, err
		}
		return meds, profile, nil
	}

	var (
		meds    []*medicine.Medicine
		profile *patient.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meds, err = s.loadCatalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.loadProfile(gctx, patientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return meds, profile, nil
}
