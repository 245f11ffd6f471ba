package simplifier

import (
	"context"
	"strings"
	"time"

	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/internal/logging"
	"github.com/textsimplify/api/internal/metrics"
	"github.com/textsimplify/api/internal/tracing"
	"github.com/textsimplify/api/pkg/models"
)

// QueryStore persists simplification results
type QueryStore interface {
	CreateQuery(ctx context.Context, q *models.Query) error
}

// Service performs text simplification end to end: validate, prompt,
// complete, parse, persist
type Service struct {
	completer Completer
	store     QueryStore
	log       *logging.Logger
	model     string
}

// NewService creates a new simplification service
func NewService(completer Completer, store QueryStore, log *logging.Logger, model string) *Service {
	return &Service{
		completer: completer,
		store:     store,
		log:       log,
		model:     model,
	}
}

// Simplify validates the request, calls the completion API and persists the
// resulting query for the user
func (s *Service) Simplify(ctx context.Context, userID, text, levelStr string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierror.Validation("Please provide text to simplify")
	}

	level, err := ParseLevel(levelStr)
	if err != nil {
		return nil, apierror.Validation("Level must be one of: elementary, standard, technical")
	}

	prompt := BuildPrompt(text, level)

	span, ctx := tracing.StartSpan(ctx, "simplifier.complete")
	tracing.SetTag(span, "level", string(level))

	start := time.Now()
	reply, err := s.completer.Complete(ctx, prompt)
	duration := time.Since(start)

	metrics.UpstreamRequestDuration.Observe(duration.Seconds())
	s.log.LogUpstreamCall(s.model, string(level), duration, err)

	if err != nil {
		tracing.LogError(span, err)
		tracing.FinishSpan(span)
		metrics.SimplificationsTotal.WithLabelValues(string(level), "error").Inc()
		metrics.UpstreamErrorsTotal.WithLabelValues(upstreamErrorKind(err)).Inc()
		return nil, err
	}
	tracing.FinishSpan(span)

	result, err := ParseResponse(reply)
	if err != nil {
		metrics.SimplificationsTotal.WithLabelValues(string(level), "unparsable").Inc()
		return nil, apierror.Unprocessable(err.Error())
	}

	query := &models.Query{
		UserID:         userID,
		OriginalText:   text,
		Level:          level,
		SimplifiedText: result.Simplified,
		KeyPoints:      result.KeyPoints,
		ReadingLevel:   result.Level,
	}

	if err := s.store.CreateQuery(ctx, query); err != nil {
		s.log.ErrorWithErr("Failed to persist query", err)
		metrics.SimplificationsTotal.WithLabelValues(string(level), "error").Inc()
		return nil, err
	}

	metrics.SimplificationsTotal.WithLabelValues(string(level), "success").Inc()
	return result, nil
}

func upstreamErrorKind(err error) string {
	apiErr := apierror.From(err)
	switch apiErr.Status {
	case 401:
		return "auth"
	case 429:
		return "rate_limit"
	default:
		return "other"
	}
}
