// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package kbqa answers recipe questions: it resolves the candidate bundle of
// a topic entity, scores the candidates with the trained network and keeps
// every candidate within the test margin of the best one.
//
// Answer never returns an error. Failures are reported through Result.Code
// and Result.Message, and a panic anywhere below Answer becomes CodeInternal.
package kbqa

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/memory"
	"github.com/tomtom215/kbqa/internal/metrics"
	"github.com/tomtom215/kbqa/internal/network"
	"github.com/tomtom215/kbqa/internal/ranking"
	"github.com/tomtom215/kbqa/internal/store"
	"github.com/tomtom215/kbqa/internal/validation"
)

// DefaultTopicPrefix is the knowledge-graph namespace of recipe tags.
const DefaultTopicPrefix = "http://idea.rpi.edu/heals/kb/tag/"


// BundleSource resolves candidate bundles by topic entity.
type BundleSource interface {
	Lookup(ctx context.Context, topics []string) (*store.Bundle, error)
}

// Scorer runs the network over inference batches.
type Scorer interface {
	Score(records []memory.Record, queries []memory.Query) (*memory.Batch, *network.Output, error)
}

// Config holds answer service settings.
type Config struct {
	// Margin is the ranking margin.
	Margin float64
	// UnknownLabel is never returned as an answer.
	UnknownLabel string
	// AugmentSimilar enables the similar-recipe score boost.
	AugmentSimilar bool
	// SimilarityScoreRatio scales similar-recipe hints.
	SimilarityScoreRatio float64
	// TopicPrefix is prepended to topic entities given without a scheme.
	TopicPrefix string
	// MaxQueryLen truncates long questions; 0 disables truncation.
	MaxQueryLen int
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		Margin:               0.9,
		UnknownLabel:         "UNK",
		SimilarityScoreRatio: 0.2,
		TopicPrefix:          DefaultTopicPrefix,
	}
}

// Service answers questions.
type Service struct {
	config  Config
	source  BundleSource
	scorer  Scorer
	encoder *Encoder
	logger  zerolog.Logger
}

// NewService creates an answer service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(cfg Config, source BundleSource, scorer Scorer, encoder *Encoder, logger zerolog.Logger) (*Service, error) {
	if source == nil || scorer == nil || encoder == nil {
		return nil, errors.New("answer service requires a bundle source, a scorer and an encoder")
	}
	if cfg.Margin < 0 {
		return nil, fmt.Errorf("margin must be non-negative, got %v", cfg.Margin)
	}
	return &Service{
		config:  cfg,
		source:  source,
		scorer:  scorer,
		encoder: encoder,
		logger:  logging.WithComponent(logger, "answer"),
	}, nil
}

// TopicKey maps a topic entity to its store key. Topics that already carry
// a URI scheme are kept as given.
func TopicKey(prefix, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" || strings.Contains(topic, "://") {
		return topic
	}
	return prefix + topic
}

// Answer answers one question.
func (s *Service) Answer(ctx context.Context, req *Request) (res *Result) {
	start := time.Now()
	ctx = logging.EnsureRequestID(logging.ContextWithLogger(ctx, s.logger))
	logger := logging.Ctx(ctx)

	res = emptyResult()
	res.RequestID = logging.RequestIDFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Answer panicked")
			res = emptyResult()
			res.RequestID = logging.RequestIDFromContext(ctx)
			res.Code = CodeInternal
			res.Message = "internal error"
		}
		metrics.RecordAnswer(int(res.Code), len(res.Answers), time.Since(start))
	}()

	if req == nil {
		return s.fail(logger, res, CodeInvalidRequest, "empty request", nil)
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return s.fail(logger, res, CodeInvalidRequest, verr.Error(), nil)
	}

	logger.Debug().
		Str("question", logging.Truncate(req.Question, 120)).
		Str("question_type", req.QuestionType).
		Strs("topics", req.TopicEntities).
		Int("explicit_nutrition", len(req.ExplicitNutrition)).
		Int("guideline_keys", len(req.Guideline)).
		Msg("Answering question")

	topics := make([]string, 0, len(req.TopicEntities))
	for _, t := range req.TopicEntities {
		if key := TopicKey(s.config.TopicPrefix, t); key != "" && !slices.Contains(topics, key) {
			topics = append(topics, key)
		}
	}
	if len(topics) == 0 {
		return s.fail(logger, res, CodeNoTopic, "no topic entity in request", nil)
	}

	bundle, err := s.source.Lookup(ctx, topics)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return s.fail(logger, res, CodeNoTopic, "no known topic entity in request", err)
	case err != nil:
		return s.fail(logger, res, CodeCandidatesUnavailable, "candidate lookup failed", err)
	}
	res.Topic = bundle.Topic

	// Only the dummy candidate: the ranking is empty, not a failure.
	if bundle.Record.RealCount() == 0 {
		logger.Warn().
			Str("topic", bundle.Topic).
			Msg("Topic entity has no candidates, returning empty answer set")
		return res
	}

	query := s.encoder.Encode(req)
	_, out, err := s.scorer.Score([]memory.Record{bundle.Record}, []memory.Query{query})
	if err != nil {
		return s.fail(logger, res, CodeModelFailure, "model failed to score candidates", err)
	}
	final := out.Final()
	if len(final) == 0 {
		return s.fail(logger, res, CodeModelFailure, "model returned no scores", nil)
	}

	scores := s.boost(final[0], bundle, req.SimilarRecipes)
	preds := ranking.Rank(scores, bundle.Labels(), s.config.Margin, s.config.UnknownLabel)
	for _, p := range preds {
		c := bundle.Candidates[p.Index]
		res.Answers = append(res.Answers, c.Label)
		res.AnswerIDs = append(res.AnswerIDs, c.ID)
		path := c.Path
		if path == nil {
			path = []string{}
		}
		res.Paths = append(res.Paths, path)
		res.Scores = append(res.Scores, p.Score)
	}
	if len(out.QueryAttention) > 0 {
		res.QueryAttention = out.QueryAttention[0]
	}

	logger.Info().
		Str("topic", bundle.Topic).
		Int("candidates", len(bundle.Candidates)).
		Int("answers", len(res.Answers)).
		Dur("duration", time.Since(start)).
		Msg("Answered question")
	return res
}

// boost adds ratio * hint to the score of every real candidate with a
// similar-recipe hint. scores is copied, never modified.
func (s *Service) boost(scores []float64, bundle *store.Bundle, hints map[string]float64) []float64 {
	if !s.config.AugmentSimilar || len(hints) == 0 {
		return scores
	}
	out := slices.Clone(scores)
	for j, c := range bundle.Candidates {
		if j >= len(out) {
			break
		}
		if hint, ok := hints[c.ID]; ok {
			out[j] += s.config.SimilarityScoreRatio * hint
		}
	}
	return out
}

func (s *Service) fail(logger *zerolog.Logger, res *Result, code Code, msg string, err error) *Result {
	ev := logger.Warn()
	if code == CodeModelFailure || code == CodeCandidatesUnavailable {
		ev = logger.Error()
	}
	ev.Err(err).Str("code", code.String()).Msg(msg)

	res.Code = code
	res.Message = msg
	return res
}
