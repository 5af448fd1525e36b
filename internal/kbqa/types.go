// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package kbqa

// Code is the numeric result code of an answer request.
type Code int

// Result codes. Any nonzero code is a per-request failure whose message is
// safe to show the caller.
const (
	CodeOK Code = iota
	CodeInvalidRequest
	CodeNoTopic
	CodeCandidatesUnavailable
	CodeModelFailure
	CodeInternal
)

// String returns a short name for the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeNoTopic:
		return "no_topic"
	case CodeCandidatesUnavailable:
		return "candidates_unavailable"
	case CodeModelFailure:
		return "model_failure"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Constrained-entity keys of a persona.
const (
	LikesKey    = "1"
	DislikesKey = "2"
)

// Persona carries the asker's ingredient preferences.
type Persona struct {
	IngredientLikes    []string `json:"ingredient_likes" validate:"max=64,dive,required"`
	IngredientDislikes []string `json:"ingredient_dislikes" validate:"max=64,dive,required"`
	// ConstrainedEntities maps a mark key (LikesKey, DislikesKey) to entity
	// phrases. When empty it is derived from the likes and dislikes.
	ConstrainedEntities map[string][]string `json:"constrained_entities" validate:"omitempty,dive,keys,markkey,endkeys,dive,required"`
}

// Constraints returns the constrained entities, deriving them from the
// likes and dislikes when none were given.
func (p *Persona) Constraints() map[string][]string {
	if len(p.ConstrainedEntities) > 0 {
		return p.ConstrainedEntities
	}
	out := make(map[string][]string, 2)
	if len(p.IngredientLikes) > 0 {
		out[LikesKey] = p.IngredientLikes
	}
	if len(p.IngredientDislikes) > 0 {
		out[DislikesKey] = p.IngredientDislikes
	}
	return out
}

// Request is one question put to the answer service.
type Request struct {
	Question     string `json:"question" validate:"required,max=2000"`
	QuestionType string `json:"question_type" validate:"omitempty,oneof=constraint simple comparison"`
	// TopicEntities are tried in order against the candidate store.
	TopicEntities []string `json:"topic_entities" validate:"max=32,dive,required"`
	// Entities are [text, type] pairs detected in the question.
	Entities          [][]string     `json:"entities" validate:"max=64,dive,len=2,dive,required"`
	Persona           Persona        `json:"persona"`
	Guideline         map[string]any `json:"guideline"`
	ExplicitNutrition []string       `json:"explicit_nutrition" validate:"max=64"`
	// SimilarRecipes maps candidate ids to a similarity hint.
	SimilarRecipes map[string]float64 `json:"similar_recipes" validate:"max=1000,dive,keys,required,endkeys"`
}

// Result is the answer to one Request. Answers, AnswerIDs and Paths are
// parallel and ordered by descending score.
type Result struct {
	Answers        []string   `json:"answers"`
	AnswerIDs      []string   `json:"answer_ids"`
	Paths          [][]string `json:"answer_paths"`
	Scores         []float64  `json:"scores"`
	QueryAttention []float64  `json:"query_attention"`
	// Topic is the topic entity whose candidates were ranked.
	Topic     string `json:"topic,omitempty"`
	Code      Code   `json:"err_code"`
	Message   string `json:"err_msg"`
	RequestID string `json:"request_id,omitempty"`
}

// OK reports whether the request succeeded.
func (r *Result) OK() bool {
	return r.Code == CodeOK
}

func emptyResult() *Result {
	return &Result{
		Answers:        []string{},
		AnswerIDs:      []string{},
		Paths:          [][]string{},
		Scores:         []float64{},
		QueryAttention: []float64{},
	}
}
