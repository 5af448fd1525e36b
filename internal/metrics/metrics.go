// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainEpochs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbqa_train_epochs_total",
			Help: "Total number of completed training epochs",
		},
	)

	TrainEpochDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbqa_train_epoch_duration_seconds",
			Help:    "Duration of one training epoch including validation",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	TrainLoss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kbqa_train_loss",
			Help: "Mean margin loss of the last epoch",
		},
		[]string{"split"}, // "train", "valid"
	)

	ValidF1 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbqa_valid_f1",
			Help: "Average answer F1 on the validation split in the last epoch",
		},
	)

	BestValidF1 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbqa_valid_f1_best",
			Help: "Best validation F1 seen in the current run",
		},
	)

	LearningRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbqa_learning_rate",
			Help: "Current optimizer learning rate",
		},
	)

	LRReductions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbqa_lr_reductions_total",
			Help: "Total number of plateau learning-rate reductions",
		},
	)

	EarlyStops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbqa_train_early_stops_total",
			Help: "Total number of training runs stopped for lack of validation improvement",
		},
	)

	// Memory Builder Metrics
	BatchBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbqa_batch_build_duration_seconds",
			Help:    "Duration of candidate memory construction per batch",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"mode"}, // "training", "inference"
	)

	BatchQuestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbqa_batch_questions_total",
			Help: "Total number of questions turned into candidate memories",
		},
		[]string{"mode"},
	)

	// Answer Metrics
	AnswerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbqa_answer_requests_total",
			Help: "Total number of answer requests by result code",
		},
		[]string{"code"},
	)

	AnswerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbqa_answer_duration_seconds",
			Help:    "Duration of answer requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	AnswersReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbqa_answers_returned",
			Help:    "Number of answers accepted per question",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	// Candidate Store Metrics
	StoreLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbqa_store_lookups_total",
			Help: "Total number of candidate bundle lookups",
		},
		[]string{"result"}, // "hit", "cache_hit", "miss", "error"
	)

	StoreImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbqa_store_bundles_imported_total",
			Help: "Total number of candidate bundles imported",
		},
	)

	// Checkpoint Metrics
	CheckpointSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbqa_checkpoint_saves_total",
			Help: "Total number of checkpoint writes",
		},
		[]string{"status"}, // "success", "error"
	)

	CheckpointSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbqa_checkpoint_size_bytes",
			Help: "Stored size of the last written checkpoint",
		},
	)
)

// RecordEpoch records the outcome of one training epoch
func RecordEpoch(trainLoss, validLoss, f1, lr float64, duration time.Duration) {
	TrainEpochs.Inc()
	TrainEpochDuration.Observe(duration.Seconds())
	TrainLoss.WithLabelValues("train").Set(trainLoss)
	TrainLoss.WithLabelValues("valid").Set(validLoss)
	ValidF1.Set(f1)
	LearningRate.Set(lr)
}

// RecordBestF1 records a new best validation F1
func RecordBestF1(f1 float64) {
	BestValidF1.Set(f1)
}

// RecordLRReduction records a plateau learning-rate reduction
func RecordLRReduction(lr float64) {
	LRReductions.Inc()
	LearningRate.Set(lr)
}

// RecordEarlyStop records a training run stopped by patience
func RecordEarlyStop() {
	EarlyStops.Inc()
}

// RecordBatchBuild records candidate memory construction for a batch
func RecordBatchBuild(mode string, questions int, duration time.Duration) {
	BatchBuildDuration.WithLabelValues(mode).Observe(duration.Seconds())
	BatchQuestions.WithLabelValues(mode).Add(float64(questions))
}

// RecordAnswer records an answer request with its result code
func RecordAnswer(code, answers int, duration time.Duration) {
	AnswerRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	AnswerDuration.Observe(duration.Seconds())
	if code == 0 {
		AnswersReturned.Observe(float64(answers))
	}
}

// RecordStoreLookup records a candidate bundle lookup
func RecordStoreLookup(found bool, err error) {
	switch {
	case err != nil:
		StoreLookups.WithLabelValues("error").Inc()
	case found:
		StoreLookups.WithLabelValues("hit").Inc()
	default:
		StoreLookups.WithLabelValues("miss").Inc()
	}
}

// RecordStoreCacheHit records a bundle lookup served from the in-process cache
func RecordStoreCacheHit() {
	StoreLookups.WithLabelValues("cache_hit").Inc()
}

// RecordImport records imported candidate bundles
func RecordImport(count int) {
	StoreImported.Add(float64(count))
}

// RecordCheckpointSave records a checkpoint write
func RecordCheckpointSave(sizeBytes int64, err error) {
	if err != nil {
		CheckpointSaves.WithLabelValues("error").Inc()
		return
	}
	CheckpointSaves.WithLabelValues("success").Inc()
	CheckpointSize.Set(float64(sizeBytes))
}

// WriteTextfile writes the default registry in the node-exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
