// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

/*
Package metrics provides Prometheus instrumentation for training and
question answering.

Collectors are registered with the default registry at package init and
updated through the Record* helpers. Batch commands have no scrape endpoint,
so WriteTextfile dumps the registry for the node-exporter textfile collector
when metrics.textfile_path is configured.

# Available Metrics

Training Metrics:
  - kbqa_train_epochs_total: Completed epochs (counter)
  - kbqa_train_epoch_duration_seconds: Epoch duration (histogram)
  - kbqa_train_loss: Mean loss of the last epoch (gauge)
    Labels: split (train, valid)
  - kbqa_valid_f1, kbqa_valid_f1_best: Validation F1 (gauge)
  - kbqa_learning_rate: Optimizer learning rate (gauge)
  - kbqa_lr_reductions_total: Plateau reductions (counter)
  - kbqa_train_early_stops_total: Runs stopped by patience (counter)

Memory Builder Metrics:
  - kbqa_batch_build_duration_seconds: Memory construction time (histogram)
    Labels: mode (training, inference)
  - kbqa_batch_questions_total: Questions processed (counter)
    Labels: mode

Answer Metrics:
  - kbqa_answer_requests_total: Requests by result code (counter)
    Labels: code
  - kbqa_answer_duration_seconds: Request latency (histogram)
  - kbqa_answers_returned: Accepted answers per question (histogram)

Store and Checkpoint Metrics:
  - kbqa_store_lookups_total: Bundle lookups (counter)
    Labels: result (hit, miss, error)
  - kbqa_store_bundles_imported_total: Imported bundles (counter)
  - kbqa_checkpoint_saves_total: Checkpoint writes (counter)
    Labels: status (success, error)
  - kbqa_checkpoint_size_bytes: Size of the last checkpoint (gauge)

# Usage

	start := time.Now()
	batch, err := builder.BuildInference(records, queries)
	metrics.RecordBatchBuild("inference", len(records), time.Since(start))
*/
package metrics
