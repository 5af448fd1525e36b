// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

/*
Package config provides layered configuration for kbqa.

# Configuration Sources

Sources are applied in order, later ones winning:

 1. Defaults (defaultConfig), loaded through the koanf structs provider
 2. A YAML file: the --config flag, KBQA_CONFIG, or the first of
    DefaultConfigPaths that exists
 3. Environment variables from an explicit mapping table; unmapped
    variables are ignored

List fields (memory.constraint_mention_types, inference.test_margin) also
accept comma-separated environment values:

	KBQA_TEST_MARGIN=0.5,0.9,1.2

# Configuration Structure

  - paths: vocabulary, stopwords, pretrained vectors, data splits, checkpoint
  - model: network sizes, dropouts and per-candidate feature fields
  - memory: candidate slots per training question, context bag size,
    constraint mention types
  - training: optimizer, batch and early-stopping settings
  - inference: test margins, unknown label, similar-recipe boost, topic prefix
  - checkpoint, store, logging, metrics, device, seed

Relative data paths are joined with paths.data_dir (see PathsConfig.Resolve).

# Validation

Field constraints are validator struct tags checked by
internal/validation; cross-field rules live in config_validate.go. Any
failure aborts startup.

# Example

	cfg, err := config.Load(configPath)
	if err != nil {
	    return err
	}
	agent, err := trainer.NewAgent(cfg.TrainerConfig(), net, builder, sampler, logger)
*/
package config
