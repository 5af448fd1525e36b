// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kbqa/config.yaml",
	"/etc/kbqa/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "KBQA_CONFIG"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:     "data/kbqa",
			Vocab:       "vocab2id.json",
			Stopwords:   "stopwords.txt",
			PreWord2Vec: "glove_pretrained_300d_w2v.txt",
			ModelFile:   "runs/kbqa/kbqa.model",
			TrainData:   "train_vec.jsonl",
			ValidData:   "valid_vec.jsonl",
			TestData:    "test_vec.jsonl",
		},
		Model: ModelConfig{
			VocabSize:     10860,
			WordDim:       300,
			HiddenDim:     128,
			MarkValues:    3,
			NumHops:       1,
			QuerySize:     64,
			WordDropout:   0.3,
			QueryDropout:  0.3,
			AnswerDropout: 0.2,
			InitScale:     0.08,
			Features: []FeatureConfig{
				{Name: "bow"},
				{Name: "type", Vocab: 7},
				{Name: "path", Vocab: 11},
			},
		},
		Memory: MemoryConfig{
			MemSize:                96,
			CtxBowSize:             16,
			ConstraintMentionTypes: []string{"ingredient"},
		},
		Training: TrainingConfig{
			LearningRate:   0.001,
			BatchSize:      32,
			GradAccumSteps: 1,
			Epochs:         100,
			ValidPatience:  10,
			Margin:         1.0,
			LRFactor:       0.1,
		},
		Inference: InferenceConfig{
			TestBatchSize:        1,
			TestMargins:          []float64{0.9},
			UnknownLabel:         "UNK",
			AugmentSimilar:       false,
			SimilarityScoreRatio: 0.2,
			TopicPrefix:          "http://idea.rpi.edu/heals/kb/tag/",
		},
		Checkpoint: CheckpointConfig{
			Compression: "zstd",
		},
		Store: StoreConfig{
			Dir:         "data/kbqa/store",
			Compression: true,
			CacheSize:   1024,
			CacheTTL:    10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Device: "cpu",
		Seed:   42,
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Default values (lowest priority)
//  2. Config file (config.yaml, or KBQA_CONFIG)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	return Load(findConfigFile())
}

// Load loads configuration from defaults, the given YAML file (skipped when
// path is empty) and the environment, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// KBQA_BATCH_SIZE -> training.batch_size, LOG_LEVEL -> logging.level
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are list fields that accept comma-separated env values.
var sliceConfigPaths = []string{
	"memory.constraint_mention_types",
	"inference.test_margin",
}

// processSliceFields converts comma-separated strings to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Paths
	"kbqa_data_dir":     "paths.data_dir",
	"kbqa_vocab":        "paths.vocab",
	"kbqa_stopwords":    "paths.stopwords",
	"kbqa_pre_word2vec": "paths.pre_word2vec",
	"kbqa_model_file":   "paths.model_file",
	"kbqa_train_data":   "paths.train_data",
	"kbqa_valid_data":   "paths.valid_data",
	"kbqa_test_data":    "paths.test_data",

	// Model
	"kbqa_vocab_size":       "model.vocab_size",
	"kbqa_vocab_embed_size": "model.vocab_embed_size",
	"kbqa_hidden_size":      "model.hidden_size",
	"kbqa_num_hops":         "model.num_hops",
	"kbqa_query_size":       "model.query_size",
	"kbqa_word_emb_dropout": "model.word_emb_dropout",
	"kbqa_que_enc_dropout":  "model.que_enc_dropout",
	"kbqa_ans_enc_dropout":  "model.ans_enc_dropout",
	"kbqa_fix_word_emb":     "model.fix_word_emb",

	// Memory
	"kbqa_mem_size":                 "memory.mem_size",
	"kbqa_ans_ctx_entity_bow_size":  "memory.ans_ctx_entity_bow_size",
	"kbqa_constraint_mention_types": "memory.constraint_mention_types",

	// Training
	"kbqa_learning_rate":          "training.learning_rate",
	"kbqa_batch_size":             "training.batch_size",
	"kbqa_grad_accumulated_steps": "training.grad_accumulated_steps",
	"kbqa_num_epochs":             "training.num_epochs",
	"kbqa_valid_patience":         "training.valid_patience",
	"kbqa_margin":                 "training.margin",

	// Inference
	"kbqa_test_batch_size":        "inference.test_batch_size",
	"kbqa_test_margin":            "inference.test_margin",
	"kbqa_unknown_label":          "inference.unknown_label",
	"kbqa_augment_similar":        "inference.augment_similar",
	"kbqa_similarity_score_ratio": "inference.similarity_score_ratio",
	"kbqa_topic_prefix":           "inference.topic_prefix",

	// Checkpoint, store, device
	"kbqa_checkpoint_compression": "checkpoint.compression",
	"kbqa_store_dir":              "store.dir",
	"kbqa_store_in_memory":        "store.in_memory",
	"kbqa_store_sync_writes":      "store.sync_writes",
	"kbqa_store_cache_size":       "store.cache_size",
	"kbqa_store_cache_ttl":        "store.cache_ttl",
	"kbqa_device":                 "device",
	"kbqa_seed":                   "seed",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Metrics
	"kbqa_metrics_textfile": "metrics.textfile",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables are skipped so unrelated environment does not leak in.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
