// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Paths      PathsConfig      `koanf:"paths"`
	Model      ModelConfig      `koanf:"model"`
	Memory     MemoryConfig     `koanf:"memory"`
	Training   TrainingConfig   `koanf:"training"`
	Inference  InferenceConfig  `koanf:"inference"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Store      StoreConfig      `koanf:"store"`
	Logging    LoggingConfig    `koanf:"logging"`
	Metrics    MetricsConfig    `koanf:"metrics"`

	// Device selects the compute device. Only "cpu" is supported.
	Device string `koanf:"device" validate:"oneof=cpu"`

	// Seed drives weight initialization, negative sampling and shuffling.
	// It must be positive: components treat zero as "use the default seed".
	Seed int64 `koanf:"seed" validate:"gt=0"`
}

// PathsConfig locates the data files.
//
// Environment Variables:
//   - KBQA_DATA_DIR: base directory for relative data paths
//   - KBQA_VOCAB: vocabulary JSON file
//   - KBQA_STOPWORDS: newline-delimited stopword file
//   - KBQA_PRE_WORD2VEC: pretrained word vector text file
//   - KBQA_MODEL_FILE: checkpoint path
//   - KBQA_TRAIN_DATA, KBQA_VALID_DATA, KBQA_TEST_DATA: JSON-lines splits
type PathsConfig struct {
	// DataDir is joined with every relative data path below.
	DataDir     string `koanf:"data_dir"`
	Vocab       string `koanf:"vocab"`
	Stopwords   string `koanf:"stopwords"`
	PreWord2Vec string `koanf:"pre_word2vec"`
	ModelFile   string `koanf:"model_file"`
	TrainData   string `koanf:"train_data"`
	ValidData   string `koanf:"valid_data"`
	TestData    string `koanf:"test_data"`
}

// FeatureConfig describes one per-candidate feature field.
type FeatureConfig struct {
	Name string `koanf:"name" validate:"required"`
	// Vocab is the size of the feature's own id space. Zero means the
	// field holds word ids.
	Vocab int `koanf:"vocab" validate:"gte=0"`
}

// ModelConfig holds the scoring network hyperparameters.
type ModelConfig struct {
	VocabSize     int             `koanf:"vocab_size" validate:"gte=2"`
	WordDim       int             `koanf:"vocab_embed_size" validate:"gte=1"`
	HiddenDim     int             `koanf:"hidden_size" validate:"gte=1"`
	MarkValues    int             `koanf:"constraint_mark_values" validate:"gte=3"`
	NumHops       int             `koanf:"num_hops" validate:"gte=1,lte=8"`
	QuerySize     int             `koanf:"query_size" validate:"gte=0"`
	WordDropout   float64         `koanf:"word_emb_dropout" validate:"gte=0,lt=1"`
	QueryDropout  float64         `koanf:"que_enc_dropout" validate:"gte=0,lt=1"`
	AnswerDropout float64         `koanf:"ans_enc_dropout" validate:"gte=0,lt=1"`
	InitScale     float64         `koanf:"init_scale" validate:"gt=0"`
	FixWordEmbed  bool            `koanf:"fix_word_emb"`
	Features      []FeatureConfig `koanf:"features" validate:"min=1,dive"`
}

// MemoryConfig controls candidate memory building.
type MemoryConfig struct {
	// MemSize is the number of candidate slots per training question.
	MemSize int `koanf:"mem_size" validate:"gte=1"`
	// CtxBowSize caps the bag-of-words length of one context item.
	CtxBowSize int `koanf:"ans_ctx_entity_bow_size" validate:"gte=1"`
	// ConstraintMentionTypes are the mention types whose overlaps collapse
	// to a type marker token.
	ConstraintMentionTypes []string `koanf:"constraint_mention_types" validate:"dive,required"`
}

// TrainingConfig holds optimizer and schedule settings.
type TrainingConfig struct {
	LearningRate   float64 `koanf:"learning_rate" validate:"gt=0"`
	BatchSize      int     `koanf:"batch_size" validate:"gte=1"`
	GradAccumSteps int     `koanf:"grad_accumulated_steps" validate:"gte=1"`
	Epochs         int     `koanf:"num_epochs" validate:"gte=1"`
	ValidPatience  int     `koanf:"valid_patience" validate:"gte=1"`
	Margin         float64 `koanf:"margin" validate:"gt=0"`
	LRFactor       float64 `koanf:"lr_factor" validate:"gt=0,lt=1"`
}

// InferenceConfig holds prediction and answering settings.
type InferenceConfig struct {
	TestBatchSize int       `koanf:"test_batch_size" validate:"gte=1"`
	TestMargins   []float64 `koanf:"test_margin" validate:"min=1,dive,gte=0"`
	UnknownLabel  string    `koanf:"unknown_label"`
	// AugmentSimilar boosts candidates named in similar-recipe hints.
	AugmentSimilar       bool    `koanf:"augment_similar"`
	SimilarityScoreRatio float64 `koanf:"similarity_score_ratio" validate:"gte=0"`
	TopicPrefix          string  `koanf:"topic_prefix"`
}

// CheckpointConfig controls checkpoint encoding.
type CheckpointConfig struct {
	Compression string `koanf:"compression" validate:"oneof=none lz4 zstd"`
}

// StoreConfig configures the candidate bundle store.
//
// Environment Variables:
//   - KBQA_STORE_DIR: BadgerDB directory
//   - KBQA_STORE_IN_MEMORY: keep the store in memory (tests, one-shot imports)
//   - KBQA_STORE_CACHE_SIZE: bundles kept in the lookup cache (0 disables it)
//   - KBQA_STORE_CACHE_TTL: lifetime of a cached bundle, e.g. "10m"
type StoreConfig struct {
	Dir         string        `koanf:"dir"`
	InMemory    bool          `koanf:"in_memory"`
	SyncWrites  bool          `koanf:"sync_writes"`
	Compression bool          `koanf:"compression"`
	CacheSize   int           `koanf:"cache_size" validate:"gte=0"`
	CacheTTL    time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller file and line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	// Textfile receives the default registry in Prometheus text format when
	// a command finishes. Empty disables the dump.
	Textfile string `koanf:"textfile"`
}
