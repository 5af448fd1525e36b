// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Memory.MemSize != 96 || cfg.Memory.CtxBowSize != 16 {
		t.Errorf("memory = %+v, want mem_size 96 and bow 16", cfg.Memory)
	}
	if cfg.Training.LearningRate != 0.001 || cfg.Training.BatchSize != 32 {
		t.Errorf("training = %+v", cfg.Training)
	}
	if !reflect.DeepEqual(cfg.Inference.TestMargins, []float64{0.9}) {
		t.Errorf("test margins = %v, want [0.9]", cfg.Inference.TestMargins)
	}
	if len(cfg.Model.Features) != 3 || cfg.Model.Features[2].Name != "path" {
		t.Errorf("features = %+v", cfg.Model.Features)
	}
	if cfg.Device != "cpu" {
		t.Errorf("device = %q, want cpu", cfg.Device)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
paths:
  data_dir: /srv/kbqa
  vocab: words.json
model:
  num_hops: 2
  features:
    - name: bow
    - name: type
      vocab: 9
memory:
  mem_size: 48
  constraint_mention_types: [ingredient, nutrition]
inference:
  test_margin: [0.5, 0.9]
  augment_similar: true
logging:
  format: console
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.VocabPath() != filepath.Join("/srv/kbqa", "words.json") {
		t.Errorf("vocab path = %q", cfg.Paths.VocabPath())
	}
	if cfg.Model.NumHops != 2 || len(cfg.Model.Features) != 2 || cfg.Model.Features[1].Vocab != 9 {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Memory.MemSize != 48 {
		t.Errorf("mem_size = %d, want 48", cfg.Memory.MemSize)
	}
	if !reflect.DeepEqual(cfg.Memory.ConstraintMentionTypes, []string{"ingredient", "nutrition"}) {
		t.Errorf("constraint types = %v", cfg.Memory.ConstraintMentionTypes)
	}
	if !reflect.DeepEqual(cfg.Inference.TestMargins, []float64{0.5, 0.9}) || !cfg.Inference.AugmentSimilar {
		t.Errorf("inference = %+v", cfg.Inference)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	// untouched sections keep their defaults
	if cfg.Training.Epochs != 100 {
		t.Errorf("epochs = %d, want default 100", cfg.Training.Epochs)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
training:
  batch_size: 8
`)
	t.Setenv("KBQA_BATCH_SIZE", "16")
	t.Setenv("KBQA_TEST_MARGIN", "0.4, 0.8")
	t.Setenv("KBQA_CONSTRAINT_MENTION_TYPES", "ingredient,tag")
	t.Setenv("KBQA_STORE_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KBQA_UNRELATED_SETTING", "ignored")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Training.BatchSize != 16 {
		t.Errorf("batch_size = %d, want 16", cfg.Training.BatchSize)
	}
	if !reflect.DeepEqual(cfg.Inference.TestMargins, []float64{0.4, 0.8}) {
		t.Errorf("test margins = %v, want [0.4 0.8]", cfg.Inference.TestMargins)
	}
	if !reflect.DeepEqual(cfg.Memory.ConstraintMentionTypes, []string{"ingredient", "tag"}) {
		t.Errorf("constraint types = %v", cfg.Memory.ConstraintMentionTypes)
	}
	if cfg.Store.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %v, want 30s", cfg.Store.CacheTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "training: [")); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Setenv("KBQA_DEVICE", "cuda")
		_, err := Load("")
		if err == nil || !strings.Contains(err.Error(), "validation failed") {
			t.Errorf("Load() error = %v, want validation failure", err)
		}
	})
}

func TestLoadWithKoanf_ConfigPathEnv(t *testing.T) {
	path := writeConfig(t, "seed: 7\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Seed)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"KBQA_MEM_SIZE":   "memory.mem_size",
		"kbqa_store_dir":  "store.dir",
		"LOG_FORMAT":      "logging.format",
		"HOME":            "",
		"KBQA_NOT_A_FLAG": "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
