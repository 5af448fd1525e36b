// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kbqa/internal/kbqa"
	"github.com/tomtom215/kbqa/internal/trainer"
)

const (
	testVocab = `{"<pad>":0,"<unk>":1,"soup":2,"garlic":3,"tomato":4,"what":5,"bread":6}`

	testBundles = `{"topic":"http://idea.rpi.edu/heals/kb/tag/georgian","record":{"features":[{"name":"bow","values":[[2,3],[6],[0]]}],"contexts":[[["garlic"]],[["bread"]],[]]},"candidates":[{"id":"r1","label":"garlic soup","path":["tag"]},{"id":"r2","label":"bread"}]}
`

	testSplit = `{"id":"q1","query":{"token_ids":[5,2,3],"words":[5],"raw":["what","soup","garlic"],"mentions":[],"marks":[0,0,0],"length":3},"record":{"features":[{"name":"bow","values":[[2,3],[6],[0]]}],"contexts":[[["garlic"]],[["bread"]],[]]},"gold":[0],"candidate_labels":["garlic soup","bread"],"gold_labels":["garlic soup"]}
{"id":"q2","query":{"token_ids":[5,6],"words":[5],"raw":["what","bread"],"mentions":[],"marks":[0,0],"length":2},"record":{"features":[{"name":"bow","values":[[2,3],[6],[0]]}],"contexts":[[["garlic"]],[["bread"]],[]]},"gold":[1],"candidate_labels":["garlic soup","bread"],"gold_labels":["bread"]}
`

	testRequest = `{"question":"what soup with garlic","topic_entities":["georgian"],"persona":{"ingredient_likes":["garlic"]}}`
)

// setupWorkspace writes the fixture files and points the configuration at
// them through the environment.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"vocab.json":    testVocab,
		"bundles.jsonl": testBundles,
		"split.jsonl":   testSplit,
		"request.json":  testRequest,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	env := map[string]string{
		"KBQA_DATA_DIR":         dir,
		"KBQA_VOCAB":            "vocab.json",
		"KBQA_TRAIN_DATA":       "split.jsonl",
		"KBQA_VALID_DATA":       "split.jsonl",
		"KBQA_TEST_DATA":        "split.jsonl",
		"KBQA_MODEL_FILE":       filepath.Join(dir, "runs", "kbqa.model"),
		"KBQA_STORE_DIR":        filepath.Join(dir, "store"),
		"KBQA_VOCAB_SIZE":       "16",
		"KBQA_VOCAB_EMBED_SIZE": "8",
		"KBQA_HIDDEN_SIZE":      "8",
		"KBQA_MEM_SIZE":         "4",
		"KBQA_BATCH_SIZE":       "2",
		"KBQA_NUM_EPOCHS":       "2",
		"KBQA_METRICS_TEXTFILE": filepath.Join(dir, "metrics.prom"),
		"LOG_LEVEL":             "disabled",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	t.Setenv("KBQA_CONFIG", "")
	return dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := setupWorkspace(t)

	out, err := runCommand(t, "import", filepath.Join(dir, "bundles.jsonl"))
	if err != nil {
		t.Fatalf("import error = %v, output: %s", err, out)
	}
	if !strings.Contains(out, "Imported 1 bundles") {
		t.Errorf("import output = %q", out)
	}

	out, err = runCommand(t, "train")
	if err != nil {
		t.Fatalf("train error = %v, output: %s", err, out)
	}
	var result trainer.TrainResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode train result %q: %v", out, err)
	}
	if result.Epochs < 1 || result.Epochs > 2 {
		t.Errorf("Epochs = %d, want 1..2", result.Epochs)
	}

	out, err = runCommand(t, "predict", "--json", "--output", filepath.Join(dir, "out", "preds.json"))
	if err != nil {
		t.Fatalf("predict error = %v, output: %s", err, out)
	}
	var scores []trainer.MarginScores
	if err := json.Unmarshal([]byte(out), &scores); err != nil {
		t.Fatalf("decode scores %q: %v", out, err)
	}
	if len(scores) != 1 || scores[0].Margin != 0.9 {
		t.Errorf("scores = %+v, want one entry at margin 0.9", scores)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "preds.json")); err != nil {
		t.Errorf("predictions file: %v", err)
	}

	out, err = runCommand(t, "answer", filepath.Join(dir, "request.json"))
	if err != nil {
		t.Fatalf("answer error = %v, output: %s", err, out)
	}
	var res kbqa.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode answer %q: %v", out, err)
	}
	if !res.OK() || len(res.AnswerIDs) == 0 {
		t.Fatalf("answer = %+v, want at least one answer", res)
	}
	for _, id := range res.AnswerIDs {
		if id != "r1" && id != "r2" {
			t.Errorf("unexpected answer id %q", id)
		}
	}

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	if !strings.Contains(string(metrics), "kbqa_answer_requests_total") {
		t.Error("metrics textfile missing answer requests")
	}
}

func TestAnswer_UnknownTopicFails(t *testing.T) {
	dir := setupWorkspace(t)
	req := filepath.Join(dir, "french.json")
	if err := os.WriteFile(req, []byte(`{"question":"what soup","topic_entities":["french"]}`), 0o600); err != nil {
		t.Fatalf("write request: %v", err)
	}

	out, err := runCommand(t, "answer", req)
	if err == nil {
		t.Fatal("expected error for unknown topic")
	}
	var res kbqa.Result
	if jerr := json.Unmarshal([]byte(out), &res); jerr != nil {
		t.Fatalf("decode answer %q: %v", out, jerr)
	}
	if res.Code != kbqa.CodeNoTopic {
		t.Errorf("Code = %v, want %v", res.Code, kbqa.CodeNoTopic)
	}
}

func TestImport_MissingFile(t *testing.T) {
	dir := setupWorkspace(t)
	if _, err := runCommand(t, "import", filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("expected error for missing bundle file")
	}
}
