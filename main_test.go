package main

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestQuickstartIsValidYAML(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	if err := app.Run([]string{"ngram-year-rank", "quickstart"}); err != nil {
		t.Fatalf("quickstart error = %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("quickstart output is not YAML: %v", err)
	}
	for _, key := range []string{"input", "runners", "output_formats", "commands"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("quickstart missing %q section", key)
		}
	}
}

func TestAppHasRunCommand(t *testing.T) {
	if newApp().Command("run") == nil {
		t.Error("run command not registered")
	}
}
