package cmd

import "testing"

func TestParseModelSpec(t *testing.T) {
	tests := []struct {
		spec         string
		wantID       string
		wantEndpoint string
		wantKey      string
		wantErr      bool
	}{
		{spec: "qwen/qwen2.5-72b", wantID: "qwen/qwen2.5-72b"},
		{spec: "ollama:llama3.2", wantID: "ollama:llama3.2"},
		{spec: "grok@https://host/v1", wantID: "grok", wantEndpoint: "https://host/v1"},
		{spec: "grok@https://host/v1@sk-123", wantID: "grok", wantEndpoint: "https://host/v1", wantKey: "sk-123"},
		{spec: "  gpt-4o  ", wantID: "gpt-4o"},
		{spec: "", wantErr: true},
		{spec: "a@b@c@d", wantErr: true},
	}

	for _, tt := range tests {
		ref, err := parseModelSpec(tt.spec)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseModelSpec(%q) expected error", tt.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseModelSpec(%q) failed: %v", tt.spec, err)
			continue
		}
		if ref.ID != tt.wantID || ref.Endpoint != tt.wantEndpoint || ref.APIKey != tt.wantKey {
			t.Errorf("parseModelSpec(%q) = %+v", tt.spec, ref)
		}
	}
}

func TestParseModelSpecs_Defaults(t *testing.T) {
	refs, err := parseModelSpecs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != len(defaultTranslationModels) {
		t.Errorf("expected %d default models, got %d", len(defaultTranslationModels), len(refs))
	}
}

func TestModelSuffix(t *testing.T) {
	cases := map[string]string{
		"x-ai/grok-4.1-fast":      "grok-4-1-fast",
		"ollama:llama3.2":         "ollama-llama3-2",
		"averyveryverylongmodelid": "averyveryverylo",
	}
	for in, want := range cases {
		if got := modelSuffix(in); got != want {
			t.Errorf("modelSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}
