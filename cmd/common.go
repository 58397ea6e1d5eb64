/*
Copyright © 2026 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/valpere/peredit/internal/llm"
)

var (
	defaultTranslationModels = []string{
		"x-ai/grok-4.1-fast",
		"x-ai/grok-4.1-fast",
	}
	defaultEditorModel = "x-ai/grok-4.1-fast"
)

// parseModelSpecs turns CLI model specs into refs. A plain spec names a
// model on the shared backend ("qwen/qwen2.5-72b", "ollama:llama3.2",
// "google"). A spec with @ parts routes to a custom endpoint:
// "id@https://host/v1" or "id@https://host/v1@api-key".
func parseModelSpecs(specs []string) ([]llm.ModelRef, error) {
	if len(specs) == 0 {
		specs = defaultTranslationModels
	}

	refs := make([]llm.ModelRef, 0, len(specs))
	for _, spec := range specs {
		ref, err := parseModelSpec(spec)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseModelSpec(spec string) (llm.ModelRef, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return llm.ModelRef{}, fmt.Errorf("empty model spec")
	}

	parts := strings.Split(spec, "@")
	switch len(parts) {
	case 1:
		return llm.Named(parts[0]), nil
	case 2:
		return llm.Custom(parts[0], parts[1], ""), nil
	case 3:
		return llm.Custom(parts[0], parts[1], parts[2]), nil
	default:
		return llm.ModelRef{}, fmt.Errorf("invalid model spec %q: want id, id@endpoint, or id@endpoint@key", spec)
	}
}

// fallback returns the flag value, or the viper setting when the flag was
// left empty.
func fallback(flagValue, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}
