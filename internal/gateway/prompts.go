package gateway

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompt names a registered prompt template.
type Prompt string

const (
	PromptSymptomAnalysis   Prompt = "symptomAnalysis"
	PromptDiagnosis         Prompt = "diagnosisRecommendations"
	PromptFollowUp          Prompt = "followUp"
	PromptGeneralInquiry    Prompt = "generalInquiry"
	PromptDrugInformation   Prompt = "drugInformation"
	PromptSpecialistType    Prompt = "specialistType"
	PromptSpecialistReport  Prompt = "specialistReport"
	PromptTranslate         Prompt = "translate"
	PromptReportExplanation Prompt = "reportExplanation"
	PromptReportVision      Prompt = "reportVision"
)

var requiredPrompts = []Prompt{
	PromptSymptomAnalysis,
	PromptDiagnosis,
	PromptFollowUp,
	PromptGeneralInquiry,
	PromptDrugInformation,
	PromptSpecialistType,
	PromptSpecialistReport,
	PromptTranslate,
	PromptReportExplanation,
	PromptReportVision,
}

// PromptConfig is one entry of the prompt registry document.
type PromptConfig struct {
	System      string  `yaml:"system"`
	Template    string  `yaml:"template"`
	Output      string  `yaml:"output"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type registryFile struct {
	Prompts map[string]PromptConfig `yaml:"prompts"`
}

type compiledPrompt struct {
	config   PromptConfig
	system   *template.Template
	template *template.Template
}

// Rendered is a prompt ready to send to a model.
type Rendered struct {
	System      string
	User        string
	Output      string
	MaxTokens   int
	Temperature float64
}

// Registry holds parsed prompt templates.
type Registry struct {
	prompts map[Prompt]*compiledPrompt
}

// LoadRegistry reads prompts from path, or the embedded defaults when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return ParseRegistry(defaultPrompts)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses a YAML prompt document. Every known prompt must be present.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	r := &Registry{prompts: make(map[Prompt]*compiledPrompt, len(file.Prompts))}
	for name, cfg := range file.Prompts {
		if strings.TrimSpace(cfg.Template) == "" {
			return nil, fmt.Errorf("prompt %q has an empty template", name)
		}

		user, err := template.New(name).Option("missingkey=error").Parse(cfg.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template for prompt %q: %w", name, err)
		}
		system, err := template.New(name + ".system").Option("missingkey=error").Parse(cfg.System)
		if err != nil {
			return nil, fmt.Errorf("failed to parse system template for prompt %q: %w", name, err)
		}

		r.prompts[Prompt(name)] = &compiledPrompt{config: cfg, system: system, template: user}
	}

	for _, p := range requiredPrompts {
		if _, ok := r.prompts[p]; !ok {
			return nil, fmt.Errorf("prompt %q is not defined", p)
		}
	}

	return r, nil
}

// Render executes the templates for prompt p against input.
func (r *Registry) Render(p Prompt, input any) (*Rendered, error) {
	cp, ok := r.prompts[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrompt, p)
	}

	var system, user bytes.Buffer
	if err := cp.system.Execute(&system, input); err != nil {
		return nil, fmt.Errorf("failed to render system prompt %s: %w", p, err)
	}
	if err := cp.template.Execute(&user, input); err != nil {
		return nil, fmt.Errorf("failed to render prompt %s: %w", p, err)
	}

	return &Rendered{
		System:      strings.TrimSpace(system.String()),
		User:        strings.TrimSpace(user.String()),
		Output:      strings.TrimSpace(cp.config.Output),
		MaxTokens:   cp.config.MaxTokens,
		Temperature: cp.config.Temperature,
	}, nil
}
