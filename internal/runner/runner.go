package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promptrun/pkg/llm"
	"promptrun/pkg/prompt"
)

// The few-shot pair shows the model the tone expected of it before the real
// question arrives.
const (
	exampleHuman     = "Hello"
	exampleAssistant = "Howdy, how can I help you today?"
)

// Runner assembles a persona-driven prompt and submits it once per call.
// It keeps no state between calls: each Run is an independent exchange.
type Runner struct {
	client      llm.CompletionClient
	persona     *prompt.Template
	personaData any
	model       string
	temperature *float64
}

// Option configures optional runner behaviour.
type Option func(*Runner)

// WithModel overrides the client's default model alias.
func WithModel(model string) Option {
	return func(r *Runner) {
		r.model = model
	}
}

// WithTemperature fixes the sampling temperature for every exchange.
func WithTemperature(temp float64) Option {
	return func(r *Runner) {
		r.temperature = &temp
	}
}

// WithPersonaData supplies data for rendering a parameterized persona template.
func WithPersonaData(data any) Option {
	return func(r *Runner) {
		r.personaData = data
	}
}

// Result captures one completed exchange.
type Result struct {
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Model         string    `json:"model"`
	Persona       string    `json:"persona"`
	PersonaDigest string    `json:"persona_digest"`
	Usage         llm.Usage `json:"usage"`
}

// New constructs a Runner around a completion client and a persona template.
func New(client llm.CompletionClient, persona *prompt.Template, opts ...Option) (*Runner, error) {
	if client == nil {
		return nil, errors.New("runner: client is required")
	}
	if persona == nil {
		return nil, errors.New("runner: persona template is required")
	}
	r := &Runner{
		client:  client,
		persona: persona,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Persona renders the persona prompt text.
func (r *Runner) Persona() (string, error) {
	text, err := r.persona.Render(r.personaData)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Run submits the question to the completion service and returns the reply.
// Exactly one outbound call is made; nothing is retained afterwards.
func (r *Runner) Run(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("runner: question is empty")
	}

	personaText, err := r.Persona()
	if err != nil {
		return nil, fmt.Errorf("render persona: %w", err)
	}

	p := &llm.Prompt{
		Model:       r.model,
		Temperature: r.temperature,
		Messages: []llm.Message{
			{Role: "system", Content: personaText},
			{Role: "user", Content: exampleHuman},
			{Role: "assistant", Content: exampleAssistant},
			{Role: "user", Content: question},
		},
	}

	completion, err := r.client.Complete(ctx, p)
	if err != nil {
		return nil, err
	}

	answer := completion.Text()
	if answer == "" {
		return nil, &llm.ServiceError{Message: "service returned an empty completion"}
	}

	return &Result{
		Question:      question,
		Answer:        answer,
		Model:         completion.Model,
		Persona:       personaText,
		PersonaDigest: r.persona.Digest(),
		Usage:         completion.Usage,
	}, nil
}
