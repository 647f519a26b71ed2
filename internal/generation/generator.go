package generation

import (
	"context"
	"errors"
	"wayfarer/internal/providers"
	"wayfarer/internal/structures"
)

// ErrGenerationDisabled marks generation attempts made while no model is
// configured. Background flows treat it as "skip", not as a failure.
var ErrGenerationDisabled = errors.New("text generation is disabled")

type TextGeneratorInterface interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type DisabledGenerator struct{}

func (d *DisabledGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "", ErrGenerationDisabled
}

// NewGeneratorProvider returns the configured text generator, or the
// disabled fallback when generation is off or no api key is present.
func NewGeneratorProvider(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) TextGeneratorInterface {
	if !conf.Generator.Enabled || conf.Generator.ApiKey == "" {
		logger.Warnf(providers.TypeApp, "Text generation disabled, diaries and daily summaries will not be produced")
		return &DisabledGenerator{}
	}
	return NewInstrumentedGenerator(NewOpenAiGenerator(conf, logger), metrics)
}
