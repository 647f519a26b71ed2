package generation

import (
	"context"
	"time"
	"wayfarer/internal/providers"
)

// InstrumentedGenerator counts calls, failures and latency around any
// generator.
type InstrumentedGenerator struct {
	generator TextGeneratorInterface
	metrics   providers.MetricsProviderInterface
}

func NewInstrumentedGenerator(generator TextGeneratorInterface, metrics providers.MetricsProviderInterface) TextGeneratorInterface {
	return &InstrumentedGenerator{generator: generator, metrics: metrics}
}

func (i *InstrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.generator.Generate(ctx, prompt)
	i.metrics.IncGenerations()
	i.metrics.ObserveGenerationDuration(time.Since(start))
	if err != nil {
		i.metrics.IncGenerationFailures()
		return "", err
	}
	return text, nil
}
