package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"wayfarer/internal/providers"
	"wayfarer/internal/structures"
)

const maxRetries = 3

// OpenAiGenerator produces text through the OpenAI Responses api, with
// bounded retries for rate-limit and server-side failures.
type OpenAiGenerator struct {
	client          *openai.Client
	model           string
	maxOutputTokens int64
	logger          providers.Logger
}

func NewOpenAiGenerator(conf *structures.Config, logger providers.Logger) *OpenAiGenerator {
	client := openai.NewClient(option.WithAPIKey(conf.Generator.ApiKey))
	return &OpenAiGenerator{
		client:          &client,
		model:           conf.Generator.Model,
		maxOutputTokens: int64(conf.Generator.MaxOutputTokens),
		logger:          logger,
	}
}

func (g *OpenAiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model: g.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if g.maxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(g.maxOutputTokens)
	}

	resp, err := g.callWithRetry(ctx, params)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", fmt.Errorf("model returned no output text")
	}
	return text, nil
}

// callWithRetry waits between attempts on retryable failures. The waits
// must stay well inside the task timeout, so they are short and grow per
// attempt. Sleeps abort as soon as the context is cancelled.
func (g *OpenAiGenerator) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	rateLimitWaitTimes := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}
	serverErrorWaitTimes := []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := g.client.Responses.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				if attempt < maxRetries-1 {
					if serr := sleepContext(ctx, rateLimitWaitTimes[attempt]); serr != nil {
						return nil, serr
					}
					g.logger.Warnf(providers.TypeTask, "Generation attempt %d hit a rate limit, retrying: %s", attempt+1, err)
					continue
				}
			} else if isServerError(err) {
				if attempt < maxRetries-1 {
					if serr := sleepContext(ctx, serverErrorWaitTimes[attempt]); serr != nil {
						return nil, serr
					}
					g.logger.Warnf(providers.TypeTask, "Generation attempt %d failed server-side, retrying: %s", attempt+1, err)
					continue
				}
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("generation failed after %d attempts", maxRetries)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
