package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/stemsi/examcore/internal/model"
)

// llmVerdict is the strict JSON shape the grading prompt asks the model to
// return; ShortAnswer/Essay questions are graded entirely from this.
type llmVerdict struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// LLMGrader scores free-text answers with a chat-completion model, asking
// for a JSON-mode response so the result parses deterministically. API
// failures and malformed JSON replies are retried with exponential backoff,
// up to maxRetries times; a malformed reply makes the next attempt append a
// reminder of the expected JSON shape to the conversation. Once retries are
// exhausted the error is returned to the caller, not absorbed here — the
// caller (sessionengine's gradeOne) is the layer that records the spec's
// score-0/"Grading error: …" result and lets the rest of the submission
// keep grading.
type LLMGrader struct {
	client     *openai.Client
	model      string
	maxRetries uint64
	log        zerolog.Logger
}

// NewLLMGrader builds an LLMGrader against the OpenAI-compatible chat API.
// model is the completion model name (e.g. "gpt-4.1").
func NewLLMGrader(apiKey, model string, maxRetries uint64, log zerolog.Logger) *LLMGrader {
	return &LLMGrader{
		client:     openai.NewClient(apiKey),
		model:      model,
		maxRetries: maxRetries,
		log:        log,
	}
}

func (g *LLMGrader) Grade(ctx context.Context, q *model.Question, answerText string) (Result, error) {
	if strings.TrimSpace(answerText) == "" {
		return Result{Score: 0, Feedback: "No answer provided."}, nil
	}

	prompt := g.buildPrompt(q, answerText)
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "You are an expert academic grader. Respond with JSON only."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	var verdict llmVerdict
	operation := func() error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:          g.model,
			Messages:       messages,
			Temperature:    0.3,
			MaxTokens:      300,
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("grading: empty completion choices")
		}
		content := cleanJSONFence(resp.Choices[0].Message.Content)
		verdict = llmVerdict{}
		if err := json.Unmarshal([]byte(content), &verdict); err != nil {
			// Malformed JSON from the model: the next attempt re-prompts with
			// a reminder of the expected shape.
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: `Reply with only a JSON object of the form {"score": <number>, "feedback": "<string>"}.`,
			})
			return fmt.Errorf("grading: parse LLM response: %w", err)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		g.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("llm grading failed after retries")
		return Result{}, fmt.Errorf("grading: llm grade failed: %w", err)
	}

	return Result{
		Score:    clamp(round2(verdict.Score), 0, float64(q.Points)),
		Feedback: verdict.Feedback,
	}, nil
}

func (g *LLMGrader) buildPrompt(q *model.Question, answerText string) string {
	return fmt.Sprintf(`You are grading a student answer.

Question: %s
Expected answer / key points: %s
Student's answer: %s
Maximum points: %d

Return a JSON object with exactly two fields: "score" (a number between 0 and %d) and "feedback" (a short explanation).`,
		q.Text, q.ExpectedAnswer, answerText, q.Points, q.Points)
}

func cleanJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
