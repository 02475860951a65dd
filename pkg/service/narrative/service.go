package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
)

// EmptySuggestion is returned when the model answers with no text
const EmptySuggestion = "No suggestion generated."

// client implements interfaces.NarrativeService
type client struct {
	llmClient gollem.LLMClient
}

var _ interfaces.NarrativeService = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// New creates a narrative service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (interfaces.NarrativeService, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Suggest drafts a risk description for the topic in the context of financial materiality
func (c *client) Suggest(ctx context.Context, topicName, industryName string) (string, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(buildSystemPrompt()),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(buildUserPrompt(topicName, industryName))})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM",
			goerr.V("topic", topicName), goerr.V("industry", industryName))
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(strings.Join(resp.Texts, ""))
	}
	if text == "" {
		return EmptySuggestion, nil
	}

	return text, nil
}

func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a sustainability expert specializing in IFRS S1 and SASB standards.\n")
	sb.WriteString("You write concise, professional risk descriptions used in financial materiality assessments.\n")

	return sb.String()
}

func buildUserPrompt(topicName, industryName string) string {
	var sb strings.Builder

	sb.WriteString("Write a concise, professional risk description for the following topic:\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n", topicName)
	fmt.Fprintf(&sb, "Industry: %s\n", industryName)
	sb.WriteString("Context: financial materiality\n\n")
	sb.WriteString("Focus on how this topic could impact enterprise value (Cash flow, Cost of Capital, or Access to Finance).\n")
	sb.WriteString("Keep it under 3 sentences.\n")

	return sb.String()
}
