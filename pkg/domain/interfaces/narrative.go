package interfaces

import "context"

// NarrativeService drafts a short risk description for a topic within an industry
type NarrativeService interface {
	Suggest(ctx context.Context, topicName, industryName string) (string, error)
}
