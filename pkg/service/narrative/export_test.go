package narrative

var (
	BuildSystemPrompt = buildSystemPrompt
	BuildUserPrompt   = buildUserPrompt
)
