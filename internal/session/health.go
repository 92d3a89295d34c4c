package session

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthGrowing  HealthStatus = "growing"
	HealthCritical HealthStatus = "critical"
)

// ContextHealth is derived state describing how full a session's context
// window is. It is recomputed on demand and never persisted.
type ContextHealth struct {
	Status           HealthStatus `json:"status"`
	Percentage       float64      `json:"percentage"`
	TokensUsed       int          `json:"tokens_used"`
	TokensRemaining  int          `json:"tokens_remaining"`
	MessageCount     int          `json:"message_count"`
	MaxContextLength int          `json:"max_context_length"`
}

// ComputeHealth classifies token usage against the context window.
// Inputs are clamped, never rejected: negative usage reads as zero and a
// non-positive window as one. Bands are inclusive on their lower bound:
// <50% healthy, [50,80) growing, >=80 critical.
//
// A zero MessageCount still yields a valid record; callers suppress the
// indicator for empty sessions themselves.
func ComputeHealth(tokensUsed, maxContextLength, messageCount int) ContextHealth {
	if tokensUsed < 0 {
		tokensUsed = 0
	}
	if maxContextLength < 1 {
		maxContextLength = 1
	}
	if messageCount < 0 {
		messageCount = 0
	}

	pct := 100 * float64(tokensUsed) / float64(maxContextLength)
	if pct > 100 {
		pct = 100
	}

	status := HealthHealthy
	switch {
	case pct >= 80:
		status = HealthCritical
	case pct >= 50:
		status = HealthGrowing
	}

	remaining := maxContextLength - tokensUsed
	if remaining < 0 {
		remaining = 0
	}

	return ContextHealth{
		Status:           status,
		Percentage:       pct,
		TokensUsed:       tokensUsed,
		TokensRemaining:  remaining,
		MessageCount:     messageCount,
		MaxContextLength: maxContextLength,
	}
}

// EstimateTokens approximates token usage of a message run with the
// chars/4 heuristic the UI uses to feed ComputeHealth.
func EstimateTokens(messages []Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars / 4
}
