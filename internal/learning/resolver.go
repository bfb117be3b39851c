// resolver.go: picks the most specific enabled threshold context for a request
package learning

import (
	"github.com/sportea/modtune/internal/datastore"
	"github.com/sportea/modtune/internal/errors"
)

// contextCandidate is one (type, identifier) pair to probe during resolution.
type contextCandidate struct {
	contextType string
	identifier  string
}

// contextCandidates derives the candidate list for an attribute bag, in fixed
// priority order: sport category, user reputation, time period, language mix.
// The first stored, learning-enabled match wins.
func (e *Engine) contextCandidates(attrs *ContextAttributes) []contextCandidate {
	candidates := make([]contextCandidate, 0, 4)

	if attrs.SportID != "" {
		candidates = append(candidates, contextCandidate{
			contextType: datastore.ContextTypeSportCategory,
			identifier:  attrs.SportID,
		})
	}

	if attrs.UserID != "" {
		candidates = append(candidates, contextCandidate{
			contextType: datastore.ContextTypeUserReputation,
			identifier:  e.reputationTier(attrs.UserID),
		})
	}

	timePeriod := attrs.TimePeriod
	if timePeriod == "" {
		timePeriod = timePeriodForHour(e.now().Hour())
	}
	candidates = append(candidates, contextCandidate{
		contextType: datastore.ContextTypeTimePeriod,
		identifier:  timePeriod,
	})

	languageMix := attrs.LanguageMix
	if languageMix == "" {
		languageMix = DefaultLanguageMix
	}
	candidates = append(candidates, contextCandidate{
		contextType: datastore.ContextTypeLanguageMix,
		identifier:  languageMix,
	})

	return candidates
}

// lookupContext probes the candidates in order and returns the first enabled
// match. A nil context with nil error means no candidate matched. A non-nil
// error means storage failed and the caller must fall back.
func (e *Engine) lookupContext(attrs *ContextAttributes) (*datastore.ThresholdContext, error) {
	for _, candidate := range e.contextCandidates(attrs) {
		tc, err := e.ds.GetThresholdContext(candidate.contextType, candidate.identifier)
		if err != nil {
			if errors.Is(err, datastore.ErrContextNotFound) {
				continue
			}
			return nil, err
		}
		return tc, nil
	}
	return nil, nil
}

// reputationTier buckets a user by completed hosted activities. Storage
// errors degrade to the most conservative tier.
func (e *Engine) reputationTier(userID string) string {
	count, err := e.ds.CountCompletedHostedActivities(userID)
	if err != nil {
		getLogger().Warn("reputation lookup failed, assuming new user",
			"user_id", userID,
			"error", err)
		return ReputationNewUser
	}

	switch {
	case count < 5:
		return ReputationNewUser
	case count < 10:
		return ReputationRegularUser
	default:
		return ReputationExperiencedUser
	}
}

// timePeriodForHour buckets an hour of day into a time-period identifier.
func timePeriodForHour(hour int) string {
	switch {
	case hour >= 19 && hour <= 22:
		return TimePeriodPeakHours
	case hour >= 7 && hour <= 18:
		return TimePeriodDayHours
	default:
		return TimePeriodOffHours
	}
}

// staticFallback is the hardcoded safe triple served when storage is
// unavailable. Learning is reported disabled so no feedback is attributed to
// it.
func staticFallback() *Thresholds {
	return &Thresholds{
		HighRisk:        FallbackHighRisk,
		MediumRisk:      FallbackMediumRisk,
		LowRisk:         FallbackLowRisk,
		ContextID:       nil,
		LearningEnabled: false,
	}
}
