// Package service implements the funnel aggregator (C7): summary counts
// over application aggregates, with exclusivity invariants between the
// rejection buckets.
package service

import (
	aggmodel "github.com/andreypavlenko/offertrack/modules/aggregator/model"
	"github.com/andreypavlenko/offertrack/modules/funnel/model"
)

// Summarize scans application aggregates and produces the funnel summary of
// spec §4.6. Each application counts at most once toward each of
// no_response, interviews, offers and rejections_total; a rejected
// application falls into exactly one of rejections_with_interview and
// rejections_without_interview, so those two always sum to rejections_total.
func Summarize(apps map[string]*aggmodel.ApplicationAggregate) model.Summary {
	s := model.Summary{Applications: len(apps)}

	for _, app := range apps {
		// app's EventTypes multiset is filtered upstream before events become
		// ClassifiedEvents: interview_invite entries come only from messages
		// that passed the rules classifier's meeting-invite gate, interview
		// entries only from LLM verdicts that passed the same gate, and
		// reminders become round_update only after a prior interview on the
		// same key. round_update entries matched by round phrases ("final
		// round", "panel interview", ...) pass no meeting-invite gate. This
		// check reads event types only, not ClassifiedEvent.HasInterviewSignal.
		hasInterview := hasEffectiveEventType(app, "interview_invite", "round_update", "interview")
		hasRejection := app.HasEventType("rejection")
		hasOffer := app.HasEventType("offer")

		if hasInterview {
			s.Interviews++
		}
		if !hasInterview && !hasRejection && !hasOffer {
			s.NoResponse++
		}
		if hasRejection {
			s.RejectionsTotal++
			if hasInterview {
				s.RejectionsWithInterview++
			} else {
				s.RejectionsWithoutInterview++
			}
		}
		if hasOffer {
			s.Offers++
		}
	}
	return s
}

func hasEffectiveEventType(app *aggmodel.ApplicationAggregate, types ...string) bool {
	for _, t := range types {
		if app.HasEventType(t) {
			return true
		}
	}
	return false
}

// Derive computes the supplemented rate view over a summary, matching the
// original's FunnelRates derivations. Division-by-zero denominators yield 0,
// not NaN.
func Derive(s model.Summary) model.Rates {
	safeDiv := func(n, d int) float64 {
		if d == 0 {
			return 0
		}
		return float64(n) / float64(d)
	}
	replies := s.Applications - s.NoResponse
	return model.Rates{
		ReplyRate:                  safeDiv(replies, s.Applications),
		OAFromRepliesRate:          0, // OA is not tracked at the AI-schema summary level; rules-path callers may override.
		InterviewFromOARate:        0,
		OfferFromInterviewRate:     safeDiv(s.Offers, s.Interviews),
		RejectionFromInterviewRate: safeDiv(s.RejectionsWithInterview, s.Interviews),
		ApplicationToOfferRate:     safeDiv(s.Offers, s.Applications),
	}
}
