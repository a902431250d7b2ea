package calls

import "github.com/onurcolak/lead-notification-service/internal/domain"

// MinQualityDurationSeconds is the shortest call treated as a real enquiry.
const MinQualityDurationSeconds = 60

const (
	ReasonNoAnswer  = "no answer"
	ReasonShortCall = "short call"
	ReasonGoodCall  = "good call"
)

func Classify(durationSeconds int) (domain.CallQuality, string) {
	switch {
	case durationSeconds <= 0:
		return domain.CallQualityJunk, ReasonNoAnswer
	case durationSeconds < MinQualityDurationSeconds:
		return domain.CallQualityJunk, ReasonShortCall
	default:
		return domain.CallQualityGood, ReasonGoodCall
	}
}
