package types

import "github.com/m-mizutani/goerr/v2"

// OmissionReason explains why a topic is omitted from the report
type OmissionReason string

const (
	OmissionReasonImmaterial    OmissionReason = "Immaterial (Financial)"
	OmissionReasonNotApplicable OmissionReason = "Not Applicable to Business Model"
	OmissionReasonProhibited    OmissionReason = "Disclosure Prohibited by Law"
	OmissionReasonSensitive     OmissionReason = "Commercially Sensitive Information"
)

// AllOmissionReasons returns all valid omission reasons
func AllOmissionReasons() []OmissionReason {
	return []OmissionReason{
		OmissionReasonImmaterial,
		OmissionReasonNotApplicable,
		OmissionReasonProhibited,
		OmissionReasonSensitive,
	}
}

func (r OmissionReason) IsValid() bool {
	switch r {
	case OmissionReasonImmaterial,
		OmissionReasonNotApplicable,
		OmissionReasonProhibited,
		OmissionReasonSensitive:
		return true
	default:
		return false
	}
}

func (r OmissionReason) String() string {
	return string(r)
}

// ParseOmissionReason parses a string into an OmissionReason
func ParseOmissionReason(s string) (OmissionReason, error) {
	reason := OmissionReason(s)
	if !reason.IsValid() {
		return "", goerr.New("invalid omission reason", goerr.V("reason", s))
	}
	return reason, nil
}
