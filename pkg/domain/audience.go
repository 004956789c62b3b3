package domain

// Audience is the issuedFor claim of a bearer token.
type Audience string

const (
	AudienceCitizen    Audience = "citizen"
	AudienceGovernment Audience = "government"
)

func (a Audience) Valid() bool {
	return a == AudienceCitizen || a == AudienceGovernment
}
