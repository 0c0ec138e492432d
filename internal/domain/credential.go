package domain

// CredentialStatus enumerates the usability of one pooled API key.
type CredentialStatus string

const (
	CredentialActive    CredentialStatus = "active"
	CredentialExhausted CredentialStatus = "exhausted"
	CredentialInvalid   CredentialStatus = "invalid"
)

// CredentialRecord is one API credential in the rotating pool for the
// first-party generation provider.
type CredentialRecord struct {
	ID     string
	Secret string
	Label  string
	Status CredentialStatus
}
