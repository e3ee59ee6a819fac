package models

// NoExpiration is the sentinel value recorded in ExpiryDate when the item
// explicitly states the credential does not expire.
const NoExpiration = "No Expiration"

// CertificateRecord is the canonical output unit: one certificate entry
// extracted from a profile view. JSON tags follow the legacy public contract
// so existing callers (e.g. n8n flows) keep working unchanged.
type CertificateRecord struct {
	// Name is the certificate title. Required; records without a name are
	// dropped by the field parser before they ever reach the merge engine.
	Name string `json:"certificate_name"`

	Issuer string `json:"issuer"`

	// IssueDate and ExpiryDate are free-form strings as rendered by the
	// page ("Mar 2024", "Diterbitkan Mei 2023"). They are not calendar
	// validated. ExpiryDate may hold the NoExpiration sentinel.
	IssueDate  string `json:"issue_date"`
	ExpiryDate string `json:"expiry_date"`

	CredentialID string `json:"credential_id"`

	// VerifyLink is an absolute URL to the credential verification page,
	// or empty when no trustworthy anchor was found.
	VerifyLink string `json:"verify_link"`

	// Source is the strategy tag of the extraction pass that produced this
	// record ("MainView", "DetailView", ...). Diagnostics only; the merge
	// engine also consults it to purge low-confidence fallback records.
	Source string `json:"source"`
}

// HasSecondarySignal reports whether the record carries any field beyond the
// name. Records from broad fallback selectors with no secondary signal are
// treated as false positives.
func (r CertificateRecord) HasSecondarySignal() bool {
	return r.Issuer != "" || r.IssueDate != "" || r.ExpiryDate != "" ||
		r.CredentialID != "" || r.VerifyLink != ""
}

// CompletenessScore ranks duplicate records during merging. Credential ID
// and verify link are the two fields most indicative of a fully rendered
// entry rather than a truncated preview, so only they count.
func (r CertificateRecord) CompletenessScore() int {
	score := 0
	if r.CredentialID != "" {
		score++
	}
	if r.VerifyLink != "" {
		score++
	}
	return score
}
