package model

// OtpChallenge is one outstanding one-time passcode for an email.
// Several challenges may coexist for the same email; a successful
// verification consumes all of them. ExpiresAt is fixed at issuance
// (Ctime + 300s) and rows are never updated in place.
type OtpChallenge struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	Ctime     int64  `json:"ctime"`
	ExpiresAt int64  `json:"expires_at"`
}
