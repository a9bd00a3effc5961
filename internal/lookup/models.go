// Package lookup lets an anonymous citizen track a case by its code.
// The case snapshot is released only after the caller proves control of
// the contact registered on the case by echoing a one-time code.
package lookup

import "time"

// ChallengeState tracks one OTP challenge through its life.
type ChallengeState string

const (
	StatePending  ChallengeState = "pending"
	StateSent     ChallengeState = "sent"
	StateVerified ChallengeState = "verified"
)

// Challenge is the OTP state stored per case code. It lives in redis with
// a TTL; expiry deletes the whole challenge.
type Challenge struct {
	CaseCode  string         `json:"case_code"`
	Code      string         `json:"code"`
	State     ChallengeState `json:"state"`
	Attempts  int            `json:"attempts"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// maxAttempts bounds guesses per challenge before it burns.
const maxAttempts = 5
