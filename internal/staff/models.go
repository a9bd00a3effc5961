// Package staff authenticates portal operators. Citizens never log in;
// every mutating case operation is performed by a staff account whose
// identity flows to the lifecycle controllers through the request context.
package staff

import (
	"time"

	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// Account is one staff operator.
type Account struct {
	ID           id.StaffID
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is what a successful login returns to the transport layer.
type Session struct {
	StaffID     id.StaffID
	DisplayName string
	AccessToken string
	ExpiresAt   time.Time
}
