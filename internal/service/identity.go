package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IdentityAssigner derives the human-readable ids used for customers and suits.
type IdentityAssigner interface {
	AssignCustomerID(phone, handle string) string
	AssignSuitID(customerID string, existingSuits int64) string
}

type identityAssigner struct {
	random func() string
}

func NewIdentityAssigner() IdentityAssigner {
	return &identityAssigner{random: func() string {
		return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}}
}

// AssignCustomerID uses the last four characters of the phone number, then the
// social handle, then a random CUST_ id.
func (a *identityAssigner) AssignCustomerID(phone, handle string) string {
	if p := []rune(strings.TrimSpace(phone)); len(p) > 0 {
		if len(p) > 4 {
			p = p[len(p)-4:]
		}
		return string(p)
	}
	if h := strings.TrimSpace(handle); h != "" {
		return h
	}
	return "CUST_" + a.random()
}

func (a *identityAssigner) AssignSuitID(customerID string, existingSuits int64) string {
	return fmt.Sprintf("%s_%d", customerID, existingSuits+1)
}
