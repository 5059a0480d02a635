package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignCustomerID(t *testing.T) {
	a := NewIdentityAssigner()

	tests := []struct {
		name   string
		phone  string
		handle string
		want   string
	}{
		{"phone wins", "9998887776", "@sara", "7776"},
		{"phone trimmed", "  0123 ", "", "0123"},
		{"short phone kept whole", "42", "", "42"},
		{"handle when no phone", "", "sara.tailor", "sara.tailor"},
		{"blank phone falls back to handle", "   ", " sara ", "sara"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.AssignCustomerID(tt.phone, tt.handle))
		})
	}
}

func TestAssignCustomerID_RandomFallback(t *testing.T) {
	a := NewIdentityAssigner()

	first := a.AssignCustomerID("", "")
	second := a.AssignCustomerID("", "")

	assert.True(t, strings.HasPrefix(first, "CUST_"))
	assert.Len(t, first, len("CUST_")+8)
	assert.NotEqual(t, first, second)
}

func TestAssignSuitID(t *testing.T) {
	a := NewIdentityAssigner()

	assert.Equal(t, "7776_1", a.AssignSuitID("7776", 0))
	assert.Equal(t, "7776_2", a.AssignSuitID("7776", 1))
	assert.Equal(t, "sara_10", a.AssignSuitID("sara", 9))
}
