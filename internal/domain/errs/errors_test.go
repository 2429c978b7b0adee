package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name        string
		err         error
		validation  bool
		insufficent bool
		notFound    bool
		persistence bool
		userFacing  bool
	}{
		{name: "validation", err: Validation("amount", "must be positive"), validation: true, userFacing: true},
		{name: "insufficient", err: &InsufficientBalanceError{UserID: 1, Balance: 5, Required: 10}, insufficent: true, userFacing: true},
		{name: "not found wrapped", err: fmt.Errorf("send: %w", &NotFoundError{Entity: "user", Key: "bob"}), notFound: true, userFacing: true},
		{name: "persistence", err: Persistence("add", "ledger", base), persistence: true},
		{name: "plain", err: base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.insufficent, IsInsufficient(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.persistence, IsPersistence(tt.err))
			assert.Equal(t, tt.userFacing, UserFacing(tt.err))
		})
	}
}

func TestPersistenceDoesNotDoubleWrap(t *testing.T) {
	inner := Persistence("add", "ledger", errors.New("boom"))
	outer := Persistence("transfer", "ledger", inner)

	assert.Same(t, inner, outer)
	assert.Nil(t, Persistence("noop", "ledger", nil))
}

func TestNotFoundSuggestions(t *testing.T) {
	err := &NotFoundError{Entity: "user", Key: "bbo", Suggestions: []string{"bob", "bobby"}}
	assert.Equal(t, "user bbo not found (did you mean bob, bobby?)", err.Error())
}
