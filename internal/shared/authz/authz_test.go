package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanAct(t *testing.T) {
	author := uuid.New()
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name      string
		principal uuid.UUID
		owners    []uuid.UUID
		want      bool
	}{
		{"author of the resource", author, []uuid.UUID{author, owner}, true},
		{"publication owner", owner, []uuid.UUID{author, owner}, true},
		{"unrelated principal", stranger, []uuid.UUID{author, owner}, false},
		{"anonymous caller", uuid.Nil, []uuid.UUID{author, owner}, false},
		{"empty owner set", author, nil, false},
		{"nil owner never matches", uuid.Nil, []uuid.UUID{uuid.Nil}, false},
		{"single owner match", owner, []uuid.UUID{owner}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAct(tt.principal, tt.owners...))
		})
	}
}
