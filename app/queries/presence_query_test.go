package queries

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsClaimAbortedClassifiesPostgresErrors(t *testing.T) {
	assert.True(t, isClaimAborted(&pq.Error{Code: "40P01"}), "deadlock_detected aborts the claim")
	assert.True(t, isClaimAborted(&pq.Error{Code: "40001"}), "serialization_failure aborts the claim")

	assert.False(t, isClaimAborted(&pq.Error{Code: "23505"}))
	assert.False(t, isClaimAborted(ErrNoCandidate))
	assert.False(t, isClaimAborted(errors.New("connection reset")))
	assert.False(t, isClaimAborted(nil))
}
