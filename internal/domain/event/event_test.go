package event

import (
	"testing"

	"paysync/internal/domain/payment"

	"github.com/stretchr/testify/assert"
)

func TestKindTargetStatus(t *testing.T) {
	cases := map[Kind]payment.Status{
		KindSucceeded: payment.StatusSucceeded,
		KindFailed:    payment.StatusRequiresPaymentMethod,
		KindCanceled:  payment.StatusCanceled,
	}
	for k, want := range cases {
		got, ok := k.TargetStatus()
		assert.True(t, ok, k)
		assert.Equal(t, want, got)
	}

	_, ok := KindOther.TargetStatus()
	assert.False(t, ok)
}

func TestIsOutcome(t *testing.T) {
	assert.True(t, Event{Kind: KindSucceeded, AttemptID: "pi_1"}.IsOutcome())
	assert.False(t, Event{Kind: KindSucceeded}.IsOutcome())
	assert.False(t, Event{Kind: KindOther, AttemptID: "pi_1"}.IsOutcome())
}
