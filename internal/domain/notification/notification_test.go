package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKey_Deterministic(t *testing.T) {
	billID := uuid.MustParse("5d8a2f1c-3f7e-4b44-9a70-2f6d9c1e8ab3")

	key := IdempotencyKey(KindBillReminder, billID, "2026-01-15", 3)
	assert.Equal(t, "BILL_REMINDER:5d8a2f1c-3f7e-4b44-9a70-2f6d9c1e8ab3:2026-01-15:3", key)

	// Same inputs, same key, from any process.
	assert.Equal(t, key, IdempotencyKey(KindBillReminder, billID, "2026-01-15", 3))

	// Any differing component yields a distinct key.
	assert.NotEqual(t, key, IdempotencyKey(KindBillReminder, billID, "2026-01-15", 0))
	assert.NotEqual(t, key, IdempotencyKey(KindBillReminder, billID, "2026-02-15", 3))
	assert.NotEqual(t, key, IdempotencyKey(KindBillReminder, uuid.New(), "2026-01-15", 3))
}
