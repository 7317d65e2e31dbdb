package bill

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SentLedger records which reminder offsets have already been delivered for
// each due date. Keys are calendar date strings ("2006-01-02"); entries only
// ever grow within a key, and whole keys are removed by pruning once they
// are well past any reminder window.
//
// The ledger persists as a JSONB column, so it implements driver.Valuer and
// sql.Scanner.
type SentLedger map[string][]int

// Has reports whether the given offset was already delivered for dueDateKey.
func (l SentLedger) Has(dueDateKey string, offset int) bool {
	for _, sent := range l[dueDateKey] {
		if sent == offset {
			return true
		}
	}
	return false
}

// Mark records the offset as delivered for dueDateKey. Marking an already
// recorded offset is a no-op, keeping entries monotonic.
func (l SentLedger) Mark(dueDateKey string, offset int) {
	if l.Has(dueDateKey, offset) {
		return
	}
	l[dueDateKey] = append(l[dueDateKey], offset)
}

// Prune drops every key whose calendar date is strictly before cutoff and
// returns the number of keys removed. Keys that fail to parse are dropped as
// well; they can never match a real due date. Iteration order does not
// matter, removal is per-key.
func (l SentLedger) Prune(cutoff time.Time) int {
	cutoffKey := cutoff.Format("2006-01-02")
	removed := 0
	for key := range l {
		if key < cutoffKey || !validDateKey(key) {
			delete(l, key)
			removed++
		}
	}
	return removed
}

func validDateKey(key string) bool {
	_, err := time.Parse("2006-01-02", key)
	return err == nil
}

// Value implements driver.Valuer, serializing the ledger to JSON for the
// JSONB column. A nil ledger persists as an empty object so reloads always
// get a usable map.
func (l SentLedger) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("error marshaling sent ledger: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for the JSONB column.
func (l *SentLedger) Scan(src interface{}) error {
	if src == nil {
		*l = SentLedger{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for sent ledger", src)
	}
	if len(data) == 0 {
		*l = SentLedger{}
		return nil
	}
	out := SentLedger{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("error unmarshaling sent ledger: %w", err)
	}
	*l = out
	return nil
}
