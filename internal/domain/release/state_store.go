package release

import "sort"

// KeyName is a dotted key under which a single Value lives in the StateStore
// ("next_version", "changelog", "rollback.git", "invocation.Commit.git").
type KeyName string

// reserved key prefixes used by the runner itself, outside plugin provision
// declarations.
const (
	rollbackKeyPrefix    = "rollback."
	invocationKeyPrefix  = "invocation."
)

func rollbackKey(pluginID string) KeyName {
	return KeyName(rollbackKeyPrefix + pluginID)
}

func invocationKey(step Step, pluginID string) KeyName {
	return KeyName(invocationKeyPrefix + string(step) + "." + pluginID)
}

// StateStore threads validated, typed values between plugins across the
// pipeline run. A key is visible as soon as it is set, to every plugin
// invoked after the writer (monotonic visibility: once set, a key is never
// removed except by an explicit rollback unwind).
type StateStore struct {
	values map[KeyName]Value
	// order preserves insertion order so rollback unwinds in reverse of
	// how operations were recorded, independent of map iteration order.
	rollbackOrder []string
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{values: make(map[KeyName]Value)}
}

// Get returns the value at key and whether it was present.
func (s *StateStore) Get(key KeyName) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set installs a value, overwriting any prior value at the same key. Plugins
// call it directly from RunStep; the key is not checked against the
// plugin's declared provision list.
func (s *StateStore) Set(key KeyName, v Value) {
	s.values[key] = v
}

// Has reports whether a key is currently visible in the store.
func (s *StateStore) Has(key KeyName) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns all currently visible keys, sorted for deterministic
// iteration (logging, snapshotting).
func (s *StateStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// RecordRollback stores a reversible operation for pluginID, keyed so the
// runner can find and unwind it on cancellation, on a fatal step failure,
// or at the end of a dry run.
func (s *StateStore) RecordRollback(pluginID string, op RollbackOp) {
	key := rollbackKey(pluginID)
	s.values[key] = BlobValue(op)
	s.rollbackOrder = append(s.rollbackOrder, pluginID)
}

// UnwindRollbacks reverts every recorded rollback operation in LIFO order
// (most recently completed step unwound first), collecting any revert
// errors rather than stopping at the first one so every registered op gets
// a chance to run.
func (s *StateStore) UnwindRollbacks() []error {
	var errs []error
	for i := len(s.rollbackOrder) - 1; i >= 0; i-- {
		pluginID := s.rollbackOrder[i]
		key := rollbackKey(pluginID)
		v, ok := s.values[key]
		if !ok {
			continue
		}
		op, ok := v.Blob.(RollbackOp)
		if !ok {
			continue
		}
		if err := op.Revert(); err != nil {
			errs = append(errs, err)
		}
		delete(s.values, key)
	}
	s.rollbackOrder = nil
	return errs
}

// SetInvocationKey threads the idempotency key for one plugin invocation of
// one step into the store before run_step is called, so a plugin can look
// it up to recognize a repeated invocation of the same resolved plan.
func (s *StateStore) SetInvocationKey(step Step, pluginID string, idempotencyKey string) {
	s.values[invocationKey(step, pluginID)] = StringValue(idempotencyKey)
}
