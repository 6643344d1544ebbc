package kvstore

// Store is a minimal persistent key-value contract with graceful
// failure: a missing key, a corrupt value, or an unavailable backend
// surfaces as "no value" rather than an error, and writes degrade to
// no-ops. Callers stay usable even without durable storage.
type Store interface {
	// Get decodes the stored JSON value into out and reports whether a
	// usable value was found. out is left untouched on a miss.
	Get(key string, out any) bool

	// Set stores the JSON encoding of value under key
	Set(key string, value any)

	// Delete removes the key; deleting a missing key is a no-op
	Delete(key string)
}
