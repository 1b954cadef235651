package store

import "sync"

// Key layout:
//
//	install:<tenant>\x1f<packId>        -> domain.PackInstall
//	disabled:<tenant>\x1f<compositeId>  -> disabledRecord
//
// Tenant ids never contain the unit separator, so the tenant part of a key is unambiguous.
const (
	prefixInstall  = "install:"
	prefixDisabled = "disabled:"
	keySep         = '\x1f'
)

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Prefix, tenant id, separator and a composite id fit comfortably.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs prefix + tenant + sep + suffix in a pooled buffer.
// Callers MUST call releaseKey when done with the key.
func buildKey(prefix, tenantID, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, tenantID...)
	buf = append(buf, keySep)
	buf = append(buf, suffix...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Avoid keeping oversized buffers in the pool.
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
