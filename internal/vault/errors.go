package vault

import "errors"

var (
	// ErrMalformedCapsule reports a structural or encoding problem in a capsule file.
	ErrMalformedCapsule = errors.New("malformed capsule")
	// ErrDecryptionFailed covers both a wrong password and a corrupted or
	// tampered capsule. The two cases are not distinguished.
	ErrDecryptionFailed = errors.New("decryption failed: incorrect password or corrupted file")
	// ErrDestinationNotWritable reports that the capsule target cannot be written.
	ErrDestinationNotWritable = errors.New("destination not writable")
)
