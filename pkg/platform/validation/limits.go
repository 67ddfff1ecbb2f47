package validation

// HTTP body limits
const (
	// MaxBodySize bounds JSON request bodies (64 KB).
	MaxBodySize = 64 * 1024

	// DefaultMaxUploadSize bounds multipart document submissions (10 MiB).
	DefaultMaxUploadSize = 10 << 20
)

// Field length limits
const (
	MaxNameLength     = 128
	MaxTitleLength    = 256
	MaxTypeLength     = 64
	MaxPasswordLength = 72 // bcrypt ignores input past 72 bytes
	MinPasswordLength = 8
)
