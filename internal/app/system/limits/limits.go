// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON and form endpoints.
const (
	// MaxAnnouncementBody bounds create/update announcement payloads.
	MaxAnnouncementBody = 64 << 10 // 64 KB

	// MaxLoginBody bounds login form/JSON payloads.
	MaxLoginBody = 8 << 10 // 8 KB
)
