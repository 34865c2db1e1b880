// internal/app/system/status/status.go
package status

// Account statuses stored in users.status.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a recognized account status.
func IsValid(s string) bool {
	switch s {
	case Active, Disabled:
		return true
	default:
		return false
	}
}
