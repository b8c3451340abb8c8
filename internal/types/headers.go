package types

// HTTP headers read or written by the API
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserID    = "X-User-ID"

	// HeaderSignature carries the hex HMAC-SHA256 of a provider callback body
	HeaderSignature = "X-Signature"
	// HeaderEventID carries the provider's id of a callback event
	HeaderEventID = "X-Event-Id"
)
