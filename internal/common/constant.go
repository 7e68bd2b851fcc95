package common

const (
	// SessionTokenHeaderName is the gRPC metadata key carrying the session token.
	SessionTokenHeaderName = "session_token"

	// SyncTokenHeaderName is the HTTP header carrying the sync hook token.
	SyncTokenHeaderName = "X-Sync-Token"

	// DefaultSyncCollection receives rows appended by the sync trigger.
	DefaultSyncCollection = "table_name_1"

	// DefaultRegistrationCollection receives registration demo records.
	DefaultRegistrationCollection = "registrations"

	// SignInFailedMessage is shown when a credential cannot be processed.
	SignInFailedMessage = "Failed to process sign-in. Please try again."
)
