package model

// Metadata keys of the local key/value store.
const (
	MetaLastSyncAt      = "lastSyncAt"
	MetaSyncInitialized = "syncInitialized"
	MetaUserID          = "userId"
	MetaTheme           = "theme"
	MetaTimer           = "timer"
	MetaInProgress      = "inProgress"
)
