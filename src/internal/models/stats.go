package models

type Stats struct {
	OpenSessions       int64 `json:"openSessions"`
	ClosedToday        int64 `json:"closedToday"`
	ActiveCredentials  int64 `json:"activeCredentials"`
	LockedCredentials  int64 `json:"lockedCredentials"`
	ExpiredCredentials int64 `json:"expiredCredentials"`
}
