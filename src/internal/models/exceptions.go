package models

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrCredentialInvalid = errors.New("invalid or expired code")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrAlreadyCheckedIn  = errors.New("already checked in")
	ErrNotCheckedIn      = errors.New("not checked in")
	ErrNotFound          = errors.New("record not found")
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrDatabaseDelete     = errors.New("database delete error")
	ErrDuplicateRecord    = errors.New("duplicate record")
)

var (
	ErrRedisGet = errors.New("redis get error")
	ErrRedisSet = errors.New("redis set error")
)
