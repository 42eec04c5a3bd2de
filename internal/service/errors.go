package service

import "errors"

// 业务层通用错误，handler 与 ws 层根据错误类型映射到状态码或事件。
var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrActivityNotActive  = errors.New("activity is not active")
	ErrInvalidWindow      = errors.New("invalid startsAt/endsAt")
	ErrInvalidReaction    = errors.New("invalid reaction type")
	ErrAlreadyReacted     = errors.New("already reacted")
	ErrForbidden          = errors.New("forbidden")
	ErrCodeSpaceExhausted = errors.New("could not allocate activity code")
	ErrUpstream           = errors.New("external service failed")
)
