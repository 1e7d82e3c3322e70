package service

import "errors"

var (
	// ErrInvalidRequest 请求参数不完整
	ErrInvalidRequest = errors.New("invalid request")
)
