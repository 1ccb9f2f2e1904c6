package services

import "errors"

var (
	ErrThoughtNotFound = errors.New("thought not found")
	ErrRunNotFound     = errors.New("run not found")
)
