package util

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameTaken         = errors.New("该用户名已被注册")
	ErrEmailRegistered       = errors.New("该邮箱已被注册")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrEmptyAnswers          = errors.New("answers must not be empty")
	ErrMalformedAnswer       = errors.New("each answer requires questionId and selectedAnswer")
	ErrResultNotFound        = errors.New("test result not found")
	ErrInvalidAmount         = errors.New("amount must be a positive number")
	ErrSelfTransfer          = errors.New("cannot transfer to yourself")
	ErrReceiverNotFound      = errors.New("receiver not found")
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotPending = errors.New("transaction is not pending")
	ErrInvalidStatus         = errors.New("status must be completed or failed")
)
