package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrQuestionMismatch   = errors.New("question does not belong to resource")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionCompleted   = errors.New("session already completed")
	ErrNotAssigned        = errors.New("student not authorized for resource")
	ErrUnknownActivity    = errors.New("unknown activity type")
	ErrNoteNotFound       = errors.New("note not found")
	ErrMarksNotPublished  = errors.New("marks not yet published")
	ErrGrantAlreadyActive = errors.New("an unused reassessment grant already exists")
)
