package service

import "errors"

// 业务错误分类
// HTTP 层负责翻译成「短标题 + 说明」的用户可见形式，
// 永远不把底层驱动错误原样丢给前端
var (
	// 令牌类：本次扫码终止，用户需要重扫
	ErrTokenMissing = errors.New("no access token presented")
	ErrTokenExpired = errors.New("attendance token expired or mismatched")

	// 身份类：终止并引导到注册/恢复流程
	ErrUnregisteredDevice = errors.New("device not linked to any staff account")
	ErrInvalidPIN         = errors.New("pin verification failed")
	ErrStaffNotFound      = errors.New("staff not found")
	ErrAlreadySetUp       = errors.New("registration link already consumed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAdmin           = errors.New("access denied: not an admin")

	// 冲突类：拒绝并解释，不重试
	ErrShiftCompleted = errors.New("shift already completed today")

	// 校验类
	ErrMemberNotFound = errors.New("member not found")
	ErrPlanNotFound   = errors.New("invalid plan selected")
)
