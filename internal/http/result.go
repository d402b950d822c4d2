package httpapi

// Result 统一响应信封
// - code: 2000 成功
// - type: 'success' | 'error'
// - message: 短标题（用户可见）
// - result: 数据；错误时为解释文案
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultTokenExpired 会话过期专用 code（前端拦截器特殊处理）
	ResultTokenExpired = 60401
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Fail 错误信封：message 是短标题，result 是面向用户的解释，
// 永远不携带底层驱动错误
func Fail(title, explanation string) Result[string] {
	return Result[string]{Code: ResultError, Type: "error", Message: title, Result: explanation}
}
