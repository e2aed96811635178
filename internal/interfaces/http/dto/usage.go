package dto

// UsageSummaryResponse token 用量统计响应
type UsageSummaryResponse struct {
	// User 统计对象的用户名
	User string `json:"user"`
	// WindowHours 统计窗口长度（小时）
	WindowHours int `json:"window_hours"`
	// TokensTotal 窗口内消耗的 token 总量
	TokensTotal int64 `json:"tokens_total"`
}
