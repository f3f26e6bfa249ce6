package model

import "time"

// ChatRequest 聊天请求
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatResponse 聊天响应，构造后不再修改
type ChatResponse struct {
	Reply   string `json:"reply"`
	JSTTime string `json:"jst_time"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string `json:"error"`   // 机器可读的错误码
	Message string `json:"message"` // 简短说明，不包含上游响应内容
}

// Exchange 一次成功的问答，交给记录器持久化
type Exchange struct {
	RequestID string
	Mode      string
	UserText  string
	Reply     string
	At        time.Time
}
