// FILE: internal/dto/admin_log_dto.go
package dto

// Note: log IDs are MD5 hashes of the log line, not UUIDs.

type LogListRequest struct {
	Page  int    `query:"page"`
	Limit int    `query:"limit"`
	Level string `query:"level"` // "", "INFO", "WARN", "ERROR"
}

type LogListResponse struct {
	Id        string `json:"id"`
	Level     string `json:"level"`
	Module    string `json:"module"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}
