package dto

import "time"

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID creates an error response tagged with the
// request ID so clients can correlate it with server logs.
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// DateRangeRequest is the query shared by range-scoped reports. Both dates
// are calendar days in UTC and end_date is inclusive.
type DateRangeRequest struct {
	StartDate string `form:"start_date" binding:"required" example:"2026-01-01"`
	EndDate   string `form:"end_date" binding:"required" example:"2026-01-31"`
}

// ForecastRequest defines the forecast window
type ForecastRequest struct {
	HistoryDays  int `form:"history_days" binding:"omitempty,min=1,max=730" example:"30"`
	ForecastDays int `form:"forecast_days" binding:"omitempty,min=1,max=365" example:"7"`
}

// CohortRequest defines how many months of cohorts to return
type CohortRequest struct {
	MonthsBack int `form:"months_back" binding:"omitempty,min=1,max=36" example:"12"`
}

// RestockRequest defines the as-of date for restock suggestions
type RestockRequest struct {
	EndDate string `form:"end_date" example:"2026-01-31"`
}

// RefreshResponse acknowledges a cache refresh
type RefreshResponse struct {
	Message   string `json:"message" example:"Analytics caches cleared"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}
