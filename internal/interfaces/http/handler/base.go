package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/shared"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/dto"
	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler writes the shared response envelope.
type BaseHandler struct{}

// Success writes a 200 with data.
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error writes an error envelope tagged with the request id.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest rejects malformed query parameters.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError maps a service error onto a status and error code. Domain
// errors keep their message; anything else is reported as an opaque 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		h.Error(c, dto.StatusClientClosedRequest, dto.ErrCodeCanceled, "Request canceled")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
