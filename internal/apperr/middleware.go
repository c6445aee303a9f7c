package apperr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/logger"
)

// ErrorHandler maps the last error attached to the Gin context to its
// JSON response, logging 5xx at error level and 4xx at warn level.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		log := logger.HTTP()
		err := c.Errors.Last()

		if appErr, ok := err.Err.(*AppError); ok {
			if appErr.StatusCode >= 500 {
				log.Error().Str("code", appErr.Code).Str("details", appErr.Details).Msg(appErr.Message)
			} else {
				log.Warn().Str("code", appErr.Code).Msg(appErr.Message)
			}
			c.JSON(appErr.StatusCode, appErr.ToResponse())
			return
		}

		log.Error().Err(err.Err).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   CodeInternal,
			Message: "an unexpected error occurred",
			Code:    CodeInternal,
		})
	}
}

// Recovery recovers from panics and responds with a generic internal error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.HTTP().Error().Interface("panic", r).Msg("recovered from panic")
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:   CodeInternal,
					Message: "an unexpected error occurred",
					Code:    CodeInternal,
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// HandleError attaches err to the Gin context and writes its response body.
func HandleError(c *gin.Context, err error) {
	if appErr, ok := err.(*AppError); ok {
		c.Error(appErr)
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}
	internalErr := Wrap(CodeInternal, "internal error", err)
	c.Error(internalErr)
	c.JSON(internalErr.StatusCode, internalErr.ToResponse())
}

// AbortWithError aborts the request immediately with err's response.
// An error that is not an *AppError is reported as an internal error.
func AbortWithError(c *gin.Context, err error) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = Wrap(CodeInternal, "internal error", err)
	}
	c.Error(appErr)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}
