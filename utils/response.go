package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/pubfeed/apperr"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// StatusFor maps an error kind to its HTTP status and response code.
func StatusFor(kind apperr.Kind) (status int, code int) {
	switch kind {
	case apperr.Validation:
		return http.StatusUnprocessableEntity, 42201
	case apperr.NotFound:
		return http.StatusNotFound, 40401
	case apperr.Forbidden:
		return http.StatusForbidden, 40301
	case apperr.Conflict:
		return http.StatusConflict, 40901
	case apperr.Unauthorized:
		return http.StatusUnauthorized, 40110
	case apperr.Storage:
		return http.StatusServiceUnavailable, 50301
	default:
		return http.StatusInternalServerError, 50000
	}
}

// Fail writes the error response for err. Storage and internal failures are
// logged and their details are kept out of the response.
func Fail(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, code := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		L().Error("request failed",
			zap.String("path", ctx.Request.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err))
		Error(ctx, status, code, http.StatusText(status))
		return
	}
	Error(ctx, status, code, err.Error())
}
