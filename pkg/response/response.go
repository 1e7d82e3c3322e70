package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeSuccess 成功
const CodeSuccess = "OK"

// Response 统一响应结构
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}
