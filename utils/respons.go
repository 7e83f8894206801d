package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondValidationErrors returns the full list of violated rules so the
// client can show every problem at once.
func RespondValidationErrors(c *gin.Context, fields interface{}) {
	c.JSON(http.StatusBadRequest, JSONResponse{
		Status:  false,
		Message: "validation failed",
		Data:    gin.H{"fields": fields},
	})
}
