package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every JSON endpoint answers with. Status
// mirrors the HTTP status code.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListDataResponse carries a row set and its size.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}

func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return SuccessResponse(c, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse answers 400 with validation details.
func BadRequestResponse(c echo.Context, details interface{}) error {
	return DataResponse(c, http.StatusBadRequest, details)
}

// AppErrorResponse renders err with its own status; anything that is not
// an *AppError is reported as an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "internal error")
}
