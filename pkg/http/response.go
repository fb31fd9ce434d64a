package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// HeaderXCache reports where a record came from.
const HeaderXCache = "X-Cache"

// SetCacheControl marks the response as publicly cacheable for maxAge.
func SetCacheControl(c echo.Context, maxAge time.Duration) {
	if maxAge <= 0 {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
}

// SuccessResponse writes data as the JSON body with 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// NoContentResponse writes no content response.
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// BadRequestResponse writes a validation failure.
func BadRequestResponse(c echo.Context, details interface{}) error {
	body := ErrorResponse{Error: "Invalid request", Code: "ERR_BAD_REQUEST"}
	if list, ok := details.([]ValidationError); ok {
		body.Details = list
		if len(list) > 0 && list[0].Message != "" {
			body.Error = list[0].Message
		}
	}
	return c.JSON(http.StatusBadRequest, body)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context, message string) error {
	if message == "" {
		message = "Something went wrong"
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message, Code: "ERR_INTERNAL"})
}

// AppErrorResponse writes application error response. Anything that is not
// an AppError becomes a 500 carrying the error text.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
	}
	return InternalServerErrorResponse(c, err.Error())
}
