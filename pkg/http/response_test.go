package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seriesQuery struct {
	Symbols string `query:"symbols" validate:"symbols"`
	Hours   int    `query:"hours" default:"6" validate:"gte=1,lte=24"`
}

func serve(t *testing.T, target string, h echo.HandlerFunc) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	e := echo.New()
	e.GET("/x", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestReadAndValidateRequest(t *testing.T) {
	var got seriesQuery
	handler := func(c echo.Context) error {
		got = seriesQuery{}
		if verr := ReadAndValidateRequest(c, &got); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return SuccessResponse(c, got)
	}

	rec, body := serve(t, "/x?symbols=btcusdt.p,ETHUSDT.P", handler)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, 6, got.Hours)

	rec, body = serve(t, "/x?hours=30", handler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := body.Data.([]interface{})
	require.Len(t, details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(t, "hours", first["field"])
	assert.Equal(t, "ERR_LTE", first["code"])

	rec, _ = serve(t, "/x?symbols=OK,no%20way", handler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, "/x?hours=abc", handler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppErrorResponse(t *testing.T) {
	rec, body := serve(t, "/x", func(c echo.Context) error {
		return AppErrorResponse(c, UnavailableError("store down").WithError(errors.New("disk")))
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, body.Status)
	assert.NotContains(t, rec.Body.String(), "disk")

	rec, _ = serve(t, "/x", func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("boom"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, body = serve(t, "/x", func(c echo.Context) error {
		return ListResponse(c, []int{1, 2}, 2)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body.Data.(map[string]interface{})["total"])
}

func TestAppErrorMessage(t *testing.T) {
	err := BadRequestErrorf("invalid since: %q", "yesterday").WithField("since")
	assert.Equal(t, `invalid since: "yesterday"`, err.Error())
	assert.Equal(t, "since", err.Field)
	assert.Equal(t, http.StatusBadRequest, err.Status)

	wrapped := NotFoundError("gone").WithError(errors.New("cause"))
	assert.Equal(t, "gone: cause", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "cause")
}
