package api

import (
	"time"

	"MomentumPull/internal/domain/models"
	"MomentumPull/internal/usecase"
	xhttp "MomentumPull/pkg/http"
	xlogger "MomentumPull/pkg/logger"
	"MomentumPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// CycleReporter exposes the outcome of the most recent aggregation cycle.
type CycleReporter interface {
	LastReport() *models.CycleReport
}

// RunnerStatus exposes the scheduler state.
type RunnerStatus interface {
	State() usecase.RunnerState
	ConsecutiveFailures() int
	Cycles() int
}

type statusResponse struct {
	State               usecase.RunnerState `json:"state"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	Cycles              int                 `json:"cycles"`
	LastCycle           *time.Time          `json:"last_cycle,omitempty"`
}

// MomentumEchoHandler serves the analytics views over the momentum store.
type MomentumEchoHandler struct {
	logger *xlogger.Logger
	dash   *usecase.DashboardUseCase
	cycles CycleReporter
	runner RunnerStatus
}

func NewMomentumEchoHandler(logger *xlogger.Logger, dash *usecase.DashboardUseCase, cycles CycleReporter, runner RunnerStatus) *MomentumEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &MomentumEchoHandler{logger: logger, dash: dash, cycles: cycles, runner: runner}
}

func (h *MomentumEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/rankings", h.Rankings)
	g.GET("/bands", h.Bands)
	g.GET("/crossovers", h.Crossovers)
	g.GET("/series", h.Series)
	g.GET("/snapshots", h.Snapshots)
	g.GET("/cycle/last", h.LastCycle)
	g.GET("/status", h.Status)
}

func (h *MomentumEchoHandler) Dashboard(c echo.Context) error {
	d := h.dash.Latest(c.Request().Context())
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, d)
}

func (h *MomentumEchoHandler) Rankings(c echo.Context) error {
	req := &models.RankingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.dash.Rankings(c.Request().Context(), req.N))
}

func (h *MomentumEchoHandler) Bands(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Latest(c.Request().Context()).Bands)
}

func (h *MomentumEchoHandler) Crossovers(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Latest(c.Request().Context()).Crossovers)
}

func (h *MomentumEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbols := util.SplitList(req.Symbols)
	return xhttp.SuccessResponse(c, h.dash.Series(c.Request().Context(), symbols, req.Hours))
}

func (h *MomentumEchoHandler) Snapshots(c echo.Context) error {
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var since time.Time
	if req.Since != "" {
		t, ok := util.ParseTime(req.Since)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid since: %q", req.Since).WithField("since"))
		}
		since = t
	}

	rows, err := h.dash.Snapshots(c.Request().Context(), req.Symbol, since, req.Limit)
	if err != nil {
		h.logger.Error("snapshots usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("snapshot store unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MomentumEchoHandler) LastCycle(c echo.Context) error {
	if h.cycles == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no cycle has run yet"))
	}
	r := h.cycles.LastReport()
	if r == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no cycle has run yet"))
	}
	return xhttp.SuccessResponse(c, r)
}

func (h *MomentumEchoHandler) Status(c echo.Context) error {
	resp := statusResponse{State: usecase.StateIdle}
	if h.runner != nil {
		resp.State = h.runner.State()
		resp.ConsecutiveFailures = h.runner.ConsecutiveFailures()
		resp.Cycles = h.runner.Cycles()
	}
	if h.cycles != nil {
		if r := h.cycles.LastReport(); r != nil {
			ts := r.Timestamp
			resp.LastCycle = &ts
		}
	}
	return xhttp.SuccessResponse(c, resp)
}
