package api

import (
	"time"

	models "TradePilot/internal/domain/models"
	"TradePilot/internal/usecase"
	xhttp "TradePilot/pkg/http"
	xlogger "TradePilot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradingEchoHandler exposes the analysis pipeline, the execution gate and
// the performance tracker over HTTP.
type TradingEchoHandler struct {
	logger  *xlogger.Logger
	session *usecase.TradingSession
}

func NewTradingEchoHandler(logger *xlogger.Logger, session *usecase.TradingSession) *TradingEchoHandler {
	return &TradingEchoHandler{logger: logger, session: session}
}

func (h *TradingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.POST("/execute", h.Execute)
	g.GET("/policy", h.GetPolicy)
	g.PUT("/policy", h.UpdatePolicy)
	g.GET("/performance", h.Performance)
	g.DELETE("/performance", h.ResetPerformance)
	g.POST("/performance/outcome", h.RecordOutcome)
	g.GET("/connections", h.Connections)
}

func (h *TradingEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.session.Analyze(c.Request().Context(), req.Symbol, req.Snapshot, req.News, req.Query, req.ForceFallback)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *TradingEchoHandler) Execute(c echo.Context) error {
	req := &models.ExecuteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	decision := models.ParseDecision(req.Decision)
	res := h.session.ExecuteDecision(c.Request().Context(), req.Symbol, decision, req.Confidence)
	return xhttp.SuccessResponse(c, res)
}

func (h *TradingEchoHandler) GetPolicy(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.session.Policy())
}

func (h *TradingEchoHandler) UpdatePolicy(c echo.Context) error {
	req := &models.PolicyUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.session.UpdatePolicy(*req))
}

func (h *TradingEchoHandler) Performance(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.session.Performance())
}

func (h *TradingEchoHandler) ResetPerformance(c echo.Context) error {
	h.session.ResetPerformance()
	return xhttp.NoContentResponse(c)
}

func (h *TradingEchoHandler) RecordOutcome(c echo.Context) error {
	req := &models.OutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.session.RecordOutcome(models.OutcomeRecord{
		Capability: models.Capability(req.Capability),
		Timestamp:  time.Now(),
		Correct:    req.Correct,
		Note:       req.Note,
	})
	return xhttp.NoContentResponse(c)
}

func (h *TradingEchoHandler) Connections(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.session.Connections())
}
