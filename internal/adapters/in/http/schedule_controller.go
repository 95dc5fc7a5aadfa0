package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/agenda-core/internal/config"
	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/in"
)

type ScheduleController struct {
	useCase in.ScheduleGridUseCase
	cfg     *config.Config
}

func NewScheduleController(useCase in.ScheduleGridUseCase, cfg *config.Config) *ScheduleController {
	return &ScheduleController{
		useCase: useCase,
		cfg:     cfg,
	}
}

func (c *ScheduleController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "version": c.cfg.App.Version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(c.basicAuth())
	{
		api.GET("/schedule/grid", c.getGrid)
		api.POST("/appointments/:appointmentId/move", c.moveAppointment)
		api.POST("/appointments/:appointmentId/resize", c.resizeAppointment)
	}
}

type MoveAppointmentRequest struct {
	Day    string `json:"day" binding:"required"`
	Hour   int    `json:"hour" binding:"min=0,max=23"`
	Minute int    `json:"minute" binding:"min=0,max=59"`
}

type ResizeAppointmentRequest struct {
	Edge    string `json:"edge" binding:"required,oneof=top bottom"`
	DeltaPx int    `json:"deltaPx" binding:"required"`
}

func (c *ScheduleController) getGrid(ctx *gin.Context) {
	branchID, err := uuid.Parse(ctx.Query("branch"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}

	req := domain.GridRequest{
		BranchID:       branchID,
		ShowDiagnostic: ctx.Query("diagnostic") == "true",
		ShowSurgery:    ctx.Query("surgery") == "true",
		Role:           ctx.Query("role"),
	}

	if week := ctx.Query("week"); week != "" {
		req.WeekOf, err = time.Parse(time.RFC3339, week)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week format"})
			return
		}
	} else {
		req.WeekOf = time.Now()
	}

	if doctors := ctx.Query("doctors"); doctors != "" {
		for _, raw := range strings.Split(doctors, ",") {
			doctorID, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid doctor ID format"})
				return
			}
			req.DoctorIDs = append(req.DoctorIDs, doctorID)
		}
	}

	grid, err := c.useCase.BuildGrid(ctx.Request.Context(), req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, grid)
}

func (c *ScheduleController) moveAppointment(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return
	}

	var req MoveAppointmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day, err := time.Parse("2006-01-02", req.Day)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid day format"})
		return
	}

	appt, err := c.useCase.MoveAppointment(ctx.Request.Context(), id, domain.SlotRef{
		Day:    day,
		Hour:   req.Hour,
		Minute: req.Minute,
	})
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (c *ScheduleController) resizeAppointment(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return
	}

	var req ResizeAppointmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := c.useCase.ResizeAppointment(ctx.Request.Context(), id, in.ResizeEdge(req.Edge), req.DeltaPx)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// writeError maps the domain error taxonomy onto HTTP statuses. Slot
// contention is a conflict, other rule violations are unprocessable, and
// an unreachable central database means the write path is down.
func (c *ScheduleController) writeError(ctx *gin.Context, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		status := http.StatusUnprocessableEntity
		switch ve.Code {
		case domain.CodeSlotFull:
			status = http.StatusConflict
		case domain.CodeNotFound:
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": ve.Message, "code": string(ve.Code)})
		return
	}

	if domain.IsUnreachable(err) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "central database unreachable"})
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (c *ScheduleController) basicAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		for _, client := range c.cfg.Auth.BasicClients {
			if subtle.ConstantTimeCompare([]byte(username), []byte(client.Username)) == 1 &&
				subtle.ConstantTimeCompare([]byte(password), []byte(client.Password)) == 1 {
				ctx.Next()
				return
			}
		}

		ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
		ctx.AbortWithStatus(http.StatusUnauthorized)
	}
}
