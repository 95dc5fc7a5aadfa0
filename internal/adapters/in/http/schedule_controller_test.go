package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/agenda-core/internal/config"
	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/in"
)

type stubUseCase struct {
	grid       *domain.Grid
	appt       *domain.Appointment
	err        error
	gotRequest domain.GridRequest
	gotTarget  domain.SlotRef
	gotEdge    in.ResizeEdge
	gotDeltaPx int
}

func (s *stubUseCase) BuildGrid(_ context.Context, req domain.GridRequest) (*domain.Grid, error) {
	s.gotRequest = req
	return s.grid, s.err
}

func (s *stubUseCase) MoveAppointment(_ context.Context, _ uuid.UUID, target domain.SlotRef) (*domain.Appointment, error) {
	s.gotTarget = target
	return s.appt, s.err
}

func (s *stubUseCase) ResizeAppointment(_ context.Context, _ uuid.UUID, edge in.ResizeEdge, deltaPx int) (*domain.Appointment, error) {
	s.gotEdge = edge
	s.gotDeltaPx = deltaPx
	return s.appt, s.err
}

func (s *stubUseCase) RefreshVisible(context.Context) error { return s.err }

func newTestRouter(t *testing.T, useCase *stubUseCase) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Auth.BasicClients = []config.ConfigBasicClient{{Username: "agenda", Password: "secret"}}

	router := gin.New()
	NewScheduleController(useCase, cfg).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.SetBasicAuth("agenda", "secret")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGridRequiresAuth(t *testing.T) {
	router := newTestRouter(t, &stubUseCase{})

	w := doRequest(router, http.MethodGet, "/api/v1/schedule/grid?branch="+uuid.NewString(), "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule/grid?branch="+uuid.NewString(), nil)
	req.SetBasicAuth("agenda", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthSkipsAuth(t *testing.T) {
	router := newTestRouter(t, &stubUseCase{})
	w := doRequest(router, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetGridParsesQuery(t *testing.T) {
	useCase := &stubUseCase{grid: &domain.Grid{Empty: true}}
	router := newTestRouter(t, useCase)

	branchID := uuid.New()
	doctorA := uuid.New()
	doctorB := uuid.New()
	path := "/api/v1/schedule/grid?branch=" + branchID.String() +
		"&week=2024-06-01T12:00:00Z" +
		"&doctors=" + doctorA.String() + "," + doctorB.String() +
		"&diagnostic=true&role=recepcion"

	w := doRequest(router, http.MethodGet, path, "", true)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, branchID, useCase.gotRequest.BranchID)
	assert.Equal(t, []uuid.UUID{doctorA, doctorB}, useCase.gotRequest.DoctorIDs)
	assert.True(t, useCase.gotRequest.ShowDiagnostic)
	assert.False(t, useCase.gotRequest.ShowSurgery)
	assert.Equal(t, "recepcion", useCase.gotRequest.Role)
}

func TestGetGridRejectsBadBranch(t *testing.T) {
	router := newTestRouter(t, &stubUseCase{})
	w := doRequest(router, http.MethodGet, "/api/v1/schedule/grid?branch=nope", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveAppointment(t *testing.T) {
	useCase := &stubUseCase{appt: &domain.Appointment{ID: uuid.New()}}
	router := newTestRouter(t, useCase)

	path := "/api/v1/appointments/" + uuid.NewString() + "/move"
	w := doRequest(router, http.MethodPost, path, `{"day":"2024-06-03","hour":9,"minute":30}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9, useCase.gotTarget.Hour)
	assert.Equal(t, 30, useCase.gotTarget.Minute)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"slot full", domain.NewValidationError(domain.CodeSlotFull, "slot is full"), http.StatusConflict},
		{"not found", domain.NewValidationError(domain.CodeNotFound, "no such appointment"), http.StatusNotFound},
		{"duration", domain.NewValidationError(domain.CodeDurationOutOfRange, "too short"), http.StatusUnprocessableEntity},
		{"unreachable", domain.NewUnreachableError("update", assert.AnError), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &stubUseCase{err: tc.err})
			path := "/api/v1/appointments/" + uuid.NewString() + "/move"
			w := doRequest(router, http.MethodPost, path, `{"day":"2024-06-03","hour":9,"minute":30}`, true)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestResizeAppointment(t *testing.T) {
	useCase := &stubUseCase{appt: &domain.Appointment{ID: uuid.New()}}
	router := newTestRouter(t, useCase)

	path := "/api/v1/appointments/" + uuid.NewString() + "/resize"
	w := doRequest(router, http.MethodPost, path, `{"edge":"bottom","deltaPx":60}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, in.ResizeEdgeBottom, useCase.gotEdge)
	assert.Equal(t, 60, useCase.gotDeltaPx)
}

func TestResizeRejectsUnknownEdge(t *testing.T) {
	router := newTestRouter(t, &stubUseCase{})
	path := "/api/v1/appointments/" + uuid.NewString() + "/resize"
	w := doRequest(router, http.MethodPost, path, `{"edge":"left","deltaPx":60}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
