package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/vesaa/alertdesk/internal/models"
	"github.com/vesaa/alertdesk/internal/store"
	"go.uber.org/zap"
)

// RegisterRoutes wires up the alert API and probes on the given engine.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	alerts := r.Group("/alerts")
	{
		alerts.POST("/", IngestTokenMiddleware(s.ingestToken), s.handleCreateAlert)
		alerts.GET("/", s.handleListAlerts)
		alerts.GET("/search", s.handleSearchAlerts)
	}

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// createAlertRequest is bound from query/form parameters or a JSON body.
// Fields are pointers so "required" means present: empty strings and 0 pass.
type createAlertRequest struct {
	Hostname *string `form:"hostname" json:"hostname" binding:"required"`
	Metric   *string `form:"metric" json:"metric" binding:"required"`
	Value    *int64  `form:"value" json:"value" binding:"required"`
	Message  *string `form:"message" json:"message" binding:"required"`
}

type createAlertResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	AlertID int64       `json:"alert_id"`
	Data    createdData `json:"data"`
}

type createdData struct {
	Hostname string `json:"hostname"`
	Metric   string `json:"metric"`
	Value    int64  `json:"value"`
}

type alertsResponse struct {
	Count  int         `json:"count"`
	Alerts []alertView `json:"alerts"`
}

// handleCreateAlert stores one alert.
//
//	POST /alerts/?hostname=web-01&metric=cpu&value=95&message=high+load
func (s *Server) handleCreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": bindingMessage(err)})
		return
	}
	// The form binder reads "value=" as 0.
	if emptyFormValue(c.Request, "value") {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "value must be an integer"})
		return
	}

	a := &models.Alert{
		Hostname: *req.Hostname,
		Metric:   *req.Metric,
		Value:    *req.Value,
		Message:  *req.Message,
	}
	ctx := c.Request.Context()
	if err := s.store.Create(ctx, a); err != nil {
		s.storageError(c, "create alert", err)
		return
	}
	s.metrics.alertsCreated.Inc()

	if err := s.publisher.Publish(ctx, *a); err != nil {
		s.log.Warn("publish alert", zap.Int64("alert_id", a.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, createAlertResponse{
		Success: true,
		Message: "alert saved",
		AlertID: a.ID,
		Data: createdData{
			Hostname: a.Hostname,
			Metric:   a.Metric,
			Value:    a.Value,
		},
	})
}

// handleListAlerts returns every alert, newest first.
func (s *Server) handleListAlerts(c *gin.Context) {
	alerts, err := s.store.List(c.Request.Context())
	if err != nil {
		s.storageError(c, "list alerts", err)
		return
	}
	c.JSON(http.StatusOK, newAlertsResponse(alerts))
}

// handleSearchAlerts filters alerts; all parameters are optional and ANDed.
//
//	GET /alerts/search?hostname=web&start_time=2024-01-01T00:00&end_time=2024-01-02T00:00
func (s *Server) handleSearchAlerts(c *gin.Context) {
	start, err := store.ParseFilterTime(c.Query("start_time"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "start_time: " + err.Error()})
		return
	}
	end, err := store.ParseFilterTime(c.Query("end_time"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "end_time: " + err.Error()})
		return
	}

	alerts, err := s.store.Search(c.Request.Context(), store.Filter{
		Hostname: c.Query("hostname"),
		Start:    start,
		End:      end,
	})
	if err != nil {
		s.storageError(c, "search alerts", err)
		return
	}
	c.JSON(http.StatusOK, newAlertsResponse(alerts))
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// storageError logs err and answers with a sanitized 5xx; driver text never reaches the client.
func (s *Server) storageError(c *gin.Context, op string, err error) {
	s.log.Error(op, zap.String("path", c.Request.URL.Path), zap.Error(err))
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage timed out"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal storage error"})
}

// bindingMessage turns a Gin binding error into a short client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "missing required field(s): " + strings.Join(fields, ", ")
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return "value must be an integer"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "value" {
			return "value must be an integer"
		}
		return typeErr.Field + " must be a string"
	}
	return "malformed request body"
}

// emptyFormValue reports whether key arrived as a query or form parameter with no value.
func emptyFormValue(r *http.Request, key string) bool {
	vs, ok := r.Form[key]
	return ok && len(vs) > 0 && vs[0] == ""
}
