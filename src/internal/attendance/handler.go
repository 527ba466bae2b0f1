package attendance

import (
	"context"
	"errors"
	"net/http"
	"time"

	"attendance-svc/src/internal/cache"
	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	CheckIn(c *gin.Context)
	CheckOut(c *gin.Context)
	Status(c *gin.Context)
	History(c *gin.Context)
	Stats(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	service      Service
	history      HistoryService
	cacheService cache.Service
}

func NewHandler(cfg *config.Configuration, service Service, history HistoryService, cacheService cache.Service) Handler {
	return &handler{
		config:       cfg,
		service:      service,
		history:      history,
		cacheService: cacheService,
	}
}

func (h *handler) CheckIn(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request body", "employeeId and code are required")
		return
	}

	logrus.WithField("employee_id", req.EmployeeID).Info("Check-in request received")

	session, err := h.service.CheckIn(ctx, req.EmployeeID, req.Code)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    session,
		"message": "Checked in successfully",
	})
}

func (h *handler) CheckOut(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request body", "employeeId is required")
		return
	}

	logrus.WithField("employee_id", req.EmployeeID).Info("Check-out request received")

	session, err := h.service.CheckOut(ctx, req.EmployeeID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
		"message": "Checked out successfully",
	})
}

func (h *handler) Status(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	employeeID := c.Param("employeeId")

	status, err := h.service.CurrentStatus(ctx, employeeID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    status,
		"message": "Status retrieved successfully",
	})
}

// History serves both modes: recent closed sessions when no date is given,
// full-day aggregation when it is.
func (h *handler) History(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	employeeID := c.Param("employeeId")
	date := c.Query("date")

	if date == "" {
		sessions, err := h.history.RecentSessions(ctx, employeeID)
		if err != nil {
			h.handleAttendanceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"sessions": sessions},
			"message": "Recent sessions retrieved successfully",
		})
		return
	}

	day, err := h.history.DayHistory(ctx, employeeID, date)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			h.sendErrorResponse(c, http.StatusBadRequest, "Invalid date", "Provide the date as YYYY-MM-DD")
			return
		}
		h.handleAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    day,
		"message": "Day history retrieved successfully",
	})
}

func (h *handler) Stats(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cached, err := h.cacheService.GetStats(ctx)
	if err == nil && cached != nil {
		logrus.Debug("Attendance stats retrieved from cache")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    cached,
			"message": "Attendance statistics retrieved successfully (from cache)",
		})
		return
	}

	stats, err := h.history.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get attendance statistics")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve statistics", err.Error())
		return
	}

	h.cacheService.SaveStats(ctx, stats)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Attendance statistics retrieved successfully",
	})
}

func (h *handler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request", "employeeId is required")
	case errors.Is(err, models.ErrCredentialInvalid):
		// Deliberately undifferentiated: unknown, locked and expired codes
		// all read the same to the caller.
		h.sendErrorResponse(c, http.StatusUnauthorized, "Invalid or expired code", "Scan a current QR code and try again")
	case errors.Is(err, models.ErrEmployeeNotFound):
		h.sendErrorResponse(c, http.StatusNotFound, "Employee not found", "No employee found with the provided ID")
	case errors.Is(err, models.ErrAlreadyCheckedIn):
		h.sendErrorResponse(c, http.StatusConflict, "Already checked in", "Check out of the open session before checking in again")
	case errors.Is(err, models.ErrNotCheckedIn):
		h.sendErrorResponse(c, http.StatusConflict, "Not checked in", "There is no open session to check out of")
	case errors.Is(err, models.ErrStorageUnavailable):
		h.sendErrorResponse(c, http.StatusServiceUnavailable, "Service temporarily unavailable", "Please try again shortly")
	default:
		logrus.WithError(err).Error("Attendance operation failed")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Attendance operation failed", err.Error())
	}
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   error,
		"message": message,
	})
}
