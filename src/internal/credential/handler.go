package credential

import (
	"context"
	"errors"
	"net/http"
	"time"

	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Issue(c *gin.Context)
	ToggleLock(c *gin.Context)
	List(c *gin.Context)
	Remove(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) Issue(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Invalid credential issuance payload")
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request body", "Provide validUntil as an RFC 3339 timestamp")
		return
	}

	cred, err := h.service.Issue(ctx, &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			h.sendErrorResponse(c, http.StatusBadRequest, "Invalid expiry", "validUntil must be in the future")
			return
		}
		logrus.WithError(err).Error("Failed to issue credential")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to issue credential", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    cred,
		"message": "Credential issued successfully",
	})
}

func (h *handler) ToggleLock(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id := c.Param("id")
	if id == "" {
		h.sendErrorResponse(c, http.StatusBadRequest, "Credential ID is required", "Please provide a valid credential ID")
		return
	}

	cred, err := h.service.ToggleLock(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendErrorResponse(c, http.StatusNotFound, "Credential not found", "No credential found with the provided ID")
			return
		}
		logrus.WithError(err).WithField("credential_id", id).Error("Failed to toggle credential lock")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to toggle credential", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cred,
		"message": "Credential updated successfully",
	})
}

func (h *handler) List(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	creds, err := h.service.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list credentials")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve credentials", err.Error())
		return
	}

	if creds == nil {
		creds = []*Credential{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    creds,
		"message": "Credentials retrieved successfully",
	})
}

func (h *handler) Remove(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id := c.Param("id")
	if id == "" {
		h.sendErrorResponse(c, http.StatusBadRequest, "Credential ID is required", "Please provide a valid credential ID")
		return
	}

	if err := h.service.Remove(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendErrorResponse(c, http.StatusNotFound, "Credential not found", "No credential found with the provided ID")
			return
		}
		logrus.WithError(err).WithField("credential_id", id).Error("Failed to remove credential")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to remove credential", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Credential removed successfully",
	})
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
