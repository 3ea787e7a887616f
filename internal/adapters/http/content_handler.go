package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/ports"
)

// ContentHandler serves the public and admin resource routes
type ContentHandler struct {
	content     ports.ContentService
	cacheMaxAge time.Duration
	logger      *logger.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(content ports.ContentService, cacheMaxAge time.Duration, logger *logger.Logger) *ContentHandler {
	return &ContentHandler{
		content:     content,
		cacheMaxAge: cacheMaxAge,
		logger:      logger,
	}
}

// GetResource godoc
// @Summary Get a resource array
// @Description Returns the full posts, projects or tech array as stored on disk
// @Tags content
// @Produce json
// @Param key path string true "Resource key" Enums(posts, projects, tech)
// @Success 200 {array} object
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/{key} [get]
func (h *ContentHandler) GetResource(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))

	data, err := h.content.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		he := toHTTPError(err, "Failed to read data")
		if he.Code == http.StatusInternalServerError {
			h.logger.Errorw("Read resource failed", "error", err, "key", c.Param("key"))
		}
		return he
	}

	return c.JSONBlob(http.StatusOK, data)
}

// PutResource godoc
// @Summary Replace a resource array
// @Description Validates the body and atomically replaces the whole array
// @Tags admin
// @Accept json
// @Produce json
// @Param key path string true "Resource key" Enums(posts, projects, tech)
// @Param payload body []object true "Complete replacement array"
// @Success 200 {object} OKResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/admin/{key} [put]
func (h *ContentHandler) PutResource(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return toHTTPError(err, "Invalid JSON body")
	}
	if !json.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
	}

	cred := credentialFromContext(c)
	if err := h.content.Replace(c.Request().Context(), cred, c.Param("key"), body); err != nil {
		he := toHTTPError(err, "Failed to write data")
		if he.Code == http.StatusInternalServerError {
			h.logger.Errorw("Write resource failed", "error", err, "key", c.Param("key"), "ip", cred.RemoteIP)
		}
		return he
	}

	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
