package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/mutker/scadactl/internal/advisor"
	"codeberg.org/mutker/scadactl/internal/app"
	"codeberg.org/mutker/scadactl/internal/catalog"
	"codeberg.org/mutker/scadactl/internal/collector"
	"codeberg.org/mutker/scadactl/internal/errors"
	"codeberg.org/mutker/scadactl/internal/logger"
	"codeberg.org/mutker/scadactl/internal/scada"
)

const (
	serviceVersion = "1.1.0"
	streamInterval = time.Second
)

type handlers struct {
	app *app.App
}

// snapshotPayload renders a snapshot for JSON transport. Missing values
// become nulls; encoding/json cannot represent NaN.
func snapshotPayload(s *collector.Snapshot) gin.H {
	values := make(map[string]any, len(s.Values))
	for name, v := range s.Values {
		if collector.IsMissing(v) {
			values[name] = nil
			continue
		}
		values[name] = v
	}

	return gin.H{
		"timestamp": s.Timestamp.Format(time.RFC3339Nano),
		"values":    values,
	}
}

func httpStatusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrEmptyBuffer, errors.ErrUnknownPoint, errors.ErrResourceNotFound,
		catalog.ErrPointNotFound:
		return http.StatusNotFound
	case errors.ErrInvalidFormat, errors.ErrInvalidArgument,
		catalog.ErrPointExists, catalog.ErrEmptyOrder:
		return http.StatusBadRequest
	case errors.ErrNotConnected, errors.ErrConnectFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(httpStatusFor(err), gin.H{"detail": err.Error()})
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "scadactl API running",
		"version": serviceVersion,
	})
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scada_connected": h.app.Client.IsConnected(),
		"scada_url":       h.app.Config.Scada.BaseURL,
		"collector":       h.app.Collector.GetStatus(),
	})
}

func (h *handlers) latest(c *gin.Context) {
	snapshot := h.app.Collector.GetLatest()
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "no data collected yet"})
		return
	}

	c.JSON(http.StatusOK, snapshotPayload(snapshot))
}

func (h *handlers) history(c *gin.Context) {
	lastN, err := queryInt(c, "last_n")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	lastSeconds, err := queryFloat(c, "last_seconds")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	snapshots := h.app.Collector.GetHistory(lastN, lastSeconds)

	payload := make([]gin.H, len(snapshots))
	for i, s := range snapshots {
		payload[i] = snapshotPayload(s)
	}

	c.JSON(http.StatusOK, gin.H{"count": len(payload), "snapshots": payload})
}

func (h *handlers) statistics(c *gin.Context) {
	if point := c.Query("point"); point != "" {
		stats, err := h.app.Collector.GetStatistics(point)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, stats)
		return
	}

	stats, err := h.app.Collector.AllStatistics()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// stream pushes the latest snapshot as a server-sent event once per
// second until the client goes away.
func (h *handlers) stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := h.app.Collector.GetLatest()
			if snapshot == nil {
				continue
			}

			c.SSEvent("data", snapshotPayload(snapshot))
			c.Writer.Flush()
		}
	}
}

func (h *handlers) export(c *gin.Context) {
	format := c.DefaultQuery("format", collector.FormatCSV)

	var buf bytes.Buffer
	if err := h.app.Collector.Export(&buf, format); err != nil {
		abortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("scadactl-%s.%s", time.Now().Format("20060102-150405"), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	contentType := "text/csv"
	if format == collector.FormatJSON {
		contentType = "application/json"
	}

	c.Data(http.StatusOK, contentType, buf.Bytes())
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.app.Advisor.Ask(c.Request.Context(), req.Message)
	if err != nil {
		logger.Error().Err(err).Msg("Chat request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	payload := gin.H{"response": result.Text, "tool_request": nil}
	if result.Kind == advisor.KindAction && result.Action != nil {
		payload["tool_request"] = gin.H{
			"tool":    "set_point",
			"args":    gin.H{"tag": result.Action.Tag, "value": result.Action.Value},
			"thought": result.Action.Thought,
		}
	}

	c.JSON(http.StatusOK, payload)
}

type actionRequest struct {
	Tag   string   `json:"tag" binding:"required"`
	Value *float64 `json:"value" binding:"required"`
}

// approveAction executes an operator-approved write. The safety range is
// rechecked here; the advisor's own check is advisory only.
func (h *handlers) approveAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	safe, reason := h.app.Catalog.CheckSafe(req.Tag, *req.Value)
	if !safe {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "blocked by safety check: " + reason})
		return
	}

	if err := h.app.Client.WritePoint(req.Tag, *req.Value, scada.DataTypeNumeric); err != nil {
		logger.Error().Err(err).Str("tag", req.Tag).Msg("Approved write failed")
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
		return
	}

	logger.Info().Str("tag", req.Tag).Float64("value", *req.Value).Msg("Approved action executed")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Written %g to %s", *req.Value, req.Tag),
	})
}

func (h *handlers) listPoints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"points": h.app.Catalog.Points()})
}

func (h *handlers) addPoint(c *gin.Context) {
	var point catalog.Point
	if err := c.ShouldBindJSON(&point); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if point.Name == "" || point.XID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "name and xid are required"})
		return
	}

	if err := h.app.Catalog.Add(point); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, point)
}

func (h *handlers) updatePoint(c *gin.Context) {
	var point catalog.Point
	if err := c.ShouldBindJSON(&point); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	point.Name = c.Param("name")

	if err := h.app.Catalog.Update(point); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, point)
}

func (h *handlers) deletePoint(c *gin.Context) {
	if err := h.app.Catalog.Delete(c.Param("name")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type reorderRequest struct {
	Names []string `json:"names" binding:"required"`
}

func (h *handlers) reorderPoints(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := h.app.Catalog.Reorder(req.Names); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": h.app.Catalog.Points()})
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}

	return v, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}

	return v, nil
}
