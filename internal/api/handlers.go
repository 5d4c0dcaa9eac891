package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
)

var (
	errBadRequest = errors.New("bad request")
	errNoRoute    = errors.New("no such route")
)

// Handlers serves the JSON command surface over a ledger.
type Handlers struct {
	ledger *ledger.Ledger
	loc    *time.Location
}

// NewHandlers returns handlers bound to l. loc is the calendar used for
// "today".
func NewHandlers(l *ledger.Ledger, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{ledger: l, loc: loc}
}

// Register mounts every endpoint under /api/v1 on r.
func (h *Handlers) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	v1.GET("/healthz", h.health)

	trackers := v1.Group("/trackers")
	trackers.GET("", h.listTrackers)
	trackers.POST("", h.createTracker)
	trackers.GET("/:id", h.getTracker)
	trackers.PATCH("/:id", h.renameTracker)
	trackers.DELETE("/:id", h.deleteTracker)
	trackers.POST("/:id/lines", h.createLine)

	lines := v1.Group("/lines")
	lines.GET("", h.listLines)
	lines.GET("/:id", h.getLine)
	lines.PATCH("/:id", h.renameLine)
	lines.DELETE("/:id", h.deleteLine)
	lines.POST("/:id/start", h.startLine)
	lines.POST("/:id/stop", h.stopLine)
	lines.POST("/:id/resume", h.resumeLine)

	sessions := v1.Group("/sessions")
	sessions.GET("/open", h.openSessions)
	sessions.GET("/today", h.todaySessions)
	sessions.POST("/stop-all", h.stopAll)

	v1.POST("/admin/truncate", h.truncate)
}

type trackerView struct {
	models.Tracker
	Entries int   `json:"entries"`
	TotalMs int64 `json:"total_ms"`
	Running bool  `json:"running"`
}

type sessionView struct {
	models.Session
	ElapsedMs int64 `json:"elapsed_ms"`
}

type labelReq struct {
	Label string `json:"label"`
}

type lineReq struct {
	Description string `json:"description"`
	Start       *bool  `json:"start,omitempty"` // defaults to true
}

func (h *Handlers) trackerView(t models.Tracker, now time.Time) trackerView {
	return trackerView{
		Tracker: t,
		Entries: ledger.EntryCount(t),
		TotalMs: ledger.TrackerTotal(t, now, true).Milliseconds(),
		Running: t.ActiveLine() != nil,
	}
}

func (h *Handlers) health(c *gin.Context) {
	JSON(c, CodeOK, map[string]string{"status": "ok"})
}

func (h *Handlers) listTrackers(c *gin.Context) {
	trackers, err := h.ledger.GetTrackers(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}

	now := h.ledger.Now()
	views := make([]trackerView, 0, len(trackers))
	for _, t := range trackers {
		views = append(views, h.trackerView(t, now))
	}
	JSON(c, CodeOK, views)
}

func (h *Handlers) createTracker(c *gin.Context) {
	var req labelReq
	if err := decode(c, &req); err != nil {
		Error(c, err)
		return
	}

	tracker, err := h.ledger.CreateTracker(c.Request.Context(), req.Label)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, h.trackerView(*tracker, h.ledger.Now()))
}

func (h *Handlers) getTracker(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}

	tracker, err := h.ledger.GetTracker(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, h.trackerView(*tracker, h.ledger.Now()))
}

func (h *Handlers) renameTracker(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}
	var req labelReq
	if err := decode(c, &req); err != nil {
		Error(c, err)
		return
	}

	tracker, err := h.ledger.RenameTracker(c.Request.Context(), id, req.Label)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, h.trackerView(*tracker, h.ledger.Now()))
}

func (h *Handlers) deleteTracker(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}

	if err := h.ledger.DeleteTracker(c.Request.Context(), id); err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, nil)
}

func (h *Handlers) createLine(c *gin.Context) {
	trackerID, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}
	var req lineReq
	if err := decode(c, &req); err != nil {
		Error(c, err)
		return
	}

	var line *models.Line
	if req.Start == nil || *req.Start {
		line, err = h.ledger.CreateLineAndStart(c.Request.Context(), trackerID, req.Description)
	} else {
		line, err = h.ledger.CreateLine(c.Request.Context(), trackerID, req.Description)
	}
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, line)
}

func (h *Handlers) listLines(c *gin.Context) {
	lines, err := h.ledger.GetLines(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, lines)
}

func (h *Handlers) getLine(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}

	line, err := h.ledger.GetLine(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, line)
}

func (h *Handlers) renameLine(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}
	var req lineReq
	if err := decode(c, &req); err != nil {
		Error(c, err)
		return
	}

	line, err := h.ledger.RenameLine(c.Request.Context(), id, req.Description)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, line)
}

func (h *Handlers) deleteLine(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}

	if err := h.ledger.DeleteLine(c.Request.Context(), id); err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, nil)
}

func (h *Handlers) startLine(c *gin.Context) {
	h.sessionOp(c, h.ledger.StartSession)
}

func (h *Handlers) stopLine(c *gin.Context) {
	h.sessionOp(c, h.ledger.StopSession)
}

func (h *Handlers) resumeLine(c *gin.Context) {
	h.sessionOp(c, h.ledger.ResumeSession)
}

type sessionFunc func(ctx context.Context, lineID uint) (*models.Session, error)

func (h *Handlers) sessionOp(c *gin.Context, op sessionFunc) {
	id, err := pathID(c)
	if err != nil {
		Error(c, err)
		return
	}

	session, err := op(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, sessionView{
		Session:   *session,
		ElapsedMs: session.Elapsed(h.ledger.Now()).Milliseconds(),
	})
}

func (h *Handlers) openSessions(c *gin.Context) {
	sessions, err := h.ledger.OpenSessions(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, h.sessionViews(sessions))
}

func (h *Handlers) todaySessions(c *gin.Context) {
	sessions, err := h.ledger.TodaySessions(c.Request.Context(), h.loc)
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, h.sessionViews(sessions))
}

func (h *Handlers) sessionViews(sessions []models.Session) []sessionView {
	now := h.ledger.Now()
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{Session: s, ElapsedMs: s.Elapsed(now).Milliseconds()})
	}
	return views
}

func (h *Handlers) stopAll(c *gin.Context) {
	closed, err := h.ledger.StopAllOpenSessions(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, map[string]any{
		"closed":   len(closed),
		"sessions": h.sessionViews(closed),
	})
}

func (h *Handlers) truncate(c *gin.Context) {
	if err := h.ledger.TruncateAll(c.Request.Context()); err != nil {
		Error(c, err)
		return
	}
	JSON(c, CodeOK, nil)
}

func pathID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return uint(id), nil
}

// decode binds an optional JSON body; an empty body leaves v untouched.
func decode(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err)
	}
	return nil
}

func noRoute(c *gin.Context) {
	Error(c, fmt.Errorf("%w: %s %s", errNoRoute, c.Request.Method, c.Request.URL.Path))
}
