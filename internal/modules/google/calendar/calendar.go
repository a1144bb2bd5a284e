// Package calendar creates, lists and deletes events on the signed-in user's
// primary Google calendar.
package calendar

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/pkg/googleauth"
	"github.com/smartwork/assistant/internal/pkg/response"
	"go.uber.org/zap"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	primaryCalendar    = "primary"
	defaultTimeZone    = "Asia/Seoul"
	defaultSummary     = "새로운 일정"
	defaultDescription = "스마트 비서가 생성한 일정입니다."
	maxListResults     = 50
)

// Calendar is the subset of the Calendar API the handler drives.
type Calendar interface {
	Insert(ctx context.Context, ev *calendarapi.Event) (*calendarapi.Event, error)
	List(ctx context.Context, timeMin, timeMax string) ([]*calendarapi.Event, error)
	Delete(ctx context.Context, eventID string) error
}

// Opener returns a Calendar acting as userID.
type Opener func(ctx context.Context, userID string) (Calendar, error)

// NewOpener opens the real Calendar API with the user's stored grant.
func NewOpener(vault *googleauth.Vault) Opener {
	return func(ctx context.Context, userID string) (Calendar, error) {
		ts, err := vault.TokenSource(ctx, userID)
		if err != nil {
			return nil, err
		}
		svc, err := calendarapi.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, err
		}
		return &apiCalendar{svc: svc}, nil
	}
}

type apiCalendar struct {
	svc *calendarapi.Service
}

func (a *apiCalendar) Insert(ctx context.Context, ev *calendarapi.Event) (*calendarapi.Event, error) {
	return a.svc.Events.Insert(primaryCalendar, ev).Context(ctx).Do()
}

func (a *apiCalendar) List(ctx context.Context, timeMin, timeMax string) ([]*calendarapi.Event, error) {
	call := a.svc.Events.List(primaryCalendar).
		TimeMin(timeMin).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxListResults).
		Context(ctx)
	if timeMax != "" {
		call = call.TimeMax(timeMax)
	}
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (a *apiCalendar) Delete(ctx context.Context, eventID string) error {
	return a.svc.Events.Delete(primaryCalendar, eventID).Context(ctx).Do()
}

// EventTime mirrors the Calendar API start/end shape; Date is set for
// all-day events.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type CreateEventDTO struct {
	Summary       string     `json:"summary"`
	Description   string     `json:"description"`
	StartDateTime string     `json:"startDateTime"`
	EndDateTime   string     `json:"endDateTime"`
	Location      string     `json:"location"`
	Start         *EventTime `json:"start"`
	End           *EventTime `json:"end"`
}

// Event builds the API resource. Explicit start/end win over the
// startDateTime/endDateTime pair; a missing end reuses the start.
func (d CreateEventDTO) Event() *calendarapi.Event {
	ev := &calendarapi.Event{
		Summary:     firstNonEmpty(d.Summary, defaultSummary),
		Description: firstNonEmpty(d.Description, defaultDescription),
		Location:    d.Location,
	}
	if d.Start != nil && d.End != nil {
		ev.Start = d.Start.api()
		ev.End = d.End.api()
		return ev
	}
	ev.Start = &calendarapi.EventDateTime{DateTime: d.StartDateTime, TimeZone: defaultTimeZone}
	ev.End = &calendarapi.EventDateTime{DateTime: firstNonEmpty(d.EndDateTime, d.StartDateTime), TimeZone: defaultTimeZone}
	return ev
}

func (t EventTime) api() *calendarapi.EventDateTime {
	return &calendarapi.EventDateTime{Date: t.Date, DateTime: t.DateTime, TimeZone: t.TimeZone}
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

type Handler struct {
	open Opener
	log  *zap.Logger
	now  func() time.Time
}

func NewHandler(open Opener, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{open: open, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/calendar", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.DELETE("", h.remove)
}

func (h *Handler) calendar(c *gin.Context) (Calendar, bool) {
	cal, err := h.open(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err, "Calendar auth required")
		return nil, false
	}
	return cal, true
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	if googleauth.NeedsReauth(err) {
		response.NeedAuth(c, "Calendar auth required")
		return
	}
	h.log.Warn("calendar request failed", zap.Error(err))
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	status := googleauth.StatusOf(err)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "code": status, "error": msg, "needAuth": false})
}

// POST /calendar
func (h *Handler) create(c *gin.Context) {
	var dto CreateEventDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if dto.StartDateTime == "" && (dto.Start == nil || dto.End == nil) {
		response.BadRequest(c, "startDateTime is required")
		return
	}
	cal, ok := h.calendar(c)
	if !ok {
		return
	}
	ev, err := cal.Insert(c.Request.Context(), dto.Event())
	if err != nil {
		h.fail(c, err, "Calendar API Error")
		return
	}
	response.Success(c, gin.H{"link": ev.HtmlLink, "id": ev.Id})
}

// GET /calendar?timeMin=&timeMax=
func (h *Handler) list(c *gin.Context) {
	timeMin := c.Query("timeMin")
	if timeMin == "" {
		timeMin = h.now().UTC().Format(time.RFC3339)
	}
	cal, ok := h.calendar(c)
	if !ok {
		return
	}
	events, err := cal.List(c.Request.Context(), timeMin, c.Query("timeMax"))
	if err != nil {
		h.fail(c, err, "Failed to fetch calendar events")
		return
	}
	if events == nil {
		events = []*calendarapi.Event{}
	}
	response.Success(c, gin.H{"events": events})
}

// DELETE /calendar?eventId=
func (h *Handler) remove(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		response.BadRequest(c, "Missing eventId")
		return
	}
	cal, ok := h.calendar(c)
	if !ok {
		return
	}
	if err := cal.Delete(c.Request.Context(), eventID); err != nil {
		h.fail(c, err, "Delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
