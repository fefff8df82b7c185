package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
)

type EventHandler struct {
	db    *gorm.DB
	audit audit.Recorder
	log   logrus.FieldLogger
}

func NewEventHandler(db *gorm.DB, recorder audit.Recorder, log logrus.FieldLogger) *EventHandler {
	return &EventHandler{db: db, audit: recorder, log: log}
}

type EventRequest struct {
	Title             string     `json:"title" binding:"required,max=255"`
	Description       string     `json:"description"`
	EventDate         time.Time  `json:"event_date" binding:"required"`
	EndDate           *time.Time `json:"end_date"`
	Location          string     `json:"location"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern"`
	IsPublished       *bool      `json:"is_published"`
}

func (r EventRequest) validEnd() bool {
	return r.EndDate == nil || !r.EndDate.Before(r.EventDate)
}

func (r EventRequest) apply(e *models.Event) {
	e.Title = r.Title
	e.Description = r.Description
	e.EventDate = r.EventDate
	e.EndDate = r.EndDate
	e.Location = r.Location
	e.IsRecurring = r.IsRecurring
	e.RecurrencePattern = r.RecurrencePattern
	if r.IsPublished != nil {
		e.IsPublished = *r.IsPublished
	}
}

func (h *EventHandler) List(c *gin.Context) {
	p := principal(c)

	events := []models.Event{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("church_id = ?", *p.ChurchID).
		Order("event_date DESC").
		Find(&events).Error; err != nil {
		h.log.WithError(err).Error("list events failed")
		httperr.Internal(c, "failed_to_list_events", "Could not load events")
		return
	}
	httpresp.OK(c, events)
}

func (h *EventHandler) Create(c *gin.Context) {
	p := principal(c)

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !req.validEnd() {
		httperr.BadRequest(c, "invalid_end_date", "end_date must not be before event_date")
		return
	}

	event := models.Event{
		ChurchID:    *p.ChurchID,
		CreatedBy:   uintPtr(p.AdminID),
		IsPublished: true,
	}
	req.apply(&event)

	if err := h.db.WithContext(c.Request.Context()).Create(&event).Error; err != nil {
		h.log.WithError(err).Error("create event failed")
		httperr.Internal(c, "failed_to_create_event", "Could not create event")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionCreate,
		Table:    "church_events",
		RecordID: uintPtr(event.ID),
		New:      event,
		IP:       c.ClientIP(),
	})

	httpresp.Created(c, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !req.validEnd() {
		httperr.BadRequest(c, "invalid_end_date", "end_date must not be before event_date")
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var event models.Event
	if err := db.Where("id = ? AND church_id = ?", id, *p.ChurchID).First(&event).Error; err != nil {
		httperr.NotFound(c, "event_not_found", "Event not found")
		return
	}
	old := event
	req.apply(&event)

	if err := db.Save(&event).Error; err != nil {
		h.log.WithError(err).Error("update event failed")
		httperr.Internal(c, "failed_to_update_event", "Could not update event")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionUpdate,
		Table:    "church_events",
		RecordID: uintPtr(event.ID),
		Old:      old,
		New:      event,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	p := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var event models.Event
	if err := db.Where("id = ? AND church_id = ?", id, *p.ChurchID).First(&event).Error; err != nil {
		httperr.NotFound(c, "event_not_found", "Event not found")
		return
	}
	if err := db.Delete(&event).Error; err != nil {
		h.log.WithError(err).Error("delete event failed")
		httperr.Internal(c, "failed_to_delete_event", "Could not delete event")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: p.ChurchID,
		Actor:    p.Username,
		Action:   audit.ActionDelete,
		Table:    "church_events",
		RecordID: uintPtr(event.ID),
		Old:      event,
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{"message": "Event deleted"})
}
