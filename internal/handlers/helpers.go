package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/auth"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/middleware"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
	"github.com/BruksfildServices01/church-platform/internal/timezone"
)

func principal(c *gin.Context) auth.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// requestScope is the caller's tenant scope. Super admins may narrow it with
// ?church_id=; church admins are always bound to their own church.
func requestScope(c *gin.Context) tenant.Scope {
	scope := principal(c).Scope()
	if id, err := strconv.ParseUint(c.Query("church_id"), 10, 64); err == nil {
		scope = scope.Narrow(uint(id))
	}
	return scope
}

// churchID returns the church bound to the caller, or false when the scope
// spans every church.
func churchID(c *gin.Context) (uint, bool) {
	scope := requestScope(c)
	if !scope.Bounded() {
		return 0, false
	}
	return *scope.ChurchID, true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Invalid id")
		return 0, false
	}
	return uint(id), true
}

func bindError(c *gin.Context, err error) {
	httperr.BadRequest(c, "invalid_request", err.Error())
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func uintPtr(v uint) *uint {
	return &v
}

// churchToday is today's date in the church's timezone.
func churchToday(db *gorm.DB, id uint) time.Time {
	var church models.Church
	tz := timezone.DefaultTimezone
	if err := db.Select("timezone").First(&church, id).Error; err == nil && church.Timezone != "" {
		tz = church.Timezone
	}
	return timezone.Date(timezone.NowIn(tz))
}

func churchTimezone(db *gorm.DB, scope tenant.Scope) string {
	if !scope.Bounded() {
		return timezone.DefaultTimezone
	}
	var church models.Church
	if err := db.Select("timezone").First(&church, *scope.ChurchID).Error; err != nil || church.Timezone == "" {
		return timezone.DefaultTimezone
	}
	return church.Timezone
}
