package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/auth"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	issuer *auth.TokenIssuer
	audit  audit.Recorder
	log    logrus.FieldLogger
}

func NewAuthHandler(db *gorm.DB, issuer *auth.TokenIssuer, recorder audit.Recorder, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{db: db, issuer: issuer, audit: recorder, log: log}
}

// --------- Requests ---------

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) ChurchAdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var admin models.ChurchAdmin
	err := h.db.WithContext(c.Request.Context()).
		Preload("Church").
		Where("username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).
		First(&admin).Error
	if err != nil {
		if !isNotFound(err) {
			h.log.WithError(err).Error("church admin lookup failed")
			httperr.Internal(c, "internal_error", "Login failed")
			return
		}
		auth.BurnPasswordCheck(req.Password)
		httperr.Unauthorized(c, "invalid_credentials", "Invalid credentials")
		return
	}

	if !auth.CheckPassword(admin.PasswordHash, req.Password) {
		httperr.Unauthorized(c, "invalid_credentials", "Invalid credentials")
		return
	}

	token, err := h.issuer.Issue(auth.Principal{
		AdminID:  admin.ID,
		ChurchID: uintPtr(admin.ChurchID),
		Username: admin.Username,
	})
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Login failed")
		return
	}

	h.audit.Dispatch(audit.Event{
		ChurchID: uintPtr(admin.ChurchID),
		Actor:    admin.Username,
		Action:   audit.ActionLogin,
		Table:    "church_admins",
		RecordID: uintPtr(admin.ID),
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{
		"token": token,
		"admin": gin.H{
			"id":          admin.ID,
			"username":    admin.Username,
			"full_name":   admin.FullName,
			"email":       admin.Email,
			"church_id":   admin.ChurchID,
			"church_name": admin.Church.Name,
			"church_slug": admin.Church.Slug,
		},
	})
}

func (h *AuthHandler) SuperAdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var admin models.SuperAdmin
	err := h.db.WithContext(c.Request.Context()).
		Where("username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).
		First(&admin).Error
	if err != nil {
		if !isNotFound(err) {
			h.log.WithError(err).Error("super admin lookup failed")
			httperr.Internal(c, "internal_error", "Login failed")
			return
		}
		auth.BurnPasswordCheck(req.Password)
		httperr.Unauthorized(c, "invalid_credentials", "Invalid credentials")
		return
	}

	if !auth.CheckPassword(admin.PasswordHash, req.Password) {
		httperr.Unauthorized(c, "invalid_credentials", "Invalid credentials")
		return
	}

	token, err := h.issuer.Issue(auth.Principal{
		AdminID:    admin.ID,
		Username:   admin.Username,
		SuperAdmin: true,
	})
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Login failed")
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    admin.Username,
		Action:   audit.ActionLogin,
		Table:    "super_admins",
		RecordID: uintPtr(admin.ID),
		IP:       c.ClientIP(),
	})

	httpresp.OK(c, gin.H{
		"token": token,
		"admin": gin.H{
			"id":             admin.ID,
			"username":       admin.Username,
			"full_name":      admin.FullName,
			"email":          admin.Email,
			"is_super_admin": true,
		},
	})
}
