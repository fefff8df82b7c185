package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/church-platform/internal/httpresp"
)

type HealthHandler struct {
	service    string
	provider   string
	smsEnabled bool
}

func NewHealthHandler(service, provider string, smsEnabled bool) *HealthHandler {
	return &HealthHandler{service: service, provider: provider, smsEnabled: smsEnabled}
}

func (h *HealthHandler) Health(c *gin.Context) {
	httpresp.OK(c, gin.H{
		"status":       "ok",
		"service":      h.service,
		"sms_provider": h.provider,
		"sms_enabled":  h.smsEnabled,
	})
}
