package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/httpresp"
	"github.com/BruksfildServices01/church-platform/internal/models"
	ucBroadcast "github.com/BruksfildServices01/church-platform/internal/usecase/broadcast"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type SMSHandler struct {
	db    *gorm.DB
	send  *ucBroadcast.SendBroadcast
	logs  *ucBroadcast.ListLogs
	stats *ucBroadcast.GetStats
	log   logrus.FieldLogger
}

func NewSMSHandler(
	db *gorm.DB,
	send *ucBroadcast.SendBroadcast,
	logs *ucBroadcast.ListLogs,
	stats *ucBroadcast.GetStats,
	log logrus.FieldLogger,
) *SMSHandler {
	return &SMSHandler{db: db, send: send, logs: logs, stats: stats, log: log}
}

type SendSMSRequest struct {
	MemberIDs []uint `json:"member_ids"`
	Message   string `json:"message"`
	ChurchID  *uint  `json:"church_id"`
}

type SendSMSResponse struct {
	Message   string `json:"message"`
	LogID     uint   `json:"log_id"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Cost      string `json:"cost"`
	MessageID string `json:"message_id,omitempty"`
	Sender    string `json:"sender"`
	Provider  string `json:"provider"`
}

type providerFailedResponse struct {
	httperr.HTTPError
	LogID  uint `json:"log_id"`
	Sent   int  `json:"sent"`
	Failed int  `json:"failed"`
}

////////////////////////////////////////////////////////
// SEND
////////////////////////////////////////////////////////

func (h *SMSHandler) Send(c *gin.Context) {
	p := principal(c)

	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	scope := requestScope(c)
	if req.ChurchID != nil {
		scope = scope.Narrow(*req.ChurchID)
	}

	res, err := h.send.Execute(c.Request.Context(), ucBroadcast.SendInput{
		Scope:     scope,
		MemberIDs: req.MemberIDs,
		Message:   req.Message,
		Actor:     p.Username,
		IP:        c.ClientIP(),
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoRecipients):
		httperr.BadRequest(c, err.Error(), "No recipients selected")
		return
	case errors.Is(err, domain.ErrEmptyMessage):
		httperr.BadRequest(c, err.Error(), "Message must not be empty")
		return
	case errors.Is(err, domain.ErrProviderUnavailable):
		httperr.Unavailable(c, err.Error(), "SMS service not configured")
		return
	case errors.Is(err, domain.ErrNoEligibleRecipients):
		httperr.BadRequest(c, err.Error(), "No active members with SMS consent among the selected recipients")
		return
	case errors.Is(err, domain.ErrProviderFailed):
		c.AbortWithStatusJSON(http.StatusBadGateway, providerFailedResponse{
			HTTPError: httperr.HTTPError{Code: err.Error(), Message: "The SMS provider rejected the broadcast"},
			LogID:     res.LogID,
			Sent:      res.Sent,
			Failed:    res.Failed,
		})
		return
	default:
		h.log.WithError(err).Error("sms broadcast failed")
		httperr.Internal(c, "sms_send_failed", "Failed to send SMS")
		return
	}

	httpresp.OK(c, SendSMSResponse{
		Message:   smsSummary(res),
		LogID:     res.LogID,
		Sent:      res.Sent,
		Failed:    res.Failed,
		Cost:      res.Cost,
		MessageID: res.MessageID,
		Sender:    res.Sender,
		Provider:  res.Provider,
	})
}

func smsSummary(res *ucBroadcast.Result) string {
	if res.Failed == 0 {
		return "SMS sent from \"" + res.Sender + "\" to " + strconv.Itoa(res.Sent) + " members"
	}
	return "SMS sent to " + strconv.Itoa(res.Sent) + " members, " + strconv.Itoa(res.Failed) + " failed"
}

////////////////////////////////////////////////////////
// HISTORY
////////////////////////////////////////////////////////

func (h *SMSHandler) Logs(c *gin.Context) {
	page, limit, offset := httpresp.Pagination(c, 50, 200)

	logs, total, err := h.logs.Execute(c.Request.Context(), requestScope(c), limit, offset)
	if err != nil {
		h.log.WithError(err).Error("list sms logs failed")
		httperr.Internal(c, "failed_to_list_sms_logs", "Could not load SMS logs")
		return
	}
	httpresp.Page(c, page, limit, total, logs)
}

func (h *SMSHandler) Stats(c *gin.Context) {
	scope := requestScope(c)

	stats, err := h.stats.Execute(c.Request.Context(), scope, churchTimezone(h.db.WithContext(c.Request.Context()), scope))
	if err != nil {
		h.log.WithError(err).Error("sms stats failed")
		httperr.Internal(c, "failed_to_load_sms_stats", "Could not load SMS stats")
		return
	}
	httpresp.OK(c, gin.H{
		"total_sent": stats.TotalSent,
		"this_month": stats.ThisMonth,
		"total_cost": stats.TotalCost.StringFixed(2),
	})
}

// Members lists who can currently receive broadcasts.
func (h *SMSHandler) Members(c *gin.Context) {
	members := []models.Member{}
	if err := h.db.WithContext(c.Request.Context()).
		Select("id", "church_id", "full_name", "phone_number").
		Scopes(requestScope(c).Apply("church_id")).
		Where("is_active = ? AND sms_consent = ?", true, true).
		Order("full_name ASC").
		Find(&members).Error; err != nil {
		h.log.WithError(err).Error("list sms members failed")
		httperr.Internal(c, "failed_to_list_members", "Could not load members")
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, m := range members {
		out = append(out, gin.H{
			"id":           m.ID,
			"church_id":    m.ChurchID,
			"full_name":    m.FullName,
			"phone_number": m.PhoneNumber,
		})
	}
	httpresp.OK(c, out)
}
