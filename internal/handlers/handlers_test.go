package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/auth"
	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/infra/repository"
	"github.com/BruksfildServices01/church-platform/internal/middleware"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/testutil"
	"github.com/BruksfildServices01/church-platform/internal/timezone"
	ucBroadcast "github.com/BruksfildServices01/church-platform/internal/usecase/broadcast"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ======================================================
// Helpers
// ======================================================

type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *fakeRecorder) Dispatch(ev audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *fakeRecorder) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

type fakeProvider struct{}

func (fakeProvider) Name() string   { return "fake" }
func (fakeProvider) Sender() string { return "CHURCH" }

func (fakeProvider) Send(_ context.Context, rs []domain.Recipient, _ string) ([]domain.Outcome, error) {
	out := make([]domain.Outcome, 0, len(rs))
	for _, r := range rs {
		out = append(out, domain.Sent(r.MemberID, "msg-1"))
	}
	return out, nil
}

func churchAdmin(churchID uint) auth.Principal {
	return auth.Principal{AdminID: 1, ChurchID: &churchID, Username: "kari"}
}

func superAdmin() auth.Principal {
	return auth.Principal{AdminID: 1, Username: "root", SuperAdmin: true}
}

func as(p auth.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextPrincipal, p)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ======================================================
// Members
// ======================================================

func TestMemberCreate_BadNationalIDNeverTouchesDB(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	rec := &fakeRecorder{}
	h := NewMemberHandler(db, rec, log)

	r := gin.New()
	r.POST("/members", as(churchAdmin(1)), h.Create)

	w := doJSON(r, http.MethodPost, "/members", gin.H{
		"full_name":    "Abebe Kebede",
		"phone_number": "90000001",
		"national_id":  "1234",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_national_id", decode(t, w)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, rec.all())
}

func TestMemberCreate_DuplicatePhoneRejected(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	testutil.SeedMember(t, db, church.ID, "Existing", "90000001", true, true)

	log, _ := test.NewNullLogger()
	rec := &fakeRecorder{}
	h := NewMemberHandler(db, rec, log)

	r := gin.New()
	r.POST("/members", as(churchAdmin(church.ID)), h.Create)

	w := doJSON(r, http.MethodPost, "/members", gin.H{
		"full_name":    "Newcomer",
		"phone_number": " 90000001 ",
		"national_id":  "01017012345",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "phone_already_exists", decode(t, w)["error"])

	var n int64
	require.NoError(t, db.Model(&models.Member{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, rec.all())

	// same number in another church is fine
	other := testutil.SeedChurch(t, db, "bergen")
	r2 := gin.New()
	r2.POST("/members", as(churchAdmin(other.ID)), h.Create)

	w = doJSON(r2, http.MethodPost, "/members", gin.H{
		"full_name":    "Newcomer",
		"phone_number": "90000001",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, audit.ActionCreate, rec.all()[0].Action)
}

func TestMemberCreate_SuperAdminNeedsChurch(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	log, _ := test.NewNullLogger()
	h := NewMemberHandler(db, &fakeRecorder{}, log)

	r := gin.New()
	r.POST("/members", as(superAdmin()), h.Create)

	w := doJSON(r, http.MethodPost, "/members", gin.H{"full_name": "A", "phone_number": "90000001"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "church_id_required", decode(t, w)["error"])
}

func TestMemberGet_OtherChurchIsHidden(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	a := testutil.SeedChurch(t, db, "a")
	b := testutil.SeedChurch(t, db, "b")
	m := testutil.SeedMember(t, db, b.ID, "Other", "90000002", true, true)

	log, _ := test.NewNullLogger()
	h := NewMemberHandler(db, &fakeRecorder{}, log)

	r := gin.New()
	r.GET("/members/:id", as(churchAdmin(a.ID)), h.Get)

	w := doJSON(r, http.MethodGet, "/members/"+itoa(m.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMemberDelete_AuditKeepsSnapshot(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	m := testutil.SeedMember(t, db, church.ID, "Hanna", "90000003", true, true)

	log, _ := test.NewNullLogger()
	rec := &fakeRecorder{}
	h := NewMemberHandler(db, rec, log)

	r := gin.New()
	r.DELETE("/members/:id", as(churchAdmin(church.ID)), h.Delete)

	w := doJSON(r, http.MethodDelete, "/members/"+itoa(m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Member
	require.NoError(t, db.First(&stored, m.ID).Error)
	assert.False(t, stored.IsActive)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionDelete, events[0].Action)
	require.NotNil(t, events[0].Old)
	old, ok := events[0].Old.(models.Member)
	require.True(t, ok, "old snapshot is %T", events[0].Old)
	assert.Equal(t, "Hanna", old.FullName)
	assert.True(t, old.IsActive)
}

// ======================================================
// Kontingent
// ======================================================

func TestKontingentUpdate_UpsertsSameRow(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	member := models.Member{ID: 7, ChurchID: church.ID, FullName: "Tsion", PhoneNumber: "90000007", SMSConsent: true, IsActive: true}
	require.NoError(t, db.Create(&member).Error)

	log, _ := test.NewNullLogger()
	rec := &fakeRecorder{}
	h := NewKontingentHandler(db, rec, log)

	r := gin.New()
	r.POST("/kontingent/update", as(churchAdmin(church.ID)), h.Update)

	before := timezone.NowIn(church.Timezone).Format("2006-01-02")
	w := doJSON(r, http.MethodPost, "/kontingent/update", gin.H{
		"memberId": 7, "month": "2024-03", "paid": true, "amount": "200",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	after := timezone.NowIn(church.Timezone).Format("2006-01-02")

	var first models.KontingentPayment
	require.NoError(t, db.Where("member_id = ? AND payment_month = ?", 7, "2024-03").First(&first).Error)
	assert.True(t, first.Paid)
	require.NotNil(t, first.PaymentDate)
	// stored as the church's calendar day, not shifted by UTC conversion
	assert.Contains(t, []string{before, after}, first.PaymentDate.UTC().Format("2006-01-02"))
	require.True(t, first.Amount.Valid)
	assert.True(t, first.Amount.Decimal.Equal(decimal.NewFromInt(200)))

	w = doJSON(r, http.MethodPost, "/kontingent/update", gin.H{
		"memberId": 7, "month": "2024-03", "paid": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rows []models.KontingentPayment
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.False(t, rows[0].Paid)
	assert.Nil(t, rows[0].PaymentDate)

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionKontingentUpdate, events[1].Action)
	assert.NotNil(t, events[1].Old)
}

func TestKontingentUpdate_RejectsBadMonthAndForeignMember(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	a := testutil.SeedChurch(t, db, "a")
	b := testutil.SeedChurch(t, db, "b")
	m := testutil.SeedMember(t, db, b.ID, "Other", "90000002", true, true)

	log, _ := test.NewNullLogger()
	h := NewKontingentHandler(db, &fakeRecorder{}, log)

	r := gin.New()
	r.POST("/kontingent/update", as(churchAdmin(a.ID)), h.Update)

	w := doJSON(r, http.MethodPost, "/kontingent/update", gin.H{"memberId": m.ID, "month": "2024-13", "paid": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_month", decode(t, w)["error"])

	w = doJSON(r, http.MethodPost, "/kontingent/update", gin.H{"memberId": m.ID, "month": "2024-03", "paid": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var n int64
	require.NoError(t, db.Model(&models.KontingentPayment{}).Count(&n).Error)
	assert.Zero(t, n)
}

// ======================================================
// SMS
// ======================================================

func smsRouter(t *testing.T, db *gorm.DB, provider domain.Provider, p auth.Principal) *gin.Engine {
	t.Helper()

	log, _ := test.NewNullLogger()
	cost, err := domain.NewCostPolicy(decimal.RequireFromString("0.184"), "NOK", "attempted")
	require.NoError(t, err)

	repo := repository.NewBroadcastGormRepository(db)
	h := NewSMSHandler(
		db,
		ucBroadcast.NewSendBroadcast(repo, provider, cost, "47", &fakeRecorder{}, log),
		ucBroadcast.NewListLogs(repo),
		ucBroadcast.NewGetStats(repo),
		log,
	)

	r := gin.New()
	g := r.Group("/sms", as(p))
	g.POST("/send", h.Send)
	g.GET("/logs", h.Logs)
	g.GET("/stats", h.Stats)
	g.GET("/members", h.Members)
	return r
}

func TestSMSSend_NotConfigured(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	m := testutil.SeedMember(t, db, church.ID, "A", "90000001", true, true)

	r := smsRouter(t, db, nil, churchAdmin(church.ID))
	w := doJSON(r, http.MethodPost, "/sms/send", gin.H{"member_ids": []uint{m.ID}, "message": "Hi"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "sms_not_configured", decode(t, w)["error"])
}

func TestSMSSend_SkipsMembersWithoutConsent(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	m1 := testutil.SeedMember(t, db, church.ID, "A", "90000001", true, true)
	m2 := testutil.SeedMember(t, db, church.ID, "B", "90000002", false, true)
	m3 := testutil.SeedMember(t, db, church.ID, "C", "90000003", true, true)

	r := smsRouter(t, db, fakeProvider{}, churchAdmin(church.ID))
	w := doJSON(r, http.MethodPost, "/sms/send", gin.H{
		"member_ids": []uint{m1.ID, m2.ID, m3.ID},
		"message":    "Service moved to 11:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.EqualValues(t, 2, body["sent"])
	assert.EqualValues(t, 0, body["failed"])
	assert.Equal(t, "0.37 NOK", body["cost"])
	assert.Equal(t, "msg-1", body["message_id"])
	assert.Equal(t, "CHURCH", body["sender"])

	w = doJSON(r, http.MethodGet, "/sms/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = doJSON(r, http.MethodGet, "/sms/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Len(t, members, 2)
}

func TestSMSSend_ValidationErrors(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	m := testutil.SeedMember(t, db, church.ID, "A", "90000001", false, true)

	r := smsRouter(t, db, fakeProvider{}, churchAdmin(church.ID))

	cases := []struct {
		name string
		body gin.H
		code string
	}{
		{"no recipients", gin.H{"member_ids": []uint{}, "message": "Hi"}, "no_recipients"},
		{"blank message", gin.H{"member_ids": []uint{m.ID}, "message": "   "}, "empty_message"},
		{"nobody eligible", gin.H{"member_ids": []uint{m.ID}, "message": "Hi"}, "no_eligible_recipients"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/sms/send", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, decode(t, w)["error"])
		})
	}

	var n int64
	require.NoError(t, db.Model(&models.SMSLog{}).Count(&n).Error)
	assert.Zero(t, n)
}

// ======================================================
// Auth
// ======================================================

func TestChurchAdminLogin(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	church := testutil.SeedChurch(t, db, "oslo")
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.ChurchAdmin{
		ChurchID: church.ID, Username: "kari", PasswordHash: hash, IsActive: true,
	}).Error)

	log, _ := test.NewNullLogger()
	rec := &fakeRecorder{}
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	h := NewAuthHandler(db, issuer, rec, log)

	r := gin.New()
	r.POST("/login", h.ChurchAdminLogin)

	w := doJSON(r, http.MethodPost, "/login", gin.H{"username": "kari", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode(t, w)["error"])

	w = doJSON(r, http.MethodPost, "/login", gin.H{"username": "nobody", "password": "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode(t, w)["error"])

	w = doJSON(r, http.MethodPost, "/login", gin.H{"username": "kari", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)

	token, _ := decode(t, w)["token"].(string)
	p, err := issuer.Parse(token)
	require.NoError(t, err)
	require.NotNil(t, p.ChurchID)
	assert.Equal(t, church.ID, *p.ChurchID)
	assert.False(t, p.SuperAdmin)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLogin, events[0].Action)
}

// ======================================================
// Super admin
// ======================================================

func TestSuperAdmin_ChurchSlugMustBeUnique(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	testutil.SeedChurch(t, db, "oslo")

	log, _ := test.NewNullLogger()
	h := NewSuperAdminHandler(db, nil, 0, &fakeRecorder{}, log)

	r := gin.New()
	r.POST("/churches", as(superAdmin()), h.CreateChurch)
	r.GET("/churches", as(superAdmin()), h.ListChurches)

	w := doJSON(r, http.MethodPost, "/churches", gin.H{"name": "Dup", "slug": "Oslo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slug_already_exists", decode(t, w)["error"])

	w = doJSON(r, http.MethodPost, "/churches", gin.H{"name": "Bergen", "slug": "bergen"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["is_active"])

	w = doJSON(r, http.MethodGet, "/churches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestSuperAdmin_SiteSettingUpsert(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	log, _ := test.NewNullLogger()
	h := NewSuperAdminHandler(db, nil, 0, &fakeRecorder{}, log)

	r := gin.New()
	r.PUT("/site-settings", as(superAdmin()), h.UpdateSiteSetting)

	for _, v := range []string{"first", "second"} {
		w := doJSON(r, http.MethodPut, "/site-settings", gin.H{"setting_key": "site_title", "setting_value": v})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	var rows []models.SiteSetting
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "second", rows[0].SettingValue)
}

// ======================================================
// Audit logs
// ======================================================

func TestAuditLogs_ScopedToChurch(t *testing.T) {
	db := testutil.SetupSQLiteTestDB(t)
	a := testutil.SeedChurch(t, db, "a")
	b := testutil.SeedChurch(t, db, "b")

	logger := audit.New(db)
	ctx := context.Background()
	require.NoError(t, logger.Log(ctx, audit.Event{ChurchID: &a.ID, Actor: "kari", Action: audit.ActionCreate, Table: "members"}))
	require.NoError(t, logger.Log(ctx, audit.Event{ChurchID: &a.ID, Actor: "kari", Action: audit.ActionSMSSend, Table: "sms_logs"}))
	require.NoError(t, logger.Log(ctx, audit.Event{ChurchID: &b.ID, Actor: "ola", Action: audit.ActionCreate, Table: "members"}))

	log, _ := test.NewNullLogger()
	h := NewAuditLogsHandler(db, log)

	r := gin.New()
	r.GET("/church", as(churchAdmin(a.ID)), h.List)
	r.GET("/super", as(superAdmin()), h.List)

	w := doJSON(r, http.MethodGet, "/church", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = doJSON(r, http.MethodGet, "/church?action=SMS_SEND", nil)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// church admins cannot widen to another church
	w = doJSON(r, http.MethodGet, "/church?church_id="+itoa(b.ID), nil)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = doJSON(r, http.MethodGet, "/super", nil)
	assert.EqualValues(t, 3, decode(t, w)["total"])

	w = doJSON(r, http.MethodGet, "/super?church_id="+itoa(b.ID), nil)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
