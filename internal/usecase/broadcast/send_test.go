package broadcast

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/infra/repository"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
	"github.com/BruksfildServices01/church-platform/internal/testutil"
)

// ======================================================
// Fakes
// ======================================================

type fakeProvider struct {
	mu    sync.Mutex
	calls [][]domain.Recipient
	err   error
	fail  map[uint]string
}

func (p *fakeProvider) Name() string   { return "fake" }
func (p *fakeProvider) Sender() string { return "CHURCH" }

func (p *fakeProvider) Send(_ context.Context, rs []domain.Recipient, _ string) ([]domain.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, rs)
	if p.err != nil {
		return nil, p.err
	}
	out := make([]domain.Outcome, 0, len(rs))
	for _, r := range rs {
		if reason, ok := p.fail[r.MemberID]; ok {
			out = append(out, domain.Failed(r.MemberID, reason))
			continue
		}
		out = append(out, domain.Sent(r.MemberID, "batch-1"))
	}
	return out, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *fakeRecorder) Dispatch(ev audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// untouchable fails the test on any repository access.
type untouchable struct{ t *testing.T }

func (u untouchable) ResolveEligible(context.Context, tenant.Scope, []uint) ([]models.Member, error) {
	u.t.Fatal("repository must not be used")
	return nil, nil
}
func (u untouchable) RecordBroadcast(context.Context, *models.SMSLog, []models.SMSRecipient) error {
	u.t.Fatal("repository must not be used")
	return nil
}
func (u untouchable) ListLogs(context.Context, tenant.Scope, int, int) ([]models.SMSLog, int64, error) {
	u.t.Fatal("repository must not be used")
	return nil, 0, nil
}
func (u untouchable) Stats(context.Context, tenant.Scope, time.Time) (domain.Stats, error) {
	u.t.Fatal("repository must not be used")
	return domain.Stats{}, nil
}

type fixture struct {
	db       *gorm.DB
	church   models.Church
	provider *fakeProvider
	recorder *fakeRecorder
	uc       *SendBroadcast
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupSQLiteTestDB(t)
	log, _ := test.NewNullLogger()
	policy, err := domain.NewCostPolicy(domain.DefaultRate, "NOK", "attempted")
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		church:   testutil.SeedChurch(t, db, "oslo"),
		provider: &fakeProvider{},
		recorder: &fakeRecorder{},
	}
	f.uc = NewSendBroadcast(repository.NewBroadcastGormRepository(db), f.provider, policy, "47", f.recorder, log)
	return f
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// ======================================================
// Tests
// ======================================================

func TestSend_SkipsMemberWithoutConsent(t *testing.T) {
	f := newFixture(t)
	m1 := testutil.SeedMember(t, f.db, f.church.ID, "Abebe", "+47 900 00 001", true, true)
	m2 := testutil.SeedMember(t, f.db, f.church.ID, "Almaz", "+4790000002", false, true)
	m3 := testutil.SeedMember(t, f.db, f.church.ID, "Dawit", "90000003", true, true)

	res, err := f.uc.Execute(context.Background(), SendInput{
		Scope:     tenant.ForChurch(f.church.ID),
		MemberIDs: []uint{m1.ID, m2.ID, m3.ID},
		Message:   "  Service at 10  ",
		Actor:     "kari",
		IP:        "10.0.0.1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, "0.37 NOK", res.Cost)
	assert.Equal(t, "batch-1", res.MessageID)
	assert.Equal(t, "CHURCH", res.Sender)
	assert.NotZero(t, res.LogID)

	require.Len(t, f.provider.calls, 1)
	assert.Equal(t, []domain.Recipient{
		{MemberID: m1.ID, Phone: "+4790000001"},
		{MemberID: m3.ID, Phone: "+4790000003"},
	}, f.provider.calls[0])

	var log models.SMSLog
	require.NoError(t, f.db.Preload("Recipients").First(&log, res.LogID).Error)
	assert.Equal(t, "Service at 10", log.Message)
	assert.Equal(t, 2, log.RecipientCount)
	assert.Equal(t, "kari", log.SentBy)
	assert.Len(t, log.Recipients, 2)
	assert.Equal(t, int64(1), f.count(t, &models.SMSLog{}))

	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, audit.ActionSMSSend, f.recorder.events[0].Action)
	assert.Equal(t, res.LogID, *f.recorder.events[0].RecordID)
}

func TestSend_RecordsEveryAttemptedRecipient(t *testing.T) {
	f := newFixture(t)
	var ids []uint
	for _, phone := range []string{"+4790000001", "+4790000002", "abc", "+4790000004"} {
		ids = append(ids, testutil.SeedMember(t, f.db, f.church.ID, "M "+phone, phone, true, true).ID)
	}
	f.provider.fail = map[uint]string{ids[1]: "rejected"}

	res, err := f.uc.Execute(context.Background(), SendInput{
		Scope:     tenant.ForChurch(f.church.ID),
		MemberIDs: append(ids, ids[0]),
		Message:   "hi",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, res.Attempted, res.Sent+res.Failed)
	assert.Equal(t, "0.74 NOK", res.Cost)

	require.Len(t, f.provider.calls, 1)
	assert.Len(t, f.provider.calls[0], 3)

	assert.Equal(t, int64(1), f.count(t, &models.SMSLog{}))
	assert.Equal(t, int64(4), f.count(t, &models.SMSRecipient{}))

	var invalid models.SMSRecipient
	require.NoError(t, f.db.Where("member_id = ?", ids[2]).First(&invalid).Error)
	assert.Equal(t, "failed", invalid.Status)
	assert.Equal(t, domain.ReasonInvalidPhone, invalid.ErrorReason)
}

func TestSend_NoEligibleRecipients(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMember(t, f.db, f.church.ID, "Almaz", "+4790000002", false, true)
	other := testutil.SeedChurch(t, f.db, "bergen")
	foreign := testutil.SeedMember(t, f.db, other.ID, "Hana", "+4790000009", true, true)

	_, err := f.uc.Execute(context.Background(), SendInput{
		Scope:     tenant.ForChurch(f.church.ID),
		MemberIDs: []uint{m.ID, foreign.ID, 999},
		Message:   "hi",
	})
	assert.ErrorIs(t, err, domain.ErrNoEligibleRecipients)
	assert.Empty(t, f.provider.calls)
	assert.Zero(t, f.count(t, &models.SMSLog{}))
	assert.Zero(t, f.count(t, &models.SMSRecipient{}))
	assert.Empty(t, f.recorder.events)
}

func TestSend_SoftDeletedMemberDropsOutButHistoryStays(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMember(t, f.db, f.church.ID, "Abebe", "+4790000001", true, true)
	in := SendInput{Scope: tenant.ForChurch(f.church.ID), MemberIDs: []uint{m.ID}, Message: "first"}

	_, err := f.uc.Execute(context.Background(), in)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Member{}).Where("id = ?", m.ID).Update("is_active", false).Error)

	in.Message = "second"
	_, err = f.uc.Execute(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNoEligibleRecipients)
	assert.Equal(t, int64(1), f.count(t, &models.SMSRecipient{}))
}

func TestSend_ProviderFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	m1 := testutil.SeedMember(t, f.db, f.church.ID, "Abebe", "+4790000001", true, true)
	m2 := testutil.SeedMember(t, f.db, f.church.ID, "Almaz", "+4790000002", true, true)
	f.provider.err = errors.New("bird api error: status 401")

	res, err := f.uc.Execute(context.Background(), SendInput{
		Scope:     tenant.ForChurch(f.church.ID),
		MemberIDs: []uint{m1.ID, m2.ID},
		Message:   "hi",
	})
	assert.ErrorIs(t, err, domain.ErrProviderFailed)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, "0.37 NOK", res.Cost)

	var rows []models.SMSRecipient
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "failed", r.Status)
		assert.Contains(t, r.ErrorReason, "status 401")
	}
}

func TestSend_LongProviderErrorKeepsValidUTF8(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMember(t, f.db, f.church.ID, "Abebe", "+4790000001", true, true)
	f.provider.err = errors.New(strings.Repeat("a", 254) + "ø" + " gateway text")

	_, err := f.uc.Execute(context.Background(), SendInput{
		Scope:     tenant.ForChurch(f.church.ID),
		MemberIDs: []uint{m.ID},
		Message:   "hi",
	})
	assert.ErrorIs(t, err, domain.ErrProviderFailed)

	var row models.SMSRecipient
	require.NoError(t, f.db.First(&row).Error)
	assert.True(t, utf8.ValidString(row.ErrorReason))
	assert.Equal(t, strings.Repeat("a", 254), row.ErrorReason)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := strings.Repeat("a", 254) + "ø" + "rest"

	out := truncate(s, 255)
	assert.True(t, utf8.ValidString(out))
	assert.Len(t, out, 254)

	assert.Equal(t, strings.Repeat("a", 254)+"ø", truncate(s, 256))
	assert.Equal(t, "short", truncate("short", 255))
}

func TestSend_ValidationBeforeRepository(t *testing.T) {
	log, _ := test.NewNullLogger()
	policy, _ := domain.NewCostPolicy(domain.DefaultRate, "NOK", "")
	scope := tenant.ForChurch(1)

	uc := NewSendBroadcast(untouchable{t}, &fakeProvider{}, policy, "47", &fakeRecorder{}, log)

	_, err := uc.Execute(context.Background(), SendInput{Scope: scope, Message: "hi"})
	assert.ErrorIs(t, err, domain.ErrNoRecipients)

	_, err = uc.Execute(context.Background(), SendInput{Scope: scope, MemberIDs: []uint{1}, Message: " \n\t"})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	disabled := NewSendBroadcast(untouchable{t}, nil, policy, "47", &fakeRecorder{}, log)
	assert.False(t, disabled.Enabled())
	_, err = disabled.Execute(context.Background(), SendInput{Scope: scope, MemberIDs: []uint{1}, Message: "hi"})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestSend_DetachesFromCancelledRequest(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMember(t, f.db, f.church.ID, "Abebe", "+4790000001", true, true)

	ctx, cancel := context.WithCancel(context.Background())
	f.provider.err = nil
	f.uc.provider = cancelling{fakeProvider: f.provider, cancel: cancel}

	res, err := f.uc.Execute(ctx, SendInput{Scope: tenant.ForChurch(f.church.ID), MemberIDs: []uint{m.ID}, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, int64(1), f.count(t, &models.SMSLog{}))
}

// cancelling cancels the caller's context while the provider is working.
type cancelling struct {
	*fakeProvider
	cancel context.CancelFunc
}

func (c cancelling) Send(ctx context.Context, rs []domain.Recipient, body string) ([]domain.Outcome, error) {
	c.cancel()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return c.fakeProvider.Send(ctx, rs, body)
}

func TestStats_UsesRepository(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMember(t, f.db, f.church.ID, "Abebe", "+4790000001", true, true)
	_, err := f.uc.Execute(context.Background(), SendInput{Scope: tenant.ForChurch(f.church.ID), MemberIDs: []uint{m.ID}, Message: "hi"})
	require.NoError(t, err)

	repo := repository.NewBroadcastGormRepository(f.db)
	stats, err := NewGetStats(repo).Execute(context.Background(), tenant.ForChurch(f.church.ID), "Europe/Oslo")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSent)
	assert.Equal(t, 1, stats.ThisMonth)
	assert.Equal(t, "0.18", stats.TotalCost.StringFixed(2))

	logs, total, err := NewListLogs(repo).Execute(context.Background(), tenant.ForChurch(f.church.ID), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	require.Len(t, logs[0].Recipients, 1)
	assert.Equal(t, "Abebe", logs[0].Recipients[0].MemberName)
}
