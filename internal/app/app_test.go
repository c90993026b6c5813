package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/membercast/internal/config"
	"github.com/unclebandit/membercast/internal/importer"
	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/queue"
	"github.com/unclebandit/membercast/internal/service"
	"github.com/unclebandit/membercast/internal/session"
	"github.com/unclebandit/membercast/internal/sms"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.DSN = ":memory:"
	cfg.SMS.Provider = "mock"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_WiresServices(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Members.Create(ctx, model.MemberInput{FirstName: "Anna", LastName: "Berg", Phone: "0701234567"})
	require.NoError(t, err)

	stats, err := a.Campaigns.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMembers)

	assert.IsType(t, &sms.Mock{}, a.Campaigns.Sender.Client)
	assert.NotNil(t, a.Translator)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_TwilioByDefault(t *testing.T) {
	cfg := testConfig(t)
	cfg.SMS.Provider = "twilio"
	a := newTestApp(t, cfg)
	assert.IsType(t, &sms.TwilioClient{}, a.Campaigns.Sender.Client)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestConnectQueue_InMemory(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	q, err := a.ConnectQueue(ctx)
	require.NoError(t, err)
	mem, ok := q.(*queue.InMemoryQueue)
	require.True(t, ok)
	assert.Same(t, q, a.Campaigns.Queue)

	_, err = a.Members.Create(ctx, model.MemberInput{FirstName: "Anna", LastName: "Berg", Phone: "0701234567"})
	require.NoError(t, err)
	c, err := a.Campaigns.CreateCampaign(ctx, service.CreateCampaignInput{Title: "Hello", Message: "Hello from the board"})
	require.NoError(t, err)

	require.NoError(t, a.Campaigns.QueueCampaign(ctx, c.ID, nil))
	mem.Wait()

	got, err := a.Campaigns.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, got.Status)
	assert.Equal(t, 1, got.SentCount)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()

	a := newTestApp(t, testConfig(t))
	store, err := a.Sessions(ctx)
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)

	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	a = newTestApp(t, cfg)
	store, err = a.Sessions(ctx)
	require.NoError(t, err)
	require.IsType(t, &session.RedisStore{}, store)

	p := session.NewPreview("members.csv", importer.Result{Errors: []string{}})
	require.NoError(t, store.Save(ctx, p))
	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "members.csv", got.Filename)
}

func TestSessions_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Redis.Addr = addr
	a := newTestApp(t, cfg)
	_, err := a.Sessions(context.Background())
	assert.Error(t, err)
}
