package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/config"
	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func testLetter(id string, failedAt time.Time) entity.DeadLetter {
	created := failedAt.Add(-time.Minute).Truncate(time.Millisecond)
	return entity.DeadLetter{
		Job: entity.Job{
			ID:          id,
			Type:        entity.JobTypeSendBulkEmail,
			Payload:     json.RawMessage(`{"emails":["a@x.io"],"subject":"s"}`),
			Attempts:    3,
			MaxAttempts: 3,
			Delay:       2 * time.Second,
			CreatedAt:   created,
			EligibleAt:  created.Add(2 * time.Second),
			LastError:   "mail api 503",
		},
		Reason:   "max attempts exceeded: mail api 503",
		FailedAt: failedAt.Truncate(time.Millisecond),
	}
}

func TestDeadLetterStore_SaveAndGet(t *testing.T) {
	_, client := newTestClient(t)
	store := NewDeadLetterStore(client, zap.NewNop())
	ctx := context.Background()

	want := testLetter("job_1", time.Now())
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "job_1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}

	if got.Job.ID != want.Job.ID || got.Job.Type != want.Job.Type {
		t.Errorf("Get() job = %+v, want %+v", got.Job, want.Job)
	}
	if string(got.Job.Payload) != string(want.Job.Payload) {
		t.Errorf("Get() payload = %s, want %s", got.Job.Payload, want.Job.Payload)
	}
	if got.Job.Attempts != 3 || got.Job.MaxAttempts != 3 || got.Job.Delay != 2*time.Second {
		t.Errorf("Get() attempts/delay = %d/%d/%v", got.Job.Attempts, got.Job.MaxAttempts, got.Job.Delay)
	}
	if !got.Job.CreatedAt.Equal(want.Job.CreatedAt) || !got.FailedAt.Equal(want.FailedAt) {
		t.Errorf("Get() times = %v/%v, want %v/%v", got.Job.CreatedAt, got.FailedAt, want.Job.CreatedAt, want.FailedAt)
	}
	if got.Reason != want.Reason || got.Job.LastError != want.Job.LastError {
		t.Errorf("Get() reason = %q, last error = %q", got.Reason, got.Job.LastError)
	}
}

func TestDeadLetterStore_Get_NotFound(t *testing.T) {
	_, client := newTestClient(t)
	store := NewDeadLetterStore(client, zap.NewNop())

	_, err := store.Get(context.Background(), "job_missing")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("Get() error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestDeadLetterStore_List(t *testing.T) {
	_, client := newTestClient(t)
	store := NewDeadLetterStore(client, zap.NewNop())
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"job_old", "job_mid", "job_new"} {
		if err := store.Save(ctx, testLetter(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Save(%s) unexpected error: %v", id, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all, newest first", limit: 10, want: []string{"job_new", "job_mid", "job_old"}},
		{name: "limited", limit: 2, want: []string{"job_new", "job_mid"}},
		{name: "zero limit", limit: 0, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			letters, err := store.List(ctx, tt.limit)
			if err != nil {
				t.Fatalf("List() unexpected error: %v", err)
			}
			if len(letters) != len(tt.want) {
				t.Fatalf("List() returned %d letters, want %d", len(letters), len(tt.want))
			}
			for i, l := range letters {
				if l.Job.ID != tt.want[i] {
					t.Errorf("letters[%d] = %s, want %s", i, l.Job.ID, tt.want[i])
				}
			}
		})
	}
}

func TestDeadLetterStore_SaveOverwrites(t *testing.T) {
	_, client := newTestClient(t)
	store := NewDeadLetterStore(client, zap.NewNop())
	ctx := context.Background()

	first := testLetter("job_1", time.Now())
	second := first
	second.Reason = "invalid payload"
	store.Save(ctx, first)
	store.Save(ctx, second)

	letters, _ := store.List(ctx, 10)
	if len(letters) != 1 || letters[0].Reason != "invalid payload" {
		t.Fatalf("List() = %+v, want one overwritten letter", letters)
	}
}

func TestDeadLetterStore_List_SkipsCorruptEntries(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewDeadLetterStore(client, zap.NewNop())
	ctx := context.Background()

	store.Save(ctx, testLetter("job_ok", time.Now()))
	mr.HSet(domain.RedisDeadLetterDataKey, "job_bad", "{not json")
	mr.ZAdd(domain.RedisDeadLetterIndexKey, float64(time.Now().Add(time.Hour).UnixMilli()), "job_bad")
	mr.ZAdd(domain.RedisDeadLetterIndexKey, float64(time.Now().Add(2*time.Hour).UnixMilli()), "job_orphan")

	letters, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(letters) != 1 || letters[0].Job.ID != "job_ok" {
		t.Fatalf("List() = %+v, want only job_ok", letters)
	}
}

func TestPublisherDirectory_CampaignPublishers(t *testing.T) {
	mr, client := newTestClient(t)
	dir := NewPublisherDirectory(client, zap.NewNop())

	mr.HSet("campaign:cmp-1:publishers", "pub-b", "https://b.test/hook")
	mr.HSet("campaign:cmp-1:publishers", "pub-a", "")
	mr.HSet("campaign:cmp-1:publishers", "pub-c", "")

	pubs, err := dir.CampaignPublishers(context.Background(), "cmp-1")
	if err != nil {
		t.Fatalf("CampaignPublishers() unexpected error: %v", err)
	}

	want := []entity.Publisher{
		{ID: "pub-a"},
		{ID: "pub-b", WebhookURL: "https://b.test/hook"},
		{ID: "pub-c"},
	}
	if len(pubs) != len(want) {
		t.Fatalf("CampaignPublishers() = %+v, want %+v", pubs, want)
	}
	for i := range want {
		if pubs[i] != want[i] {
			t.Errorf("pubs[%d] = %+v, want %+v", i, pubs[i], want[i])
		}
	}
}

func TestPublisherDirectory_UnknownCampaign(t *testing.T) {
	_, client := newTestClient(t)
	dir := NewPublisherDirectory(client, zap.NewNop())

	pubs, err := dir.CampaignPublishers(context.Background(), "nope")
	if err != nil {
		t.Fatalf("CampaignPublishers() unexpected error: %v", err)
	}
	if len(pubs) != 0 {
		t.Fatalf("CampaignPublishers() = %+v, want none", pubs)
	}
}

func TestHealthCheck(t *testing.T) {
	mr, client := newTestClient(t)
	hc := NewHealthCheck(client)

	if hc.Name() != "redis" {
		t.Fatalf("Name() = %q, want redis", hc.Name())
	}
	if err := hc.Check(context.Background()); err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}

	mr.Close()
	if err := hc.Check(context.Background()); err == nil {
		t.Fatal("Check() expected error after redis shut down, got nil")
	}
}

func TestHealthCheck_DeadLetterKeyTypes(t *testing.T) {
	mr, client := newTestClient(t)
	hc := NewHealthCheck(client)
	store := NewDeadLetterStore(client, zap.NewNop())

	if err := store.Save(context.Background(), testLetter("job_1", time.Now())); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if err := hc.Check(context.Background()); err != nil {
		t.Fatalf("Check() with dead letters stored unexpected error: %v", err)
	}

	mr.FlushAll()
	mr.Set(domain.RedisDeadLetterIndexKey, "clobbered")

	err := hc.Check(context.Background())
	if err == nil || !strings.Contains(err.Error(), "holds a string, want zset") {
		t.Fatalf("Check() error = %v, want key type mismatch", err)
	}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{RedisMode: "standalone", RedisAddr: mr.Addr()}
	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	client.Close()
}

func TestUniversalOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantAddrs int
		wantErr   bool
	}{
		{name: "standalone", cfg: config.Config{RedisAddr: "r:6379"}, wantAddrs: 1},
		{name: "sentinel", cfg: config.Config{RedisMode: "sentinel", RedisMasterName: "mymaster", RedisSentinelAddrs: []string{"s1:26379", "s2:26379"}}, wantAddrs: 2},
		{name: "sentinel without master", cfg: config.Config{RedisMode: "sentinel", RedisSentinelAddrs: []string{"s1:26379"}}, wantErr: true},
		{name: "cluster", cfg: config.Config{RedisMode: "cluster", RedisClusterAddrs: []string{"c1:7000", "c2:7000", "c3:7000"}}, wantAddrs: 3},
		{name: "cluster without addrs", cfg: config.Config{RedisMode: "cluster"}, wantErr: true},
		{name: "unknown mode", cfg: config.Config{RedisMode: "ring"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := universalOptions(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(opts.Addrs) != tt.wantAddrs {
				t.Fatalf("Addrs = %v, want %d entries", opts.Addrs, tt.wantAddrs)
			}
		})
	}
}
