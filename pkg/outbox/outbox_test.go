package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingSender struct {
	fail bool
	sent []string
}

func (s *recordingSender) SendMessage(_ context.Context, topic string, key string, value any) error {
	if s.fail {
		return errors.New("broker unavailable")
	}
	raw, _ := value.(json.RawMessage)
	s.sent = append(s.sent, topic+"|"+key+"|"+string(raw))
	return nil
}

type countingRecorder map[string]int

func (r countingRecorder) ObserveOutbox(topic, outcome string) {
	r[topic+"|"+outcome]++
}

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

// sqlRecorder 记录执行过的 SQL
type sqlRecorder struct {
	gormlogger.Interface
	mu  sync.Mutex
	sql []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	stmt, _ := fc()
	r.mu.Lock()
	r.sql = append(r.sql, stmt)
	r.mu.Unlock()
}

func (r *sqlRecorder) contains(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stmt := range r.sql {
		if strings.HasPrefix(stmt, prefix) {
			return true
		}
	}
	return false
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&Message{}))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func TestManager_PublishAndFlush(t *testing.T) {
	gdb := openDB(t)
	sender := &recordingSender{}
	m := NewManager(gdb, sender, logger.Discard())
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, "order.created", "o-1", map[string]string{"order_id": "o-1"}))

	n, err := m.Flush(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{`order.created|o-1|{"order_id":"o-1"}`}, sender.sent)

	n, err = m.Flush(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n, "sent messages are not delivered twice")
}

func TestManager_PublishFollowsTransaction(t *testing.T) {
	gdb := openDB(t)
	m := NewManager(gdb, &recordingSender{}, logger.Discard())

	tx := gdb.Begin()
	ctx := contextx.WithTx(context.Background(), tx)
	require.NoError(t, m.Publish(ctx, "cart.cleared", "c-1", struct{}{}))
	require.NoError(t, tx.Rollback().Error)

	var count int64
	require.NoError(t, gdb.Model(&Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestManager_FailedDeliveryIsRetriedThenParked(t *testing.T) {
	gdb := openDB(t)
	sender := &recordingSender{fail: true}
	m := NewManager(gdb, sender, logger.Discard(), WithMaxAttempts(2), WithBackoff(0))
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, "payment.status_changed", "p-1", map[string]string{"status": "COMPLETED"}))

	_, err := m.Flush(ctx, 10)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, gdb.First(&msg).Error)
	assert.Equal(t, StatusPending, msg.Status)
	assert.Equal(t, 1, msg.Attempts)
	assert.Equal(t, "broker unavailable", msg.LastError)

	_, err = m.Flush(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, gdb.First(&msg).Error)
	assert.Equal(t, StatusFailed, msg.Status)
	assert.Equal(t, 2, msg.Attempts)
}

func TestManager_RelayStopsOnCancel(t *testing.T) {
	gdb := openDB(t)
	m := NewManager(gdb, &recordingSender{}, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Relay(ctx, 10*time.Millisecond, 10)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestManager_RecordsDeliveryOutcome(t *testing.T) {
	gdb := openDB(t)
	sender := &recordingSender{}
	rec := countingRecorder{}
	m := NewManager(gdb, sender, logger.Discard(), WithRecorder(rec), WithBackoff(0))
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, "order.created", "o-1", struct{}{}))
	_, err := m.Flush(ctx, 10)
	require.NoError(t, err)

	sender.fail = true
	require.NoError(t, m.Publish(ctx, "order.created", "o-2", struct{}{}))
	_, err = m.Flush(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, countingRecorder{"order.created|sent": 1, "order.created|failed": 1}, rec)
}

func TestManager_FailedWriteKeepsOuterTransaction(t *testing.T) {
	gdb := openDB(t)
	require.NoError(t, gdb.AutoMigrate(&widget{}))
	m := NewManager(gdb, &recordingSender{}, logger.Discard())

	rec := &sqlRecorder{Interface: gormlogger.Discard}
	session := gdb.Session(&gorm.Session{Logger: rec})
	require.NoError(t, session.Migrator().DropTable(&Message{}))

	err := session.Transaction(func(tx *gorm.DB) error {
		ctx := contextx.WithTx(context.Background(), tx)
		if err := tx.Create(&widget{Name: "before"}).Error; err != nil {
			return err
		}
		assert.Error(t, m.Publish(ctx, "order.created", "o-1", struct{}{}))
		return tx.Create(&widget{Name: "after"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, gdb.Model(&widget{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
	assert.True(t, rec.contains("SAVEPOINT"), "outbox insert runs inside a savepoint")
	assert.True(t, rec.contains("ROLLBACK TO SAVEPOINT"), "failed insert rolls back to the savepoint")
}

func TestManager_RetryDelayGrowsExponentially(t *testing.T) {
	m := NewManager(nil, &recordingSender{}, logger.Discard(),
		WithBackoff(time.Second), WithMaxBackoff(4*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, m.retryDelay(1))
	assert.Equal(t, 1500*time.Millisecond, m.retryDelay(2))
	assert.Equal(t, 2250*time.Millisecond, m.retryDelay(3))
	assert.Equal(t, 4*time.Second, m.retryDelay(10), "capped by max backoff")
}

func TestManager_FailedDeliverySchedulesGrowingRetries(t *testing.T) {
	gdb := openDB(t)
	m := NewManager(gdb, &recordingSender{fail: true}, logger.Discard(), WithBackoff(time.Second), WithJitter(0))
	now := time.Unix(1_700_000_000, 0).UTC()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, "order.created", "o-1", struct{}{}))

	var msg Message
	for _, want := range []time.Duration{time.Second, 1500 * time.Millisecond, 2250 * time.Millisecond} {
		_, err := m.Flush(ctx, 10)
		require.NoError(t, err)
		require.NoError(t, gdb.First(&msg).Error)
		assert.WithinDuration(t, now.Add(want), msg.NextAttemptAt, time.Millisecond)
		now = msg.NextAttemptAt.UTC()
	}
	assert.Equal(t, 3, msg.Attempts)
}
