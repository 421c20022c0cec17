package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory/models"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func sampleEvent() reconcile.Event {
	dev := int64(7)
	return reconcile.Event{
		Source:    "ipdevpoll",
		Target:    "eventEngine",
		NetboxID:  42,
		DeviceID:  &dev,
		SubID:     "13",
		EventType: "moduleState",
		State:     reconcile.StateStart,
		Time:      time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Vars:      map[string]string{"name": "slot1"},
	}
}

func TestQueueEmitter(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EventQueue{}))

	require.NoError(t, QueueEmitter{}.Emit(context.Background(), db, sampleEvent()))

	var row models.EventQueue
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "ipdevpoll", row.Source)
	assert.Equal(t, "eventEngine", row.Target)
	assert.Equal(t, "moduleState", row.EventTypeID)
	assert.Equal(t, "s", row.State)
	assert.Equal(t, "13", row.SubID)
	require.NotNil(t, row.NetboxID)
	assert.Equal(t, int64(42), *row.NetboxID)
	require.NotNil(t, row.DeviceID)
	assert.Equal(t, int64(7), *row.DeviceID)
	assert.JSONEq(t, `{"name":"slot1"}`, row.Vars)
	assert.Equal(t, defaultSeverity, row.Severity)
}

func TestQueueEmitterFailsWithoutTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = QueueEmitter{}.Emit(context.Background(), db, sampleEvent())
	assert.ErrorContains(t, err, "failed to queue moduleState event")
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, complete bool) *fakeToken {
	tok := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(tok.done)
	}
	return tok
}

func (f *fakeToken) Wait() bool { <-f.done; return true }

func (f *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-f.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (f *fakeToken) Done() <-chan struct{} { return f.done }
func (f *fakeToken) Error() error          { return f.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	token *fakeToken
	sent  []published
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) pahomqtt.Token {
	p.sent = append(p.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return p.token
}

func TestMQTTEmitter(t *testing.T) {
	pub := &fakePublisher{token: newToken(nil, true)}
	em, err := NewMQTTEmitter(pub, Config{TopicPrefix: "inventory/events", QoS: 1})
	require.NoError(t, err)

	require.NoError(t, em.Emit(context.Background(), nil, sampleEvent()))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "inventory/events/moduleState/42", pub.sent[0].topic)
	assert.Equal(t, byte(1), pub.sent[0].qos)

	var got reconcile.Event
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &got))
	assert.Equal(t, "13", got.SubID)
	assert.Equal(t, reconcile.StateStart, got.State)
}

func TestMQTTEmitterErrors(t *testing.T) {
	t.Run("Invalid QoS", func(t *testing.T) {
		_, err := NewMQTTEmitter(&fakePublisher{}, Config{QoS: 3})
		assert.Error(t, err)
	})

	t.Run("Broker error", func(t *testing.T) {
		pub := &fakePublisher{token: newToken(errors.New("not authorized"), true)}
		em, err := NewMQTTEmitter(pub, Config{TopicPrefix: "x"})
		require.NoError(t, err)
		err = em.Emit(context.Background(), nil, sampleEvent())
		assert.ErrorContains(t, err, "not authorized")
	})

	t.Run("Timeout", func(t *testing.T) {
		pub := &fakePublisher{token: newToken(nil, false)}
		em, err := NewMQTTEmitter(pub, Config{TopicPrefix: "x", PublishTimeout: 10 * time.Millisecond})
		require.NoError(t, err)
		err = em.Emit(context.Background(), nil, sampleEvent())
		assert.ErrorIs(t, err, ErrPublishTimeout)
	})

	t.Run("Cancelled", func(t *testing.T) {
		pub := &fakePublisher{token: newToken(nil, false)}
		em, err := NewMQTTEmitter(pub, Config{TopicPrefix: "x", PublishTimeout: time.Minute})
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = em.Emit(ctx, nil, sampleEvent())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFanout(t *testing.T) {
	var calls []string
	record := func(name string, err error) reconcile.Emitter {
		return reconcile.EmitterFunc(func(context.Context, *gorm.DB, reconcile.Event) error {
			calls = append(calls, name)
			return err
		})
	}

	t.Run("Secondary failure is logged", func(t *testing.T) {
		calls = nil
		core, logs := observer.New(zap.WarnLevel)
		f := &Fanout{
			Primary:   record("queue", nil),
			Secondary: []reconcile.Emitter{record("mqtt", errors.New("offline")), record("other", nil)},
			Log:       zap.New(core),
		}
		require.NoError(t, f.Emit(context.Background(), nil, sampleEvent()))
		assert.Equal(t, []string{"queue", "mqtt", "other"}, calls)
		assert.Equal(t, 1, logs.FilterMessage("secondary event delivery failed").Len())
	})

	t.Run("Primary failure stops delivery", func(t *testing.T) {
		calls = nil
		f := &Fanout{
			Primary:   record("queue", errors.New("locked")),
			Secondary: []reconcile.Emitter{record("mqtt", nil)},
		}
		assert.EqualError(t, f.Emit(context.Background(), nil, sampleEvent()), "locked")
		assert.Equal(t, []string{"queue"}, calls)
	})

	t.Run("Secondaries wait for commit", func(t *testing.T) {
		calls = nil
		f := &Fanout{
			Primary:   record("queue", nil),
			Secondary: []reconcile.Emitter{record("mqtt", nil)},
		}
		ctx, queue := reconcile.WithCommitQueue(context.Background())
		require.NoError(t, f.Emit(ctx, nil, sampleEvent()))
		assert.Equal(t, []string{"queue"}, calls)
		assert.Equal(t, 1, queue.Len())

		queue.Flush(context.Background())
		assert.Equal(t, []string{"queue", "mqtt"}, calls)
	})

	t.Run("Rolled back events are never published", func(t *testing.T) {
		calls = nil
		f := &Fanout{
			Primary:   record("queue", nil),
			Secondary: []reconcile.Emitter{record("mqtt", nil)},
		}
		ctx, queue := reconcile.WithCommitQueue(context.Background())
		require.NoError(t, f.Emit(ctx, nil, sampleEvent()))
		queue.Discard()
		queue.Flush(context.Background())
		assert.Equal(t, []string{"queue"}, calls)
	})
}
