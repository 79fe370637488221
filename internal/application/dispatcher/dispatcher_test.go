package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-studio/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func TestDispatcher_DispatchRunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var calls []string

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("h%d", i)
		d.SubscribeNamed(event.TypeInvoiceUpdated, name, func(ctx context.Context, evt *event.Event) error {
			calls = append(calls, name)
			return nil
		})
	}

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceUpdated, "s1", nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"h0", "h1", "h2"}, calls)
}

func TestDispatcher_OnlyMatchingTypeReceivesEvent(t *testing.T) {
	d := NewDispatcher()
	updated, exported := 0, 0
	d.Subscribe(event.TypeInvoiceUpdated, func(ctx context.Context, evt *event.Event) error {
		updated++
		return nil
	})
	d.Subscribe(event.TypeInvoiceExported, func(ctx context.Context, evt *event.Event) error {
		exported++
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceExported, "s1", nil)))

	assert.Equal(t, 0, updated)
	assert.Equal(t, 1, exported)
}

func TestDispatcher_ErrorsAndPanicsDoNotStopOtherHandlers(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	boom := errors.New("boom")
	reached := false

	d.SubscribeNamed(event.TypeInvoiceUpdated, "failing", func(ctx context.Context, evt *event.Event) error {
		return boom
	})
	d.SubscribeNamed(event.TypeInvoiceUpdated, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("unexpected")
	})
	d.SubscribeNamed(event.TypeInvoiceUpdated, "last", func(ctx context.Context, evt *event.Event) error {
		reached = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceUpdated, "s1", nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "handler panic")
	assert.True(t, reached)
	assert.Len(t, logger.errors, 2)
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	d.SubscribeNamed(event.TypeInvoiceCreated, "counter", func(ctx context.Context, evt *event.Event) error {
		calls++
		return nil
	})

	d.Unsubscribe(event.TypeInvoiceCreated, "counter")
	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceCreated, "s1", nil)))

	assert.Equal(t, 0, calls)
	assert.Empty(t, d.ListHandlers(event.TypeInvoiceCreated))
}

func TestDispatcher_ListHandlers(t *testing.T) {
	d := NewDispatcher()
	d.SubscribeNamed(event.TypeInvoiceExported, "history", func(ctx context.Context, evt *event.Event) error { return nil })
	d.Subscribe(event.TypeInvoiceExported, func(ctx context.Context, evt *event.Event) error { return nil })

	infos := d.ListHandlers(event.TypeInvoiceExported)

	require.Len(t, infos, 2)
	assert.Equal(t, "history", infos[0].Name)
	assert.Equal(t, "handler-1", infos[1].Name)
	assert.Nil(t, infos[0].Handler)
}

func TestDispatcher_Close(t *testing.T) {
	d := NewDispatcher()

	require.NoError(t, d.Close())
	assert.Error(t, d.Close())

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeInvoiceCreated, "s1", nil))
	assert.ErrorIs(t, err, ErrClosed)
}
