// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/supersig/event"
	"github.com/blinklabs-io/supersig/internal/test/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	return testutil.RequireReceive(t, ch, time.Second, "waiting for event")
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1 := eb.Subscribe(event.CallVotedEventType)
	_, sub2 := eb.Subscribe(event.CallVotedEventType)
	_, other := eb.Subscribe(event.UnitCreatedEventType)
	data := event.CallVotedEvent{CallID: 3, Tally: 2}
	eb.Publish(
		event.CallVotedEventType,
		event.NewEvent(event.CallVotedEventType, data),
	)
	for _, ch := range []<-chan event.Event{sub1, sub2} {
		evt := waitEvent(t, ch)
		assert.Equal(t, event.CallVotedEventType, evt.Type)
		assert.Equal(t, data, evt.Data)
	}
	testutil.RequireNoReceive(t, other, 50*time.Millisecond, "event for other type")
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, ch := eb.Subscribe(event.UnitRemovedEventType)
	eb.Unsubscribe(event.UnitRemovedEventType, subId)
	_, ok := <-ch
	assert.False(t, ok)
	// Publishing with no subscribers is fine
	eb.Publish(
		event.UnitRemovedEventType,
		event.NewEvent(event.UnitRemovedEventType, nil),
	)
}

func TestEventBusSubscribeFuncAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	var count atomic.Int32
	done := make(chan struct{}, 1)
	eb.SubscribeFunc(event.MemberLeftEventType, func(evt event.Event) {
		if count.Add(1) == 3 {
			done <- struct{}{}
		}
	})
	for range 3 {
		require.True(t, eb.PublishAsync(
			event.MemberLeftEventType,
			event.NewEvent(event.MemberLeftEventType, event.MemberLeftEvent{}),
		))
	}
	testutil.RequireReceive(t, done, time.Second, "async events")
}

type failingSubscriber struct {
	closed atomic.Bool
	panics bool
}

func (f *failingSubscriber) Deliver(event.Event) error {
	if f.panics {
		panic("boom")
	}
	return errors.New("deliver failed")
}

func (f *failingSubscriber) Close() {
	f.closed.Store(true)
}

func TestEventBusFailingSubscriberRemoved(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	failing := &failingSubscriber{}
	panicking := &failingSubscriber{panics: true}
	eb.RegisterSubscriber(event.CallRemovedEventType, failing)
	eb.RegisterSubscriber(event.CallRemovedEventType, panicking)
	eb.Publish(
		event.CallRemovedEventType,
		event.NewEvent(event.CallRemovedEventType, nil),
	)
	assert.True(t, failing.closed.Load())
	assert.True(t, panicking.closed.Load())
	count, err := promtestutil.GatherAndCount(reg, "event_delivery_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	// Both deliveries counted under the same label set
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "event_delivery_errors_total" {
			assert.InDelta(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue(), 0)
		}
	}
}

func TestEventBusStopStart(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, ch := eb.Subscribe(event.UnitCreatedEventType)
	eb.Stop()
	_, ok := <-ch
	assert.False(t, ok)
	_, ch = eb.Subscribe(event.UnitCreatedEventType)
	require.False(t, eb.PublishAsync(
		event.UnitCreatedEventType,
		event.NewEvent(event.UnitCreatedEventType, nil),
	))
	eb.Start()
	require.True(t, eb.PublishAsync(
		event.UnitCreatedEventType,
		event.NewEvent(event.UnitCreatedEventType, event.UnitCreatedEvent{UnitID: 1}),
	))
	evt := waitEvent(t, ch)
	assert.Equal(t, event.UnitCreatedEvent{UnitID: 1}, evt.Data)
	eb.Stop()
}
