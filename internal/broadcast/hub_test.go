package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	defaultID string
}

func (f *fakeResolver) ResolveDrop(nameOrID string, allowCreate bool) (string, error) {
	return nameOrID, nil
}

func (f *fakeResolver) CanQuery(sess *Session, dropID string) bool {
	return true
}

func (f *fakeResolver) DefaultDropID() string {
	return f.defaultID
}

func newTestClient(h *Hub, dropID string) *Client {
	return &Client{
		hub:    h,
		send:   make(chan []byte, sendBuffer),
		dropID: dropID,
	}
}

func TestHubRegisterTracksSubscriberRefcount(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "1"})
	go h.Run()

	c1 := newTestClient(h, "1")
	c2 := newTestClient(h, "1")
	h.register <- c1
	h.register <- c2

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)
	assert.True(t, h.HasSubscribers("1"))
}

func TestHubUnregisterDecrementsRefcountAndClosesSend(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "1"})
	go h.Run()

	c1 := newTestClient(h, "1")
	h.register <- c1
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	h.unregister <- c1
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
	assert.False(t, h.HasSubscribers("1"))

	_, ok := <-c1.send
	assert.False(t, ok, "send channel should be closed on unregister")
}

func TestHubHasSubscribersFalseWhenNeverRegistered(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "1"})
	go h.Run()
	assert.False(t, h.HasSubscribers("nope"))
}

func TestHubBroadcastDeliversOnlyToMatchingDrop(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "1"})
	go h.Run()

	cA := newTestClient(h, "a")
	cB := newTestClient(h, "b")
	h.register <- cA
	h.register <- cB
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	h.Broadcast([]byte(`{"hello":"a"}`), "a")

	select {
	case msg := <-cA.send:
		assert.Equal(t, `{"hello":"a"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("expected cA to receive broadcast")
	}

	select {
	case msg := <-cB.send:
		t.Fatalf("cB should not have received broadcast, got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastEmptyDropIDFansOutToAll(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "1"})
	go h.Run()

	cA := newTestClient(h, "a")
	cB := newTestClient(h, "b")
	h.register <- cA
	h.register <- cB
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	h.Broadcast([]byte("ping"), "")

	for _, c := range []*Client{cA, cB} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "ping", string(msg))
		case <-time.After(time.Second):
			t.Fatal("expected client to receive fan-out broadcast")
		}
	}
}

func TestHandleMessageSubscribeSwitchesDropAndUpdatesRefcount(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "default"})
	go h.Run()

	c := newTestClient(h, "default")
	h.register <- c
	require.Eventually(t, func() bool { return h.HasSubscribers("default") }, time.Second, time.Millisecond)

	c.handleMessage([]byte(`{"type":"subscribe","dropId":"other"}`))

	require.Eventually(t, func() bool { return h.HasSubscribers("other") }, time.Second, time.Millisecond)
	assert.False(t, h.HasSubscribers("default"))
	assert.Equal(t, "other", c.dropID)

	select {
	case msg := <-c.send:
		assert.Contains(t, string(msg), "subscribed")
	case <-time.After(time.Second):
		t.Fatal("expected subscribed ack")
	}
}

func TestHandleMessageUnrecognizedTypeSendsError(t *testing.T) {
	h := NewHub(&fakeResolver{defaultID: "default"})
	c := newTestClient(h, "default")

	c.handleMessage([]byte(`{"type":"ping"}`))

	select {
	case msg := <-c.send:
		assert.Contains(t, string(msg), "error")
	case <-time.After(time.Second):
		t.Fatal("expected error response")
	}
}

type forbiddenResolver struct{}

func (forbiddenResolver) ResolveDrop(nameOrID string, allowCreate bool) (string, error) {
	return "locked", nil
}

func (forbiddenResolver) CanQuery(sess *Session, dropID string) bool {
	return false
}

func (forbiddenResolver) DefaultDropID() string {
	return "default"
}

func TestHandleMessageForbiddenDropSendsError(t *testing.T) {
	h := NewHub(forbiddenResolver{})
	c := newTestClient(h, "default")

	c.handleMessage([]byte(`{"type":"subscribe","drop":"locked"}`))

	select {
	case msg := <-c.send:
		assert.Contains(t, string(msg), "forbidden")
	case <-time.After(time.Second):
		t.Fatal("expected forbidden error response")
	}
	assert.Equal(t, "default", c.dropID, "dropID should not change on forbidden subscribe")
}
