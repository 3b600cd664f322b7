package jobmanager

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trivia/internal/common"
	"github.com/bobmcallan/trivia/internal/models"
)

type fakeJobLister struct {
	jobs []*models.Job
}

func (f *fakeJobLister) ListOwned(recipientID string) []*models.Job {
	return f.jobs
}

func newRunningHub(t *testing.T) *PushHub {
	t.Helper()
	hub := NewPushHub(common.NewSilentLogger())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func readFrame(t *testing.T, client *pushClient) models.JobEvent {
	t.Helper()
	select {
	case data := <-client.send:
		var evt models.JobEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.JobEvent{}
	}
}

func TestPushHub_Publish_DeliversOnlyToOwningRecipient(t *testing.T) {
	hub := newRunningHub(t)

	alice := &pushClient{hub: hub, recipientID: "alice", send: make(chan []byte, 4)}
	bob := &pushClient{hub: hub, recipientID: "bob", send: make(chan []byte, 4)}
	hub.register <- alice
	hub.register <- bob

	hub.Publish("alice", models.JobEvent{Type: models.EventJobUpdate, JobID: "j1"})

	evt := readFrame(t, alice)
	assert.Equal(t, models.EventJobUpdate, evt.Type)

	select {
	case <-bob.send:
		t.Fatal("bob should not have received alice's event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPushClient_HandleFrame_Ping(t *testing.T) {
	hub := newRunningHub(t)
	client := &pushClient{hub: hub, recipientID: "alice", send: make(chan []byte, 4)}
	hub.register <- client

	client.handleFrame(clientFrame{Type: "ping"})

	evt := readFrame(t, client)
	assert.Equal(t, models.EventPong, evt.Type)
}

func TestPushClient_HandleFrame_GetJobs(t *testing.T) {
	hub := newRunningHub(t)
	lister := &fakeJobLister{jobs: []*models.Job{{ID: "j1", OwnerRecipientID: "alice"}}}
	hub.SetJobLister(lister)

	client := &pushClient{hub: hub, recipientID: "alice", send: make(chan []byte, 4)}
	hub.register <- client

	client.handleFrame(clientFrame{Type: "get_jobs"})

	evt := readFrame(t, client)
	assert.Equal(t, models.EventJobsStatus, evt.Type)
	require.Len(t, evt.Jobs, 1)
	assert.Equal(t, "j1", evt.Jobs[0].ID)
}

func TestPushClient_HandleFrame_GetJobs_NoListerConfigured(t *testing.T) {
	hub := newRunningHub(t)
	client := &pushClient{hub: hub, recipientID: "alice", send: make(chan []byte, 4)}
	hub.register <- client

	client.handleFrame(clientFrame{Type: "get_jobs"})

	evt := readFrame(t, client)
	assert.Equal(t, models.EventJobsStatus, evt.Type)
	assert.Empty(t, evt.Jobs)
}

func TestPushClient_HandleFrame_UnknownTypeIgnored(t *testing.T) {
	hub := newRunningHub(t)
	client := &pushClient{hub: hub, recipientID: "alice", send: make(chan []byte, 4)}
	hub.register <- client

	client.handleFrame(clientFrame{Type: "nonsense"})

	select {
	case <-client.send:
		t.Fatal("an unrecognized frame type should produce no event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPushHub_ServeWS_SendsConnectionEstablished(t *testing.T) {
	hub := newRunningHub(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "alice")
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt models.JobEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, models.EventConnectionEstablished, evt.Type)
	assert.Contains(t, evt.Message, "alice")
}

func TestPushHub_StreamCount(t *testing.T) {
	hub := newRunningHub(t)
	assert.Equal(t, 0, hub.StreamCount())

	client := &pushClient{hub: hub, recipientID: "alice", send: make(chan []byte, 4)}
	hub.register <- client
	// The send returns once the event loop has received the client; the
	// loop adds it to the map under its lock just after, so wait for it.
	assert.Eventually(t, func() bool { return hub.StreamCount() == 1 }, time.Second, 10*time.Millisecond)
}
