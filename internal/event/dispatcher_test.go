package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutbox struct {
	rows      []OutboxRow
	published []string
	failed    []string
}

func (s *fakeOutbox) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	pending := make([]OutboxRow, 0, len(s.rows))
	for _, row := range s.rows {
		if row.PublishedAt == nil && len(pending) < limit {
			pending = append(pending, row)
		}
	}
	return pending, nil
}

func (s *fakeOutbox) MarkPublished(ctx context.Context, id string) error {
	s.published = append(s.published, id)
	for i := range s.rows {
		if s.rows[i].ID == id {
			now := s.rows[i].CreatedAt
			s.rows[i].PublishedAt = &now
		}
	}
	return nil
}

func (s *fakeOutbox) MarkFailed(ctx context.Context, id string) error {
	s.failed = append(s.failed, id)
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Attempts++
		}
	}
	return nil
}

func (s *fakeOutbox) enqueue(t *testing.T, ev *Event) {
	t.Helper()
	payload, err := ev.Marshal()
	require.NoError(t, err)
	s.rows = append(s.rows, OutboxRow{ID: ev.ID, Kind: ev.Kind, Payload: payload})
}

type recordingListener struct {
	name    string
	handled []*Event
	err     error
}

func (l *recordingListener) Name() string { return l.name }

func (l *recordingListener) Handle(ctx context.Context, ev *Event) error {
	l.handled = append(l.handled, ev)
	return l.err
}

func TestDispatchPending_PublishesWhenAllListenersSucceed(t *testing.T) {
	store := &fakeOutbox{}
	ev := New(KindCustomerSignedContract, 3, 1, nil, "service_staff", nil)
	store.enqueue(t, ev)

	a := &recordingListener{name: "a"}
	b := &recordingListener{name: "b"}
	d := NewDispatcher(store, 0, 0, zap.NewNop())
	d.Register(a)
	d.Register(b)

	d.DispatchPending(context.Background())

	require.Len(t, a.handled, 1)
	require.Len(t, b.handled, 1)
	assert.Equal(t, ev.ID, a.handled[0].ID)
	assert.Equal(t, ev.Kind, a.handled[0].Kind)
	assert.Equal(t, []string{ev.ID}, store.published)
	assert.Empty(t, store.failed)
}

func TestDispatchPending_RetriesOnListenerFailure(t *testing.T) {
	store := &fakeOutbox{}
	ev := New(KindContractRequestCreated, 3, 1, nil, "service_staff", nil)
	store.enqueue(t, ev)

	ok := &recordingListener{name: "ok"}
	bad := &recordingListener{name: "bad", err: errors.New("boom")}
	d := NewDispatcher(store, 0, 0, zap.NewNop())
	d.Register(ok)
	d.Register(bad)

	d.DispatchPending(context.Background())

	assert.Empty(t, store.published)
	assert.Equal(t, []string{ev.ID}, store.failed)
	assert.Equal(t, 1, store.rows[0].Attempts)

	// The row stays pending and goes out again once the listener recovers.
	bad.err = nil
	d.DispatchPending(context.Background())
	assert.Equal(t, []string{ev.ID}, store.published)
	assert.Len(t, bad.handled, 2)
}

func TestDispatchPending_DropsUndecodableRows(t *testing.T) {
	store := &fakeOutbox{}
	store.rows = append(store.rows, OutboxRow{ID: "junk", Payload: []byte("{not json")})

	l := &recordingListener{name: "l"}
	d := NewDispatcher(store, 0, 0, zap.NewNop())
	d.Register(l)

	d.DispatchPending(context.Background())

	assert.Empty(t, l.handled)
	assert.Equal(t, []string{"junk"}, store.published)
}

func TestDispatchPending_RespectsBatchLimit(t *testing.T) {
	store := &fakeOutbox{}
	for i := 0; i < 5; i++ {
		store.enqueue(t, New(KindContractRequestCreated, int64(i), 1, nil, "service_staff", nil))
	}

	l := &recordingListener{name: "l"}
	d := NewDispatcher(store, 0, 2, zap.NewNop())
	d.Register(l)

	d.DispatchPending(context.Background())
	assert.Len(t, l.handled, 2)

	d.DispatchPending(context.Background())
	d.DispatchPending(context.Background())
	assert.Len(t, l.handled, 5)
	assert.Len(t, store.published, 5)
}

func TestEventRoundTrip(t *testing.T) {
	recipient := int64(12)
	ev := New(KindInstallationCompleted, 9, 4, &recipient, "", map[string]interface{}{
		"contract_number": "CT-9",
	})

	payload, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, ev.Kind, decoded.Kind)
	require.NotNil(t, decoded.RecipientID)
	assert.Equal(t, recipient, *decoded.RecipientID)
	assert.Equal(t, "CT-9", decoded.Data["contract_number"])
}
