package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildwatch/wildwatch-go/internal/datastore"
	"github.com/wildwatch/wildwatch-go/internal/detection"
	"github.com/wildwatch/wildwatch-go/internal/errors"
	"github.com/wildwatch/wildwatch-go/internal/notification"
	"github.com/wildwatch/wildwatch-go/internal/observability"
)

const testLocation = "633800"

type fakeCapability struct {
	result *detection.Result
	err    error
	calls  int
}

func (f *fakeCapability) Detect(_ context.Context, _ []byte) (*detection.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeStore is an in-memory datastore.Interface that records which operations
// the handler performed.
type fakeStore struct {
	mu              sync.Mutex
	recipients      []datastore.Recipient
	byLocationErr   error
	byLocationCalls int
	increments      map[uint]int
	incrementErr    map[uint]error
}

func newFakeStore(recipients ...datastore.Recipient) *fakeStore {
	return &fakeStore{
		recipients:   recipients,
		increments:   make(map[uint]int),
		incrementErr: make(map[uint]error),
	}
}

func (f *fakeStore) Open() error  { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) CreateRecipient(_ context.Context, _ *datastore.Recipient) error {
	return nil
}

func (f *fakeStore) GetRecipientByEmail(_ context.Context, _ string) (*datastore.Recipient, error) {
	return nil, nil
}

func (f *fakeStore) RecipientsByLocation(_ context.Context, _ string) ([]datastore.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byLocationCalls++
	if f.byLocationErr != nil {
		return nil, f.byLocationErr
	}
	return f.recipients, nil
}

func (f *fakeStore) IncrementAlertCount(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.incrementErr[id]; err != nil {
		return err
	}
	f.increments[id]++
	return nil
}

func (f *fakeStore) AllRecipients(_ context.Context) ([]datastore.Recipient, error) {
	return f.recipients, nil
}

func (f *fakeStore) Stats(_ context.Context) (datastore.RecipientStats, error) {
	return datastore.RecipientStats{}, nil
}

type fakeChannel struct {
	mu      sync.Mutex
	failFor map[string]bool
	sends   int
}

func (f *fakeChannel) Send(_ context.Context, recipientEmail, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.failFor[recipientEmail] {
		return errors.Newf("smtp rejected").
			Component("notification").
			Category(errors.CategoryNotification).
			Build()
	}
	return nil
}

func foundResult(labels ...string) *detection.Result {
	r := &detection.Result{Success: true, Timestamp: time.Now()}
	for _, l := range labels {
		r.Detections = append(r.Detections, detection.Detection{Label: l, Confidence: 0.9})
	}
	return r
}

func recipient(id uint, email string) datastore.Recipient {
	return datastore.Recipient{ID: id, Name: "R", Email: email, LocationCode: testLocation, IsActive: true}
}

func newHandler(t *testing.T, capability detection.Capability, ds datastore.Interface, ch notification.Channel) *Handler {
	t.Helper()
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)
	dispatcher := notification.NewDispatcher(ch, time.Second)
	return New(capability, ds, dispatcher, testLocation, metrics)
}

func TestHandleNoDetections(t *testing.T) {
	t.Parallel()

	store := newFakeStore(recipient(1, "a@example.com"))
	channel := &fakeChannel{}
	h := newHandler(t, &fakeCapability{result: foundResult()}, store, channel)

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.False(t, summary.Alert)
	assert.NotNil(t, summary.Detections)
	assert.Empty(t, summary.Detections)
	assert.Equal(t, testLocation, summary.Location)
	assert.Zero(t, summary.AlertsSent)

	// Nothing found means the directory is never consulted and nothing sent.
	assert.Zero(t, store.byLocationCalls)
	assert.Zero(t, channel.sends)
}

func TestHandleDetectionError(t *testing.T) {
	t.Parallel()

	store := newFakeStore(recipient(1, "a@example.com"))
	channel := &fakeChannel{}
	capErr := errors.Newf("inference exploded").
		Component("detection").
		Category(errors.CategoryDetection).
		Build()
	h := newHandler(t, &fakeCapability{err: capErr}, store, channel)

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.HasCategory(err, errors.CategoryDetection))
	assert.Zero(t, store.byLocationCalls)
	assert.Zero(t, channel.sends)
}

func TestHandleUnsuccessfulResult(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := newHandler(t, &fakeCapability{result: &detection.Result{Success: false, Error: "model not ready"}}, store, &fakeChannel{})

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.HasCategory(err, errors.CategoryDetection))
	assert.Zero(t, store.byLocationCalls)
}

func TestHandleDirectoryError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.byLocationErr = errors.Newf("db gone").
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
	channel := &fakeChannel{}
	h := newHandler(t, &fakeCapability{result: foundResult("tiger")}, store, channel)

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.HasCategory(err, errors.CategoryDatabase))
	assert.Zero(t, channel.sends)
}

func TestHandleNoRecipients(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	channel := &fakeChannel{}
	h := newHandler(t, &fakeCapability{result: foundResult("tiger")}, store, channel)

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.True(t, summary.Alert)
	assert.Contains(t, summary.Message, "no recipients")
	assert.Zero(t, summary.TotalRecipients)
	assert.Zero(t, channel.sends)
}

func TestHandleAllSendsSucceed(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		recipient(1, "a@example.com"),
		recipient(2, "b@example.com"),
		recipient(3, "c@example.com"),
	)
	channel := &fakeChannel{}
	h := newHandler(t, &fakeCapability{result: foundResult("tiger", "elephant")}, store, channel)

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.True(t, summary.Alert)
	assert.Equal(t, 3, summary.AlertsSent)
	assert.Equal(t, 3, summary.TotalRecipients)
	assert.Len(t, summary.Detections, 2)

	assert.Equal(t, map[uint]int{1: 1, 2: 1, 3: 1}, store.increments)
}

func TestHandlePartialFailureUpdatesOnlyDelivered(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		recipient(1, "a@example.com"),
		recipient(2, "b@example.com"),
		recipient(3, "c@example.com"),
		recipient(4, "d@example.com"),
	)
	channel := &fakeChannel{failFor: map[string]bool{
		"b@example.com": true,
		"d@example.com": true,
	}}
	h := newHandler(t, &fakeCapability{result: foundResult("tiger")}, store, channel)

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.NoError(t, err, "send failures must not abort the cycle")

	assert.True(t, summary.Alert)
	assert.Equal(t, 2, summary.AlertsSent)
	assert.Equal(t, 4, summary.TotalRecipients)

	// Counters move only for recipients whose send succeeded.
	assert.Equal(t, map[uint]int{1: 1, 3: 1}, store.increments)
}

func TestHandleCounterUpdateFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		recipient(1, "a@example.com"),
		recipient(2, "b@example.com"),
	)
	store.incrementErr[2] = errors.Newf("row locked").
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
	h := newHandler(t, &fakeCapability{result: foundResult("tiger")}, store, &fakeChannel{})

	summary, err := h.Handle(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsSent)
	assert.Equal(t, map[uint]int{1: 1}, store.increments)
}

func TestHandleRepeatedCyclesAccumulate(t *testing.T) {
	t.Parallel()

	store := newFakeStore(recipient(1, "a@example.com"))
	h := newHandler(t, &fakeCapability{result: foundResult("tiger")}, store, &fakeChannel{})

	for range 3 {
		_, err := h.Handle(context.Background(), []byte("img"))
		require.NoError(t, err)
	}

	assert.Equal(t, map[uint]int{1: 3}, store.increments)
}
