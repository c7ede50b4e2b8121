package announce

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"communityhub/internal/app/store"
)

type recordingStore struct {
	upserts []*store.Announcement
	fail    bool
}

func (rs *recordingStore) UpsertAnnouncement(ctx context.Context, a *store.Announcement) error {
	if rs.fail {
		return errors.New("database down")
	}
	rs.upserts = append(rs.upserts, a)
	return nil
}

type recordingNotifier struct {
	announced []*store.Announcement
}

func (rn *recordingNotifier) Announce(a *store.Announcement) {
	rn.announced = append(rn.announced, a)
}

func delivery(t *testing.T, a *store.Announcement) []byte {
	t.Helper()
	body, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleDeliveryStoresAndNotifies(t *testing.T) {
	rs := &recordingStore{}
	rn := &recordingNotifier{}
	w := NewWorker(nil, rs, rn)

	body := delivery(t, &store.Announcement{ID: "a-1", Title: "Elevator maintenance", Content: "Out of service Friday.", Priority: "high"})

	if err := w.handleDelivery(context.Background(), body); err != nil {
		t.Fatalf("handleDelivery failed: %v", err)
	}

	if len(rs.upserts) != 1 || rs.upserts[0].ID != "a-1" {
		t.Fatalf("announcement not stored: %+v", rs.upserts)
	}
	if len(rn.announced) != 1 || rn.announced[0].ID != "a-1" {
		t.Fatalf("announcement not broadcast: %+v", rn.announced)
	}
}

func TestHandleDeliveryRedeliveryIsIdempotent(t *testing.T) {
	rs := &recordingStore{}
	rn := &recordingNotifier{}
	w := NewWorker(nil, rs, rn)

	body := delivery(t, &store.Announcement{ID: "a-1", Title: "Pool closed", Content: "Cleaning."})

	// The broker may redeliver after a missed ack; the id-keyed upsert keeps
	// storage correct, only the live push repeats.
	if err := w.handleDelivery(context.Background(), body); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := w.handleDelivery(context.Background(), body); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	for _, a := range rs.upserts {
		if a.ID != "a-1" {
			t.Fatalf("redelivery changed the id: %+v", a)
		}
	}
}

func TestHandleDeliveryStoreFailureRequeues(t *testing.T) {
	rs := &recordingStore{fail: true}
	rn := &recordingNotifier{}
	w := NewWorker(nil, rs, rn)

	body := delivery(t, &store.Announcement{ID: "a-1", Title: "t", Content: "c"})

	if err := w.handleDelivery(context.Background(), body); err == nil {
		t.Fatalf("store failure must surface so the delivery is requeued")
	}
	if len(rn.announced) != 0 {
		t.Fatalf("unstored announcement must not be broadcast")
	}
}

func TestHandleDeliveryDropsMalformedBody(t *testing.T) {
	rs := &recordingStore{}
	rn := &recordingNotifier{}
	w := NewWorker(nil, rs, rn)

	if err := w.handleDelivery(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("malformed body must be dropped, not requeued: %v", err)
	}
	if err := w.handleDelivery(context.Background(), delivery(t, &store.Announcement{Title: "no id"})); err != nil {
		t.Fatalf("missing id must be dropped, not requeued: %v", err)
	}

	if len(rs.upserts) != 0 || len(rn.announced) != 0 {
		t.Fatalf("dropped deliveries must have no side effects")
	}
}
