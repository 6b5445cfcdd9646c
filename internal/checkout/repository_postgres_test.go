package checkout

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS checkout_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS checkout_sessions_state_idx").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewPostgresStore(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_SaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgresStore(db)
	store.now = fixedNow

	mock.ExpectExec("INSERT INTO checkout_sessions").
		WithArgs("v1", "c_7f2", "started", sqlmock.AnyArg(), fixedNow()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	snap := SnapshotOf(Started{SessionID: "c_7f2", Items: kibble})
	if err := store.Save(context.Background(), "v1", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgresStore(db)

	want := SnapshotOf(ShippingSet{
		AddressSet:     AddressSet{Started: Started{SessionID: "c_7f2", Items: kibble}, Addresses: sameAsShipping()},
		ShippingMethod: ShippingMethod{ID: 3, Name: "Kerry Express", Price: 500},
	})
	raw, _ := json.Marshal(want)

	mock.ExpectQuery("SELECT payload FROM checkout_sessions").WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(raw))
	mock.ExpectQuery("SELECT payload FROM checkout_sessions").WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	got, ok, err := store.Load(context.Background(), "v1")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	st := got.Restore()
	ss, isShipping := st.(ShippingSet)
	if !isShipping {
		t.Fatalf("expected shipping_set, got %s", st.Name())
	}
	if ss.ShippingMethod.ID != 3 || ss.Addresses.Shipping.PostalCode != "10110" {
		t.Fatalf("unexpected restored state %+v", ss)
	}

	_, ok, err = store.Load(context.Background(), "nobody")
	if err != nil || ok {
		t.Fatalf("missing row: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_PurgeFinished(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPostgresStore(db)
	store.now = fixedNow

	mock.ExpectExec("DELETE FROM checkout_sessions WHERE state = ANY").
		WithArgs(sqlmock.AnyArg(), fixedNow().Add(-168*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PurgeFinished(context.Background(), 168*time.Hour)
	if err != nil {
		t.Fatalf("PurgeFinished: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 purged rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
