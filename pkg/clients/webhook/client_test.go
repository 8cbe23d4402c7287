package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

func TestRecordEventSignsPayload(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(config.WebhookConfig{URL: srv.URL, Secret: "s3cret", Timeout: time.Second})
	event := models.LedgerEvent{Seq: 7, Kind: models.EventAntDied, From: "alice", AntID: 3}

	if err := client.RecordEvent(context.Background(), event); err != nil {
		t.Fatalf("record event: %v", err)
	}

	var decoded models.LedgerEvent
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Seq != 7 || decoded.Kind != models.EventAntDied || decoded.AntID != 3 {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	if gotSig != Sign([]byte("s3cret"), gotBody) {
		t.Fatalf("signature mismatch: %s", gotSig)
	}
}

func TestRecordEventSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"unknown kind"}`))
	}))
	defer srv.Close()

	client := NewClient(config.WebhookConfig{URL: srv.URL})
	err := client.RecordEvent(context.Background(), models.LedgerEvent{Seq: 1})
	if err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("expected subscriber error, got %v", err)
	}
}
