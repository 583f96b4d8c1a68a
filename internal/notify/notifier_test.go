package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+91 98765 43210": "9876543210",
		"9876543210":      "9876543210",
		"(022) 1234":      "0221234",
	}
	for in, want := range tests {
		if got := normalizePhone(in); got != want {
			t.Errorf("normalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFast2SMSSend(t *testing.T) {
	var gotNumbers, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotNumbers = r.URL.Query().Get("numbers")
		gotAuth = r.URL.Query().Get("authorization")
		w.Write([]byte(`{"return":true,"request_id":"abc"}`))
	}))
	defer srv.Close()

	s := NewFast2SMS("key-123")
	s.Endpoint = srv.URL
	if err := s.Send(context.Background(), "+91 98765 43210", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotNumbers != "9876543210" || gotAuth != "key-123" {
		t.Errorf("query = numbers %q auth %q", gotNumbers, gotAuth)
	}
}

func TestFast2SMSSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"return":false,"message":"Invalid Authentication"}`))
	}))
	defer srv.Close()

	s := NewFast2SMS("bad")
	s.Endpoint = srv.URL
	if err := s.Send(context.Background(), "9876543210", "hello"); err == nil {
		t.Fatal("expected error for return=false")
	}
}

func TestSubmissionDecision(t *testing.T) {
	got := SubmissionDecision("Road bike", "rejected", "Photos are blurry")
	want := `Your listing "Road bike" has been rejected. Note: Photos are blurry`
	if got != want {
		t.Errorf("got %q", got)
	}
}
