package turnstile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerify_Success(t *testing.T) {
	var gotSecret, gotResponse, gotIP, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotSecret = r.PostForm.Get("secret")
		gotResponse = r.PostForm.Get("response")
		gotIP = r.PostForm.Get("remoteip")
		w.Write([]byte(`{"success":true,"hostname":"example.com"}`))
	}))
	defer srv.Close()

	client := NewClient("sekret")
	client.VerifyURL = srv.URL

	result, err := client.Verify(context.Background(), "tok-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content type %q", gotContentType)
	}
	if gotSecret != "sekret" || gotResponse != "tok-1" || gotIP != "203.0.113.7" {
		t.Errorf("unexpected form: secret=%q response=%q remoteip=%q", gotSecret, gotResponse, gotIP)
	}
}

func TestVerify_OmitsEmptyRemoteIP(t *testing.T) {
	hasIP := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		_, hasIP = r.PostForm["remoteip"]
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient("sekret")
	client.VerifyURL = srv.URL

	if _, err := client.Verify(context.Background(), "tok", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasIP {
		t.Error("remoteip should be omitted when empty")
	}
}

func TestVerify_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response","timeout-or-duplicate"]}`))
	}))
	defer srv.Close()

	client := NewClient("sekret")
	client.VerifyURL = srv.URL

	result, err := client.Verify(context.Background(), "bad", "")
	if err != nil {
		t.Fatalf("rejection should not be an error, got %v", err)
	}
	if result.Success {
		t.Error("expected success=false")
	}
	if result.Reason() != "invalid-input-response, timeout-or-duplicate" {
		t.Errorf("unexpected reason %q", result.Reason())
	}
}

func TestVerify_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("sekret")
	client.VerifyURL = srv.URL

	if _, err := client.Verify(context.Background(), "tok", ""); err == nil {
		t.Fatal("expected error for HTTP 502, got nil")
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.Verify(context.Background(), "tok", "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResult_ReasonUnknown(t *testing.T) {
	r := &Result{}
	if r.Reason() != "unknown error" {
		t.Errorf("unexpected reason %q", r.Reason())
	}
}
