package contact

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gatezh/contactform/pkg/airtable"
	"github.com/gatezh/contactform/pkg/email"
	"github.com/gatezh/contactform/pkg/turnstile"
)

type fakeVerifier struct {
	configured bool
	result     *turnstile.Result
	err        error

	mu       sync.Mutex
	calls    int
	token    string
	remoteIP string
}

func (f *fakeVerifier) Configured() bool { return f.configured }

func (f *fakeVerifier) Verify(_ context.Context, token, remoteIP string) (*turnstile.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.token = token
	f.remoteIP = remoteIP
	return f.result, f.err
}

type fakeMailer struct {
	configured bool
	id         string
	err        error
	panicWith  interface{}

	mu    sync.Mutex
	calls int
	last  *email.Message
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) Send(_ context.Context, msg *email.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last = msg
	f.mu.Unlock()
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.id, f.err
}

type fakeTable struct {
	configured bool
	id         string
	err        error

	mu     sync.Mutex
	calls  int
	fields map[string]interface{}
}

func (f *fakeTable) Configured() bool { return f.configured }

func (f *fakeTable) CreateRecord(_ context.Context, fields map[string]interface{}) (*airtable.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.fields = fields
	if f.err != nil {
		return nil, f.err
	}
	return &airtable.Record{ID: f.id, Fields: fields}, nil
}

var (
	validBody   = []byte(`{"name":"Jane Doe","email":"jane@example.com","subject":"Hello","message":"Hi there","captchaToken":"tok-123"}`)
	invalidBody = []byte(`{"name":"","email":"not-an-email","message":"Hi"}`)
	notify      = email.NotifyConfig{From: "noreply@example.com", To: "owner@example.com", SiteName: "example.com"}
	fixedNow    = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(opts Options) *Pipeline {
	opts.Logger = quietLogger()
	opts.Now = func() time.Time { return fixedNow }
	return NewPipeline(opts)
}

func TestSubmit_EmailPrimary(t *testing.T) {
	mailer := &fakeMailer{configured: true, id: "msg_1"}
	p := newTestPipeline(Options{Mailer: mailer, Notify: notify})

	res, err := p.Submit(context.Background(), Input{Body: validBody})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Message != MsgSent {
		t.Errorf("unexpected result %+v", res)
	}
	if res.ID != "msg_1" {
		t.Errorf("expected id msg_1, got %q", res.ID)
	}
	if res.EmailSent != nil {
		t.Error("emailSent should be absent when email is the primary sink")
	}
	if mailer.calls != 1 {
		t.Fatalf("expected 1 send, got %d", mailer.calls)
	}
	if mailer.last.Subject != "Contact: Hello" {
		t.Errorf("unexpected subject %q", mailer.last.Subject)
	}
	if mailer.last.ReplyTo != "jane@example.com" {
		t.Errorf("unexpected reply-to %q", mailer.last.ReplyTo)
	}
	if len(mailer.last.To) != 1 || mailer.last.To[0] != "owner@example.com" {
		t.Errorf("unexpected recipients %v", mailer.last.To)
	}
}

func TestSubmit_EmailFailure(t *testing.T) {
	mailer := &fakeMailer{configured: true, err: errors.New("resend: 500")}
	p := newTestPipeline(Options{Mailer: mailer, Notify: notify})

	_, err := p.Submit(context.Background(), Input{Body: validBody})
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ce.Kind != KindSinkUnavailable || ce.Message != MsgSendFailed {
		t.Errorf("unexpected error %+v", ce)
	}
}

func TestSubmit_TablePrimaryWithEmail(t *testing.T) {
	table := &fakeTable{configured: true, id: "recABC"}
	mailer := &fakeMailer{configured: true, id: "msg_2"}
	p := newTestPipeline(Options{Table: table, Mailer: mailer, Notify: notify})

	res, err := p.Submit(context.Background(), Input{Body: validBody})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "recABC" || res.Message != MsgReceived {
		t.Errorf("unexpected result %+v", res)
	}
	if res.EmailSent == nil || !*res.EmailSent {
		t.Error("expected emailSent=true")
	}
	if table.fields["Submitted At"] != "2024-05-01T12:30:00.000Z" {
		t.Errorf("unexpected timestamp %v", table.fields["Submitted At"])
	}
	if table.fields["Name"] != "Jane Doe" || table.fields["Subject"] != "Hello" {
		t.Errorf("unexpected fields %v", table.fields)
	}
}

func TestSubmit_TableOnly(t *testing.T) {
	table := &fakeTable{configured: true, id: "recABC"}
	p := newTestPipeline(Options{Table: table})

	res, err := p.Submit(context.Background(), Input{Body: validBody})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EmailSent == nil || *res.EmailSent {
		t.Error("expected emailSent=false when email is not configured")
	}
}

func TestSubmit_SecondaryEmailFailureIsNotFatal(t *testing.T) {
	tests := []struct {
		name   string
		mailer *fakeMailer
	}{
		{"error", &fakeMailer{configured: true, err: errors.New("boom")}},
		{"panic", &fakeMailer{configured: true, panicWith: "send exploded"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &fakeTable{configured: true, id: "recXYZ"}
			p := newTestPipeline(Options{Table: table, Mailer: tt.mailer, Notify: notify})

			res, err := p.Submit(context.Background(), Input{Body: validBody})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.Success || res.ID != "recXYZ" {
				t.Errorf("unexpected result %+v", res)
			}
			if res.EmailSent == nil || *res.EmailSent {
				t.Error("expected emailSent=false")
			}
		})
	}
}

func TestSubmit_TableFailureSkipsEmail(t *testing.T) {
	var logs bytes.Buffer
	table := &fakeTable{configured: true, err: &airtable.APIError{StatusCode: 422, Body: `{"error":"INVALID_VALUE"}`}}
	mailer := &fakeMailer{configured: true}
	p := NewPipeline(Options{Table: table, Mailer: mailer, Notify: notify, Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	_, err := p.Submit(context.Background(), Input{Body: validBody})
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ce.Kind != KindSinkUnavailable || ce.Message != MsgSaveFailed {
		t.Errorf("unexpected error %+v", ce)
	}
	if strings.Contains(ce.Message, "INVALID_VALUE") {
		t.Error("upstream body leaked into the caller message")
	}
	if mailer.calls != 0 {
		t.Errorf("expected no email after a failed save, got %d", mailer.calls)
	}
	if !strings.Contains(logs.String(), "INVALID_VALUE") {
		t.Error("expected upstream body in server logs")
	}
}

func TestSubmit_InvalidInputMakesNoCalls(t *testing.T) {
	verifier := &fakeVerifier{configured: true, result: &turnstile.Result{Success: true}}
	table := &fakeTable{configured: true, id: "rec"}
	mailer := &fakeMailer{configured: true, id: "msg"}
	p := newTestPipeline(Options{CaptchaRequired: true, Verifier: verifier, Table: table, Mailer: mailer, Notify: notify})

	for _, body := range [][]byte{invalidBody, []byte(`nope`)} {
		if _, err := p.Submit(context.Background(), Input{Body: body}); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
	if verifier.calls+table.calls+mailer.calls != 0 {
		t.Errorf("expected no outbound calls, got verify=%d table=%d mail=%d", verifier.calls, table.calls, mailer.calls)
	}
}

func TestSubmit_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no sinks", Options{}},
		{"mailer without key", Options{Mailer: &fakeMailer{}, Notify: notify}},
		{"mailer without recipient", Options{Mailer: &fakeMailer{configured: true}, Notify: email.NotifyConfig{From: "a@b.co"}}},
		{"table without credentials", Options{Table: &fakeTable{}}},
		{"captcha without secret", Options{CaptchaRequired: true, Verifier: &fakeVerifier{}, Mailer: &fakeMailer{configured: true}, Notify: notify}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(tt.opts)
			_, err := p.Submit(context.Background(), Input{Body: validBody})
			if KindOf(err) != KindConfiguration {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ce *Error
			errors.As(err, &ce)
			if ce.Message != MsgConfiguration {
				t.Errorf("unexpected message %q", ce.Message)
			}
		})
	}
}

func TestSubmit_FieldErrorsBeforeConfiguration(t *testing.T) {
	p := newTestPipeline(Options{})

	_, err := p.Submit(context.Background(), Input{Body: invalidBody})
	if KindOf(err) != KindInvalidField {
		t.Errorf("expected invalid field before configuration check, got %v", err)
	}
}

func TestSubmit_CaptchaRejected(t *testing.T) {
	verifier := &fakeVerifier{configured: true, result: &turnstile.Result{ErrorCodes: []string{"invalid-input-response"}}}
	table := &fakeTable{configured: true, id: "rec"}
	mailer := &fakeMailer{configured: true, id: "msg"}
	p := newTestPipeline(Options{CaptchaRequired: true, Verifier: verifier, Table: table, Mailer: mailer, Notify: notify})

	_, err := p.Submit(context.Background(), Input{Body: validBody, RemoteIP: "203.0.113.9"})
	if KindOf(err) != KindCaptchaRejected {
		t.Fatalf("expected captcha rejection, got %v", err)
	}
	if table.calls+mailer.calls != 0 {
		t.Errorf("no sink should be called after a rejected token, got table=%d mail=%d", table.calls, mailer.calls)
	}
	if verifier.token != "tok-123" || verifier.remoteIP != "203.0.113.9" {
		t.Errorf("unexpected verify args token=%q ip=%q", verifier.token, verifier.remoteIP)
	}
}

func TestSubmit_CaptchaUnavailable(t *testing.T) {
	verifier := &fakeVerifier{configured: true, err: errors.New("dial tcp: timeout")}
	mailer := &fakeMailer{configured: true, id: "msg"}
	p := newTestPipeline(Options{CaptchaRequired: true, Verifier: verifier, Mailer: mailer, Notify: notify})

	_, err := p.Submit(context.Background(), Input{Body: validBody})
	if KindOf(err) != KindUpstreamUnavailable {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if mailer.calls != 0 {
		t.Errorf("expected no send, got %d", mailer.calls)
	}
}

func TestSubmit_CaptchaAccepted(t *testing.T) {
	verifier := &fakeVerifier{configured: true, result: &turnstile.Result{Success: true}}
	mailer := &fakeMailer{configured: true, id: "msg_ok"}
	p := newTestPipeline(Options{CaptchaRequired: true, Verifier: verifier, Mailer: mailer, Notify: notify})

	res, err := p.Submit(context.Background(), Input{Body: validBody})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "msg_ok" || verifier.calls != 1 {
		t.Errorf("unexpected result %+v (verify calls %d)", res, verifier.calls)
	}
}

func TestSubmit_Concurrent(t *testing.T) {
	table := &fakeTable{configured: true, id: "rec"}
	mailer := &fakeMailer{configured: true, id: "msg"}
	p := newTestPipeline(Options{Table: table, Mailer: mailer, Notify: notify})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Submit(context.Background(), Input{Body: validBody}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if table.calls != 20 || mailer.calls != 20 {
		t.Errorf("expected 20 calls each, got table=%d mail=%d", table.calls, mailer.calls)
	}
}

func TestRecordFields_NoSubject(t *testing.T) {
	v := NewValidator(false)
	sub, err := v.Parse([]byte(`{"name":"A","email":"a@b.co","message":"Hi"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := RecordFields(sub, time.Date(2024, 1, 2, 3, 4, 5, 6000000, time.FixedZone("X", 3600)))
	if fields["Subject"] != "" {
		t.Errorf("expected empty subject, got %v", fields["Subject"])
	}
	if fields["Submitted At"] != "2024-01-02T02:04:05.006Z" {
		t.Errorf("unexpected timestamp %v", fields["Submitted At"])
	}
}
