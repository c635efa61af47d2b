package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/events/eventstest"
	"github.com/Skotchmaster/storefront/internal/otp"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type sent struct {
	to, msg string
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (c *fakeChannel) Send(_ context.Context, to, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sent{to, msg})
	return nil
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"9876543210", "+919876543210"},
		{"(987) 654-3210", "+919876543210"},
		{"+1 415 555 0100", "+14155550100"},
		{"919876543210", "+919876543210"},
		{"+919876543210", "+919876543210"},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in, "91"), tt.in)
	}
	assert.Equal(t, "+449876543210", NormalizePhone("9876543210", "+44"))
	assert.Equal(t, "+919876543210", NormalizePhone("9876543210", ""))
}

func TestIssueEmail_StoresAndSends(t *testing.T) {
	t.Parallel()

	store := otp.New()
	email := &fakeChannel{}
	d := &Dispatcher{Store: store, Email: email}

	code, err := d.IssueEmail(context.Background(), "reader@example.com")
	require.NoError(t, err)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "reader@example.com", email.sent[0].to)
	assert.Contains(t, email.sent[0].msg, code)
	assert.True(t, store.Has("reader@example.com"))
}

func TestIssuePhone_KeysByRawNumberSendsNormalized(t *testing.T) {
	t.Parallel()

	store := otp.New()
	sms := &fakeChannel{}
	d := &Dispatcher{Store: store, SMS: sms, CountryCode: "91"}

	code, err := d.IssuePhone(context.Background(), "9876543210")
	require.NoError(t, err)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+919876543210", sms.sent[0].to)
	assert.Contains(t, sms.sent[0].msg, code)

	res, err := store.Verify("9876543210", code)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestDelivery_FailureIsAbsorbed(t *testing.T) {
	t.Parallel()

	store := otp.New()
	d := &Dispatcher{
		Store: store,
		Email: &fakeChannel{err: errors.New("smtp down")},
	}
	ctx := logging.IntoContext(context.Background(), logging.Discard())

	code, err := d.IssueEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.True(t, store.Has("a@b.c"), "code is kept even if delivery fails")

	// no SMS channel configured: falls back to the log
	_, err = d.IssuePhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, store.Has("9876543210"))
}

func TestIssue_EmptyKeyRejected(t *testing.T) {
	t.Parallel()

	d := &Dispatcher{Store: otp.New(), Email: &fakeChannel{}}
	_, err := d.IssueEmail(context.Background(), "")
	assert.ErrorIs(t, err, otp.ErrInvalidInput)
}

func TestSendWelcome(t *testing.T) {
	t.Parallel()

	email := &fakeChannel{}
	d := &Dispatcher{Store: otp.New(), Email: email}
	d.SendWelcome(context.Background(), "a@b.c", "alice")
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].msg, "alice")

	failing := &Dispatcher{Email: &fakeChannel{err: errors.New("x")}}
	failing.SendWelcome(logging.IntoContext(context.Background(), logging.Discard()), "a@b.c", "alice")
}

func TestKafkaChannel(t *testing.T) {
	t.Parallel()

	rec := &eventstest.Recorder{}
	ch := &KafkaChannel{Publisher: rec, Kind: "sms"}
	require.NoError(t, ch.Send(context.Background(), "+919876543210", "code 123456"))

	got := rec.Events()
	require.Len(t, got, 1)
	assert.Equal(t, events.TopicNotifications, got[0].Topic)
	assert.Equal(t, "+919876543210", got[0].Key)
	m := got[0].Event.(map[string]any)
	assert.Equal(t, "sms", m["channel"])
	assert.Equal(t, "code 123456", m["message"])
	assert.NotEmpty(t, m["id"])
}

func TestWebhookChannel(t *testing.T) {
	t.Parallel()

	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "email")
	require.NoError(t, ch.Send(context.Background(), "a@b.c", "hi"))
	assert.Equal(t, webhookPayload{Channel: "email", Destination: "a@b.c", Message: "hi"}, got)
}

func TestWebhookChannel_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookChannel(srv.URL, "sms").Send(context.Background(), "+1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLogChannel_NeverFails(t *testing.T) {
	t.Parallel()

	ch := &LogChannel{Logger: logging.Discard(), Kind: "email"}
	assert.NoError(t, ch.Send(context.Background(), "a@b.c", "hi"))
	assert.NoError(t, (&LogChannel{}).Send(context.Background(), "a@b.c", "hi"))
}

func TestIssueEmail_KafkaWithoutBrokersLogsCode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&buf, "info"))
	d := &Dispatcher{Store: otp.New(), Email: &KafkaChannel{Publisher: events.Nop{}, Kind: "email"}}

	code, err := d.IssueEmail(ctx, "a@b.c")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "otp_fallback")
	assert.Contains(t, out, code)
	assert.NotContains(t, out, `"msg":"otp_sent"`)
}

func TestKafkaChannel_NoPublisher(t *testing.T) {
	t.Parallel()

	for _, p := range []events.Publisher{nil, events.Nop{}, &events.Nop{}} {
		err := (&KafkaChannel{Publisher: p, Kind: "sms"}).Send(context.Background(), "+1", "hi")
		assert.ErrorIs(t, err, ErrNoPublisher)
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	l := logging.Discard()
	rec := &eventstest.Recorder{}

	email, sms := Select(true, "http://hook", rec, l)
	assert.IsType(t, &LogChannel{}, email)
	assert.IsType(t, &LogChannel{}, sms)

	email, _ = Select(false, "http://hook", rec, l)
	assert.IsType(t, &WebhookChannel{}, email)

	email, _ = Select(false, "", rec, l)
	assert.IsType(t, &KafkaChannel{}, email)

	email, sms = Select(false, "", events.Nop{}, l)
	assert.IsType(t, &LogChannel{}, email)
	assert.IsType(t, &LogChannel{}, sms)
}
