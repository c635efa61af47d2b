package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/otp"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const DefaultCountryCode = "91"

// Dispatcher issues codes into the OTP store and pushes them out through the
// email and SMS channels. Delivery is best effort: the code is stored before
// sending, and a failed send only produces a log line carrying the code.
type Dispatcher struct {
	Store       *otp.Store
	Email       Channel
	SMS         Channel
	CountryCode string
}

// NormalizePhone strips everything but digits, prefixes the country code to
// a bare 10-digit number and makes sure the result starts with '+'.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		if countryCode == "" {
			countryCode = DefaultCountryCode
		}
		return "+" + strings.TrimPrefix(countryCode, "+") + digits
	}
	return "+" + digits
}

// IssueEmail stores a new code for address and sends it.
func (d *Dispatcher) IssueEmail(ctx context.Context, address string) (string, error) {
	code, err := d.Store.Issue(address)
	if err != nil {
		return "", err
	}
	d.SendToEmail(ctx, address, code)
	return code, nil
}

// IssuePhone stores a new code keyed by the phone number as entered and sends
// it to the normalized number.
func (d *Dispatcher) IssuePhone(ctx context.Context, phone string) (string, error) {
	code, err := d.Store.Issue(phone)
	if err != nil {
		return "", err
	}
	d.SendToPhone(ctx, phone, code)
	return code, nil
}

func (d *Dispatcher) SendToEmail(ctx context.Context, address, code string) {
	l := logging.FromContext(ctx).With("svc", "notify.email")
	if strings.TrimSpace(address) == "" {
		l.Warn("otp_email_skipped", "reason", "empty address")
		return
	}
	d.deliver(ctx, d.Email, "email", address, code, otpEmailBody(code, d.ttl()))
}

func (d *Dispatcher) SendToPhone(ctx context.Context, number, code string) {
	l := logging.FromContext(ctx).With("svc", "notify.sms")
	to := NormalizePhone(number, d.CountryCode)
	if to == "" {
		l.Warn("otp_sms_skipped", "reason", "empty phone")
		return
	}
	d.deliver(ctx, d.SMS, "sms", to, code, otpSMSBody(code, d.ttl()))
}

// SendWelcome is sent once an account is created. Failures are only logged.
func (d *Dispatcher) SendWelcome(ctx context.Context, address, username string) {
	l := logging.FromContext(ctx).With("svc", "notify.welcome")
	if d.Email == nil || address == "" {
		return
	}
	if err := d.Email.Send(ctx, address, welcomeBody(username)); err != nil {
		l.Error("welcome_send_failed", "to", address, "error", err)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, kind, to, code, body string) {
	l := logging.FromContext(ctx).With("svc", "notify."+kind)
	if ch == nil {
		l.Warn("otp_fallback", "reason", "channel not configured", "to", to, "otp", code)
		return
	}
	if err := ch.Send(ctx, to, body); err != nil {
		l.Error("otp_send_failed", "to", to, "error", err)
		l.Warn("otp_fallback", "to", to, "otp", code)
		return
	}
	l.Info("otp_sent", "to", to)
}

func (d *Dispatcher) ttl() time.Duration {
	if d.Store == nil {
		return otp.DefaultTTL
	}
	return d.Store.TTL()
}

func otpEmailBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Your one-time password for account verification is %s.\n"+
			"It is valid for %d minutes and can only be used once.\n"+
			"If you did not request this code, please ignore this message.",
		code, int(ttl.Minutes()))
}

func otpSMSBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. Valid for %d minutes.", code, int(ttl.Minutes()))
}

func welcomeBody(username string) string {
	return fmt.Sprintf("Dear %s,\nyour account has been verified. Welcome aboard!", username)
}
