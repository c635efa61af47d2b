package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const verificationTTL = 30 * time.Minute

// OTPHTTP keeps the verification state in a signed cookie so the server
// holds nothing per visitor except the codes themselves.
type OTPHTTP struct {
	Svc    *service.VerificationService
	Secret []byte
}

type otpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *OTPHTTP) claims(c echo.Context) tokens.VerificationClaims {
	ck, err := c.Cookie(tokens.VerificationCookie)
	if err != nil || ck.Value == "" {
		return tokens.VerificationClaims{}
	}
	v, err := tokens.VerificationClaimsFromToken(ck.Value, h.Secret)
	if err != nil {
		return tokens.VerificationClaims{}
	}
	return *v
}

func (h *OTPHTTP) save(c echo.Context, v tokens.VerificationClaims) error {
	exp := time.Now().Add(verificationTTL)
	tok, err := tokens.NewVerificationToken(v, exp, h.Secret)
	if err != nil {
		return err
	}
	c.SetCookie(tokens.CreateCookie(tokens.VerificationCookie, tok, "/", exp))
	return nil
}

func (h *OTPHTTP) reply(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "otp")
	status, msg := statusAndMessage(err)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return c.JSON(status, otpResponse{Success: false, Message: msg})
}

func (h *OTPHTTP) SendEmail(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, otpResponse{Message: "invalid body"})
	}

	v, err := h.Svc.SendEmailOTP(ctx, h.claims(c), req.Email)
	if err != nil {
		return h.reply(c, "send_email_otp_error", err)
	}
	if err := h.save(c, v); err != nil {
		return h.reply(c, "send_email_otp_error", err)
	}
	return c.JSON(http.StatusOK, otpResponse{Success: true, Message: service.MsgEmailOTPSent})
}

func (h *OTPHTTP) SendPhone(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Phone string `json:"phone" form:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, otpResponse{Message: "invalid body"})
	}

	v, err := h.Svc.SendPhoneOTP(ctx, h.claims(c), req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, otpResponse{Message: service.MsgInvalidPhone})
		}
		return h.reply(c, "send_phone_otp_error", err)
	}
	if err := h.save(c, v); err != nil {
		return h.reply(c, "send_phone_otp_error", err)
	}
	return c.JSON(http.StatusOK, otpResponse{Success: true, Message: service.MsgPhoneOTPSent})
}

// Verify answers with the store's own message whether or not the code matched.
func (h *OTPHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "otp.verify")

	var req struct {
		Type string `json:"type" form:"type"`
		OTP  string `json:"otp"  form:"otp"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, otpResponse{Message: "invalid body"})
	}

	v, res, err := h.Svc.Verify(ctx, h.claims(c), req.Type, req.OTP)
	if err != nil {
		status, _ := statusAndMessage(err)
		l.Warn("verify_otp_failed", "status", status, "type", req.Type, "error", err)
		return c.JSON(status, otpResponse{Success: false, Message: res.Message})
	}
	if err := h.save(c, v); err != nil {
		return h.reply(c, "verify_otp_error", err)
	}

	l.Info("verify_otp_success", "type", req.Type)
	return c.JSON(http.StatusOK, otpResponse{Success: true, Message: res.Message})
}

func (h *OTPHTTP) Status(c echo.Context) error {
	v := h.claims(c)
	return c.JSON(http.StatusOK, echo.Map{
		"email_verified": v.EmailVerified,
		"phone_verified": v.PhoneVerified,
		"verified":       v.Verified(),
	})
}

func (h *OTPHTTP) Reset(c echo.Context) error {
	h.Svc.Reset(c.Request().Context(), h.claims(c))
	c.SetCookie(tokens.DeleteCookie(tokens.VerificationCookie, "/"))
	return c.JSON(http.StatusOK, otpResponse{Success: true, Message: "Verification reset."})
}
