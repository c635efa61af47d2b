package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AuthHTTP struct {
	Svc                *service.AuthService
	VerificationSecret []byte
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req service.SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup_error", "invalid body", err)
	}

	var v *tokens.VerificationClaims
	if ck, err := c.Cookie(tokens.VerificationCookie); err == nil && ck.Value != "" {
		claims, err := tokens.VerificationClaimsFromToken(ck.Value, h.VerificationSecret)
		if err != nil {
			l.Warn("signup_verification_cookie_invalid", "error", err)
		} else {
			v = claims
		}
	}

	user, err := h.Svc.Signup(ctx, req, v)
	if err != nil {
		return fail(l, "signup_error", err)
	}
	c.SetCookie(tokens.DeleteCookie(tokens.VerificationCookie, "/"))

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		l.Error("signup_login_error", "status", 500, "error", err)
	} else {
		c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	}

	l.Info("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	l.Info("login_successful", "user_id", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"user":     res.User,
		"is_admin": res.IsAdmin,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.logout")

	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.VerificationCookie, "/"))

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
