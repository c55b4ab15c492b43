package auth

import (
	"context"
	"errors"

	authsvc "estate-ledger/internal/application/auth"
	"estate-ledger/internal/middleware"
	"estate-ledger/internal/pkg/response"
	"estate-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Register POST /api/v1/auth/register: create account, start a session, return the user.
func (h *Handlers) Register(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.RegisterInput
	if err := c.BodyParser(&req); err != nil || req.Identity == "" || req.Password == "" {
		return response.BadRequest(c, authsvc.ErrIdentityPasswordRequired.Error())
	}
	if !validation.IsValidPassword(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters and include a letter, a number and a special character")
	}
	if req.Email != "" && !validation.IsValidEmail(req.Email) {
		return response.BadRequest(c, "Invalid email format")
	}
	if req.Fullname != "" && !validation.IsValidFullname(req.Fullname) {
		return response.BadRequest(c, "Invalid fullname")
	}

	acc, err := h.UserFinder.Register(c.Context(), req)
	switch {
	case errors.Is(err, authsvc.ErrIdentityPasswordRequired), errors.Is(err, authsvc.ErrInvalidIdentity):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, authsvc.ErrIdentityTaken):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case err != nil:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	user, err := h.startSession(c, acc)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Registration successful", fiber.Map{"user": user}, nil)
}

// Login POST /api/v1/auth/login: authenticate, create session, SAdd user_sessions:identity, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrIdentityPasswordRequired.Error())
	}
	if req.Identity == "" || req.Password == "" {
		return response.BadRequest(c, authsvc.ErrIdentityPasswordRequired.Error())
	}

	acc, err := h.UserFinder.FindByIdentityAndPassword(c.Context(), req.Identity, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrIdentityPasswordRequired:
			return response.BadRequest(c, err.Error())
		case authsvc.ErrInvalidIdentity, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	user, err := h.startSession(c, acc)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": user}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, acc *authsvc.Account) (fiber.Map, error) {
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		Identity: acc.Identity,
		Fullname: acc.Fullname,
		Email:    acc.Email,
	})
	if err := h.Rdb.SAdd(context.Background(), authsvc.UserSessionsPrefix+acc.Identity, sessionID).Err(); err != nil {
		return nil, err
	}
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return fiber.Map{
		"identity": acc.Identity,
		"fullname": acc.Fullname,
		"email":    acc.Email,
	}, nil
}

// Me GET /api/v1/auth/me: return current session user in standard success format.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	sessionUser := middleware.GetUser(c)

	if sessionID == "" {
		cookieVal := c.Cookies(middleware.SessionCookieName)
		log.Info().Str("path", "/auth/me").
			Bool("cookie_present", cookieVal != "").
			Msg("auth/me: no session id")
	}

	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: SRem user_sessions:identity, Del session key, clear cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if identity := middleware.Caller(c); identity != "" && sessionID != "" {
		_ = h.Rdb.SRem(ctx, authsvc.UserSessionsPrefix+identity, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}

	middleware.DestroySession(c)
	c.Locals("session_id", "")

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: end every session of the caller, including this one.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	identity := middleware.Caller(c)
	if identity == "" {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	n := authsvc.DestroySessions(context.Background(), h.Rdb, identity)

	middleware.DestroySession(c)
	c.Locals("session_id", "")

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "All sessions ended", fiber.Map{"sessions": n}, nil)
}
