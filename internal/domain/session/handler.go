package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"releasedesk/internal/pkg/response"
)

// CookieConfig controls the session cookie set on sign-in.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

const DefaultCookieName = "releasedesk_session"

type Handler struct {
	service *Service
	cookie  CookieConfig
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Handler{service: service, cookie: cookie}
}

// Start godoc
// POST /api/v1/session
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	token, sess, err := h.service.Start(c.Request.Context(), StartInput{
		AccessToken:  strings.TrimSpace(req.AccessToken),
		RefreshToken: strings.TrimSpace(req.RefreshToken),
		Expiry:       req.Expiry,
		Email:        strings.TrimSpace(req.Email),
	})
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start session")
		return
	}

	h.setCookie(c, token, int(h.service.tokens.TTL().Seconds()))
	response.Success(c, http.StatusCreated, StartResponse{Token: token, Session: toResponse(sess)})
}

// Current godoc
// GET /api/v1/session
func (h *Handler) Current(c *gin.Context) {
	raw := TokenFromRequest(c, h.cookie.Name)
	if raw == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "No active session")
		return
	}

	_, sess, err := h.service.Resolve(c.Request.Context(), raw)
	if err != nil {
		if IsAuthFailure(err) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "No active session")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load session")
		return
	}

	response.Success(c, http.StatusOK, toResponse(sess))
}

// End godoc
// DELETE /api/v1/session
func (h *Handler) End(c *gin.Context) {
	if raw := TokenFromRequest(c, h.cookie.Name); raw != "" {
		if err := h.service.End(c.Request.Context(), raw); err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to end session")
			return
		}
	}

	h.setCookie(c, "", -1)
	response.Success(c, http.StatusOK, gin.H{"signed_out": true})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, value, maxAge, h.cookie.Path, "", h.cookie.Secure, true)
}

// TokenFromRequest returns the session token from the Authorization bearer
// header, falling back to the session cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(cookieName); err == nil {
		return v
	}
	return ""
}

// ParseSameSite maps a config value to http.SameSite.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
