package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey string

const ctxSessionID ctxKey = "sessionID"

const (
	sessionCookie = "medshop_session"
	sessionTTL    = 12 * time.Hour
	staffRole     = "staff"
)

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(now time.Time) (string, time.Time, error) {
	expires := now.Add(sessionTTL)
	claims := authClaims{
		Role: staffRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   staffRole,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Secret))
	return signed, expires, err
}

func (h *Handler) parseToken(tokenString string) (*authClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok || claims.Role != staffRole {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// checkPassword compares password with the configured staff hash.
func (h *Handler) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(h.cfg.StaffPasswordHash), []byte(password)) == nil
}

func withSession(r *http.Request, claims *authClaims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxSessionID, claims.ID))
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxSessionID).(string)
	return id
}

// requireStaff guards the HTML pages with the session cookie.
func (h *Handler) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.cfg.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		claims, err := h.parseToken(cookie.Value)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, withSession(r, claims))
	})
}

// authMiddleware guards the JSON feed. It accepts a bearer token or the
// session cookie.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.cfg.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}
		var tokenString string
		header := r.Header.Get("Authorization")
		if header != "" && strings.HasPrefix(strings.ToLower(header), "bearer ") {
			tokenString = strings.TrimSpace(header[len("Bearer "):])
		} else if cookie, err := r.Cookie(sessionCookie); err == nil {
			tokenString = cookie.Value
		}
		if tokenString == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.parseToken(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, withSession(r, claims))
	})
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AuthEnabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login", page{Title: "Staff Login"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AuthEnabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login", page{Title: "Staff Login", Error: "invalid form submission"})
		return
	}
	if !h.checkPassword(r.PostForm.Get("password")) {
		h.logger.Warn("staff login rejected", zap.String("remote", r.RemoteAddr))
		h.render(w, http.StatusUnauthorized, "login", page{Title: "Staff Login", Error: "invalid credentials"})
		return
	}

	token, expires, err := h.generateToken(time.Now())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !h.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AuthEnabled() {
		respondError(w, http.StatusNotFound, "authentication is disabled")
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.checkPassword(req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, expires, err := h.generateToken(time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}
