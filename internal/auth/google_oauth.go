package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	authmw "github.com/certdrill/certdrill/internal/auth/middleware"
	"github.com/certdrill/certdrill/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func oauthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// /auth/google/login → redirect to Google's consent screen.
func GoogleLoginHandler(cfg config.Config) http.HandlerFunc {
	conf := oauthConfig(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		// Caller can pass where to land after sign-in (defaults to PUBLIC_URL).
		next := r.URL.Query().Get("redirect")
		if next == "" && r.Referer() != "" {
			next = r.Referer()
		}
		if next == "" {
			base := strings.TrimRight(cfg.PublicURL, "/")
			if base == "" {
				base = "/"
			}
			next = base + "/"
		}
		if !sameOriginOrLocal(next, cfg.PublicURL) {
			http.Error(w, "bad redirect", http.StatusBadRequest)
			return
		}

		state := fmt.Sprintf("s-%d", time.Now().UnixNano())
		http.SetCookie(w, &http.Cookie{
			Name:     "cd_oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		http.SetCookie(w, &http.Cookie{
			Name:     "cd_post_auth_redirect",
			Value:    url.QueryEscape(next),
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})

		opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
		if cfg.GoogleAllowedHD != "" {
			opts = append(opts, oauth2.SetAuthURLParam("hd", cfg.GoogleAllowedHD))
		}
		http.Redirect(w, r, conf.AuthCodeURL(state, opts...), http.StatusFound)
	}
}

// /auth/google/callback → exchange the code, verify the id_token, upsert the
// user and mint an internal JWT.
func GoogleCallbackHandler(a *authmw.AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	conf := oauthConfig(cfg)
	type tokenInfo struct {
		Iss   string `json:"iss"`
		Aud   string `json:"aud"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Hd    string `json:"hd"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if c, err := r.Cookie("cd_oauth_state"); err != nil || state == "" || c.Value != state {
			http.Error(w, "bad state", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		tok, err := conf.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "token exchange error", http.StatusBadGateway)
			return
		}
		idToken, _ := tok.Extra("id_token").(string)
		if idToken == "" {
			http.Error(w, "bad token response", http.StatusBadGateway)
			return
		}

		// Server-side verification via Google's tokeninfo endpoint.
		tiResp, err := http.Get("https://oauth2.googleapis.com/tokeninfo?id_token=" + url.QueryEscape(idToken))
		if err != nil {
			http.Error(w, "tokeninfo fetch error", http.StatusBadGateway)
			return
		}
		defer tiResp.Body.Close()
		var ti tokenInfo
		if err := json.NewDecoder(tiResp.Body).Decode(&ti); err != nil {
			http.Error(w, "tokeninfo parse error", http.StatusBadGateway)
			return
		}
		if ti.Aud != cfg.GoogleClientID {
			http.Error(w, "invalid aud", http.StatusUnauthorized)
			return
		}
		if ti.Iss != "accounts.google.com" && ti.Iss != "https://accounts.google.com" {
			http.Error(w, "invalid iss", http.StatusUnauthorized)
			return
		}
		if cfg.GoogleAllowedHD != "" && !strings.EqualFold(ti.Hd, cfg.GoogleAllowedHD) {
			http.Error(w, "unauthorized domain", http.StatusUnauthorized)
			return
		}

		userID, role, err := upsertGoogleUser(r.Context(), db, "google|"+ti.Sub, ti.Email)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		jwtTok, err := a.IssueJWT(userID, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "cd_access_token",
			Value:    jwtTok,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(8 * time.Hour),
		})

		target := ""
		if c, err := r.Cookie("cd_post_auth_redirect"); err == nil {
			if raw, _ := url.QueryUnescape(c.Value); raw != "" {
				target = raw
			}
		}
		if target == "" || !sameOriginOrLocal(target, cfg.PublicURL) {
			target = strings.TrimRight(cfg.PublicURL, "/") + "/"
		}

		http.SetCookie(w, &http.Cookie{Name: "cd_oauth_state", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
		http.SetCookie(w, &http.Cookie{Name: "cd_post_auth_redirect", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})

		// Append ?access_token= so the SPA can pick it up on load.
		u, _ := url.Parse(target)
		q := u.Query()
		q.Set("access_token", jwtTok)
		u.RawQuery = q.Encode()
		http.Redirect(w, r, u.String(), http.StatusFound)
	}
}

// upsertGoogleUser resolves a verified Google identity to a local account.
// First sign-in creates a student row keyed by subject (the bcrypt hash stays
// empty, so the row cannot be used for local login); later sign-ins return the
// stored id and role, which may have been elevated since.
func upsertGoogleUser(ctx context.Context, db *sql.DB, subjectID, username string) (id, role string, err error) {
	id, role = subjectID, "student"

	var existingID, existingRole string
	err = db.QueryRowContext(ctx,
		`SELECT id, role FROM users WHERE username=$1`, username).Scan(&existingID, &existingRole)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx,
			`INSERT INTO users (id, username, role, created_at) VALUES ($1, $2, $3, $4)`,
			id, username, role, time.Now().Unix())
		if err != nil {
			return "", "", fmt.Errorf("create google user: %w", err)
		}
	case err != nil:
		return "", "", err
	default:
		id = existingID
		if existingRole != "" {
			role = existingRole
		}
	}
	return id, role, nil
}

// Only same-origin as PUBLIC_URL, relative paths, or localhost (dev).
func sameOriginOrLocal(target, publicURL string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	base, err := url.Parse(publicURL)
	if err != nil || base.Host == "" {
		return true
	}
	return u.Host == "" ||
		(u.Scheme == base.Scheme && u.Host == base.Host) ||
		strings.HasPrefix(u.Host, "localhost")
}
