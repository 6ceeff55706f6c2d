package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"egadget-storefront/internal/auth"
)

type userJSON struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func (a account) toJSON() userJSON {
	return userJSON{ID: a.id, Name: a.name, Email: a.email, CreatedAt: a.createdAt.Format(time.RFC3339)}
}

// SeedUser adds an account directly, for demo data.
func (h *Handler) SeedUser(name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.addAccountLocked(name, email, hash)
	return nil
}

func (h *Handler) addAccountLocked(name, email string, hash []byte) account {
	a := account{id: h.nextUserID, name: name, email: email, passwordHash: hash, createdAt: time.Now().UTC()}
	h.nextUserID++
	h.accounts = append(h.accounts, a)
	return a
}

func (h *Handler) findByEmailLocked(email string) (account, bool) {
	for _, a := range h.accounts {
		if strings.EqualFold(a.email, email) {
			return a, true
		}
	}
	return account{}, false
}

func (h *Handler) findByID(id string) (account, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return account{}, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, a := range h.accounts {
		if a.id == n {
			return a, true
		}
	}
	return account{}, false
}

// currentUser resolves the account behind a validated token, writing a 401
// when it no longer exists.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (account, bool) {
	id, _ := auth.UserIDFromContext(r.Context())
	a, ok := h.findByID(id)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "User not found", "authenticated": false})
		return account{}, false
	}
	return a, true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == nil || req.Email == nil || req.Password == nil {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), h.bcryptCost)
	if err != nil {
		slog.Error("Password hashing failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.mu.Lock()
	if _, exists := h.findByEmailLocked(*req.Email); exists {
		h.mu.Unlock()
		writeMessage(w, http.StatusConflict, "User with this email already exists")
		return
	}
	created := h.addAccountLocked(*req.Name, *req.Email, hash)
	h.mu.Unlock()

	token, err := h.tokens.IssueToken(strconv.Itoa(created.id))
	if err != nil {
		slog.Error("Token signing failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	slog.Info("User registered", "user_id", created.id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"token":   token,
		"user":    created.toJSON(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == nil || req.Password == nil {
		writeMessage(w, http.StatusBadRequest, "Missing email or password")
		return
	}

	h.mu.Lock()
	a, ok := h.findByEmailLocked(*req.Email)
	h.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(a.passwordHash, []byte(*req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.IssueToken(strconv.Itoa(a.id))
	if err != nil {
		slog.Error("Token signing failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    a.toJSON(),
	})
}

// Check never fails: any problem with the token reads as unauthenticated.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	id, err := h.tokens.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	a, ok := h.findByID(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": a.toJSON()})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": a.toJSON()})
}
