package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/aiproductiv/backend/internal/auth"
	"github.com/aiproductiv/backend/internal/core"
	"github.com/aiproductiv/backend/internal/store"
)

type APIHandler struct {
	dbStore     *store.SQLiteStore
	history     *core.HistoryService
	suggestions *core.SuggestionService
	jwtSecret   string
}

func NewAPIHandler(db *store.SQLiteStore, history *core.HistoryService, suggestions *core.SuggestionService, jwtSecret string) *APIHandler {
	return &APIHandler{
		dbStore:     db,
		history:     history,
		suggestions: suggestions,
		jwtSecret:   jwtSecret,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(h.jwtSecret, tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.dbStore.GetUserByID(r.Context(), userID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %d: %v", userID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		ctx = context.WithValue(ctx, "userName", user.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}
	if !emailPattern.MatchString(req.Email) {
		http.Error(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	existing, err := h.dbStore.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Error checking existing user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "User with this email already exists", http.StatusConflict)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.Email, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.dbStore.CreateUser(r.Context(), req.Name, req.Email, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.dbStore.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(h.jwtSecret, user.ID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.Email, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

type SubmitRequest struct {
	UserInput   store.SituationalInput `json:"user_input"`
	History     []store.ChatEntry      `json:"history,omitempty"`
	DisplayName string                 `json:"display_name,omitempty"`
}

type SubmitResponse struct {
	AIResponse string `json:"ai_response"`
}

func (h *APIHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		if name, ok := r.Context().Value("userName").(string); ok {
			displayName = name
		}
	}

	aiResponse, err := h.suggestions.Submit(r.Context(), userID, req.UserInput, req.History, displayName)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, core.ErrUnauthorized):
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		default:
			log.Printf("Error processing submission for user %d: %v", userID, err)
			http.Error(w, "Error processing chat message", http.StatusInternalServerError)
		}
		return
	}

	json.NewEncoder(w).Encode(SubmitResponse{AIResponse: aiResponse})
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	entries, err := h.history.FetchRecent(r.Context(), userID, core.HistoryWindow)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		log.Printf("Error fetching history for user %d: %v", userID, err)
		http.Error(w, "Error fetching chat history", http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []store.ChatEntry{}
	}
	json.NewEncoder(w).Encode(entries)
}
