package submission

import (
	"encoding/json"
	"net/http"
	"time"
)

// NewHTTPHandler exposes Server over HTTP as a concrete transport for the
// "secured structured-node server" method surface spec.md §6 describes in
// protocol-neutral terms. A real field deployment may additionally expose
// these methods over its own secured node server; this gateway's issuers
// reach them here.
func NewHTTPHandler(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/submit", s.handleSubmit)
	mux.HandleFunc("/users/add", s.handleAddUser)
	mux.HandleFunc("/users/remove", s.handleRemoveUser)
	mux.HandleFunc("/users/update-secret", s.handleUpdateUserSecret)
	mux.HandleFunc("/users/exists", s.handleCheckUserExists)
	mux.HandleFunc("/users/list", s.handleListUsers)
	mux.HandleFunc("/users/set-role", s.handleSetUserRole)
	mux.HandleFunc("/users/details", s.handleGetUserDetails)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type submitRequest struct {
	IssuerID     string    `json:"issuer_id"`
	Credentials  string    `json:"credentials"`
	Timestamp    time.Time `json:"timestamp"`
	Descriptions []string  `json:"descriptions"`
	Impact       string    `json:"impact"`
	Parameter    string    `json:"parameter"`
	Modification string    `json:"modification"`
	Priority     int       `json:"priority"`
}

type submitResponse struct {
	RequestID    string `json:"request_id"`
	ServerTime   string `json:"server_timestamp"`
	Notification string `json:"notification"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	requestID, serverTimestamp, notification, err := s.Submit(
		r.Context(), req.IssuerID, req.Credentials, req.Timestamp,
		req.Descriptions, req.Impact, req.Parameter, req.Modification, req.Priority,
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{RequestID: requestID, ServerTime: serverTimestamp, Notification: notification})
}

type adminUserRequest struct {
	AdminID     string `json:"admin_id"`
	AdminSecret string `json:"admin_secret"`
	UserID      string `json:"user_id"`
	Secret      string `json:"secret,omitempty"`
	NewSecret   string `json:"new_secret,omitempty"`
	Role        string `json:"role,omitempty"`
}

func decodeAdminUserRequest(w http.ResponseWriter, r *http.Request) (adminUserRequest, bool) {
	var req adminUserRequest
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return req, false
	}
	return req, true
}

func statusFor(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusForbidden
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAdminUserRequest(w, r)
	if !ok {
		return
	}
	added, message := s.AddUser(r.Context(), req.AdminID, req.AdminSecret, req.UserID, req.Secret)
	writeJSON(w, statusFor(added), map[string]string{"message": message})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAdminUserRequest(w, r)
	if !ok {
		return
	}
	removed, message := s.RemoveUser(r.Context(), req.AdminID, req.AdminSecret, req.UserID)
	writeJSON(w, statusFor(removed), map[string]string{"message": message})
}

func (s *Server) handleUpdateUserSecret(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAdminUserRequest(w, r)
	if !ok {
		return
	}
	updated, message := s.UpdateUserSecret(r.Context(), req.UserID, req.Secret, req.NewSecret)
	writeJSON(w, statusFor(updated), map[string]string{"message": message})
}

func (s *Server) handleCheckUserExists(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	exists, message := s.CheckUserExists(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists, "message": message})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAdminUserRequest(w, r)
	if !ok {
		return
	}
	users, message, err := s.ListUsers(r.Context(), req.AdminID, req.AdminSecret)
	writeJSON(w, statusFor(err == nil), map[string]any{"users": users, "message": message})
}

func (s *Server) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAdminUserRequest(w, r)
	if !ok {
		return
	}
	set, message := s.SetUserRole(r.Context(), req.AdminID, req.AdminSecret, req.UserID, req.Role)
	writeJSON(w, statusFor(set), map[string]string{"message": message})
}

func (s *Server) handleGetUserDetails(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAdminUserRequest(w, r)
	if !ok {
		return
	}
	details, message, err := s.GetUserDetails(r.Context(), req.AdminID, req.AdminSecret, req.UserID)
	writeJSON(w, statusFor(err == nil), map[string]any{"details": details, "message": message})
}
