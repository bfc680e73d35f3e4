package dto

import "time"

// AdminLoginRequest payload for operator login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PruneResponse reports the outcome of a manual prune run.
type PruneResponse struct {
	Pruned int64 `json:"pruned"`
}
