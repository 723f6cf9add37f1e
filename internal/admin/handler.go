// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/tablehost/admin-api/internal/core"
	"github.com/tablehost/admin-api/internal/middleware"
	"github.com/tablehost/admin-api/internal/user"
)

// Wire contract of the deletion endpoint. These strings and the permissive
// CORS headers are consumed by existing dashboard clients and must not
// change.
const (
	msgNoAuthHeader   = "No authorization header."
	msgInvalidToken   = "Invalid token."
	msgNotSuperadmin  = "Unauthorized. Only superadmin can delete users."
	msgMissingUserID  = "Missing required field: userId"
	msgOwnershipQuery = "Error al verificar los restaurantes del usuario"
	msgDeletedOK      = "User deleted successfully"

	fmtOwnershipBlock = "No se puede eliminar el usuario porque es propietario de %d restaurante(s). Transfiera o elimine esos restaurantes primero."
	fmtProfileDelete  = "Error al eliminar el usuario: %v"
	fmtIdentityDelete = "Error al eliminar la cuenta de autenticación: %v"
)

type Handler struct {
	service    *Service
	verifier   middleware.TokenVerifier
	validator  *validator.Validate
	logger     *slog.Logger
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	dbPing     func(ctx context.Context) error
	redisPing  func(ctx context.Context) error
}

type HandlerConfig struct {
	Service    *Service
	Verifier   middleware.TokenVerifier
	Logger     *slog.Logger
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:    cfg.Service,
		verifier:   cfg.Verifier,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		dbPing:     cfg.DBPing,
		redisPing:  cfg.RedisPing,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, superadminOnly, cors func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		// The deletion endpoint manages its own auth and CORS contract,
		// so it sits outside the middleware chain.
		r.HandleFunc("/users/delete", h.DeleteUser)

		r.Group(func(r chi.Router) {
			r.Use(cors)
			r.Use(authenticator)
			r.Use(superadminOnly)

			r.Get("/users/{userID}/eligibility", h.CheckEligibility)
			r.Get("/stats", h.GetSystemStats)
		})
	})
}

// DeleteUser is a linear pipeline with early-exit branches: authenticate,
// authorize, validate, check ownership, clean up tickets, delete the profile
// row, delete the auth identity. Every path terminates in a response.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	setPermissiveCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()

	if r.Header.Get("Authorization") == "" {
		h.logger.Info("user deletion: no authorization header", "step", 2)
		writeRaw(w, http.StatusUnauthorized, ErrorResponse{Error: msgNoAuthHeader})
		return
	}

	ident, err := h.verifier.VerifyToken(ctx, middleware.ExtractToken(r))
	if err != nil {
		h.logger.Info("user deletion: token rejected",
			"step", 2,
			"error", err,
		)
		writeRaw(w, http.StatusUnauthorized, ErrorResponse{Error: msgInvalidToken})
		return
	}

	role, err := h.service.RoleOf(ctx, ident.ID)
	if err != nil || role != user.RoleSuperadmin {
		h.logger.Info("user deletion: caller is not superadmin",
			"step", 3,
			"caller_id", ident.ID,
			"role", role,
		)
		writeRaw(w, http.StatusForbidden, ErrorResponse{Error: msgNotSuperadmin})
		return
	}

	var req DeleteUserRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		// Malformed body surfaces the decode failure, matching the
		// blanket-handler behavior clients already depend on.
		h.logger.Error("user deletion: unreadable request body",
			"step", 4,
			"error", decodeErr,
		)
		writeRaw(w, http.StatusInternalServerError, ErrorResponse{
			Error: decodeErr.Error(),
		})
		return
	}

	if validateErr := h.validator.Struct(req); validateErr != nil {
		h.logger.Info("user deletion: missing userId", "step", 4)
		writeRaw(w, http.StatusBadRequest, ErrorResponse{Error: msgMissingUserID})
		return
	}

	h.logger.Info("user deletion: request accepted",
		"step", 4,
		"caller_id", ident.ID,
		"target_id", req.UserID,
	)

	owned, err := h.service.OwnedRestaurants(ctx, req.UserID)
	if err != nil {
		h.logger.Error("user deletion: ownership check failed",
			"step", 5,
			"target_id", req.UserID,
			"error", err,
		)
		writeRaw(w, http.StatusInternalServerError, ErrorResponse{
			Error: msgOwnershipQuery,
		})
		return
	}

	if len(owned) > 0 {
		h.logger.Info("user deletion: blocked by restaurant ownership",
			"step", 5,
			"target_id", req.UserID,
			"owned_count", len(owned),
		)
		writeRaw(w, http.StatusBadRequest, OwnershipConflictResponse{
			Error:            fmt.Sprintf(fmtOwnershipBlock, len(owned)),
			CannotDelete:     true,
			Reason:           "owner",
			OwnedRestaurants: toOwnedRestaurants(owned),
		})
		return
	}

	if err := h.service.Delete(ctx, req.UserID); err != nil {
		core.SetSpanError(ctx, err)
		h.writeDeletionFailure(w, req.UserID, err)
		return
	}

	h.logger.Info("user deletion: completed",
		"step", 9,
		"target_id", req.UserID,
	)
	writeRaw(w, http.StatusOK, DeleteUserResponse{
		Success: true,
		Message: msgDeletedOK,
	})
}

func (h *Handler) writeDeletionFailure(
	w http.ResponseWriter,
	userID string,
	err error,
) {
	var stageErr *DeletionError
	if !errors.As(err, &stageErr) {
		h.logger.Error("user deletion: unexpected failure",
			"target_id", userID,
			"error", err,
		)
		writeRaw(w, http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	h.logger.Error("user deletion: cascade stage failed",
		"stage", string(stageErr.Stage),
		"target_id", userID,
		"error", stageErr.Err,
	)

	format := fmtProfileDelete
	if stageErr.Stage == StageIdentity {
		format = fmtIdentityDelete
	}

	writeRaw(w, http.StatusInternalServerError, ErrorResponse{
		Error: fmt.Sprintf(format, stageErr.Err),
	})
}

// CheckEligibility is a dry-run companion to DeleteUser: it reports whether
// the ownership precondition would block deletion, without touching anything.
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	owned, err := h.service.OwnedRestaurants(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := EligibilityResponse{
		UserID:    userID,
		CanDelete: len(owned) == 0,
	}
	if len(owned) > 0 {
		resp.Reason = "owner"
		resp.OwnedRestaurants = toOwnedRestaurants(owned)
	}

	core.OK(w, resp)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := h.dbPing != nil && h.dbPing(ctx) == nil
	redisHealthy := h.redisPing != nil && h.redisPing(ctx) == nil

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatsResponse{
		Database: DependencyStatus{Healthy: dbHealthy},
		Redis:    DependencyStatus{Healthy: redisHealthy},
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     memStats.Alloc,
			NumGC:        memStats.NumGC,
		},
	}

	if h.dbStats != nil {
		stats := h.dbStats()
		response.Database.Connections = &ConnectionStats{
			Open:  stats.OpenConnections,
			InUse: stats.InUse,
			Idle:  stats.Idle,
		}
	}

	if h.redisStats != nil {
		stats := h.redisStats()
		response.Redis.Connections = &ConnectionStats{
			Open:  int(stats.TotalConns),
			Idle:  int(stats.IdleConns),
			InUse: int(stats.TotalConns - stats.IdleConns),
		}
	}

	core.OK(w, response)
}

type SystemStatsResponse struct {
	Database DependencyStatus `json:"database"`
	Redis    DependencyStatus `json:"redis"`
	Runtime  RuntimeStats     `json:"runtime"`
}

type DependencyStatus struct {
	Healthy     bool             `json:"healthy"`
	Connections *ConnectionStats `json:"connections,omitempty"`
}

type ConnectionStats struct {
	Open  int `json:"open"`
	InUse int `json:"in_use"`
	Idle  int `json:"idle"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

func setPermissiveCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set(
		"Access-Control-Allow-Headers",
		"Content-Type, Authorization, X-Client-Info, Apikey",
	)
}

func writeRaw(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}
