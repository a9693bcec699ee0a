// Package handler implements the HTTP layer: request binding, auth, and
// translation between domain results and the response envelope.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/jwt"

	"github.com/h19overflow/PipeWeave/internal/config"
	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// UserHandler handles auth and account endpoints.
type UserHandler struct {
	usecase        domain.UserUsecase
	authMiddleware *jwt.HertzJWTMiddleware
	logger         *slog.Logger
}

// NewUserHandler wires the account endpoints and the JWT middleware.
func NewUserHandler(usecase domain.UserUsecase, cfg config.JWTConfig, logger *slog.Logger) (*UserHandler, error) {
	authMiddleware, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "pipeweave",
		Key:         []byte(cfg.Secret),
		Timeout:     cfg.Expiry,
		MaxRefresh:  cfg.RefreshExpiry,
		IdentityKey: "user_id",

		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			var req dto.LoginRequest
			if err := c.BindJSON(&req); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}
			user, err := usecase.Authenticate(ctx, req.Email, req.Password)
			if err != nil {
				logger.Warn("login failed", "email", req.Email, "error", err)
				return nil, jwt.ErrFailedAuthentication
			}
			c.Set("user", user)
			return user, nil
		},

		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if user, ok := data.(*entity.User); ok {
				return jwt.MapClaims{
					"user_id": user.ID,
					"email":   user.Email,
				}
			}
			return jwt.MapClaims{}
		},

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			if userID, ok := claims["user_id"].(string); ok {
				c.Set("user_id", userID)
				return userID
			}
			return ""
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			return data != nil && data != ""
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, Response{
				Code:    "UNAUTHORIZED",
				Message: message,
			})
		},

		LoginResponse: func(ctx context.Context, c *app.RequestContext, code int, token string, expire time.Time) {
			userVal, exists := c.Get("user")
			if !exists {
				c.JSON(consts.StatusInternalServerError, Response{
					Code:    "INTERNAL_ERROR",
					Message: "failed to get user info",
				})
				return
			}
			c.JSON(consts.StatusOK, Response{
				Code:    "SUCCESS",
				Message: "login successful",
				Data: dto.LoginResponse{
					Token:  token,
					Expire: expire.Format(time.RFC3339),
					User:   dto.ToUserResponse(userVal.(*entity.User)),
				},
			})
		},

		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
	})
	if err != nil {
		return nil, err
	}

	return &UserHandler{
		usecase:        usecase,
		authMiddleware: authMiddleware,
		logger:         logger,
	}, nil
}

// AuthMiddleware protects routes behind JWT authentication.
func (h *UserHandler) AuthMiddleware() app.HandlerFunc {
	return h.authMiddleware.MiddlewareFunc()
}

// Register handles POST /auth/register.
func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	user, err := h.usecase.Register(ctx, domain.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.logger.Error("register failed", "error", err)
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, dto.ToUserResponse(user))
}

// Login handles POST /auth/login through the JWT login handler.
func (h *UserHandler) Login(ctx context.Context, c *app.RequestContext) {
	h.authMiddleware.LoginHandler(ctx, c)
}

// RefreshToken handles POST /auth/refresh.
func (h *UserHandler) RefreshToken(ctx context.Context, c *app.RequestContext) {
	h.authMiddleware.RefreshHandler(ctx, c)
}

// GetCurrentUser handles GET /users/me.
func (h *UserHandler) GetCurrentUser(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	user, err := h.usecase.GetByID(ctx, userID)
	if err != nil {
		h.logger.Error("failed to get current user", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToUserResponse(user))
}

// UpdateCurrentUser handles PUT /users/me.
func (h *UserHandler) UpdateCurrentUser(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req struct {
		FullName *string `json:"full_name"`
		Password *string `json:"password"`
	}
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	user, err := h.usecase.Update(ctx, userID, domain.UpdateUserInput{
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToUserResponse(user))
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(ctx context.Context, c *app.RequestContext) {
	if _, ok := CurrentUserID(c); !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	page, pageSize := PageParams(c)
	users, total, err := h.usecase.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToUserListResponse(users, total, page, pageSize))
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(ctx context.Context, c *app.RequestContext) {
	if _, ok := CurrentUserID(c); !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	targetID := c.Param("id")
	if targetID == "" {
		ErrorResponse(c, domain.NewInvalidInputError("user id is required"))
		return
	}

	user, err := h.usecase.GetByID(ctx, targetID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToUserResponse(user))
}

// DeleteUser handles DELETE /users/:id. Self-deletion is rejected.
func (h *UserHandler) DeleteUser(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}
	targetID := c.Param("id")
	if targetID == "" {
		ErrorResponse(c, domain.NewInvalidInputError("user id is required"))
		return
	}
	if targetID == userID {
		ErrorResponse(c, domain.NewConflictError("cannot delete your own account"))
		return
	}

	if err := h.usecase.Deactivate(ctx, targetID); err != nil {
		ErrorResponse(c, err)
		return
	}
	NoContentResponse(c)
}
