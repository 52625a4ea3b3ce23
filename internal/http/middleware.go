package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/voicetask/internal/auth"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
)

// limiterIdleReset bounds the limiter map; all limiters are dropped when
// it elapses.
const limiterIdleReset = time.Hour

// requireAuth resolves the bearer credential to a user and stores it in
// the request context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err == nil {
			var userID string
			userID, err = s.tokens.Validate(ctx, token)
			if err == nil {
				if !logging.ValidID(userID) {
					s.logger.Error(ctx, "token maps to an invalid user id")
					return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process input"})
				}
				c.SetRequest(c.Request().WithContext(logging.WithUserID(ctx, userID)))
				return next(c)
			}
		}

		if !errors.Is(err, auth.ErrMissingToken) {
			s.logger.Warn(ctx, "rejected bearer token", zap.Error(err))
		}
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
}

// rateLimit applies the per-user token bucket. It runs after requireAuth.
func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter == nil {
			return next(c)
		}
		ctx := c.Request().Context()
		userID := logging.UserIDFromContext(ctx)

		r := s.limiter.get(userID).Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			secs := int((delay + time.Second - 1) / time.Second)
			s.logger.Warn(ctx, "rate limit exceeded", zap.Duration("retry_after", delay))
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:             "rate limit exceeded",
				RetryAfterSeconds: secs,
			})
		}
		return next(c)
	}
}

// userLimiter holds one token bucket per user.
type userLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
	rps         rate.Limit
	burst       int
}

func newUserLimiter(rps float64, burst int) *userLimiter {
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
		rps:         rate.Limit(rps),
		burst:       burst,
	}
}

func (u *userLimiter) get(userID string) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()

	if time.Since(u.lastCleanup) > limiterIdleReset {
		u.limiters = make(map[string]*rate.Limiter)
		u.lastCleanup = time.Now()
	}

	limiter, ok := u.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(u.rps, u.burst)
		u.limiters[userID] = limiter
	}
	return limiter
}
