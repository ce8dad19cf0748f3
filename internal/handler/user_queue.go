package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/virtual-waiting-room/internal/repository"
	"github.com/iliyamo/virtual-waiting-room/internal/service"
	"github.com/iliyamo/virtual-waiting-room/internal/utils"
)

// defaultQueue is used whenever a request omits the queue parameter, so a
// single-queue deployment never has to name its queue.
const defaultQueue = "default"

// tokenCookieMaxAge is the lifetime of the admission token cookie in
// seconds. The token itself never expires (it is a pure derivation); only
// the browser's copy of it does.
const tokenCookieMaxAge = 3000

// tokenCookieName returns the per-queue cookie carrying the admission token.
func tokenCookieName(queue string) string { return "user-queue-" + queue + "-token" }

// UserQueueHandler bundles dependencies for the queue API endpoints.
type UserQueueHandler struct {
	Svc   *service.AdmissionService
	Audit *repository.AuditRepo // nil when the audit trail is disabled
}

func NewUserQueueHandler(svc *service.AdmissionService, audit *repository.AuditRepo) *UserQueueHandler {
	return &UserQueueHandler{Svc: svc, Audit: audit}
}

// ----- DTOs -----

type registerResp struct {
	Queue  string `json:"queue"`
	UserID string `json:"userId"`
	Rank   int64  `json:"rank"`
}
type allowResp struct {
	RequestedCount int64 `json:"requestedCount"`
	AllowedCount   int64 `json:"allowedCount"`
}
type allowedResp struct {
	IsAllowed bool `json:"isAllowed"`
}
type rankResp struct {
	Rank int64 `json:"rank"`
}
type batchPart struct {
	Queue          string    `json:"queue"`
	RequestedCount int64     `json:"requestedCount"`
	AllowedCount   int64     `json:"allowedCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// queueParam reads the queue query parameter, falling back to the default
// queue name when absent.
func queueParam(c echo.Context) string {
	if q := c.QueryParam("queue"); q != "" {
		return q
	}
	return defaultQueue
}

// Register puts a user into a queue's wait line and returns their rank.
// Joining twice is a conflict: the user keeps their original place and the
// response carries a machine-readable code so clients can fall back to the
// rank endpoint.
func (h *UserQueueHandler) Register(c echo.Context) error {
	queue := queueParam(c)
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rank, err := h.Svc.Register(ctx, queue, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyRegistered) {
			return c.JSON(http.StatusConflict, echo.Map{
				"code":   "UQ-0001",
				"reason": "Already registered in queue",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue store unavailable"})
	}
	return c.JSON(http.StatusOK, registerResp{Queue: queue, UserID: userID, Rank: rank})
}

// Allow triggers a manual promotion batch: up to count waiting users are
// moved into the proceed set, oldest arrivals first. Admitting fewer than
// requested (including zero) is a normal outcome, not an error.
func (h *UserQueueHandler) Allow(c echo.Context) error {
	queue := queueParam(c)
	countStr := c.QueryParam("count")
	if countStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count required"})
	}
	count, err := strconv.ParseInt(countStr, 10, 64)
	if err != nil || count < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be a non-negative integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	allowed, err := h.Svc.Allow(ctx, queue, count)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue store unavailable"})
	}
	return c.JSON(http.StatusOK, allowResp{RequestedCount: count, AllowedCount: allowed})
}

// Allowed reports whether the presented token admits the user: the token
// must be the correct derivation for (queue, user) and the user must have
// actually been promoted.
func (h *UserQueueHandler) Allowed(c echo.Context) error {
	queue := queueParam(c)
	userID := c.QueryParam("user_id")
	token := c.QueryParam("token")
	if userID == "" || token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	allowed, err := h.Svc.IsAdmittedByToken(ctx, queue, userID, token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue store unavailable"})
	}
	return c.JSON(http.StatusOK, allowedResp{IsAllowed: allowed})
}

// RankOf returns the user's 1-based wait position, or -1 when the user is
// not waiting. A -1 alone does not say whether the user was admitted or
// never joined; the allowed endpoint disambiguates.
func (h *UserQueueHandler) RankOf(c echo.Context) error {
	queue := c.QueryParam("queue")
	userID := c.QueryParam("user_id")
	if queue == "" || userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "queue and user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rank, err := h.Svc.Rank(ctx, queue, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue store unavailable"})
	}
	return c.JSON(http.StatusOK, rankResp{Rank: rank})
}

// Touch derives the admission token for (queue, user), sets it as the
// per-queue cookie and returns it in the body. The cookie is what the
// waiting-room page reads on subsequent polls.
func (h *UserQueueHandler) Touch(c echo.Context) error {
	queue := queueParam(c)
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	token, err := utils.QueueToken(queue, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token derivation failed"})
	}

	c.SetCookie(&http.Cookie{
		Name:   tokenCookieName(queue),
		Value:  token,
		Path:   "/",
		MaxAge: tokenCookieMaxAge,
	})
	return c.String(http.StatusOK, token)
}

// RecentBatches lists the newest promotion batches recorded for a queue.
// Only meaningful when the audit database is configured.
func (h *UserQueueHandler) RecentBatches(c echo.Context) error {
	if h.Audit == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "audit trail disabled"})
	}
	queue := queueParam(c)
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Audit.RecentBatches(ctx, queue, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit query failed"})
	}
	batches := make([]batchPart, 0, len(records))
	for _, r := range records {
		batches = append(batches, batchPart{
			Queue:          r.QueueName,
			RequestedCount: r.RequestedCount,
			AllowedCount:   r.AllowedCount,
			CreatedAt:      r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, batches)
}
