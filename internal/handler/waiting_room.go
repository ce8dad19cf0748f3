package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/virtual-waiting-room/internal/repository"
)

// WaitingRoom is the client-facing page for a queue. Every poll runs the
// same decision: a valid admission token for a promoted user redirects to
// the protected resource, anyone else is (re-)registered and shown their
// live rank. The page reloads itself, so repeat registration attempts are
// the normal case and recover via a plain rank lookup.
func (h *UserQueueHandler) WaitingRoom(c echo.Context) error {
	queue := queueParam(c)
	userID := c.QueryParam("user_id")
	redirectURL := c.QueryParam("redirect_url")
	if userID == "" || redirectURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and redirect_url required"})
	}

	token := ""
	if cookie, err := c.Cookie(tokenCookieName(queue)); err == nil {
		token = cookie.Value
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admitted, err := h.Svc.IsAdmittedByToken(ctx, queue, userID, token)
	if err != nil {
		// Store trouble during the token check is not "not admitted", but
		// the page keeps rendering: show the wait view and let the next
		// poll retry.
		c.Logger().Errorf("waiting-room: admission check failed for queue=%s user=%s: %v", queue, userID, err)
	}
	if admitted {
		return c.Redirect(http.StatusFound, redirectURL)
	}

	rank, err := h.Svc.Register(ctx, queue, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyRegistered) {
			rank, err = h.Svc.Rank(ctx, queue, userID)
		}
		if err != nil {
			// Best effort: the page still loads, with the not-waiting
			// sentinel in place of a live rank.
			c.Logger().Errorf("waiting-room: rank lookup failed for queue=%s user=%s: %v", queue, userID, err)
			rank = -1
		}
	}

	return c.Render(http.StatusOK, "waiting-room.html", echo.Map{
		"number": rank,
		"userId": userID,
		"queue":  queue,
	})
}
