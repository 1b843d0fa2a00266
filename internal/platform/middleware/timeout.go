package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout sets a deadline on each request context. The handler runs on
// the request goroutine and the deadline reaches the catalog and patient
// reads through the context. A response the handler starts after the deadline
// is dropped and replaced by a 504. Paths matched by skip keep the server's
// own context.
func RequestTimeout(timeout time.Duration, skip ...func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, s := range skip {
				if s(c) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			res := c.Response()
			orig := res.Writer
			dw := &deadlineWriter{ResponseWriter: orig, ctx: ctx}
			res.Writer = dw
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			res.Writer = orig

			if dw.wrote || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return err
			}
			// Anything written after the deadline was discarded.
			res.Committed = false
			res.Size = 0
			return c.JSON(http.StatusGatewayTimeout, map[string]string{
				"message": "request processing exceeded the allowed time limit",
			})
		}
	}
}

// deadlineWriter refuses to start a response once ctx has expired. A response
// begun before the deadline is written through unchanged.
type deadlineWriter struct {
	http.ResponseWriter
	ctx   context.Context
	wrote bool
}

func (w *deadlineWriter) started() bool {
	if !w.wrote && w.ctx.Err() != nil {
		return false
	}
	w.wrote = true
	return true
}

func (w *deadlineWriter) WriteHeader(code int) {
	if w.started() {
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *deadlineWriter) Write(b []byte) (int, error) {
	if !w.started() {
		return 0, http.ErrHandlerTimeout
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *deadlineWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
