package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// wrap adapts a net/http handler to echo, copying the named echo path
// parameters into the request so the handler can use r.PathValue.
func wrap(h http.HandlerFunc, params ...string) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		for _, p := range params {
			r.SetPathValue(p, c.Param(p))
		}
		h(c.Response(), r)
		return nil
	}
}

// mw adapts net/http middleware to echo.
func mw(fns ...func(http.Handler) http.Handler) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(fns))
	for _, fn := range fns {
		out = append(out, echo.WrapMiddleware(fn))
	}
	return out
}
