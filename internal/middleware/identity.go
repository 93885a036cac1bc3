package middleware

import "github.com/labstack/echo/v4"

// HeaderUser names the acting participant. It is an opaque identity, not
// a credential.
const HeaderUser = "User"

// UserFrom returns the acting participant named by the request, or "".
func UserFrom(c echo.Context) string {
	return c.Request().Header.Get(HeaderUser)
}
