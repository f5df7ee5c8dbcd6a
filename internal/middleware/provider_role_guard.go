package middleware

import (
	"net/http"

	"gasapp/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがproviderかどうかを確認します。

func ProviderRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//clientは拒否、providerだけ許可
			if model.Role(role) != model.RoleProvider {
				return c.JSON(http.StatusForbidden, errorJSON("provider only"))
			}

			return next(c)
		}
	}
}
