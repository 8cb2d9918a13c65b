package handlers

import (
	"errors"
	"net/http"
	"scaffold-api/app/server/cache"
	"scaffold-api/app/server/constants"
	"scaffold-api/app/server/jwt"
	"scaffold-api/app/server/middlewares"
	"scaffold-api/app/server/models"
	"scaffold-api/app/server/store"
	"scaffold-api/app/server/types"
	"scaffold-api/app/server/utils"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type loginRequest struct {
	Identifier string `json:"identifier"` // 邮箱或用户名
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// authCaller returns the verified identity of the request together with the
// caller's current role. Anonymous requests yield nil, nil.
func (a *App) authCaller(c echo.Context) (*jwt.Claims, *cache.RoleInfo, error) {
	claims := middlewares.Identity(c)
	if claims == nil {
		return nil, nil, nil
	}

	info, err := a.roles.Lookup(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// 令牌有效但用户已被删除
			return nil, nil, &apiError{http.StatusUnauthorized, constants.ErrUnauthenticated, "User no longer exists"}
		}
		return nil, nil, err
	}
	if !info.IsActive {
		return nil, nil, errDeactivated
	}

	return claims, info, nil
}

func (a *App) issueToken(user *models.User) (string, error) {
	return a.jwt.Issue(jwt.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

func (a *App) AuthLogin(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		a.l.Debug("failed to bind json body", zap.Error(err))
		return a.fail(c, errBadBody, "bind login request")
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		identifier = req.Username
	}

	// 没有写用户名或密码
	if strings.TrimSpace(identifier) == "" || req.Password == "" {
		return a.er(c, http.StatusBadRequest, constants.ErrValidationFailed, "Identifier and password are required")
	}

	user, err := a.users.FindByEmailOrUsername(rctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return a.er(c, http.StatusUnauthorized, constants.ErrUnauthenticated, "Invalid credentials")
		}
		return a.fail(c, err, "find user")
	}

	// 提取密码 hash 并进行校验
	if match, err := a.users.ComparePassword(user, req.Password); err != nil {
		return a.fail(c, err, "check password")
	} else if !match {
		// 密码不一致
		return a.er(c, http.StatusUnauthorized, constants.ErrUnauthenticated, "Invalid credentials")
	}

	if !user.IsActive {
		return a.fail(c, errDeactivated, "login")
	}

	lastLogin, err := a.users.RecordLogin(rctx, user.ID)
	if err != nil {
		return a.fail(c, err, "record login")
	}
	user.LastLogin = utils.P(lastLogin)

	// 签出 JWT
	token, err := a.issueToken(user)
	if err != nil {
		return a.fail(c, err, "sign token")
	}

	// 返回
	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Message: "Login successful",
		Data: &types.UserWithToken{
			User:  user.PublicProfile(),
			Token: token,
		},
	})
}

func (a *App) AuthMe(c echo.Context) error {
	claims := middlewares.Identity(c)
	if claims == nil {
		return a.fail(c, errAuthRequired, "get self")
	}

	user, err := a.users.FindByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return a.fail(c, err, "get self")
	}

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Data:    user.PublicProfile(),
	})
}
