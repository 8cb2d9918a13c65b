package handlers

import (
	"net/http"
	"scaffold-api/app/server/constants"
	"scaffold-api/app/server/models"
	"scaffold-api/app/server/store"
	"scaffold-api/app/server/types"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type userCreateRequest struct {
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Role         string  `json:"role"`
	ProfileImage *string `json:"profileImage"`
}

// 不包含 password / id / createdAt / updatedAt ，这些字段不能通过这里修改
type userUpdateRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Role         *string `json:"role"`
	IsActive     *bool   `json:"isActive"`
	ProfileImage *string `json:"profileImage"`
}

type userPasswordUpdateRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
}

func (a *App) UserList(c echo.Context) error {
	rctx := c.Request().Context()

	var (
		rawPage, rawLimit int
		filter            store.ListFilter
	)
	// 无法解析的 page / limit 保持为 0 ，交给 parsePagination 使用默认值
	if errs := echo.QueryParamsBinder(c).
		FailFast(false).
		Int("page", &rawPage).
		Int("limit", &rawLimit).
		String("search", &filter.Search).
		String("role", &filter.Role).
		BindErrors(); len(errs) > 0 {
		a.l.Debug("ignored invalid pagination query", zap.Errors("errors", errs))
	}

	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Role != "" && !models.IsValidRole(filter.Role) {
		return a.er(c, http.StatusBadRequest, constants.ErrValidationFailed, "Role must be one of: "+strings.Join(models.Roles, ", "))
	}

	page, limit := a.parsePagination(rawPage, rawLimit)
	res, err := a.users.List(rctx, filter, page, limit)
	if err != nil {
		return a.fail(c, err, "get user list")
	}

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Data: &types.UserList{
			Users: models.PublicProfiles(res.Users),
			Pagination: types.Pagination{
				Current: int64(page),
				Pages:   a.calcMaxPage(res.Total, limit),
				Total:   res.Total,
				Limit:   int64(limit),
			},
		},
	})
}

func (a *App) UserStats(c echo.Context) error {
	stats, err := a.users.Stats(c.Request().Context())
	if err != nil {
		return a.fail(c, err, "get user stats")
	}

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Data:    stats,
	})
}

func (a *App) UserGet(c echo.Context) error {
	// 从数据库中获得指定的用户
	user, err := a.users.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.fail(c, err, "get user")
	}

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Data:    user.PublicProfile(),
	})
}

func (a *App) UserCreate(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req userCreateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Debug("failed to bind request", zap.Error(err))
		return a.fail(c, errBadBody, "bind user")
	}

	// 分配 user 以外的角色需要管理员
	if req.Role != "" && req.Role != models.RoleUser && models.IsValidRole(req.Role) {
		_, caller, err := a.authCaller(c)
		if err != nil {
			return a.fail(c, err, "get caller")
		}
		if caller == nil || caller.Role != models.RoleAdmin {
			return a.er(c, http.StatusForbidden, constants.ErrForbidden, "Only administrators can assign elevated roles")
		}
	}

	// 创建用户
	user, err := a.users.Create(rctx, store.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return a.fail(c, err, "create user")
	}

	token, err := a.issueToken(user)
	if err != nil {
		return a.fail(c, err, "sign token")
	}

	return c.JSON(http.StatusCreated, &types.Response{
		Success: true,
		Message: "User created successfully",
		Data: &types.UserWithToken{
			User:  user.PublicProfile(),
			Token: token,
		},
	})
}

func (a *App) UserUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	// 抓取 user 信息（认证）
	claims, caller, err := a.authCaller(c)
	if err != nil {
		return a.fail(c, err, "get caller")
	}
	if claims == nil {
		return a.fail(c, errAuthRequired, "update user")
	}
	isAdmin := caller.Role == models.RoleAdmin

	// 只能修改自己，管理员除外
	if claims.UserID != id && !isAdmin {
		return a.fail(c, errForbidden, "update user")
	}

	// 绑定请求体
	var req userUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Debug("failed to bind request", zap.Error(err))
		return a.fail(c, errBadBody, "bind user")
	}

	if (req.Role != nil || req.IsActive != nil) && !isAdmin {
		return a.er(c, http.StatusForbidden, constants.ErrForbidden, "Only administrators can change role or account status")
	}

	// 更新用户信息
	user, err := a.users.Update(rctx, id, store.UserPatch{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsActive:     req.IsActive,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return a.fail(c, err, "update user")
	}
	a.roles.Invalidate(rctx, id)

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Message: "User updated successfully",
		Data:    user.PublicProfile(),
	})
}

func (a *App) UserPasswordUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	// 抓取 user 信息（认证）
	claims, caller, err := a.authCaller(c)
	if err != nil {
		return a.fail(c, err, "get caller")
	}
	if claims == nil {
		return a.fail(c, errAuthRequired, "update password")
	}
	isSelf := claims.UserID == id
	if !isSelf && caller.Role != models.RoleAdmin {
		return a.fail(c, errForbidden, "update password")
	}

	// 绑定请求体
	var req userPasswordUpdateRequest
	if err := c.Bind(&req); err != nil {
		a.l.Debug("failed to bind request", zap.Error(err))
		return a.fail(c, errBadBody, "bind password")
	}

	// 修改自己的密码需要验证旧密码
	if isSelf {
		user, err := a.users.FindByID(rctx, id)
		if err != nil {
			return a.fail(c, err, "get user")
		}
		if match, err := a.users.ComparePassword(user, req.CurrentPassword); err != nil {
			return a.fail(c, err, "check password")
		} else if !match {
			return a.er(c, http.StatusBadRequest, constants.ErrValidationFailed, "Current password is incorrect")
		}
	}

	if err := a.users.UpdatePassword(rctx, id, req.Password); err != nil {
		return a.fail(c, err, "update password")
	}

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Message: "Password updated successfully",
	})
}

func (a *App) UserDelete(c echo.Context) error {
	rctx := c.Request().Context()
	id := c.Param("id")

	// 删除用户
	if err := a.users.Delete(rctx, id); err != nil {
		return a.fail(c, err, "delete user")
	}
	a.roles.Invalidate(rctx, id)

	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Message: "User deleted successfully",
	})
}
