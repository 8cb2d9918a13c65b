package store

import (
	"context"
	"fmt"
	"scaffold-api/app/server/models"
	"strings"

	"gorm.io/gorm"
)

type ListFilter struct {
	Search string // 对 username / email / firstName / lastName 做不区分大小写的子串匹配
	Role   string // 精确匹配，留空不过滤
}

type Page struct {
	Users []models.User
	Total int64
}

type Stats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Admins   int64 `json:"admins"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns one page of matching records, newest first, along with the
// number of records matching the filter.
func (s *UserStore) List(ctx context.Context, filter ListFilter, page, pageSize int) (*Page, error) {
	var violations []FieldViolation
	if page < 1 {
		violations = append(violations, FieldViolation{Field: "page", Message: "Page must be a positive integer"})
	}
	if pageSize < 1 {
		violations = append(violations, FieldViolation{Field: "limit", Message: "Limit must be a positive integer"})
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	res := &Page{Users: []models.User{}}

	if err := s.filtered(ctx, filter).Count(&res.Total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	if err := s.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&res.Users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return res, nil
}

func (s *UserStore) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.User{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		q = q.Where(
			`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}

	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}

	return q
}

// Stats counts records in a single statement, so the figures are consistent
// with each other.
func (s *UserStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select(
			"COUNT(*) AS total, COUNT(CASE WHEN is_active = ? THEN 1 END) AS active, COUNT(CASE WHEN role = ? THEN 1 END) AS admins",
			true, models.RoleAdmin,
		).
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	stats.Inactive = stats.Total - stats.Active

	return &stats, nil
}
