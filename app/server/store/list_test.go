package store

import (
	"context"
	"testing"

	"scaffold-api/app/server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usernames(users []models.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

func seedUsers(t *testing.T, s *UserStore) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []NewUser{
		{Username: "alice", Email: "alice@x.com", Password: "secret1", FirstName: "Alice", LastName: "Liddell"},
		{Username: "bob", Email: "bob@x.com", Password: "secret1", Role: models.RoleAdmin},
		{Username: "carol", Email: "carol@y.org", Password: "secret1", LastName: "Alison", Role: models.RoleModerator},
		{Username: "dave_100", Email: "dave@y.org", Password: "secret1"},
		{Username: "erin", Email: "erin@x.com", Password: "secret1", Role: models.RoleAdmin},
	} {
		_, err := s.Create(ctx, in)
		require.NoError(t, err)
	}
}

func TestList_NewestFirstAndPaging(t *testing.T) {
	s := newTestStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	page, err := s.List(ctx, ListFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, []string{"erin", "dave_100"}, usernames(page.Users))

	page, err = s.List(ctx, ListFilter{}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(page.Users))

	// 超出范围的页返回空列表，但总数不变
	page, err = s.List(ctx, ListFilter{}, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Users)
	assert.NotNil(t, page.Users)
	assert.EqualValues(t, 5, page.Total)
}

func TestList_Filters(t *testing.T) {
	s := newTestStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	cases := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"search matches username, last name case-insensitively", ListFilter{Search: "ALI"}, []string{"carol", "alice"}},
		{"search matches email", ListFilter{Search: "@y.org"}, []string{"dave_100", "carol"}},
		{"role only", ListFilter{Role: models.RoleAdmin}, []string{"erin", "bob"}},
		{"search and role", ListFilter{Search: "ali", Role: models.RoleModerator}, []string{"carol"}},
		{"underscore is literal", ListFilter{Search: "_1"}, []string{"dave_100"}},
		{"percent is literal", ListFilter{Search: "%"}, []string{}},
		{"no match", ListFilter{Search: "zed"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := s.List(ctx, tc.filter, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, tc.want, usernames(page.Users))
			assert.EqualValues(t, len(tc.want), page.Total)
		})
	}
}

func TestList_RejectsInvalidPaging(t *testing.T) {
	s := newTestStore(t)

	_, err := s.List(context.Background(), ListFilter{}, 0, 0)
	require.ErrorIs(t, err, ErrValidationFailed)

	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, []string{"page", "limit"}, ve.Fields())
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, *stats)

	seedUsers(t, s)
	page, err := s.List(ctx, ListFilter{Search: "dave"}, 1, 1)
	require.NoError(t, err)
	_, err = s.Update(ctx, page.Users[0].ID, UserPatch{IsActive: ptr(false)})
	require.NoError(t, err)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 5, Active: 4, Inactive: 1, Admins: 2}, *stats)
}
