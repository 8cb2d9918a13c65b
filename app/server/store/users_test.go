package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"scaffold-api/app/server/models"
	"scaffold-api/app/server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	s := New(testutil.OpenDB(t), testutil.FastHasher())

	// 递增时钟，保证创建时间有序
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func createUser(t *testing.T, s *UserStore, username, email string) *models.User {
	t.Helper()
	u, err := s.Create(context.Background(), NewUser{Username: username, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }

func TestCreate_Defaults(t *testing.T) {
	s := newTestStore(t)

	u, err := s.Create(context.Background(), NewUser{
		Username:  "  alice ",
		Email:     " Alice@X.com ",
		Password:  "secret1",
		FirstName: "Alice",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.Nil(t, u.LastLogin)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "secret1", u.PasswordHash)
}

func TestCreate_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createUser(t, s, "alice", "a@x.com")

	cases := map[string]NewUser{
		"same email":           {Username: "alice2", Email: "a@x.com", Password: "secret1"},
		"email different case": {Username: "alice3", Email: "A@X.COM", Password: "secret1"},
		"same username":        {Username: "alice", Email: "other@x.com", Password: "secret1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Create(ctx, in)
			assert.ErrorIs(t, err, ErrDuplicateIdentity)
		})
	}
}

func TestCreate_ValidationCollectsAllViolations(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(context.Background(), NewUser{
		Username:  "al",
		Email:     "not-an-email",
		Password:  "123",
		FirstName: string(make([]byte, 51)),
		Role:      "root",
	})
	require.ErrorIs(t, err, ErrValidationFailed)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"username", "email", "firstName", "role", "password"}, ve.Fields())
	assert.Contains(t, ve.Error(), "Username must be at least 3 characters long")
	assert.Contains(t, ve.Error(), "Password must be at least 6 characters long")
}

func TestFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "a@x.com")

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	for _, identifier := range []string{"alice", "a@x.com", "A@x.COM"} {
		got, err = s.FindByEmailOrUsername(ctx, identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, u.ID, got.ID)
	}

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindByEmailOrUsername(ctx, "ALICE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindByEmailOrUsername(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComparePassword(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "alice", "a@x.com")

	ok, err := s.ComparePassword(u, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ComparePassword(u, "secret2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ComparePassword(&models.User{PasswordHash: "garbage"}, "secret1")
	assert.Error(t, err)
}

func TestUpdate_AppliesPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "a@x.com")

	got, err := s.Update(ctx, u.ID, UserPatch{
		FirstName:    ptr(" Alice "),
		Email:        ptr("ALICE@example.org"),
		Role:         ptr(models.RoleModerator),
		IsActive:     ptr(false),
		ProfileImage: ptr("https://cdn.example.org/a.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "alice@example.org", got.Email)
	assert.Equal(t, models.RoleModerator, got.Role)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.ProfileImage)
	assert.Equal(t, "https://cdn.example.org/a.png", *got.ProfileImage)

	// 不可变字段保持原样
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	// 清除头像
	got, err = s.Update(ctx, u.ID, UserPatch{ProfileImage: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.ProfileImage)
}

func TestUpdate_IsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "a@x.com")

	_, err := s.Update(ctx, u.ID, UserPatch{
		FirstName: ptr("Valid"),
		Username:  ptr("x"),
		Role:      ptr("superuser"),
	})
	require.ErrorIs(t, err, ErrValidationFailed)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"username", "role"}, ve.Fields())

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FirstName)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestUpdate_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createUser(t, s, "alice", "a@x.com")
	bob := createUser(t, s, "bob", "b@x.com")

	_, err := s.Update(ctx, bob.ID, UserPatch{Email: ptr("A@X.com")})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = s.Update(ctx, bob.ID, UserPatch{Username: ptr("alice")})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// 保持自身的值不算冲突
	_, err = s.Update(ctx, bob.ID, UserPatch{Username: ptr("bob"), Email: ptr("b@x.com")})
	assert.NoError(t, err)
}

func TestUpdate_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Update(context.Background(), "missing", UserPatch{FirstName: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "a@x.com")

	err := s.UpdatePassword(ctx, u.ID, "123")
	assert.ErrorIs(t, err, ErrValidationFailed)

	require.NoError(t, s.UpdatePassword(ctx, u.ID, "new-secret"))

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	ok, err := s.ComparePassword(got, "new-secret")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ComparePassword(got, "secret1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.UpdatePassword(ctx, "missing", "new-secret"), ErrNotFound)
}

func TestPassword_ByteLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 40 个字符，80 字节
	long := strings.Repeat("é", 40)

	_, err := s.Create(ctx, NewUser{Username: "alice", Email: "a@x.com", Password: long})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []FieldViolation{{Field: "password", Message: "Password cannot exceed 72 bytes"}}, ve.Violations)

	// 36 个字符，72 字节，正好在上限内
	fits := strings.Repeat("é", 36)
	u, err := s.Create(ctx, NewUser{Username: "alice", Email: "a@x.com", Password: fits})
	require.NoError(t, err)
	ok, err := s.ComparePassword(u, fits)
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.UpdatePassword(ctx, u.ID, long)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"password"}, ve.Fields())
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "a@x.com")

	require.NoError(t, s.Delete(ctx, u.ID))

	_, err := s.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, u.ID), ErrNotFound)

	// 硬删除后可以重新使用同样的身份
	createUser(t, s, "alice", "a@x.com")
}

func TestRecordLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "alice", "a@x.com")

	at, err := s.RecordLogin(ctx, u.ID)
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	_, err = s.RecordLogin(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
