package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/member/domain"
	"github.com/coopworks/bondledger/internal/member/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Member{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreateMember_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateMemberRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidMemberCode)

	_, err = svc.Create(ctx, domain.CreateMemberRequest{MemberCode: "M-0001"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateMemberRequest{
		MemberCode: "M-0001",
		FirstName:  "Ama",
		LastName:   "Mensah",
		Email:      "not-an-email",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestCreateMember_DuplicateCode(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	req := domain.CreateMemberRequest{
		MemberCode: "M-0001",
		FirstName:  "Ama",
		LastName:   "Mensah",
		Email:      "ama.mensah@example.com",
	}

	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberStatusActive, created.Status)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrMemberExists)
}

func TestGetMemberByID(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateMemberRequest{
		MemberCode: "M-0001",
		FirstName:  "Ama",
		LastName:   "Mensah",
		Email:      "ama.mensah@example.com",
	})
	require.NoError(t, err)

	found, err := svc.GetByID(ctx, domain.GetMemberRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, created.MemberCode, found.MemberCode)
	assert.Equal(t, "Ama Mensah", found.FullName())

	_, err = svc.GetByID(ctx, domain.GetMemberRequest{ID: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, domain.GetMemberRequest{ID: "123456789"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMembers_SearchAndPagination(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateMemberRequest{
			MemberCode: fmt.Sprintf("M-%04d", i+1),
			FirstName:  "Member",
			LastName:   fmt.Sprintf("Number%d", i+1),
			Email:      fmt.Sprintf("member%d@example.com", i+1),
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, domain.ListMemberRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Members, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	next, err := svc.List(ctx, domain.ListMemberRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, next.Members, 2)
	assert.NotEqual(t, page.Members[0].ID, next.Members[0].ID)

	filtered, err := svc.List(ctx, domain.ListMemberRequest{Search: "Number3"})
	require.NoError(t, err)
	require.Len(t, filtered.Members, 1)
	assert.Equal(t, "M-0003", filtered.Members[0].MemberCode)
}
