package domain

import (
	"context"
	"errors"

	"github.com/coopworks/bondledger/pkg/db/pagination"
)

type CreateMemberRequest struct {
	MemberCode string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
}

type ListMemberRequest struct {
	PageToken string
	PageSize  int32
	Status    string
	Search    string
}

type ListMemberResponse struct {
	pagination.PageInfo
	Members []Member `json:"members"`
}

type GetMemberRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateMemberRequest) (Member, error)
	List(context.Context, ListMemberRequest) (ListMemberResponse, error)
	GetByID(context.Context, GetMemberRequest) (Member, error)
}

var (
	ErrInvalidMemberCode = errors.New("invalid_member_code")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidID         = errors.New("invalid_id")
	ErrMemberExists      = errors.New("member_exists")
	ErrNotFound          = errors.New("not_found")
)
