package services

import (
	"context"
	"eventbooking/src/repositories/repotest"
	"eventbooking/src/types"
	"eventbooking/src/utils"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AccountServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *repotest.MemStore
	svc   *AccountService
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.T().Setenv("JWT_SECRET", "account-test-secret")
	s.ctx = context.Background()
	s.store = repotest.NewMemStore()
	s.svc = NewAccountService(s.store)
}

func (s *AccountServiceSuite) register(email string) *types.AuthResponse {
	res, err := s.svc.Register(s.ctx, Registration{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     email,
		Password:  "secret123",
	})
	s.Require().NoError(err)
	return res
}

func (s *AccountServiceSuite) TestRegisterIssuesToken() {
	res := s.register(" Grace@Example.com ")
	s.Equal("grace@example.com", res.User.Email)
	s.Equal(types.ROLE_USER, res.User.Role)

	claims, err := utils.ParseJWT(res.Token)
	s.Require().NoError(err)
	s.Equal(res.User.ID, claims.UserID)
	s.Equal(types.ROLE_USER, claims.Role)
}

func (s *AccountServiceSuite) TestRegisterDuplicateEmail() {
	s.register("grace@example.com")
	_, err := s.svc.Register(s.ctx, Registration{FirstName: "Other", LastName: "Person", Email: "GRACE@example.com", Password: "secret123"})
	s.ErrorIs(err, ErrEmailInUse)
	s.Equal(KindInvalid, KindOf(err))
}

func (s *AccountServiceSuite) TestRegisterRejectsOverlongPassword() {
	// 40 runes but 80 bytes
	password := strings.Repeat("é", 40)
	_, err := s.svc.Register(s.ctx, Registration{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Password: password})
	s.ErrorIs(err, ErrPasswordTooLong)
	s.Equal(KindInvalid, KindOf(err))

	_, err = s.svc.Register(s.ctx, Registration{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Password: strings.Repeat("a", 72)})
	s.NoError(err)
}

func (s *AccountServiceSuite) TestLogin() {
	s.register("grace@example.com")

	res, err := s.svc.Login(s.ctx, "grace@example.com", "secret123")
	s.Require().NoError(err)
	s.NotEmpty(res.Token)

	_, err = s.svc.Login(s.ctx, "grace@example.com", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.svc.Login(s.ctx, "nobody@example.com", "secret123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AccountServiceSuite) TestProfile() {
	res := s.register("grace@example.com")

	profile, err := s.svc.Profile(s.ctx, res.User.ID)
	s.Require().NoError(err)
	s.Equal("Grace", profile.FirstName)

	_, err = s.svc.Profile(s.ctx, 999)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *AccountServiceSuite) TestUpdateProfile() {
	res := s.register("grace@example.com")
	s.register("taken@example.com")

	updated, err := s.svc.UpdateProfile(s.ctx, res.User.ID, ProfileChanges{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "ADA@example.com",
	})
	s.Require().NoError(err)
	s.Equal("Ada", updated.FirstName)
	s.Equal("ada@example.com", updated.Email)
	s.Equal(types.ROLE_USER, updated.Role)

	_, err = s.svc.UpdateProfile(s.ctx, res.User.ID, ProfileChanges{FirstName: "Ada", LastName: "Lovelace", Email: "taken@example.com"})
	s.ErrorIs(err, ErrEmailInUse)

	_, err = s.svc.Login(s.ctx, "ada@example.com", "secret123")
	s.NoError(err)
}
