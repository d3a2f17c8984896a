package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodia/internal/rbac"
	"custodia/internal/store"
	dErrors "custodia/pkg/domain-errors"
)

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "h:" + plaintext, nil }
func (plainHasher) Verify(hash, plaintext string) bool    { return hash == "h:"+plaintext }

type AuthenticatorSuite struct {
	suite.Suite
	ctx  context.Context
	auth *Authenticator
}

func TestAuthenticatorSuite(t *testing.T) {
	suite.Run(t, new(AuthenticatorSuite))
}

func (s *AuthenticatorSuite) SetupTest() {
	s.ctx = context.Background()
	st := store.NewInMemory(plainHasher{})

	admins, err := st.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	_, err = admins.CreateAdmin(0, "alice", "alice@corp.test", "Secret123!", true, []int{rbac.RoleSupervisor})
	s.Require().NoError(err)
	_, err = admins.CreateAdmin(0, "dora", "dora@corp.test", "Secret123!", false, nil)
	s.Require().NoError(err)
	s.Require().NoError(st.SaveAdmins(s.ctx, admins))

	tokens := NewTokenService("test-signing-key", "custodia", "custodia-api")
	s.auth = NewAuthenticator(st, plainHasher{}, tokens, NewInMemoryRevocationList(), time.Hour)
}

func (s *AuthenticatorSuite) TestLoginAndAuthenticate() {
	token, err := s.auth.Login(s.ctx, "alice", "Secret123!")
	s.Require().NoError(err)

	adminID, err := s.auth.Authenticate(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(1, adminID)
}

func (s *AuthenticatorSuite) TestLoginFailures() {
	cases := map[string]struct {
		name     string
		password string
	}{
		"unknown admin":  {"nobody", "Secret123!"},
		"wrong password": {"alice", "wrong"},
		"disabled admin": {"dora", "Secret123!"},
	}
	for label, tc := range cases {
		s.Run(label, func() {
			_, err := s.auth.Login(s.ctx, tc.name, tc.password)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
			s.EqualError(err, "unauthorized: invalid credentials", "failures must not leak the cause")
		})
	}
}

func (s *AuthenticatorSuite) TestLogoutRevokesToken() {
	token, err := s.auth.Login(s.ctx, "alice", "Secret123!")
	s.Require().NoError(err)
	s.Require().NoError(s.auth.Logout(s.ctx, token))

	_, err = s.auth.Authenticate(s.ctx, token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "revoked")
}

func (s *AuthenticatorSuite) TestRevocationIsPerToken() {
	first, err := s.auth.Login(s.ctx, "alice", "Secret123!")
	s.Require().NoError(err)
	second, err := s.auth.Login(s.ctx, "alice", "Secret123!")
	s.Require().NoError(err)

	s.Require().NoError(s.auth.Logout(s.ctx, first))

	_, err = s.auth.Authenticate(s.ctx, second)
	s.NoError(err, "other sessions stay valid")
}
