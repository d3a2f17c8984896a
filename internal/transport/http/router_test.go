package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodia/internal/audit"
	"custodia/internal/auth"
	"custodia/internal/rbac"
	"custodia/internal/service"
	"custodia/internal/store"
)

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "h:" + plaintext, nil }
func (plainHasher) Verify(hash, plaintext string) bool    { return hash == "h:"+plaintext }

type RouterSuite struct {
	suite.Suite
	router http.Handler

	supervisorToken string
	managerToken    string
	supervisorID    int
	managerID       int
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	st := store.NewInMemory(plainHasher{})
	registry := rbac.NewAdminRegistry()
	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore)

	admins, err := st.LoadAdmins(ctx)
	s.Require().NoError(err)
	_, err = admins.CreateAdmin(0, "sam-supervisor", "sam@corp.test", "Secret123!", true, []int{rbac.RoleSupervisor})
	s.Require().NoError(err)
	_, err = admins.CreateAdmin(0, "mona-manager", "mona@corp.test", "Secret123!", true, []int{rbac.RoleManager})
	s.Require().NoError(err)
	s.Require().NoError(st.SaveAdmins(ctx, admins))

	seeded, err := st.LoadAdmins(ctx)
	s.Require().NoError(err)
	s.supervisorID = seeded.AdminByName("sam-supervisor").ID()
	s.managerID = seeded.AdminByName("mona-manager").ID()

	svc := service.New(st, registry,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(publisher),
		service.WithAuditLog(publisher),
	)
	tokens := auth.NewTokenService("test-signing-key", "custodia", "custodia-api")
	authenticator := auth.NewAuthenticator(st, plainHasher{}, tokens, auth.NewInMemoryRevocationList(), time.Hour)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc, svc, svc, svc, authenticator, authenticator, nil)
	s.router = NewRouter(handler)

	s.supervisorToken = s.login("sam-supervisor", "Secret123!")
	s.managerToken = s.login("mona-manager", "Secret123!")
}

func (s *RouterSuite) login(name, password string) string {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"name": name, "password": password,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().NotEmpty(resp.AccessToken)
	return resp.AccessToken
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestMissingTokenRejected() {
	rec := s.do(http.MethodGet, "/admins/", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestLoginFailure() {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"name": "sam-supervisor", "password": "wrong",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestLogoutRevokesToken() {
	token := s.login("sam-supervisor", "Secret123!")
	rec := s.do(http.MethodPost, "/auth/logout", token, nil)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/admins/", token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestCreateAdmin() {
	rec := s.do(http.MethodPost, "/admins/", s.supervisorToken, map[string]any{
		"name":     "alice",
		"email":    "alice@corp.test",
		"password": "Secret123!",
		"role_ids": []int{rbac.RoleExecutor},
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp adminResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.NotZero(resp.ID)
	s.Equal("alice", resp.Name)
	s.True(resp.Enabled)
}

func (s *RouterSuite) TestCreateAdminForbiddenForManager() {
	rec := s.do(http.MethodPost, "/admins/", s.managerToken, map[string]any{
		"name": "alice", "email": "alice@corp.test", "password": "Secret123!",
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestCreateAdminValidation() {
	rec := s.do(http.MethodPost, "/admins/", s.supervisorToken, map[string]any{
		"name": "alice", "email": "broken", "password": "Secret123!",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestGetAdminNotFound() {
	rec := s.do(http.MethodGet, "/admins/999", s.supervisorToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestSelfDisableForbidden() {
	rec := s.do(http.MethodPost, fmt.Sprintf("/admins/%d/disable", s.supervisorID), s.supervisorToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestClientLifecycle() {
	rec := s.do(http.MethodPost, "/clients/", s.managerToken, map[string]string{
		"name":    "Acme",
		"address": "1 Main St",
		"phones":  "555-0100",
		"emails":  "ops@acme.test",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created clientResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
	s.Equal(s.managerID, created.AdminID)

	rec = s.do(http.MethodPut, "/clients/1/address", s.managerToken, map[string]string{
		"address": "2 Side St",
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/clients/1/disable", s.managerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var disabled clientResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&disabled))
	s.False(disabled.Enabled)

	rec = s.do(http.MethodDelete, "/clients/1", s.managerToken, nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *RouterSuite) TestDuplicateClientConflict() {
	rec := s.do(http.MethodPost, "/clients/", s.managerToken, map[string]string{"name": "Acme"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/clients/", s.managerToken, map[string]string{"name": "Acme"})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestRolesEndpoint() {
	rec := s.do(http.MethodGet, "/roles/", s.supervisorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var roles []roleResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&roles))
	s.Len(roles, 3)

	rec = s.do(http.MethodPut, "/roles/2/permissions", s.supervisorToken, map[string]any{
		"permissions": []string{"view_client"},
	})
	s.Equal(http.StatusForbidden, rec.Code, "system roles are immutable")
}

func (s *RouterSuite) TestAuditEndpoint() {
	rec := s.do(http.MethodPost, "/admins/", s.supervisorToken, map[string]any{
		"name": "alice", "email": "alice@corp.test", "password": "Secret123!",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/audit/", s.supervisorToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var events []auditEventResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&events))
	s.NotEmpty(events)

	rec = s.do(http.MethodGet, "/audit/", s.managerToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}
