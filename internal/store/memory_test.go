package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"custodia/pkg/platform/sentinel"
)

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "h:" + plaintext, nil }
func (plainHasher) Verify(hash, plaintext string) bool    { return hash == "h:"+plaintext }

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory(plainHasher{})
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestAdminSaveAssignsIDs() {
	agg, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)

	_, err = agg.CreateAdmin(0, "alice", "alice@x.com", "Secret123!", true, []int{2})
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveAdmins(s.ctx, agg))

	reloaded, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	alice := reloaded.AdminByName("alice")
	s.Require().False(alice.IsEmpty())
	s.Equal(1, alice.ID(), "save assigns the first free id")
	s.Equal([]int{2}, alice.RoleIDs())
	s.Equal(agg.Version(), reloaded.Version())
}

func (s *InMemoryStoreSuite) TestLoadProducesFreshCopies() {
	agg, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	_, err = agg.CreateAdmin(0, "alice", "alice@x.com", "Secret123!", true, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveAdmins(s.ctx, agg))

	first, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	second, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)

	_, err = first.SetAdminStatus(first.AdminByName("alice").ID(), false)
	s.Require().NoError(err)
	s.True(second.AdminByName("alice").Enabled(), "snapshots must not share members")
}

func (s *InMemoryStoreSuite) TestConflictingSaveReported() {
	agg, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	_, err = agg.CreateAdmin(0, "alice", "alice@x.com", "Secret123!", true, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveAdmins(s.ctx, agg))

	// Two contexts load the same snapshot; both mutate once.
	first, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	second, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)

	_, err = first.SetAdminStatus(1, false)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveAdmins(s.ctx, first))

	_, err = second.ChangeAdminEmail(1, "late@x.com")
	s.Require().NoError(err)
	err = s.store.SaveAdmins(s.ctx, second)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestUnchangedSaveIsNoOp() {
	agg, err := s.store.LoadAdmins(s.ctx)
	s.Require().NoError(err)
	s.NoError(s.store.SaveAdmins(s.ctx, agg))
}

func (s *InMemoryStoreSuite) TestClientRoundTrip() {
	agg, err := s.store.LoadClients(s.ctx)
	s.Require().NoError(err)

	_, err = agg.CreateClient("Acme", 1, "1 Main St", "555-0100", "ops@acme.test", true)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveClients(s.ctx, agg))
	s.Empty(agg.NewClients(), "save moves inserts off the new list")

	reloaded, err := s.store.LoadClients(s.ctx)
	s.Require().NoError(err)
	acme := reloaded.ClientByName("Acme")
	s.Require().False(acme.IsEmpty())
	s.Equal(1, acme.ID())
	s.Equal("1 Main St", acme.Address())
	s.True(acme.CreatedBy(1))

	s.Run("ids keep increasing across saves", func() {
		_, err := reloaded.CreateClient("Globex", 1, "", "", "", true)
		s.Require().NoError(err)
		s.Require().NoError(s.store.SaveClients(s.ctx, reloaded))
		s.Equal(2, reloaded.ClientByName("Globex").ID())
	})
}

func (s *InMemoryStoreSuite) TestClientConflictingSaveReported() {
	agg, err := s.store.LoadClients(s.ctx)
	s.Require().NoError(err)
	_, err = agg.CreateClient("Acme", 1, "", "", "", true)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveClients(s.ctx, agg))

	first, err := s.store.LoadClients(s.ctx)
	s.Require().NoError(err)
	second, err := s.store.LoadClients(s.ctx)
	s.Require().NoError(err)

	_, err = first.SetClientStatus(1, false)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveClients(s.ctx, first))

	_, err = second.UpdateClientAddress(1, "elsewhere")
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.SaveClients(s.ctx, second), sentinel.ErrConflict)
}
