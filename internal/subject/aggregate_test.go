package subject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestCreateClient(t *testing.T) {
	agg := NewAggregate()

	client, err := agg.CreateClient("Acme", 1, " 1 Main St ", "555-0100", "ops@acme.test", true)
	require.NoError(t, err)
	assert.Equal(t, 0, client.ID(), "ids are never auto-assigned")
	assert.Equal(t, 1, client.AdminID())
	assert.Equal(t, "1 Main St", client.Address(), "contact values are trimmed")
	assert.Equal(t, 1, agg.Version())
	assert.Len(t, agg.NewClients(), 1, "unpersisted member tracked on the side list")

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := agg.CreateClient("   ", 1, "", "", "", true)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, 1, agg.Version())
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := agg.CreateClient("Acme", 2, "", "", "", true)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
		assert.Equal(t, 1, agg.Version())
	})
}

func TestAssignIDMovesOffNewList(t *testing.T) {
	agg := NewAggregate()
	_, err := agg.CreateClient("Acme", 1, "", "", "", true)
	require.NoError(t, err)
	versionBefore := agg.Version()

	require.NoError(t, agg.AssignID("Acme", 10))
	assert.Empty(t, agg.NewClients())
	assert.Equal(t, versionBefore, agg.Version(), "id assignment is not a structural change")

	// Real clients are reachable through both indexes.
	assert.Equal(t, 10, agg.ClientByID(10).ID())
	assert.Equal(t, 10, agg.ClientByName("Acme").ID())

	t.Run("assignment happens exactly once", func(t *testing.T) {
		err := agg.AssignID("Acme", 11)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOperation))
	})

	t.Run("assigned id must stay unique", func(t *testing.T) {
		_, err := agg.CreateClient("Globex", 1, "", "", "", true)
		require.NoError(t, err)
		err = agg.AssignID("Globex", 10)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func TestLookupDualAPI(t *testing.T) {
	agg := NewAggregate()
	_, err := agg.CreateClient("Acme", 1, "", "", "", true)
	require.NoError(t, err)
	require.NoError(t, agg.AssignID("Acme", 5))

	t.Run("get variants return null object", func(t *testing.T) {
		assert.True(t, agg.ClientByID(99).IsEmpty())
		assert.True(t, agg.ClientByName("nobody").IsEmpty())
	})

	t.Run("require variants fail", func(t *testing.T) {
		_, err := agg.RequireClientByID(99)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = agg.RequireClientByName("nobody")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("equality is by id", func(t *testing.T) {
		a := agg.ClientByID(5)
		b := agg.ClientByName("Acme")
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(EmptyClient()))
		assert.False(t, EmptyClient().Equal(EmptyClient()))
	})
}

func TestFieldUpdaters(t *testing.T) {
	agg := NewAggregate()
	_, err := agg.CreateClient("Acme", 1, "old", "111", "a@acme.test", true)
	require.NoError(t, err)
	require.NoError(t, agg.AssignID("Acme", 5))
	versionBefore := agg.Version()

	t.Run("address update", func(t *testing.T) {
		updated, err := agg.UpdateClientAddress(5, " 2 Side St ")
		require.NoError(t, err)
		assert.Equal(t, "2 Side St", updated.Address())
		assert.Equal(t, versionBefore+1, agg.Version())
	})

	t.Run("partial contact update", func(t *testing.T) {
		emails := "b@acme.test"
		updated, err := agg.UpdateClientContact(5, &emails, nil)
		require.NoError(t, err)
		assert.Equal(t, "b@acme.test", updated.Emails())
		assert.Equal(t, "111", updated.Phones(), "nil leaves the field as is")
	})

	t.Run("status set and toggle", func(t *testing.T) {
		before := agg.Version()
		_, err := agg.SetClientStatus(5, false)
		require.NoError(t, err)
		toggled, err := agg.ToggleClientStatus(5)
		require.NoError(t, err)
		assert.True(t, toggled.Enabled())
		assert.Equal(t, before+2, agg.Version())
	})

	t.Run("updater on unknown id fails without version bump", func(t *testing.T) {
		before := agg.Version()
		_, err := agg.UpdateClientAddress(99, "x")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Equal(t, before, agg.Version())
	})
}

func TestRemoveClient(t *testing.T) {
	agg := NewAggregate()
	_, err := agg.CreateClient("Acme", 1, "", "", "", true)
	require.NoError(t, err)
	require.NoError(t, agg.AssignID("Acme", 5))

	t.Run("unknown id fails", func(t *testing.T) {
		err := agg.RemoveClient(99)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("removal clears both indexes", func(t *testing.T) {
		require.NoError(t, agg.RemoveClient(5))
		assert.True(t, agg.ClientByID(5).IsEmpty())
		assert.True(t, agg.ClientByName("Acme").IsEmpty())
		assert.False(t, agg.ClientExists("Acme"))
	})
}

func TestFilteredViews(t *testing.T) {
	agg := NewAggregate()
	seed := []struct {
		name    string
		adminID int
		enabled bool
	}{
		{"Acme", 1, true},
		{"Globex", 1, false},
		{"Initech", 2, true},
	}
	for i, s := range seed {
		_, err := agg.CreateClient(s.name, s.adminID, "", "", "", s.enabled)
		require.NoError(t, err)
		require.NoError(t, agg.AssignID(s.name, i+1))
	}

	assert.Len(t, agg.All(), 3)
	assert.Len(t, agg.Enabled(), 2)
	assert.Len(t, agg.Disabled(), 1)
	assert.Len(t, agg.ClientsByAdmin(1), 2)
	assert.Len(t, agg.ClientsByAdmin(2), 1)
	assert.Equal(t, 3, agg.Count())

	t.Run("ownership check", func(t *testing.T) {
		acme := agg.ClientByName("Acme")
		assert.True(t, acme.CreatedBy(1))
		assert.False(t, acme.CreatedBy(2))
	})

	t.Run("load round trip", func(t *testing.T) {
		loaded, err := LoadAggregate(agg.All(), agg.Version())
		require.NoError(t, err)
		assert.Equal(t, agg.Version(), loaded.Version())
		assert.Len(t, loaded.All(), 3)
		assert.Empty(t, loaded.NewClients())
	})

	t.Run("load pins base version", func(t *testing.T) {
		loaded, err := LoadAggregate(agg.All(), 5)
		require.NoError(t, err)
		assert.Equal(t, 5, loaded.BaseVersion())

		_, err = loaded.SetClientStatus(1, false)
		require.NoError(t, err)
		assert.Equal(t, 6, loaded.Version())
		assert.Equal(t, 5, loaded.BaseVersion(), "mutations advance only the version")
	})
}

func TestTransferOwnership(t *testing.T) {
	agg := NewAggregate()
	_, err := agg.CreateClient("Acme", 1, "", "", "", true)
	require.NoError(t, err)
	require.NoError(t, agg.AssignID("Acme", 5))

	updated, err := agg.TransferOwnership(5, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AdminID())
	assert.True(t, updated.CreatedBy(2))
}
