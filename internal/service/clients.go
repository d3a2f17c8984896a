package service

import (
	"context"
	"errors"

	"custodia/internal/audit"
	"custodia/internal/rbac"
	"custodia/internal/subject"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

// CreateClient registers a client owned by the acting administrator and
// records the ownership on the actor's identity in the same unit of work.
func (s *Service) CreateClient(ctx context.Context, actorID int, name, address, phones, emails string) (*subject.Client, error) {
	var created *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermCreateClient)
		if err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		created, err = clients.CreateClient(name, actorID, address, phones, emails, true)
		if err != nil {
			return err
		}
		if err := admins.IncrementCreatedClients(actorID); err != nil {
			return err
		}
		if err := s.saveClients(ctx, clients); err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionClientCreated, created.Name(), "")
		if s.metrics != nil {
			s.metrics.IncrementClientsCreated()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetClient returns a client by id.
func (s *Service) GetClient(ctx context.Context, actorID, clientID int) (*subject.Client, error) {
	var client *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewClient); err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		client, err = clients.RequireClientByID(clientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GetClientByName returns a client by unique name.
func (s *Service) GetClientByName(ctx context.Context, actorID int, name string) (*subject.Client, error) {
	var client *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewClient); err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		client, err = clients.RequireClientByName(name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ListClients returns all clients ordered by name.
func (s *Service) ListClients(ctx context.Context, actorID int) ([]*subject.Client, error) {
	var out []*subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewClient); err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		out = clients.All()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClientsCreatedBy lists the clients owned by one administrator.
func (s *Service) ClientsCreatedBy(ctx context.Context, actorID, adminID int) ([]*subject.Client, error) {
	var out []*subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		if _, err := s.requireActor(ctx, admins, actorID, rbac.PermViewClient); err != nil {
			return err
		}
		if _, err := admins.RequireAdminByID(adminID); err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		out = clients.ClientsByAdmin(adminID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateClientAddress replaces a client's address.
func (s *Service) UpdateClientAddress(ctx context.Context, actorID, clientID int, address string) (*subject.Client, error) {
	var client *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateClient)
		if err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		client, err = clients.UpdateClientAddress(clientID, address)
		if err != nil {
			return err
		}
		if err := s.saveClients(ctx, clients); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionClientUpdated, client.Name(), "address changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateClientContact replaces the contact fields that are non-nil and leaves
// the rest untouched.
func (s *Service) UpdateClientContact(ctx context.Context, actorID, clientID int, emails, phones *string) (*subject.Client, error) {
	var client *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateClient)
		if err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		client, err = clients.UpdateClientContact(clientID, emails, phones)
		if err != nil {
			return err
		}
		if err := s.saveClients(ctx, clients); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionClientUpdated, client.Name(), "contact changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// EnableClient sets the enabled flag on a client.
func (s *Service) EnableClient(ctx context.Context, actorID, clientID int) (*subject.Client, error) {
	return s.setClientStatus(ctx, actorID, clientID, true)
}

// DisableClient clears the enabled flag on a client.
func (s *Service) DisableClient(ctx context.Context, actorID, clientID int) (*subject.Client, error) {
	return s.setClientStatus(ctx, actorID, clientID, false)
}

func (s *Service) setClientStatus(ctx context.Context, actorID, clientID int, enabled bool) (*subject.Client, error) {
	var client *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermEnableClient)
		if err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		client, err = clients.SetClientStatus(clientID, enabled)
		if err != nil {
			return err
		}
		if err := s.saveClients(ctx, clients); err != nil {
			return err
		}
		action := audit.ActionClientEnabled
		if !enabled {
			action = audit.ActionClientDisabled
		}
		s.emitAudit(ctx, actor, action, client.Name(), "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// DeleteClient removes a client. Only the administrator that created the
// client may delete it; the creator's ownership count drops in the same unit
// of work.
func (s *Service) DeleteClient(ctx context.Context, actorID, clientID int) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermDeleteClient)
		if err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		client, err := clients.RequireClientByID(clientID)
		if err != nil {
			return err
		}
		if !client.CreatedBy(actorID) {
			s.emitAudit(ctx, actor, audit.ActionPermissionDenied, client.Name(),
				"delete attempted by non-creator")
			return dErrors.New(dErrors.CodeOperation, "only the creating admin can delete a client").
				WithSubject(client.Name())
		}
		name := client.Name()
		if err := clients.RemoveClient(clientID); err != nil {
			return err
		}
		if err := admins.DecrementCreatedClients(actorID); err != nil {
			return err
		}
		if err := s.saveClients(ctx, clients); err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionClientDeleted, name, "")
		return nil
	})
}

// TransferClientOwnership moves a client to another administrator, adjusting
// both ownership counts atomically. Only the current owner may transfer.
func (s *Service) TransferClientOwnership(ctx context.Context, actorID, clientID, newAdminID int) (*subject.Client, error) {
	var client *subject.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.LoadAdmins(ctx)
		if err != nil {
			return err
		}
		actor, err := s.requireActor(ctx, admins, actorID, rbac.PermUpdateClient)
		if err != nil {
			return err
		}
		newOwner, err := admins.RequireAdminByID(newAdminID)
		if err != nil {
			return err
		}
		clients, err := s.store.LoadClients(ctx)
		if err != nil {
			return err
		}
		current, err := clients.RequireClientByID(clientID)
		if err != nil {
			return err
		}
		if !current.CreatedBy(actorID) {
			s.emitAudit(ctx, actor, audit.ActionPermissionDenied, current.Name(),
				"transfer attempted by non-creator")
			return dErrors.New(dErrors.CodeOperation, "only the creating admin can transfer a client").
				WithSubject(current.Name())
		}
		oldAdminID := current.AdminID()
		if oldAdminID == newAdminID {
			client = current
			return nil
		}
		client, err = clients.TransferOwnership(clientID, newAdminID)
		if err != nil {
			return err
		}
		if err := admins.DecrementCreatedClients(oldAdminID); err != nil {
			return err
		}
		if err := admins.IncrementCreatedClients(newAdminID); err != nil {
			return err
		}
		if err := s.saveClients(ctx, clients); err != nil {
			return err
		}
		if err := s.saveAdmins(ctx, admins); err != nil {
			return err
		}
		s.emitAudit(ctx, actor, audit.ActionOwnerTransferred, client.Name(),
			"new owner "+newOwner.Name())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// saveClients persists the aggregate and translates optimistic-lock conflicts
// into concurrency errors.
func (s *Service) saveClients(ctx context.Context, clients *subject.Aggregate) error {
	if err := s.store.SaveClients(ctx, clients); err != nil {
		return s.translateSaveErr(err, "clients")
	}
	return nil
}

func (s *Service) translateSaveErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		if s.metrics != nil {
			s.metrics.IncrementSaveConflicts()
		}
		return dErrors.Wrap(err, dErrors.CodeConcurrency, "concurrent modification of "+what)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save "+what)
}
