package subject

import (
	"sort"
	"strconv"
	"strings"
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// Aggregate is the consistency boundary for clients. Members are indexed
// both by unique name and by id; every real client (id != 0) is reachable
// through both indexes. Newly created, not-yet-persisted members are tracked
// on a side list so the save step can distinguish inserts from updates.
//
// Every mutating operation increments the version counter exactly once;
// failed operations leave the aggregate untouched.
type Aggregate struct {
	byName     map[string]*Client
	byID       map[int]*Client
	newClients []*Client
	version    int
	base       int
}

// NewAggregate constructs an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		byName: make(map[string]*Client),
		byID:   make(map[int]*Client),
	}
}

// LoadAggregate rehydrates an aggregate from persisted members and pins the
// version to the persisted value.
func LoadAggregate(clients []*Client, version int) (*Aggregate, error) {
	a := NewAggregate()
	for _, client := range clients {
		if err := a.addMember(client); err != nil {
			return nil, err
		}
	}
	a.version = version
	a.base = version
	return a, nil
}

// Version returns the current aggregate version.
func (a *Aggregate) Version() int { return a.version }

// BaseVersion returns the version the aggregate was loaded at. The
// persistence port compares it against the persisted version at save time, so
// a concurrent writer that advanced the counter by the same amount is still
// detected as a conflict.
func (a *Aggregate) BaseVersion() int { return a.base }

// CreateClient validates and inserts a new member with an unassigned id.
// Ids are never auto-assigned here; the persistence port assigns them after
// save, which is why the member also lands on the new-clients side list.
func (a *Aggregate) CreateClient(name string, adminID int, address, phones, emails string, enabled bool) (*Client, error) {
	client := newClient(name, adminID, address, phones, emails, enabled, time.Now().UTC())
	if client.name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "client name cannot be empty")
	}
	if _, ok := a.byName[client.name]; ok {
		return nil, dErrors.New(dErrors.CodeAlreadyExists, "client name already exists").WithSubject(client.name)
	}
	a.byName[client.name] = client
	a.newClients = append(a.newClients, client)
	a.version++
	return client, nil
}

// addMember enforces both uniqueness invariants without touching the version.
func (a *Aggregate) addMember(client *Client) error {
	if _, ok := a.byName[client.name]; ok {
		return dErrors.New(dErrors.CodeAlreadyExists, "client name already exists").WithSubject(client.name)
	}
	if client.id != 0 {
		if _, ok := a.byID[client.id]; ok {
			return dErrors.New(dErrors.CodeAlreadyExists, "client id already exists").
				WithSubject(strconv.Itoa(client.id))
		}
	}
	a.byName[client.name] = client
	if client.id != 0 {
		a.byID[client.id] = client
	} else {
		a.newClients = append(a.newClients, client)
	}
	return nil
}

// ClientByID returns the null object when the id is unknown; it never fails.
func (a *Aggregate) ClientByID(id int) *Client {
	if client, ok := a.byID[id]; ok {
		return client
	}
	return EmptyClient()
}

// ClientByName returns the null object when the name is unknown.
func (a *Aggregate) ClientByName(name string) *Client {
	if client, ok := a.byName[strings.TrimSpace(name)]; ok {
		return client
	}
	return EmptyClient()
}

// RequireClientByID fails with a not-found error; use it on presence-required paths.
func (a *Aggregate) RequireClientByID(id int) (*Client, error) {
	client := a.ClientByID(id)
	if client.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeNotFound, "client not found").WithSubject(strconv.Itoa(id))
	}
	return client, nil
}

// RequireClientByName fails with a not-found error.
func (a *Aggregate) RequireClientByName(name string) (*Client, error) {
	client := a.ClientByName(name)
	if client.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeNotFound, "client not found").WithSubject(name)
	}
	return client, nil
}

// ClientExists reports presence by unique name.
func (a *Aggregate) ClientExists(name string) bool {
	_, ok := a.byName[strings.TrimSpace(name)]
	return ok
}

// UpdateClientAddress replaces the address.
func (a *Aggregate) UpdateClientAddress(id int, newAddress string) (*Client, error) {
	client, err := a.RequireClientByID(id)
	if err != nil {
		return nil, err
	}
	client.address = strings.TrimSpace(newAddress)
	a.version++
	return client, nil
}

// UpdateClientContact replaces the contact fields. Nil means "leave as is"
// so callers can update one field without resending the other.
func (a *Aggregate) UpdateClientContact(id int, emails, phones *string) (*Client, error) {
	client, err := a.RequireClientByID(id)
	if err != nil {
		return nil, err
	}
	if emails != nil {
		client.emails = strings.TrimSpace(*emails)
	}
	if phones != nil {
		client.phones = strings.TrimSpace(*phones)
	}
	a.version++
	return client, nil
}

// SetClientStatus sets the enabled flag.
func (a *Aggregate) SetClientStatus(id int, enabled bool) (*Client, error) {
	client, err := a.RequireClientByID(id)
	if err != nil {
		return nil, err
	}
	client.enabled = enabled
	a.version++
	return client, nil
}

// ToggleClientStatus flips the enabled flag.
func (a *Aggregate) ToggleClientStatus(id int) (*Client, error) {
	client, err := a.RequireClientByID(id)
	if err != nil {
		return nil, err
	}
	client.enabled = !client.enabled
	a.version++
	return client, nil
}

// TransferOwnership reassigns the creating administrator. The surrounding
// domain service enforces that only the current owner may do this.
func (a *Aggregate) TransferOwnership(id, newAdminID int) (*Client, error) {
	client, err := a.RequireClientByID(id)
	if err != nil {
		return nil, err
	}
	client.adminID = newAdminID
	a.version++
	return client, nil
}

// RemoveClient removes a member by id.
func (a *Aggregate) RemoveClient(id int) error {
	client, err := a.RequireClientByID(id)
	if err != nil {
		return err
	}
	delete(a.byName, client.name)
	delete(a.byID, client.id)
	a.version++
	return nil
}

// AssignID gives a newly persisted member its storage-assigned id and moves
// it off the new-clients list. Called by the persistence port at save time;
// not a structural change, so the version stays put.
func (a *Aggregate) AssignID(name string, id int) error {
	client, err := a.RequireClientByName(name)
	if err != nil {
		return err
	}
	if client.id != 0 {
		return dErrors.New(dErrors.CodeOperation, "client id already assigned").WithSubject(client.name)
	}
	if _, ok := a.byID[id]; ok {
		return dErrors.New(dErrors.CodeAlreadyExists, "client id already exists").
			WithSubject(strconv.Itoa(id))
	}
	client.id = id
	a.byID[id] = client
	for i, pending := range a.newClients {
		if pending == client {
			a.newClients = append(a.newClients[:i], a.newClients[i+1:]...)
			break
		}
	}
	return nil
}

// NewClients lists members created in this context that have no id yet.
func (a *Aggregate) NewClients() []*Client {
	out := make([]*Client, len(a.newClients))
	copy(out, a.newClients)
	return out
}

// ClientsByAdmin lists members created by the administrator.
func (a *Aggregate) ClientsByAdmin(adminID int) []*Client {
	var out []*Client
	for _, client := range a.All() {
		if client.adminID == adminID {
			out = append(out, client)
		}
	}
	return out
}

// All lists members ordered by name for deterministic iteration.
func (a *Aggregate) All() []*Client {
	out := make([]*Client, 0, len(a.byName))
	for _, client := range a.byName {
		out = append(out, client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Enabled lists members with the enabled flag set.
func (a *Aggregate) Enabled() []*Client {
	var out []*Client
	for _, client := range a.All() {
		if client.enabled {
			out = append(out, client)
		}
	}
	return out
}

// Disabled lists members with the enabled flag cleared.
func (a *Aggregate) Disabled() []*Client {
	var out []*Client
	for _, client := range a.All() {
		if !client.enabled {
			out = append(out, client)
		}
	}
	return out
}

// Count returns the number of members.
func (a *Aggregate) Count() int { return len(a.byName) }
