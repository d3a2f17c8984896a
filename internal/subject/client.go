// Package subject owns the authoritative set of client records serviced by
// administrators. Mirrors the identity aggregate's shape: a versioned
// consistency boundary with encapsulated mutation methods.
package subject

import (
	"strings"
	"time"
)

// Client is a member of the subject aggregate.
//
// Invariants:
//   - Name is non-empty after trimming and unique within the aggregate
//   - ID 0 means unassigned/new; id assignment is the persistence port's
//     responsibility after save, never the aggregate's
//   - AdminID records the creating administrator and never changes except
//     through an explicit ownership transfer
//
// Contact fields hold a single trimmed value each; equality is by id.
type Client struct {
	id        int
	name      string
	address   string
	phones    string
	emails    string
	adminID   int
	enabled   bool
	createdAt time.Time
	empty     bool
}

func newClient(name string, adminID int, address, phones, emails string, enabled bool, now time.Time) *Client {
	return &Client{
		name:      strings.TrimSpace(name),
		address:   strings.TrimSpace(address),
		phones:    strings.TrimSpace(phones),
		emails:    strings.TrimSpace(emails),
		adminID:   adminID,
		enabled:   enabled,
		createdAt: now,
	}
}

// RehydrateClient rebuilds a member from persisted state.
func RehydrateClient(id int, name string, adminID int, address, phones, emails string, enabled bool, createdAt time.Time) *Client {
	return &Client{
		id:        id,
		name:      name,
		address:   address,
		phones:    phones,
		emails:    emails,
		adminID:   adminID,
		enabled:   enabled,
		createdAt: createdAt,
	}
}

// EmptyClient is the null object returned by presence-optional lookups.
func EmptyClient() *Client {
	return &Client{empty: true}
}

func (c *Client) IsEmpty() bool { return c == nil || c.empty }

// Equal implements equality by id. Unassigned (id 0) and empty clients are
// never equal to anything.
func (c *Client) Equal(other *Client) bool {
	if c.IsEmpty() || other.IsEmpty() || c.id == 0 || other.id == 0 {
		return false
	}
	return c.id == other.id
}

func (c *Client) ID() int              { return c.id }
func (c *Client) Name() string         { return c.name }
func (c *Client) Address() string      { return c.address }
func (c *Client) Phones() string       { return c.phones }
func (c *Client) Emails() string       { return c.emails }
func (c *Client) AdminID() int         { return c.adminID }
func (c *Client) Enabled() bool        { return c.enabled }
func (c *Client) CreatedAt() time.Time { return c.createdAt }

// CreatedBy reports whether the administrator with the id created this client.
func (c *Client) CreatedBy(adminID int) bool {
	return !c.IsEmpty() && c.adminID == adminID
}
