package models

import (
	"strings"
	"time"

	id "cornerstone/pkg/domain"
	dErrors "cornerstone/pkg/domain-errors"
)

// Role tags the attendee shape. Partners are guest-shaped: they carry the
// guest fields (relationship label, contact preference) regardless of whose
// partner they are, so there is no separate partner role.
type Role string

const (
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// ContactPreference records how an attendee wants to be reached. The zero
// value is deliberate: it is never defaulted, the UI must force an explicit
// choice before the details step validates.
type ContactPreference string

const (
	ContactUnset           ContactPreference = ""
	ContactDirectly        ContactPreference = "directly"
	ContactDelegatePrimary ContactPreference = "delegate-to-primary"
	ContactDelegateHost    ContactPreference = "delegate-to-host"
	ContactProvideLater    ContactPreference = "provide-later"
)

// legacyContactMasonOrGuest appeared in older drafts; it is no longer part of
// the canonical value set and is normalized to unset on snapshot restore.
const legacyContactMasonOrGuest ContactPreference = "mason-or-guest"

// NormalizeContactPreference maps legacy or unknown values to unset so old
// snapshots keep loading.
func NormalizeContactPreference(p ContactPreference) ContactPreference {
	switch p {
	case ContactDirectly, ContactDelegatePrimary, ContactDelegateHost, ContactProvideLater:
		return p
	case legacyContactMasonOrGuest:
		return ContactUnset
	default:
		return ContactUnset
	}
}

// Attendee is the central entity of a registration. One struct serves
// members, guests, and partners; validation switches on Role and the partner
// back-reference rather than on field presence.
type Attendee struct {
	ID        id.AttendeeID `json:"id"`
	Role      Role          `json:"role"`
	IsPrimary bool          `json:"is_primary"`

	// PartnerID points at this attendee's partner; PartnerOf is the inverse,
	// set on the partner itself. The roster keeps the pair mutual at all
	// times.
	PartnerID *id.AttendeeID `json:"partner_id,omitempty"`
	PartnerOf *id.AttendeeID `json:"partner_of,omitempty"`

	// HostID marks which member a guest is "guest of". Informational; used
	// for display grouping and validation labels, never for cascade.
	HostID *id.AttendeeID `json:"host_id,omitempty"`

	Title     string `json:"title"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	ContactPreference ContactPreference `json:"contact_preference"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`

	// Member-only fields.
	Rank         string `json:"rank,omitempty"`
	GrandRank    string `json:"grand_rank,omitempty"`
	GrandOfficer bool   `json:"grand_officer,omitempty"`
	LodgeID      string `json:"lodge_id,omitempty"`
	LodgeName    string `json:"lodge_name,omitempty"`

	// Guest/partner fields.
	Relationship string `json:"relationship,omitempty"`

	Dietary      string `json:"dietary,omitempty"`
	SpecialNeeds string `json:"special_needs,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPartner reports whether this attendee is someone's partner.
func (a *Attendee) IsPartner() bool { return a.PartnerOf != nil }

// Clone returns a deep copy so callers can never mutate roster-internal state.
func (a *Attendee) Clone() *Attendee {
	c := *a
	c.PartnerID = cloneID(a.PartnerID)
	c.PartnerOf = cloneID(a.PartnerOf)
	c.HostID = cloneID(a.HostID)
	return &c
}

func cloneID(p *id.AttendeeID) *id.AttendeeID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AttendeeUpdate is a partial, field-by-field merge. Nil pointers leave the
// field untouched.
type AttendeeUpdate struct {
	Title             *string            `json:"title,omitempty"`
	FirstName         *string            `json:"first_name,omitempty"`
	LastName          *string            `json:"last_name,omitempty"`
	ContactPreference *ContactPreference `json:"contact_preference,omitempty"`
	Email             *string            `json:"email,omitempty"`
	Phone             *string            `json:"phone,omitempty"`
	Rank              *string            `json:"rank,omitempty"`
	GrandRank         *string            `json:"grand_rank,omitempty"`
	GrandOfficer      *bool              `json:"grand_officer,omitempty"`
	LodgeID           *string            `json:"lodge_id,omitempty"`
	LodgeName         *string            `json:"lodge_name,omitempty"`
	Relationship      *string            `json:"relationship,omitempty"`
	Dietary           *string            `json:"dietary,omitempty"`
	SpecialNeeds      *string            `json:"special_needs,omitempty"`
}

// Apply merges the update into the attendee. The caller stamps UpdatedAt.
func (u AttendeeUpdate) Apply(a *Attendee) {
	setString(&a.Title, u.Title)
	setString(&a.FirstName, u.FirstName)
	setString(&a.LastName, u.LastName)
	if u.ContactPreference != nil {
		a.ContactPreference = *u.ContactPreference
	}
	setString(&a.Email, u.Email)
	setString(&a.Phone, u.Phone)
	setString(&a.Rank, u.Rank)
	setString(&a.GrandRank, u.GrandRank)
	if u.GrandOfficer != nil {
		a.GrandOfficer = *u.GrandOfficer
	}
	setString(&a.LodgeID, u.LodgeID)
	setString(&a.LodgeName, u.LodgeName)
	setString(&a.Relationship, u.Relationship)
	setString(&a.Dietary, u.Dietary)
	setString(&a.SpecialNeeds, u.SpecialNeeds)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// IsEmpty reports whether the update touches nothing.
func (u AttendeeUpdate) IsEmpty() bool {
	return u == AttendeeUpdate{}
}

// ValidateDetails accumulates every field-level problem on one attendee.
// Never short-circuits: the whole form is reported at once.
func ValidateDetails(a *Attendee) []dErrors.FieldError {
	var fields []dErrors.FieldError
	add := func(field, msg string) {
		fields = append(fields, dErrors.FieldError{AttendeeID: a.ID.String(), Field: field, Message: msg})
	}

	if strings.TrimSpace(a.FirstName) == "" {
		add("first_name", "first name is required")
	}
	if strings.TrimSpace(a.LastName) == "" {
		add("last_name", "last name is required")
	}
	if a.ContactPreference == ContactUnset {
		add("contact_preference", "contact preference must be chosen explicitly")
	}
	if a.ContactPreference == ContactDirectly {
		if strings.TrimSpace(a.Email) == "" {
			add("email", "email is required when contacted directly")
		}
		if strings.TrimSpace(a.Phone) == "" {
			add("phone", "phone is required when contacted directly")
		}
	}
	if a.Role == RoleMember && !a.IsPartner() {
		if strings.TrimSpace(a.Rank) == "" {
			add("rank", "rank is required for members")
		}
		if a.GrandOfficer && strings.TrimSpace(a.GrandRank) == "" {
			add("grand_rank", "grand rank is required for grand officers")
		}
	}
	return fields
}
