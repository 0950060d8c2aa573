package access_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassandayeh/NRE-sub001/internal/access"
)

func TestResolveBooking_PoolsResolveIndependently(t *testing.T) {
	t.Parallel()
	guestID, hostID := uuid.New(), uuid.New()
	b := access.Booking{
		ID: uuid.New(),
		Guests: access.Pool{
			Kind: access.PoolGuests,
			Config: access.BookingConfig{
				Scope: access.ScopeUnified, Provisioning: access.ProvisioningShared,
				UnifiedType: access.Online, Defaults: access.Contact{JoinURL: "https://guests"},
			},
			Participants: []access.Participant{{ID: guestID, DisplayName: "Dr. Guest"}},
		},
		Hosts: access.Pool{
			Kind: access.PoolHosts,
			Config: access.BookingConfig{
				Scope: access.ScopeUnified, Provisioning: access.ProvisioningPerParticipant,
				UnifiedType: access.Online, Defaults: access.Contact{JoinURL: "https://hosts"},
			},
			Participants: []access.Participant{{ID: hostID, DisplayName: "Anchor"}},
		},
	}

	view, err := access.NewResolver(access.Options{}).ResolveBooking(b)
	require.NoError(t, err)

	require.Len(t, view.Guests.Entries, 1)
	g := view.Guests.Entries[0]
	assert.Equal(t, guestID, g.ParticipantID)
	require.NotNil(t, g.Value)
	assert.Equal(t, "https://guests", *g.Value, "guests use the guest pool's default")
	assert.True(t, g.UsedFallback)
	assert.Equal(t, 1, view.Guests.Fallbacks)
	assert.Zero(t, view.Guests.Missing)

	require.Len(t, view.Hosts.Entries, 1)
	h := view.Hosts.Entries[0]
	assert.Nil(t, h.Value, "hosts never see the guest default, and their own default is ineligible")
	assert.Equal(t, access.Placeholder, h.Rendered)
	assert.Equal(t, 1, view.Hosts.Missing)
	assert.Zero(t, view.Hosts.Fallbacks)
}

func TestResolvePool_ErrorNamesParticipant(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	p := access.Pool{
		Kind:         access.PoolHosts,
		Config:       access.BookingConfig{Scope: access.ScopePerParticipant, Provisioning: access.ProvisioningShared},
		Participants: []access.Participant{{ID: id}},
	}
	_, err := access.NewResolver(access.Options{}).ResolvePool(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, access.ErrUnknownAppearance)
	assert.Contains(t, err.Error(), id.String())
}

func TestPoolValidate(t *testing.T) {
	t.Parallel()
	opts := access.Options{PhoneEnabled: false}
	ok := access.Pool{
		Kind:   access.PoolGuests,
		Config: access.BookingConfig{Scope: access.ScopePerParticipant, Provisioning: access.ProvisioningPerParticipant},
		Participants: []access.Participant{
			{ID: uuid.New(), Appearance: access.Online},
			{ID: uuid.New(), Appearance: access.InPerson},
		},
	}
	assert.NoError(t, ok.Validate(opts))

	phone := ok
	phone.Participants = []access.Participant{{ID: uuid.New(), Appearance: access.Phone}}
	assert.True(t, errors.Is(phone.Validate(opts), access.ErrPhoneDisabled))
	assert.NoError(t, phone.Validate(access.Options{PhoneEnabled: true}))

	badProvisioning := ok
	badProvisioning.Config.Provisioning = 0
	assert.ErrorIs(t, badProvisioning.Validate(opts), access.ErrUnknownProvisioning)

	// Under UNIFIED scope the participant's own type is irrelevant.
	unified := access.Pool{
		Kind:         access.PoolGuests,
		Config:       access.BookingConfig{Scope: access.ScopeUnified, Provisioning: access.ProvisioningShared, UnifiedType: access.Online},
		Participants: []access.Participant{{ID: uuid.New()}},
	}
	assert.NoError(t, unified.Validate(opts))
}

func TestEnumParsing(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"ONLINE", "IN_PERSON", "PHONE"} {
		a, err := access.ParseAppearanceType(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.String())
	}
	_, err := access.ParseAppearanceType("online")
	assert.ErrorIs(t, err, access.ErrUnknownAppearance)

	s, err := access.ParseScope("PER_PARTICIPANT")
	require.NoError(t, err)
	assert.Equal(t, access.ScopePerParticipant, s)
	_, err = access.ParseScope("BOTH")
	assert.ErrorIs(t, err, access.ErrUnknownScope)

	p, err := access.ParseProvisioning("SHARED")
	require.NoError(t, err)
	assert.Equal(t, access.ProvisioningShared, p)
	_, err = access.ParseProvisioning("")
	assert.ErrorIs(t, err, access.ErrUnknownProvisioning)

	k, err := access.ParsePoolKind("host")
	require.NoError(t, err)
	assert.Equal(t, access.PoolHosts, k)
}

func TestBookingConfigJSON(t *testing.T) {
	t.Parallel()
	in := `{"appearance_scope":"UNIFIED","access_provisioning":"SHARED","unified_type":"IN_PERSON","defaults":{"venue_name":"HQ"}}`
	var cfg access.BookingConfig
	require.NoError(t, json.Unmarshal([]byte(in), &cfg))
	assert.Equal(t, access.ScopeUnified, cfg.Scope)
	assert.Equal(t, access.InPerson, cfg.UnifiedType)
	assert.True(t, cfg.DefaultEligible())

	bad := `{"appearance_scope":"SOMETIMES"}`
	assert.Error(t, json.Unmarshal([]byte(bad), &cfg))
}

func TestEntryJSONRendersNullValue(t *testing.T) {
	t.Parallel()
	e := access.Entry{Access: access.Access{Kind: access.Online}, Rendered: access.Placeholder}
	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"value":null`)
	assert.Contains(t, string(out), `"kind":"ONLINE"`)
	assert.Contains(t, string(out), `"used_fallback":false`)
}
