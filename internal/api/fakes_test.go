// ABOUTME: In-memory Store fake and request helpers shared by api package tests.
// ABOUTME: Lets handler and middleware tests run without a database.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/access"
	"github.com/hassandayeh/NRE-sub001/internal/auth"
	"github.com/hassandayeh/NRE-sub001/internal/config"
	"github.com/hassandayeh/NRE-sub001/internal/permission"
	"github.com/hassandayeh/NRE-sub001/internal/store"
	"github.com/hassandayeh/NRE-sub001/internal/visibility"
)

const testSecret = "api-test-secret-0123456789abcdef"

type memberKey struct{ org, user uuid.UUID }

type slotKey struct {
	org  uuid.UUID
	slot permission.Slot
}

type overrideKey struct {
	role uuid.UUID
	cap  permission.Capability
}

type fakeStore struct {
	mu        sync.Mutex
	pingErr   error
	members   map[memberKey]permission.Slot
	roles     map[slotKey]*permission.OrgRole
	overrides map[overrideKey]bool
	bookings  map[uuid.UUID]*access.Booking
	experts   map[uuid.UUID]*visibility.Expert
	rowLoads  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   map[memberKey]permission.Slot{},
		roles:     map[slotKey]*permission.OrgRole{},
		overrides: map[overrideKey]bool{},
		bookings:  map[uuid.UUID]*access.Booking{},
		experts:   map[uuid.UUID]*visibility.Expert{},
	}
}

func (f *fakeStore) addMember(org, user uuid.UUID, slot permission.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[memberKey{org, user}] = slot
}

// activate configures slot as an active role in org.
func (f *fakeStore) activate(org uuid.UUID, slot permission.Slot) {
	active := true
	_, _ = f.UpdateOrgRole(context.Background(), org, slot, store.RoleUpdate{Active: &active})
}

func (f *fakeStore) loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rowLoads
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) GetMemberSlot(_ context.Context, orgID, userID uuid.UUID) (*permission.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.members[memberKey{orgID, userID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) LoadPermissionRows(_ context.Context, orgID uuid.UUID, slot permission.Slot, c permission.Capability) (permission.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowLoads++
	role, ok := f.roles[slotKey{orgID, slot}]
	if !ok {
		return permission.Rows{}, nil
	}
	cp := *role
	rows := permission.Rows{Role: &cp}
	if allowed, ok := f.overrides[overrideKey{role.ID, c}]; ok {
		rows.Override = &permission.Override{OrgRoleID: role.ID, Capability: c, Allowed: allowed}
	}
	return rows, nil
}

func (f *fakeStore) ensure(orgID uuid.UUID, slot permission.Slot) *permission.OrgRole {
	k := slotKey{orgID, slot}
	if r, ok := f.roles[k]; ok {
		return r
	}
	now := time.Now()
	r := &permission.OrgRole{ID: uuid.New(), OrgID: orgID, Slot: slot, CreatedAt: now, UpdatedAt: now}
	f.roles[k] = r
	return r
}

func (f *fakeStore) ListOrgRoles(_ context.Context, orgID uuid.UUID) ([]permission.OrgRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []permission.OrgRole
	for k, r := range f.roles {
		if k.org == orgID {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b permission.OrgRole) int { return int(a.Slot - b.Slot) })
	return out, nil
}

func (f *fakeStore) ListOverrides(_ context.Context, orgID uuid.UUID) ([]permission.Override, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []permission.Override
	for k, allowed := range f.overrides {
		for sk, r := range f.roles {
			if sk.org == orgID && r.ID == k.role {
				out = append(out, permission.Override{OrgRoleID: k.role, Capability: k.cap, Allowed: allowed})
			}
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateOrgRole(_ context.Context, orgID uuid.UUID, slot permission.Slot, upd store.RoleUpdate) (*permission.OrgRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.ensure(orgID, slot)
	if upd.Label != nil {
		r.Label = *upd.Label
	}
	if upd.Active != nil {
		r.Active = *upd.Active
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) SetOverride(_ context.Context, orgID uuid.UUID, slot permission.Slot, c permission.Capability, allowed bool) (*permission.Override, error) {
	if _, err := permission.ParseCapability(string(c)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.ensure(orgID, slot)
	f.overrides[overrideKey{r.ID, c}] = allowed
	return &permission.Override{OrgRoleID: r.ID, Capability: c, Allowed: allowed}, nil
}

func (f *fakeStore) ClearOverride(_ context.Context, orgID uuid.UUID, slot permission.Slot, c permission.Capability) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[slotKey{orgID, slot}]
	if !ok {
		return false, nil
	}
	k := overrideKey{r.ID, c}
	if _, ok := f.overrides[k]; !ok {
		return false, nil
	}
	delete(f.overrides, k)
	return true, nil
}

func (f *fakeStore) LoadBookingAccess(_ context.Context, orgID, bookingID uuid.UUID) (*access.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok || b.OrgID != orgID {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetExpert(_ context.Context, id uuid.UUID) (*visibility.Expert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.experts[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

// newTestServer returns a fake store and an httptest server running the full handler.
func newTestServer(t *testing.T) (*fakeStore, *httptest.Server) {
	t.Helper()
	fs := newFakeStore()
	cfg := &config.Config{JWTSecret: testSecret, AccessPhoneEnabled: true} //nolint:exhaustruct // test: only secret and phone switch needed
	srv := NewServer(fs, cfg, permission.DefaultCatalog())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return fs, ts
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := auth.IssueAccessToken([]byte(testSecret), userID, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do sends a request with an optional bearer token and JSON body and
// returns the status code and response body.
func do(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive: ts.URL is httptest.Server, not user input
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}
