package hubservice

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
)

// In-memory repositories over a shared fixture store. Duplicate and
// not-found behavior mirrors the constraint mapping of the Postgres
// implementations.

type store struct {
	apiaries map[string]*models.Apiary
	points   map[string][]*models.Datapoint
}

func newStore() *store {
	return &store{
		apiaries: make(map[string]*models.Apiary),
		points:   make(map[string][]*models.Datapoint),
	}
}

type fakeBase struct{}

func (fakeBase) BeginTx(ctx context.Context) (database.Transaction, error) { return nil, nil }

type fakeApiaryRepo struct {
	fakeBase
	s *store
}

func (r *fakeApiaryRepo) Create(ctx context.Context, apiary *models.Apiary, creatorUserID string) error {
	for _, a := range r.s.apiaries {
		if a.Name == apiary.Name {
			return errors.NewDuplicateError("an apiary with this name already exists", nil)
		}
	}
	stored := *apiary
	stored.Members = []*models.Member{
		{ApiaryID: apiary.ID, UserID: creatorUserID, Role: models.RoleCreator, CreatedAt: apiary.CreatedAt},
	}
	stored.Devices = []*models.Device{}
	r.s.apiaries[apiary.ID] = &stored
	return nil
}

func (r *fakeApiaryRepo) Get(ctx context.Context, id string) (*models.Apiary, error) {
	apiary, ok := r.s.apiaries[id]
	if !ok {
		return nil, errors.NewNotFoundError("apiary not found", nil)
	}
	copied := *apiary
	copied.Members = append([]*models.Member{}, apiary.Members...)
	copied.Devices = append([]*models.Device{}, apiary.Devices...)
	return &copied, nil
}

func (r *fakeApiaryRepo) UpdateName(ctx context.Context, id, name string) error {
	apiary, ok := r.s.apiaries[id]
	if !ok {
		return errors.NewNotFoundError("apiary not found", nil)
	}
	apiary.Name = name
	return nil
}

func (r *fakeApiaryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.apiaries[id]; !ok {
		return errors.NewNotFoundError("apiary not found", nil)
	}
	delete(r.s.apiaries, id)
	return nil
}

func (r *fakeApiaryRepo) ListByUser(ctx context.Context, userID string) ([]*models.Apiary, error) {
	result := []*models.Apiary{}
	for id, apiary := range r.s.apiaries {
		for _, m := range apiary.Members {
			if m.UserID == userID {
				copied, _ := r.Get(ctx, id)
				result = append(result, copied)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeMemberRepo struct {
	fakeBase
	s *store
}

func (r *fakeMemberRepo) Add(ctx context.Context, member *models.Member) error {
	apiary, ok := r.s.apiaries[member.ApiaryID]
	if !ok {
		return errors.NewNotFoundError("apiary not found", nil)
	}
	for _, m := range apiary.Members {
		if m.UserID == member.UserID {
			return errors.NewDuplicateError("user is already a member of this apiary", nil)
		}
	}
	apiary.Members = append(apiary.Members, member)
	return nil
}

func (r *fakeMemberRepo) UpdateRole(ctx context.Context, apiaryID, userID string, role models.Role) error {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return errors.NewNotFoundError("member not found", nil)
	}
	for _, m := range apiary.Members {
		if m.UserID == userID {
			m.Role = role
			return nil
		}
	}
	return errors.NewNotFoundError("member not found", nil)
}

func (r *fakeMemberRepo) Remove(ctx context.Context, apiaryID, userID string) error {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return errors.NewNotFoundError("member not found", nil)
	}
	for i, m := range apiary.Members {
		if m.UserID == userID {
			apiary.Members = append(apiary.Members[:i], apiary.Members[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError("member not found", nil)
}

func (r *fakeMemberRepo) List(ctx context.Context, apiaryID string) ([]*models.Member, error) {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return nil, errors.NewNotFoundError("apiary not found", nil)
	}
	return append([]*models.Member{}, apiary.Members...), nil
}

func (r *fakeMemberRepo) Count(ctx context.Context, apiaryID string) (int, error) {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return 0, errors.NewNotFoundError("apiary not found", nil)
	}
	return len(apiary.Members), nil
}

type fakeDeviceRepo struct {
	fakeBase
	s *store
}

func (r *fakeDeviceRepo) Create(ctx context.Context, device *models.Device) error {
	for _, apiary := range r.s.apiaries {
		for _, d := range apiary.Devices {
			if d.Serial == device.Serial {
				return errors.NewDuplicateError("a device with this serial number already exists", nil)
			}
			if d.Remote == device.Remote {
				return errors.NewDuplicateError("a device with this remote URL already exists", nil)
			}
		}
	}
	apiary, ok := r.s.apiaries[device.ApiaryID]
	if !ok {
		return errors.NewNotFoundError("apiary not found", nil)
	}
	apiary.Devices = append(apiary.Devices, device)
	return nil
}

func (r *fakeDeviceRepo) Get(ctx context.Context, apiaryID, deviceID string) (*models.Device, error) {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return nil, errors.NewNotFoundError("device not found", nil)
	}
	for _, d := range apiary.Devices {
		if d.ID == deviceID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, errors.NewNotFoundError("device not found", nil)
}

func (r *fakeDeviceRepo) GetBySerial(ctx context.Context, serial string) (*models.Device, error) {
	for _, apiary := range r.s.apiaries {
		for _, d := range apiary.Devices {
			if d.Serial == serial {
				copied := *d
				return &copied, nil
			}
		}
	}
	return nil, errors.NewNotFoundError("device not found", nil)
}

func (r *fakeDeviceRepo) Update(ctx context.Context, apiaryID, deviceID string, name, remote *string) error {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	for _, d := range apiary.Devices {
		if d.ID == deviceID {
			if name != nil {
				d.Name = *name
			}
			if remote != nil {
				d.Remote = *remote
			}
			return nil
		}
	}
	return errors.NewNotFoundError("device not found", nil)
}

func (r *fakeDeviceRepo) Delete(ctx context.Context, apiaryID, deviceID string) error {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	for i, d := range apiary.Devices {
		if d.ID == deviceID {
			apiary.Devices = append(apiary.Devices[:i], apiary.Devices[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError("device not found", nil)
}

func (r *fakeDeviceRepo) ListByApiary(ctx context.Context, apiaryID string) ([]*models.Device, error) {
	apiary, ok := r.s.apiaries[apiaryID]
	if !ok {
		return nil, errors.NewNotFoundError("apiary not found", nil)
	}
	return append([]*models.Device{}, apiary.Devices...), nil
}

type fakeDatapointRepo struct {
	s *store
}

func (r *fakeDatapointRepo) Insert(ctx context.Context, point *models.Datapoint) error {
	r.s.points[point.Serial] = append(r.s.points[point.Serial], point)
	return nil
}

func (r *fakeDatapointRepo) GetSince(ctx context.Context, serial string, from time.Time) ([]*models.Datapoint, error) {
	result := []*models.Datapoint{}
	for _, p := range r.s.points[serial] {
		if !p.Time.Before(from) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakeDatapointRepo) Latest(ctx context.Context, serial string) (*models.Datapoint, error) {
	points := r.s.points[serial]
	if len(points) == 0 {
		return nil, errors.NewNotFoundError("no datapoints for device", nil)
	}
	return points[len(points)-1], nil
}

func (r *fakeDatapointRepo) DeleteBySerial(ctx context.Context, serial string) error {
	delete(r.s.points, serial)
	return nil
}

func (r *fakeDatapointRepo) DeleteBySerials(ctx context.Context, serials []string) error {
	for _, serial := range serials {
		delete(r.s.points, serial)
	}
	return nil
}

type fakeChartCache struct {
	entries     map[string][]*models.Datapoint
	invalidated []string
}

func newFakeChartCache() *fakeChartCache {
	return &fakeChartCache{entries: make(map[string][]*models.Datapoint)}
}

func (c *fakeChartCache) key(serial string, filter models.TimeFilter) string {
	return fmt.Sprintf("%s:%s", serial, filter)
}

func (c *fakeChartCache) Get(ctx context.Context, serial string, filter models.TimeFilter) ([]*models.Datapoint, bool) {
	points, ok := c.entries[c.key(serial, filter)]
	return points, ok
}

func (c *fakeChartCache) Set(ctx context.Context, serial string, filter models.TimeFilter, points []*models.Datapoint) {
	c.entries[c.key(serial, filter)] = points
}

func (c *fakeChartCache) Invalidate(ctx context.Context, serial string) {
	c.invalidated = append(c.invalidated, serial)
	for _, filter := range []models.TimeFilter{models.FilterAllTime, models.FilterDay} {
		delete(c.entries, c.key(serial, filter))
	}
}

// Fixture: one apiary with creator u1, admin u2, plain member u3, and
// one registered device.

func newTestService(t *testing.T) (*HubService, *store) {
	t.Helper()
	s := newStore()
	svc := New(
		&fakeApiaryRepo{s: s},
		&fakeMemberRepo{s: s},
		&fakeDeviceRepo{s: s},
		&fakeDatapointRepo{s: s},
		newFakeChartCache(),
		3*time.Hour,
	)

	ctx := context.Background()
	apiary := &models.Apiary{ID: "ap_1", Name: "North Field", Latitude: 48.1, Longitude: 11.5}
	if err := svc.CreateApiary(ctx, apiary, "u1"); err != nil {
		t.Fatalf("CreateApiary: %v", err)
	}
	if _, err := svc.AddMember(ctx, "ap_1", "u1", "u2", models.RoleAdmin); err != nil {
		t.Fatalf("AddMember u2: %v", err)
	}
	if _, err := svc.AddMember(ctx, "ap_1", "u1", "u3", models.RoleUser); err != nil {
		t.Fatalf("AddMember u3: %v", err)
	}
	device := &models.Device{Serial: "SN-100", Name: "Gate Counter", Remote: "https://remote.example/sn-100"}
	if _, err := svc.AddDevice(ctx, "ap_1", "u2", device); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	return svc, s
}

func deviceID(t *testing.T, s *store) string {
	t.Helper()
	return s.apiaries["ap_1"].Devices[0].ID
}

func TestCreateApiarySetsSingleCreator(t *testing.T) {
	svc, s := newTestService(t)
	_ = svc

	creators := 0
	for _, m := range s.apiaries["ap_1"].Members {
		if m.Role == models.RoleCreator {
			creators++
		}
	}
	if creators != 1 {
		t.Fatalf("apiary has %d creators, want exactly 1", creators)
	}
}

func TestAddMemberRejectsCreatorRole(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AddMember(context.Background(), "ap_1", "u1", "u4", models.RoleCreator)
	if !errors.IsInvalidRole(err) {
		t.Fatalf("AddMember(CREATOR) error = %v, want invalid role error", err)
	}

	_, err = svc.AddMember(context.Background(), "ap_1", "u1", "u4", models.Role("OWNER"))
	if !errors.IsInvalidRole(err) {
		t.Fatalf("AddMember(unknown role) error = %v, want invalid role error", err)
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	// The creator is already a member, whatever role is requested.
	_, err := svc.AddMember(context.Background(), "ap_1", "u2", "u1", models.RoleAdmin)
	if !errors.IsDuplicate(err) {
		t.Fatalf("AddMember(existing user) error = %v, want duplicate error", err)
	}
}

func TestAddMemberDefaultRole(t *testing.T) {
	svc, s := newTestService(t)
	if _, err := svc.AddMember(context.Background(), "ap_1", "u1", "u4", ""); err != nil {
		t.Fatalf("AddMember with empty role: %v", err)
	}
	for _, m := range s.apiaries["ap_1"].Members {
		if m.UserID == "u4" && m.Role != models.RoleUser {
			t.Fatalf("default role = %s, want USER", m.Role)
		}
	}
}

func TestAddMemberLimit(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	for i := len(s.apiaries["ap_1"].Members); i < models.MaxMembersPerApiary; i++ {
		if _, err := svc.AddMember(ctx, "ap_1", "u1", fmt.Sprintf("fill%d", i), models.RoleUser); err != nil {
			t.Fatalf("filling members: %v", err)
		}
	}

	_, err := svc.AddMember(ctx, "ap_1", "u1", "overflow", models.RoleUser)
	apiErr, ok := err.(*errors.APIError)
	if !ok || apiErr.Type != errors.ErrorTypeMemberLimit {
		t.Fatalf("11th member error = %v, want member limit error", err)
	}
	if got := len(s.apiaries["ap_1"].Members); got != models.MaxMembersPerApiary {
		t.Fatalf("member count = %d, want %d", got, models.MaxMembersPerApiary)
	}
}

func TestMemberMutationRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "ap_1", "u3", "u4", models.RoleUser); !errors.IsAuthorization(err) {
		t.Errorf("AddMember by USER error = %v, want authorization error", err)
	}
	if _, err := svc.UpdateMemberRole(ctx, "ap_1", "u3", "u2", models.RoleUser); !errors.IsAuthorization(err) {
		t.Errorf("UpdateMemberRole by USER error = %v, want authorization error", err)
	}
	if _, err := svc.RemoveMember(ctx, "ap_1", "u3", "u2"); !errors.IsAuthorization(err) {
		t.Errorf("RemoveMember by USER error = %v, want authorization error", err)
	}
}

func TestMemberMutationByNonMember(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AddMember(context.Background(), "ap_1", "stranger", "u4", models.RoleUser)
	if !errors.IsNotFound(err) {
		t.Fatalf("AddMember by non-member error = %v, want not found", err)
	}
}

func TestCreatorRoleImmutable(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateMemberRole(ctx, "ap_1", "u2", "u1", models.RoleUser); !errors.IsImmutableCreator(err) {
		t.Errorf("demoting creator error = %v, want immutable creator error", err)
	}
	if _, err := svc.UpdateMemberRole(ctx, "ap_1", "u1", "u3", models.RoleCreator); !errors.IsInvalidRole(err) {
		t.Errorf("promoting to creator error = %v, want invalid role error", err)
	}
	if _, err := svc.RemoveMember(ctx, "ap_1", "u2", "u1"); !errors.IsImmutableCreator(err) {
		t.Errorf("removing creator error = %v, want immutable creator error", err)
	}

	role, _ := targetRole(s.apiaries["ap_1"].Members, "u1")
	if role != models.RoleCreator {
		t.Fatalf("creator role after failed mutations = %s, want CREATOR", role)
	}
}

func TestUpdateMemberRoleInPlace(t *testing.T) {
	svc, s := newTestService(t)
	before := len(s.apiaries["ap_1"].Members)

	members, err := svc.UpdateMemberRole(context.Background(), "ap_1", "u1", "u3", models.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	if len(members) != before {
		t.Fatalf("member count changed from %d to %d on role update", before, len(members))
	}
	role, _ := targetRole(members, "u3")
	if role != models.RoleAdmin {
		t.Fatalf("u3 role = %s, want ADMIN", role)
	}
}

func TestUpdateMemberRoleAbsentUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateMemberRole(context.Background(), "ap_1", "u1", "ghost", models.RoleAdmin)
	if !errors.IsNotFound(err) {
		t.Fatalf("UpdateMemberRole(absent) error = %v, want not found", err)
	}
}

func TestDeleteApiaryCreatorOnly(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	if err := svc.DeleteApiary(ctx, "ap_1", "u2"); !errors.IsAuthorization(err) {
		t.Fatalf("DeleteApiary by admin error = %v, want authorization error", err)
	}

	s.points["SN-100"] = []*models.Datapoint{{Serial: "SN-100", Time: time.Now()}}
	if err := svc.DeleteApiary(ctx, "ap_1", "u1"); err != nil {
		t.Fatalf("DeleteApiary by creator: %v", err)
	}
	if _, ok := s.apiaries["ap_1"]; ok {
		t.Error("apiary still present after delete")
	}
	if _, ok := s.points["SN-100"]; ok {
		t.Error("datapoint series still present after cascading delete")
	}
}

func TestAddDeviceDuplicateSerialAcrossApiaries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	other := &models.Apiary{ID: "ap_2", Name: "South Field"}
	if err := svc.CreateApiary(ctx, other, "u9"); err != nil {
		t.Fatalf("CreateApiary: %v", err)
	}

	// Same serial registered to a different apiary must still collide.
	dup := &models.Device{Serial: "SN-100", Name: "Other", Remote: "https://remote.example/other"}
	if _, err := svc.AddDevice(ctx, "ap_2", "u9", dup); !errors.IsDuplicate(err) {
		t.Fatalf("duplicate serial error = %v, want duplicate error", err)
	}
}

func TestUpdateDeviceRoundTrip(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	id := deviceID(t, s)

	name := "Renamed Counter"
	updated, err := svc.UpdateDevice(ctx, "ap_1", "u2", id, &models.DeviceUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateDevice: %v", err)
	}
	if updated.Name != name {
		t.Errorf("name = %q, want %q", updated.Name, name)
	}
	if updated.Serial != "SN-100" {
		t.Errorf("serial = %q, want unchanged SN-100", updated.Serial)
	}

	devices, err := svc.GetDevices(ctx, "ap_1", "u2")
	if err != nil {
		t.Fatalf("GetDevices: %v", err)
	}
	if len(devices) != 1 || devices[0].Name != name {
		t.Error("GetDevices does not reflect the update")
	}
}

func TestUpdateDeviceSerialImmutable(t *testing.T) {
	svc, s := newTestService(t)
	id := deviceID(t, s)

	serial := "SN-999"
	_, err := svc.UpdateDevice(context.Background(), "ap_1", "u2", id, &models.DeviceUpdate{Serial: &serial})
	if !errors.IsValidation(err) {
		t.Fatalf("serial change error = %v, want validation error", err)
	}

	// Sending the stored serial back unchanged is fine.
	same := "SN-100"
	if _, err := svc.UpdateDevice(context.Background(), "ap_1", "u2", id, &models.DeviceUpdate{Serial: &same}); err != nil {
		t.Fatalf("no-op serial in payload rejected: %v", err)
	}
}

func TestDeviceMutationRequiresAdmin(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	id := deviceID(t, s)

	device := &models.Device{Serial: "SN-200", Name: "New", Remote: "https://remote.example/sn-200"}
	if _, err := svc.AddDevice(ctx, "ap_1", "u3", device); !errors.IsAuthorization(err) {
		t.Errorf("AddDevice by USER error = %v, want authorization error", err)
	}
	if err := svc.RemoveDevice(ctx, "ap_1", "u3", id); !errors.IsAuthorization(err) {
		t.Errorf("RemoveDevice by USER error = %v, want authorization error", err)
	}
}

func TestRemoveDeviceCascadesSeries(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	id := deviceID(t, s)
	s.points["SN-100"] = []*models.Datapoint{{Serial: "SN-100", Time: time.Now()}}

	if err := svc.RemoveDevice(ctx, "ap_1", "u1", id); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if _, ok := s.points["SN-100"]; ok {
		t.Error("datapoint series survived device removal")
	}
	if err := svc.RemoveDevice(ctx, "ap_1", "u1", id); !errors.IsNotFound(err) {
		t.Errorf("second removal error = %v, want not found", err)
	}
}

func TestFilterDeviceFieldsByRole(t *testing.T) {
	now := time.Now()
	device := &models.Device{
		ID:        "dev_1",
		ApiaryID:  "ap_1",
		Serial:    "SN-100",
		Name:      "Gate Counter",
		Remote:    "https://remote.example/sn-100",
		CreatedAt: now,
		UpdatedAt: now,
	}

	tests := []struct {
		role       models.Role
		seesRemote bool
	}{
		{models.RoleUser, false},
		{models.RoleAdmin, true},
		{models.RoleCreator, true},
	}

	for _, tt := range tests {
		got, err := filterDeviceFields(device, roleSlugs(tt.role))
		if err != nil {
			t.Fatalf("filterDeviceFields(%s): %v", tt.role, err)
		}
		// Public fields survive filtering for every role.
		if got.ID != device.ID || got.ApiaryID != device.ApiaryID ||
			got.Serial != device.Serial || got.Name != device.Name {
			t.Errorf("%s: public fields mangled: %+v", tt.role, got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Errorf("%s: timestamps stripped", tt.role)
		}
		if tt.seesRemote && got.Remote != device.Remote {
			t.Errorf("%s: remote URL %q, want %q", tt.role, got.Remote, device.Remote)
		}
		if !tt.seesRemote && got.Remote != "" {
			t.Errorf("%s: remote URL %q visible", tt.role, got.Remote)
		}
	}
}

func TestGetDevicesHidesRemoteFromPlainMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	devices, err := svc.GetDevices(ctx, "ap_1", "u3")
	if err != nil {
		t.Fatalf("GetDevices as USER: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(devices))
	}
	if devices[0].Remote != "" {
		t.Errorf("remote URL %q visible to plain member", devices[0].Remote)
	}
	if devices[0].Serial != "SN-100" {
		t.Errorf("serial filtered out for plain member")
	}

	devices, err = svc.GetDevices(ctx, "ap_1", "u2")
	if err != nil {
		t.Fatalf("GetDevices as ADMIN: %v", err)
	}
	if devices[0].Remote == "" {
		t.Error("remote URL hidden from admin")
	}
}

func TestIngestDatapoint(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	point := &models.Datapoint{
		Serial:      "SN-100",
		RawActivity: models.ActivityVector{X: 4, Y: 2},
		Weather:     models.Weather{Temp: 21.5, Humidity: 40, Windspeed: 3},
	}
	stored, err := svc.IngestDatapoint(ctx, point)
	if err != nil {
		t.Fatalf("IngestDatapoint: %v", err)
	}
	if stored.ID == "" {
		t.Error("ingested datapoint has no id")
	}
	if stored.Time.IsZero() {
		t.Error("ingested datapoint has no timestamp")
	}
	if len(s.points["SN-100"]) != 1 {
		t.Fatalf("series length = %d, want 1", len(s.points["SN-100"]))
	}

	cache := svc.Charts.(*fakeChartCache)
	if len(cache.invalidated) == 0 || cache.invalidated[len(cache.invalidated)-1] != "SN-100" {
		t.Error("chart cache not invalidated on ingest")
	}
}

func TestIngestDatapointUnknownSerial(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.IngestDatapoint(context.Background(), &models.Datapoint{Serial: "SN-999"})
	if !errors.IsNotFound(err) {
		t.Fatalf("unknown serial error = %v, want not found", err)
	}
}

func TestGetChartDataDownsamples(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	id := deviceID(t, s)

	now := time.Now()
	points := make([]*models.Datapoint, 2500)
	for i := range points {
		points[i] = &models.Datapoint{
			Serial: "SN-100",
			Time:   now.Add(-time.Duration(len(points)-i) * time.Minute),
		}
	}
	s.points["SN-100"] = points

	got, err := svc.GetChartData(ctx, "ap_1", "u3", id, models.FilterAllTime)
	if err != nil {
		t.Fatalf("GetChartData: %v", err)
	}
	if len(got) != 834 {
		t.Fatalf("got %d points, want 834", len(got))
	}

	// Second call must come out of the cache.
	cache := svc.Charts.(*fakeChartCache)
	if _, ok := cache.Get(ctx, "SN-100", models.FilterAllTime); !ok {
		t.Fatal("chart result not cached")
	}
	again, err := svc.GetChartData(ctx, "ap_1", "u3", id, models.FilterAllTime)
	if err != nil {
		t.Fatalf("GetChartData (cached): %v", err)
	}
	if len(again) != len(got) {
		t.Fatalf("cached result length %d, want %d", len(again), len(got))
	}
}

func TestGetChartDataEmptySeries(t *testing.T) {
	svc, s := newTestService(t)
	got, err := svc.GetChartData(context.Background(), "ap_1", "u3", deviceID(t, s), models.FilterWeek)
	if err != nil {
		t.Fatalf("GetChartData on empty series: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d points from empty series, want 0", len(got))
	}
}

func TestGetChartDataNonMember(t *testing.T) {
	svc, s := newTestService(t)
	_, err := svc.GetChartData(context.Background(), "ap_1", "stranger", deviceID(t, s), models.FilterAllTime)
	if !errors.IsNotFound(err) {
		t.Fatalf("chart data for non-member error = %v, want not found", err)
	}
}

func TestGetDeviceOverview(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	id := deviceID(t, s)
	now := time.Now()

	s.points["SN-100"] = []*models.Datapoint{
		{Serial: "SN-100", Time: now.Add(-30 * time.Hour), RawActivity: models.ActivityVector{X: 50, Y: 50}},
		{Serial: "SN-100", Time: now.Add(-2 * time.Hour), RawActivity: models.ActivityVector{X: 7, Y: 4}},
	}

	ov, err := svc.GetDeviceOverview(ctx, "ap_1", "u3", id)
	if err != nil {
		t.Fatalf("GetDeviceOverview: %v", err)
	}
	if !ov.Online {
		t.Error("device reporting 2h ago should be online at a 3h threshold")
	}
	if ov.DailyEntering != 7 || ov.DailyExiting != 4 {
		t.Errorf("daily sums = %v/%v, want 7/4", ov.DailyEntering, ov.DailyExiting)
	}
}

func TestGetDeviceOverviewStaleDevice(t *testing.T) {
	svc, s := newTestService(t)
	now := time.Now()
	s.points["SN-100"] = []*models.Datapoint{
		{Serial: "SN-100", Time: now.Add(-72 * time.Hour), RawActivity: models.ActivityVector{X: 9, Y: 9}},
	}

	ov, err := svc.GetDeviceOverview(context.Background(), "ap_1", "u3", deviceID(t, s))
	if err != nil {
		t.Fatalf("GetDeviceOverview: %v", err)
	}
	if ov.Online {
		t.Error("device silent for 72h reported online")
	}
	if ov.DailyEntering != 0 || ov.DailyExiting != 0 {
		t.Error("stale datapoint counted into 24h activity")
	}
	if ov.LastSeen.IsZero() {
		t.Error("last seen not derived from the newest stale point")
	}
}

func TestUpdateApiaryName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateApiaryName(ctx, "ap_1", "u3", "West Field"); !errors.IsAuthorization(err) {
		t.Fatalf("rename by USER error = %v, want authorization error", err)
	}

	apiary, err := svc.UpdateApiaryName(ctx, "ap_1", "u2", "West Field")
	if err != nil {
		t.Fatalf("UpdateApiaryName: %v", err)
	}
	if apiary.Name != "West Field" {
		t.Fatalf("name = %q, want West Field", apiary.Name)
	}
}

func TestListApiariesMembershipScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	other := &models.Apiary{ID: "ap_2", Name: "South Field"}
	if err := svc.CreateApiary(ctx, other, "u9"); err != nil {
		t.Fatalf("CreateApiary: %v", err)
	}

	apiaries, err := svc.ListApiaries(ctx, "u3")
	if err != nil {
		t.Fatalf("ListApiaries: %v", err)
	}
	if len(apiaries) != 1 || apiaries[0].ID != "ap_1" {
		t.Fatalf("u3 sees %d apiaries, want only ap_1", len(apiaries))
	}

	apiaries, err = svc.ListApiaries(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListApiaries(nobody): %v", err)
	}
	if len(apiaries) != 0 {
		t.Fatalf("non-member sees %d apiaries, want 0", len(apiaries))
	}
}
