package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

type memModuleProfileRepo struct {
	items       map[string]*models.ModuleProfile
	seq         int
	createErr   map[string]error
	modules     *memModuleRepo
	instanceErr map[string]error
}

func newMemModuleProfileRepo(profiles ...models.ModuleProfile) *memModuleProfileRepo {
	repo := &memModuleProfileRepo{items: map[string]*models.ModuleProfile{}}
	for i := range profiles {
		p := profiles[i]
		repo.items[p.ID] = &p
	}
	return repo
}

func (m *memModuleProfileRepo) FindByID(ctx context.Context, organisationID, id string) (*models.ModuleProfile, error) {
	if p, ok := m.items[id]; ok && p.OrganisationID == organisationID {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memModuleProfileRepo) ListActive(ctx context.Context, organisationID string) ([]models.ModuleProfile, error) {
	var out []models.ModuleProfile
	for _, p := range m.items {
		if p.OrganisationID == organisationID && p.IsLive() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memModuleProfileRepo) List(ctx context.Context, organisationID string, filter models.ModuleProfileFilter) ([]models.ModuleProfile, int, error) {
	out, _ := m.ListActive(ctx, organisationID)
	return out, len(out), nil
}

func (m *memModuleProfileRepo) ExistsByCode(ctx context.Context, organisationID, code, excludeID string) (bool, error) {
	for _, p := range m.items {
		if p.OrganisationID == organisationID && p.IsLive() && strings.EqualFold(p.Code, code) && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memModuleProfileRepo) Create(ctx context.Context, profile *models.ModuleProfile) error {
	if err := m.createErr[profile.Code]; err != nil {
		return err
	}
	m.seq++
	profile.ID = fmt.Sprintf("mp-new-%d", m.seq)
	cp := *profile
	m.items[profile.ID] = &cp
	return nil
}

// CreateWithInstance commits the profile only when its module instance can be stored too.
func (m *memModuleProfileRepo) CreateWithInstance(ctx context.Context, profile *models.ModuleProfile, module *models.Module) error {
	if err := m.createErr[profile.Code]; err != nil {
		return err
	}
	if err := m.instanceErr[profile.Code]; err != nil {
		return err
	}
	if err := m.Create(ctx, profile); err != nil {
		return err
	}
	module.ProfileID = profile.ID
	return m.modules.Create(ctx, module)
}

func (m *memModuleProfileRepo) Update(ctx context.Context, profile *models.ModuleProfile) error {
	if _, ok := m.items[profile.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *profile
	m.items[profile.ID] = &cp
	return nil
}

func (m *memModuleProfileRepo) Deactivate(ctx context.Context, organisationID, id string) error {
	p, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsActive = false
	return nil
}

type memModuleRepo struct {
	items []models.Module
	seq   int
}

func (m *memModuleRepo) FindByID(ctx context.Context, organisationID, id string) (*models.Module, error) {
	for _, mod := range m.items {
		if mod.ID == id && mod.OrganisationID == organisationID && mod.IsLive() {
			cp := mod
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memModuleRepo) ListByYear(ctx context.Context, organisationID, academicYearID string) ([]models.Module, error) {
	var out []models.Module
	for _, mod := range m.items {
		if mod.OrganisationID == organisationID && mod.AcademicYearID == academicYearID && mod.IsLive() {
			out = append(out, mod)
		}
	}
	return out, nil
}

func (m *memModuleRepo) ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error) {
	for _, mod := range m.items {
		if mod.OrganisationID == organisationID && mod.ProfileID == profileID && mod.AcademicYearID == academicYearID && mod.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memModuleRepo) Create(ctx context.Context, module *models.Module) error {
	m.seq++
	module.ID = fmt.Sprintf("mod-new-%d", m.seq)
	m.items = append(m.items, *module)
	return nil
}

func (m *memModuleRepo) countFor(profileID, academicYearID string) int {
	n := 0
	for _, mod := range m.items {
		if mod.ProfileID == profileID && mod.AcademicYearID == academicYearID {
			n++
		}
	}
	return n
}

type stubYearReader struct{ ids map[string]bool }

func (s stubYearReader) FindByID(ctx context.Context, organisationID, id string) (*models.AcademicYear, error) {
	if s.ids[id] {
		return &models.AcademicYear{ID: id, OrganisationID: organisationID}, nil
	}
	return nil, sql.ErrNoRows
}

type memLecturerYearRepo struct {
	profiles  []models.LecturerProfile
	existing  map[string]bool
	created   []models.Lecturer
	createErr error
}

func (m *memLecturerYearRepo) ListActive(ctx context.Context, organisationID string) ([]models.LecturerProfile, error) {
	return m.profiles, nil
}

func (m *memLecturerYearRepo) ExistsForYear(ctx context.Context, organisationID, profileID, academicYearID string) (bool, error) {
	return m.existing[profileID+"/"+academicYearID], nil
}

func (m *memLecturerYearRepo) Create(ctx context.Context, lecturer *models.Lecturer) error {
	if m.createErr != nil {
		return m.createErr
	}
	lecturer.ID = fmt.Sprintf("lec-new-%d", len(m.created)+1)
	m.created = append(m.created, *lecturer)
	return nil
}

var errStoreDown = errors.New("store unavailable")
