package service

import (
	"github.com/quantumhc/assessment/internal/model"
	"github.com/quantumhc/assessment/internal/session"
	"gorm.io/gorm"
)

// Fixture template: two categories, potensi 40 / kompetensi 60.
// kecerdasan has three sub-aspects rated 2, 3, 4; every other aspect has a
// direct standard rating.
func fixtureTemplate() *model.AssessmentTemplate {
	r3 := 3.0
	r4 := 4.0
	return &model.AssessmentTemplate{
		ID:   1,
		Code: "asn-manajerial",
		Name: "Manajerial ASN",
		Categories: []model.CategoryType{
			{
				ID: 1, TemplateID: 1, Code: model.CategoryPotensi, Name: "Potensi",
				WeightPercentage: 40, OrderNumber: 1,
				Aspects: []model.Aspect{
					{
						ID: 1, TemplateID: 1, CategoryTypeID: 1, Code: "kecerdasan",
						Name: "Kecerdasan", WeightPercentage: 40, OrderNumber: 1,
						SubAspects: []model.SubAspect{
							{ID: 1, AspectID: 1, Code: "kec-logika", Name: "Logika", StandardRating: 2, OrderNumber: 1},
							{ID: 2, AspectID: 1, Code: "kec-verbal", Name: "Verbal", StandardRating: 3, OrderNumber: 2},
							{ID: 3, AspectID: 1, Code: "kec-numerik", Name: "Numerik", StandardRating: 4, OrderNumber: 3},
						},
					},
					{
						ID: 2, TemplateID: 1, CategoryTypeID: 1, Code: "sikap-kerja",
						Name: "Sikap Kerja", WeightPercentage: 30, StandardRating: &r3, OrderNumber: 2,
					},
					{
						ID: 3, TemplateID: 1, CategoryTypeID: 1, Code: "hubungan-sosial",
						Name: "Hubungan Sosial", WeightPercentage: 30, StandardRating: &r4, OrderNumber: 3,
					},
				},
			},
			{
				ID: 2, TemplateID: 1, Code: model.CategoryKompetensi, Name: "Kompetensi",
				WeightPercentage: 60, OrderNumber: 2,
				Aspects: []model.Aspect{
					{
						ID: 4, TemplateID: 1, CategoryTypeID: 2, Code: "integritas",
						Name: "Integritas", WeightPercentage: 40, StandardRating: &r4, OrderNumber: 1,
					},
					{
						ID: 5, TemplateID: 1, CategoryTypeID: 2, Code: "kerjasama",
						Name: "Kerjasama", WeightPercentage: 30, StandardRating: &r3, OrderNumber: 2,
					},
					{
						ID: 6, TemplateID: 1, CategoryTypeID: 2, Code: "komunikasi",
						Name: "Komunikasi", WeightPercentage: 30, StandardRating: &r3, OrderNumber: 3,
					},
				},
			},
		},
	}
}

type fakeTemplateRepo struct {
	template *model.AssessmentTemplate
}

func (f *fakeTemplateRepo) FindByID(id uint) (*model.AssessmentTemplate, error) {
	if f.template != nil && f.template.ID == id {
		return f.template, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTemplateRepo) FindByIDWithTree(id uint) (*model.AssessmentTemplate, error) {
	return f.FindByID(id)
}

type fakeStandardRepo struct {
	standards map[uint]*model.CustomStandard
	nextID    uint
}

func newFakeStandardRepo() *fakeStandardRepo {
	return &fakeStandardRepo{standards: make(map[uint]*model.CustomStandard), nextID: 1}
}

func (f *fakeStandardRepo) Create(standard *model.CustomStandard) error {
	standard.ID = f.nextID
	f.nextID++
	f.standards[standard.ID] = standard
	return nil
}

func (f *fakeStandardRepo) Update(standard *model.CustomStandard) error {
	f.standards[standard.ID] = standard
	return nil
}

func (f *fakeStandardRepo) Delete(id uint) error {
	delete(f.standards, id)
	return nil
}

func (f *fakeStandardRepo) FindByID(id uint) (*model.CustomStandard, error) {
	if standard, ok := f.standards[id]; ok {
		return standard, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStandardRepo) FindForInstitution(institutionID, templateID uint) ([]model.CustomStandard, error) {
	var out []model.CustomStandard
	for _, standard := range f.standards {
		if standard.InstitutionID == institutionID && standard.TemplateID == templateID && standard.IsActive {
			out = append(out, *standard)
		}
	}
	return out, nil
}

func (f *fakeStandardRepo) CountByCode(institutionID uint, code string, excludeID *uint) (int64, error) {
	var count int64
	for _, standard := range f.standards {
		if excludeID != nil && standard.ID == *excludeID {
			continue
		}
		if standard.InstitutionID == institutionID && standard.Code == code {
			count++
		}
	}
	return count, nil
}

type fakeInvalidator struct {
	calls []uint
}

func (f *fakeInvalidator) InvalidateTemplate(templateID uint) {
	f.calls = append(f.calls, templateID)
}

type resolverHarness struct {
	resolver  StandardResolverService
	sessions  session.Store
	standards *fakeStandardRepo
	flushes   *fakeInvalidator
	ctx       session.Context
}

func newResolverHarness() *resolverHarness {
	sessions := session.NewStore()
	standards := newFakeStandardRepo()
	flushes := &fakeInvalidator{}
	resolver := NewStandardResolverService(
		&fakeTemplateRepo{template: fixtureTemplate()},
		standards,
		sessions,
		flushes,
	)
	return &resolverHarness{
		resolver:  resolver,
		sessions:  sessions,
		standards: standards,
		flushes:   flushes,
		ctx:       session.Context{SessionID: "sess-1", TemplateID: 1},
	}
}

// selectStandard seeds a custom standard and points the session at it.
func (h *resolverHarness) selectStandard(standard *model.CustomStandard) uint {
	_ = h.standards.Create(standard)
	id := standard.ID
	h.sessions.Update(h.ctx, func(state *model.SessionState) {
		state.SelectedStandardID = &id
	})
	return id
}
