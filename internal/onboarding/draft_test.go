package onboarding

import (
	"context"
	"errors"
	"testing"

	"consulting-marketplace/client/internal/api"
	"consulting-marketplace/client/internal/refdata"
)

type staticLoader struct{ cats []api.Category }

func (s *staticLoader) Categories(ctx context.Context) ([]api.Category, error) {
	return s.cats, nil
}

func loadedCache(t *testing.T) *refdata.Cache {
	t.Helper()
	c := refdata.NewCache(&staticLoader{cats: []api.Category{
		{ID: "c1", Title: "Legal", Subcategories: []api.Subcategory{
			{ID: "s1", Name: "Tax"},
			{ID: "s2", Name: "Contracts"},
		}},
		{ID: "c2", Title: "Finance", Subcategories: []api.Subcategory{
			{ID: "s3", Name: "Audit"},
		}},
	}})
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c
}

func validConsultantDraft() *RegistrationDraft {
	return &RegistrationDraft{
		FullName:        "Asha Rao",
		Email:           "asha@example.com",
		Mobile:          "+91 98765 43210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            api.RoleConsultant,
		AcceptedTerms:   true,
		Selections: []api.CategorySelection{
			{CategoryID: "c1", CategoryName: "Legal", SubcategoryID: "s1", SubcategoryName: "Tax"},
		},
	}
}

func TestToRequestValidationOrder(t *testing.T) {
	d := validConsultantDraft()
	d.AcceptedTerms = false
	if _, err := d.ToRequest(); !errors.Is(err, ErrTermsNotAccepted) {
		t.Errorf("err = %v, want ErrTermsNotAccepted", err)
	}

	d = validConsultantDraft()
	d.FullName = "   "
	if _, err := d.ToRequest(); !errors.Is(err, ErrNameRequired) {
		t.Errorf("err = %v, want ErrNameRequired", err)
	}

	d = validConsultantDraft()
	d.Email = "not-an-email"
	if _, err := d.ToRequest(); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("err = %v, want ErrInvalidEmail", err)
	}

	d = validConsultantDraft()
	d.Mobile = "12345"
	if _, err := d.ToRequest(); !errors.Is(err, ErrInvalidMobile) {
		t.Errorf("err = %v, want ErrInvalidMobile", err)
	}

	d = validConsultantDraft()
	d.ConfirmPassword = "different"
	if _, err := d.ToRequest(); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("err = %v, want ErrWeakPassword", err)
	}
}

func TestToRequestNormalizesMobile(t *testing.T) {
	d := validConsultantDraft()
	req, err := d.ToRequest()
	if err != nil {
		t.Fatal(err)
	}
	if req.Mobile != "919876543210" {
		t.Errorf("Mobile = %q, want normalized digits", req.Mobile)
	}
}

// A list with one complete and one partial row is valid for consultants, and
// the singular legacy fields mirror the first complete row.
func TestPartialRowsExcludedAndFirstCompletePromoted(t *testing.T) {
	d := validConsultantDraft()
	d.Selections = []api.CategorySelection{
		{CategoryID: "c2", CategoryName: "Finance"}, // partial: no subcategory
		{CategoryID: "c1", CategoryName: "Legal", SubcategoryID: "s2", SubcategoryName: "Contracts"},
	}
	req, err := d.ToRequest()
	if err != nil {
		t.Fatalf("ToRequest: %v", err)
	}
	if len(req.Categories) != 1 {
		t.Fatalf("Categories = %+v, want only the complete row", req.Categories)
	}
	if req.Category != "c1" || req.Subcategory != "s2" {
		t.Errorf("legacy fields = %q/%q, want first complete row c1/s2", req.Category, req.Subcategory)
	}
}

func TestConsultantNeedsOneCompleteRow(t *testing.T) {
	d := validConsultantDraft()
	d.Selections = []api.CategorySelection{
		{CategoryID: "c1", CategoryName: "Legal"}, // partial only
	}
	if _, err := d.ToRequest(); !errors.Is(err, ErrNoCategorySelection) {
		t.Errorf("err = %v, want ErrNoCategorySelection", err)
	}
}

func TestClientRoleIgnoresSelections(t *testing.T) {
	d := validConsultantDraft()
	d.Role = api.RoleClient
	d.Selections = nil
	req, err := d.ToRequest()
	if err != nil {
		t.Fatalf("ToRequest: %v", err)
	}
	if req.Category != "" || len(req.Categories) != 0 {
		t.Errorf("client payload should carry no category fields: %+v", req)
	}
}

func TestSelectCategoryResetsSubcategory(t *testing.T) {
	cache := loadedCache(t)
	d := &RegistrationDraft{}
	cat, _ := cache.Get("c1")
	if err := d.SelectCategory(0, cat); err != nil {
		t.Fatal(err)
	}
	if err := d.SelectSubcategory(0, cache, api.Subcategory{ID: "s1", Name: "Tax"}); err != nil {
		t.Fatal(err)
	}
	other, _ := cache.Get("c2")
	if err := d.SelectCategory(0, other); err != nil {
		t.Fatal(err)
	}
	row := d.Selections[0]
	if row.SubcategoryID != "" || row.SubcategoryName != "" {
		t.Errorf("subcategory must be reset when the category changes: %+v", row)
	}
}

func TestSelectSubcategoryMustBelongToCategory(t *testing.T) {
	cache := loadedCache(t)
	d := &RegistrationDraft{}
	cat, _ := cache.Get("c2")
	_ = d.SelectCategory(0, cat)
	// s1 belongs to c1, not c2.
	if err := d.SelectSubcategory(0, cache, api.Subcategory{ID: "s1", Name: "Tax"}); !errors.Is(err, ErrSubcategoryMismatch) {
		t.Errorf("err = %v, want ErrSubcategoryMismatch", err)
	}
	if err := d.SelectSubcategory(0, cache, api.Subcategory{ID: "s3", Name: "Audit"}); err != nil {
		t.Errorf("valid subcategory rejected: %v", err)
	}
}

func TestProfileDraftRequiresRegistrationContext(t *testing.T) {
	d := &ProfileDraft{
		FullName:        "Asha Rao",
		Email:           "asha@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            api.RoleClient,
	}
	if _, err := d.ToRequest(); !errors.Is(err, ErrMissingRegistrationContext) {
		t.Errorf("err = %v, want ErrMissingRegistrationContext", err)
	}
	d.RegistrationToken = "abc"
	if _, err := d.ToRequest(); !errors.Is(err, ErrMissingRegistrationContext) {
		t.Errorf("token without mobile: err = %v, want ErrMissingRegistrationContext", err)
	}
	d.Mobile = "9876543210"
	req, err := d.ToRequest()
	if err != nil {
		t.Fatalf("ToRequest: %v", err)
	}
	if req.RegistrationToken != "abc" || req.Mobile != "9876543210" {
		t.Errorf("req = %+v", req)
	}
}

// The mobile in a complete-profile draft comes from navigation context; a
// malformed one is treated as missing context, same as an absent one.
func TestProfileDraftRejectsShortMobile(t *testing.T) {
	d := &ProfileDraft{
		RegistrationToken: "abc",
		Mobile:            "12345",
		FullName:          "Asha Rao",
		Email:             "asha@example.com",
		Password:          "secret1",
		ConfirmPassword:   "secret1",
		Role:              api.RoleClient,
	}
	if _, err := d.ToRequest(); !errors.Is(err, ErrMissingRegistrationContext) {
		t.Errorf("err = %v, want ErrMissingRegistrationContext", err)
	}
}

func TestProfileDraftConsultantNeedsSelection(t *testing.T) {
	d := &ProfileDraft{
		RegistrationToken: "abc",
		Mobile:            "9876543210",
		FullName:          "Asha Rao",
		Email:             "asha@example.com",
		Password:          "secret1",
		ConfirmPassword:   "secret1",
		Role:              api.RoleConsultant,
	}
	if _, err := d.ToRequest(); !errors.Is(err, ErrNoCategorySelection) {
		t.Errorf("err = %v, want ErrNoCategorySelection", err)
	}
}
