package onboarding

import (
	"errors"
	"strings"

	"consulting-marketplace/client/internal/api"
	"consulting-marketplace/client/internal/refdata"
	"consulting-marketplace/client/internal/validate"
)

// Draft validation errors. All client-side; a draft that fails validation
// never reaches the network.
var (
	ErrTermsNotAccepted    = errors.New("onboarding: terms must be accepted")
	ErrNameRequired        = errors.New("onboarding: full name is required")
	ErrInvalidEmail        = errors.New("onboarding: invalid email address")
	ErrInvalidMobile       = errors.New("onboarding: mobile must have at least 10 digits")
	ErrWeakPassword        = errors.New("onboarding: password must be at least 6 characters and match its confirmation")
	ErrNoCategorySelection = errors.New("onboarding: consultants must pick at least one category and subcategory")
	ErrRowOutOfRange       = errors.New("onboarding: selection row out of range")
	ErrSubcategoryMismatch = errors.New("onboarding: subcategory does not belong to the selected category")
	// ErrMissingRegistrationContext means the complete-profile entry point
	// was reached without a registration token and mobile; the caller must
	// redirect to login.
	ErrMissingRegistrationContext = errors.New("onboarding: registration token and mobile are required")
)

// RegistrationDraft collects signup input. Transient; discarded on
// navigation away or successful submission.
type RegistrationDraft struct {
	FullName        string
	Email           string
	Mobile          string
	Password        string
	ConfirmPassword string
	Role            api.Role
	AcceptedTerms   bool
	Selections      []api.CategorySelection
}

// EnsureRow grows Selections so index i exists. For client role the list
// degenerates to a single empty row.
func (d *RegistrationDraft) EnsureRow(i int) {
	for len(d.Selections) <= i {
		d.Selections = append(d.Selections, api.CategorySelection{})
	}
}

// SelectCategory sets the category of row i and always resets the dependent
// subcategory fields.
func (d *RegistrationDraft) SelectCategory(i int, cat api.Category) error {
	if i < 0 {
		return ErrRowOutOfRange
	}
	d.EnsureRow(i)
	d.Selections[i] = api.CategorySelection{CategoryID: cat.ID, CategoryName: cat.Title}
	return nil
}

// SelectSubcategory sets the subcategory of row i. The row must already have
// a category and sub must belong to it in the loaded hierarchy.
func (d *RegistrationDraft) SelectSubcategory(i int, cache *refdata.Cache, sub api.Subcategory) error {
	if i < 0 || i >= len(d.Selections) {
		return ErrRowOutOfRange
	}
	row := &d.Selections[i]
	if row.CategoryID == "" {
		return ErrSubcategoryMismatch
	}
	if !cache.Belongs(row.CategoryID, sub.ID) {
		return ErrSubcategoryMismatch
	}
	row.SubcategoryID = sub.ID
	row.SubcategoryName = sub.Name
	return nil
}

// completeSelections returns only the fully-specified rows, in order.
// Partially-specified rows are excluded from validity checks and payloads.
func completeSelections(rows []api.CategorySelection) []api.CategorySelection {
	var out []api.CategorySelection
	for _, r := range rows {
		if r.Complete() {
			out = append(out, r)
		}
	}
	return out
}

// ToRequest validates the draft and builds the signup payload. The first
// complete selection row is promoted to the legacy singular category and
// subcategory fields for older backend contracts.
func (d *RegistrationDraft) ToRequest() (api.SignupRequest, error) {
	if !d.AcceptedTerms {
		return api.SignupRequest{}, ErrTermsNotAccepted
	}
	name := strings.TrimSpace(d.FullName)
	if name == "" {
		return api.SignupRequest{}, ErrNameRequired
	}
	if !validate.IsValidEmail(d.Email) {
		return api.SignupRequest{}, ErrInvalidEmail
	}
	mobile := validate.NormalizeMobile(d.Mobile)
	if !validate.IsValidMobile(mobile) {
		return api.SignupRequest{}, ErrInvalidMobile
	}
	if !validate.ValidSignupPassword(d.Password, d.ConfirmPassword) {
		return api.SignupRequest{}, ErrWeakPassword
	}
	req := api.SignupRequest{
		FullName: name,
		Email:    d.Email,
		Mobile:   mobile,
		Password: d.Password,
		Role:     d.Role,
	}
	if d.Role == api.RoleConsultant {
		complete := completeSelections(d.Selections)
		if len(complete) == 0 {
			return api.SignupRequest{}, ErrNoCategorySelection
		}
		req.Categories = complete
		req.Category = complete[0].CategoryID
		req.Subcategory = complete[0].SubcategoryID
	}
	return req, nil
}

// ProfileDraft collects complete-profile input for a deferred registration.
// RegistrationToken and Mobile come from the OTP verify that found no
// account; without both the flow is unreachable.
type ProfileDraft struct {
	RegistrationToken string
	Mobile            string
	FullName          string
	Email             string
	Password          string
	ConfirmPassword   string
	Role              api.Role
	Selections        []api.CategorySelection
}

// ToRequest validates the draft and builds the register payload. Same field
// rules as signup; terms were accepted implicitly by starting the OTP flow.
func (d *ProfileDraft) ToRequest() (api.RegisterRequest, error) {
	mobile := validate.NormalizeMobile(d.Mobile)
	if d.RegistrationToken == "" || !validate.IsValidMobile(mobile) {
		return api.RegisterRequest{}, ErrMissingRegistrationContext
	}
	name := strings.TrimSpace(d.FullName)
	if name == "" {
		return api.RegisterRequest{}, ErrNameRequired
	}
	if !validate.IsValidEmail(d.Email) {
		return api.RegisterRequest{}, ErrInvalidEmail
	}
	if !validate.ValidSignupPassword(d.Password, d.ConfirmPassword) {
		return api.RegisterRequest{}, ErrWeakPassword
	}
	req := api.RegisterRequest{
		RegistrationToken: d.RegistrationToken,
		Mobile:            mobile,
		FullName:          name,
		Email:             d.Email,
		Password:          d.Password,
		Role:              d.Role,
	}
	if d.Role == api.RoleConsultant {
		complete := completeSelections(d.Selections)
		if len(complete) == 0 {
			return api.RegisterRequest{}, ErrNoCategorySelection
		}
		req.Categories = complete
		req.Category = complete[0].CategoryID
		req.Subcategory = complete[0].SubcategoryID
	}
	return req, nil
}
