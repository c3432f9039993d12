package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ListDoctorsRequest filters the list and export endpoints.
type ListDoctorsRequest struct {
	Search    string `form:"search"`
	Specialty string `form:"specialty"`
	Gender    string `form:"gender"`
	Status    string `form:"status"`
}

func (r *ListDoctorsRequest) Normalize() {
	r.Search = strings.TrimSpace(r.Search)
	r.Specialty = strings.TrimSpace(r.Specialty)
	r.Gender = strings.TrimSpace(r.Gender)
	r.Status = strings.TrimSpace(r.Status)
}

type CreateDoctorRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Specialty       string `json:"specialty"`
	Gender          string `json:"gender"`
	Status          string `json:"status"`
	ContactPerson   string `json:"contact_person"`
	HasSocialMedia  string `json:"has_social_media"`
	SocialMediaLink string `json:"social_media_link"`
	CurrentBrand    string `json:"current_brand"`
	PriceRange      string `json:"price_range"`
}

func (r CreateDoctorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.By(notBlank),
			validation.RuneLength(1, 100),
		),
		validation.Field(&r.Email,
			validation.RuneLength(0, 255),
			is.EmailFormat,
		),
		validation.Field(&r.Specialty, validation.RuneLength(0, 100)),
		validation.Field(&r.Gender, validation.RuneLength(0, 20)),
		validation.Field(&r.Status, validation.RuneLength(0, 50)),
		validation.Field(&r.ContactPerson, validation.RuneLength(0, 100)),
		validation.Field(&r.HasSocialMedia, validation.RuneLength(0, 20)),
		validation.Field(&r.SocialMediaLink, validation.RuneLength(0, 500)),
		validation.Field(&r.CurrentBrand, validation.RuneLength(0, 255)),
		validation.Field(&r.PriceRange, validation.RuneLength(0, 100)),
	)
}

// ToDoctor builds the entity with blanks normalized to absent.
func (r CreateDoctorRequest) ToDoctor() *Doctor {
	d := &Doctor{
		Name:            r.Name,
		Email:           StringPtr(r.Email),
		Specialty:       StringPtr(r.Specialty),
		Gender:          StringPtr(r.Gender),
		Status:          r.Status,
		ContactPerson:   StringPtr(r.ContactPerson),
		HasSocialMedia:  StringPtr(r.HasSocialMedia),
		SocialMediaLink: StringPtr(r.SocialMediaLink),
		CurrentBrand:    StringPtr(r.CurrentBrand),
		PriceRange:      StringPtr(r.PriceRange),
	}
	d.ApplyDefaults()
	return d
}

// UpdateDoctorRequest is a partial update: nil fields are left alone,
// an empty string clears an optional field.
type UpdateDoctorRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Specialty       *string `json:"specialty"`
	Gender          *string `json:"gender"`
	Status          *string `json:"status"`
	ContactPerson   *string `json:"contact_person"`
	HasSocialMedia  *string `json:"has_social_media"`
	SocialMediaLink *string `json:"social_media_link"`
	CurrentBrand    *string `json:"current_brand"`
	PriceRange      *string `json:"price_range"`
}

func (r UpdateDoctorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil, validation.By(notBlank), validation.RuneLength(1, 100)),
		),
		validation.Field(&r.Email,
			validation.RuneLength(0, 255),
			validation.When(r.Email != nil && strings.TrimSpace(*r.Email) != "", is.EmailFormat),
		),
		validation.Field(&r.Specialty, validation.RuneLength(0, 100)),
		validation.Field(&r.Gender, validation.RuneLength(0, 20)),
		validation.Field(&r.Status, validation.RuneLength(0, 50)),
		validation.Field(&r.ContactPerson, validation.RuneLength(0, 100)),
		validation.Field(&r.HasSocialMedia, validation.RuneLength(0, 20)),
		validation.Field(&r.SocialMediaLink, validation.RuneLength(0, 500)),
		validation.Field(&r.CurrentBrand, validation.RuneLength(0, 255)),
		validation.Field(&r.PriceRange, validation.RuneLength(0, 100)),
	)
}

// Apply merges the request into d.
func (r UpdateDoctorRequest) Apply(d *Doctor) {
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.Status != nil {
		d.Status = *r.Status
	}
	optional := []struct {
		src *string
		dst **string
	}{
		{r.Email, &d.Email},
		{r.Specialty, &d.Specialty},
		{r.Gender, &d.Gender},
		{r.ContactPerson, &d.ContactPerson},
		{r.HasSocialMedia, &d.HasSocialMedia},
		{r.SocialMediaLink, &d.SocialMediaLink},
		{r.CurrentBrand, &d.CurrentBrand},
		{r.PriceRange, &d.PriceRange},
	}
	for _, f := range optional {
		if f.src != nil {
			*f.dst = StringPtr(*f.src)
		}
	}
	d.ApplyDefaults()
}

func notBlank(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}
