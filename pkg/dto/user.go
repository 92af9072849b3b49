package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

const (
	maxListItems = 50
	maxItemLen   = 100
)

type ContactInfoRequest struct {
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

// UpdateProfileRequest is a partial profile change. Omitted or null fields
// are left alone; an empty skills or strengths list clears it.
type UpdateProfileRequest struct {
	Name        *string             `json:"name,omitempty"`
	AvatarURL   *string             `json:"avatar_url,omitempty"`
	ContactInfo *ContactInfoRequest `json:"contact_info,omitempty"`
	Skills      []string            `json:"skills"`
	Strengths   []string            `json:"strengths"`
}

func (r UpdateProfileRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.By(notBlank), validation.Length(1, 200)),
		validation.Field(&r.AvatarURL, validation.Length(0, 2048), is.URL),
		validation.Field(&r.Skills, validation.Length(0, maxListItems), validation.By(validItems)),
		validation.Field(&r.Strengths, validation.Length(0, maxListItems), validation.By(validItems)),
	)
	if err != nil {
		return err
	}
	if r.ContactInfo != nil {
		c := r.ContactInfo
		return validation.ValidateStruct(c,
			validation.Field(&c.Location, validation.Length(0, 200)),
		)
	}
	return nil
}

func notBlank(value interface{}) error {
	if s, ok := value.(*string); ok && s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func validItems(value interface{}) error {
	items, _ := value.([]string)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return errors.New("must not contain empty entries")
		}
		if len(item) > maxItemLen {
			return errors.New("entries must be at most 100 characters")
		}
	}
	return nil
}

// NormalizePhone parses raw in the context of region and returns it in E.164
// form. An empty number is returned unchanged.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", validation.Errors{"phone": errors.New("must be a valid phone number")}
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", validation.Errors{"phone": errors.New("must be a valid phone number")}
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// ToUpdate validates the request and converts it into a profile update,
// normalizing the phone number against region.
func (r UpdateProfileRequest) ToUpdate(region string) (models.ProfileUpdate, error) {
	if err := r.Validate(); err != nil {
		return models.ProfileUpdate{}, err
	}

	u := models.ProfileUpdate{
		Name:      trimmed(r.Name),
		AvatarURL: trimmed(r.AvatarURL),
		Skills:    cleanList(r.Skills),
		Strengths: cleanList(r.Strengths),
	}
	if r.ContactInfo != nil {
		ci := &models.ContactInfo{Location: trimmed(r.ContactInfo.Location)}
		if r.ContactInfo.Phone != nil {
			phone, err := NormalizePhone(*r.ContactInfo.Phone, region)
			if err != nil {
				return models.ProfileUpdate{}, err
			}
			ci.Phone = &phone
		}
		u.ContactInfo = ci
	}
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func cleanList(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}

type UserResponse struct {
	ID          uuid.UUID           `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        string              `json:"role"`
	AvatarURL   *string             `json:"avatar_url,omitempty"`
	ContactInfo *models.ContactInfo `json:"contact_info,omitempty"`
	Skills      []string            `json:"skills"`
	Strengths   []string            `json:"strengths"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	skills, strengths := u.Skills, u.Strengths
	if skills == nil {
		skills = []string{}
	}
	if strengths == nil {
		strengths = []string{}
	}
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		AvatarURL:   u.AvatarURL,
		ContactInfo: u.ContactInfo,
		Skills:      skills,
		Strengths:   strengths,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
