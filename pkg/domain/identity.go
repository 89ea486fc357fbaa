package domain

import (
	"slices"
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "mugs/pkg/domain-errors"
)

// Identity is the personal data a person profile shares with its User and,
// through it, with sibling profiles.
type Identity struct {
	FirstName   string `bson:"firstName" json:"firstName"`
	LastName    string `bson:"lastName" json:"lastName"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	Sex         string `bson:"sex" json:"sex"`
	Title       string `bson:"title" json:"title"`
	NationalID  string `bson:"nationalId" json:"nationalId"`
}

// IdentityFields are the wire names mirrored between a profile and its User.
var IdentityFields = []string{"firstName", "lastName", "phoneNumber", "email", "sex", "title", "nationalId"}

var (
	Sexes  = []string{"male", "female"}
	Titles = []string{"mr", "mrs", "ms", "miss", "dr", "prof", "eng", "other"}
)

const (
	DefaultSex   = "male"
	DefaultTitle = "other"
)

// NormalizeIdentity trims text, upper-cases the national id, lower-cases the
// email and fills the enum defaults.
func (i *Identity) NormalizeIdentity() {
	i.FirstName = strings.TrimSpace(i.FirstName)
	i.LastName = strings.TrimSpace(i.LastName)
	i.PhoneNumber = strings.TrimSpace(i.PhoneNumber)
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	i.NationalID = strings.ToUpper(strings.TrimSpace(i.NationalID))
	i.Sex = strings.ToLower(strings.TrimSpace(i.Sex))
	i.Title = strings.ToLower(strings.TrimSpace(i.Title))
	if i.Sex == "" {
		i.Sex = DefaultSex
	}
	if i.Title == "" {
		i.Title = DefaultTitle
	}
}

// ValidateIdentity checks required fields and enums. required names the
// fields the calling entity treats as mandatory.
func (i Identity) ValidateIdentity(entity string, required ...string) error {
	values := i.Values()
	for _, field := range required {
		if values[field] == "" {
			return dErrors.Required(entity, field)
		}
	}
	if i.Email != "" && !govalidator.IsEmail(i.Email) {
		return dErrors.Field(dErrors.CodeBadRequest, entity, "email", i.Email, dErrors.KindType,
			"email '"+i.Email+"' is not a valid email address")
	}
	if i.Sex != "" && !slices.Contains(Sexes, i.Sex) {
		return dErrors.Field(dErrors.CodeBadRequest, entity, "sex", i.Sex, dErrors.KindEnum,
			"`"+i.Sex+"` is not a valid enum value for path `sex`.")
	}
	if i.Title != "" && !slices.Contains(Titles, i.Title) {
		return dErrors.Field(dErrors.CodeBadRequest, entity, "title", i.Title, dErrors.KindEnum,
			"`"+i.Title+"` is not a valid enum value for path `title`.")
	}
	return nil
}

// Values returns the identity keyed by wire name.
func (i Identity) Values() map[string]string {
	return map[string]string{
		"firstName":   i.FirstName,
		"lastName":    i.LastName,
		"phoneNumber": i.PhoneNumber,
		"email":       i.Email,
		"sex":         i.Sex,
		"title":       i.Title,
		"nationalId":  i.NationalID,
	}
}
