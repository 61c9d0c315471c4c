// Package registration holds the onboarding wizard's draft, the reducer that
// mutates it and the per-step validation rules.
package registration

import "time"

// Step is the 1-based index of a wizard screen.
type Step int

const (
	StepNames Step = iota + 1
	StepGender
	StepInterestedIn
	StepLocation
	StepHobbies
	StepBiography
	StepBirthDate
	StepPhotos
)

// TotalSteps is the number of steps in the linear chain.
const TotalSteps = int(StepPhotos)

func (s Step) String() string {
	switch s {
	case StepNames:
		return "names"
	case StepGender:
		return "gender"
	case StepInterestedIn:
		return "interested_in"
	case StepLocation:
		return "location"
	case StepHobbies:
		return "hobbies"
	case StepBiography:
		return "biography"
	case StepBirthDate:
		return "birth_date"
	case StepPhotos:
		return "photos"
	default:
		return "unknown"
	}
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Interest values accepted by the interested-in step.
const (
	InterestMale   = "male"
	InterestFemale = "female"
	InterestBoth   = "both"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// Photo is a locally held picture. URI is the natural key (a Telegram file id
// when the bot is the client).
type Photo struct {
	URI        string `json:"uri"`
	OrderIndex int    `json:"order_index"`
}

// Draft is the in-progress registration accumulated across wizard steps.
type Draft struct {
	Step         Step       `json:"step"`
	PhoneNumber  string     `json:"phone_number"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Gender       Gender     `json:"gender,omitempty"`
	InterestedIn []string   `json:"interested_in,omitempty"`
	Location     *Location  `json:"location,omitempty"`
	Hobbies      []string   `json:"hobbies,omitempty"`
	Biography    string     `json:"biography,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Photos       []Photo    `json:"photos,omitempty"`

	IsGoogleSignup bool   `json:"is_google_signup,omitempty"`
	GoogleID       string `json:"google_id,omitempty"`
	Email          string `json:"email,omitempty"`
	ProfilePhoto   string `json:"profile_photo,omitempty"`
}

// NewDraft returns the all-defaults draft a wizard session starts with.
func NewDraft() Draft {
	return Draft{Step: StepNames}
}

// Clone returns a deep copy so callers never observe in-place mutation.
func (d Draft) Clone() Draft {
	out := d
	if d.InterestedIn != nil {
		out.InterestedIn = append([]string(nil), d.InterestedIn...)
	}
	if d.Hobbies != nil {
		out.Hobbies = append([]string(nil), d.Hobbies...)
	}
	if d.Photos != nil {
		out.Photos = append([]Photo(nil), d.Photos...)
	}
	if d.Location != nil {
		loc := *d.Location
		out.Location = &loc
	}
	if d.BirthDate != nil {
		bd := *d.BirthDate
		out.BirthDate = &bd
	}
	return out
}

// HasHobby reports whether h is already selected.
func (d Draft) HasHobby(h string) bool {
	for _, x := range d.Hobbies {
		if x == h {
			return true
		}
	}
	return false
}

// FederatedName returns the name pre-fill offered on the names step, if any.
func (d Draft) FederatedName() (first, last string, ok bool) {
	if !d.IsGoogleSignup {
		return "", "", false
	}
	if d.FirstName == "" && d.LastName == "" {
		return "", "", false
	}
	return d.FirstName, d.LastName, true
}
