package registration

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"telegram-dating-onboarding/internal/domain"
)

const (
	MaxHobbies      = 5
	MaxBiographyLen = 500
	MinAge          = 18
	MinPhotos       = 2
	MaxPhotos       = 6
)

// HobbyCatalog lists the hobby keys a user can pick from.
var HobbyCatalog = []string{
	"travel", "music", "movies", "reading", "cooking", "sports",
	"gaming", "hiking", "photography", "art", "dancing", "yoga",
	"fitness", "coffee", "pets", "fashion", "tech", "volunteering",
}

func isCatalogHobby(h string) bool {
	for _, c := range HobbyCatalog {
		if c == h {
			return true
		}
	}
	return false
}

// ValidateNames trims both names and requires them to be non-empty.
func ValidateNames(first, last string) (string, string, error) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if first == "" || last == "" {
		return "", "", domain.NewValidationError(int(StepNames), "first and last name are required", domain.ErrInvalidArgument)
	}
	return first, last, nil
}

// SplitFullName splits "First Middle Last" into "First Middle" / "Last".
func SplitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	}
	return "", domain.NewValidationError(int(StepGender), "a gender must be selected", domain.ErrInvalidArgument)
}

func ParseInterest(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case InterestMale, InterestFemale, InterestBoth:
		return v, nil
	}
	return "", domain.NewValidationError(int(StepInterestedIn), "an interest must be selected", domain.ErrInvalidArgument)
}

// ToggleHobby returns the selection with h added or removed. Selecting a
// hobby beyond MaxHobbies fails and the original selection is kept.
func ToggleHobby(current []string, h string) ([]string, error) {
	h = strings.ToLower(strings.TrimSpace(h))
	if !isCatalogHobby(h) {
		return current, domain.NewValidationError(int(StepHobbies), "unknown hobby", domain.ErrInvalidArgument)
	}
	out := make([]string, 0, len(current)+1)
	removed := false
	for _, x := range current {
		if x == h {
			removed = true
			continue
		}
		out = append(out, x)
	}
	if removed {
		return out, nil
	}
	if len(current) >= MaxHobbies {
		return current, domain.NewValidationError(int(StepHobbies), "at most 5 hobbies", domain.ErrHobbyLimit)
	}
	return append(out, h), nil
}

func ValidateHobbies(hobbies []string) error {
	if len(hobbies) == 0 {
		return domain.NewValidationError(int(StepHobbies), "select at least one hobby", domain.ErrInvalidArgument)
	}
	if len(hobbies) > MaxHobbies {
		return domain.NewValidationError(int(StepHobbies), "at most 5 hobbies", domain.ErrHobbyLimit)
	}
	return nil
}

// CapBiography trims s and keeps at most MaxBiographyLen characters.
func CapBiography(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxBiographyLen {
		return s
	}
	return string([]rune(s)[:MaxBiographyLen])
}

// SplitBirthDate splits "DD.MM.YYYY" (or with / or - separators) into its parts.
func SplitBirthDate(input string) (day, month, year string) {
	f := strings.FieldsFunc(strings.TrimSpace(input), func(r rune) bool {
		return r == '.' || r == '/' || r == '-' || r == ' '
	})
	if len(f) > 0 {
		day = f[0]
	}
	if len(f) > 1 {
		month = f[1]
	}
	if len(f) > 2 {
		year = f[2]
	}
	return day, month, year
}

// ValidateBirthDate checks that all parts are present, the year has exactly
// four digits, the date exists and the person is at least MinAge on now.
func ValidateBirthDate(day, month, year string, now time.Time) (time.Time, error) {
	step := int(StepBirthDate)
	if day == "" || month == "" || year == "" {
		return time.Time{}, domain.NewValidationError(step, "day, month and year are required", domain.ErrInvalidArgument)
	}
	if len(year) != 4 {
		return time.Time{}, domain.NewValidationError(step, "year must have 4 digits", domain.ErrInvalidArgument)
	}
	if !isDigits(day) || !isDigits(month) || !isDigits(year) {
		return time.Time{}, domain.NewValidationError(step, "date must be numeric", domain.ErrInvalidArgument)
	}
	d, errD := strconv.Atoi(day)
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errD != nil || errM != nil || errY != nil {
		return time.Time{}, domain.NewValidationError(step, "date must be numeric", domain.ErrInvalidArgument)
	}
	birth := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if birth.Day() != d || int(birth.Month()) != m || birth.Year() != y {
		return time.Time{}, domain.NewValidationError(step, "date does not exist", domain.ErrInvalidArgument)
	}
	if Age(birth, now) < MinAge {
		return time.Time{}, domain.NewValidationError(step, "under minimum age", domain.ErrUnderage)
	}
	return birth, nil
}

// Age is the calendar-year difference, minus one when the birthday has not
// happened yet this year.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func ValidatePhotoCount(n int) error {
	if n < MinPhotos || n > MaxPhotos {
		return domain.NewValidationError(int(StepPhotos), "between 2 and 6 photos are required", domain.ErrPhotoCount)
	}
	return nil
}

// isDigits reports whether s is made of ASCII digits only. strconv.Atoi alone
// would let a leading sign through.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
