package telegram

import (
	"strconv"
	"strings"

	"telegram-dating-onboarding/internal/domain/ports/adapter"
	"telegram-dating-onboarding/internal/domain/registration"
	"telegram-dating-onboarding/internal/infra/i18n"
)

// Callback data sent by the wizard's inline buttons.
const (
	cbUseGoogleName = "reg:use_google_name"
	cbHobbiesDone   = "reg:hobby_done"
	cbSkipBio       = "reg:skip_bio"
	cbPhotosDone    = "reg:photos_done"
	cbBack          = "reg:back"

	cbGenderPrefix    = "gender:"
	cbInterestPrefix  = "interest:"
	cbHobbyPrefix     = "hobby:"
	cbPhotoMainPrefix = "photo_main:"
	cbPhotoDelPrefix  = "photo_del:"
)

const hobbiesPerRow = 3

// stepRenderer turns a draft into the prompt of the step it is on. The prompt
// is derived from the draft alone, so re-rendering is always safe.
type stepRenderer struct {
	t *i18n.Translator
}

func (p stepRenderer) render(d registration.Draft) (string, *adapter.ReplyMarkup) {
	header := p.t.T("step_header", int(d.Step), registration.TotalSteps)

	var (
		body   string
		markup *adapter.ReplyMarkup
	)
	switch d.Step {
	case registration.StepNames:
		body, markup = p.names(d)
	case registration.StepGender:
		body = p.t.T("step_gender")
		markup = p.inline(
			[]adapter.Button{
				{Text: p.t.T("btn_male"), Data: cbGenderPrefix + string(registration.GenderMale)},
				{Text: p.t.T("btn_female"), Data: cbGenderPrefix + string(registration.GenderFemale)},
			},
		)
	case registration.StepInterestedIn:
		body = p.t.T("step_interest")
		markup = p.inline(
			[]adapter.Button{
				{Text: p.t.T("btn_male"), Data: cbInterestPrefix + registration.InterestMale},
				{Text: p.t.T("btn_female"), Data: cbInterestPrefix + registration.InterestFemale},
				{Text: p.t.T("btn_both"), Data: cbInterestPrefix + registration.InterestBoth},
			},
		)
	case registration.StepLocation:
		body = p.t.T("step_location")
		markup = &adapter.ReplyMarkup{Buttons: [][]adapter.Button{
			{{Text: p.t.T("btn_share_location"), RequestLocation: true}},
			{{Text: p.t.T("btn_skip")}, {Text: p.t.T("btn_back")}},
		}}
	case registration.StepHobbies:
		body, markup = p.hobbies(d)
	case registration.StepBiography:
		body = p.t.T("step_biography")
		markup = p.inline([]adapter.Button{{Text: p.t.T("btn_skip"), Data: cbSkipBio}})
	case registration.StepBirthDate:
		body = p.t.T("step_birthdate")
		markup = p.inline()
	case registration.StepPhotos:
		body, markup = p.photos(d)
	}
	return header + "\n\n" + body, markup
}

// inline builds an inline keyboard from rows and appends the back button.
func (p stepRenderer) inline(rows ...[]adapter.Button) *adapter.ReplyMarkup {
	rows = append(rows, []adapter.Button{{Text: p.t.T("btn_back"), Data: cbBack}})
	return &adapter.ReplyMarkup{Buttons: rows, IsInline: true}
}

func (p stepRenderer) names(d registration.Draft) (string, *adapter.ReplyMarkup) {
	first, last, ok := d.FederatedName()
	if !ok {
		return p.t.T("step_names"), nil
	}
	full := strings.TrimSpace(first + " " + last)
	return p.t.T("step_names_prefill", full), &adapter.ReplyMarkup{
		IsInline: true,
		Buttons:  [][]adapter.Button{{{Text: p.t.T("btn_use_google_name", full), Data: cbUseGoogleName}}},
	}
}

func (p stepRenderer) hobbies(d registration.Draft) (string, *adapter.ReplyMarkup) {
	var rows [][]adapter.Button
	var row []adapter.Button
	for _, h := range registration.HobbyCatalog {
		label := p.t.T("hobby_" + h)
		if d.HasHobby(h) {
			label = "✅ " + label
		}
		row = append(row, adapter.Button{Text: label, Data: cbHobbyPrefix + h})
		if len(row) == hobbiesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []adapter.Button{{Text: p.t.T("btn_done"), Data: cbHobbiesDone}})
	return p.t.T("step_hobbies", len(d.Hobbies)), p.inline(rows...)
}

func (p stepRenderer) photos(d registration.Draft) (string, *adapter.ReplyMarkup) {
	lines := []string{p.t.T("step_photos", len(d.Photos))}
	var rows [][]adapter.Button
	for i := range d.Photos {
		n := i + 1
		idx := strconv.Itoa(n)
		if i == 0 {
			lines = append(lines, p.t.T("photo_entry_main", n))
			rows = append(rows, []adapter.Button{{Text: p.t.T("btn_remove", n), Data: cbPhotoDelPrefix + idx}})
			continue
		}
		lines = append(lines, p.t.T("photo_entry", n))
		rows = append(rows, []adapter.Button{
			{Text: p.t.T("btn_make_main", n), Data: cbPhotoMainPrefix + idx},
			{Text: p.t.T("btn_remove", n), Data: cbPhotoDelPrefix + idx},
		})
	}
	if len(d.Photos) >= registration.MinPhotos {
		rows = append(rows, []adapter.Button{{Text: p.t.T("btn_finish"), Data: cbPhotosDone}})
	}
	return strings.Join(lines, "\n"), p.inline(rows...)
}

func (p stepRenderer) contactKeyboard() *adapter.ReplyMarkup {
	return &adapter.ReplyMarkup{Buttons: [][]adapter.Button{
		{{Text: p.t.T("btn_share_contact"), RequestContact: true}},
	}}
}
