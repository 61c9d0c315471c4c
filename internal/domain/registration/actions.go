package registration

import "time"

// Action is one of the fixed set of draft mutations. The marker method keeps
// the set closed to this package.
type Action interface {
	isAction()
}

type SetPhoneNumber struct{ Value string }

type SetNames struct {
	FirstName string
	LastName  string
}

type SetGender struct{ Value Gender }

type SetInterestedIn struct{ Values []string }

type SetLocation struct{ Value *Location }

type SetHobbies struct{ Values []string }

type SetBiography struct{ Value string }

type SetBirthDate struct{ Value *time.Time }

type AddPhoto struct{ Photo Photo }

type RemovePhoto struct{ URI string }

type ReorderPhotos struct{ Photos []Photo }

type AdvanceStep struct{}

type RetreatStep struct{}

type Reset struct{}

// AdoptFederatedIdentity copies a third-party sign-in profile into the draft.
// Nil optional fields keep whatever the draft already holds for names; email
// and profile photo default to empty.
type AdoptFederatedIdentity struct {
	GoogleID     string
	Email        *string
	FirstName    *string
	LastName     *string
	ProfilePhoto *string
}

func (SetPhoneNumber) isAction()         {}
func (SetNames) isAction()               {}
func (SetGender) isAction()              {}
func (SetInterestedIn) isAction()        {}
func (SetLocation) isAction()            {}
func (SetHobbies) isAction()             {}
func (SetBiography) isAction()           {}
func (SetBirthDate) isAction()           {}
func (AddPhoto) isAction()               {}
func (RemovePhoto) isAction()            {}
func (ReorderPhotos) isAction()          {}
func (AdvanceStep) isAction()            {}
func (RetreatStep) isAction()            {}
func (Reset) isAction()                  {}
func (AdoptFederatedIdentity) isAction() {}
