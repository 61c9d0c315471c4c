package registration

import "sort"

// Reduce applies a to d and returns the next draft. d itself is never
// modified. Unrecognized actions (including nil) return d unchanged.
func Reduce(d Draft, a Action) Draft {
	next := d.Clone()

	switch act := a.(type) {
	case SetPhoneNumber:
		next.PhoneNumber = act.Value
	case SetNames:
		next.FirstName = act.FirstName
		next.LastName = act.LastName
	case SetGender:
		next.Gender = act.Value
	case SetInterestedIn:
		next.InterestedIn = append([]string(nil), act.Values...)
	case SetLocation:
		if act.Value == nil {
			next.Location = nil
		} else {
			loc := *act.Value
			next.Location = &loc
		}
	case SetHobbies:
		next.Hobbies = append([]string(nil), act.Values...)
	case SetBiography:
		next.Biography = act.Value
	case SetBirthDate:
		if act.Value == nil {
			next.BirthDate = nil
		} else {
			bd := *act.Value
			next.BirthDate = &bd
		}
	case AddPhoto:
		next.Photos = append(next.Photos, act.Photo)
		sort.SliceStable(next.Photos, func(i, j int) bool {
			return next.Photos[i].OrderIndex < next.Photos[j].OrderIndex
		})
		renumber(next.Photos)
	case RemovePhoto:
		idx := -1
		for i, p := range next.Photos {
			if p.URI == act.URI {
				idx = i
				break
			}
		}
		if idx < 0 {
			return d
		}
		next.Photos = append(next.Photos[:idx], next.Photos[idx+1:]...)
		renumber(next.Photos)
	case ReorderPhotos:
		next.Photos = append([]Photo(nil), act.Photos...)
	case AdvanceStep:
		if int(next.Step) < TotalSteps {
			next.Step++
		}
	case RetreatStep:
		if next.Step > StepNames {
			next.Step--
		} else {
			next.Step = StepNames
		}
	case Reset:
		return NewDraft()
	case AdoptFederatedIdentity:
		next.IsGoogleSignup = true
		next.GoogleID = act.GoogleID
		next.Email = valueOr(act.Email, "")
		if act.FirstName != nil {
			next.FirstName = *act.FirstName
		}
		if act.LastName != nil {
			next.LastName = *act.LastName
		}
		next.ProfilePhoto = valueOr(act.ProfilePhoto, "")
	default:
		return d
	}
	return next
}

// renumber keeps OrderIndex equal to the slice position.
func renumber(photos []Photo) {
	for i := range photos {
		photos[i].OrderIndex = i
	}
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
