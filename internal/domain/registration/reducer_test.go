//go:build !integration

package registration

import (
	"testing"
	"time"
)

func assertContiguous(t *testing.T, photos []Photo) {
	t.Helper()
	for i, p := range photos {
		if p.OrderIndex != i {
			t.Fatalf("photo %q at position %d has OrderIndex %d", p.URI, i, p.OrderIndex)
		}
	}
}

func strPtr(s string) *string { return &s }

func TestReduce_Photos(t *testing.T) {
	t.Run("should keep order indexes contiguous across adds and removes", func(t *testing.T) {
		d := NewDraft()
		ops := []Action{
			AddPhoto{Photo: Photo{URI: "a", OrderIndex: 0}},
			AddPhoto{Photo: Photo{URI: "b", OrderIndex: 1}},
			AddPhoto{Photo: Photo{URI: "c", OrderIndex: 7}},
			RemovePhoto{URI: "a"},
			AddPhoto{Photo: Photo{URI: "d", OrderIndex: 0}},
			RemovePhoto{URI: "missing"},
			AddPhoto{Photo: Photo{URI: "e", OrderIndex: 2}},
			RemovePhoto{URI: "c"},
		}
		for _, op := range ops {
			d = Reduce(d, op)
			assertContiguous(t, d.Photos)
		}
		want := []string{"b", "d", "e"}
		if len(d.Photos) != len(want) {
			t.Fatalf("expected %d photos, got %d", len(want), len(d.Photos))
		}
		for i, uri := range want {
			if d.Photos[i].URI != uri {
				t.Errorf("position %d: expected %q, got %q", i, uri, d.Photos[i].URI)
			}
		}
	})

	t.Run("should sort added photos stably by order index", func(t *testing.T) {
		d := Draft{Photos: []Photo{{URI: "x", OrderIndex: 1}, {URI: "y", OrderIndex: 2}}}
		d = Reduce(d, AddPhoto{Photo: Photo{URI: "z", OrderIndex: 0}})
		if d.Photos[0].URI != "z" || d.Photos[1].URI != "x" || d.Photos[2].URI != "y" {
			t.Errorf("unexpected order %+v", d.Photos)
		}
		assertContiguous(t, d.Photos)

		d = Reduce(d, AddPhoto{Photo: Photo{URI: "w", OrderIndex: 1}})
		if d.Photos[1].URI != "x" || d.Photos[2].URI != "w" {
			t.Errorf("expected tie to keep insertion order, got %+v", d.Photos)
		}
	})

	t.Run("should remove only the first photo with a given uri", func(t *testing.T) {
		d := Draft{Photos: []Photo{{URI: "a", OrderIndex: 0}, {URI: "a", OrderIndex: 1}, {URI: "b", OrderIndex: 2}}}
		d = Reduce(d, RemovePhoto{URI: "a"})
		if len(d.Photos) != 2 || d.Photos[0].URI != "a" || d.Photos[1].URI != "b" {
			t.Errorf("unexpected photos after remove: %+v", d.Photos)
		}
		assertContiguous(t, d.Photos)
	})

	t.Run("should replace photos wholesale on reorder", func(t *testing.T) {
		d := Draft{Photos: []Photo{{URI: "a"}, {URI: "b", OrderIndex: 1}}}
		d = Reduce(d, ReorderPhotos{Photos: []Photo{{URI: "b", OrderIndex: 0}, {URI: "a", OrderIndex: 1}}})
		if d.Photos[0].URI != "b" || d.Photos[1].URI != "a" {
			t.Errorf("reorder not applied: %+v", d.Photos)
		}
	})
}

func TestReduce_Steps(t *testing.T) {
	t.Run("should never retreat below step one", func(t *testing.T) {
		d := NewDraft()
		d = Reduce(d, RetreatStep{})
		if d.Step != StepNames {
			t.Errorf("expected step 1, got %d", d.Step)
		}
	})

	t.Run("should advance and retreat one step at a time", func(t *testing.T) {
		d := NewDraft()
		d = Reduce(d, AdvanceStep{})
		d = Reduce(d, AdvanceStep{})
		if d.Step != StepInterestedIn {
			t.Fatalf("expected step 3, got %d", d.Step)
		}
		d = Reduce(d, RetreatStep{})
		if d.Step != StepGender {
			t.Errorf("expected step 2, got %d", d.Step)
		}
	})

	t.Run("should stay on the last step when advancing past it", func(t *testing.T) {
		d := Draft{Step: StepPhotos}
		d = Reduce(d, AdvanceStep{})
		if d.Step != StepPhotos {
			t.Errorf("expected to stay on step %d, got %d", StepPhotos, d.Step)
		}
	})
}

func TestReduce_AdoptFederatedIdentity(t *testing.T) {
	t.Run("should keep manually entered names when the payload omits them", func(t *testing.T) {
		d := Reduce(NewDraft(), SetNames{FirstName: "Ana", LastName: "Lopez"})
		d = Reduce(d, AdoptFederatedIdentity{GoogleID: "g1", Email: strPtr("a@b.com")})

		if d.FirstName != "Ana" || d.LastName != "Lopez" {
			t.Errorf("names were clobbered: %q %q", d.FirstName, d.LastName)
		}
		if !d.IsGoogleSignup || d.GoogleID != "g1" || d.Email != "a@b.com" {
			t.Errorf("federated fields not set: %+v", d)
		}
		if d.ProfilePhoto != "" {
			t.Errorf("expected empty profile photo, got %q", d.ProfilePhoto)
		}
	})

	t.Run("should overwrite names and defaults on repeated adoption", func(t *testing.T) {
		d := Reduce(NewDraft(), AdoptFederatedIdentity{GoogleID: "g1", Email: strPtr("a@b.com"), FirstName: strPtr("Ana"), ProfilePhoto: strPtr("https://p")})
		d = Reduce(d, AdoptFederatedIdentity{GoogleID: "g2"})
		if d.GoogleID != "g2" || d.Email != "" || d.ProfilePhoto != "" {
			t.Errorf("expected second adoption to overwrite federated values, got %+v", d)
		}
		if d.FirstName != "Ana" {
			t.Errorf("expected first name to survive, got %q", d.FirstName)
		}
	})
}

type unknownAction struct{ Action }

func TestReduce_Misc(t *testing.T) {
	t.Run("should return the draft unchanged for unknown actions", func(t *testing.T) {
		d := Reduce(NewDraft(), SetBiography{Value: "hi"})
		if got := Reduce(d, unknownAction{}); got.Biography != "hi" || got.Step != d.Step {
			t.Errorf("unknown action changed the draft: %+v", got)
		}
		if got := Reduce(d, nil); got.Biography != "hi" {
			t.Errorf("nil action changed the draft: %+v", got)
		}
	})

	t.Run("should not mutate the input draft", func(t *testing.T) {
		bd := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
		d := Draft{Step: StepHobbies, Hobbies: []string{"music"}, Photos: []Photo{{URI: "a"}}, BirthDate: &bd}
		_ = Reduce(d, SetHobbies{Values: []string{"art"}})
		_ = Reduce(d, AddPhoto{Photo: Photo{URI: "b", OrderIndex: 1}})
		_ = Reduce(d, RemovePhoto{URI: "a"})
		if d.Hobbies[0] != "music" || len(d.Photos) != 1 || d.Photos[0].URI != "a" {
			t.Errorf("input draft was mutated: %+v", d)
		}
	})

	t.Run("should restore defaults on reset", func(t *testing.T) {
		d := Reduce(Draft{Step: StepBiography, PhoneNumber: "+1", FirstName: "A"}, Reset{})
		if d.Step != StepNames || d.PhoneNumber != "" || d.FirstName != "" {
			t.Errorf("reset left state behind: %+v", d)
		}
	})

	t.Run("should store field groups", func(t *testing.T) {
		d := NewDraft()
		d = Reduce(d, SetPhoneNumber{Value: "+4912345"})
		d = Reduce(d, SetGender{Value: GenderFemale})
		d = Reduce(d, SetInterestedIn{Values: []string{InterestBoth}})
		d = Reduce(d, SetLocation{Value: &Location{Latitude: 1.5, Longitude: 2.5}})
		if d.PhoneNumber != "+4912345" || d.Gender != GenderFemale || d.InterestedIn[0] != InterestBoth || d.Location.Latitude != 1.5 {
			t.Errorf("unexpected draft: %+v", d)
		}
	})
}
