//go:build !integration

package i18n

import (
	"strings"
	"testing"
	"testing/fstest"

	"telegram-dating-onboarding/internal/domain/registration"
)

func TestTranslator(t *testing.T) {
	// --- Arrange ---
	translator, err := newTranslatorFromBytes([]byte("greeting: Hallo\nwelcome_user: Hallo %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	// --- Act & Assert ---
	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Hallo" {
			t.Errorf("wanted 'Hallo', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Anna"); got != "Hallo Anna" {
			t.Errorf("wanted 'Hallo Anna', got '%s'", got)
		}
	})
}

func TestNewTranslator(t *testing.T) {
	t.Run("should load yaml and policy from the given filesystem", func(t *testing.T) {
		// --- Arrange ---
		fsys := fstest.MapFS{
			"locales/de.yaml":       {Data: []byte("btn_skip: Überspringen")},
			"locales/policy-de.txt": {Data: []byte("Datenschutz")},
		}

		// --- Act ---
		tr, err := NewTranslator(fsys, "de")

		// --- Assert ---
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.T("btn_skip") != "Überspringen" || tr.Policy() != "Datenschutz" || tr.Lang() != "de" {
			t.Errorf("unexpected translator state: %q %q %q", tr.T("btn_skip"), tr.Policy(), tr.Lang())
		}
	})

	t.Run("should fail when the policy file is missing", func(t *testing.T) {
		fsys := fstest.MapFS{"locales/de.yaml": {Data: []byte("a: b")}}
		if _, err := NewTranslator(fsys, "de"); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("should fail for an unknown language", func(t *testing.T) {
		if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestEmbeddedEnglishLocale(t *testing.T) {
	// --- Arrange ---
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator(en) failed: %v", err)
	}

	want := []string{
		"start_welcome", "btn_share_contact", "step_header", "step_names", "step_names_prefill",
		"step_gender", "step_interest", "step_location", "step_hobbies", "step_biography",
		"step_birthdate", "step_photos", "err_generic", "err_upload", "err_no_connectivity",
	}
	for _, h := range registration.HobbyCatalog {
		want = append(want, "hobby_"+h)
	}

	// --- Act ---
	missing := tr.Missing(want)

	// --- Assert ---
	t.Run("should translate every key the bot renders", func(t *testing.T) {
		if len(missing) != 0 {
			t.Errorf("missing translations: %v", missing)
		}
	})

	t.Run("should ship a policy text", func(t *testing.T) {
		if strings.TrimSpace(tr.Policy()) == "" {
			t.Error("policy text is empty")
		}
	})

	t.Run("should format the upload error with the photo index", func(t *testing.T) {
		if got := tr.T("err_upload", 2); !strings.Contains(got, "Photo 2") {
			t.Errorf("got %q", got)
		}
	})
}
