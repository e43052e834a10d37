package quote

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	got := Sanitize(Submission{
		Email:       "  LEAD@example.com  ",
		Company:     "  Acme Bakery  ",
		Industry:    " Retail ",
		ColorScheme: "OCEAN",
		PortalKind:  " Webshop ",
		UserTier:    "PRO",
		Modules:     []string{"CRM", "crm", " seo ", "timetravel", ""},
	})

	if got.Email != "LEAD@example.com" {
		t.Fatalf("email = %q", got.Email)
	}
	if got.Company != "Acme Bakery" {
		t.Fatalf("company = %q", got.Company)
	}
	if got.Industry != "retail" {
		t.Fatalf("industry = %q", got.Industry)
	}
	if got.ColorScheme != "ocean" {
		t.Fatalf("color scheme = %q", got.ColorScheme)
	}
	if got.PortalKind != "webshop" || got.UserTier != "pro" {
		t.Fatalf("portal/tier = %q/%q", got.PortalKind, got.UserTier)
	}
	if want := []string{"crm", "seo"}; !reflect.DeepEqual(got.Modules, want) {
		t.Fatalf("modules = %v, want %v", got.Modules, want)
	}
}

func TestSanitize_DropsUnknownEnumValues(t *testing.T) {
	got := Sanitize(Submission{
		Industry:    "crypto",
		ColorScheme: "neon",
	})
	if got.Industry != "" || got.ColorScheme != "" {
		t.Fatalf("unknown enum values should drop, got %q/%q", got.Industry, got.ColorScheme)
	}
}

func TestSanitize_DefaultsTierToStarter(t *testing.T) {
	if got := Sanitize(Submission{}); got.UserTier != "starter" {
		t.Fatalf("tier = %q, want starter", got.UserTier)
	}
}

func TestSanitize_TruncatesLongFields(t *testing.T) {
	got := Sanitize(Submission{
		Email:   strings.Repeat("a", 300) + "@x.io",
		Company: strings.Repeat("b", 500),
	})
	if len(got.Email) != maxEmailLen {
		t.Fatalf("email length = %d, want %d", len(got.Email), maxEmailLen)
	}
	if len(got.Company) != maxCompanyLen {
		t.Fatalf("company length = %d, want %d", len(got.Company), maxCompanyLen)
	}
}
