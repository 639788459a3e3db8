package bank

import "testing"

func TestLookupAliasSlang(t *testing.T) {
	d := NewDirectory()

	cases := map[string]string{
		"gtb":      "000013",
		"gtbank":   "000013",
		"access":   "000014",
		"fbn":      "000016",
		"kuda":     "50211",
		"opay":     "999992",
		"fidelity": "070",
	}

	for alias, wantCode := range cases {
		identity, ok := d.LookupAlias(alias)
		if !ok {
			t.Fatalf("alias %q not found", alias)
		}
		if identity.Code != wantCode {
			t.Fatalf("alias %q resolved to %s, want %s", alias, identity.Code, wantCode)
		}
	}
}

func TestMainBankBeatsChannelVariant(t *testing.T) {
	d := NewDirectory()

	// "access" is generated both by ACCESS BANK (first word) and ACCESS
	// MOBILE (mobile suffix stripped); the main institution must win.
	identity, ok := d.LookupAlias("access")
	if !ok {
		t.Fatal("alias access not found")
	}
	if identity.DisplayName != "ACCESS BANK" {
		t.Fatalf("expected ACCESS BANK, got %s", identity.DisplayName)
	}

	identity, ok = d.LookupAlias("ecobank")
	if !ok {
		t.Fatal("alias ecobank not found")
	}
	if identity.Code != "050" {
		t.Fatalf("expected ECOBANK code 050, got %s", identity.Code)
	}
}

func TestMatchPrefix(t *testing.T) {
	d := NewDirectory()

	matches := d.MatchPrefix("0023456789")
	if len(matches) == 0 {
		t.Fatal("expected a prefix match for 00-prefixed NUBAN")
	}
	found := false
	for _, m := range matches {
		if m.Code == "000013" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected GTBANK among matches, got %v", matches)
	}

	if got := d.MatchPrefix("002345678"); got != nil {
		t.Fatalf("expected no match for 9-digit number, got %v", got)
	}

	if got := d.MatchPrefix("9923456789"); got != nil {
		t.Fatalf("expected no match for 99 prefix, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  GT-Bank!  "); got != "gt bank" {
		t.Fatalf("normalize: got %q", got)
	}
	if got := normalize("ACCESS"); got != "access" {
		t.Fatalf("normalize: got %q", got)
	}
}
