package domain

import "testing"

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{"": LevelNone, "read": LevelRead, " FULL ": LevelFull}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("admin"); err == nil {
		t.Fatal("want error for unknown level")
	}
}

func TestAllows_Monotonic(t *testing.T) {
	t.Parallel()

	for _, held := range []Level{LevelNone, LevelRead, LevelFull} {
		if held.Allows(LevelFull) && !held.Allows(LevelRead) {
			t.Fatalf("%s allows full but not read", held)
		}
		if held.Allows(LevelNone) {
			t.Fatalf("%s allows none; none is not a requestable level", held)
		}
	}
	if !LevelFull.Allows(LevelRead) || LevelRead.Allows(LevelFull) {
		t.Fatal("ordering broken")
	}
}

func TestGrant_Effective(t *testing.T) {
	t.Parallel()

	if (Grant{Team: LevelRead, Org: LevelFull}).Effective() != LevelFull {
		t.Fatal("org grant should lift team")
	}
	if (Grant{Team: LevelFull}).Effective() != LevelFull {
		t.Fatal("team alone")
	}
	if (Grant{}).Effective() != LevelNone {
		t.Fatal("no rows means none")
	}
}
