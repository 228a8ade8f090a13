package palettes

import "testing"

func TestLookup_AllBuiltinsPresent(t *testing.T) {
	for _, name := range []Name{Xterm16, Xterm256, VT340Mono, VT340Color} {
		p, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
		if len(p) == 0 || len(p)%3 != 0 {
			t.Errorf("Lookup(%s) returned %d bytes, not a multiple of 3", name, len(p))
		}
	}
}

func TestLookup_Xterm16Size(t *testing.T) {
	p, err := Lookup(Xterm16)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(p)/3 != 16 {
		t.Errorf("xterm16 has %d colors, want 16", len(p)/3)
	}
}

func TestLookup_Xterm256Size(t *testing.T) {
	p, err := Lookup(Xterm256)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(p)/3 != 256 {
		t.Errorf("xterm256 has %d colors, want 256", len(p)/3)
	}
}

func TestLookup_VT340MonoIsBlackAndWhite(t *testing.T) {
	p, err := Lookup(VT340Mono)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(p) != 6 {
		t.Fatalf("vt340mono has %d colors, want 2", len(p)/3)
	}
	if p[0] != 0 || p[1] != 0 || p[2] != 0 {
		t.Errorf("first color = %v, want black", p[0:3])
	}
	if p[3] != 255 || p[4] != 255 || p[5] != 255 {
		t.Errorf("second color = %v, want white", p[3:6])
	}
}

func TestLookup_UnknownNameIsBadArgument(t *testing.T) {
	if _, err := Lookup(Name("not-a-palette")); err == nil {
		t.Fatal("expected error for unknown palette name")
	}
}
