package grouping

import (
	"testing"

	"oldprague.photos/fotoatlas/internal/dataset"
)

func TestBaseKeyJoinsMetadata(t *testing.T) {
	t.Parallel()

	rec := &dataset.Record{
		XID:         "X1",
		Description: "Staroměstské náměstí",
		Author:      "Eckert, Jindřich",
		DateLabel:   "1890",
	}
	want := "Staroměstské náměstí" + keySeparator + "Eckert, Jindřich" + keySeparator + "1890"
	if got := BaseKey(rec); got != want {
		t.Fatalf("BaseKey = %q, expected %q", got, want)
	}
}

func TestBaseKeyFallsBackToIdentifier(t *testing.T) {
	t.Parallel()

	rec := &dataset.Record{XID: "X42"}
	if got := BaseKey(rec); got != "X42" {
		t.Fatalf("BaseKey = %q, expected X42", got)
	}

	// A single present field is enough to key on metadata.
	rec.Author = "Anonym"
	if got := BaseKey(rec); got == "X42" {
		t.Fatalf("BaseKey fell back to identifier despite metadata")
	}
}

func TestNewPairNormalizesOrientation(t *testing.T) {
	t.Parallel()

	pair, ok := NewPair("zzz", "aaa")
	if !ok {
		t.Fatalf("NewPair rejected valid keys")
	}
	if pair.A != "aaa" || pair.B != "zzz" {
		t.Fatalf("pair not normalized: %+v", pair)
	}

	reversed, _ := NewPair("aaa", "zzz")
	if pair.Key() != reversed.Key() {
		t.Fatalf("orientations produced different keys: %q vs %q", pair.Key(), reversed.Key())
	}
}

func TestNewPairRejectsDegenerate(t *testing.T) {
	t.Parallel()

	if _, ok := NewPair("a", "a"); ok {
		t.Fatalf("accepted self-pair")
	}
	if _, ok := NewPair("", "b"); ok {
		t.Fatalf("accepted empty key")
	}
	if _, ok := NewPair("  ", "b"); ok {
		t.Fatalf("accepted whitespace key")
	}
}
