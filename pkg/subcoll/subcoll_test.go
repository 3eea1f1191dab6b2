package subcoll

import (
	"errors"
	"reflect"
	"testing"
)

type rec struct {
	id   string
	text string
}

func (r rec) Key() string { return r.id }

func TestPrepend(t *testing.T) {
	seq := []rec{{"b", "second"}, {"c", "third"}}
	orig := append([]rec(nil), seq...)

	got := Prepend(seq, rec{"a", "first"})

	want := []rec{{"a", "first"}, {"b", "second"}, {"c", "third"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want sequence\n%+v\ngot sequence\n%+v", want, got)
	}
	if !reflect.DeepEqual(seq, orig) {
		t.Errorf("input sequence was modified: %+v", seq)
	}

	got[1].text = "changed"
	if seq[0].text != "second" {
		t.Errorf("result aliases input sequence")
	}
}

func TestPrependEmpty(t *testing.T) {
	got := Prepend[rec](nil, rec{"a", "only"})
	if len(got) != 1 || got[0].id != "a" {
		t.Errorf("want single record sequence, got %+v", got)
	}
}

func TestFindIndex(t *testing.T) {
	seq := []rec{{"a", ""}, {"b", ""}, {"c", ""}}

	tests := []struct {
		name    string
		key     string
		want    int
		wantErr error
	}{
		{"front", "a", 0, nil},
		{"middle", "b", 1, nil},
		{"back", "c", 2, nil},
		{"missing", "z", -1, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindIndex(seq, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("want index %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFindIndexFirstMatch(t *testing.T) {
	seq := []rec{{"a", "newest"}, {"b", ""}, {"a", "oldest"}}

	got, err := FindIndex(seq, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("want first match at 0, got %d", got)
	}
}

func TestFindUnique(t *testing.T) {
	seq := []rec{{"a", ""}, {"b", ""}, {"a", ""}}

	if _, err := FindUnique(seq, "a"); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("want ErrDuplicateKey, got %v", err)
	}

	got, err := FindUnique(seq, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("want index 1, got %d", got)
	}

	if _, err := FindUnique(seq, "z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestContains(t *testing.T) {
	seq := []rec{{"a", ""}}
	if !Contains(seq, "a") {
		t.Error("want Contains(seq, a) = true")
	}
	if Contains(seq, "b") {
		t.Error("want Contains(seq, b) = false")
	}
	if Contains[rec](nil, "a") {
		t.Error("want Contains(nil, a) = false")
	}
}

func TestRemoveAt(t *testing.T) {
	seq := []rec{{"a", ""}, {"b", ""}, {"c", ""}, {"d", ""}}
	orig := append([]rec(nil), seq...)

	for i := range seq {
		got, err := RemoveAt(seq, i)
		if err != nil {
			t.Fatalf("RemoveAt(%d) unexpected error: %v", i, err)
		}
		if len(got) != len(seq)-1 {
			t.Fatalf("RemoveAt(%d) want length %d, got %d", i, len(seq)-1, len(got))
		}
		if Contains(got, seq[i].id) {
			t.Errorf("RemoveAt(%d) left removed record in %+v", i, got)
		}

		var want []rec
		want = append(want, seq[:i]...)
		want = append(want, seq[i+1:]...)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("RemoveAt(%d) want %+v, got %+v", i, want, got)
		}
	}

	if !reflect.DeepEqual(seq, orig) {
		t.Errorf("input sequence was modified: %+v", seq)
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	seq := []rec{{"a", ""}}
	for _, i := range []int{-1, 1, 5} {
		if _, err := RemoveAt(seq, i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveAt(%d) want ErrIndexOutOfRange, got %v", i, err)
		}
	}
}

func TestPrependRemoveInverse(t *testing.T) {
	seq := []rec{{"b", ""}, {"c", ""}}

	got, err := RemoveAt(Prepend(seq, rec{"a", ""}), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, seq) {
		t.Errorf("want %+v, got %+v", seq, got)
	}
}
