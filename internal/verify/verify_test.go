package verify

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func TestCompareEqual(t *testing.T) {
	t.Parallel()

	want := []int32{1, 2, 3, 4}
	res, err := Compare(want, slices.Clone(want))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !res.Passed() || res.Err() != nil {
		t.Fatalf("expected pass, got %+v", res)
	}
}

func TestCompareCountsEveryPerturbation(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(9))
	want := make([]int32, 4096)
	for i := range want {
		want[i] = rng.Int31()
	}
	for _, n := range []int{1, 7, 33, 500} {
		got := slices.Clone(want)
		for _, idx := range rng.Perm(len(got))[:n] {
			got[idx]++
		}
		res, err := Compare(want, got)
		if err != nil {
			t.Fatalf("Compare: %v", err)
		}
		if res.Mismatches != n {
			t.Fatalf("perturbed %d, counted %d", n, res.Mismatches)
		}
		if len(res.Samples) != min(n, maxSamples) {
			t.Fatalf("samples = %d", len(res.Samples))
		}
		err = res.Err()
		if !errors.Is(err, ErrVerificationMismatch) {
			t.Fatalf("expected ErrVerificationMismatch, got %v", err)
		}
		var me *MismatchError
		if !errors.As(err, &me) || me.Mismatches != n || me.Total != len(want) {
			t.Fatalf("unexpected mismatch error: %v", err)
		}
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	t.Parallel()

	if _, err := Compare([]int32{1}, []int32{1, 2}); err == nil {
		t.Fatalf("expected error")
	}
}
