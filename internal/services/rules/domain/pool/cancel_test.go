package pool

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		adv     Pool
		dis     Pool
		wantAdv Pool
		wantDis Pool
	}{
		{"both empty", nil, nil, Pool{}, Pool{}},
		{"advantage only", Pool{D6: 2}, nil, Pool{D6: 2}, Pool{}},
		{"disadvantage only", nil, Pool{D8: 1}, Pool{}, Pool{D8: 1}},
		{"same face fully cancels", Pool{D6: 2}, Pool{D6: 2}, Pool{}, Pool{}},
		{"same face before cross face", Pool{D6: 2}, Pool{D6: 1, D8: 1}, Pool{}, Pool{}},
		{"same face leaves remainder", Pool{D6: 3}, Pool{D6: 1}, Pool{D6: 2}, Pool{}},
		{"cross face strips smallest first", Pool{D4: 1, D10: 1}, Pool{D6: 1}, Pool{D10: 1}, Pool{}},
		{"cross face on disadvantage side", Pool{D8: 1}, Pool{D4: 1, D6: 1, D10: 1}, Pool{}, Pool{D6: 1, D10: 1}},
		{"cross face spans faces", Pool{D4: 1, D6: 1, D8: 2}, Pool{D10: 3}, Pool{D8: 1}, Pool{}},
		{"equal totals cancel out", Pool{D4: 1, D8: 1}, Pool{D6: 2}, Pool{}, Pool{}},
		{"unknown faces ignored", Pool{Face(12): 3, D6: 1}, nil, Pool{D6: 1}, Pool{}},
		{"negative counts ignored", Pool{D6: -2}, Pool{D6: 1}, Pool{}, Pool{D6: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAdv, gotDis := Cancel(tt.adv, tt.dis)
			if !reflect.DeepEqual(gotAdv, tt.wantAdv) {
				t.Fatalf("advantage = %v, want %v", gotAdv, tt.wantAdv)
			}
			if !reflect.DeepEqual(gotDis, tt.wantDis) {
				t.Fatalf("disadvantage = %v, want %v", gotDis, tt.wantDis)
			}
		})
	}
}

func TestCancelSameFaceExample(t *testing.T) {
	// A d6 pair cancels first, leaving one die on each side to cancel across faces.
	adv, dis := Cancel(Pool{D6: 2}, Pool{D6: 1, D8: 1})
	if !adv.IsEmpty() || !dis.IsEmpty() {
		t.Fatalf("cancel = %v / %v, want both empty", adv, dis)
	}

	adv, dis = Cancel(Pool{D6: 2, D10: 1}, Pool{D6: 1, D8: 1})
	if !reflect.DeepEqual(adv, Pool{D10: 1}) || !dis.IsEmpty() {
		t.Fatalf("cancel = %v / %v, want 1d10 / empty", adv, dis)
	}
}

func TestCancelDoesNotMutateInputs(t *testing.T) {
	adv := Pool{D6: 2, D8: 1}
	dis := Pool{D6: 1}
	Cancel(adv, dis)
	if adv[D6] != 2 || adv[D8] != 1 || dis[D6] != 1 {
		t.Fatalf("inputs mutated: %v / %v", adv, dis)
	}
}

func TestCancelTerminalInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomPool := func() Pool {
		p := Pool{}
		for _, face := range Faces {
			p[face] = rng.Intn(4)
		}
		return p
	}

	for i := 0; i < 500; i++ {
		a, b := randomPool(), randomPool()
		adv, dis := Cancel(a, b)
		if min(adv.Total(), dis.Total()) != 0 {
			t.Fatalf("cancel(%v, %v) = %v / %v, both sides non-empty", a, b, adv, dis)
		}
		if want := a.Total() - b.Total(); adv.Total()-dis.Total() != want {
			t.Fatalf("net = %d, want %d", adv.Total()-dis.Total(), want)
		}
		if got := Reduce(a, b); !reflect.DeepEqual(got, adv) {
			t.Fatalf("reduce = %v, want %v", got, adv)
		}
	}
}

func TestNet(t *testing.T) {
	if got := Net(Pool{D6: 3}, Pool{D8: 1}); got != 2 {
		t.Fatalf("net = %d, want 2", got)
	}
	if got := Net(Pool{D6: 1}, Pool{D8: 2}); got != -1 {
		t.Fatalf("net = %d, want -1", got)
	}
}
