package pkgname

import (
	"testing"
)

func TestInfer(t *testing.T) {
	data := []byte("\x00\x00CH_YUR.SPM\x00junk\x00CH_YUR.SPV\x00CH_YUR.SPM\x00map.txm\x00FIELD01.FPS4\x00")
	got := Infer(data)

	want := []Candidate{
		{Name: "CH_YUR.SPM", Ext: "SPM", Offset: 2},
		{Name: "CH_YUR.SPV", Ext: "SPV", Offset: 18},
		{Name: "FIELD01.FPS4", Ext: "FPS4", Offset: 48},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	stems := Stems(got)
	if len(stems) != 2 || stems[0] != "CH_YUR" || stems[1] != "FIELD01" {
		t.Errorf("stems %v", stems)
	}
}

func TestInferNothing(t *testing.T) {
	if got := Infer([]byte("A.SPM nothing here X.TXM")); len(got) != 0 {
		t.Errorf("single-letter stems matched: %+v", got)
	}
}

func TestInferFallback(t *testing.T) {
	data := []byte("\x00BTL_EFFECT\x00ab\x00ABC\x00BTL_EFFECT\x00Z999\x00")
	got := InferFallback(data)
	if len(got) != 2 || got[0].Name != "BTL_EFFECT" || got[0].Offset != 1 || got[1].Name != "Z999" {
		t.Errorf("got %+v", got)
	}
	if got[0].Ext != "" {
		t.Errorf("fallback candidates carry no extension")
	}
}
