package params

import (
	"errors"
	"sync"
	"testing"
)

func TestFromAppliesScaling(t *testing.T) {
	var v [Count]float32
	v[EnvType] = 1
	v[LFOTarget] = 2
	v[Osc2Repeat] = 1
	v[LFORate] = 0.5
	v[Osc2Level] = 0.5
	v[FMFreq] = 0.75
	v[FMIndex] = 1.119
	v[DelayTime] = 0.8
	v[Osc2Cutoff] = 7226.376

	p := FromValues(v)
	if p.Shape != ShapeASR || p.ModTarget != TargetFM || !p.Osc2Repeat {
		t.Fatalf("selectors = %v %v %v", p.Shape, p.ModTarget, p.Osc2Repeat)
	}
	if p.LFORate != 5 {
		t.Errorf("lfo rate = %f, want 5", p.LFORate)
	}
	if p.Osc2Level != 0.1 {
		t.Errorf("osc2 level = %f, want 0.1", p.Osc2Level)
	}
	if p.FMOffset != 25 {
		t.Errorf("fm offset = %f, want 25", p.FMOffset)
	}
	if p.FMIndex != 11 {
		t.Errorf("fm index = %d, want 11", p.FMIndex)
	}
	if p.DelayTime != 0.4 {
		t.Errorf("delay time = %f, want 0.4", p.DelayTime)
	}
	if p.Osc2Cutoff < 7226 || p.Osc2Cutoff > 7227 {
		t.Errorf("cutoff = %f", p.Osc2Cutoff)
	}
}

func TestIndexAndName(t *testing.T) {
	for i := 0; i < Count; i++ {
		got, err := Index(Name(i))
		if err != nil || got != i {
			t.Fatalf("Index(Name(%d)) = %d, %v", i, got, err)
		}
	}
	if _, err := Index("volume"); err == nil {
		t.Fatal("expected error for unknown name")
	}
	if Name(Count) != "" || Name(-1) != "" {
		t.Fatal("out of range Name should be empty")
	}
}

func TestParseSetting(t *testing.T) {
	tests := []struct {
		in      string
		index   int
		value   float32
		wantErr bool
	}{
		{"attack=0.25", Attack, 0.25, false},
		{" LFO-Target = 2", LFOTarget, 2, false},
		{"delay-mix=0", DelayMix, 0, false},
		{"attack", -1, 0, true},
		{"volume=1", -1, 0, true},
		{"meter-left=1", -1, 0, true},
		{"decay=slow", -1, 0, true},
	}
	for _, tt := range tests {
		i, v, err := ParseSetting(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSetting(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (i != tt.index || v != tt.value) {
			t.Errorf("ParseSetting(%q) = %d %f, want %d %f", tt.in, i, v, tt.index, tt.value)
		}
	}
}

func TestVectorGetSet(t *testing.T) {
	v := NewVector(Defaults())
	if v.Get(FMFreq) != 0.01 {
		t.Fatalf("default fm freq = %f", v.Get(FMFreq))
	}
	v.Set(Attack, 0.25)
	v.Set(Count, 9)
	if v.Get(Attack) != 0.25 || v.Get(Count) != 0 {
		t.Fatalf("get = %f, %f", v.Get(Attack), v.Get(Count))
	}
	var p Params
	v.Params(&p)
	if p.Attack != 0.25 {
		t.Fatalf("params attack = %f", p.Attack)
	}
}

func TestVectorConcurrentAccess(t *testing.T) {
	v := NewVector(Defaults())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v.Set(DelayMix, float32(i)/1000)
		}
	}()
	go func() {
		defer wg.Done()
		var p Params
		for i := 0; i < 1000; i++ {
			v.Params(&p)
			if p.DelayMix < 0 || p.DelayMix > 1 {
				t.Errorf("torn value %f", p.DelayMix)
				return
			}
		}
	}()
	wg.Wait()
}

func TestLookupPreset(t *testing.T) {
	p, err := LookupPreset("  preset 2 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.Values[LFORate] != 0.685 {
		t.Fatalf("preset 2 lfo rate = %f", p.Values[LFORate])
	}
	if _, err := LookupPreset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("err = %v, want ErrUnknownPreset", err)
	}
	if len(Factory) != 3 {
		t.Fatalf("factory presets = %d", len(Factory))
	}
}
