package diff

import (
	"math/rand"
	"testing"

	"github.com/ironsheep/visual-diff-mcp/internal/imaging"
)

func changedRecord(index int, box imaging.Region, priority float64) ChangeRecord {
	return ChangeRecord{
		Index:          index,
		BBox:           box,
		Area:           box.Area(),
		Priority:       priority,
		VisualChange:   true,
		SemanticChange: true,
		Changed:        true,
	}
}

func TestSuppress(t *testing.T) {
	container := imaging.Region{X1: 100, Y1: 100, X2: 900, Y2: 700}
	inner := imaging.Region{X1: 200, Y1: 200, X2: 400, Y2: 300}

	tests := []struct {
		name    string
		records ChangeSet
		thresh  float64
		want    []bool // Changed per record after suppression
	}{
		{
			name:    "container suppressed by nested region",
			records: ChangeSet{changedRecord(0, container, 1), changedRecord(1, inner, 1)},
			thresh:  0.8,
			want:    []bool{false, true},
		},
		{
			name:    "higher priority container wins",
			records: ChangeSet{changedRecord(0, container, 3), changedRecord(1, inner, 1)},
			thresh:  0.8,
			want:    []bool{true, false},
		},
		{
			name: "mostly overlapping regions",
			records: ChangeSet{
				changedRecord(0, imaging.Region{X1: 0, Y1: 0, X2: 100, Y2: 100}, 1),
				changedRecord(1, imaging.Region{X1: 10, Y1: 0, X2: 110, Y2: 100}, 1),
			},
			thresh: 0.8,
			want:   []bool{true, false},
		},
		{
			name: "half overlap kept",
			records: ChangeSet{
				changedRecord(0, imaging.Region{X1: 0, Y1: 0, X2: 100, Y2: 100}, 1),
				changedRecord(1, imaging.Region{X1: 50, Y1: 0, X2: 150, Y2: 100}, 1),
			},
			thresh: 0.8,
			want:   []bool{true, true},
		},
		{
			name: "disjoint regions kept",
			records: ChangeSet{
				changedRecord(0, imaging.Region{X1: 0, Y1: 0, X2: 50, Y2: 50}, 1),
				changedRecord(1, imaging.Region{X1: 60, Y1: 0, X2: 110, Y2: 50}, 1),
			},
			thresh: 0.8,
			want:   []bool{true, true},
		},
		{
			name: "identical boxes keep the first detected",
			records: ChangeSet{
				changedRecord(0, inner, 1),
				changedRecord(1, inner, 1),
			},
			thresh: 0.8,
			want:   []bool{true, false},
		},
		{
			name: "unchanged records are ignored",
			records: ChangeSet{
				{Index: 0, BBox: container, Area: container.Area(), Priority: 1},
				changedRecord(1, inner, 1),
			},
			thresh: 0.8,
			want:   []bool{false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suppress(tt.records, tt.thresh)
			for i, r := range got {
				if r.Changed != tt.want[i] {
					t.Errorf("record %d: changed=%v, want %v", i, r.Changed, tt.want[i])
				}
				wasChanged := tt.records[i].Changed
				if wasChanged && !r.Changed {
					if !r.Suppressed || r.VisualChange || r.SemanticChange {
						t.Errorf("record %d: suppressed flags wrong: %+v", i, r)
					}
				}
			}
		})
	}
}

func TestSuppress_DoesNotModifyInput(t *testing.T) {
	records := ChangeSet{
		changedRecord(0, imaging.Region{X1: 0, Y1: 0, X2: 100, Y2: 100}, 1),
		changedRecord(1, imaging.Region{X1: 10, Y1: 10, X2: 50, Y2: 50}, 1),
	}
	Suppress(records, 0.8)
	if !records[0].Changed || records[0].Suppressed {
		t.Error("Suppress modified its input")
	}
}

func randomRecords(rng *rand.Rand, n int) ChangeSet {
	records := make(ChangeSet, n)
	for i := range records {
		x, y := rng.Intn(400), rng.Intn(400)
		box := imaging.Region{X1: x, Y1: y, X2: x + 20 + rng.Intn(300), Y2: y + 20 + rng.Intn(300)}
		records[i] = ChangeRecord{
			Index:    i,
			BBox:     box,
			Area:     box.Area(),
			Priority: float64(rng.Intn(4)),
			Changed:  rng.Intn(3) > 0,
		}
		records[i].VisualChange = records[i].Changed
	}
	return records
}

func TestSuppress_Monotone(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		before := randomRecords(rng, 1+rng.Intn(12))
		after := Suppress(before, 0.8)

		if len(after) != len(before) {
			t.Fatalf("trial %d: record count changed", trial)
		}
		if after.Summary().ChangedRegions > before.Summary().ChangedRegions {
			t.Fatalf("trial %d: more changed regions after suppression", trial)
		}
		for i := range after {
			if after[i].Changed && !before[i].Changed {
				t.Fatalf("trial %d: record %d became changed", trial, i)
			}
			if after[i].PerceptualScore != before[i].PerceptualScore {
				t.Fatalf("trial %d: record %d scores changed", trial, i)
			}
		}
	}
}

func TestSuppress_ContainmentLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 500; trial++ {
		x, y := rng.Intn(200), rng.Intn(200)
		outer := imaging.Region{X1: x, Y1: y, X2: x + 100 + rng.Intn(400), Y2: y + 100 + rng.Intn(400)}
		ix := outer.X1 + rng.Intn(outer.Width()-40)
		iy := outer.Y1 + rng.Intn(outer.Height()-40)
		inner := imaging.Region{
			X1: ix, Y1: iy,
			X2: ix + 20 + rng.Intn(outer.X2-ix-20+1),
			Y2: iy + 20 + rng.Intn(outer.Y2-iy-20+1),
		}

		a := changedRecord(0, inner, float64(rng.Intn(4)))
		b := changedRecord(1, outer, float64(rng.Intn(4)))
		records := ChangeSet{a, b}
		if rng.Intn(2) == 0 {
			records = ChangeSet{b, a}
		}

		got := Suppress(records, 0.8)
		if got.Summary().ChangedRegions != 1 {
			t.Fatalf("trial %d: inner %s outer %s: %d changed, want exactly 1",
				trial, inner, outer, got.Summary().ChangedRegions)
		}

		// The survivor is the better ranked one.
		var survivor, first ChangeRecord
		for _, r := range got {
			if r.Changed {
				survivor = r
			}
		}
		first = records[0]
		second := records[1]
		if second.Priority > first.Priority ||
			(second.Priority == first.Priority && second.Area < first.Area) {
			first = second
		}
		if survivor.BBox != first.BBox {
			t.Fatalf("trial %d: survivor %s, want %s", trial, survivor.BBox, first.BBox)
		}
	}
}
