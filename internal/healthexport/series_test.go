package healthexport

import "testing"

func TestParseSeries_MinMaxAvg(t *testing.T) {
	points := ParseSeries("Time,Min (bpm),Max (bpm),Avg (bpm)\n12:00:00,60,80,70\n")
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	p := points[0]
	if p.Timestamp != "12:00:00" {
		t.Errorf("timestamp = %q", p.Timestamp)
	}
	if p.Min == nil || *p.Min != 60 || p.Max == nil || *p.Max != 80 || p.Avg == nil || *p.Avg != 70 {
		t.Errorf("point = %+v, want min=60 max=80 avg=70", p)
	}
	if p.Value != nil {
		t.Errorf("value = %v, want nil for min/max/avg schema", *p.Value)
	}
}

func TestParseSeries_SingleValue(t *testing.T) {
	points := ParseSeries("Time,Value (kcal)\n12:00:00,3.5\n12:00:10,4.1\n")
	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	if points[0].Value == nil || *points[0].Value != 3.5 {
		t.Errorf("points[0] = %+v", points[0])
	}
	if points[0].Min != nil || points[0].Max != nil || points[0].Avg != nil {
		t.Errorf("min/max/avg populated on value schema: %+v", points[0])
	}
}

func TestParseSeries_FallbackSchema(t *testing.T) {
	// Neither "Min" nor "Value" in the header: min/max/avg layout assumed.
	points := ParseSeries("Time,A,B,C\n12:00:00,1,2,3\n")
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if points[0].Min == nil || *points[0].Min != 1 {
		t.Errorf("point = %+v, want fallback min/max/avg schema", points[0])
	}
}

func TestParseSeries_HeaderOnly(t *testing.T) {
	if points := ParseSeries("Time,Value\n"); points != nil {
		t.Errorf("expected empty, got %v", points)
	}
}

func TestParseSeries_Empty(t *testing.T) {
	if points := ParseSeries(""); points != nil {
		t.Errorf("expected empty, got %v", points)
	}
}

func TestParseSeries_UnparseableNumberAbsent(t *testing.T) {
	points := ParseSeries("Time,Min,Max,Avg\n12:00:00,xx,80,70\n")
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if points[0].Min != nil {
		t.Errorf("min = %v, want nil (absent, not zero)", *points[0].Min)
	}
	if points[0].Max == nil || *points[0].Max != 80 {
		t.Errorf("max = %+v, want 80", points[0].Max)
	}
}

func TestParseSeries_ShortRowSkipped(t *testing.T) {
	points := ParseSeries("Time,Value\njustonetoken\n12:00:00,5\n")
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1 (short row skipped)", len(points))
	}
}

func TestParseSeries_Reparseable(t *testing.T) {
	text := "Time,Value\n12:00:00,5\n"
	a := ParseSeries(text)
	b := ParseSeries(text)
	if len(a) != len(b) || *a[0].Value != *b[0].Value {
		t.Error("reparsing the same text produced different results")
	}
}
