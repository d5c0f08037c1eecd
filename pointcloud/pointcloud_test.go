package pointcloud

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()

	p0 := NewVector(0, 0, 0)
	d0 := NewValueData(5)

	test.That(t, pc.Set(p0, d0), test.ShouldBeNil)
	d, got := pc.At(0, 0, 0)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d0)

	_, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeFalse)

	p1 := NewVector(1, 0, 1)
	d1 := NewValueData(17)
	test.That(t, pc.Set(p1, d1), test.ShouldBeNil)

	d, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d1)
	test.That(t, d, test.ShouldNotResemble, d0)

	p2 := NewVector(-1, -2, 1)
	d2 := NewValueData(81)
	test.That(t, pc.Set(p2, d2), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 3)

	count := 0
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, 3)

	t.Run("iteration follows insertion order", func(t *testing.T) {
		var seen []r3.Vector
		pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
			seen = append(seen, p)
			return true
		})
		test.That(t, seen, test.ShouldResemble, []r3.Vector{p0, p1, p2})
	})

	t.Run("early stop", func(t *testing.T) {
		count := 0
		pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
			count++
			return false
		})
		test.That(t, count, test.ShouldEqual, 1)
	})

	t.Run("set existing point replaces data", func(t *testing.T) {
		test.That(t, pc.Set(p0, NewValueData(99)), test.ShouldBeNil)
		test.That(t, pc.Size(), test.ShouldEqual, 3)
		d, got := pc.At(0, 0, 0)
		test.That(t, got, test.ShouldBeTrue)
		test.That(t, d.Value(), test.ShouldEqual, 99)
	})

	t.Run("metadata tracks bounds", func(t *testing.T) {
		meta := pc.MetaData()
		test.That(t, meta.MinX, test.ShouldEqual, -1)
		test.That(t, meta.MaxX, test.ShouldEqual, 1)
		test.That(t, meta.MinY, test.ShouldEqual, -2)
		test.That(t, meta.MaxZ, test.ShouldEqual, 1)
		test.That(t, meta.HasValue, test.ShouldBeTrue)
		test.That(t, meta.HasColor, test.ShouldBeFalse)
	})
}

func TestPointCloudBatches(t *testing.T) {
	pc := New()
	for i := 0; i < 10; i++ {
		test.That(t, pc.Set(NewVector(float64(i), 0, 0), NewBasicData()), test.ShouldBeNil)
	}
	total := 0
	for batch := 0; batch < 3; batch++ {
		pc.Iterate(3, batch, func(p r3.Vector, d Data) bool {
			total++
			return true
		})
	}
	test.That(t, total, test.ShouldEqual, 10)
}

func TestPCDRoundTrip(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(0.5, -1, 2), NewBasicData()), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(1.25, 0, 3), NewBasicData()), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf), test.ShouldBeNil)

	back, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 2)
	_, got := back.At(0.5, -1, 2)
	test.That(t, got, test.ShouldBeTrue)

	t.Run("colored", func(t *testing.T) {
		pc := New()
		c := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
		test.That(t, pc.Set(NewVector(1, 2, 3), NewColoredData(c)), test.ShouldBeNil)

		var buf bytes.Buffer
		test.That(t, ToPCD(pc, &buf), test.ShouldBeNil)
		back, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		d, got := back.At(1, 2, 3)
		test.That(t, got, test.ShouldBeTrue)
		test.That(t, d.HasColor(), test.ShouldBeTrue)
		r, g, b := d.RGB255()
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{10, 20, 30})
	})

	t.Run("binary data rejected", func(t *testing.T) {
		_, err := ReadPCD(bytes.NewBufferString("VERSION .7\nFIELDS x y z\nPOINTS 0\nDATA binary\n"))
		test.That(t, err, test.ShouldNotBeNil)
	})
}
