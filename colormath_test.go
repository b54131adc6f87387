// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabXYZRoundTrip(t *testing.T) {
	white := d50WhitePoint
	for _, lab := range [][3]float64{
		{50, 10, -20},
		{0, 0, 0},
		{100, 0, 0},
		{25, -50, 60},
	} {
		X, Y, Z := labToXYZ(lab[:], white)
		L2, a2, b2 := xyzToLab(X, Y, Z, white)
		require.InDelta(t, lab[0], L2, 1e-6)
		require.InDelta(t, lab[1], a2, 1e-6)
		require.InDelta(t, lab[2], b2, 1e-6)
	}
}

func TestXyYToXYZ(t *testing.T) {
	xyz := xyYToXYZ(0.3127, 0.3290, 1.0)
	require.InDelta(t, 0.9505, xyz[0], 1e-3)
	require.InDelta(t, 1.0, xyz[1], 1e-9)
	require.InDelta(t, 1.0888, xyz[2], 1e-3)

	degenerate := xyYToXYZ(0.5, 0, 1.0)
	require.Equal(t, [3]float64{0, 0, 0}, degenerate)
}

func TestInvertMatrix3x3(t *testing.T) {
	identity := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	inv := invertMatrix3x3(identity)
	require.Equal(t, identity, inv)

	singular := []float64{1, 2, 3, 2, 4, 6, 1, 1, 1}
	require.Nil(t, invertMatrix3x3(singular))
}

func TestRGBMatrixFromPrimariesIdentitiesSumToWhite(t *testing.T) {
	red := [2]float64{0.64, 0.33}
	green := [2]float64{0.30, 0.60}
	blue := [2]float64{0.15, 0.06}
	white := xyYToXYZ(0.3127, 0.3290, 1.0)

	m := rgbMatrixFromPrimaries(red, green, blue, white)
	require.NotNil(t, m)

	got := mulMatrix3x3Vec(m, [3]float64{1, 1, 1})
	require.InDelta(t, white[0], got[0], 1e-9)
	require.InDelta(t, white[1], got[1], 1e-9)
	require.InDelta(t, white[2], got[2], 1e-9)
}

func TestBradfordAdaptationIsIdentityForSameWhite(t *testing.T) {
	m := bradfordAdaptationMatrix(d50WhitePoint, d50WhitePoint)
	got := mulMatrix3x3Vec(m, d50WhitePoint)
	require.InDelta(t, d50WhitePoint[0], got[0], 1e-9)
	require.InDelta(t, d50WhitePoint[1], got[1], 1e-9)
	require.InDelta(t, d50WhitePoint[2], got[2], 1e-9)
}

func TestAbsoluteScalingRoundTrip(t *testing.T) {
	mediaWhite := [3]float64{0.95, 1.0, 0.91}
	s := absoluteScaling(mediaWhite, d50WhitePoint)
	inv := invertScaling(s)

	xyz := [3]float64{0.3, 0.4, 0.2}
	scaled := scaleXYZ(xyz, s)
	back := scaleXYZ(scaled, inv)

	require.InDelta(t, xyz[0], back[0], 1e-9)
	require.InDelta(t, xyz[1], back[1], 1e-9)
	require.InDelta(t, xyz[2], back[2], 1e-9)
}

func TestLabV2V4Bridge(t *testing.T) {
	lab := []float64{0.5, 0.5, 0.5}
	v2 := v4LabToV2(lab)
	back := v2LabToV4(v2)
	require.InDelta(t, lab[0], back[0], 1e-12)
	require.InDelta(t, lab[1], back[1], 1e-12)
	require.InDelta(t, lab[2], back[2], 1e-12)
}

func TestXYZDeviceEncodingBridge(t *testing.T) {
	xyz := [3]float64{0.5, 0.9, 1.2}
	encoded := encodeXYZDevice(xyz)
	decoded := decodeXYZDevice(encoded)
	require.InDelta(t, xyz[0], decoded[0], 1e-12)
	require.InDelta(t, xyz[1], decoded[1], 1e-12)
	require.InDelta(t, xyz[2], decoded[2], 1e-12)
}
