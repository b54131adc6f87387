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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildVirtualSRGB(t *testing.T) {
	p, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	require.True(t, p.Loaded)
	require.Equal(t, KindRGBMatrix, p.Kind)
	require.True(t, p.IsSRGB)
	require.Len(t, p.RGBMatrix, 9)

	// white (1,1,1) should map close to the D50 PCS illuminant.
	lin := mulMatrix3x3Vec(p.RGBMatrix, [3]float64{1, 1, 1})
	require.InDelta(t, d50WhitePoint[0], lin[0], 1e-3)
	require.InDelta(t, d50WhitePoint[1], lin[1], 1e-3)
	require.InDelta(t, d50WhitePoint[2], lin[2], 1e-3)
}

func TestBuildVirtualRoundTrip(t *testing.T) {
	for _, space := range []VirtualSpace{SRGB, AdobeRGB1998, AppleRGB, ColorMatchRGB, ProPhotoRGB} {
		p, err := BuildVirtual(space)
		require.NoErrorf(t, err, "space %v", space)

		for _, in := range [][3]float64{{0, 0, 0}, {1, 1, 1}, {0.5, 0.25, 0.75}} {
			lin := [3]float64{
				p.RGBTRC[0].Evaluate(in[0]),
				p.RGBTRC[1].Evaluate(in[1]),
				p.RGBTRC[2].Evaluate(in[2]),
			}
			xyz := mulMatrix3x3Vec(p.RGBMatrix, lin)
			back := mulMatrix3x3Vec(p.RGBMatrixInv, xyz)
			for i := range back {
				require.InDeltaf(t, lin[i], back[i], 1e-6, "space %v channel %d", space, i)
			}
			round := [3]float64{
				p.RGBTRCInv[0].Invert(lin[0]),
				p.RGBTRCInv[1].Invert(lin[1]),
				p.RGBTRCInv[2].Invert(lin[2]),
			}
			for i := range round {
				require.InDeltaf(t, in[i], round[i], 1e-6, "space %v channel %d", space, i)
			}
		}
	}
}

func TestBuildVirtualLab(t *testing.T) {
	p50, err := BuildVirtual(LabD50)
	require.NoError(t, err)
	require.Equal(t, KindLab, p50.Kind)
	require.True(t, p50.Loaded)
	require.Equal(t, d50WhitePoint, p50.MediaWhitePoint)

	p65, err := BuildVirtual(LabD65)
	require.NoError(t, err)
	require.NotEqual(t, p50.MediaWhitePoint, p65.MediaWhitePoint)
}

func TestSRGBTRCMatchesStandardPiecewise(t *testing.T) {
	trc := sRGBTRC()
	// reference values from IEC 61966-2-1.
	got := trc.Evaluate(0.5)
	want := math.Pow((0.5+0.055)/1.055, 2.4)
	require.InDelta(t, want, got, 1e-9)

	got = trc.Evaluate(0.01)
	want = 0.01 / 12.92
	require.InDelta(t, want, got, 1e-9)
}
