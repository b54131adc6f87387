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

func buildRGBPipeline(t *testing.T) *Pipeline {
	t.Helper()
	srgb, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	adobe, err := BuildVirtual(AdobeRGB1998)
	require.NoError(t, err)
	pl, err := Compile(srgb, Step{Profile: adobe, Intent: RelativeColorimetric})
	require.NoError(t, err)
	return pl
}

func TestBuildAcceleratorRejectsWrongChannelCount(t *testing.T) {
	gray := &Profile{
		Loaded:     true,
		Kind:       KindGray,
		ColorSpace: GraySpace,
		GrayTRC:    &Curve{Gamma: 1.0},
		GrayTRCInv: &Curve{Gamma: 1.0},
	}
	lab, err := BuildVirtual(LabD50)
	require.NoError(t, err)
	pl, err := Compile(gray, Step{Profile: lab, Intent: Perceptual})
	require.NoError(t, err)

	err = pl.BuildAccelerator(9)
	require.Error(t, err)
}

func TestAcceleratorMatchesPipelineWithinGridTolerance(t *testing.T) {
	pl := buildRGBPipeline(t)
	require.NoError(t, pl.BuildAccelerator(17))

	src := []byte{64, 128, 200}
	out, err := pl.TransformArray(src, TransformArrayOptions{})
	require.NoError(t, err)
	require.Len(t, out, 3)

	want, err := pl.EvalFloat([]float64{64.0 / 255, 128.0 / 255, 200.0 / 255})
	require.NoError(t, err)

	for i, w := range want {
		got := float64(out[i]) / 255.0
		require.InDelta(t, w, got, 0.02)
	}
}

func TestAcceleratorAlphaHandling(t *testing.T) {
	pl := buildRGBPipeline(t)
	require.NoError(t, pl.BuildAccelerator(9))

	src := []byte{10, 20, 30, 77, 200, 150, 100, 255}
	out, err := pl.TransformArray(src, TransformArrayOptions{
		HasAlpha:      true,
		OutputAlpha:   true,
		PreserveAlpha: true,
	})
	require.NoError(t, err)
	require.Len(t, out, 8)
	require.Equal(t, byte(77), out[3])
	require.Equal(t, byte(255), out[7])
}

func TestAcceleratorLengthTruncation(t *testing.T) {
	pl := buildRGBPipeline(t)
	require.NoError(t, pl.BuildAccelerator(5))

	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	out, err := pl.TransformArray(src, TransformArrayOptions{Length: 2})
	require.NoError(t, err)
	require.Len(t, out, 6)
}
