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

func TestCompileRejectsUnloadedProfile(t *testing.T) {
	src := &Profile{}
	dst, err := BuildVirtual(SRGB)
	require.NoError(t, err)

	_, err = Compile(src, Step{Profile: dst, Intent: Perceptual})
	require.Error(t, err)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, PipelineErrorNotLoaded, pe.Code)
}

func TestCompileRejectsOutOfRangeIntent(t *testing.T) {
	src, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	dst, err := BuildVirtual(AdobeRGB1998)
	require.NoError(t, err)

	_, err = Compile(src, Step{Profile: dst, Intent: RenderingIntent(9)})
	require.Error(t, err)
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, PipelineErrorIntentOutOfRange, pe.Code)
}

func TestCompileRejectsEmptyChain(t *testing.T) {
	src, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	_, err = Compile(src)
	require.Error(t, err)
}

func TestPipelineRGBToRGBRoundTrip(t *testing.T) {
	srgb, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	adobe, err := BuildVirtual(AdobeRGB1998)
	require.NoError(t, err)

	forward, err := Compile(srgb, Step{Profile: adobe, Intent: RelativeColorimetric})
	require.NoError(t, err)
	backward, err := Compile(adobe, Step{Profile: srgb, Intent: RelativeColorimetric})
	require.NoError(t, err)

	in := []float64{0.2, 0.6, 0.9}
	mid, err := forward.EvalFloat(in)
	require.NoError(t, err)
	out, err := backward.EvalFloat(mid)
	require.NoError(t, err)

	for i := range in {
		require.InDelta(t, in[i], out[i], 1e-6)
	}
}

func TestPipelineSRGBWhiteMapsToD50(t *testing.T) {
	srgb, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	lab, err := BuildVirtual(LabD50)
	require.NoError(t, err)

	pl, err := Compile(srgb, Step{Profile: lab, Intent: RelativeColorimetric})
	require.NoError(t, err)

	out, err := pl.EvalFloat([]float64{1, 1, 1})
	require.NoError(t, err)

	decoded := denormaliseLab(out)
	require.InDelta(t, 100.0, decoded[0], 0.5)
	require.InDelta(t, 0.0, decoded[1], 0.5)
	require.InDelta(t, 0.0, decoded[2], 0.5)
}

func TestPipelineAbsoluteIntentScalesByWhitePoint(t *testing.T) {
	srgb, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	adobe, err := BuildVirtual(AdobeRGB1998)
	require.NoError(t, err)
	// give the destination a distinct media white so absolute scaling
	// is observable against the relative-intent baseline.
	adobe.MediaWhitePoint = [3]float64{0.95, 1.0, 0.90}
	adobe.AbsoluteAdaptationIn = absoluteScaling(adobe.MediaWhitePoint, adobe.PCSIlluminant)
	adobe.AbsoluteAdaptationOut = invertScaling(adobe.AbsoluteAdaptationIn)

	relative, err := Compile(srgb, Step{Profile: adobe, Intent: RelativeColorimetric})
	require.NoError(t, err)
	absolute, err := Compile(srgb, Step{Profile: adobe, Intent: AbsoluteColorimetric})
	require.NoError(t, err)

	in := []float64{0.4, 0.4, 0.4}
	relOut, err := relative.EvalFloat(in)
	require.NoError(t, err)
	absOut, err := absolute.EvalFloat(in)
	require.NoError(t, err)

	require.NotEqual(t, relOut, absOut)
}

func TestPipelineChannelCountMismatch(t *testing.T) {
	srgb, err := BuildVirtual(SRGB)
	require.NoError(t, err)
	adobe, err := BuildVirtual(AdobeRGB1998)
	require.NoError(t, err)

	pl, err := Compile(srgb, Step{Profile: adobe, Intent: Perceptual})
	require.NoError(t, err)

	_, err = pl.EvalFloat([]float64{0.5, 0.5})
	require.Error(t, err)
	var te *TransformError
	require.ErrorAs(t, err, &te)
	require.Equal(t, TransformErrorWrongChannelCount, te.Code)
}
