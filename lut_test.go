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
	"time"

	"github.com/stretchr/testify/require"
)

// identityCurveTag builds a curveType element with n == 0, the
// identity curve y = x.
func identityCurveTag() []byte {
	buf := make([]byte, 12)
	copy(buf[0:4], "curv")
	return buf
}

// cornerCoords enumerates the coordinates of a gridPoints^dims cube,
// in the row-major order decodeCLUT expects (last dimension fastest).
func cornerCoords(dims, gridPoints int) [][]int {
	total := 1
	for range dims {
		total *= gridPoints
	}
	coords := make([][]int, total)
	for i := range coords {
		c := make([]int, dims)
		rem := i
		for d := dims - 1; d >= 0; d-- {
			c[d] = rem % gridPoints
			rem /= gridPoints
		}
		coords[i] = c
	}
	return coords
}

// buildLegacyTag encodes an "mft1" (bits == 8) or "mft2" (bits == 16)
// tag with identity input/output ramps and a CLUT populated by value.
func buildLegacyTag(bits, inputChannels, outputChannels, gridPoints int, value func(coords []int) []float64) []byte {
	entries := 256
	headerSize := 48
	if bits == 16 {
		headerSize = 52
	}

	coords := cornerCoords(inputChannels, gridPoints)
	clutSize := len(coords) * outputChannels
	inTableSize := entries * inputChannels * (bits / 8)
	outTableSize := entries * outputChannels * (bits / 8)

	buf := make([]byte, headerSize+inTableSize+clutSize*(bits/8)+outTableSize)
	if bits == 8 {
		copy(buf[0:4], "mft1")
	} else {
		copy(buf[0:4], "mft2")
	}
	buf[8] = byte(inputChannels)
	buf[9] = byte(outputChannels)
	buf[10] = byte(gridPoints)
	for i := range 9 {
		v := 0.0
		if i%4 == 0 {
			v = 1.0
		}
		putS15Fixed16(buf, 12+i*4, v)
	}
	if bits == 16 {
		putUint16(buf, 48, uint16(entries))
		putUint16(buf, 50, uint16(entries))
	}

	offset := headerSize
	for ch := range inputChannels {
		for i := range entries {
			v := float64(i) / float64(entries-1)
			if bits == 8 {
				buf[offset+ch*entries+i] = byte(v * 255.0)
			} else {
				putUint16(buf, offset+(ch*entries+i)*2, uint16(v*65535.0))
			}
		}
	}
	offset += inTableSize

	for i, c := range coords {
		out := value(c)
		for ch := 0; ch < outputChannels && ch < len(out); ch++ {
			idx := offset + (i*outputChannels+ch)*(bits/8)
			if bits == 8 {
				buf[idx] = byte(clamp(out[ch], 0, 1) * 255.0)
			} else {
				putUint16(buf, idx, uint16(clamp(out[ch], 0, 1)*65535.0))
			}
		}
	}
	offset += clutSize * (bits / 8)

	for ch := range outputChannels {
		for i := range entries {
			v := float64(i) / float64(entries-1)
			if bits == 8 {
				buf[offset+ch*entries+i] = byte(v * 255.0)
			} else {
				putUint16(buf, offset+(ch*entries+i)*2, uint16(v*65535.0))
			}
		}
	}

	return buf
}

// buildMultiStageTag encodes an "mAB " (reversed == false) or "mBA "
// tag with identity curves, no matrix, and a CLUT populated by value.
func buildMultiStageTag(reversed bool, inputChannels, outputChannels, gridPoints int, value func(coords []int) []float64) []byte {
	aCount, bCount := inputChannels, outputChannels
	if reversed {
		aCount, bCount = outputChannels, inputChannels
	}

	coords := cornerCoords(inputChannels, gridPoints)
	precision := 2
	clutHeader := 20
	clutBody := len(coords) * outputChannels * precision
	clutData := make([]byte, clutHeader+clutBody)
	for i := 0; i < inputChannels; i++ {
		clutData[i] = byte(gridPoints)
	}
	clutData[16] = byte(precision)
	for i, c := range coords {
		out := value(c)
		for ch := 0; ch < outputChannels && ch < len(out); ch++ {
			putUint16(clutData, clutHeader+(i*outputChannels+ch)*2, uint16(clamp(out[ch], 0, 1)*65535.0))
		}
	}

	aCurveData := make([]byte, 0, aCount*12)
	for range aCount {
		aCurveData = append(aCurveData, identityCurveTag()...)
	}
	bCurveData := make([]byte, 0, bCount*12)
	for range bCount {
		bCurveData = append(bCurveData, identityCurveTag()...)
	}

	bOffset := uint32(32)
	clutOffset := bOffset + uint32(len(bCurveData))
	aOffset := clutOffset + uint32(len(clutData))

	buf := make([]byte, aOffset+uint32(len(aCurveData)))
	if reversed {
		copy(buf[0:4], "mBA ")
	} else {
		copy(buf[0:4], "mAB ")
	}
	buf[8] = byte(inputChannels)
	buf[9] = byte(outputChannels)
	putUint32(buf, 12, bOffset)
	putUint32(buf, 24, clutOffset)
	putUint32(buf, 28, aOffset)
	copy(buf[bOffset:], bCurveData)
	copy(buf[clutOffset:], clutData)
	copy(buf[aOffset:], aCurveData)

	return buf
}

func TestDecodeLUTLegacy8Identity(t *testing.T) {
	data := buildLegacyTag(8, 3, 3, 2, func(c []int) []float64 {
		return []float64{float64(c[0]), float64(c[1]), float64(c[2])}
	})

	lut, err := DecodeLUT(data)
	require.NoError(t, err)
	require.Equal(t, 3, lut.InputChannels())
	require.Equal(t, 3, lut.OutputChannels())

	out := lut.Apply([]float64{0.25, 0.5, 0.75})
	require.InDelta(t, 0.25, out[0], 1e-2)
	require.InDelta(t, 0.5, out[1], 1e-2)
	require.InDelta(t, 0.75, out[2], 1e-2)

	encoded, err := lut.Encode()
	require.NoError(t, err)
	roundTripped, err := DecodeLUT(encoded)
	require.NoError(t, err)
	require.Equal(t, out, roundTripped.Apply([]float64{0.25, 0.5, 0.75}))
}

func TestDecodeLUTLegacy16CMYKIgnoresK(t *testing.T) {
	// output depends only on the first three input dimensions; with a
	// uniform grid and linear weights, varying K must leave Apply's
	// first three outputs unchanged.
	data := buildLegacyTag(16, 4, 3, 2, func(c []int) []float64 {
		return []float64{float64(c[0]), float64(c[1]), float64(c[2])}
	})

	lut, err := DecodeLUT(data)
	require.NoError(t, err)
	require.Equal(t, 4, lut.InputChannels())

	low := lut.Apply([]float64{0.3, 0.6, 0.9, 0.1})
	high := lut.Apply([]float64{0.3, 0.6, 0.9, 0.9})
	require.InDelta(t, low[0], high[0], 1e-9)
	require.InDelta(t, low[1], high[1], 1e-9)
	require.InDelta(t, low[2], high[2], 1e-9)
	require.InDelta(t, 0.3, low[0], 1e-2)
}

func TestDecodeLUTMultiStageAToBAndBToAAgree(t *testing.T) {
	identity := func(c []int) []float64 {
		return []float64{float64(c[0]), float64(c[1]), float64(c[2])}
	}
	aToB := buildMultiStageTag(false, 3, 3, 2, identity)
	bToA := buildMultiStageTag(true, 3, 3, 2, identity)

	forward, err := DecodeLUT(aToB)
	require.NoError(t, err)
	backward, err := DecodeLUT(bToA)
	require.NoError(t, err)

	in := []float64{0.2, 0.4, 0.6}
	outForward := forward.Apply(in)
	outBackward := backward.Apply(in)
	require.InDeltaSlice(t, outForward, outBackward, 1e-9)
	require.InDeltaSlice(t, in, outForward, 1e-2)
}

func TestCLUTGeometryTetrahedralMatchesCorners(t *testing.T) {
	g := uniformGeometry(3, 2, 3)
	clut := make([]float64, 8*3)
	for i, c := range cornerCoords(3, 2) {
		clut[i*3+0] = float64(c[0])
		clut[i*3+1] = float64(c[1])
		clut[i*3+2] = float64(c[2])
	}

	for _, c := range cornerCoords(3, 2) {
		in := []float64{float64(c[0]), float64(c[1]), float64(c[2])}
		out := g.sample(clut, in)
		require.InDeltaSlice(t, in, out, 1e-9)
	}

	mid := g.sample(clut, []float64{0.5, 0.5, 0.5})
	require.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, mid, 1e-9)
}

func TestCLUTGeometryMultilinearFourDimensions(t *testing.T) {
	g := uniformGeometry(4, 2, 2)
	coords := cornerCoords(4, 2)
	clut := make([]float64, len(coords)*2)
	for i, c := range coords {
		clut[i*2+0] = float64(c[0]+c[1]+c[2]+c[3]) / 4.0
		clut[i*2+1] = float64(c[0])
	}

	out := g.sample(clut, []float64{1, 1, 1, 1})
	require.InDelta(t, 1.0, out[0], 1e-9)
	require.InDelta(t, 1.0, out[1], 1e-9)

	out = g.sample(clut, []float64{0, 0, 0, 0})
	require.InDelta(t, 0.0, out[0], 1e-9)
	require.InDelta(t, 0.0, out[1], 1e-9)
}

// buildCMYKProfile assembles a minimal CMYK RawProfile whose AToB1
// table maps (C, M, Y, _) onto PCS XYZ, ignoring K, via a legacy
// 16-bit CLUT.
func buildCMYKProfile(t *testing.T) *RawProfile {
	t.Helper()
	raw := &RawProfile{
		Version:      Version4_3_0,
		Class:        OutputDeviceProfile,
		ColorSpace:   CMYKSpace,
		PCS:          PCSXYZSpace,
		CreationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TagData:      make(map[TagType][]byte),
	}
	raw.TagData[AToB1] = buildLegacyTag(16, 4, 3, 2, func(c []int) []float64 {
		return []float64{float64(c[0]), float64(c[1]), float64(c[2])}
	})
	return raw
}

func TestPipelineCMYKThroughLegacyLUT(t *testing.T) {
	raw := buildCMYKProfile(t)
	data, err := raw.Encode()
	require.NoError(t, err)

	cmyk, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, KindCMYK, cmyk.Kind)

	lab, err := BuildVirtual(LabD50)
	require.NoError(t, err)

	pl, err := Compile(cmyk, Step{Profile: lab, Intent: RelativeColorimetric})
	require.NoError(t, err)
	require.Equal(t, 4, pl.InputChannels())

	out, err := pl.EvalFloat([]float64{0.3, 0.6, 0.9, 0.5})
	require.NoError(t, err)
	require.Len(t, out, 3)
}

// buildRGBLutProfile assembles an RGB profile with only an mAB/mBA
// table pair (no matrix+TRC tags), forcing the RGBLut classification
// instead of the RGBMatrix reclassification.
func buildRGBLutProfile(t *testing.T) *RawProfile {
	t.Helper()
	raw := &RawProfile{
		Version:      Version4_3_0,
		Class:        DisplayDeviceProfile,
		ColorSpace:   RGBSpace,
		PCS:          PCSXYZSpace,
		CreationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TagData:      make(map[TagType][]byte),
	}
	identity := func(c []int) []float64 {
		return []float64{float64(c[0]), float64(c[1]), float64(c[2])}
	}
	raw.TagData[AToB1] = buildMultiStageTag(false, 3, 3, 2, identity)
	raw.TagData[BToA1] = buildMultiStageTag(true, 3, 3, 2, identity)
	return raw
}

func TestPipelineRGBLutRoundTripsThroughItself(t *testing.T) {
	raw := buildRGBLutProfile(t)
	data, err := raw.Encode()
	require.NoError(t, err)

	p, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, KindRGBLut, p.Kind)

	pl, err := Compile(p, Step{Profile: p, Intent: RelativeColorimetric})
	require.NoError(t, err)

	in := []float64{0.1, 0.5, 0.9}
	out, err := pl.EvalFloat(in)
	require.NoError(t, err)
	require.InDeltaSlice(t, in, out, 1e-2)
}
