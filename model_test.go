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

// xyzTag builds a minimal "XYZ " tag element for the given value.
func xyzTag(v [3]float64) []byte {
	buf := make([]byte, 20)
	copy(buf[0:4], "XYZ ")
	putS15Fixed16(buf, 8, v[0])
	putS15Fixed16(buf, 12, v[1])
	putS15Fixed16(buf, 16, v[2])
	return buf
}

// gammaCurveTag builds a curveType element encoding a simple gamma.
func gammaCurveTag(gamma float64) []byte {
	buf := make([]byte, 14)
	copy(buf[0:4], "curv")
	putUint32(buf, 8, 1)
	putUint16(buf, 12, uint16(gamma*256.0))
	return buf
}

func buildMatrixTRCRawProfile(t *testing.T) *RawProfile {
	t.Helper()

	srgb, err := BuildVirtual(SRGB)
	require.NoError(t, err)

	raw := &RawProfile{
		Version:      Version4_3_0,
		Class:        DisplayDeviceProfile,
		ColorSpace:   RGBSpace,
		PCS:          PCSXYZSpace,
		CreationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TagData:      make(map[TagType][]byte),
	}

	raw.TagData[MediaWhitePoint] = xyzTag(d50WhitePoint)
	raw.TagData[RedMatrixColumn] = xyzTag([3]float64{srgb.RGBMatrix[0], srgb.RGBMatrix[3], srgb.RGBMatrix[6]})
	raw.TagData[GreenMatrixColumn] = xyzTag([3]float64{srgb.RGBMatrix[1], srgb.RGBMatrix[4], srgb.RGBMatrix[7]})
	raw.TagData[BlueMatrixColumn] = xyzTag([3]float64{srgb.RGBMatrix[2], srgb.RGBMatrix[5], srgb.RGBMatrix[8]})
	raw.TagData[RedTRC] = gammaCurveTag(2.2)
	raw.TagData[GreenTRC] = gammaCurveTag(2.2)
	raw.TagData[BlueTRC] = gammaCurveTag(2.2)

	return raw
}

func TestLoadReclassifiesRGBMatrix(t *testing.T) {
	raw := buildMatrixTRCRawProfile(t)
	data, err := raw.Encode()
	require.NoError(t, err)

	p, err := Load(data)
	require.NoError(t, err)
	require.True(t, p.Loaded)
	require.Equal(t, KindRGBMatrix, p.Kind)
	require.Len(t, p.RGBMatrix, 9)
	require.NotNil(t, p.RGBTRC[0])
}

func TestLoadGrayProfile(t *testing.T) {
	raw := &RawProfile{
		Version:      Version4_3_0,
		Class:        DisplayDeviceProfile,
		ColorSpace:   GraySpace,
		PCS:          PCSXYZSpace,
		CreationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TagData:      make(map[TagType][]byte),
	}
	raw.TagData[GrayTRC] = gammaCurveTag(1.8)

	data, err := raw.Encode()
	require.NoError(t, err)

	p, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, KindGray, p.Kind)
	require.NotNil(t, p.GrayTRC)
	// u8Fixed8 cannot hold 1.8; gammaCurveTag stores 460/256 = 1.796875.
	require.InDelta(t, 460.0/256.0, p.GrayTRC.Gamma, 1e-6)
}

func TestLoadRejectsUnsupportedPCS(t *testing.T) {
	raw := &RawProfile{
		Version:      Version4_3_0,
		Class:        DisplayDeviceProfile,
		ColorSpace:   RGBSpace,
		PCS:          CIELuvSpace,
		CreationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TagData:      make(map[TagType][]byte),
	}
	data, err := raw.Encode()
	require.NoError(t, err)

	_, err = Load(data)
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	require.Equal(t, LoadErrorUnsupportedPCS, le.Code)
}

func TestApplyIntentFallback(t *testing.T) {
	relative := &multiStageTable{}
	tables := [3]LUT{nil, relative, nil}
	applyIntentFallback(&tables)
	require.Equal(t, LUT(relative), tables[Perceptual])
	require.Equal(t, LUT(relative), tables[Saturation])
}
