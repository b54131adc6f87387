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

import "math"

// labEpsilon and labKappa are the CIE constants used by the piecewise
// L*a*b* <-> XYZ conversion (CIE 15:2004, also ICC.1:2010 §F.3).
const (
	labEpsilon = 216.0 / 24389.0
	labKappa   = 24389.0 / 27.0
)

// parseXYZ reads an ICC "XYZ " tag element (an XYZNumber preceded by
// the usual 8-byte type/reserved header).
func parseXYZ(data []byte) ([3]float64, error) {
	if len(data) < 20 {
		return [3]float64{}, errInvalidTagData
	}
	if string(data[0:4]) != "XYZ " {
		return [3]float64{}, errUnexpectedType
	}
	return getXYZNumber(data, 8), nil
}

// xyYToXYZ converts a CIE xyY chromaticity plus luminance to XYZ.
// X = xY/y, Z = (1-x-y)Y/y; y=0 (degenerate) maps to black.
func xyYToXYZ(x, y, Y float64) [3]float64 {
	if y == 0 {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{
		x * Y / y,
		Y,
		(1 - x - y) * Y / y,
	}
}

// labToXYZ converts Lab to XYZ using the given reference white,
// following the CIE piecewise inverse function with epsilon=216/24389,
// kappa=24389/27.
func labToXYZ(lab []float64, white [3]float64) (X, Y, Z float64) {
	if len(lab) < 3 {
		return 0, 0, 0
	}

	L, a, b := lab[0], lab[1], lab[2]

	fy := (L + 16) / 116
	fx := a/500 + fy
	fz := fy - b/200

	finv := func(t float64) float64 {
		t3 := t * t * t
		if t3 > labEpsilon {
			return t3
		}
		return (116*t - 16) / labKappa
	}

	var yr float64
	if L > labKappa*labEpsilon {
		yr = fy * fy * fy
	} else {
		yr = L / labKappa
	}
	xr := finv(fx)
	zr := finv(fz)

	return xr * white[0], yr * white[1], zr * white[2]
}

// xyzToLab converts XYZ to Lab using the given reference white.
func xyzToLab(X, Y, Z float64, white [3]float64) (L, a, b float64) {
	wx, wy, wz := white[0], white[1], white[2]
	if wx == 0 {
		wx = d50WhitePoint[0]
	}
	if wy == 0 {
		wy = d50WhitePoint[1]
	}
	if wz == 0 {
		wz = d50WhitePoint[2]
	}

	xr := X / wx
	yr := Y / wy
	zr := Z / wz

	f := func(t float64) float64 {
		if t > labEpsilon {
			return math.Cbrt(t)
		}
		return (labKappa*t + 16) / 116
	}

	fx, fy, fz := f(xr), f(yr), f(zr)

	L = 116*fy - 16
	a = 500 * (fx - fy)
	b = 200 * (fy - fz)

	return L, a, b
}

// normaliseLab converts Lab values (L in [0,100], a/b in [-128,127])
// to the normalised [0,1] encoding used inside LUT stages.
func normaliseLab(lab []float64) []float64 {
	if len(lab) < 3 {
		return lab
	}
	return []float64{
		lab[0] / 100.0,
		(lab[1] + 128.0) / 255.0,
		(lab[2] + 128.0) / 255.0,
	}
}

// denormaliseLab is the inverse of normaliseLab.
func denormaliseLab(lab []float64) []float64 {
	if len(lab) < 3 {
		return lab
	}
	return []float64{
		lab[0] * 100.0,
		lab[1]*255.0 - 128.0,
		lab[2]*255.0 - 128.0,
	}
}

// v2LabToV4/v4LabToV2 bridge the ICC v2 and v4 Lab PCS encodings,
// both stored as a 16-bit fraction of full scale. v2 places L=100 and
// a/b=127 at 0xFF00 (so full scale is L≈100.39, a/b≈127.996); v4, the
// encoding produced by normaliseLab/denormaliseLab, places them at
// 0xFFFF. Converting v4 to v2 therefore scales by 65280/65535, and v2
// to v4 by its reciprocal, so a v2 profile can follow a v4 profile (or
// vice versa) in the same chain.
func v2LabToV4(lab []float64) []float64 {
	if len(lab) < 3 {
		return lab
	}
	return []float64{
		lab[0] * (65535.0 / 65280.0),
		lab[1] * (65535.0 / 65280.0),
		lab[2] * (65535.0 / 65280.0),
	}
}

func v4LabToV2(lab []float64) []float64 {
	if len(lab) < 3 {
		return lab
	}
	return []float64{
		lab[0] * (65280.0 / 65535.0),
		lab[1] * (65280.0 / 65535.0),
		lab[2] * (65280.0 / 65535.0),
	}
}

// encodeXYZDevice/decodeXYZDevice implement the ICC XYZNumber device encoding
// convention: 1.0 is represented as 32768/32768, so the usable range
// extends to 1+32767/32768 before clipping.
const xyzEncodeScale = 1.0 + 32767.0/32768.0

func encodeXYZDevice(xyz [3]float64) [3]float64 {
	return [3]float64{xyz[0] / xyzEncodeScale, xyz[1] / xyzEncodeScale, xyz[2] / xyzEncodeScale}
}

func decodeXYZDevice(xyz [3]float64) [3]float64 {
	return [3]float64{xyz[0] * xyzEncodeScale, xyz[1] * xyzEncodeScale, xyz[2] * xyzEncodeScale}
}

// invertMatrix3x3 returns the inverse of a row-major 3x3 matrix, or
// nil if the matrix is singular.
func invertMatrix3x3(m []float64) []float64 {
	if len(m) != 9 {
		return nil
	}

	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return nil
	}

	invDet := 1.0 / det

	return []float64{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}
}

func mulMatrix3x3Vec(m []float64, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func mulMatrix3x3(a, b []float64) []float64 {
	out := make([]float64, 9)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[r*3+k] * b[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}

// bradfordMA is the Bradford cone-response matrix and bradfordMAInv
// its inverse (computed from it), used for chromatic adaptation
// between reference whites.
var bradfordMA = []float64{
	0.8951000, 0.2664000, -0.1614000,
	-0.7502000, 1.7135000, 0.0367000,
	0.0389000, -0.0685000, 1.0296000,
}

var bradfordMAInv = invertMatrix3x3(bradfordMA)

// bradfordAdaptationMatrix computes the 3x3 matrix that chromatically
// adapts XYZ values from the srcWhite illuminant to the dstWhite
// illuminant using the Bradford cone-response model.
func bradfordAdaptationMatrix(srcWhite, dstWhite [3]float64) []float64 {
	srcCone := mulMatrix3x3Vec(bradfordMA, srcWhite)
	dstCone := mulMatrix3x3Vec(bradfordMA, dstWhite)

	scale := []float64{
		ratio(dstCone[0], srcCone[0]), 0, 0,
		0, ratio(dstCone[1], srcCone[1]), 0,
		0, 0, ratio(dstCone[2], srcCone[2]),
	}

	return mulMatrix3x3(mulMatrix3x3(bradfordMAInv, scale), bradfordMA)
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 1
	}
	return a / b
}

// rgbMatrixFromPrimaries synthesizes the 3x3 device-RGB→XYZ matrix
// from the xyY chromaticities of the three primaries and the media
// white point, following the standard construction: build the matrix
// of primary XYZ-from-xyY columns, invert it to get per-primary
// luminance scale factors against the white point, then scale each
// column.
func rgbMatrixFromPrimaries(redXy, greenXy, blueXy [2]float64, white [3]float64) []float64 {
	col := func(xy [2]float64) [3]float64 {
		x, y := xy[0], xy[1]
		return [3]float64{x / y, 1, (1 - x - y) / y}
	}
	r, g, b := col(redXy), col(greenXy), col(blueXy)

	m := []float64{
		r[0], g[0], b[0],
		r[1], g[1], b[1],
		r[2], g[2], b[2],
	}

	mInv := invertMatrix3x3(m)
	if mInv == nil {
		return nil
	}
	s := mulMatrix3x3Vec(mInv, white)

	return []float64{
		m[0] * s[0], m[1] * s[1], m[2] * s[2],
		m[3] * s[0], m[4] * s[1], m[5] * s[2],
		m[6] * s[0], m[7] * s[1], m[8] * s[2],
	}
}

// absoluteScaling returns the per-axis scale factors used for
// absolute colorimetric rendering: mediaWhite / pcsIlluminant.
func absoluteScaling(mediaWhite, pcsIlluminant [3]float64) [3]float64 {
	return [3]float64{
		ratio(mediaWhite[0], pcsIlluminant[0]),
		ratio(mediaWhite[1], pcsIlluminant[1]),
		ratio(mediaWhite[2], pcsIlluminant[2]),
	}
}

func invertScaling(s [3]float64) [3]float64 {
	return [3]float64{ratio(1, s[0]), ratio(1, s[1]), ratio(1, s[2])}
}

func scaleXYZ(xyz [3]float64, s [3]float64) [3]float64 {
	return [3]float64{xyz[0] * s[0], xyz[1] * s[1], xyz[2] * s[2]}
}
