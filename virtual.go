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

// VirtualSpace names a well-known RGB or Lab working space that
// [BuildVirtual] can synthesize without reading any bytes. These stand
// in for the real ICC binaries a CMM would normally ship alongside its
// code; here the primaries and transfer curves are built from the
// published chromaticity tables instead.
type VirtualSpace int

const (
	SRGB VirtualSpace = iota
	AdobeRGB1998
	AppleRGB
	ColorMatchRGB
	ProPhotoRGB
	LabD50
	LabD65
)

func (v VirtualSpace) String() string {
	switch v {
	case SRGB:
		return "sRGB"
	case AdobeRGB1998:
		return "Adobe RGB (1998)"
	case AppleRGB:
		return "Apple RGB"
	case ColorMatchRGB:
		return "ColorMatch RGB"
	case ProPhotoRGB:
		return "ProPhoto RGB"
	case LabD50:
		return "Lab D50"
	case LabD65:
		return "Lab D65"
	default:
		return "unknown virtual space"
	}
}

// rgbSpaceDef tabulates the chromaticities a working space is defined
// by, plus how its tone curve is built.
type rgbSpaceDef struct {
	name               string
	red, green, blue   [2]float64 // CIE xy chromaticity
	white              [2]float64 // CIE xy chromaticity of the reference white
	gamma              float64    // simple power curve, used unless sRGBCurve is set
	sRGBCurve          bool       // piecewise sRGB tone curve (IEC 61966-2-1)
}

var rgbSpaceDefs = map[VirtualSpace]rgbSpaceDef{
	SRGB: {
		name:      "sRGB IEC61966-2.1",
		red:       [2]float64{0.6400, 0.3300},
		green:     [2]float64{0.3000, 0.6000},
		blue:      [2]float64{0.1500, 0.0600},
		white:     [2]float64{0.3127, 0.3290}, // D65
		sRGBCurve: true,
	},
	AdobeRGB1998: {
		name:  "Adobe RGB (1998)",
		red:   [2]float64{0.6400, 0.3300},
		green: [2]float64{0.2100, 0.7100},
		blue:  [2]float64{0.1500, 0.0600},
		white: [2]float64{0.3127, 0.3290}, // D65
		gamma: 2.19921875,
	},
	AppleRGB: {
		name:  "Apple RGB",
		red:   [2]float64{0.6250, 0.3400},
		green: [2]float64{0.2800, 0.5950},
		blue:  [2]float64{0.1550, 0.0700},
		white: [2]float64{0.3127, 0.3290}, // D65
		gamma: 1.8,
	},
	ColorMatchRGB: {
		name:  "ColorMatch RGB",
		red:   [2]float64{0.6300, 0.3400},
		green: [2]float64{0.2950, 0.6050},
		blue:  [2]float64{0.1500, 0.0750},
		white: [2]float64{0.3457, 0.3585}, // D50
		gamma: 1.8,
	},
	ProPhotoRGB: {
		name:  "ProPhoto RGB",
		red:   [2]float64{0.7347, 0.2653},
		green: [2]float64{0.1596, 0.8404},
		blue:  [2]float64{0.0366, 0.0001},
		white: [2]float64{0.3457, 0.3585}, // D50
		gamma: 1.8,
	},
}

// d65WhitePoint is the CIE standard illuminant D65 white point in XYZ
// coordinates, used by virtual spaces defined relative to D65 before
// Bradford-adapting them to the D50 PCS.
var d65WhitePoint = [3]float64{0.95047, 1.0, 1.08883}

// sRGBTRC is the IEC 61966-2-1 piecewise tone curve, represented as an
// ICC parametricCurveType function 3: y = (ax+b)^g for x>=d, else y=cx.
func sRGBTRC() *Curve {
	return &Curve{
		FuncType: 3,
		Params: []float64{
			2.4,
			1.0 / 1.055,
			0.055 / 1.055,
			1.0 / 12.92,
			0.04045,
		},
	}
}

// BuildVirtual synthesizes a loaded [Profile] for a well-known working
// space without reading any profile bytes. The resulting Profile has
// Raw == nil and Loaded == true; its RGBMatrix is already adapted to
// the D50 PCS illuminant via Bradford adaptation when the space's
// native white point is not D50.
func BuildVirtual(space VirtualSpace) (*Profile, error) {
	if space == LabD50 {
		return &Profile{
			Version:         currentVersion,
			Class:           ColorSpaceProfile,
			ColorSpace:      CIELabSpace,
			PCS:             PCSLabSpace,
			Kind:            KindLab,
			OutputChannels:  3,
			PCSIlluminant:   d50WhitePoint,
			MediaWhitePoint: d50WhitePoint,
			Description:     space.String(),
			Loaded:          true,

			AbsoluteAdaptationIn:  absoluteScaling(d50WhitePoint, d50WhitePoint),
			AbsoluteAdaptationOut: invertScaling(absoluteScaling(d50WhitePoint, d50WhitePoint)),
		}, nil
	}
	if space == LabD65 {
		return &Profile{
			Version:         currentVersion,
			Class:           ColorSpaceProfile,
			ColorSpace:      CIELabSpace,
			PCS:             PCSLabSpace,
			Kind:            KindLab,
			OutputChannels:  3,
			PCSIlluminant:   d50WhitePoint,
			MediaWhitePoint: d65WhitePoint,
			Description:     space.String(),
			Loaded:          true,

			AbsoluteAdaptationIn:  absoluteScaling(d65WhitePoint, d50WhitePoint),
			AbsoluteAdaptationOut: invertScaling(absoluteScaling(d65WhitePoint, d50WhitePoint)),
		}, nil
	}

	def, ok := rgbSpaceDefs[space]
	if !ok {
		return nil, newLoadError(LoadErrorDecode, "unknown virtual space %d", space)
	}

	nativeWhite := xyYToXYZ(def.white[0], def.white[1], 1.0)
	matrix := rgbMatrixFromPrimaries(def.red, def.green, def.blue, nativeWhite)
	if matrix == nil {
		return nil, newLoadError(LoadErrorDecode, "degenerate primaries for %s", def.name)
	}

	if !closeWhite(nativeWhite, d50WhitePoint) {
		adapt := bradfordAdaptationMatrix(nativeWhite, d50WhitePoint)
		matrix = mulMatrix3x3(adapt, matrix)
	}

	var trc *Curve
	if def.sRGBCurve {
		trc = sRGBTRC()
	} else {
		trc = &Curve{Gamma: def.gamma}
	}

	p := &Profile{
		Version:         currentVersion,
		Class:           ColorSpaceProfile,
		ColorSpace:      RGBSpace,
		PCS:             PCSXYZSpace,
		Kind:            KindRGBMatrix,
		OutputChannels:  3,
		PCSIlluminant:   d50WhitePoint,
		MediaWhitePoint: d50WhitePoint,
		RGBMatrix:       matrix,
		RGBMatrixInv:    invertMatrix3x3(matrix),
		RGBTRC:          [3]*Curve{trc, trc, trc},
		RGBTRCInv:       [3]*Curve{trc, trc, trc},
		IsSRGB:          space == SRGB,
		Description:     def.name,
		Loaded:          true,
	}
	p.AbsoluteAdaptationIn = absoluteScaling(p.MediaWhitePoint, p.PCSIlluminant)
	p.AbsoluteAdaptationOut = invertScaling(p.AbsoluteAdaptationIn)
	return p, nil
}

func closeWhite(a, b [3]float64) bool {
	const eps = 1e-6
	d := a[0] - b[0]
	if d < 0 {
		d = -d
	}
	if d > eps {
		return false
	}
	d = a[1] - b[1]
	if d < 0 {
		d = -d
	}
	if d > eps {
		return false
	}
	d = a[2] - b[2]
	if d < 0 {
		d = -d
	}
	return d <= eps
}
