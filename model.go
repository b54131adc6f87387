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

// Kind classifies a loaded [Profile] for the pipeline compiler. A
// profile that declares RGB space, carries full matrix+TRC tags, and
// has no A2B/B2A table is reclassified RGBMatrix even though its raw
// ColorSpace is RGBSpace in both cases.
type Kind int

const (
	KindUnknown Kind = iota
	KindGray
	KindRGBMatrix
	KindRGBLut
	KindCMYK
	KindLab
	KindDuo
)

func (k Kind) String() string {
	switch k {
	case KindGray:
		return "Gray"
	case KindRGBMatrix:
		return "RGBMatrix"
	case KindRGBLut:
		return "RGBLut"
	case KindCMYK:
		return "CMYK"
	case KindLab:
		return "Lab"
	case KindDuo:
		return "Duo"
	default:
		return "Unknown"
	}
}

// MultiProcessElement records that a v4 floating-point B2D/D2B tag was
// present, without interpreting it. No pipeline stage is ever built
// from this; see the open-question note in DESIGN.md.
type MultiProcessElement struct {
	Tag  TagType
	Data []byte
}

// Profile is the classified, immutable colour model built by [Load]
// or [BuildVirtual] from a decoded [RawProfile]. It is the unit the
// pipeline compiler (Compile) consumes.
type Profile struct {
	Raw *RawProfile // nil for synthesized virtual profiles

	Version    Version
	Class      ProfileClass
	ColorSpace ColorSpace
	PCS        ColorSpace
	Kind       Kind

	PCSIlluminant    [3]float64 // always D50 for valid profiles
	MediaWhitePoint  [3]float64
	OutputChannels   int

	// Gray
	GrayTRC    *Curve
	GrayTRCInv *Curve

	// RGBMatrix / RGBLut share TRCs; only RGBMatrix uses the matrix.
	RGBTRC     [3]*Curve
	RGBTRCInv  [3]*Curve
	RGBXYZ     [3][3]float64 // rXYZ, gXYZ, bXYZ columns as read from tags
	RGBMatrix  []float64     // 3x3 device RGB -> PCS XYZ
	RGBMatrixInv []float64
	IsSRGB     bool

	// LUT-based profiles (RGBLut, CMYK, Duo, and Lab device profiles)
	A2B [3]LUT // index by RenderingIntent (absolute reuses relative)
	B2A [3]LUT

	MPE []MultiProcessElement

	AbsoluteAdaptationIn  [3]float64 // mediaWhite / pcsIlluminant
	AbsoluteAdaptationOut [3]float64 // inverse of the above

	Description string
	Copyright   string

	Loaded    bool
	LoadError *LoadError
}

// Load decodes raw ICC bytes and classifies the result into a
// [Profile]: signature, header, tag table, per-tag decode,
// missing-intent fallback, and RGBLut->RGBMatrix reclassification.
func Load(data []byte) (*Profile, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		if ip, ok := errCause(err).(*InvalidProfileError); ok {
			code := LoadErrorDecode
			if ip.Reason == "profile is too short" {
				code = LoadErrorTooShort
			} else if ip.Reason == "missing 'acsp' signature" {
				code = LoadErrorBadSignature
			}
			return nil, wrapLoadError(code, err)
		}
		return nil, wrapLoadError(LoadErrorDecode, err)
	}
	return buildProfile(raw)
}

func errCause(err error) error {
	type causer interface{ Cause() error }
	for {
		c, ok := err.(causer)
		if !ok {
			return err
		}
		err = c.Cause()
	}
}

func buildProfile(raw *RawProfile) (*Profile, error) {
	if raw.Version>>24 != 2 && raw.Version>>24 != 4 {
		return nil, newLoadError(LoadErrorUnsupportedVersion, "version %s is not v2 or v4", raw.Version)
	}
	if raw.Class == DeviceLinkProfile {
		return nil, newLoadError(LoadErrorUnsupportedClass, "device-link profiles are not supported")
	}
	if raw.PCS != PCSXYZSpace && raw.PCS != PCSLabSpace {
		return nil, newLoadError(LoadErrorUnsupportedPCS, "pcs %s is not XYZ or Lab", raw.PCS)
	}

	p := &Profile{
		Raw:              raw,
		Version:          raw.Version,
		Class:            raw.Class,
		ColorSpace:       raw.ColorSpace,
		PCS:              raw.PCS,
		PCSIlluminant:    d50WhitePoint,
		MediaWhitePoint:  d50WhitePoint,
	}

	if desc, ok := raw.TagData[ProfileDescription]; ok {
		if s, err := decodeText(desc); err == nil {
			p.Description = s
		} else if mluc, err := decodeMLUC(desc); err == nil && len(mluc) > 0 {
			p.Description = mluc.Preferred("en", "US").Value
		}
	}
	if cp, err := raw.Copyright(); err == nil && len(cp) > 0 {
		p.Copyright = cp.Preferred("en", "US").Value
	}

	if wp, ok := raw.TagData[MediaWhitePoint]; ok {
		if xyz, err := parseXYZ(wp); err == nil {
			p.MediaWhitePoint = xyz
		}
	}

	for _, tag := range []TagType{BToD0, BToD1, BToD2, BToD3, DToB0, DToB1, DToB2, DToB3} {
		if data, ok := raw.TagData[tag]; ok {
			p.MPE = append(p.MPE, MultiProcessElement{Tag: tag, Data: data})
		}
	}

	switch raw.ColorSpace {
	case GraySpace:
		p.OutputChannels = 1
		if err := p.loadGray(raw); err != nil {
			return nil, err
		}
	case RGBSpace, CMYSpace:
		p.OutputChannels = 3
		if err := p.loadRGBOrLut(raw); err != nil {
			return nil, err
		}
	case CMYKSpace:
		p.OutputChannels = 4
		p.Kind = KindCMYK
		if err := p.loadLutOnly(raw); err != nil {
			return nil, err
		}
	case CIELabSpace:
		p.OutputChannels = 3
		p.Kind = KindLab
		if err := p.loadLutOnly(raw); err != nil {
			return nil, err
		}
	case Color2Space:
		p.OutputChannels = 2
		p.Kind = KindDuo
		if err := p.loadLutOnly(raw); err != nil {
			return nil, err
		}
	default:
		return nil, newLoadError(LoadErrorUnsupportedColorSpace, "colorspace %s is not supported", raw.ColorSpace)
	}

	p.AbsoluteAdaptationIn = absoluteScaling(p.MediaWhitePoint, p.PCSIlluminant)
	p.AbsoluteAdaptationOut = invertScaling(p.AbsoluteAdaptationIn)

	p.Loaded = true
	return p, nil
}

func (p *Profile) loadGray(raw *RawProfile) error {
	p.Kind = KindGray
	data, ok := raw.TagData[GrayTRC]
	if !ok {
		return newLoadError(LoadErrorDecode, "gray profile missing kTRC tag")
	}
	curve, err := DecodeCurve(data)
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	p.GrayTRC = curve
	p.GrayTRCInv = curve
	return nil
}

// loadRGBOrLut implements the RGBLut->RGBMatrix reclassification: an
// RGB profile with full matrix+TRC tags and no A2B/B2A table is
// RGBMatrix; otherwise it is RGBLut and uses the table path like
// CMYK/Lab/Duo.
func (p *Profile) loadRGBOrLut(raw *RawProfile) error {
	_, hasA2B := firstPresent(raw, AToB0, AToB1, AToB2)
	_, hasB2A := firstPresent(raw, BToA0, BToA1, BToA2)
	hasTables := hasA2B || hasB2A

	_, hasRXYZ := raw.TagData[RedMatrixColumn]
	_, hasGXYZ := raw.TagData[GreenMatrixColumn]
	_, hasBXYZ := raw.TagData[BlueMatrixColumn]
	_, hasRTRC := raw.TagData[RedTRC]
	_, hasGTRC := raw.TagData[GreenTRC]
	_, hasBTRC := raw.TagData[BlueTRC]
	hasMatrixTRC := hasRXYZ && hasGXYZ && hasBXYZ && hasRTRC && hasGTRC && hasBTRC

	if hasMatrixTRC && !hasTables {
		p.Kind = KindRGBMatrix
		return p.loadRGBMatrix(raw)
	}

	p.Kind = KindRGBLut
	return p.loadLutOnly(raw)
}

func (p *Profile) loadRGBMatrix(raw *RawProfile) error {
	rXYZ, err := parseXYZ(raw.TagData[RedMatrixColumn])
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	gXYZ, err := parseXYZ(raw.TagData[GreenMatrixColumn])
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	bXYZ, err := parseXYZ(raw.TagData[BlueMatrixColumn])
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	p.RGBXYZ = [3][3]float64{rXYZ, gXYZ, bXYZ}

	matrix := []float64{
		rXYZ[0], gXYZ[0], bXYZ[0],
		rXYZ[1], gXYZ[1], bXYZ[1],
		rXYZ[2], gXYZ[2], bXYZ[2],
	}

	// An explicit chromatic-adaptation matrix, when present, takes
	// precedence over the raw primaries as-read (which the ICC
	// standard already expects to be D50-relative, but some v4 writers
	// emit an explicit chad to be adapted against).
	if chad, ok := raw.TagData[ChromaticAdaptation]; ok && len(chad) >= 12+9*4 {
		adapt := make([]float64, 9)
		for i := range 9 {
			adapt[i] = getS15Fixed16(chad, 12+i*4)
		}
		matrix = mulMatrix3x3(adapt, matrix)
	}

	p.RGBMatrix = matrix
	p.RGBMatrixInv = invertMatrix3x3(matrix)
	if p.RGBMatrixInv == nil {
		return newLoadError(LoadErrorDecode, "singular RGB matrix")
	}

	rTRC, err := DecodeCurve(raw.TagData[RedTRC])
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	gTRC, err := DecodeCurve(raw.TagData[GreenTRC])
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	bTRC, err := DecodeCurve(raw.TagData[BlueTRC])
	if err != nil {
		return wrapLoadError(LoadErrorDecode, err)
	}
	p.RGBTRC = [3]*Curve{rTRC, gTRC, bTRC}
	p.RGBTRCInv = p.RGBTRC

	return nil
}

// loadLutOnly decodes A2B0..2/B2A0..2, applying the missing-intent
// fallback: perceptual -> relative, saturation -> perceptual. Absolute
// reuses the relative table verbatim; the white-point scaling that
// distinguishes absolute from relative is applied by the pipeline
// compiler, not stored per-table.
func (p *Profile) loadLutOnly(raw *RawProfile) error {
	a2b := [3]TagType{AToB0, AToB1, AToB2}
	b2a := [3]TagType{BToA0, BToA1, BToA2}

	for i, tag := range a2b {
		if data, ok := raw.TagData[tag]; ok {
			lut, err := DecodeLUT(data)
			if err != nil {
				return wrapLoadError(LoadErrorDecode, err)
			}
			p.A2B[i] = lut
		}
	}
	for i, tag := range b2a {
		if data, ok := raw.TagData[tag]; ok {
			lut, err := DecodeLUT(data)
			if err != nil {
				return wrapLoadError(LoadErrorDecode, err)
			}
			p.B2A[i] = lut
		}
	}

	applyIntentFallback(&p.A2B)
	applyIntentFallback(&p.B2A)

	if p.A2B[Perceptual] == nil && p.B2A[Perceptual] == nil {
		return newLoadError(LoadErrorDecode, "profile has no usable A2B/B2A table")
	}
	return nil
}

// applyIntentFallback fills in missing perceptual/saturation slots:
// perceptual -> relative, saturation -> perceptual (after perceptual
// itself has possibly been filled from relative).
func applyIntentFallback(tables *[3]LUT) {
	if tables[Perceptual] == nil && tables[RelativeColorimetric] != nil {
		tables[Perceptual] = tables[RelativeColorimetric]
	}
	if tables[Saturation] == nil {
		if tables[Perceptual] != nil {
			tables[Saturation] = tables[Perceptual]
		} else if tables[RelativeColorimetric] != nil {
			tables[Saturation] = tables[RelativeColorimetric]
		}
	}
}

// a2bForIntent/b2aForIntent resolve absolute to the relative table,
// matching the "absolute reuses relative plus scaling" rule.
func (p *Profile) a2bForIntent(intent RenderingIntent) LUT {
	if intent == AbsoluteColorimetric {
		return p.A2B[RelativeColorimetric]
	}
	return p.A2B[intent]
}

func (p *Profile) b2aForIntent(intent RenderingIntent) LUT {
	if intent == AbsoluteColorimetric {
		return p.B2A[RelativeColorimetric]
	}
	return p.B2A[intent]
}

func firstPresent(raw *RawProfile, tags ...TagType) (TagType, bool) {
	for _, t := range tags {
		if _, ok := raw.TagData[t]; ok {
			return t, true
		}
	}
	return 0, false
}
