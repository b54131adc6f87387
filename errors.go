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
	"fmt"

	"github.com/pkg/errors"
)

// LoadErrorCode classifies why a profile failed to load.
type LoadErrorCode int

const (
	LoadErrorUnknown LoadErrorCode = iota
	LoadErrorIO              // the byte source failed to produce data (missing file, HTTP error, ...)
	LoadErrorTooShort         // buffer too short to contain a header
	LoadErrorBadSignature     // missing 'acsp' signature
	LoadErrorUnsupportedPCS
	LoadErrorUnsupportedVersion
	LoadErrorUnsupportedColorSpace
	LoadErrorUnsupportedClass
	LoadErrorDecode // a tag failed to decode
)

func (c LoadErrorCode) String() string {
	switch c {
	case LoadErrorIO:
		return "io"
	case LoadErrorTooShort:
		return "too-short"
	case LoadErrorBadSignature:
		return "bad-signature"
	case LoadErrorUnsupportedPCS:
		return "unsupported-pcs"
	case LoadErrorUnsupportedVersion:
		return "unsupported-version"
	case LoadErrorUnsupportedColorSpace:
		return "unsupported-colorspace"
	case LoadErrorUnsupportedClass:
		return "unsupported-class"
	case LoadErrorDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// LoadError reports why [Load] could not produce a usable [Profile].
// A profile that failed to load is never returned as loaded=true; the
// caller instead receives this error, and (when inspecting a
// best-effort partial profile is useful) the zero-value Profile with
// LoadError set is not exposed — callers check the error instead.
type LoadError struct {
	Code LoadErrorCode
	Text string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("icc: load error (%s): %s", e.Code, e.Text)
}

func newLoadError(code LoadErrorCode, format string, args ...any) error {
	return errors.WithStack(&LoadError{Code: code, Text: fmt.Sprintf(format, args...)})
}

// wrapLoadError converts a lower-level decode error (e.g. InvalidProfileError
// or a curve/LUT decode error) into a LoadError whose Text is the
// underlying error's message. The original error value is not kept, so
// errors.Cause and errors.As find only the LoadError.
func wrapLoadError(code LoadErrorCode, cause error) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&LoadError{Code: code, Text: errors.Cause(cause).Error()})
}

// PipelineErrorCode classifies why [Compile] rejected a chain.
type PipelineErrorCode int

const (
	PipelineErrorUnknown PipelineErrorCode = iota
	PipelineErrorNotLoaded
	PipelineErrorNotAProfile
	PipelineErrorMissingVirtualPrefix
	PipelineErrorChainTooShort
	PipelineErrorWrongTerminator
	PipelineErrorIntentNotNumeric
	PipelineErrorIntentOutOfRange
	PipelineErrorOddLength
)

func (c PipelineErrorCode) String() string {
	switch c {
	case PipelineErrorNotLoaded:
		return "profile-not-loaded"
	case PipelineErrorNotAProfile:
		return "not-a-profile"
	case PipelineErrorMissingVirtualPrefix:
		return "missing-virtual-prefix"
	case PipelineErrorChainTooShort:
		return "chain-too-short"
	case PipelineErrorWrongTerminator:
		return "wrong-terminator"
	case PipelineErrorIntentNotNumeric:
		return "intent-not-numeric"
	case PipelineErrorIntentOutOfRange:
		return "intent-out-of-range"
	case PipelineErrorOddLength:
		return "odd-length-chain"
	default:
		return "unknown"
	}
}

// PipelineError reports why [Compile] rejected a chain. Compilation is
// total or rejects outright; Compile returns a PipelineError
// synchronously and Eval calls never return one. [Pipeline.BuildAccelerator]
// and [Pipeline.TransformArray] also return a PipelineError when an
// accelerator cannot be built or has not been built.
type PipelineError struct {
	Code PipelineErrorCode
	Text string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("icc: pipeline error (%s): %s", e.Code, e.Text)
}

func newPipelineError(code PipelineErrorCode, format string, args ...any) error {
	return errors.WithStack(&PipelineError{Code: code, Text: fmt.Sprintf(format, args...)})
}

// TransformErrorCode classifies why Eval rejected an input vector.
type TransformErrorCode int

const (
	TransformErrorUnknown TransformErrorCode = iota
	TransformErrorTypeMismatch
	TransformErrorWrongChannelCount
)

// TransformError is raised from the first offending per-pixel call;
// no partial output is produced by the evaluator in that case.
type TransformError struct {
	Code TransformErrorCode
	Text string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("icc: transform error: %s", e.Text)
}

func newTransformError(code TransformErrorCode, format string, args ...any) error {
	return errors.WithStack(&TransformError{Code: code, Text: fmt.Sprintf(format, args...)})
}
