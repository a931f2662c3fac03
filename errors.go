// errors.go: Error codes for the vexil binding engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vexil

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes returned by registration, parsing and binding.
//
// Registration codes (duplicate name, unsupported type, non-static field, hook
// signature, invalid argument) describe programming errors in flag declarations.
// Parse codes describe user input and are safe to print next to the help text.
const (
	ErrCodeDuplicateFlag         = "VEXIL_DUPLICATE_FLAG"
	ErrCodeUnsupportedFieldType  = "VEXIL_UNSUPPORTED_FIELD_TYPE"
	ErrCodeNonStaticField        = "VEXIL_NON_STATIC_FIELD"
	ErrCodeInvalidHookSignature  = "VEXIL_INVALID_HOOK_SIGNATURE"
	ErrCodeInvalidArgument       = "VEXIL_INVALID_ARGUMENT"
	ErrCodePropertiesFileIO      = "VEXIL_PROPERTIES_FILE_IO"
	ErrCodeInvalidPropertiesFile = "VEXIL_INVALID_PROPERTIES_FILE"
	ErrCodeMissingRequiredFlag   = "VEXIL_MISSING_REQUIRED_FLAG"
	ErrCodeInvalidEnumValue      = "VEXIL_INVALID_ENUM_VALUE"
	ErrCodeInvalidFlagValue      = "VEXIL_INVALID_FLAG_VALUE"
	ErrCodeUnknownFlag           = "VEXIL_UNKNOWN_FLAG"
	ErrCodeMissingFlagValue      = "VEXIL_MISSING_FLAG_VALUE"
	ErrCodeReflectionAccess      = "VEXIL_REFLECTION_ACCESS"
	ErrCodePostConstruct         = "VEXIL_POST_CONSTRUCT"
	ErrCodeSecretResolution      = "VEXIL_SECRET_RESOLUTION"
	ErrCodeAlreadyParsed         = "VEXIL_ALREADY_PARSED"
	ErrCodeAudit                 = "VEXIL_AUDIT"
)

// ErrorCode returns the code of the outermost coded error in err's chain,
// or "" when err carries no code.
func ErrorCode(err error) string {
	for e := err; e != nil; e = goerrors.Unwrap(e) {
		if coder, ok := e.(errors.ErrorCoder); ok {
			return string(coder.ErrorCode())
		}
	}
	return ""
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code string) bool {
	for e := err; e != nil; e = goerrors.Unwrap(e) {
		if coder, ok := e.(errors.ErrorCoder); ok && string(coder.ErrorCode()) == code {
			return true
		}
	}
	return false
}

// IsUserError reports whether err was caused by user input (arguments,
// properties files, secret references) rather than by flag declarations.
func IsUserError(err error) bool {
	switch ErrorCode(err) {
	case ErrCodePropertiesFileIO, ErrCodeInvalidPropertiesFile, ErrCodeMissingRequiredFlag,
		ErrCodeInvalidEnumValue, ErrCodeInvalidFlagValue, ErrCodeUnknownFlag,
		ErrCodeMissingFlagValue, ErrCodeSecretResolution:
		return true
	}
	return false
}
