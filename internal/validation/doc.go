// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built on first use and shared by every
// caller; validator caches struct metadata, so reuse matters on the answer
// path. Field names in errors use the json tag of the field, which keeps
// messages aligned with the request and config documents users write.
//
// # Custom Tags
//
//   - markkey: a persona constrained-entity key, "1" (likes) or "2" (dislikes)
//
// # Usage
//
//	type Request struct {
//	    Question string `json:"question" validate:"required,max=2000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return invalid(verr.Error())
//	}
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use.
package validation
