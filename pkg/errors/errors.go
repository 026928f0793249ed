// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package errors

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSchemaFetchInvalidInput    Code = "schema.fetch.invalid_input"
	CodeSchemaFetchUpstreamFailure Code = "schema.fetch.upstream.failure"
	CodeSchemaFetchTimeout         Code = "schema.fetch.timeout"
	CodeSchemaWriteFailure         Code = "schema.write.failure"
	CodeSchemaReadFailure          Code = "schema.read.failure"
	CodeSchemaDocumentInvalid      Code = "schema.document.invalid"

	CodeGeneratorInvalidInput    Code = "generator.invalid_input"
	CodeGeneratorWorkdirFailure  Code = "generator.workdir.failure"
	CodeGeneratorRunFailure      Code = "generator.run.failure"
	CodeGeneratorRunTimeout      Code = "generator.run.timeout"
	CodeGeneratorCleanupFailure  Code = "generator.cleanup.failure"
	CodeInstallLayoutUnexpected  Code = "install.layout.unexpected"
	CodeInstallCopyFailure       Code = "install.copy.failure"
	CodeInstallPruneFailure      Code = "install.prune.failure"
	CodeInstallDestinationFailed Code = "install.destination.failure"

	CodeCLISetupFailure    Code = "cli.setup.failure"
	CodeCLIInputInvalid    Code = "cli.input.invalid"
	CodeCLIInternalFailure Code = "cli.internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldPath(value string) Attr {
	return Field("path", value)
}

func FieldURL(value string) Attr {
	return Field("url", value)
}

func FieldRunID(value string) Attr {
	return Field("run_id", value)
}

func FieldExitCode(value int) Attr {
	return Field("exit_code", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeCLIInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// HasArea reports whether the error code belongs to the given area, the
// first dotted segment of a code ("schema", "generator", "install").
func HasArea(err error, area string) bool {
	code := string(CodeOf(err))
	if code == "" {
		return false
	}
	head, _, _ := strings.Cut(code, ".")
	return head == area
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// ExitCode maps an error to the process exit status. A nil error exits 0;
// every failure that reaches the command boundary exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
