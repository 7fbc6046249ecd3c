/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Internal error kinds for intent rejections. Clients only ever see the
// message text; the kind exists for logging and tests.
const (
	errValidation    = "validation"
	errAuthorization = "authorization"
	errPhase         = "phase"
	errState         = "state"
	errNotFound      = "not_found"
)

type intentError struct {
	kind    string
	message string
}

func (e *intentError) Error() string {
	return e.kind + ": " + e.message
}

func validationError(message string) *intentError {
	return &intentError{kind: errValidation, message: message}
}

func authorizationError(message string) *intentError {
	return &intentError{kind: errAuthorization, message: message}
}

func phaseError(message string) *intentError {
	return &intentError{kind: errPhase, message: message}
}

func stateError(message string) *intentError {
	return &intentError{kind: errState, message: message}
}

func notFoundError(message string) *intentError {
	return &intentError{kind: errNotFound, message: message}
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
