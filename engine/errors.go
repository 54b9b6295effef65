// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"

	"github.com/wavetermdev/undertow/vdom"
)

const (
	ErrCode_MultiRoot    = "multiroot"
	ErrCode_InvalidModel = "invalidmodel"
	ErrCode_Unresolved   = "unresolved"
	ErrCode_RenderPanic  = "render-panic"
	ErrCode_Markup       = "markup"
	ErrCode_Config       = "config"
)

var ErrUnresolvedNode = errors.New("virtual node has no live counterpart")

// RenderError is every error the engine hands back. Code classifies the
// failure; Stage is the pipeline stage it surfaced in ("" outside a render).
type RenderError struct {
	Code     string
	Stage    string
	TargetId string
	Err      error
}

func (e *RenderError) Error() string {
	if e.Stage == "" {
		if e.TargetId == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("component %q: %v", e.TargetId, e.Err)
	}
	return fmt.Sprintf("render %q failed in %s [%s]: %v", e.TargetId, e.Stage, e.Code, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrorCode is the code of the outermost RenderError in err's chain, "" if none.
func ErrorCode(err error) string {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// ErrorStage is the pipeline stage a render error surfaced in.
func ErrorStage(err error) string {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Stage
	}
	return ""
}

func codedError(code string, targetId string, err error) error {
	return &RenderError{Code: code, TargetId: targetId, Err: err}
}

func configErrorf(targetId string, format string, args ...any) error {
	return codedError(ErrCode_Config, targetId, fmt.Errorf(format, args...))
}

// stageError attaches the failing stage to err. The code is taken from the
// error the stage returned; markup errors from vdom are classified here.
func stageError(stage string, targetId string, err error) error {
	code := ErrorCode(err)
	if code == "" && errors.Is(err, vdom.ErrInvalidMarkup) {
		code = ErrCode_Markup
	}
	var re *RenderError
	if errors.As(err, &re) && re.Stage == "" {
		// do not repeat the target in the message
		err = re.Err
	}
	return &RenderError{Code: code, Stage: stage, TargetId: targetId, Err: err}
}

// MultiRootRenderError is returned when a render function does not produce
// exactly one root element.
type MultiRootRenderError struct {
	TargetId string
	Count    int
	NonElem  bool // the single root was text or a comment
}

func (e *MultiRootRenderError) Error() string {
	if e.NonElem {
		return fmt.Sprintf("render %q: root node is not an element", e.TargetId)
	}
	return fmt.Sprintf("render %q: expected exactly one root node, got %d", e.TargetId, e.Count)
}

// InvalidModelTypeError is returned by NewComponent when a model does not
// implement state.Observable or is a nil pointer.
type InvalidModelTypeError struct {
	Index int
	Type  string
	Nil   bool
}

func (e *InvalidModelTypeError) Error() string {
	if e.Nil {
		return fmt.Sprintf("model %d (%s) is nil", e.Index, e.Type)
	}
	return fmt.Sprintf("model %d (%s) is not observable", e.Index, e.Type)
}

func unresolvedError(format string, args ...any) error {
	return codedError(ErrCode_Unresolved, "", fmt.Errorf("%w: %s", ErrUnresolvedNode, fmt.Sprintf(format, args...)))
}
