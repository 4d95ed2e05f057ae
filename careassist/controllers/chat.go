// careassist/controllers/chat.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careassist/careassist/services/llm"
	"careassist/careassist/services/sessions"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/logging"
	"careassist/careassist/utils/types"

	"go.uber.org/zap"
)

const inlineErrorFormat = "I apologize, but I encountered an error: %s. Please check your API key in settings and try again."

// ChatController runs one user turn: record it, ask the gateway, record the
// answer (or the failure) in the same session.
type ChatController struct {
	store   *sessions.Store
	gateway *llm.Gateway
}

func NewChatController(store *sessions.Store, gateway *llm.Gateway) *ChatController {
	return &ChatController{store: store, gateway: gateway}
}

// Send posts text to sessionID, or to the selected session when sessionID is
// empty, creating one if nothing is selected.
func (c *ChatController) Send(ctx context.Context, sessionID, text string) (*types.SendResult, error) {
	defer logging.LogDuration(ctx, "chat_controller_send")()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.InvalidInput("message must not be empty")
	}
	credential := c.store.Credential()
	if credential == "" {
		return nil, errs.MissingCredential("API key is required. Please add your Google AI Studio API key in settings.")
	}

	var warnings []error
	if sessionID == "" {
		sessionID = c.store.ActiveSessionID()
	}
	if sessionID == "" {
		id, err := c.store.CreateSession(ctx)
		if err != nil && !errs.IsWarning(err) {
			return nil, err
		}
		warnings = appendWarning(warnings, err)
		sessionID = id
	} else if _, err := c.store.Session(sessionID); err != nil {
		return nil, err
	}

	unlock := c.store.LockSession(sessionID)
	defer unlock()

	if _, err := c.store.AppendUserMessage(ctx, sessionID, text); err != nil {
		if !errs.IsWarning(err) {
			return nil, err
		}
		warnings = appendWarning(warnings, err)
	}

	session, err := c.store.Session(sessionID)
	if err != nil {
		return nil, err
	}

	failed := false
	content, err := c.gateway.Complete(ctx, session.Messages, credential)
	if err != nil {
		failed = true
		content = fmt.Sprintf(inlineErrorFormat, errs.MessageOf(err))
		logging.AppLogger.Info("completion failed, recording inline error",
			zap.String("session_id", sessionID),
			zap.String("kind", string(errs.KindOf(err))),
		)
	}

	// the reply belongs to this session even if the caller went away
	writeCtx := context.WithoutCancel(ctx)
	reply, err := c.store.AppendAssistantMessage(writeCtx, sessionID, content)
	if err != nil {
		if !errs.IsWarning(err) {
			return nil, err
		}
		warnings = appendWarning(warnings, err)
	}

	session, err = c.store.Session(sessionID)
	if err != nil {
		return nil, err
	}
	res := &types.SendResult{
		Session: session,
		Reply:   reply,
		Failed:  failed,
	}
	if w := errors.Join(warnings...); w != nil {
		res.Warning = w.Error()
	}
	return res, nil
}

func appendWarning(warnings []error, err error) []error {
	if err != nil && errs.IsWarning(err) {
		return append(warnings, err)
	}
	return warnings
}
