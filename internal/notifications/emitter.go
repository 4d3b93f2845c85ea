package notifications

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
)

// Message keys double as the English templates.
const (
	msgCreated    = "New request %s from %s"
	msgProcessing = "Request %s is now being processed"
	msgCompleted  = "Request %s has been completed"
	msgRejected   = "Request %s was rejected: %s"
	msgWaiting    = "Request %s is on hold"
	msgUpdated    = "Request %s was updated"
	msgNoReason   = "No reason specified"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		msgCreated:    msgCreated,
		msgProcessing: msgProcessing,
		msgCompleted:  msgCompleted,
		msgRejected:   msgRejected,
		msgWaiting:    msgWaiting,
		msgUpdated:    msgUpdated,
		msgNoReason:   msgNoReason,
	},
	language.Italian: {
		msgCreated:    "Nuova richiesta %s da %s",
		msgProcessing: "Richiesta %s è ora in lavorazione",
		msgCompleted:  "Richiesta %s è stata completata",
		msgRejected:   "Richiesta %s è stata rifiutata: %s",
		msgWaiting:    "Richiesta %s è in attesa",
		msgUpdated:    "Richiesta %s è stata aggiornata",
		msgNoReason:   "Nessun motivo specificato",
	},
}

// SupportedLocales lists the locales the emitter can render.
func SupportedLocales() []string {
	return []string{"en", "it"}
}

// Emitter maps request lifecycle events to notification drafts. It is pure:
// the same request and status always yield the same type and message.
type Emitter struct {
	tag     language.Tag
	catalog catalog.Catalog
}

// NewEmitter builds an emitter rendering messages in locale ("en" or "it").
func NewEmitter(locale string) (*Emitter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse notification locale %q: %w", locale, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		tag = language.English
	case "it":
		tag = language.Italian
	default:
		return nil, fmt.Errorf("unsupported notification locale %q", locale)
	}

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for lang, entries := range translations {
		for key, text := range entries {
			if err := builder.SetString(lang, key, text); err != nil {
				return nil, fmt.Errorf("register %s message: %w", lang, err)
			}
		}
	}
	return &Emitter{tag: tag, catalog: builder}, nil
}

// Locale reports the language messages are rendered in.
func (e *Emitter) Locale() string {
	return e.tag.String()
}

// ForCreation is the draft announcing a new request.
func (e *Emitter) ForCreation(req models.PaintRequest) models.Notification {
	return e.draft(req, enums.NotificationTypeInfo, e.printer().Sprintf(msgCreated, req.RequestCode, req.OriginStation))
}

// ForEvent is the draft for req having moved to status. reason is only used
// for rejections; blank falls back to the localized "no reason" text.
func (e *Emitter) ForEvent(req models.PaintRequest, status enums.RequestStatus, reason string) models.Notification {
	p := e.printer()
	switch status {
	case enums.RequestStatusProcessing:
		return e.draft(req, enums.NotificationTypeInfo, p.Sprintf(msgProcessing, req.RequestCode))
	case enums.RequestStatusCompleted:
		return e.draft(req, enums.NotificationTypeSuccess, p.Sprintf(msgCompleted, req.RequestCode))
	case enums.RequestStatusRejected:
		reason = strings.TrimSpace(reason)
		if reason == "" || reason == msgNoReason {
			reason = p.Sprintf(msgNoReason)
		}
		return e.draft(req, enums.NotificationTypeError, p.Sprintf(msgRejected, req.RequestCode, reason))
	case enums.RequestStatusWaiting:
		return e.draft(req, enums.NotificationTypeWarning, p.Sprintf(msgWaiting, req.RequestCode))
	default:
		return e.draft(req, enums.NotificationTypeInfo, p.Sprintf(msgUpdated, req.RequestCode))
	}
}

func (e *Emitter) printer() *message.Printer {
	return message.NewPrinter(e.tag, message.Catalog(e.catalog))
}

func (e *Emitter) draft(req models.PaintRequest, kind enums.NotificationType, text string) models.Notification {
	requestID := req.ID
	return models.Notification{
		UserID:    req.UserID,
		RequestID: &requestID,
		Message:   text,
		Type:      kind,
	}
}
