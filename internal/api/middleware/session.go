// Package middleware carries the per-session state helpers: the admin
// flag set by login and the rolling chat history.
package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
)

const (
	adminKey   = "is_admin"
	historyKey = "chat_history"
)

// HistoryLimit caps the stored chat history at the last 6 entries
// (3 user/assistant exchanges).
const HistoryLimit = 6

// IsAdmin reports the session's admin flag; a fresh or unreadable
// session reads as false.
func IsAdmin(store *session.Store, c *fiber.Ctx) bool {
	sess, err := store.Get(c)
	if err != nil {
		return false
	}
	flag, _ := sess.Get(adminKey).(bool)
	return flag
}

// SetAdmin records a successful admin login on the session.
func SetAdmin(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(adminKey, true)
	return sess.Save()
}

// ClearAdmin drops the admin flag unconditionally.
func ClearAdmin(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	sess.Delete(adminKey)
	return sess.Save()
}

// History returns the session's chat history. The history is stored as
// a JSON string so the session encoder never sees custom types.
func History(store *session.Store, c *fiber.Ctx) []groq.Message {
	sess, err := store.Get(c)
	if err != nil {
		return nil
	}
	raw, _ := sess.Get(historyKey).(string)
	if raw == "" {
		return nil
	}
	var history []groq.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return history
}

// SaveHistory persists the chat history, truncated to the trailing
// HistoryLimit entries.
func SaveHistory(store *session.Store, c *fiber.Ctx, history []groq.Message) error {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(historyKey, string(raw))
	return sess.Save()
}

// ClearHistory forgets the conversation.
func ClearHistory(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	sess.Delete(historyKey)
	return sess.Save()
}
