// Package model holds the value types shared by the workflow services.
package model

// User is the profile document kept for each authenticated identity.
// Its document id equals the identity's uid, so re-provisioning replaces
// rather than duplicates.
type User struct {
	ID       string
	Email    string
	UserName string
	ImageURL string
}

// Chat links participants. Direct chats hold exactly two ids; the group
// flag marks larger rooms. EventID back-links the event the chat belongs to.
type Chat struct {
	ID           string
	Participants []string
	Group        bool
	EventID      string
}

// Message is one entry of a chat's ordered message sub-collection.
// Seq and CreatedAt are assigned by the store on append.
type Message struct {
	ID        string
	ChatID    string
	SenderID  string
	Content   string
	Seq       int64
	CreatedAt int64
}

// Event describes a meetup. The location stays free text; resolved
// coordinates are transient and never written back to the document.
type Event struct {
	ID           string
	Title        string
	Location     string
	Date         string
	WhatsUp      string
	WhosThere    string
	WhatElse     string
	Restrictions string
	ImageURL     string
}

// CandidateLocation is one geocoder match. Ephemeral, never persisted.
type CandidateLocation struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Fields returns the document representation of the user. Field names match
// the hosted "user" collection.
func (u User) Fields() map[string]any {
	return map[string]any{
		"email":    u.Email,
		"userName": u.UserName,
		"image":    u.ImageURL,
	}
}

// UserFromFields rebuilds a user from its document fields.
func UserFromFields(id string, f map[string]any) User {
	return User{
		ID:       id,
		Email:    str(f, "email"),
		UserName: str(f, "userName"),
		ImageURL: str(f, "image"),
	}
}

// Fields returns the document representation of the chat.
func (c Chat) Fields() map[string]any {
	users := make([]any, len(c.Participants))
	for i, p := range c.Participants {
		users[i] = p
	}
	return map[string]any{
		"userList": users,
		"group":    c.Group,
		"eventId":  c.EventID,
	}
}

// ChatFromFields rebuilds a chat from its document fields.
func ChatFromFields(id string, f map[string]any) Chat {
	return Chat{
		ID:           id,
		Participants: strs(f, "userList"),
		Group:        boolean(f, "group"),
		EventID:      str(f, "eventId"),
	}
}

// Fields returns the document representation of the message. Order metadata
// lives on the store entry, not inside the fields.
func (m Message) Fields() map[string]any {
	return map[string]any{
		"content":  m.Content,
		"senderId": m.SenderID,
	}
}

// MessageFromFields rebuilds a message from a sub-collection entry.
func MessageFromFields(chatID, id string, seq, createdAt int64, f map[string]any) Message {
	return Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  str(f, "senderId"),
		Content:   str(f, "content"),
		Seq:       seq,
		CreatedAt: createdAt,
	}
}

// Fields returns the document representation of the event.
func (e Event) Fields() map[string]any {
	return map[string]any{
		"title":        e.Title,
		"location":     e.Location,
		"date":         e.Date,
		"whatsUp":      e.WhatsUp,
		"whosThere":    e.WhosThere,
		"whatElse":     e.WhatElse,
		"restrictions": e.Restrictions,
		"image":        e.ImageURL,
	}
}

// EventFromFields rebuilds an event from its document fields.
func EventFromFields(id string, f map[string]any) Event {
	return Event{
		ID:           id,
		Title:        str(f, "title"),
		Location:     str(f, "location"),
		Date:         str(f, "date"),
		WhatsUp:      str(f, "whatsUp"),
		WhosThere:    str(f, "whosThere"),
		WhatElse:     str(f, "whatElse"),
		Restrictions: str(f, "restrictions"),
		ImageURL:     str(f, "image"),
	}
}

func str(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return s
}

func boolean(f map[string]any, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func strs(f map[string]any, key string) []string {
	raw, ok := f[key].([]any)
	if !ok {
		// Values that never crossed a JSON round-trip keep their Go type.
		if direct, ok := f[key].([]string); ok {
			out := make([]string, len(direct))
			copy(out, direct)
			return out
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
