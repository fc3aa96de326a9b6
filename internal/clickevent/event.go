// Package clickevent is the Pub/Sub payload for a click on one item.
package clickevent

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

const AttrUID = "uid"

var ErrNoUID = errors.New("click event has no uid")

type Click struct {
	UID string    `json:"uid"`
	At  time.Time `json:"at"`
}

func NewMessage(c Click) (*pubsub.Message, error) {
	if c.UID == "" {
		return nil, ErrNoUID
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return &pubsub.Message{
		Data:       b,
		Attributes: map[string]string{AttrUID: c.UID},
	}, nil
}

// Decode reads a click from message data, falling back to the uid attribute
// for publishers that send an empty body.
func Decode(data []byte, attrs map[string]string) (Click, error) {
	var c Click
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c); err != nil {
			return Click{}, fmt.Errorf("json.Unmarshal: %w", err)
		}
	}
	if c.UID == "" {
		c.UID = attrs[AttrUID]
	}
	if c.UID == "" {
		return Click{}, ErrNoUID
	}
	return c, nil
}
