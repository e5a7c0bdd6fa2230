package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"TianHe-LiveSim/model"
)

// EncodeEntry 生成进房链接
func EncodeEntry(base string, p model.EntryParams) (string, error) {
	if err := validateEntry(p); err != nil {
		return "", err
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidEntry, err)
	}

	q := u.Query()
	q.Set("room", p.RoomID)
	q.Set("mode", string(p.Mode))
	if p.Streamer != nil {
		data, err := json.Marshal(p.Streamer)
		if err != nil {
			return "", err
		}
		q.Set("payload", base64.RawURLEncoding.EncodeToString(data))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeEntry 解析进房链接
func DecodeEntry(raw string) (model.EntryParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return model.EntryParams{}, fmt.Errorf("%w: %v", model.ErrInvalidEntry, err)
	}

	q := u.Query()
	p := model.EntryParams{
		RoomID: strings.TrimSpace(q.Get("room")),
		Mode:   model.Mode(q.Get("mode")),
	}
	if p.Mode == "" {
		p.Mode = model.ModeHost
	}

	if payload := q.Get("payload"); payload != "" {
		data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return model.EntryParams{}, fmt.Errorf("%w: payload encoding: %v", model.ErrInvalidEntry, err)
		}
		var streamer model.StreamerPayload
		if err := json.Unmarshal(data, &streamer); err != nil {
			return model.EntryParams{}, fmt.Errorf("%w: payload json: %v", model.ErrInvalidEntry, err)
		}
		p.Streamer = &streamer
	}

	if err := validateEntry(p); err != nil {
		return model.EntryParams{}, err
	}
	return p, nil
}

func validateEntry(p model.EntryParams) error {
	if p.RoomID == "" {
		return fmt.Errorf("%w: room id required", model.ErrInvalidEntry)
	}
	switch p.Mode {
	case model.ModeHost:
	case model.ModeWatch:
		if p.Streamer == nil {
			return fmt.Errorf("%w: watch mode requires streamer payload", model.ErrInvalidEntry)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", model.ErrInvalidEntry, p.Mode)
	}
	return nil
}
