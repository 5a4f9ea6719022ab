package provd

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"confd/internal/devicecfg"
)

const configsPath = "/cfg_mgr/configs"

// AutoprovParent is the config new and reset devices inherit from.
const AutoprovParent = "autoprov"

type configBody struct {
	Config any `json:"config"`
}

type idBody struct {
	ID string `json:"id"`
}

func configPath(id string) string { return configsPath + "/" + url.PathEscape(id) }

// GetConfig returns the stored config, or nil when provd does not know it.
func (c *Client) GetConfig(ctx context.Context, id string) (map[string]any, error) {
	var out struct {
		Config map[string]any `json:"config"`
	}
	err := c.do(ctx, "config_get", http.MethodGet, configPath(id), nil, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Config, nil
}

// UpsertConfig replaces the config with the envelope's id, creating it when
// provd does not have it yet.
func (c *Client) UpsertConfig(ctx context.Context, env *devicecfg.Envelope) error {
	err := c.do(ctx, "config_update", http.MethodPut, configPath(env.ID), configBody{Config: env}, nil)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return c.do(ctx, "config_create", http.MethodPost, configsPath, configBody{Config: env}, nil)
}

// DeleteConfig removes a config; a missing one is not an error.
func (c *Client) DeleteConfig(ctx context.Context, id string) error {
	err := c.do(ctx, "config_delete", http.MethodDelete, configPath(id), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// createAutoprovConfig stores a transient config inheriting from autoprov and
// returns the id provd gave it.
func (c *Client) createAutoprovConfig(ctx context.Context) (string, error) {
	cfg := map[string]any{
		"parent_ids": []string{AutoprovParent},
		"raw_config": map[string]any{},
		"transient":  true,
	}
	var out idBody
	if err := c.do(ctx, "config_create", http.MethodPost, configsPath, configBody{Config: cfg}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
