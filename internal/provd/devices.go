package provd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const devicesPath = "/dev_mgr/devices"

type deviceBody struct {
	Device map[string]any `json:"device"`
}

func devicePath(id string) string { return devicesPath + "/" + url.PathEscape(id) }

// GetDevice returns the provd device document, or nil when it does not exist.
func (c *Client) GetDevice(ctx context.Context, id string) (map[string]any, error) {
	var out deviceBody
	err := c.do(ctx, "device_get", http.MethodGet, devicePath(id), nil, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Device, nil
}

func (c *Client) UpdateDevice(ctx context.Context, id string, dev map[string]any) error {
	return c.do(ctx, "device_update", http.MethodPut, devicePath(id), deviceBody{Device: dev}, nil)
}

// SetDeviceConfig points the device at configID, keeping its other fields.
func (c *Client) SetDeviceConfig(ctx context.Context, deviceID, configID string) error {
	dev, err := c.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if dev == nil {
		return fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	if dev["config"] == configID {
		return nil
	}
	dev["config"] = configID
	return c.UpdateDevice(ctx, deviceID, dev)
}

// ResetAutoprov moves the device back to autoprovisioning mode: it gets a fresh
// transient autoprov config and loses its provisioning options.
func (c *Client) ResetAutoprov(ctx context.Context, deviceID string) error {
	dev, err := c.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if dev == nil {
		return fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	cfgID, err := c.createAutoprovConfig(ctx)
	if err != nil {
		return err
	}
	dev["config"] = cfgID
	delete(dev, "options")
	return c.UpdateDevice(ctx, deviceID, dev)
}
