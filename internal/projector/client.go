package projector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/icholy/digest"
)

// Power property values reported by the control surface.
const (
	PowerOn    = "ON"
	PowerOff   = "OFF"
	PowerInit  = "INIT"
	PowerError = "ERR"
)

const requestTimeout = 10 * time.Second

// Client talks to a projector's REST control surface with digest auth.
type Client struct {
	address string
	http    *http.Client
}

func NewClient(address, username, password string) *Client {
	return &Client{
		address: address,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &digest.Transport{
				Username: username,
				Password: password,
			},
		},
	}
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) url(resource string) string {
	return fmt.Sprintf("http://%s/lighting/api/v01/pj/%s", c.address, resource)
}

func (c *Client) get(resource string, out any) error {
	resp, err := c.http.Get(c.url(resource))
	if err != nil {
		return fmt.Errorf("projector %s: get %s: %w", c.address, resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("projector %s: get %s: unexpected status %d", c.address, resource, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("projector %s: get %s: decoding response: %w", c.address, resource, err)
	}
	return nil
}

func (c *Client) put(resource string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("projector %s: put %s: encoding body: %w", c.address, resource, err)
	}

	req, err := http.NewRequest(http.MethodPut, c.url(resource), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("projector %s: put %s: %w", c.address, resource, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("projector %s: put %s: %w", c.address, resource, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("projector %s: put %s: unexpected status %d", c.address, resource, resp.StatusCode)
	}
	return nil
}

// Power returns the current power property (ON, OFF, INIT or ERR).
func (c *Client) Power() (string, error) {
	var v struct {
		Power string `json:"power"`
	}
	if err := c.get("power", &v); err != nil {
		return "", err
	}
	return v.Power, nil
}

func (c *Client) SetPower(state string) error {
	return c.put("power", map[string]string{"power": state})
}

func (c *Client) Mute() (string, error) {
	var v struct {
		Mute string `json:"mute"`
	}
	if err := c.get("mute", &v); err != nil {
		return "", err
	}
	return v.Mute, nil
}

func (c *Client) SetMute(state string) error {
	return c.put("mute", map[string]string{"mute": state})
}

func (c *Client) Volume() (int, error) {
	var v struct {
		Volume int `json:"volume"`
	}
	if err := c.get("volume", &v); err != nil {
		return 0, err
	}
	return v.Volume, nil
}

func (c *Client) SetVolume(level int) error {
	if level < 0 || level > 20 {
		return fmt.Errorf("projector %s: volume %d out of range 0-20", c.address, level)
	}
	return c.put("volume", map[string]int{"volume": level})
}

func (c *Client) Input() (string, error) {
	var v struct {
		Input string `json:"input"`
	}
	if err := c.get("input", &v); err != nil {
		return "", err
	}
	return v.Input, nil
}

func (c *Client) SetInput(source string) error {
	return c.put("input", map[string]string{"input": source})
}
