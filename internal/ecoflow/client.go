// Package ecoflow talks to the EcoFlow developer cloud API for a single
// smart plug. Only the quota/all endpoint is used; it returns the full
// electrical state of the device as a flat key/value map.
package ecoflow

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DeviceReading is the raw extraction from one quota/all response.
// Watts are still in deciwatts here; descaling happens at normalization.
type DeviceReading struct {
	SN         string
	SwitchOn   bool
	Country    string
	Town       string
	Voltage    float64
	Current    float64
	RawWatts   float64
	UpdateTime time.Time
}

// Quota keys published by the smart plug module (module id 2_1).
const (
	keySwitch     = "2_1.switchSta"
	keyVolt       = "2_1.volt"
	keyCurrent    = "2_1.current"
	keyWatts      = "2_1.watts"
	keyUpdateTime = "2_1.updateTime"
	keyCountry    = "2_1.country"
	keyTown       = "2_1.town"
)

type Client struct {
	base      string
	accessKey string
	secretKey string
	sn        string
	h         *http.Client
}

func New(base, accessKey, secretKey, sn string) *Client {
	return &Client{
		base:      strings.TrimRight(base, "/"),
		accessKey: accessKey,
		secretKey: secretKey,
		sn:        sn,
		h:         &http.Client{Timeout: 10 * time.Second},
	}
}

type envelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// QuotaAll fetches the current device quota map and extracts the
// electrical fields. A missing electrical field means the payload is
// malformed and the whole reading is rejected.
func (c *Client) QuotaAll(ctx context.Context) (DeviceReading, error) {
	var out DeviceReading

	u, err := url.Parse(c.base + "/iot-open/sign/device/quota/all")
	if err != nil {
		return out, err
	}
	q := u.Query()
	q.Set("sn", c.sn)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return out, err
	}
	nonce := strconv.Itoa(100000 + rand.Intn(900000))
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("accessKey", c.accessKey)
	req.Header.Set("nonce", nonce)
	req.Header.Set("timestamp", ts)
	req.Header.Set("sign", c.sign(map[string]string{
		"sn":        c.sn,
		"accessKey": c.accessKey,
		"nonce":     nonce,
		"timestamp": ts,
	}))

	resp, err := c.h.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return out, fmt.Errorf("ecoflow %s returned %d: %s", u.Path, resp.StatusCode, string(b))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return out, fmt.Errorf("decode quota response: %w", err)
	}
	if env.Code != "0" {
		return out, fmt.Errorf("ecoflow api code %s: %s", env.Code, env.Message)
	}
	if env.Data == nil {
		return out, fmt.Errorf("quota response without data")
	}
	return c.extract(env.Data)
}

// extract pulls the plug's electrical state out of the loose-typed quota
// map. Location fields are optional; electrical fields are not.
func (c *Client) extract(data map[string]any) (DeviceReading, error) {
	var out DeviceReading
	out.SN = c.sn

	sw, err := toFloat(data[keySwitch])
	if err != nil {
		return out, fmt.Errorf("invalid %s: %v", keySwitch, err)
	}
	out.SwitchOn = sw != 0

	out.Voltage, err = toFloat(data[keyVolt])
	if err != nil {
		return out, fmt.Errorf("invalid %s: %v", keyVolt, err)
	}
	out.Current, err = toFloat(data[keyCurrent])
	if err != nil {
		return out, fmt.Errorf("invalid %s: %v", keyCurrent, err)
	}
	out.RawWatts, err = toFloat(data[keyWatts])
	if err != nil {
		return out, fmt.Errorf("invalid %s: %v", keyWatts, err)
	}
	out.UpdateTime, err = toTime(data[keyUpdateTime])
	if err != nil || out.UpdateTime.IsZero() {
		return out, fmt.Errorf("invalid %s: %v", keyUpdateTime, err)
	}

	if v, err := toString(data[keyCountry]); err == nil {
		out.Country = v
	}
	if v, err := toString(data[keyTown]); err == nil {
		out.Town = v
	}
	return out, nil
}

// sign computes the EcoFlow developer signature: HMAC-SHA256 over the
// key-sorted flattened parameter string, hex encoded.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// deviceTimeLayout is the plug's native updateTime representation.
const deviceTimeLayout = "2006-01-02 15:04:05"

// toString converts v to string if possible.
func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case fmt.Stringer:
		return strings.TrimSpace(t.String()), nil
	case float64:
		return strings.TrimSpace(strconv.FormatInt(int64(t), 10)), nil
	case nil:
		return "", fmt.Errorf("missing")
	default:
		b, _ := json.Marshal(t)
		return string(b), nil
	}
}

// toFloat converts v to float64 if possible.
func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("cannot parse float from %T", v)
	}
}

// toTime converts v to time.Time if possible. The device's native
// "2006-01-02 15:04:05" layout is tried first; RFC3339 and unix
// seconds/milliseconds are tolerated as fallbacks.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(deviceTimeLayout, strings.TrimSpace(t)); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, nil
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			if n > 1_000_000_000_000 { // likely ms
				return time.Unix(0, n*int64(time.Millisecond)), nil
			}
			return time.Unix(n, 0), nil
		}
		return time.Time{}, fmt.Errorf("bad timestamp string: %q", t)
	case float64:
		n := int64(t)
		if n > 1_000_000_000_000 { // ms
			return time.Unix(0, n*int64(time.Millisecond)), nil
		}
		return time.Unix(n, 0), nil
	case int64:
		if t > 1_000_000_000_000 {
			return time.Unix(0, t*int64(time.Millisecond)), nil
		}
		return time.Unix(t, 0), nil
	default:
		return time.Time{}, fmt.Errorf("cannot parse time from %T", v)
	}
}
