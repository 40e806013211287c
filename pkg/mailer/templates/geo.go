package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata" // worker images may ship without zoneinfo
)

// Geo is an IP lookup result
type Geo struct {
	City     string
	Region   string // state/province
	Country  string
	Timezone string
}

type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (Geo, error)
}

func FormatGeo(g Geo) string {
	var parts []string
	if s := strings.TrimSpace(g.City); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(g.Region); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(g.Country); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// IPAPIResolver resolves IPs through the ip-api.com JSON endpoint.
// Private and loopback addresses are never sent out.
type IPAPIResolver struct {
	Client  *http.Client
	BaseURL string // defaults to http://ip-api.com
}

func (r IPAPIResolver) Lookup(ctx context.Context, ip string) (Geo, error) {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return Geo{}, fmt.Errorf("geo: invalid ip %q", ip)
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() {
		return Geo{}, fmt.Errorf("geo: %s is not routable", addr)
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	base := r.BaseURL
	if base == "" {
		base = "http://ip-api.com"
	}

	url := fmt.Sprintf("%s/json/%s?fields=status,message,country,regionName,city,timezone", strings.TrimRight(base, "/"), addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Geo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Geo{}, fmt.Errorf("geo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
		Timezone   string `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Geo{}, fmt.Errorf("geo: decode: %w", err)
	}
	if !strings.EqualFold(body.Status, "success") {
		return Geo{}, fmt.Errorf("geo: lookup failed: %s", body.Message)
	}
	return Geo{City: body.City, Region: body.RegionName, Country: body.Country, Timezone: body.Timezone}, nil
}

// LocalizeTimes rewrites ExpiresAtText and Time in the recipient's timezone
// when the job carries an IP that resolves.
func LocalizeTimes(ctx context.Context, r GeoResolver, data map[string]any) {
	ip := strings.TrimSpace(fmt.Sprintf("%v", data["IP"]))
	if r == nil || ip == "" || ip == "<nil>" {
		return
	}
	g, err := r.Lookup(ctx, ip)
	if err != nil || strings.TrimSpace(g.Timezone) == "" {
		return
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return
	}
	if t, ok := parseTime(data["ExpiresAt"]); ok {
		data["ExpiresAtText"] = t.In(loc).Format("02 January 2006, 15:04 MST")
	}
	if t, ok := parseTime(data["TimeAt"]); ok {
		data["Time"] = t.In(loc).Format("02 January 2006, 15:04 MST")
	}
	if loc := FormatGeo(g); loc != "" {
		data["Location"] = loc
	}
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
