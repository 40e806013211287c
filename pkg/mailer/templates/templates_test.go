package templates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/config"
)

func TestRenderOTPCodePerPurpose(t *testing.T) {
	cfg := &config.Config{AppName: "Arena", CompanyName: "Acme"}
	cases := map[string]string{
		"SIGNUP":         "Verify your email address",
		"RESET_PASSWORD": "Reset your password",
		"CHANGE_EMAIL":   "Confirm your new email address",
		"SOMETHING_ELSE": "Your verification code",
	}
	for purpose, heading := range cases {
		data := NewOTPCodeData(cfg, "a@b.com", "482913", purpose, WithExpiresIn(10*time.Minute))
		subject, text, html, err := Render(OTPCode, data)
		require.NoError(t, err, purpose)
		assert.Equal(t, heading+" - Arena", subject)
		assert.Contains(t, text, "482913")
		assert.Contains(t, text, "Hi a@b.com")
		assert.Contains(t, html, "482913")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", map[string]any{})
	assert.Error(t, err)
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "x", defaultFn("x", ""))
	assert.Equal(t, "x", defaultFn("x", nil))
	assert.Equal(t, "x", defaultFn("x", 0))
	assert.Equal(t, "v", defaultFn("x", "v"))
}

type fixedResolver struct {
	geo Geo
	err error
}

func (r fixedResolver) Lookup(context.Context, string) (Geo, error) { return r.geo, r.err }

func TestLocalizeTimes(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data := map[string]any{
		"IP":        "8.8.8.8",
		"ExpiresAt": at.Format(time.RFC3339),
		"TimeAt":    at.Format(time.RFC3339),
	}
	LocalizeTimes(context.Background(), fixedResolver{geo: Geo{City: "Jakarta", Country: "Indonesia", Timezone: "Asia/Jakarta"}}, data)

	assert.Equal(t, "01 March 2026, 17:00 WIB", data["ExpiresAtText"])
	assert.Equal(t, "Jakarta, Indonesia", data["Location"])
}

func TestLocalizeTimesKeepsDataOnLookupFailure(t *testing.T) {
	data := map[string]any{"IP": "8.8.8.8", "ExpiresAtText": "unchanged"}
	LocalizeTimes(context.Background(), fixedResolver{err: errors.New("down")}, data)
	assert.Equal(t, "unchanged", data["ExpiresAtText"])

	LocalizeTimes(context.Background(), nil, data)
	assert.Equal(t, "unchanged", data["ExpiresAtText"])
}

func TestIPAPIResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/json/8.8.8.8"))
		_, _ = w.Write([]byte(`{"status":"success","country":"US","regionName":"CA","city":"MV","timezone":"America/Los_Angeles"}`))
	}))
	defer srv.Close()

	r := IPAPIResolver{Client: srv.Client(), BaseURL: srv.URL}
	g, err := r.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "MV, CA, US", FormatGeo(g))
	assert.Equal(t, "America/Los_Angeles", g.Timezone)

	_, err = r.Lookup(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	_, err = r.Lookup(context.Background(), "not-an-ip")
	assert.Error(t, err)
}
