package asus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/criteo/biosync/pkg/biosync"
)

func TestNewASUSVendor(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		vendor := NewASUSVendor("/usr/bin/chromium", true)

		assert.Equal(t, DefaultBaseURL, vendor.BaseURL)
		assert.Equal(t, "/usr/bin/chromium", vendor.BrowserPath)
		assert.True(t, vendor.Headless)
		assert.Equal(t, DefaultPageTimeout, vendor.PageTimeout)
	})
}

func TestASUSVendor_SupportURL(t *testing.T) {
	vendor := NewASUSVendor("", true)

	t.Run("LowercasesModel", func(t *testing.T) {
		assert.Equal(t,
			"https://www.asus.com/supportonly/tn3604ya/helpdesk_bios/",
			vendor.SupportURL(biosync.Model("TN3604YA")),
		)
	})

	t.Run("CustomBaseURL", func(t *testing.T) {
		custom := &ASUSVendor{BaseURL: "http://127.0.0.1:8080/"}
		assert.Equal(t,
			"http://127.0.0.1:8080/supportonly/ux3405ma/helpdesk_bios/",
			custom.SupportURL(biosync.NewModel("UX3405MA")),
		)
	})
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		version biosync.Version
		wantErr bool
	}{
		{"Plain", "302", 302, false},
		{"Padded", "  045 \n", 45, false},
		{"Zero", "0", 0, false},
		{"Empty", "", biosync.NoVersion, true},
		{"Dotted", "3.02", biosync.NoVersion, true},
		{"Beta", "302 beta", biosync.NoVersion, true},
		{"Negative", "-1", biosync.NoVersion, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := ParseVersion(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVersion)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "TN3604YAAS302.zip", ArchiveName(biosync.NewModel("tn3604ya"), "302"))
	assert.Equal(t, "UX3405MAAS045.zip", ArchiveName(biosync.NewModel("UX3405MA"), " 045 "), "Version text is kept as published")
}

func TestFindBIOSScript(t *testing.T) {
	assert.Contains(t, findBIOSScript, "ProductSupportDriverBIOS__contentLeft")
	assert.Contains(t, findBIOSScript, "data-biosync")
}
